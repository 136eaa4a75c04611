package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexciv/pkg/civ"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		width       int
		height      int
		mapType     string
		seed        int64
		out         string
		catalogPath string
		raw         bool
	)
	flag.IntVar(&width, "width", civ.DefaultWidth, "Map width in tiles")
	flag.IntVar(&height, "height", civ.DefaultHeight, "Map height in tiles")
	flag.StringVar(&mapType, "map", string(civ.MapContinents), "Map type (continents, pangaea, archipelago, small_continents)")
	flag.Int64Var(&seed, "seed", 1, "Generation seed")
	flag.StringVar(&out, "o", "", "Output file (default stdout)")
	flag.StringVar(&catalogPath, "catalog", "", "Catalog YAML (default: built-in)")
	flag.BoolVar(&raw, "raw", false, "Write plain JSON instead of zstd")
	flag.Parse()

	cat := civ.DefaultCatalog()
	if catalogPath != "" {
		loaded, err := civ.LoadCatalog(catalogPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", catalogPath).Msg("Catalog load failed")
		}
		cat = loaded
	}

	m := civ.Generate(civ.GenerateOptions{
		Width:   width,
		Height:  height,
		MapType: civ.MapType(mapType),
		Seed:    seed,
	}, cat)

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			log.Fatal().Err(err).Str("path", out).Msg("Create output failed")
		}
		defer f.Close()
		w = f
	}
	if err := write(w, m, raw); err != nil {
		log.Fatal().Err(err).Msg("Write map failed")
	}
	log.Info().Str("hash", m.Hash).Int("tiles", len(m.Tiles)).Str("terrain", summary(m)).Msg("Map generated")
}

func write(w io.Writer, m *civ.Map, raw bool) error {
	if raw {
		return json.NewEncoder(w).Encode(m)
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(m); err != nil {
		zw.Close()
		return fmt.Errorf("encode map: %w", err)
	}
	return zw.Close()
}

// summary renders terrain counts as "grassland=40 ocean=120 ...".
func summary(m *civ.Map) string {
	counts := m.TerrainCounts()
	keys := make([]string, 0, len(counts))
	for t := range counts {
		keys = append(keys, string(t))
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[civ.Terrain(k)])
	}
	return strings.Join(parts, " ")
}
