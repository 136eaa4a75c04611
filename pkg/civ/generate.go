package civ

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
	"lukechampine.com/blake3"

	hexgrid "github.com/freeeve/hexciv/pkg/hex"
)

// Band thresholds on normalized distance to the nearest continent center.
const (
	primaryBand   = 0.3
	secondaryBand = 0.6

	// NoResourceChance is the probability that a land tile gets no resource.
	NoResourceChance = 0.7

	// DefaultJitter is the coastline noise amplitude applied to normalized
	// distance.
	DefaultJitter = 0.15

	// resourceLimitArea is the map area at which base resource limits apply
	// unscaled.
	resourceLimitArea = 300
	noiseScale        = 0.18
	edgeMargin        = 2
)

// GenerateOptions configures map generation.
type GenerateOptions struct {
	Width   int
	Height  int
	MapType MapType
	Seed    int64
	// Jitter is the opensimplex amplitude added to normalized distance.
	// Nil means DefaultJitter; zero disables noise.
	Jitter *float64
}

// Map is a generated tile layout.
type Map struct {
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	MapType MapType         `json:"mapType"`
	Seed    int64           `json:"seed"`
	Tiles   []*Tile         `json:"tiles"`
	Centers []hexgrid.Coord `json:"-"`
	Hash    string          `json:"hash"`
}

// Generate lays out terrain and resources for a width x height odd-r
// rectangle. The same options always yield the same map.
func Generate(opts GenerateOptions, cat *Catalog) *Map {
	rng := rand.New(rand.NewSource(opts.Seed))
	noise := opensimplex.NewNormalized(opts.Seed)
	jitter := DefaultJitter
	if opts.Jitter != nil {
		jitter = *opts.Jitter
	}
	arch := cat.Archetype(opts.MapType)

	m := &Map{Width: opts.Width, Height: opts.Height, MapType: opts.MapType, Seed: opts.Seed}
	m.Centers = sampleCenters(rng, opts.Width, opts.Height, max(arch.ContinentCount, 1))

	maxRadius := float64(min(opts.Width, opts.Height)) * (0.5 + arch.SizeVariance)
	if maxRadius <= 0 {
		maxRadius = 1
	}

	m.Tiles = make([]*Tile, 0, opts.Width*opts.Height)
	for row := 0; row < opts.Height; row++ {
		for col := 0; col < opts.Width; col++ {
			c := hexgrid.FromOffset(col, row)
			d := math.MaxInt
			for _, center := range m.Centers {
				d = min(d, hexgrid.Distance(c, center))
			}
			norm := float64(d) / maxRadius
			if jitter != 0 {
				norm += (noise.Eval2(float64(col)*noiseScale, float64(row)*noiseScale) - 0.5) * jitter
			}
			var band []WeightedTerrain
			switch {
			case norm < primaryBand:
				band = arch.Primary
			case norm < secondaryBand:
				band = arch.Secondary
			default:
				band = arch.Water
			}
			m.Tiles = append(m.Tiles, &Tile{Q: c.Q, R: c.R, S: c.S, Terrain: pickTerrain(rng, band)})
		}
	}

	markCoast(m)
	placeResources(rng, m, cat)
	m.Hash = fingerprint(m)
	return m
}

// GenerateForSession generates a map and stamps every tile with sessionID.
// It fails with a ConfigurationError when the map has no habitable land.
func GenerateForSession(sessionID string, opts GenerateOptions, cat *Catalog) (*Map, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("invalid map size %dx%d", opts.Width, opts.Height)}
	}
	m := Generate(opts, cat)
	habitable := 0
	for _, t := range m.Tiles {
		t.SessionID = sessionID
		if t.Terrain.Habitable() {
			habitable++
		}
	}
	if habitable == 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("%s map %dx%d has no habitable land", opts.MapType, opts.Width, opts.Height)}
	}
	return m, nil
}

func sampleCenters(rng *rand.Rand, width, height, n int) []hexgrid.Coord {
	loCol, hiCol := edgeMargin, width-edgeMargin
	loRow, hiRow := edgeMargin, height-edgeMargin
	if hiCol <= loCol {
		loCol, hiCol = 0, width
	}
	if hiRow <= loRow {
		loRow, hiRow = 0, height
	}
	out := make([]hexgrid.Coord, n)
	for i := range out {
		col := loCol + rng.Intn(max(hiCol-loCol, 1))
		row := loRow + rng.Intn(max(hiRow-loRow, 1))
		out[i] = hexgrid.FromOffset(col, row)
	}
	return out
}

func pickTerrain(rng *rand.Rand, band []WeightedTerrain) Terrain {
	total := 0.0
	for _, w := range band {
		total += w.Weight
	}
	if len(band) == 0 || total <= 0 {
		return Plains
	}
	x := rng.Float64() * total
	for _, w := range band {
		x -= w.Weight
		if x < 0 {
			return w.Terrain
		}
	}
	return band[len(band)-1].Terrain
}

// markCoast turns ocean next to land into coast.
func markCoast(m *Map) {
	idx := make(map[hexgrid.Coord]*Tile, len(m.Tiles))
	for _, t := range m.Tiles {
		idx[t.Coord()] = t
	}
	var coast []*Tile
	for _, t := range m.Tiles {
		if t.Terrain != Ocean {
			continue
		}
		for _, nc := range hexgrid.Neighbors(t.Coord()) {
			if n, ok := idx[nc]; ok && !n.Terrain.IsWater() {
				coast = append(coast, t)
				break
			}
		}
	}
	for _, t := range coast {
		t.Terrain = Coast
	}
}

// placeResources gives each tile at most one resource. Candidates come from
// the terrain table, narrowed to the highest-priority class that still has
// stock; with NoResourceChance nothing is placed, otherwise the remaining
// probability is split evenly.
func placeResources(rng *rand.Rand, m *Map, cat *Catalog) {
	scale := int(math.Ceil(float64(m.Width*m.Height) / resourceLimitArea))
	scale = max(scale, 1)
	placed := make(map[Resource]int)
	for _, t := range m.Tiles {
		cands := resourceCandidates(cat.Terrain[t.Terrain].Resources, cat, placed, scale)
		if len(cands) == 0 {
			continue
		}
		if rng.Float64() < NoResourceChance {
			continue
		}
		r := cands[rng.Intn(len(cands))]
		t.Resource = r
		placed[r]++
	}
}

func resourceCandidates(all []Resource, cat *Catalog, placed map[Resource]int, scale int) []Resource {
	for _, class := range ClassPriority {
		var out []Resource
		for _, r := range all {
			if r.Class() != class {
				continue
			}
			if limit, ok := cat.ResourceLimits[r]; ok && placed[r] >= limit*scale {
				continue
			}
			out = append(out, r)
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func fingerprint(m *Map) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d:%d:", m.Width, m.Height)
	for _, t := range m.Tiles {
		fmt.Fprintf(&buf, "%d,%d,%s,%s;", t.Q, t.R, t.Terrain, t.Resource)
	}
	sum := blake3.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

// TerrainCounts tallies terrain types, for logging and tests.
func (m *Map) TerrainCounts() map[Terrain]int {
	out := make(map[Terrain]int)
	for _, t := range m.Tiles {
		out[t.Terrain]++
	}
	return out
}
