package civ

import (
	"fmt"

	"github.com/freeeve/hexciv/pkg/hex"
)

// Default setup values for a new game.
const (
	DefaultWidth         = 40
	DefaultHeight        = 30
	DefaultCivilization  = "Korea"
	DefaultStartSpacing  = 6
	DefaultPlayerSpacing = 8
	MaxAICivilizations   = 7
	// openingSpawnRadius is how far from its start an opening unit may land.
	openingSpawnRadius = 2
)

// DefaultAICivilizations are the computer opponents of a game created
// without an explicit list.
var DefaultAICivilizations = []string{"Japan", "China", "Mongolia", "Russia", "Rome"}

// SetupOptions describes a new game world.
type SetupOptions struct {
	SessionID      string
	Width          int
	Height         int
	MapType        MapType
	Seed           int64
	PlayerName     string
	Civilization   string
	AICivs         []string
	PlayerQuadrant Quadrant
}

func (o *SetupOptions) defaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.MapType == "" {
		o.MapType = MapContinents
	}
	if o.Civilization == "" {
		o.Civilization = DefaultCivilization
	}
	if o.PlayerName == "" {
		o.PlayerName = o.Civilization
	}
	if o.AICivs == nil {
		o.AICivs = DefaultAICivilizations
	}
}

// SetupWorld generates the map, places every civilization and creates the
// opening pieces: a settler and a warrior for each player, plus a capital on
// each AI start. The human player is always seat 0.
func SetupWorld(opts SetupOptions, cat *Catalog) (*World, *Map, error) {
	opts.defaults()
	if len(opts.AICivs) > MaxAICivilizations {
		return nil, nil, &ConfigurationError{Reason: fmt.Sprintf("at most %d AI civilizations", MaxAICivilizations)}
	}
	m, err := GenerateForSession(opts.SessionID, GenerateOptions{
		Width:   opts.Width,
		Height:  opts.Height,
		MapType: opts.MapType,
		Seed:    opts.Seed,
	}, cat)
	if err != nil {
		return nil, nil, err
	}
	starts, err := AllocateStarts(m, StartOptions{
		Count:                 1 + len(opts.AICivs),
		MinDistance:           DefaultStartSpacing,
		MinDistanceFromPlayer: DefaultPlayerSpacing,
		MinFloor:              MinCitySpacing,
		PlayerQuadrant:        opts.PlayerQuadrant,
	})
	if err != nil {
		return nil, nil, err
	}

	w := NewWorld(opts.SessionID, m.Width, m.Height, m.Tiles)
	w.Turn = 1
	w.Players = append(w.Players, &Player{
		ID:           NewID(),
		SessionID:    opts.SessionID,
		Name:         opts.PlayerName,
		Civilization: opts.Civilization,
		Index:        0,
	})
	for i, civName := range opts.AICivs {
		w.Players = append(w.Players, &Player{
			ID:           NewID(),
			SessionID:    opts.SessionID,
			Name:         civName,
			Civilization: civName,
			IsAI:         true,
			Index:        i + 1,
		})
	}

	for i, p := range w.Players {
		at := starts[i]
		if p.IsAI {
			if _, err := w.FoundCity(p.ID, defaultCityName(w, p.ID), at); err != nil {
				return nil, nil, &ConfigurationError{Reason: fmt.Sprintf("capital for %s: %v", p.Civilization, err)}
			}
		}
		if err := w.openingUnits(p.ID, at, cat); err != nil {
			return nil, nil, &ConfigurationError{Reason: fmt.Sprintf("opening units for %s: %v", p.Civilization, err)}
		}
	}
	w.ClearDirty()
	return w, m, nil
}

func (w *World) openingUnits(playerID string, at hex.Coord, cat *Catalog) error {
	for _, unitType := range []string{"settler", "warrior"} {
		if _, err := w.spawnWithin(playerID, unitType, at, openingSpawnRadius, cat); err != nil {
			return err
		}
	}
	return nil
}
