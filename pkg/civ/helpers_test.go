package civ

import (
	"fmt"
	"testing"

	"github.com/freeeve/hexciv/pkg/hex"
)

// testCatalog is the default catalog plus a few fixtures with round costs.
func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat := DefaultCatalog()
	cat.Units = append(cat.Units,
		UnitDef{ID: "drone", Name: "Drone", Cost: 12, Move: 2, Sight: 1},
	)
	cat.Projects = append(cat.Projects,
		ProjectDef{ID: "tiny", Name: "Tiny", Cost: 2, Yields: Yields{Gold: 1}},
	)
	if err := cat.index(); err != nil {
		t.Fatalf("index test catalog: %v", err)
	}
	return cat
}

// flatMap builds a width x height map where every tile has terrain t.
func flatMap(width, height int, t Terrain) *Map {
	m := &Map{Width: width, Height: height}
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			c := hex.FromOffset(col, row)
			m.Tiles = append(m.Tiles, &Tile{Q: c.Q, R: c.R, S: c.S, Terrain: t})
		}
	}
	return m
}

// newTestWorld returns a grassland world with one human player "p1", one AI
// "ai1", and a capital for p1 in the middle of the map.
func newTestWorld(t *testing.T) (*World, *City) {
	t.Helper()
	seq := 0
	old := NewID
	NewID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	t.Cleanup(func() { NewID = old })

	m := flatMap(12, 12, Grassland)
	w := NewWorld("s1", m.Width, m.Height, m.Tiles)
	w.Turn = 1
	w.Players = []*Player{
		{ID: "p1", SessionID: "s1", Civilization: "Rome", Index: 0},
		{ID: "ai1", SessionID: "s1", Civilization: "Egypt", IsAI: true, Index: 1},
	}
	city, err := w.FoundCity("p1", "Roma", hex.FromOffset(6, 6))
	if err != nil {
		t.Fatalf("FoundCity: %v", err)
	}
	return w, city
}

func assertContiguous(t *testing.T, c *City) {
	t.Helper()
	for i, item := range c.Queue {
		if item.Order != i {
			t.Fatalf("queue order not contiguous: item %d has order %d (%+v)", i, item.Order, c.Queue)
		}
	}
}
