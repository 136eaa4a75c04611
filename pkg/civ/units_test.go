package civ

import (
	"testing"

	"github.com/freeeve/hexciv/pkg/hex"
)

func spawn(t *testing.T, w *World, playerID, unitType string, at hex.Coord, cat *Catalog) *Unit {
	t.Helper()
	u, err := w.SpawnUnit(playerID, unitType, at, cat)
	if err != nil {
		t.Fatalf("SpawnUnit(%s): %v", unitType, err)
	}
	if u.Coord() != at {
		t.Fatalf("unit spawned at %v, want %v", u.Coord(), at)
	}
	return u
}

func TestResetUnits_Idempotent(t *testing.T) {
	cat := testCatalog(t)
	w, _ := newTestWorld(t)
	a := spawn(t, w, "p1", "warrior", hex.FromOffset(2, 2), cat)
	b := spawn(t, w, "ai1", "scout", hex.FromOffset(9, 9), cat)
	a.Movement, a.Status = 0, StatusFortified
	b.Movement, b.Status = 1, StatusMoving

	if n := ResetUnits(w); n != 2 {
		t.Fatalf("reset %d units, want 2", n)
	}
	first := []Unit{*a, *b}
	ResetUnits(w)
	if *a != first[0] || *b != first[1] {
		t.Error("second reset changed units")
	}
	if a.Movement != 2 || b.Movement != 3 {
		t.Errorf("movement = %d/%d, want 2/3", a.Movement, b.Movement)
	}
	if a.Status != StatusIdle || b.Status != StatusIdle {
		t.Errorf("status = %s/%s, want idle", a.Status, b.Status)
	}
}

func TestSpawnUnit_NavalNeedsWater(t *testing.T) {
	cat := testCatalog(t)
	w, _ := newTestWorld(t)
	at := hex.FromOffset(2, 2)
	if _, err := w.SpawnUnit("p1", "galley", at, cat); err == nil {
		t.Fatal("galley should not spawn on an all-land map")
	}
	water := hex.Spiral(at, 1)[3]
	w.Tile(water).Terrain = Coast
	u, err := w.SpawnUnit("p1", "galley", at, cat)
	if err != nil {
		t.Fatalf("SpawnUnit: %v", err)
	}
	if u.Coord() != water {
		t.Errorf("galley at %v, want %v", u.Coord(), water)
	}
}

func TestSpawnUnit_RevealsAndBacklinks(t *testing.T) {
	cat := testCatalog(t)
	m := flatMap(12, 12, Grassland)
	w := NewWorld("s", m.Width, m.Height, m.Tiles)
	at := hex.FromOffset(3, 3)
	u := spawn(t, w, "p1", "scout", at, cat)

	if w.Tile(at).UnitID != u.ID {
		t.Error("tile should reference the unit")
	}
	for _, c := range hex.InRadius(at, 3) {
		if tile := w.Tile(c); tile != nil && !tile.Explored {
			t.Errorf("tile %v within sight not explored", c)
		}
	}
	if far := w.Tile(hex.FromOffset(10, 10)); far.Explored {
		t.Error("distant tile should stay unexplored")
	}
}

func TestMoveUnit_PathCosts(t *testing.T) {
	cat := testCatalog(t)
	w, _ := newTestWorld(t)
	start := hex.FromOffset(2, 2)
	u := spawn(t, w, "p1", "warrior", start, cat)

	dest := start.Neighbor(0).Neighbor(0)
	res, err := MoveUnit(w, u.ID, dest, cat)
	if err != nil {
		t.Fatalf("MoveUnit: %v", err)
	}
	if res.Cost != 2 || len(res.Path) != 3 {
		t.Errorf("cost %d path %v, want cost 2 over 3 tiles", res.Cost, res.Path)
	}
	if u.Coord() != dest || u.Movement != 0 || u.Status != StatusMoving {
		t.Errorf("unit = %+v", u)
	}
	if w.Tile(start).UnitID != "" || w.Tile(dest).UnitID != u.ID {
		t.Error("tile back-references not updated")
	}

	if _, err := MoveUnit(w, u.ID, dest.Neighbor(0), cat); err == nil {
		t.Error("move with no movement left should fail")
	}
}

func TestMoveUnit_RoughTerrain(t *testing.T) {
	cat := testCatalog(t)
	w, _ := newTestWorld(t)
	start := hex.FromOffset(2, 2)
	u := spawn(t, w, "p1", "warrior", start, cat)

	hills := start.Neighbor(1)
	w.Tile(hills).Terrain = Hills
	res, err := MoveUnit(w, u.ID, hills, cat)
	if err != nil {
		t.Fatalf("MoveUnit: %v", err)
	}
	if res.Cost != 2 {
		t.Errorf("hills cost = %d, want 2", res.Cost)
	}

	ResetUnits(w)
	mountain := hills.Neighbor(1)
	w.Tile(mountain).Terrain = Mountain
	if _, err := MoveUnit(w, u.ID, mountain, cat); err == nil {
		t.Error("mountain should be impassable")
	}
	ocean := hills.Neighbor(2)
	w.Tile(ocean).Terrain = Ocean
	if _, err := MoveUnit(w, u.ID, ocean, cat); err == nil {
		t.Error("land unit should not enter ocean")
	}
}

func TestMoveUnit_Rejections(t *testing.T) {
	cat := testCatalog(t)
	w, _ := newTestWorld(t)
	start := hex.FromOffset(2, 2)
	u := spawn(t, w, "p1", "warrior", start, cat)
	other := spawn(t, w, "p1", "scout", start.Neighbor(0), cat)

	tests := []struct {
		name string
		id   string
		to   hex.Coord
	}{
		{"unknown unit", "ghost", start.Neighbor(3)},
		{"off map", u.ID, hex.New(-50, 0)},
		{"occupied", u.ID, other.Coord()},
		{"out of reach", u.ID, start.Neighbor(5).Neighbor(5).Neighbor(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := MoveUnit(w, tt.id, tt.to, cat); err == nil {
				t.Fatal("expected error")
			}
			if u.Coord() != start || u.Movement != 2 {
				t.Errorf("failed move changed the unit: %+v", u)
			}
		})
	}
}

func TestCommandUnit_Statuses(t *testing.T) {
	cat := testCatalog(t)
	w, _ := newTestWorld(t)
	u := spawn(t, w, "p1", "warrior", hex.FromOffset(2, 2), cat)

	tests := []struct {
		cmd  Command
		want UnitStatus
	}{
		{CmdFortify, StatusFortified},
		{CmdAlert, StatusAlert},
		{CmdSleep, StatusSleeping},
		{CmdExplore, StatusExploring},
	}
	for _, tt := range tests {
		res, err := CommandUnit(w, u.ID, tt.cmd, "")
		if err != nil {
			t.Fatalf("CommandUnit(%s): %v", tt.cmd, err)
		}
		if res.Status != tt.want || u.Status != tt.want {
			t.Errorf("%s: status %s, want %s", tt.cmd, u.Status, tt.want)
		}
	}
	if _, err := CommandUnit(w, u.ID, Command("dance"), ""); err == nil {
		t.Error("unknown command should fail")
	}
	if _, err := CommandUnit(w, u.ID, CmdFoundCity, ""); err == nil {
		t.Error("warrior should not found a city")
	}
}

func TestCommandUnit_SettlerFoundsCity(t *testing.T) {
	cat := testCatalog(t)
	w, _ := newTestWorld(t)
	at := hex.FromOffset(1, 1)
	settler := spawn(t, w, "p1", "settler", at, cat)

	res, err := CommandUnit(w, settler.ID, CmdFoundCity, "")
	if err != nil {
		t.Fatalf("CommandUnit: %v", err)
	}
	if res.City == nil || res.City.Coord() != at {
		t.Fatalf("city = %+v", res.City)
	}
	if res.City.Name != "Rome Colony 2" {
		t.Errorf("city name = %q, want Rome Colony 2", res.City.Name)
	}
	if !res.Removed || w.Unit(settler.ID) != nil {
		t.Error("settler should be consumed")
	}
	if w.Tile(at).UnitID != "" || w.Tile(at).CityID != res.City.ID {
		t.Errorf("tile = %+v", w.Tile(at))
	}
	if got := w.RemovedUnits(); len(got) != 1 || got[0] != settler.ID {
		t.Errorf("removed units = %v", got)
	}
}

func TestCommandUnit_FoundCityTooClose(t *testing.T) {
	cat := testCatalog(t)
	w, city := newTestWorld(t)
	near := city.Coord().Neighbor(0)
	settler := spawn(t, w, "p1", "settler", near, cat)
	if _, err := CommandUnit(w, settler.ID, CmdFoundCity, "Too Close"); err == nil {
		t.Fatal("expected spacing error")
	}
	if w.Unit(settler.ID) == nil || settler.Charges != 1 {
		t.Error("failed founding should not consume the settler")
	}
}

func TestCommandUnit_Disband(t *testing.T) {
	cat := testCatalog(t)
	w, _ := newTestWorld(t)
	at := hex.FromOffset(2, 2)
	u := spawn(t, w, "p1", "warrior", at, cat)
	res, err := CommandUnit(w, u.ID, CmdDisband, "")
	if err != nil {
		t.Fatalf("CommandUnit: %v", err)
	}
	if !res.Removed || w.Unit(u.ID) != nil || w.Tile(at).UnitID != "" {
		t.Error("disbanded unit should be removed from the world and its tile")
	}
}

func TestFoundCity_Rules(t *testing.T) {
	w, city := newTestWorld(t)
	if _, err := w.FoundCity("p1", "Dup", city.Coord()); err == nil {
		t.Error("expected error founding on an existing city")
	}
	far := hex.FromOffset(1, 1)
	w.Tile(far).Terrain = Mountain
	if _, err := w.FoundCity("p1", "Peak", far); err == nil {
		t.Error("expected error founding on a mountain")
	}
	if _, err := w.FoundCity("p1", "Void", hex.New(100, 100)); !IsNotFound(err) {
		t.Errorf("expected not found off map, got %v", err)
	}
	for _, site := range w.FoundingSites("p1", 4) {
		if hex.Distance(site, city.Coord()) < MinCitySpacing {
			t.Errorf("founding site %v too close to capital", site)
		}
	}
}
