package service

import (
	"context"
	"errors"
	"testing"

	"github.com/freeeve/hexciv/pkg/civ"
	"github.com/freeeve/hexciv/pkg/hex"
)

func findUnit(w *civ.World, playerID, unitType string) *civ.Unit {
	for _, u := range w.UnitsOf(playerID) {
		if u.Type == unitType {
			return u
		}
	}
	return nil
}

func TestUnitMove(t *testing.T) {
	e := newTestEnv()
	id, playerID := createTestSession(t, e)
	w := e.worlds.stored(id)
	warrior := findUnit(w, playerID, "warrior")

	var dest hex.Coord
	found := false
	for _, n := range hex.Neighbors(warrior.Coord()) {
		tile := w.Tile(n)
		if tile != nil && tile.UnitID == "" && !tile.Terrain.IsWater() && e.catalog.MoveCost(tile.Terrain) == 1 {
			dest, found = n, true
			break
		}
	}
	if !found {
		t.Skip("no flat free neighbor on this map")
	}

	res, err := e.unit.Move(context.Background(), id, playerID, warrior.ID, dest)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if res.Cost != 1 {
		t.Errorf("expected cost 1, got %d", res.Cost)
	}
	stored := e.worlds.stored(id)
	u := stored.Unit(warrior.ID)
	if u.Coord() != dest || u.Movement != u.MaxMovement-1 || u.Status != civ.StatusMoving {
		t.Fatalf("unexpected unit after move: %+v", u)
	}
	if stored.Tile(dest).UnitID != u.ID || stored.Tile(warrior.Coord()).UnitID == u.ID {
		t.Error("tile back-references not moved")
	}
}

func TestUnitOwnership(t *testing.T) {
	e := newTestEnv()
	id, playerID := createTestSession(t, e)
	w := e.worlds.stored(id)
	aiWarrior := findUnit(w, w.Players[1].ID, "warrior")

	if _, err := e.unit.Move(context.Background(), id, playerID, aiWarrior.ID, aiWarrior.Coord()); !errors.Is(err, ErrUnitNotFound) {
		t.Errorf("move foreign unit: expected ErrUnitNotFound, got %v", err)
	}
	if _, err := e.unit.Command(context.Background(), id, playerID, aiWarrior.ID, civ.CmdFortify, ""); !errors.Is(err, ErrUnitNotFound) {
		t.Errorf("command foreign unit: expected ErrUnitNotFound, got %v", err)
	}
	if _, err := e.unit.Command(context.Background(), id, "nobody", aiWarrior.ID, civ.CmdFortify, ""); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("unknown player: expected ErrPlayerNotFound, got %v", err)
	}
}

func TestUnitCommands(t *testing.T) {
	e := newTestEnv()
	id, playerID := createTestSession(t, e)
	warrior := findUnit(e.worlds.stored(id), playerID, "warrior")
	ctx := context.Background()

	res, err := e.unit.Command(ctx, id, playerID, warrior.ID, civ.CmdFortify, "")
	if err != nil {
		t.Fatalf("fortify: %v", err)
	}
	if res.Status != civ.StatusFortified {
		t.Errorf("expected fortified, got %s", res.Status)
	}

	var actionErr *civ.ActionError
	if _, err := e.unit.Command(ctx, id, playerID, warrior.ID, civ.CmdFoundCity, ""); !errors.As(err, &actionErr) {
		t.Errorf("warrior founding a city: expected ActionError, got %v", err)
	}
	if _, err := e.unit.Command(ctx, id, playerID, warrior.ID, civ.Command("dance"), ""); !errors.As(err, &actionErr) {
		t.Errorf("unknown command: expected ActionError, got %v", err)
	}

	res, err = e.unit.Command(ctx, id, playerID, warrior.ID, civ.CmdDisband, "")
	if err != nil {
		t.Fatalf("disband: %v", err)
	}
	if !res.Removed || e.worlds.stored(id).Unit(warrior.ID) != nil {
		t.Error("expected warrior to be removed")
	}
}

func TestUnitFoundCityBroadcasts(t *testing.T) {
	e := newTestEnv()
	id, playerID := createTestSession(t, e)
	cityID := foundHumanCity(t, e, id, playerID)

	w := e.worlds.stored(id)
	c := w.City(cityID)
	if c == nil || c.PlayerID != playerID || c.Name != "Seoul" {
		t.Fatalf("unexpected city: %+v", c)
	}
	if findUnit(w, playerID, "settler") != nil {
		t.Error("settler should be consumed")
	}
	if n := e.broadcaster.count(EventCityFounded); n != 1 {
		t.Errorf("expected 1 city_founded event, got %d", n)
	}
}
