package service

import (
	"context"

	"github.com/freeeve/hexciv/pkg/civ"
	"github.com/freeeve/hexciv/pkg/hex"
)

// UnitService moves and commands units.
type UnitService struct {
	store       *WorldStore
	broadcaster Broadcaster
	catalog     *civ.Catalog
}

// NewUnitService creates a UnitService.
func NewUnitService(store *WorldStore, broadcaster Broadcaster, cat *civ.Catalog) *UnitService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &UnitService{store: store, broadcaster: broadcaster, catalog: cat}
}

func ownedUnit(w *civ.World, playerID, unitID string) (*civ.Unit, error) {
	if w.Player(playerID) == nil {
		return nil, ErrPlayerNotFound
	}
	u := w.Unit(unitID)
	if u == nil || u.PlayerID != playerID {
		return nil, ErrUnitNotFound
	}
	return u, nil
}

// Move moves a unit of playerID to `to`.
func (s *UnitService) Move(ctx context.Context, sessionID, playerID, unitID string, to hex.Coord) (*civ.MoveResult, error) {
	var out *civ.MoveResult
	err := s.store.Update(ctx, sessionID, func(w *civ.World) error {
		if _, err := ownedUnit(w, playerID, unitID); err != nil {
			return err
		}
		res, err := civ.MoveUnit(w, unitID, to, s.catalog)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Command applies a standing order or a one-shot action to a unit.
func (s *UnitService) Command(ctx context.Context, sessionID, playerID, unitID string, cmd civ.Command, cityName string) (*civ.CommandResult, error) {
	var out *civ.CommandResult
	err := s.store.Update(ctx, sessionID, func(w *civ.World) error {
		if _, err := ownedUnit(w, playerID, unitID); err != nil {
			return err
		}
		res, err := civ.CommandUnit(w, unitID, cmd, cityName)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.City != nil {
		s.broadcaster.BroadcastSessionEvent(sessionID, EventCityFounded, out.City)
	}
	return out, nil
}
