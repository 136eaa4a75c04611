package service

import (
	"context"

	"github.com/freeeve/hexciv/pkg/civ"
	"github.com/freeeve/hexciv/pkg/hex"
)

// CityView is a city with its effective production and per-item estimates.
type CityView struct {
	*civ.City
	EffectiveProduction int   `json:"effectiveProduction"`
	TurnsLeft           []int `json:"turnsLeft"`
}

// CityService manages city production queues.
type CityService struct {
	store       *WorldStore
	broadcaster Broadcaster
	catalog     *civ.Catalog
}

// NewCityService creates a CityService.
func NewCityService(store *WorldStore, broadcaster Broadcaster, cat *civ.Catalog) *CityService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &CityService{store: store, broadcaster: broadcaster, catalog: cat}
}

func (s *CityService) view(c *civ.City) *CityView {
	yield := civ.EffectiveProduction(c, s.catalog)
	v := &CityView{City: c, EffectiveProduction: yield, TurnsLeft: make([]int, len(c.Queue))}
	for i := range c.Queue {
		v.TurnsLeft[i] = c.Queue[i].TurnsLeft(yield)
	}
	return v
}

// ownedCity returns the city if playerID owns it.
func ownedCity(w *civ.World, playerID, cityID string) (*civ.City, *civ.Player, error) {
	p := w.Player(playerID)
	if p == nil {
		return nil, nil, ErrPlayerNotFound
	}
	c := w.City(cityID)
	if c == nil || c.PlayerID != playerID {
		return nil, nil, ErrCityNotFound
	}
	return c, p, nil
}

// GetCity returns a city of the session.
func (s *CityService) GetCity(ctx context.Context, sessionID, cityID string) (*CityView, error) {
	w, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c := w.City(cityID)
	if c == nil {
		return nil, ErrCityNotFound
	}
	return s.view(c), nil
}

// Enqueue adds an item to the production queue at pos, or at the end when
// pos is negative.
func (s *CityService) Enqueue(ctx context.Context, sessionID, playerID, cityID string, itemType civ.ItemType, itemID string, pos int) (*CityView, error) {
	var out *CityView
	err := s.store.Update(ctx, sessionID, func(w *civ.World) error {
		c, p, err := ownedCity(w, playerID, cityID)
		if err != nil {
			return err
		}
		if _, err := civ.Enqueue(c, itemType, itemID, pos, &p.Research, s.catalog); err != nil {
			return err
		}
		out = s.view(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastSessionEvent(sessionID, EventQueueChanged, out)
	return out, nil
}

// Reorder moves a queue item to a new position.
func (s *CityService) Reorder(ctx context.Context, sessionID, playerID, cityID, itemID string, pos int) (*CityView, error) {
	var out *CityView
	err := s.store.Update(ctx, sessionID, func(w *civ.World) error {
		c, _, err := ownedCity(w, playerID, cityID)
		if err != nil {
			return err
		}
		if err := civ.Reorder(c, itemID, pos); err != nil {
			return err
		}
		out = s.view(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastSessionEvent(sessionID, EventQueueChanged, out)
	return out, nil
}

// Cancel removes a queue item.
func (s *CityService) Cancel(ctx context.Context, sessionID, playerID, cityID, itemID string) (*CityView, error) {
	var out *CityView
	err := s.store.Update(ctx, sessionID, func(w *civ.World) error {
		c, _, err := ownedCity(w, playerID, cityID)
		if err != nil {
			return err
		}
		if err := civ.Cancel(c, itemID); err != nil {
			return err
		}
		out = s.view(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastSessionEvent(sessionID, EventQueueChanged, out)
	return out, nil
}

// FoundingSites lists where playerID could found a city next.
func (s *CityService) FoundingSites(ctx context.Context, sessionID, playerID string) ([]hex.Coord, error) {
	w, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if w.Player(playerID) == nil {
		return nil, ErrPlayerNotFound
	}
	return w.FoundingSites(playerID, civ.FoundingRadius), nil
}
