package service

import (
	"context"

	"github.com/freeeve/hexciv/pkg/civ"
)

// ResearchStatus is a player's research with the techs it can start next.
type ResearchStatus struct {
	civ.ResearchState
	Available      []string `json:"available"`
	Science        int      `json:"science"`
	TurnsRemaining int      `json:"turnsRemaining,omitempty"`
}

// ResearchService starts, cancels and reports research.
type ResearchService struct {
	store   *WorldStore
	catalog *civ.Catalog
}

// NewResearchService creates a ResearchService.
func NewResearchService(store *WorldStore, cat *civ.Catalog) *ResearchService {
	return &ResearchService{store: store, catalog: cat}
}

func (s *ResearchService) status(w *civ.World, p *civ.Player) *ResearchStatus {
	st := &ResearchStatus{
		ResearchState: p.Research,
		Available:     civ.AvailableTechs(&p.Research, s.catalog),
		Science:       w.Science(p.ID),
	}
	if cur := p.Research.Current; cur != nil {
		if t, ok := s.catalog.Tech(cur.TechID); ok {
			r := civ.ResearchResult{Progress: cur.Progress, Cost: t.Cost, Delta: st.Science}
			st.TurnsRemaining = r.TurnsRemaining()
		}
	}
	return st
}

// Status returns the research state of playerID.
func (s *ResearchService) Status(ctx context.Context, sessionID, playerID string) (*ResearchStatus, error) {
	w, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p := w.Player(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	return s.status(w, p), nil
}

// Start begins research on techID. Rule violations return
// *civ.InvalidResearchRequest and change nothing.
func (s *ResearchService) Start(ctx context.Context, sessionID, playerID, techID string) (*ResearchStatus, error) {
	var out *ResearchStatus
	err := s.store.Update(ctx, sessionID, func(w *civ.World) error {
		p := w.Player(playerID)
		if p == nil {
			return ErrPlayerNotFound
		}
		if err := civ.StartResearch(&p.Research, techID, s.catalog); err != nil {
			return err
		}
		out = s.status(w, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel drops the in-progress tech.
func (s *ResearchService) Cancel(ctx context.Context, sessionID, playerID string) (*ResearchStatus, error) {
	var out *ResearchStatus
	err := s.store.Update(ctx, sessionID, func(w *civ.World) error {
		p := w.Player(playerID)
		if p == nil {
			return ErrPlayerNotFound
		}
		civ.CancelResearch(&p.Research)
		out = s.status(w, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
