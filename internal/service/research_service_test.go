package service

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/freeeve/hexciv/pkg/civ"
)

func TestResearchStartAndCancel(t *testing.T) {
	e := newTestEnv()
	id, playerID := createTestSession(t, e)
	ctx := context.Background()

	st, err := e.research.Status(ctx, id, playerID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !slices.Contains(st.Available, "agriculture") || slices.Contains(st.Available, "pottery") {
		t.Fatalf("expected only root techs available, got %v", st.Available)
	}
	if st.Science != civ.FallbackScience {
		t.Errorf("cityless player should use fallback science, got %d", st.Science)
	}

	st, err = e.research.Start(ctx, id, playerID, "agriculture")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if st.Current == nil || st.Current.TechID != "agriculture" || st.TurnsRemaining < 1 {
		t.Fatalf("unexpected status after start: %+v", st)
	}

	st, err = e.research.Cancel(ctx, id, playerID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if st.Current != nil {
		t.Fatal("expected no current research")
	}
	if p := e.worlds.stored(id).Player(playerID); p.Research.Current != nil {
		t.Error("cancel not saved")
	}
}

func TestResearchStartRejected(t *testing.T) {
	e := newTestEnv()
	id, playerID := createTestSession(t, e)
	ctx := context.Background()

	tests := []struct {
		name   string
		techID string
	}{
		{"unknown tech", "time_travel"},
		{"unmet prerequisite", "pottery"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var invalid *civ.InvalidResearchRequest
			if _, err := e.research.Start(ctx, id, playerID, tt.techID); !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidResearchRequest, got %v", err)
			}
		})
	}

	if _, err := e.research.Start(ctx, id, playerID, "agriculture"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	var invalid *civ.InvalidResearchRequest
	if _, err := e.research.Start(ctx, id, playerID, "agriculture"); !errors.As(err, &invalid) {
		t.Errorf("second active tech: expected InvalidResearchRequest, got %v", err)
	}
	if _, err := e.research.Start(ctx, id, "nobody", "agriculture"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestResearchCompletesOverTurns(t *testing.T) {
	e := newTestEnv()
	e.turn.StrategyFor = func(string) civ.Decider { return nil }
	id, playerID := createTestSession(t, e)
	ctx := context.Background()

	if _, err := e.research.Start(ctx, id, playerID, "agriculture"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// agriculture costs 20 and a cityless player researches at the fallback rate.
	turns := (20 + civ.FallbackScience - 1) / civ.FallbackScience
	for i := 0; i < turns; i++ {
		if _, err := e.turn.EndTurn(ctx, id, playerID); err != nil {
			t.Fatalf("EndTurn %d: %v", i+1, err)
		}
	}

	st, err := e.research.Status(ctx, id, playerID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Current != nil || !slices.Contains(st.Completed, "agriculture") {
		t.Fatalf("expected agriculture completed, got %+v", st.ResearchState)
	}
	if !slices.Contains(st.Available, "pottery") {
		t.Errorf("expected pottery unlocked, got %v", st.Available)
	}
}
