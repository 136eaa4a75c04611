package bot

import (
	"math/rand"
	"testing"

	"github.com/freeeve/hexciv/pkg/civ"
)

func TestHeuristicStrategy_Name(t *testing.T) {
	s := HeuristicStrategy{}
	if s.Name() != "easy" {
		t.Errorf("expected 'easy', got %s", s.Name())
	}
}

func TestHeuristicStrategy_AlwaysResearches(t *testing.T) {
	w, cat := testWorld(t)
	s := HeuristicStrategy{}
	for seed := int64(0); seed < 50; seed++ {
		actions := s.Decide(w.View("ai", cat), 1, rand.New(rand.NewSource(seed)))
		if len(actions) == 0 {
			t.Fatalf("seed %d: no actions", seed)
		}
		last := actions[len(actions)-1]
		if r, ok := last.(civ.SetResearch); !ok || r.TechID != "agriculture" {
			t.Errorf("seed %d: last action = %#v, want research agriculture", seed, last)
		}
	}
}

func TestHeuristicStrategy_ActionRates(t *testing.T) {
	w, cat := testWorld(t)
	s := HeuristicStrategy{}
	view := w.View("ai", cat)
	counts := map[civ.ActionKind]int{}
	const n = 2000
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < n; i++ {
		for _, a := range s.Decide(view, 1, rng) {
			counts[a.Kind()]++
		}
	}
	tests := []struct {
		kind civ.ActionKind
		want float64
	}{
		{civ.ActFoundCity, easyFoundChance},
		{civ.ActBuildBuilding, easyBuildChance},
		{civ.ActTrainUnit, easyTrainChance},
	}
	for _, tt := range tests {
		got := float64(counts[tt.kind]) / n
		if got < tt.want-0.05 || got > tt.want+0.05 {
			t.Errorf("%s rate = %.3f, want about %.2f", tt.kind, got, tt.want)
		}
	}
	if counts[civ.ActSetResearch] != n {
		t.Errorf("research count = %d, want %d", counts[civ.ActSetResearch], n)
	}
}

func TestHeuristicStrategy_NoExpansionLate(t *testing.T) {
	w, cat := testWorld(t)
	s := HeuristicStrategy{}
	view := w.View("ai", cat)
	for seed := int64(0); seed < 100; seed++ {
		for _, a := range s.Decide(view, easyExpansionTurns, rand.New(rand.NewSource(seed))) {
			if a.Kind() == civ.ActFoundCity {
				t.Fatalf("seed %d: founded a city on turn %d", seed, easyExpansionTurns)
			}
		}
	}
}

func TestHeuristicStrategy_CatalogIDsExist(t *testing.T) {
	cat := civ.DefaultCatalog()
	for _, id := range easyBuildings {
		if _, ok := cat.Building(id); !ok {
			t.Errorf("building %q not in catalog", id)
		}
	}
	for _, id := range easyUnits {
		if _, ok := cat.Unit(id); !ok {
			t.Errorf("unit %q not in catalog", id)
		}
	}
	for _, id := range easyResearch {
		if _, ok := cat.Tech(id); !ok {
			t.Errorf("tech %q not in catalog", id)
		}
	}
}

func TestHeuristicStrategy_ActsAfterResearchIsDone(t *testing.T) {
	w, cat := testWorld(t)
	s := HeuristicStrategy{}

	full := w.View("ai", cat)
	full.Available = nil
	citiesOnly := full
	citiesOnly.Units = nil
	nothing := citiesOnly
	nothing.Cities = nil

	tests := []struct {
		name    string
		view    civ.PlayerView
		minActs int
	}{
		{"units and cities", full, 1},
		{"cities only", citiesOnly, 1},
		{"nothing left", nothing, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := int64(0); seed < 200; seed++ {
				actions := s.Decide(tt.view, 30, rand.New(rand.NewSource(seed)))
				if len(actions) < tt.minActs || len(actions) > civ.MaxAIActions {
					t.Fatalf("seed %d: %d actions, want %d..%d", seed, len(actions), tt.minActs, civ.MaxAIActions)
				}
				for _, a := range actions {
					if a.Kind() == civ.ActSetResearch {
						t.Fatalf("seed %d: research with nothing available", seed)
					}
				}
			}
		})
	}
}
