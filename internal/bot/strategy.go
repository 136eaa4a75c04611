package bot

import (
	"math/rand"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexciv/pkg/civ"
	"github.com/freeeve/hexciv/pkg/hex"
)

// Strategy decides the actions of a computer player each turn.
type Strategy interface {
	civ.Decider
	Name() string
}

// ModelPath is the ONNX policy model used by the "hard" difficulty. Set this
// at startup before creating strategies.
var ModelPath string

// StrategyForDifficulty returns the strategy for a difficulty level.
func StrategyForDifficulty(difficulty string, cat *civ.Catalog) Strategy {
	switch difficulty {
	case "medium":
		return &TacticalStrategy{Catalog: cat}
	case "hard":
		return newPolicyOrFallback(cat)
	case "random":
		return &RandomStrategy{}
	case "passive":
		return &PassiveStrategy{}
	default:
		return &HeuristicStrategy{}
	}
}

// newPolicyOrFallback attempts to create a PolicyStrategy. If the model path
// is not configured or fails to load, it falls back to medium.
func newPolicyOrFallback(cat *civ.Catalog) Strategy {
	if ModelPath == "" {
		log.Warn().Msg("bot: hard difficulty requested but ModelPath not set; falling back to medium")
		return &TacticalStrategy{Catalog: cat}
	}
	s, err := NewPolicyStrategy(ModelPath, cat)
	if err != nil {
		log.Warn().Err(err).Str("path", ModelPath).Msg("bot: policy model load failed; falling back to medium")
		return &TacticalStrategy{Catalog: cat}
	}
	return s
}

// --- PassiveStrategy ---

// PassiveStrategy only keeps research going. Useful as a baseline opponent.
type PassiveStrategy struct{}

func (PassiveStrategy) Name() string { return "passive" }

func (PassiveStrategy) Decide(view civ.PlayerView, _ int, rng *rand.Rand) []civ.Action {
	if a := keepResearching(view, nil, source(rng)); a != nil {
		return []civ.Action{a}
	}
	return nil
}

// --- RandomStrategy ---

// RandomStrategy emits a random mix of actions, valid or not. It exercises
// the apply step's rejection paths in simulations.
type RandomStrategy struct{}

func (RandomStrategy) Name() string { return "random" }

func (RandomStrategy) Decide(view civ.PlayerView, _ int, rng *rand.Rand) []civ.Action {
	rng = source(rng)
	var actions []civ.Action
	n := 1 + rng.Intn(civ.MaxAIActions)
	for i := 0; i < n; i++ {
		switch rng.Intn(4) {
		case 0:
			if len(view.FoundingSites) > 0 {
				at := view.FoundingSites[rng.Intn(len(view.FoundingSites))]
				actions = append(actions, civ.FoundCity{Name: colonyName(view), At: at})
			}
		case 1:
			if c := randomCity(view, rng); c != nil {
				actions = append(actions, civ.BuildBuilding{CityID: c.ID, BuildingID: pick(rng, easyBuildings)})
			}
		case 2:
			if c := randomCity(view, rng); c != nil {
				actions = append(actions, civ.TrainUnit{CityID: c.ID, UnitType: pick(rng, easyUnits)})
			}
		case 3:
			if m := randomStep(view, rng); m != nil {
				actions = append(actions, *m)
			}
		}
	}
	return actions
}

// keepResearching returns a SetResearch for the tech in progress, or starts
// one from prefer (falling back to anything available). It returns nil when
// nothing can be researched.
func keepResearching(view civ.PlayerView, prefer []string, rng *rand.Rand) civ.Action {
	if view.Player == nil {
		return nil
	}
	if cur := view.Player.Research.Current; cur != nil {
		return civ.SetResearch{TechID: cur.TechID}
	}
	avail := make(map[string]bool, len(view.Available))
	for _, id := range view.Available {
		avail[id] = true
	}
	var options []string
	for _, id := range prefer {
		if avail[id] {
			options = append(options, id)
		}
	}
	if len(options) == 0 {
		options = view.Available
	}
	if len(options) == 0 {
		return nil
	}
	return civ.SetResearch{TechID: pick(rng, options)}
}

// capActions trims actions so that, together with research, at most
// civ.MaxAIActions are returned. Research always survives and goes last.
func capActions(actions []civ.Action, research civ.Action) []civ.Action {
	limit := civ.MaxAIActions
	if research != nil {
		limit--
	}
	if len(actions) > limit {
		actions = actions[:limit]
	}
	if research != nil {
		actions = append(actions, research)
	}
	return actions
}

// finish caps actions like capActions and makes sure a player with units or
// cities never passes a turn: when nothing was chosen and there is nothing
// left to research, a random step or a random building is added. A player
// with neither gets no actions.
func finish(view civ.PlayerView, actions []civ.Action, research civ.Action, rng *rand.Rand) []civ.Action {
	if len(actions) == 0 && research == nil {
		switch {
		case len(view.Units) > 0:
			actions = append(actions, *randomStep(view, rng))
		case len(view.Cities) > 0:
			c := randomCity(view, rng)
			actions = append(actions, civ.BuildBuilding{CityID: c.ID, BuildingID: pick(rng, easyBuildings)})
		}
	}
	return capActions(actions, research)
}

func colonyName(view civ.PlayerView) string {
	name := "City"
	if view.Player != nil && view.Player.Civilization != "" {
		name = view.Player.Civilization
	}
	if len(view.Cities) == 0 {
		return name + " Capital"
	}
	return name + " Colony " + strconv.Itoa(len(view.Cities)+1)
}

func randomCity(view civ.PlayerView, rng *rand.Rand) *civ.City {
	if len(view.Cities) == 0 {
		return nil
	}
	return view.Cities[rng.Intn(len(view.Cities))]
}

func randomStep(view civ.PlayerView, rng *rand.Rand) *civ.MoveUnitTo {
	if len(view.Units) == 0 {
		return nil
	}
	u := view.Units[rng.Intn(len(view.Units))]
	from := u.Coord()
	return &civ.MoveUnitTo{UnitID: u.ID, From: from, To: from.Neighbor(rng.Intn(len(hex.Directions)))}
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}
