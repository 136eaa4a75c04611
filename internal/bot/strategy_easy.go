package bot

import (
	"math/rand"

	"github.com/freeeve/hexciv/pkg/civ"
)

// Probabilities of the easy strategy, rolled once per action type per turn.
const (
	easyFoundChance = 0.3
	easyBuildChance = 0.4
	easyTrainChance = 0.3
	easyMoveChance  = 0.5

	// easyExpansionTurns and easyMaxCities bound early expansion.
	easyExpansionTurns = 10
	easyMaxCities      = 3
)

var (
	easyBuildings = []string{"granary", "library", "market", "barracks", "walls"}
	easyUnits     = []string{"warrior", "archer", "settler", "worker", "spearman"}
	easyResearch  = []string{"agriculture", "pottery", "mining", "sailing", "writing"}
)

// HeuristicStrategy rolls independent dice for expansion, building, training
// and movement, and always keeps research going. It returns at least one
// action while the player has a unit or a city.
type HeuristicStrategy struct{}

func (HeuristicStrategy) Name() string { return "easy" }

func (HeuristicStrategy) Decide(view civ.PlayerView, turn int, rng *rand.Rand) []civ.Action {
	rng = source(rng)
	var actions []civ.Action

	if turn < easyExpansionTurns && len(view.Cities) < easyMaxCities && rng.Float64() < easyFoundChance {
		if len(view.FoundingSites) > 0 {
			at := view.FoundingSites[rng.Intn(len(view.FoundingSites))]
			actions = append(actions, civ.FoundCity{Name: colonyName(view), At: at})
		}
	}
	if len(view.Cities) > 0 && rng.Float64() < easyBuildChance {
		c := randomCity(view, rng)
		actions = append(actions, civ.BuildBuilding{CityID: c.ID, BuildingID: pick(rng, easyBuildings)})
	}
	if len(view.Cities) > 0 && rng.Float64() < easyTrainChance {
		c := randomCity(view, rng)
		actions = append(actions, civ.TrainUnit{CityID: c.ID, UnitType: pick(rng, easyUnits)})
	}
	if len(view.Units) > 0 && rng.Float64() < easyMoveChance {
		actions = append(actions, *randomStep(view, rng))
	}
	return finish(view, actions, keepResearching(view, easyResearch, rng), rng)
}
