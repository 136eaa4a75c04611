package bot

import (
	"math/rand"
	"sort"

	"github.com/freeeve/hexciv/pkg/civ"
	"github.com/freeeve/hexciv/pkg/hex"
)

// TacticalStrategy plays a steadier game than the easy heuristic: it expands
// toward a city target that grows with the turn, fills missing buildings in
// priority order, trains the strongest unlocked unit, pushes scouts outward,
// and researches the cheapest available tech.
type TacticalStrategy struct {
	Catalog *civ.Catalog
}

func (TacticalStrategy) Name() string { return "medium" }

var (
	tacticalBuildings = []string{
		"monument", "granary", "library", "shrine", "barracks", "walls",
		"market", "temple", "workshop", "university", "bank", "factory",
	}
	tacticalUnits = []string{"musketman", "swordsman", "spearman", "warrior"}
)

const tacticalExpandChance = 0.6

func (s TacticalStrategy) Decide(view civ.PlayerView, turn int, rng *rand.Rand) []civ.Action {
	rng = source(rng)
	if view.Player == nil {
		return nil
	}
	var actions []civ.Action

	target := cityTarget(turn)
	if len(view.Cities) < target && len(view.FoundingSites) > 0 && rng.Float64() < tacticalExpandChance {
		actions = append(actions, civ.FoundCity{Name: colonyName(view), At: s.bestSite(view)})
	}
	if a := s.nextBuilding(view); a != nil {
		actions = append(actions, a)
	}
	if a := s.nextUnit(view); a != nil {
		actions = append(actions, a)
	}
	if a := outwardStep(view, rng); a != nil {
		actions = append(actions, *a)
	}
	return finish(view, actions, s.research(view), rng)
}

// cityTarget is how many cities the strategy wants by turn.
func cityTarget(turn int) int {
	return 2 + turn/15
}

// bestSite picks the founding site closest to the player's existing cities,
// keeping new cities compact.
func (s TacticalStrategy) bestSite(view civ.PlayerView) hex.Coord {
	if len(view.Cities) == 0 {
		return view.FoundingSites[0]
	}
	best := view.FoundingSites[0]
	bestDist := -1
	for _, site := range view.FoundingSites {
		d := 0
		for _, c := range view.Cities {
			d += hex.Distance(site, c.Coord())
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = site, d
		}
	}
	return best
}

func (s TacticalStrategy) nextBuilding(view civ.PlayerView) civ.Action {
	for _, c := range view.Cities {
		for _, id := range tacticalBuildings {
			if c.HasBuilding(id) {
				continue
			}
			b, ok := s.Catalog.Building(id)
			if !ok || (b.Requires != "" && !view.Player.Research.Has(b.Requires)) {
				continue
			}
			return civ.BuildBuilding{CityID: c.ID, BuildingID: id}
		}
	}
	return nil
}

func (s TacticalStrategy) nextUnit(view civ.PlayerView) civ.Action {
	if len(view.Cities) == 0 {
		return nil
	}
	settlers := 0
	for _, u := range view.Units {
		if u.Type == "settler" {
			settlers++
		}
	}
	city := view.Cities[len(view.Cities)-1]
	if settlers == 0 && len(view.FoundingSites) > 0 && len(view.Cities) < easyMaxCities {
		return civ.TrainUnit{CityID: city.ID, UnitType: "settler"}
	}
	if len(view.Units) >= 2*len(view.Cities) {
		return nil
	}
	for _, id := range tacticalUnits {
		u, ok := s.Catalog.Unit(id)
		if !ok || (u.Requires != "" && !view.Player.Research.Has(u.Requires)) {
			continue
		}
		return civ.TrainUnit{CityID: city.ID, UnitType: id}
	}
	return nil
}

// research keeps the current tech, or starts the cheapest available one.
func (s TacticalStrategy) research(view civ.PlayerView) civ.Action {
	if cur := view.Player.Research.Current; cur != nil {
		return civ.SetResearch{TechID: cur.TechID}
	}
	if len(view.Available) == 0 {
		return nil
	}
	options := append([]string(nil), view.Available...)
	sort.SliceStable(options, func(i, j int) bool {
		return s.techCost(options[i]) < s.techCost(options[j])
	})
	return civ.SetResearch{TechID: options[0]}
}

func (s TacticalStrategy) techCost(id string) int {
	if t, ok := s.Catalog.Tech(id); ok {
		return t.Cost
	}
	return 1 << 30
}

// outwardStep moves the first unit with movement left one hex away from the
// player's first city, exploring outward. Ties are broken randomly.
func outwardStep(view civ.PlayerView, rng *rand.Rand) *civ.MoveUnitTo {
	if len(view.Units) == 0 {
		return nil
	}
	var origin hex.Coord
	if len(view.Cities) > 0 {
		origin = view.Cities[0].Coord()
	} else {
		origin = view.Units[0].Coord()
	}
	for _, u := range view.Units {
		if u.Movement <= 0 || u.Type == "settler" || u.Status == civ.StatusFortified {
			continue
		}
		from := u.Coord()
		var best []hex.Coord
		bestDist := -1
		for _, n := range hex.Neighbors(from) {
			d := hex.Distance(n, origin)
			switch {
			case d > bestDist:
				best, bestDist = []hex.Coord{n}, d
			case d == bestDist:
				best = append(best, n)
			}
		}
		return &civ.MoveUnitTo{UnitID: u.ID, From: from, To: best[rng.Intn(len(best))]}
	}
	return nil
}
