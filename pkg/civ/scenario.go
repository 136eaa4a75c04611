package civ

import (
	"fmt"
	"math/rand"
)

const (
	// BaseYear is the calendar year of turn 0.
	BaseYear = -4000
	// RandomEventChance is the per-turn probability of a flavor event.
	RandomEventChance = 0.15
)

var yearsPerTurn = map[Speed]int{
	SpeedQuick:    160,
	SpeedStandard: 80,
	SpeedEpic:     40,
}

// ParseSpeed returns the speed for s, defaulting to standard.
func ParseSpeed(s string) Speed {
	switch Speed(normalizeID(s)) {
	case SpeedQuick:
		return SpeedQuick
	case SpeedEpic:
		return SpeedEpic
	}
	return SpeedStandard
}

// Year returns the in-game year at turn for the given speed.
func Year(turn int, speed Speed) int {
	ypt, ok := yearsPerTurn[speed]
	if !ok {
		ypt = yearsPerTurn[SpeedStandard]
	}
	return BaseYear + turn*ypt
}

// PhaseInfo describes the scenario phase a turn falls in.
type PhaseInfo struct {
	Phase              Phase       `json:"phase"`
	Start              int         `json:"start"`
	End                int         `json:"end"`
	MainGoal           string      `json:"mainGoal"`
	Keywords           []string    `json:"keywords"`
	Objectives         []Objective `json:"objectives"`
	RecommendedActions []string    `json:"recommendedActions"`
	Year               int         `json:"year"`
}

// Scenario returns the phase table for speed, falling back to standard.
func (c *Catalog) Scenario(speed Speed) ScenarioDef {
	if s, ok := c.Scenarios[speed]; ok {
		return s
	}
	return c.Scenarios[SpeedStandard]
}

// PhaseAt returns the phase definition covering turn. Turns past the last
// phase stay in the last phase.
func (c *Catalog) PhaseAt(speed Speed, turn int) (PhaseDef, bool) {
	sc := c.Scenario(speed)
	if len(sc.Phases) == 0 {
		return PhaseDef{}, false
	}
	for _, p := range sc.Phases {
		if turn >= p.Start && turn <= p.End {
			return p, true
		}
	}
	if turn > sc.Phases[len(sc.Phases)-1].End {
		return sc.Phases[len(sc.Phases)-1], true
	}
	return sc.Phases[0], true
}

// TurnInfo returns phase, objectives and recommended actions for turn. The
// recommendations are the phase list plus one random tip.
func TurnInfo(speed Speed, turn int, rng *rand.Rand, cat *Catalog) PhaseInfo {
	info := PhaseInfo{Year: Year(turn, speed)}
	p, ok := cat.PhaseAt(speed, turn)
	if !ok {
		return info
	}
	info.Phase = p.Phase
	info.Start, info.End = p.Start, p.End
	info.MainGoal = p.MainGoal
	info.Keywords = p.Keywords
	info.Objectives = p.Objectives
	info.RecommendedActions = RecommendedActions(p.Phase, rng, cat)
	return info
}

// RecommendedActions returns the guidance list for phase with one random tip
// appended.
func RecommendedActions(phase Phase, rng *rand.Rand, cat *Catalog) []string {
	out := append([]string(nil), cat.Recommended[phase]...)
	if len(cat.Tips) > 0 {
		out = append(out, cat.Tips[rng.Intn(len(cat.Tips))])
	}
	return out
}

// GameOver reports whether turn is past the final turn of speed.
func GameOver(speed Speed, turn int, cat *Catalog) bool {
	sc := cat.Scenario(speed)
	return sc.Turns > 0 && turn > sc.Turns
}

// Event is a turn notification for players.
type Event struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Event types.
const (
	EventTurnProgress = "turn_progress"
	EventYearUpdate   = "year_update"
	EventPhaseChange  = "phase_change"
	EventProduction   = "production_complete"
	EventResearch     = "research_progress"
	EventTechComplete = "research_complete"
)

// TurnEvents builds the events emitted when currentTurn ends: turn progress,
// the new year, a RandomEventChance flavor event, and a phase change when the
// next turn opens a phase.
func TurnEvents(currentTurn int, speed Speed, rng *rand.Rand, cat *Catalog) []Event {
	next := currentTurn + 1
	year := Year(next, speed)
	events := []Event{
		{
			Type:        EventTurnProgress,
			Title:       fmt.Sprintf("Turn %d complete", currentTurn),
			Description: fmt.Sprintf("The game advances from turn %d to turn %d.", currentTurn, next),
			Severity:    "info",
		},
		{
			Type:        EventYearUpdate,
			Title:       "Year " + FormatYear(year),
			Description: "Time advances to " + FormatYear(year) + ".",
			Severity:    "info",
		},
	}
	if rng.Float64() < RandomEventChance && len(cat.Events) > 0 {
		e := cat.Events[rng.Intn(len(cat.Events))]
		events = append(events, Event{Type: e.Type, Title: e.Title, Description: e.Description, Severity: e.Severity})
	}
	for _, p := range cat.Scenario(speed).Phases {
		if p.Start == next {
			events = append(events, Event{
				Type:        EventPhaseChange,
				Title:       "New phase: " + string(p.Phase),
				Description: "A new phase begins: " + p.MainGoal + ".",
				Severity:    "important",
			})
			break
		}
	}
	return events
}

// FormatYear renders a year as "3840 BC" or "120 AD".
func FormatYear(year int) string {
	if year < 0 {
		return fmt.Sprintf("%d BC", -year)
	}
	return fmt.Sprintf("%d AD", year)
}
