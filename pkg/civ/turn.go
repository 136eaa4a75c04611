package civ

import (
	"fmt"
	"math/rand"
)

// TurnStage is a step of turn resolution, in execution order.
type TurnStage string

const (
	StageAwaitingTurnEnd    TurnStage = "awaiting_turn_end"
	StageUnitsReset         TurnStage = "units_reset"
	StageProductionResolved TurnStage = "production_resolved"
	StageResearchResolved   TurnStage = "research_resolved"
	StageAIResolved         TurnStage = "ai_resolved"
	StageEventsGenerated    TurnStage = "events_generated"
	StageTurnAdvanced       TurnStage = "turn_advanced"
)

// MaxAIActions caps the actions one computer player takes per turn.
const MaxAIActions = 4

// Decider picks the actions of a computer player. Implementations must not
// mutate the view.
type Decider interface {
	Decide(view PlayerView, turn int, rng *rand.Rand) []Action
}

// AIActionRecord reports one AI action and whether it applied.
type AIActionRecord struct {
	PlayerID     string     `json:"playerId"`
	Civilization string     `json:"civilization"`
	Kind         ActionKind `json:"type"`
	Description  string     `json:"description"`
	Details      Action     `json:"details"`
	Applied      bool       `json:"applied"`
	Error        string     `json:"error,omitempty"`
}

// TurnResult is the aggregate outcome of ending a turn.
type TurnResult struct {
	SessionID  string                      `json:"sessionId"`
	Turn       int                         `json:"turn"`
	NextTurn   int                         `json:"nextTurn"`
	Year       int                         `json:"year"`
	PhaseInfo  PhaseInfo                   `json:"phaseInfo"`
	Events     []Event                     `json:"events"`
	AIActions  []AIActionRecord            `json:"aiActions"`
	Production []ProductionResult          `json:"production,omitempty"`
	Research   *ResearchResult             `json:"research,omitempty"`
	UnitsReset int                         `json:"unitsReset"`
	Warnings   []PartialApplicationWarning `json:"warnings,omitempty"`
	GameOver   bool                        `json:"gameOver"`
}

// TurnInput parameterizes ResolveTurn.
type TurnInput struct {
	PlayerID string
	Speed    Speed
	Rng      *rand.Rand
	AI       Decider
	// OnStage, when set, is called after each stage completes.
	OnStage func(TurnStage)
}

// ResolveTurn runs one full turn on w for the ending player and advances
// w.Turn. Per-city and per-AI failures are isolated into warnings; the only
// error is a missing player.
func ResolveTurn(w *World, in TurnInput, cat *Catalog) (*TurnResult, error) {
	player := w.Player(in.PlayerID)
	if player == nil {
		return nil, &NotFoundError{Kind: "player", ID: in.PlayerID}
	}
	stage := func(s TurnStage) {
		if in.OnStage != nil {
			in.OnStage(s)
		}
	}
	turn := w.Turn
	res := &TurnResult{SessionID: w.SessionID, Turn: turn, NextTurn: turn + 1}

	res.UnitsReset = ResetUnits(w)
	stage(StageUnitsReset)

	for _, c := range w.CitiesOf(player.ID) {
		pr := ResolveProduction(w, c, turn, cat)
		res.Production = append(res.Production, pr)
		res.Warnings = append(res.Warnings, pr.Warnings...)
	}
	stage(StageProductionResolved)

	rr := ResolveResearch(player, w.Science(player.ID), turn, cat)
	res.Research = &rr
	stage(StageResearchResolved)

	for _, ai := range w.AIPlayers() {
		if ai.ID == player.ID {
			continue
		}
		recs, warns := resolveAIPlayer(w, ai, turn, in, cat)
		res.AIActions = append(res.AIActions, recs...)
		res.Warnings = append(res.Warnings, warns...)
	}
	stage(StageAIResolved)

	res.Events = append(res.Events, playerEvents(res)...)
	res.Events = append(res.Events, TurnEvents(turn, in.Speed, in.Rng, cat)...)
	stage(StageEventsGenerated)

	w.Turn = turn + 1
	res.Year = Year(w.Turn, in.Speed)
	res.PhaseInfo = TurnInfo(in.Speed, w.Turn, in.Rng, cat)
	res.GameOver = GameOver(in.Speed, w.Turn, cat)
	stage(StageTurnAdvanced)
	return res, nil
}

// resolveAIPlayer ticks the AI's cities and research, then decides and
// applies its actions. A panic in the decider or in an apply step is
// contained to this player.
func resolveAIPlayer(w *World, ai *Player, turn int, in TurnInput, cat *Catalog) (recs []AIActionRecord, warns []PartialApplicationWarning) {
	subject := "ai " + ai.ID
	defer func() {
		if r := recover(); r != nil {
			warns = append(warns, PartialApplicationWarning{Subject: subject, Message: fmt.Sprint("panic: ", r)})
		}
	}()
	for _, c := range w.CitiesOf(ai.ID) {
		pr := ResolveProduction(w, c, turn, cat)
		warns = append(warns, pr.Warnings...)
	}
	ResolveResearch(ai, w.Science(ai.ID), turn, cat)
	if in.AI == nil {
		return nil, warns
	}

	actions := in.AI.Decide(w.View(ai.ID, cat), turn, in.Rng)
	if len(actions) > MaxAIActions {
		actions = actions[:MaxAIActions]
	}
	for _, a := range actions {
		rec := AIActionRecord{
			PlayerID:     ai.ID,
			Civilization: ai.Civilization,
			Kind:         a.Kind(),
			Description:  ai.Civilization + " " + a.Describe(),
			Details:      a,
		}
		if err := ApplyAction(w, ai.ID, a, cat); err != nil {
			rec.Error = err.Error()
			warns = append(warns, warn(subject, err))
		} else {
			rec.Applied = true
		}
		recs = append(recs, rec)
	}
	return recs, warns
}

func playerEvents(res *TurnResult) []Event {
	var out []Event
	for _, pr := range res.Production {
		for _, c := range pr.Completed {
			out = append(out, Event{
				Type:        EventProduction,
				Title:       "Production complete",
				Description: fmt.Sprintf("%s %s finished.", c.Type, c.ItemID),
				Severity:    "success",
			})
		}
	}
	if r := res.Research; r != nil && r.TechID != "" {
		if r.Completed {
			out = append(out, Event{
				Type:        EventTechComplete,
				Title:       "Research complete",
				Description: fmt.Sprintf("%s researched.", r.TechID),
				Severity:    "success",
			})
		} else if !r.Skipped {
			out = append(out, Event{
				Type:        EventResearch,
				Title:       "Research progress",
				Description: fmt.Sprintf("%s: %d/%d (+%d).", r.TechID, r.Progress, r.Cost, r.Delta),
				Severity:    "info",
			})
		}
	}
	return out
}
