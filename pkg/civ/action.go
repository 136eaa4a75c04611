package civ

import (
	"fmt"

	"github.com/freeeve/hexciv/pkg/hex"
)

// ActionKind tags an AI action variant.
type ActionKind string

const (
	ActFoundCity     ActionKind = "found_city"
	ActBuildBuilding ActionKind = "build_building"
	ActTrainUnit     ActionKind = "train_unit"
	ActMoveUnit      ActionKind = "move_unit"
	ActSetResearch   ActionKind = "research"
)

// Action is one decision of a computer player. It carries no behavior;
// ApplyAction performs it.
type Action interface {
	Kind() ActionKind
	Describe() string
}

// FoundCity founds a new city at At.
type FoundCity struct {
	Name string    `json:"name"`
	At   hex.Coord `json:"at"`
}

// BuildBuilding adds a building to a city immediately.
type BuildBuilding struct {
	CityID     string `json:"cityId"`
	BuildingID string `json:"buildingId"`
}

// TrainUnit creates a unit at a city immediately.
type TrainUnit struct {
	CityID   string `json:"cityId"`
	UnitType string `json:"unitType"`
}

// MoveUnitTo moves a unit.
type MoveUnitTo struct {
	UnitID string    `json:"unitId"`
	From   hex.Coord `json:"from"`
	To     hex.Coord `json:"to"`
}

// SetResearch starts, or keeps, research on a tech.
type SetResearch struct {
	TechID string `json:"techId"`
}

func (FoundCity) Kind() ActionKind     { return ActFoundCity }
func (BuildBuilding) Kind() ActionKind { return ActBuildBuilding }
func (TrainUnit) Kind() ActionKind     { return ActTrainUnit }
func (MoveUnitTo) Kind() ActionKind    { return ActMoveUnit }
func (SetResearch) Kind() ActionKind   { return ActSetResearch }

func (a FoundCity) Describe() string {
	return fmt.Sprintf("founded %s at (%d,%d,%d)", a.Name, a.At.Q, a.At.R, a.At.S)
}
func (a BuildBuilding) Describe() string { return "built " + a.BuildingID }
func (a TrainUnit) Describe() string     { return "trained " + a.UnitType }
func (a MoveUnitTo) Describe() string {
	return fmt.Sprintf("moved a unit to (%d,%d,%d)", a.To.Q, a.To.R, a.To.S)
}
func (a SetResearch) Describe() string { return "is researching " + a.TechID }

// PlayerView is the read-only slice of the world a decision function sees.
type PlayerView struct {
	Player        *Player
	Cities        []*City
	Units         []*Unit
	FoundingSites []hex.Coord
	Available     []string
}

// FoundingRadius bounds how far from its pieces an AI looks for city sites.
const FoundingRadius = 4

// View builds the PlayerView for playerID.
func (w *World) View(playerID string, cat *Catalog) PlayerView {
	p := w.Player(playerID)
	v := PlayerView{
		Player:        p,
		Cities:        w.CitiesOf(playerID),
		Units:         w.UnitsOf(playerID),
		FoundingSites: w.FoundingSites(playerID, FoundingRadius),
	}
	if p != nil {
		v.Available = AvailableTechs(&p.Research, cat)
	}
	return v
}

// ApplyAction performs a on the world for playerID. Ownership of referenced
// cities and units is checked.
func ApplyAction(w *World, playerID string, a Action, cat *Catalog) error {
	p := w.Player(playerID)
	if p == nil {
		return &NotFoundError{Kind: "player", ID: playerID}
	}
	switch a := a.(type) {
	case FoundCity:
		_, err := w.FoundCity(playerID, a.Name, a.At)
		return err
	case BuildBuilding:
		c, err := ownedCity(w, playerID, a.CityID)
		if err != nil {
			return err
		}
		return AddBuilding(c, a.BuildingID, cat)
	case TrainUnit:
		c, err := ownedCity(w, playerID, a.CityID)
		if err != nil {
			return err
		}
		_, err = w.SpawnUnit(playerID, a.UnitType, c.Coord(), cat)
		return err
	case MoveUnitTo:
		u := w.Unit(a.UnitID)
		if u == nil || u.PlayerID != playerID {
			return &NotFoundError{Kind: "unit", ID: a.UnitID}
		}
		_, err := MoveUnit(w, a.UnitID, a.To, cat)
		return err
	case SetResearch:
		if cur := p.Research.Current; cur != nil && cur.TechID == a.TechID {
			return nil
		}
		return StartResearch(&p.Research, a.TechID, cat)
	}
	return &ActionError{Action: fmt.Sprintf("%T", a), Reason: "unsupported action"}
}

func ownedCity(w *World, playerID, cityID string) (*City, error) {
	c := w.City(cityID)
	if c == nil || c.PlayerID != playerID {
		return nil, &NotFoundError{Kind: "city", ID: cityID}
	}
	return c, nil
}
