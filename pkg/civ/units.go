package civ

import (
	"container/heap"
	"strconv"

	"github.com/freeeve/hexciv/pkg/hex"
)

// ResetUnits restores full movement and idle status for every unit in the
// session. It is safe to call repeatedly.
func ResetUnits(w *World) int {
	for _, u := range w.Units {
		u.Movement = u.MaxMovement
		u.Status = StatusIdle
	}
	return len(w.Units)
}

func canEnter(def *UnitDef, t Terrain, cat *Catalog) bool {
	if def.Naval {
		return t.IsWater()
	}
	if t == Ocean {
		return false
	}
	return cat.MoveCost(t) > 0
}

// reveal marks every tile within radius of c visible and explored.
func (w *World) reveal(c hex.Coord, radius int) int {
	n := 0
	for _, rc := range hex.InRadius(c, radius) {
		t := w.Tile(rc)
		if t == nil {
			continue
		}
		if !t.Visible || !t.Explored {
			t.Visible = true
			t.Explored = true
			t.dirty = true
			n++
		}
	}
	return n
}

// MoveResult describes a completed move.
type MoveResult struct {
	UnitID   string      `json:"unitId"`
	Path     []hex.Coord `json:"path"`
	Cost     int         `json:"cost"`
	Revealed int         `json:"revealed"`
}

// MoveUnit moves a unit to `to` along the cheapest path within its remaining
// movement. The destination must be free.
func MoveUnit(w *World, unitID string, to hex.Coord, cat *Catalog) (*MoveResult, error) {
	u := w.Unit(unitID)
	if u == nil {
		return nil, &NotFoundError{Kind: "unit", ID: unitID}
	}
	def, ok := cat.Unit(u.Type)
	if !ok {
		return nil, &NotFoundError{Kind: "unit type", ID: u.Type}
	}
	dst := w.Tile(to)
	if dst == nil {
		return nil, &ActionError{Action: "move", Reason: "destination is off the map"}
	}
	if dst.UnitID != "" && dst.UnitID != u.ID {
		return nil, &ActionError{Action: "move", Reason: "destination is occupied"}
	}
	if !canEnter(def, dst.Terrain, cat) {
		return nil, &ActionError{Action: "move", Reason: "cannot enter " + string(dst.Terrain)}
	}
	from := u.Coord()
	if from == to {
		return &MoveResult{UnitID: u.ID, Path: []hex.Coord{from}}, nil
	}
	path, cost := w.findPath(from, to, def, u.Movement, cat)
	if path == nil {
		return nil, &ActionError{Action: "move", Reason: "destination out of reach this turn"}
	}

	if src := w.Tile(from); src != nil && src.UnitID == u.ID {
		src.UnitID = ""
		src.dirty = true
	}
	w.placeUnit(u, dst)
	u.Movement -= cost
	u.Status = StatusMoving
	revealed := 0
	for _, c := range path {
		revealed += w.reveal(c, def.Sight)
	}
	return &MoveResult{UnitID: u.ID, Path: path, Cost: cost, Revealed: revealed}, nil
}

type pathNode struct {
	c    hex.Coord
	cost int
	idx  int
}

type pathQueue []*pathNode

func (q pathQueue) Len() int           { return len(q) }
func (q pathQueue) Less(i, j int) bool { return q[i].cost < q[j].cost }
func (q pathQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].idx = i
	q[j].idx = j
}
func (q *pathQueue) Push(x any) {
	n := x.(*pathNode)
	n.idx = len(*q)
	*q = append(*q, n)
}
func (q *pathQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// findPath runs Dijkstra bounded by budget. Intermediate tiles may not hold
// another unit. It returns nil when to is unreachable within budget.
func (w *World) findPath(from, to hex.Coord, def *UnitDef, budget int, cat *Catalog) ([]hex.Coord, int) {
	best := map[hex.Coord]int{from: 0}
	prev := map[hex.Coord]hex.Coord{}
	q := &pathQueue{{c: from}}
	for q.Len() > 0 {
		cur := heap.Pop(q).(*pathNode)
		if cur.cost > best[cur.c] {
			continue
		}
		if cur.c == to {
			break
		}
		for _, nc := range hex.Neighbors(cur.c) {
			t := w.Tile(nc)
			if t == nil || !canEnter(def, t.Terrain, cat) {
				continue
			}
			if t.UnitID != "" && nc != to {
				continue
			}
			step := cat.MoveCost(t.Terrain)
			nextCost := cur.cost + step
			if nextCost > budget {
				continue
			}
			if old, ok := best[nc]; ok && old <= nextCost {
				continue
			}
			best[nc] = nextCost
			prev[nc] = cur.c
			heap.Push(q, &pathNode{c: nc, cost: nextCost})
		}
	}
	cost, ok := best[to]
	if !ok {
		return nil, 0
	}
	path := []hex.Coord{to}
	for c := to; c != from; {
		c = prev[c]
		path = append(path, c)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, cost
}

// Command is a standing order or one-shot unit action.
type Command string

const (
	CmdFortify   Command = "fortify"
	CmdAlert     Command = "alert"
	CmdSleep     Command = "sleep"
	CmdExplore   Command = "explore"
	CmdFoundCity Command = "found_city"
	CmdDisband   Command = "disband"
)

// CommandResult describes the outcome of CommandUnit. City is set when a
// settler founded one.
type CommandResult struct {
	UnitID  string     `json:"unitId"`
	Command Command    `json:"command"`
	Status  UnitStatus `json:"status,omitempty"`
	City    *City      `json:"city,omitempty"`
	Removed bool       `json:"removed,omitempty"`
}

// CommandUnit applies cmd to the unit. Founding a city consumes a settler
// charge and removes the unit when none are left.
func CommandUnit(w *World, unitID string, cmd Command, cityName string) (*CommandResult, error) {
	u := w.Unit(unitID)
	if u == nil {
		return nil, &NotFoundError{Kind: "unit", ID: unitID}
	}
	res := &CommandResult{UnitID: u.ID, Command: cmd}
	switch cmd {
	case CmdFortify:
		u.Status = StatusFortified
	case CmdAlert:
		u.Status = StatusAlert
	case CmdSleep:
		u.Status = StatusSleeping
	case CmdExplore:
		u.Status = StatusExploring
	case CmdDisband:
		w.removeUnit(u)
		res.Removed = true
		return res, nil
	case CmdFoundCity:
		if u.Type != "settler" || u.Charges <= 0 {
			return nil, &ActionError{Action: string(cmd), Reason: "only a settler can found a city"}
		}
		if cityName == "" {
			cityName = defaultCityName(w, u.PlayerID)
		}
		city, err := w.FoundCity(u.PlayerID, cityName, u.Coord())
		if err != nil {
			return nil, err
		}
		u.Charges--
		if u.Charges <= 0 {
			w.removeUnit(u)
			res.Removed = true
		}
		res.City = city
		return res, nil
	default:
		return nil, &ActionError{Action: string(cmd), Reason: "unknown command"}
	}
	res.Status = u.Status
	return res, nil
}

func defaultCityName(w *World, playerID string) string {
	p := w.Player(playerID)
	civName := "City"
	if p != nil && p.Civilization != "" {
		civName = p.Civilization
	}
	return civName + " " + ordinalCity(len(w.CitiesOf(playerID))+1)
}

func ordinalCity(n int) string {
	if n == 1 {
		return "Capital"
	}
	return "Colony " + strconv.Itoa(n)
}
