package civ

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/freeeve/hexciv/pkg/hex"
)

// NewID generates entity ids. Tests may replace it for stable output.
var NewID = func() string { return uuid.NewString() }

// Tile is one hex of a session map.
type Tile struct {
	SessionID string   `json:"sessionId,omitempty" db:"session_id"`
	Q         int      `json:"q" db:"q"`
	R         int      `json:"r" db:"r"`
	S         int      `json:"s" db:"s"`
	Terrain   Terrain  `json:"terrain" db:"terrain"`
	Resource  Resource `json:"resource,omitempty" db:"resource"`
	Visible   bool     `json:"visible" db:"visible"`
	Explored  bool     `json:"explored" db:"explored"`
	CityID    string   `json:"cityId,omitempty" db:"city_id"`
	UnitID    string   `json:"unitId,omitempty" db:"unit_id"`

	dirty bool
}

// Coord returns the tile position.
func (t *Tile) Coord() hex.Coord {
	return hex.Coord{Q: t.Q, R: t.R, S: t.S}
}

// Player is a civilization seat in a session.
type Player struct {
	ID           string        `json:"id" db:"id"`
	SessionID    string        `json:"sessionId" db:"session_id"`
	Name         string        `json:"name" db:"name"`
	Civilization string        `json:"civilization" db:"civilization"`
	IsAI         bool          `json:"isAi" db:"is_ai"`
	Index        int           `json:"index" db:"player_index"`
	Research     ResearchState `json:"research" db:"-"`
}

// ResearchProgress is the single in-progress tech of a player.
type ResearchProgress struct {
	TechID   string `json:"techId"`
	Progress int    `json:"progress"`
}

// ResearchState holds a player's research. Current is nil when idle.
type ResearchState struct {
	Current          *ResearchProgress `json:"current,omitempty"`
	Completed        []string          `json:"completed"`
	LastResolvedTurn int               `json:"lastResolvedTurn"`
}

// Has reports whether techID is completed.
func (r *ResearchState) Has(techID string) bool {
	for _, id := range r.Completed {
		if id == techID {
			return true
		}
	}
	return false
}

// ProductionItem is one entry of a city production queue.
type ProductionItem struct {
	ID        string   `json:"id" db:"id"`
	Type      ItemType `json:"itemType" db:"item_type"`
	ItemID    string   `json:"itemId" db:"item_id"`
	Order     int      `json:"queueOrder" db:"queue_order"`
	Remaining int      `json:"remaining" db:"remaining"`
}

// TurnsLeft estimates the turns to completion at the given yield. It is
// never below 1.
func (p *ProductionItem) TurnsLeft(yield int) int {
	if yield <= 0 {
		yield = 1
	}
	n := (p.Remaining + yield - 1) / yield
	return max(n, 1)
}

// City is a settlement owned by one player.
type City struct {
	ID                  string           `json:"id" db:"id"`
	SessionID           string           `json:"sessionId" db:"session_id"`
	PlayerID            string           `json:"playerId" db:"player_id"`
	Name                string           `json:"name" db:"name"`
	Q                   int              `json:"q" db:"q"`
	R                   int              `json:"r" db:"r"`
	S                   int              `json:"s" db:"s"`
	Population          int              `json:"population" db:"population"`
	HP                  int              `json:"hp" db:"hp"`
	Defense             int              `json:"defense" db:"defense"`
	Food                int              `json:"food" db:"food"`
	Production          int              `json:"production" db:"production"`
	Gold                int              `json:"gold" db:"gold"`
	Science             int              `json:"science" db:"science"`
	Culture             int              `json:"culture" db:"culture"`
	Faith               int              `json:"faith" db:"faith"`
	Happiness           int              `json:"happiness" db:"happiness"`
	FoodToNextPop       int              `json:"foodToNextPop" db:"food_to_next_pop"`
	CultureToNextBorder int              `json:"cultureToNextBorder" db:"culture_to_next_border"`
	Specialization      Specialization   `json:"specialization,omitempty" db:"specialization"`
	LastProducedTurn    int              `json:"lastProducedTurn" db:"last_produced_turn"`
	Buildings           []string         `json:"buildings" db:"-"`
	Queue               []ProductionItem `json:"queue" db:"-"`
}

// Coord returns the city position.
func (c *City) Coord() hex.Coord {
	return hex.Coord{Q: c.Q, R: c.R, S: c.S}
}

// HasBuilding reports whether the city already has building id.
func (c *City) HasBuilding(id string) bool {
	for _, b := range c.Buildings {
		if b == id {
			return true
		}
	}
	return false
}

func (c *City) addYields(y Yields) {
	c.Food += y.Food
	c.Production += y.Production
	c.Gold += y.Gold
	c.Science += y.Science
	c.Culture += y.Culture
	c.Faith += y.Faith
	c.Happiness += y.Happiness
}

// Unit is a movable piece owned by one player.
type Unit struct {
	ID          string     `json:"id" db:"id"`
	SessionID   string     `json:"sessionId" db:"session_id"`
	PlayerID    string     `json:"playerId" db:"player_id"`
	Type        string     `json:"type" db:"unit_type"`
	Q           int        `json:"q" db:"q"`
	R           int        `json:"r" db:"r"`
	S           int        `json:"s" db:"s"`
	HP          int        `json:"hp" db:"hp"`
	Movement    int        `json:"movement" db:"movement"`
	MaxMovement int        `json:"maxMovement" db:"max_movement"`
	Status      UnitStatus `json:"status" db:"status"`
	Charges     int        `json:"charges,omitempty" db:"charges"`
}

// Coord returns the unit position.
func (u *Unit) Coord() hex.Coord {
	return hex.Coord{Q: u.Q, R: u.R, S: u.S}
}

func (u *Unit) setCoord(c hex.Coord) {
	u.Q, u.R, u.S = c.Q, c.R, c.S
}

// World is the mutable in-memory snapshot of one session that the resolvers
// operate on. It is not safe for concurrent use; callers serialize access
// per session.
type World struct {
	SessionID string    `json:"sessionId"`
	Turn      int       `json:"turn"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Tiles     []*Tile   `json:"tiles"`
	Players   []*Player `json:"players"`
	Cities    []*City   `json:"cities"`
	Units     []*Unit   `json:"units"`

	index        map[hex.Coord]int
	removedUnits []string
}

// NewWorld builds a world over the given tiles.
func NewWorld(sessionID string, width, height int, tiles []*Tile) *World {
	w := &World{SessionID: sessionID, Width: width, Height: height, Tiles: tiles}
	w.Reindex()
	return w
}

// Reindex rebuilds the coordinate index. Call it after replacing Tiles, for
// example after decoding a cached snapshot.
func (w *World) Reindex() {
	w.index = make(map[hex.Coord]int, len(w.Tiles))
	for i, t := range w.Tiles {
		w.index[t.Coord()] = i
	}
}

// Tile returns the tile at c, or nil when c is off the map.
func (w *World) Tile(c hex.Coord) *Tile {
	if w.index == nil {
		w.Reindex()
	}
	i, ok := w.index[c]
	if !ok {
		return nil
	}
	return w.Tiles[i]
}

// Player returns the player with id, or nil.
func (w *World) Player(id string) *Player {
	for _, p := range w.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// City returns the city with id, or nil.
func (w *World) City(id string) *City {
	for _, c := range w.Cities {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Unit returns the unit with id, or nil.
func (w *World) Unit(id string) *Unit {
	for _, u := range w.Units {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// CitiesOf returns the cities owned by playerID in creation order.
func (w *World) CitiesOf(playerID string) []*City {
	var out []*City
	for _, c := range w.Cities {
		if c.PlayerID == playerID {
			out = append(out, c)
		}
	}
	return out
}

// UnitsOf returns the units owned by playerID in creation order.
func (w *World) UnitsOf(playerID string) []*Unit {
	var out []*Unit
	for _, u := range w.Units {
		if u.PlayerID == playerID {
			out = append(out, u)
		}
	}
	return out
}

// AIPlayers returns the AI seats ordered by seat index.
func (w *World) AIPlayers() []*Player {
	var out []*Player
	for _, p := range w.Players {
		if p.IsAI {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// DirtyTiles returns the tiles modified since the last ClearDirty.
func (w *World) DirtyTiles() []*Tile {
	var out []*Tile
	for _, t := range w.Tiles {
		if t.dirty {
			out = append(out, t)
		}
	}
	return out
}

// RemovedUnits returns the ids of units deleted since the last ClearDirty.
func (w *World) RemovedUnits() []string {
	return w.removedUnits
}

// ClearDirty resets change tracking after a commit.
func (w *World) ClearDirty() {
	for _, t := range w.Tiles {
		t.dirty = false
	}
	w.removedUnits = nil
}

// Science returns the per-turn science of playerID: the sum over its cities,
// or FallbackScience when it has none.
func (w *World) Science(playerID string) int {
	cities := w.CitiesOf(playerID)
	if len(cities) == 0 {
		return FallbackScience
	}
	total := 0
	for _, c := range cities {
		total += c.Science
	}
	return total
}

// Clone returns a deep copy that shares nothing with w.
func (w *World) Clone() *World {
	c := &World{
		SessionID: w.SessionID,
		Turn:      w.Turn,
		Width:     w.Width,
		Height:    w.Height,
		Tiles:     make([]*Tile, len(w.Tiles)),
		Players:   make([]*Player, len(w.Players)),
		Cities:    make([]*City, len(w.Cities)),
		Units:     make([]*Unit, len(w.Units)),
	}
	for i, t := range w.Tiles {
		cp := *t
		c.Tiles[i] = &cp
	}
	for i, p := range w.Players {
		cp := *p
		cp.Research.Completed = append([]string(nil), p.Research.Completed...)
		if p.Research.Current != nil {
			cur := *p.Research.Current
			cp.Research.Current = &cur
		}
		c.Players[i] = &cp
	}
	for i, city := range w.Cities {
		cp := *city
		cp.Buildings = append([]string(nil), city.Buildings...)
		cp.Queue = append([]ProductionItem(nil), city.Queue...)
		c.Cities[i] = &cp
	}
	for i, u := range w.Units {
		cp := *u
		c.Units[i] = &cp
	}
	c.removedUnits = append([]string(nil), w.removedUnits...)
	c.Reindex()
	return c
}

// placeUnit puts u on tile t and records the back-reference.
func (w *World) placeUnit(u *Unit, t *Tile) {
	u.setCoord(t.Coord())
	t.UnitID = u.ID
	t.dirty = true
}

// removeUnit deletes u and clears its tile.
func (w *World) removeUnit(u *Unit) {
	if t := w.Tile(u.Coord()); t != nil && t.UnitID == u.ID {
		t.UnitID = ""
		t.dirty = true
	}
	for i, x := range w.Units {
		if x.ID == u.ID {
			w.Units = append(w.Units[:i], w.Units[i+1:]...)
			break
		}
	}
	w.removedUnits = append(w.removedUnits, u.ID)
}

// SpawnUnit creates a unit of unitType for playerID on or next to at. Land
// units need a free habitable-or-passable land tile, naval units a free
// water tile.
func (w *World) SpawnUnit(playerID, unitType string, at hex.Coord, cat *Catalog) (*Unit, error) {
	return w.spawnWithin(playerID, unitType, at, 1, cat)
}

func (w *World) spawnWithin(playerID, unitType string, at hex.Coord, radius int, cat *Catalog) (*Unit, error) {
	def, ok := cat.Unit(unitType)
	if !ok {
		return nil, &NotFoundError{Kind: "unit type", ID: unitType}
	}
	tile := w.freeTileNear(at, radius, def, cat)
	if tile == nil {
		return nil, &ActionError{Action: "spawn " + unitType, Reason: "no free tile near city"}
	}
	u := &Unit{
		ID:          NewID(),
		SessionID:   w.SessionID,
		PlayerID:    playerID,
		Type:        def.ID,
		HP:          100,
		Movement:    def.Move,
		MaxMovement: def.Move,
		Status:      StatusIdle,
		Charges:     def.Charges,
	}
	w.placeUnit(u, tile)
	w.Units = append(w.Units, u)
	w.reveal(tile.Coord(), def.Sight)
	return u, nil
}

func (w *World) freeTileNear(at hex.Coord, radius int, def *UnitDef, cat *Catalog) *Tile {
	for _, c := range hex.Spiral(at, radius) {
		t := w.Tile(c)
		if t == nil || t.UnitID != "" {
			continue
		}
		if canEnter(def, t.Terrain, cat) {
			return t
		}
	}
	return nil
}

// FoundCity creates a city for playerID at c with the default starting
// stats. The tile must be habitable, unclaimed and at least MinCitySpacing
// from any other city.
func (w *World) FoundCity(playerID, name string, c hex.Coord) (*City, error) {
	t := w.Tile(c)
	if t == nil {
		return nil, &NotFoundError{Kind: "tile", ID: coordID(c)}
	}
	if !t.Terrain.Habitable() {
		return nil, &ActionError{Action: "found city", Reason: "terrain " + string(t.Terrain) + " is not habitable"}
	}
	if t.CityID != "" {
		return nil, &ActionError{Action: "found city", Reason: "tile already has a city"}
	}
	for _, other := range w.Cities {
		if hex.Distance(other.Coord(), c) < MinCitySpacing {
			return nil, &ActionError{Action: "found city", Reason: "too close to " + other.Name}
		}
	}
	city := &City{
		ID:                  NewID(),
		SessionID:           w.SessionID,
		PlayerID:            playerID,
		Name:                name,
		Q:                   c.Q,
		R:                   c.R,
		S:                   c.S,
		Population:          1,
		HP:                  100,
		Defense:             10,
		Food:                2,
		Production:          2,
		Gold:                2,
		Science:             1,
		Culture:             1,
		Faith:               1,
		Happiness:           10,
		FoodToNextPop:       15,
		CultureToNextBorder: 10,
		Buildings:           []string{},
		Queue:               []ProductionItem{},
	}
	t.CityID = city.ID
	t.dirty = true
	w.Cities = append(w.Cities, city)
	w.reveal(c, CityVision)
	return city, nil
}

// FoundingSites returns habitable, unclaimed tiles within radius of any
// city or unit of playerID that satisfy the city spacing rule, ordered
// deterministically.
func (w *World) FoundingSites(playerID string, radius int) []hex.Coord {
	var anchors []hex.Coord
	for _, c := range w.CitiesOf(playerID) {
		anchors = append(anchors, c.Coord())
	}
	for _, u := range w.UnitsOf(playerID) {
		anchors = append(anchors, u.Coord())
	}
	seen := make(map[hex.Coord]bool)
	var out []hex.Coord
	for _, a := range anchors {
		for _, c := range hex.Spiral(a, radius) {
			if seen[c] {
				continue
			}
			seen[c] = true
			t := w.Tile(c)
			if t == nil || !t.Terrain.Habitable() || t.CityID != "" {
				continue
			}
			ok := true
			for _, city := range w.Cities {
				if hex.Distance(city.Coord(), c) < MinCitySpacing {
					ok = false
					break
				}
			}
			if ok {
				out = append(out, c)
			}
		}
	}
	return out
}

func coordID(c hex.Coord) string {
	return fmt.Sprintf("%d,%d,%d", c.Q, c.R, c.S)
}

const (
	// FallbackScience is the science yield of a player with no cities.
	FallbackScience = 3
	// MinCitySpacing is the minimum hex distance between two cities.
	MinCitySpacing = 3
	// CityVision is the radius revealed around a newly founded city.
	CityVision = 2
)
