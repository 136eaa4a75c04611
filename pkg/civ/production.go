package civ

import (
	"fmt"
	"sort"
)

// CompletedItem is a production item that finished this tick.
type CompletedItem struct {
	CityID   string   `json:"cityId"`
	Type     ItemType `json:"itemType"`
	ItemID   string   `json:"itemId"`
	UnitID   string   `json:"unitId,omitempty"`
	Overflow int      `json:"overflow"`
}

// ProductionResult is the outcome of one production tick for a city.
type ProductionResult struct {
	CityID    string                      `json:"cityId"`
	Yield     int                         `json:"yield"`
	Completed []CompletedItem             `json:"completed,omitempty"`
	Queue     []ProductionItem            `json:"queue"`
	Skipped   bool                        `json:"skipped,omitempty"`
	Warnings  []PartialApplicationWarning `json:"warnings,omitempty"`
}

// EffectiveProduction is the city's base production plus the flat bonus of
// each of its buildings.
func EffectiveProduction(c *City, cat *Catalog) int {
	y := c.Production
	for _, id := range c.Buildings {
		if b, ok := cat.Building(id); ok {
			y += b.ProductionBonus
		}
	}
	return y
}

// ResolveProduction advances the front of the city's queue by one tick of
// production. A tick runs at most once per turn: calling it again with a
// turn not greater than city.LastProducedTurn does nothing.
//
// When the front item completes it is materialized, removed, the queue is
// renumbered, and the overflow is taken off the new front item's remaining
// cost, never leaving it below 1.
func ResolveProduction(w *World, c *City, turn int, cat *Catalog) ProductionResult {
	res := ProductionResult{CityID: c.ID}
	if turn <= c.LastProducedTurn {
		res.Skipped = true
		res.Queue = c.Queue
		return res
	}
	c.LastProducedTurn = turn
	res.Yield = EffectiveProduction(c, cat)

	for len(c.Queue) > 0 {
		front := &c.Queue[0]
		if _, ok := cat.ItemCost(front.Type, front.ItemID); !ok {
			res.Warnings = append(res.Warnings, warn("city "+c.ID,
				fmt.Errorf("unknown %s %q dropped from queue", front.Type, front.ItemID)))
			c.Queue = c.Queue[1:]
			renumber(c)
			continue
		}
		break
	}
	if len(c.Queue) == 0 {
		res.Queue = c.Queue
		return res
	}

	front := &c.Queue[0]
	front.Remaining -= res.Yield
	if front.Remaining > 0 {
		res.Queue = c.Queue
		return res
	}

	overflow := -front.Remaining
	front.Remaining = 0
	done := CompletedItem{CityID: c.ID, Type: front.Type, ItemID: front.ItemID, Overflow: overflow}
	err := materialize(w, c, front, &done, cat)
	if err != nil {
		res.Warnings = append(res.Warnings, warn("city "+c.ID, err))
		if front.Type == ItemUnit {
			// no room to spawn; retried next tick
			res.Queue = c.Queue
			return res
		}
	}
	c.Queue = c.Queue[1:]
	renumber(c)
	if len(c.Queue) > 0 {
		c.Queue[0].Remaining = max(c.Queue[0].Remaining-overflow, 1)
	}
	if err == nil {
		res.Completed = append(res.Completed, done)
	}
	res.Queue = c.Queue
	return res
}

func materialize(w *World, c *City, item *ProductionItem, done *CompletedItem, cat *Catalog) error {
	switch item.Type {
	case ItemUnit:
		u, err := w.SpawnUnit(c.PlayerID, item.ItemID, c.Coord(), cat)
		if err != nil {
			return err
		}
		done.UnitID = u.ID
	case ItemBuilding, ItemWonder:
		return AddBuilding(c, item.ItemID, cat)
	case ItemProject:
		p, _ := cat.Project(item.ItemID)
		c.addYields(p.Yields)
	}
	return nil
}

// AddBuilding attaches a building to the city and applies its yield and
// defense deltas. A building the city already has is refused.
func AddBuilding(c *City, id string, cat *Catalog) error {
	b, ok := cat.Building(id)
	if !ok {
		return &NotFoundError{Kind: "building", ID: id}
	}
	if c.HasBuilding(id) {
		return &ActionError{Action: "build " + id, Reason: "city already has it"}
	}
	c.Buildings = append(c.Buildings, id)
	c.addYields(b.Yields)
	c.Defense += b.Defense
	return nil
}

// Enqueue adds an item to the city's queue at pos, or at the end when pos is
// negative or past the end. Duplicate buildings, including ones already
// queued, are refused. completed gates items by their required tech; pass
// nil to skip the check.
func Enqueue(c *City, t ItemType, itemID string, pos int, completed *ResearchState, cat *Catalog) (*ProductionItem, error) {
	if !t.Valid() {
		return nil, &ActionError{Action: "enqueue", Reason: "unknown item type " + string(t)}
	}
	cost, ok := cat.ItemCost(t, itemID)
	if !ok {
		return nil, &NotFoundError{Kind: string(t), ID: itemID}
	}
	if t == ItemBuilding || t == ItemWonder {
		if c.HasBuilding(itemID) {
			return nil, &ActionError{Action: "enqueue", Reason: "city already has " + itemID}
		}
		for _, q := range c.Queue {
			if q.ItemID == itemID && (q.Type == ItemBuilding || q.Type == ItemWonder) {
				return nil, &ActionError{Action: "enqueue", Reason: itemID + " is already queued"}
			}
		}
	}
	if completed != nil {
		if req := requiredTech(t, itemID, cat); req != "" && !completed.Has(req) {
			return nil, &ActionError{Action: "enqueue", Reason: itemID + " requires " + req}
		}
	}
	item := ProductionItem{ID: NewID(), Type: t, ItemID: itemID, Remaining: cost}
	if pos < 0 || pos >= len(c.Queue) {
		pos = len(c.Queue)
		c.Queue = append(c.Queue, item)
	} else {
		c.Queue = append(c.Queue, ProductionItem{})
		copy(c.Queue[pos+1:], c.Queue[pos:])
		c.Queue[pos] = item
	}
	renumber(c)
	return &c.Queue[pos], nil
}

func requiredTech(t ItemType, id string, cat *Catalog) string {
	switch t {
	case ItemUnit:
		if u, ok := cat.Unit(id); ok {
			return u.Requires
		}
	case ItemBuilding, ItemWonder:
		if b, ok := cat.Building(id); ok {
			return b.Requires
		}
	}
	return ""
}

// Reorder moves an item to newPos, clamped to the queue bounds.
func Reorder(c *City, itemID string, newPos int) error {
	from := queueIndex(c, itemID)
	if from < 0 {
		return &NotFoundError{Kind: "queue item", ID: itemID}
	}
	newPos = min(max(newPos, 0), len(c.Queue)-1)
	item := c.Queue[from]
	c.Queue = append(c.Queue[:from], c.Queue[from+1:]...)
	c.Queue = append(c.Queue, ProductionItem{})
	copy(c.Queue[newPos+1:], c.Queue[newPos:])
	c.Queue[newPos] = item
	renumber(c)
	return nil
}

// Cancel removes an item from the queue.
func Cancel(c *City, itemID string) error {
	i := queueIndex(c, itemID)
	if i < 0 {
		return &NotFoundError{Kind: "queue item", ID: itemID}
	}
	c.Queue = append(c.Queue[:i], c.Queue[i+1:]...)
	renumber(c)
	return nil
}

func queueIndex(c *City, itemID string) int {
	for i := range c.Queue {
		if c.Queue[i].ID == itemID {
			return i
		}
	}
	return -1
}

// renumber makes queue orders 0..n-1 following the current slice order.
func renumber(c *City) {
	for i := range c.Queue {
		c.Queue[i].Order = i
	}
}

// SortQueue orders the queue by Order and renumbers it. Use after loading
// rows from storage.
func SortQueue(c *City) {
	sort.SliceStable(c.Queue, func(i, j int) bool { return c.Queue[i].Order < c.Queue[j].Order })
	renumber(c)
}
