package civ

import "strings"

// Terrain is the land or water type of a tile.
type Terrain string

const (
	Plains    Terrain = "plains"
	Grassland Terrain = "grassland"
	Hills     Terrain = "hills"
	Mountain  Terrain = "mountain"
	Desert    Terrain = "desert"
	Tundra    Terrain = "tundra"
	Snow      Terrain = "snow"
	Ocean     Terrain = "ocean"
	Coast     Terrain = "coast"
	Forest    Terrain = "forest"
	Jungle    Terrain = "jungle"
	Marsh     Terrain = "marsh"
)

// AllTerrains lists every terrain in canonical order.
var AllTerrains = []Terrain{
	Plains, Grassland, Hills, Mountain, Desert, Tundra,
	Snow, Ocean, Coast, Forest, Jungle, Marsh,
}

// IsWater reports whether t is ocean or coast.
func (t Terrain) IsWater() bool {
	return t == Ocean || t == Coast
}

// Habitable reports whether a civilization may start or found a city on t.
func (t Terrain) Habitable() bool {
	switch t {
	case Ocean, Coast, Mountain, Snow:
		return false
	}
	return t.Valid()
}

// Valid reports whether t is one of the known terrains.
func (t Terrain) Valid() bool {
	for _, v := range AllTerrains {
		if v == t {
			return true
		}
	}
	return false
}

// ParseTerrain normalizes s ("Grassland", " grassland ") to a Terrain.
func ParseTerrain(s string) (Terrain, bool) {
	t := Terrain(normalizeID(s))
	return t, t.Valid()
}

// ResourceClass groups resources for placement priority.
type ResourceClass string

const (
	ClassBonus     ResourceClass = "bonus"
	ClassLuxury    ResourceClass = "luxury"
	ClassStrategic ResourceClass = "strategic"
)

// ClassPriority is the order in which resource classes are preferred during
// generation.
var ClassPriority = []ResourceClass{ClassBonus, ClassLuxury, ClassStrategic}

// Resource is a special tile resource. The empty string means none.
type Resource string

const (
	NoResource Resource = ""

	Iron     Resource = "iron"
	Horses   Resource = "horses"
	Coal     Resource = "coal"
	Oil      Resource = "oil"
	Aluminum Resource = "aluminum"
	Uranium  Resource = "uranium"

	Gold   Resource = "gold"
	Silver Resource = "silver"
	Gems   Resource = "gems"
	Marble Resource = "marble"
	Ivory  Resource = "ivory"
	Silk   Resource = "silk"
	Spices Resource = "spices"
	Wine   Resource = "wine"

	Wheat   Resource = "wheat"
	Cattle  Resource = "cattle"
	Sheep   Resource = "sheep"
	Bananas Resource = "bananas"
	Fish    Resource = "fish"
	Stone   Resource = "stone"
)

var resourceClasses = map[Resource]ResourceClass{
	Iron: ClassStrategic, Horses: ClassStrategic, Coal: ClassStrategic,
	Oil: ClassStrategic, Aluminum: ClassStrategic, Uranium: ClassStrategic,

	Gold: ClassLuxury, Silver: ClassLuxury, Gems: ClassLuxury, Marble: ClassLuxury,
	Ivory: ClassLuxury, Silk: ClassLuxury, Spices: ClassLuxury, Wine: ClassLuxury,

	Wheat: ClassBonus, Cattle: ClassBonus, Sheep: ClassBonus,
	Bananas: ClassBonus, Fish: ClassBonus, Stone: ClassBonus,
}

// Class returns the resource class, or "" for unknown resources.
func (r Resource) Class() ResourceClass {
	return resourceClasses[r]
}

// Valid reports whether r is a known resource. NoResource is not valid.
func (r Resource) Valid() bool {
	_, ok := resourceClasses[r]
	return ok
}

// ParseResource normalizes s to a Resource.
func ParseResource(s string) (Resource, bool) {
	r := Resource(normalizeID(s))
	return r, r.Valid()
}

// UnitStatus is the standing order of a unit.
type UnitStatus string

const (
	StatusIdle      UnitStatus = "idle"
	StatusFortified UnitStatus = "fortified"
	StatusAlert     UnitStatus = "alert"
	StatusSleeping  UnitStatus = "sleeping"
	StatusMoving    UnitStatus = "moving"
	StatusExploring UnitStatus = "exploring"
	StatusWorking   UnitStatus = "working"
	StatusTrading   UnitStatus = "trading"
	StatusDefending UnitStatus = "defending"
)

// ItemType is the kind of thing a production queue item builds.
type ItemType string

const (
	ItemUnit     ItemType = "unit"
	ItemBuilding ItemType = "building"
	ItemWonder   ItemType = "wonder"
	ItemProject  ItemType = "project"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case ItemUnit, ItemBuilding, ItemWonder, ItemProject:
		return true
	}
	return false
}

// Specialization is an optional city focus.
type Specialization string

const (
	SpecFood       Specialization = "food"
	SpecProduction Specialization = "production"
	SpecGold       Specialization = "gold"
	SpecScience    Specialization = "science"
	SpecCulture    Specialization = "culture"
	SpecFaith      Specialization = "faith"
	SpecBalanced   Specialization = "balanced"
)

// MapType is a map-shape archetype.
type MapType string

const (
	MapContinents      MapType = "continents"
	MapPangaea         MapType = "pangaea"
	MapArchipelago     MapType = "archipelago"
	MapSmallContinents MapType = "small_continents"
)

// Speed is the configured game length.
type Speed string

const (
	SpeedQuick    Speed = "quick"
	SpeedStandard Speed = "standard"
	SpeedEpic     Speed = "epic"
)

// Phase is a scenario phase.
type Phase string

const (
	PhaseEarly Phase = "early"
	PhaseMid   Phase = "mid"
	PhaseFinal Phase = "final"
	PhaseLate  Phase = "late"
)

func normalizeID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "-", "_")
}
