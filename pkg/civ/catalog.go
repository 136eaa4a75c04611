package civ

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Yields is a bundle of per-turn city yield deltas.
type Yields struct {
	Food       int `yaml:"food" json:"food,omitempty"`
	Production int `yaml:"production" json:"production,omitempty"`
	Gold       int `yaml:"gold" json:"gold,omitempty"`
	Science    int `yaml:"science" json:"science,omitempty"`
	Culture    int `yaml:"culture" json:"culture,omitempty"`
	Faith      int `yaml:"faith" json:"faith,omitempty"`
	Happiness  int `yaml:"happiness" json:"happiness,omitempty"`
}

// TerrainDef holds the movement cost and candidate resources of a terrain.
// A MoveCost of 0 means impassable.
type TerrainDef struct {
	MoveCost  int        `yaml:"move_cost"`
	Resources []Resource `yaml:"resources"`
}

// WeightedTerrain is one entry of an archetype band.
type WeightedTerrain struct {
	Terrain Terrain `yaml:"terrain"`
	Weight  float64 `yaml:"weight"`
}

// ArchetypeDef describes a map shape.
type ArchetypeDef struct {
	ContinentCount int               `yaml:"continent_count"`
	SizeVariance   float64           `yaml:"size_variance"`
	Primary        []WeightedTerrain `yaml:"primary"`
	Secondary      []WeightedTerrain `yaml:"secondary"`
	Water          []WeightedTerrain `yaml:"water"`
}

// EraDef is a named era.
type EraDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// UnitDef is a trainable unit type.
type UnitDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Era         string `yaml:"era"`
	Cost        int    `yaml:"cost"`
	Combat      int    `yaml:"combat"`
	Move        int    `yaml:"move"`
	Sight       int    `yaml:"sight"`
	Naval       bool   `yaml:"naval"`
	Charges     int    `yaml:"charges"`
	Requires    string `yaml:"requires"`
	Description string `yaml:"description"`
}

// BuildingDef is a constructible building or wonder.
type BuildingDef struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	Era             string `yaml:"era"`
	Cost            int    `yaml:"cost"`
	Wonder          bool   `yaml:"wonder"`
	Yields          Yields `yaml:"yields"`
	ProductionBonus int    `yaml:"production_bonus"`
	Defense         int    `yaml:"defense"`
	Requires        string `yaml:"requires"`
	Description     string `yaml:"description"`
}

// ProjectDef is a repeatable city project.
type ProjectDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Cost        int    `yaml:"cost"`
	Yields      Yields `yaml:"yields"`
	Description string `yaml:"description"`
}

// TechDef is a researchable technology.
type TechDef struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Era           string   `yaml:"era"`
	Cost          int      `yaml:"cost"`
	Prerequisites []string `yaml:"prerequisites"`
	Description   string   `yaml:"description"`
}

// Objective is a scenario goal.
type Objective struct {
	ID          string         `yaml:"id" json:"id"`
	Description string         `yaml:"description" json:"description"`
	Category    string         `yaml:"category" json:"category"`
	Reward      map[string]int `yaml:"reward" json:"reward,omitempty"`
}

// PhaseDef is one phase of a scenario, covering turns Start..End inclusive.
type PhaseDef struct {
	Phase      Phase       `yaml:"phase"`
	Start      int         `yaml:"start"`
	End        int         `yaml:"end"`
	MainGoal   string      `yaml:"main_goal"`
	Keywords   []string    `yaml:"keywords"`
	Objectives []Objective `yaml:"objectives"`
}

// ScenarioDef is the phase table of one game speed.
type ScenarioDef struct {
	YearsPerTurn int        `yaml:"years_per_turn"`
	Turns        int        `yaml:"turns"`
	Phases       []PhaseDef `yaml:"phases"`
}

// EventDef is a random flavor event.
type EventDef struct {
	Type        string `yaml:"type"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Severity    string `yaml:"severity"`
}

// Catalog is the read-only static content: terrain rules, units, buildings,
// technologies and scenarios.
type Catalog struct {
	Terrain        map[Terrain]TerrainDef   `yaml:"terrain"`
	ResourceLimits map[Resource]int         `yaml:"resource_limits"`
	Archetypes     map[MapType]ArchetypeDef `yaml:"archetypes"`
	Eras           []EraDef                 `yaml:"eras"`
	Units          []UnitDef                `yaml:"units"`
	Buildings      []BuildingDef            `yaml:"buildings"`
	Projects       []ProjectDef             `yaml:"projects"`
	Techs          []TechDef                `yaml:"techs"`
	Scenarios      map[Speed]ScenarioDef    `yaml:"scenarios"`
	Recommended    map[Phase][]string       `yaml:"recommended"`
	Tips           []string                 `yaml:"tips"`
	Events         []EventDef               `yaml:"events"`

	units     map[string]*UnitDef
	buildings map[string]*BuildingDef
	projects  map[string]*ProjectDef
	techs     map[string]*TechDef
}

// DefaultCatalog parses the embedded catalog. It panics on a malformed
// embedded file since that is a build defect.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog reads and validates a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("catalog yaml: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	c.units = make(map[string]*UnitDef, len(c.Units))
	for i := range c.Units {
		u := &c.Units[i]
		if u.Cost <= 0 {
			return fmt.Errorf("unit %q: cost must be positive", u.ID)
		}
		if u.Move <= 0 {
			u.Move = 2
		}
		if u.Sight <= 0 {
			u.Sight = 2
		}
		c.units[u.ID] = u
	}
	c.buildings = make(map[string]*BuildingDef, len(c.Buildings))
	for i := range c.Buildings {
		b := &c.Buildings[i]
		if b.Cost <= 0 {
			return fmt.Errorf("building %q: cost must be positive", b.ID)
		}
		c.buildings[b.ID] = b
	}
	c.projects = make(map[string]*ProjectDef, len(c.Projects))
	for i := range c.Projects {
		p := &c.Projects[i]
		if p.Cost <= 0 {
			return fmt.Errorf("project %q: cost must be positive", p.ID)
		}
		c.projects[p.ID] = p
	}
	c.techs = make(map[string]*TechDef, len(c.Techs))
	for i := range c.Techs {
		t := &c.Techs[i]
		if t.Cost <= 0 {
			return fmt.Errorf("tech %q: cost must be positive", t.ID)
		}
		c.techs[t.ID] = t
	}
	for _, t := range c.Techs {
		for _, p := range t.Prerequisites {
			if _, ok := c.techs[p]; !ok {
				return fmt.Errorf("tech %q: unknown prerequisite %q", t.ID, p)
			}
		}
	}
	if err := c.checkAcyclic(); err != nil {
		return err
	}
	for _, t := range AllTerrains {
		if _, ok := c.Terrain[t]; !ok {
			return fmt.Errorf("terrain %q missing from catalog", t)
		}
	}
	if _, ok := c.Archetypes[MapContinents]; !ok {
		return fmt.Errorf("archetype %q missing from catalog", MapContinents)
	}
	return nil
}

func (c *Catalog) checkAcyclic() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(c.techs))
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("tech prerequisites form a cycle at %q", id)
		case done:
			return nil
		}
		state[id] = visiting
		for _, p := range c.techs[id].Prerequisites {
			if err := visit(p); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}
	for _, t := range c.Techs {
		if err := visit(t.ID); err != nil {
			return err
		}
	}
	return nil
}

// Unit looks up a unit definition.
func (c *Catalog) Unit(id string) (*UnitDef, bool) {
	u, ok := c.units[id]
	return u, ok
}

// Building looks up a building or wonder definition.
func (c *Catalog) Building(id string) (*BuildingDef, bool) {
	b, ok := c.buildings[id]
	return b, ok
}

// Project looks up a project definition.
func (c *Catalog) Project(id string) (*ProjectDef, bool) {
	p, ok := c.projects[id]
	return p, ok
}

// Tech looks up a technology.
func (c *Catalog) Tech(id string) (*TechDef, bool) {
	t, ok := c.techs[id]
	return t, ok
}

// Archetype returns the archetype for mt, falling back to continents for
// unknown shapes.
func (c *Catalog) Archetype(mt MapType) ArchetypeDef {
	if a, ok := c.Archetypes[mt]; ok {
		return a
	}
	return c.Archetypes[MapContinents]
}

// MoveCost returns the cost to enter t, or 0 when impassable.
func (c *Catalog) MoveCost(t Terrain) int {
	return c.Terrain[t].MoveCost
}

// ItemCost returns the production cost of a queue item, or false when the
// item is not in the catalog.
func (c *Catalog) ItemCost(t ItemType, id string) (int, bool) {
	switch t {
	case ItemUnit:
		if u, ok := c.units[id]; ok {
			return u.Cost, true
		}
	case ItemBuilding:
		if b, ok := c.buildings[id]; ok && !b.Wonder {
			return b.Cost, true
		}
	case ItemWonder:
		if b, ok := c.buildings[id]; ok && b.Wonder {
			return b.Cost, true
		}
	case ItemProject:
		if p, ok := c.projects[id]; ok {
			return p.Cost, true
		}
	}
	return 0, false
}

// Dependents returns the ids of techs that list id as a prerequisite, sorted.
func (c *Catalog) Dependents(id string) []string {
	var out []string
	for _, t := range c.Techs {
		for _, p := range t.Prerequisites {
			if p == id {
				out = append(out, t.ID)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}
