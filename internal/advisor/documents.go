// Package advisor answers free-text questions about the game by similarity
// search over knowledge documents built from the catalog.
package advisor

import (
	"fmt"
	"strings"

	"github.com/freeeve/hexciv/pkg/civ"
)

// Document kinds.
const (
	KindUnit     = "unit"
	KindBuilding = "building"
	KindTech     = "tech"
	KindEra      = "era"
)

// Document is one searchable piece of game knowledge.
type Document struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Documents builds one document per unit, building, tech and era.
func Documents(cat *civ.Catalog) []Document {
	var docs []Document
	for _, u := range cat.Units {
		var b strings.Builder
		fmt.Fprintf(&b, "%s is a %s %s unit of the %s era costing %d production with %d movement.", u.Name, u.Category, KindUnit, u.Era, u.Cost, u.Move)
		if u.Combat > 0 {
			fmt.Fprintf(&b, " Combat strength %d.", u.Combat)
		}
		if u.Requires != "" {
			fmt.Fprintf(&b, " Requires %s.", u.Requires)
		}
		b.WriteString(" " + u.Description)
		docs = append(docs, Document{ID: KindUnit + ":" + u.ID, Kind: KindUnit, Title: u.Name, Text: b.String()})
	}
	for _, bd := range cat.Buildings {
		kind := KindBuilding
		if bd.Wonder {
			kind = "wonder"
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s is a %s of the %s era costing %d production.", bd.Name, kind, bd.Era, bd.Cost)
		if bd.Requires != "" {
			fmt.Fprintf(&b, " Requires %s.", bd.Requires)
		}
		b.WriteString(" " + bd.Description)
		docs = append(docs, Document{ID: KindBuilding + ":" + bd.ID, Kind: KindBuilding, Title: bd.Name, Text: b.String()})
	}
	for _, t := range cat.Techs {
		var b strings.Builder
		fmt.Fprintf(&b, "%s is a %s technology of the %s era costing %d science.", t.Name, KindTech, t.Era, t.Cost)
		if len(t.Prerequisites) > 0 {
			fmt.Fprintf(&b, " Prerequisites: %s.", strings.Join(t.Prerequisites, ", "))
		}
		b.WriteString(" " + t.Description)
		docs = append(docs, Document{ID: KindTech + ":" + t.ID, Kind: KindTech, Title: t.Name, Text: b.String()})
	}
	for _, e := range cat.Eras {
		docs = append(docs, Document{ID: KindEra + ":" + e.ID, Kind: KindEra, Title: e.Name, Text: e.Name + ". " + e.Description})
	}
	return docs
}
