package civ

import "sort"

// ResearchResult is the outcome of one research tick for a player.
type ResearchResult struct {
	PlayerID       string   `json:"playerId"`
	TechID         string   `json:"techId,omitempty"`
	Delta          int      `json:"progressDelta"`
	Progress       int      `json:"progress"`
	Cost           int      `json:"cost,omitempty"`
	Completed      bool     `json:"completed"`
	NewlyAvailable []string `json:"newlyAvailable,omitempty"`
	Skipped        bool     `json:"skipped,omitempty"`
}

// TurnsRemaining estimates the turns until the current tech completes.
func (r ResearchResult) TurnsRemaining() int {
	if r.Completed || r.Delta <= 0 || r.Cost == 0 {
		return 0
	}
	left := r.Cost - r.Progress
	return max((left+r.Delta-1)/r.Delta, 1)
}

// Available reports whether techID can be started: it exists, is not
// completed, and every prerequisite is completed.
func Available(rs *ResearchState, techID string, cat *Catalog) bool {
	t, ok := cat.Tech(techID)
	if !ok || rs.Has(techID) {
		return false
	}
	for _, p := range t.Prerequisites {
		if !rs.Has(p) {
			return false
		}
	}
	return true
}

// AvailableTechs lists every startable tech, sorted by id.
func AvailableTechs(rs *ResearchState, cat *Catalog) []string {
	var out []string
	for _, t := range cat.Techs {
		if Available(rs, t.ID, cat) {
			out = append(out, t.ID)
		}
	}
	sort.Strings(out)
	return out
}

// StartResearch begins techID. It fails without mutating rs when the tech is
// unknown, already completed, has unmet prerequisites, or another tech is in
// progress.
func StartResearch(rs *ResearchState, techID string, cat *Catalog) error {
	t, ok := cat.Tech(techID)
	if !ok {
		return &InvalidResearchRequest{TechID: techID, Reason: "unknown technology"}
	}
	if rs.Has(techID) {
		return &InvalidResearchRequest{TechID: techID, Reason: "already researched"}
	}
	if rs.Current != nil {
		return &InvalidResearchRequest{TechID: techID, Reason: "already researching " + rs.Current.TechID}
	}
	for _, p := range t.Prerequisites {
		if !rs.Has(p) {
			return &InvalidResearchRequest{TechID: techID, Reason: "missing prerequisite " + p}
		}
	}
	rs.Current = &ResearchProgress{TechID: techID}
	return nil
}

// CancelResearch drops the in-progress tech and its progress. It returns the
// cancelled tech id, or "" when nothing was active.
func CancelResearch(rs *ResearchState) string {
	if rs.Current == nil {
		return ""
	}
	id := rs.Current.TechID
	rs.Current = nil
	return id
}

// ResolveResearch adds science to the player's in-progress tech. On
// completion the tech moves from Current to Completed in one step, and the
// techs whose last missing prerequisite it was are reported as newly
// available. A player with nothing in progress is left untouched. At most
// one tick runs per turn.
func ResolveResearch(p *Player, science, turn int, cat *Catalog) ResearchResult {
	rs := &p.Research
	res := ResearchResult{PlayerID: p.ID}
	if turn <= rs.LastResolvedTurn {
		res.Skipped = true
		return res
	}
	if rs.Current == nil {
		return res
	}
	rs.LastResolvedTurn = turn
	cur := rs.Current
	res.TechID = cur.TechID
	t, ok := cat.Tech(cur.TechID)
	if !ok {
		// stale tech id from an older catalog
		rs.Current = nil
		return res
	}
	res.Cost = t.Cost
	if science < 0 {
		science = 0
	}
	cur.Progress += science
	res.Delta = science
	res.Progress = cur.Progress
	if cur.Progress < t.Cost {
		return res
	}

	before := AvailableTechs(rs, cat)
	rs.Completed = append(rs.Completed, cur.TechID)
	sort.Strings(rs.Completed)
	rs.Current = nil
	res.Completed = true

	was := make(map[string]bool, len(before))
	for _, id := range before {
		was[id] = true
	}
	for _, id := range AvailableTechs(rs, cat) {
		if !was[id] {
			res.NewlyAvailable = append(res.NewlyAvailable, id)
		}
	}
	return res
}
