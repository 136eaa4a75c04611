package civ

import (
	"fmt"
	"math"
	"sort"

	"github.com/freeeve/hexciv/pkg/hex"
)

// Quadrant restricts the human start to one quarter of the map.
type Quadrant string

const (
	QuadrantAny       Quadrant = ""
	QuadrantNorthWest Quadrant = "nw"
	QuadrantNorthEast Quadrant = "ne"
	QuadrantSouthWest Quadrant = "sw"
	QuadrantSouthEast Quadrant = "se"
)

// StartOptions configures AllocateStarts.
type StartOptions struct {
	Count                 int
	MinDistance           int
	MinDistanceFromPlayer int
	// MinFloor is the smallest distance relaxation may reach. Zero means 1.
	MinFloor       int
	PlayerQuadrant Quadrant
	// Claimed coordinates are excluded from consideration.
	Claimed []hex.Coord
}

type startCandidate struct {
	tile  *Tile
	score float64
}

// StartScore rates a tile as a starting position: base 1.0, +0.5 for
// grassland or plains, +0.3 with a resource, and up to +0.3 for closeness
// to the map center with linear falloff to the half-diagonal.
func StartScore(t *Tile, width, height int) float64 {
	score := 1.0
	if t.Terrain == Grassland || t.Terrain == Plains {
		score += 0.5
	}
	if t.Resource != NoResource {
		score += 0.3
	}
	center := hex.FromOffset(width/2, height/2)
	halfDiag := math.Hypot(float64(width), float64(height)) / 2
	if halfDiag > 0 {
		f := 1 - float64(hex.Distance(t.Coord(), center))/halfDiag
		score += math.Max(f, 0) * 0.3
	}
	return score
}

// AllocateStarts picks one start per civilization. The first coordinate is
// the human player's. Later picks take the best-scoring suitable tile that
// keeps MinDistance from every placed civ and MinDistanceFromPlayer from the
// human; both distances relax by one down to MinFloor when nothing fits.
func AllocateStarts(m *Map, opts StartOptions) ([]hex.Coord, error) {
	if opts.Count <= 0 {
		return nil, nil
	}
	claimed := make(map[hex.Coord]bool, len(opts.Claimed))
	for _, c := range opts.Claimed {
		claimed[c] = true
	}
	var cands []startCandidate
	for _, t := range m.Tiles {
		if !t.Terrain.Habitable() || claimed[t.Coord()] {
			continue
		}
		cands = append(cands, startCandidate{tile: t, score: StartScore(t, m.Width, m.Height)})
	}
	if len(cands) == 0 {
		return nil, &ConfigurationError{Reason: "map has no habitable land for starting positions"}
	}
	if len(cands) < opts.Count {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("only %d habitable tiles for %d civilizations", len(cands), opts.Count)}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })

	used := make([]bool, len(cands))
	player := pickPlayerStart(cands, m, opts.PlayerQuadrant)
	used[player] = true
	placed := []hex.Coord{cands[player].tile.Coord()}

	floor := max(opts.MinFloor, 1)
	minDist := max(opts.MinDistance, floor)
	minFromPlayer := max(opts.MinDistanceFromPlayer, floor)
	for len(placed) < opts.Count {
		best := -1
		bestSpread := -1
		for i, c := range cands {
			if used[i] {
				continue
			}
			if best >= 0 && c.score < cands[best].score {
				break
			}
			coord := c.tile.Coord()
			if hex.Distance(coord, placed[0]) < minFromPlayer {
				continue
			}
			spread := math.MaxInt
			for _, p := range placed {
				spread = min(spread, hex.Distance(coord, p))
			}
			if spread < minDist {
				continue
			}
			if best < 0 || spread > bestSpread {
				best, bestSpread = i, spread
			}
		}
		if best >= 0 {
			used[best] = true
			placed = append(placed, cands[best].tile.Coord())
			continue
		}
		if minDist == floor && minFromPlayer == floor {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("placed %d of %d civilizations %d tiles apart", len(placed), opts.Count, floor)}
		}
		minDist = max(minDist-1, floor)
		minFromPlayer = max(minFromPlayer-1, floor)
	}
	return placed, nil
}

// pickPlayerStart returns the index of the best candidate in quadrant q, or
// the overall best when q is empty or has no land.
func pickPlayerStart(cands []startCandidate, m *Map, q Quadrant) int {
	if q == QuadrantAny {
		return 0
	}
	for i, c := range cands {
		if inQuadrant(c.tile.Coord(), m.Width, m.Height, q) {
			return i
		}
	}
	return 0
}

func inQuadrant(c hex.Coord, width, height int, q Quadrant) bool {
	col, row := c.Offset()
	west := col < width/2
	north := row < height/2
	switch q {
	case QuadrantNorthWest:
		return north && west
	case QuadrantNorthEast:
		return north && !west
	case QuadrantSouthWest:
		return !north && west
	case QuadrantSouthEast:
		return !north && !west
	}
	return true
}
