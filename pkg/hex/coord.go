// Package hex implements cube-coordinate math for pointy-top hex grids.
//
// Every Coord produced by this package satisfies Q+R+S == 0. Build values
// with New so that S is always derived.
package hex

import "math"

// Coord is a cube coordinate.
type Coord struct {
	Q int `json:"q"`
	R int `json:"r"`
	S int `json:"s"`
}

// New returns the cube coordinate for axial (q, r).
func New(q, r int) Coord {
	return Coord{Q: q, R: r, S: -q - r}
}

// Directions is the fixed neighbor order used by Neighbors and Ring.
var Directions = [6]Coord{
	{1, 0, -1},
	{1, -1, 0},
	{0, -1, 1},
	{-1, 0, 1},
	{-1, 1, 0},
	{0, 1, -1},
}

// Valid reports whether the cube invariant holds.
func (c Coord) Valid() bool {
	return c.Q+c.R+c.S == 0
}

// Add returns c + o.
func (c Coord) Add(o Coord) Coord {
	return Coord{c.Q + o.Q, c.R + o.R, c.S + o.S}
}

// Scale returns c * k.
func (c Coord) Scale(k int) Coord {
	return Coord{c.Q * k, c.R * k, c.S * k}
}

// Neighbor returns the adjacent coordinate in direction dir (0-5).
func (c Coord) Neighbor(dir int) Coord {
	return c.Add(Directions[((dir%6)+6)%6])
}

// Distance returns the number of hex steps between a and b.
func Distance(a, b Coord) int {
	return max(abs(a.Q-b.Q), abs(a.R-b.R), abs(a.S-b.S))
}

// Neighbors returns the six adjacent coordinates in Directions order.
func Neighbors(c Coord) []Coord {
	out := make([]Coord, 6)
	for i, d := range Directions {
		out[i] = c.Add(d)
	}
	return out
}

// Ring returns the 6*radius coordinates at exactly radius steps from center.
// The walk starts at center + Directions[4]*radius. Radius 0 yields [center].
func Ring(center Coord, radius int) []Coord {
	if radius <= 0 {
		return []Coord{center}
	}
	out := make([]Coord, 0, 6*radius)
	cur := center.Add(Directions[4].Scale(radius))
	for i := 0; i < 6; i++ {
		for j := 0; j < radius; j++ {
			out = append(out, cur)
			cur = cur.Neighbor(i)
		}
	}
	return out
}

// Spiral returns center followed by every ring out to radius.
func Spiral(center Coord, radius int) []Coord {
	out := make([]Coord, 0, Count(radius))
	out = append(out, center)
	for k := 1; k <= radius; k++ {
		out = append(out, Ring(center, k)...)
	}
	return out
}

// InRadius returns every coordinate with Distance(center, c) <= radius,
// ordered by q then r.
func InRadius(center Coord, radius int) []Coord {
	if radius < 0 {
		return nil
	}
	out := make([]Coord, 0, Count(radius))
	for dq := -radius; dq <= radius; dq++ {
		lo := max(-radius, -dq-radius)
		hi := min(radius, -dq+radius)
		for dr := lo; dr <= hi; dr++ {
			out = append(out, New(center.Q+dq, center.R+dr))
		}
	}
	return out
}

// Count is the number of coordinates within radius: 3r^2 + 3r + 1.
func Count(radius int) int {
	if radius < 0 {
		return 0
	}
	return 3*radius*radius + 3*radius + 1
}

// Line returns the coordinates on the straight line from a to b, both ends
// included. It has Distance(a, b)+1 entries, each a neighbor of the last.
func Line(a, b Coord) []Coord {
	n := Distance(a, b)
	if n == 0 {
		return []Coord{a}
	}
	// Nudge off exact midpoints so ties round the same way in every direction.
	aq, ar, as := float64(a.Q)+1e-6, float64(a.R)+2e-6, float64(a.S)-3e-6
	bq, br, bs := float64(b.Q)+1e-6, float64(b.R)+2e-6, float64(b.S)-3e-6
	out := make([]Coord, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		out = append(out, Round(aq+(bq-aq)*t, ar+(br-ar)*t, as+(bs-as)*t))
	}
	return out
}

// Round returns the cube coordinate nearest to fractional (q, r, s).
func Round(q, r, s float64) Coord {
	rq, rr, rs := math.Round(q), math.Round(r), math.Round(s)
	dq, dr, ds := math.Abs(rq-q), math.Abs(rr-r), math.Abs(rs-s)
	switch {
	case dq > dr && dq > ds:
		rq = -rr - rs
	case dr > ds:
		rr = -rq - rs
	}
	return New(int(rq), int(rr))
}

// FromOffset converts an odd-r offset cell (col, row) to cube coordinates.
func FromOffset(col, row int) Coord {
	q := col - (row-(row&1))/2
	return New(q, row)
}

// Offset converts c back to odd-r offset (col, row).
func (c Coord) Offset() (col, row int) {
	row = c.R
	col = c.Q + (c.R-(c.R&1))/2
	return col, row
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
