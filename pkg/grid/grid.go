package grid

import "fmt"

// Dim is a rectangle on the grid. X and Y are the top-left cell, W and H
// the number of columns and rows covered.
type Dim struct {
	X int `json:"x" bson:"x" toml:"x"`
	Y int `json:"y" bson:"y" toml:"y"`
	W int `json:"w" bson:"w" toml:"w"`
	H int `json:"h" bson:"h" toml:"h"`
}

// String returns the rectangle as "x,y wxh".
func (d Dim) String() string {
	return fmt.Sprintf("%d,%d %dx%d", d.X, d.Y, d.W, d.H)
}

// Area returns W*H, or 0 for a rectangle that is not visible.
func (d Dim) Area() int {
	if !d.IsVisible() {
		return 0
	}
	return d.W * d.H
}

// IsVisible reports whether the rectangle has a positive width and height.
// It does not consider grid bounds; see [Visible].
func (d Dim) IsVisible() bool {
	return d.W > 0 && d.H > 0
}

// Direction names the axis a rectangle is split along.
type Direction string

const (
	// Horizontal splits a rectangle into a left and a right half.
	Horizontal Direction = "horizontal"
	// Vertical splits a rectangle into a top and a bottom half.
	Vertical Direction = "vertical"
)

// ParseDirection converts a user-supplied string to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Horizontal, Vertical:
		return Direction(s), nil
	}
	return "", fmt.Errorf("unknown split direction %q (want %q or %q)", s, Horizontal, Vertical)
}

// FitDim clamps d into an xSize × ySize grid.
//
// Corrections are applied in a fixed order: y is clamped into [0, ySize] and
// h shrunk so the bottom edge stays on the grid, then the same for x and w.
// Finally a collapsed rectangle whose origin is still inside the grid is
// grown to reach the right or bottom edge.
func FitDim(d Dim, xSize, ySize int) Dim {
	x, y, w, h := d.X, d.Y, d.W, d.H

	if y < 0 {
		y = 0
	}
	if y >= ySize {
		y = ySize
	}
	if y+h > ySize {
		h = ySize - y
	}

	if x < 0 {
		x = 0
	}
	if x >= xSize {
		x = xSize
	}
	if x+w > xSize {
		w = xSize - x
	}

	if w <= 0 && x < xSize {
		w = xSize - x
	}
	if h <= 0 && y < ySize {
		h = ySize - y
	}

	return Dim{X: x, Y: y, W: w, H: h}
}

// Visible reports whether d still covers at least one cell after fitting it
// into an xSize × ySize grid.
func Visible(d Dim, xSize, ySize int) bool {
	return FitDim(d, xSize, ySize).IsVisible()
}

// CanSplit reports whether d is large enough to be split along dir.
// A horizontal split needs a width of at least 2, a vertical split a height
// of at least 2.
func CanSplit(d Dim, dir Direction) bool {
	if dir == Horizontal {
		return d.W > 1
	}
	return d.H > 1
}

// Split divides d along dir. The first half gets floor(size/2) and keeps the
// origin; the second half gets the remainder and starts where the first ends.
// The halves tile d exactly. Callers should check [CanSplit] first.
func Split(d Dim, dir Direction) (Dim, Dim) {
	if dir == Horizontal {
		w := d.W / 2
		return Dim{X: d.X, Y: d.Y, W: w, H: d.H},
			Dim{X: d.X + w, Y: d.Y, W: d.W - w, H: d.H}
	}
	h := d.H / 2
	return Dim{X: d.X, Y: d.Y, W: d.W, H: h},
		Dim{X: d.X, Y: d.Y + h, W: d.W, H: d.H - h}
}
