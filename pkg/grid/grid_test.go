package grid

import "testing"

func TestFitDim(t *testing.T) {
	tests := []struct {
		name string
		dim  Dim
		x, y int
		want Dim
	}{
		{
			name: "inside grid",
			dim:  Dim{X: 1, Y: 2, W: 3, H: 4},
			x:    10, y: 10,
			want: Dim{X: 1, Y: 2, W: 3, H: 4},
		},
		{
			name: "negative origin",
			dim:  Dim{X: -2, Y: -3, W: 4, H: 5},
			x:    10, y: 10,
			want: Dim{X: 0, Y: 0, W: 4, H: 5},
		},
		{
			name: "overflows right and bottom",
			dim:  Dim{X: 8, Y: 7, W: 5, H: 6},
			x:    10, y: 10,
			want: Dim{X: 8, Y: 7, W: 2, H: 3},
		},
		{
			name: "origin past the grid",
			dim:  Dim{X: 12, Y: 15, W: 3, H: 3},
			x:    10, y: 10,
			want: Dim{X: 10, Y: 10, W: 0, H: 0},
		},
		{
			name: "zero width revived to right edge",
			dim:  Dim{X: 6, Y: 0, W: 0, H: 2},
			x:    10, y: 10,
			want: Dim{X: 6, Y: 0, W: 4, H: 2},
		},
		{
			name: "zero height revived to bottom edge",
			dim:  Dim{X: 0, Y: 3, W: 2, H: 0},
			x:    10, y: 5,
			want: Dim{X: 0, Y: 3, W: 2, H: 2},
		},
		{
			name: "negative width at right edge stays collapsed",
			dim:  Dim{X: 10, Y: 0, W: -1, H: 1},
			x:    10, y: 10,
			want: Dim{X: 10, Y: 0, W: -1, H: 1},
		},
		{
			name: "non-square grid",
			dim:  Dim{X: 0, Y: 0, W: 20, H: 20},
			x:    12, y: 4,
			want: Dim{X: 0, Y: 0, W: 12, H: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FitDim(tt.dim, tt.x, tt.y); got != tt.want {
				t.Errorf("FitDim(%v, %d, %d) = %v, want %v", tt.dim, tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestFitDimIdempotent(t *testing.T) {
	sizes := [][2]int{{1, 1}, {3, 7}, {10, 10}, {12, 4}}
	for _, size := range sizes {
		xs, ys := size[0], size[1]
		for x := -3; x <= xs+3; x++ {
			for y := -3; y <= ys+3; y++ {
				for w := -2; w <= xs+2; w++ {
					for h := -2; h <= ys+2; h++ {
						d := Dim{X: x, Y: y, W: w, H: h}
						once := FitDim(d, xs, ys)
						twice := FitDim(once, xs, ys)
						if once != twice {
							t.Fatalf("FitDim not idempotent for %v on %dx%d: %v then %v", d, xs, ys, once, twice)
						}
					}
				}
			}
		}
	}
}

func TestFitDimStaysOnGrid(t *testing.T) {
	for x := -2; x <= 12; x++ {
		for w := -2; w <= 12; w++ {
			d := FitDim(Dim{X: x, Y: 0, W: w, H: 1}, 10, 10)
			if d.X < 0 || d.X > 10 {
				t.Fatalf("FitDim x out of range: %v", d)
			}
			if d.X+d.W > 10 {
				t.Fatalf("FitDim right edge past grid: %v", d)
			}
		}
	}
}

func TestVisible(t *testing.T) {
	tests := []struct {
		name string
		dim  Dim
		want bool
	}{
		{"normal", Dim{X: 0, Y: 0, W: 1, H: 1}, true},
		{"revivable", Dim{X: 2, Y: 2, W: 0, H: 0}, true},
		{"off grid", Dim{X: 10, Y: 0, W: 2, H: 2}, false},
		{"below grid", Dim{X: 0, Y: 10, W: 2, H: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Visible(tt.dim, 10, 10); got != tt.want {
				t.Errorf("Visible(%v) = %v, want %v", tt.dim, got, tt.want)
			}
		})
	}
}

func TestCanSplit(t *testing.T) {
	tests := []struct {
		name string
		dim  Dim
		dir  Direction
		want bool
	}{
		{"wide horizontal", Dim{W: 2, H: 1}, Horizontal, true},
		{"narrow horizontal", Dim{W: 1, H: 5}, Horizontal, false},
		{"tall vertical", Dim{W: 1, H: 2}, Vertical, true},
		{"short vertical", Dim{W: 5, H: 1}, Vertical, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanSplit(tt.dim, tt.dir); got != tt.want {
				t.Errorf("CanSplit(%v, %s) = %v, want %v", tt.dim, tt.dir, got, tt.want)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name        string
		dim         Dim
		dir         Direction
		first, rest Dim
	}{
		{
			name:  "even horizontal",
			dim:   Dim{X: 0, Y: 0, W: 4, H: 4},
			dir:   Horizontal,
			first: Dim{X: 0, Y: 0, W: 2, H: 4},
			rest:  Dim{X: 2, Y: 0, W: 2, H: 4},
		},
		{
			name:  "odd horizontal",
			dim:   Dim{X: 1, Y: 2, W: 5, H: 3},
			dir:   Horizontal,
			first: Dim{X: 1, Y: 2, W: 2, H: 3},
			rest:  Dim{X: 3, Y: 2, W: 3, H: 3},
		},
		{
			name:  "odd vertical",
			dim:   Dim{X: 2, Y: 1, W: 3, H: 7},
			dir:   Vertical,
			first: Dim{X: 2, Y: 1, W: 3, H: 3},
			rest:  Dim{X: 2, Y: 4, W: 3, H: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, rest := Split(tt.dim, tt.dir)
			if first != tt.first || rest != tt.rest {
				t.Errorf("Split(%v, %s) = %v, %v, want %v, %v", tt.dim, tt.dir, first, rest, tt.first, tt.rest)
			}
		})
	}
}

func TestSplitTiles(t *testing.T) {
	for _, dir := range []Direction{Horizontal, Vertical} {
		for w := 1; w <= 9; w++ {
			for h := 1; h <= 9; h++ {
				d := Dim{X: 3, Y: 5, W: w, H: h}
				if !CanSplit(d, dir) {
					continue
				}
				a, b := Split(d, dir)
				if a.Area()+b.Area() != d.Area() {
					t.Fatalf("Split(%v, %s) areas %d+%d != %d", d, dir, a.Area(), b.Area(), d.Area())
				}
				if !a.IsVisible() || !b.IsVisible() {
					t.Fatalf("Split(%v, %s) produced an empty half: %v %v", d, dir, a, b)
				}
				if dir == Horizontal && (a.X+a.W != b.X || a.Y != b.Y || a.H != b.H) {
					t.Fatalf("Split(%v, horizontal) halves not adjacent: %v %v", d, a, b)
				}
				if dir == Vertical && (a.Y+a.H != b.Y || a.X != b.X || a.W != b.W) {
					t.Fatalf("Split(%v, vertical) halves not adjacent: %v %v", d, a, b)
				}
			}
		}
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("vertical"); err != nil || d != Vertical {
		t.Errorf("ParseDirection(vertical) = %v, %v", d, err)
	}
	if _, err := ParseDirection("diagonal"); err == nil {
		t.Error("ParseDirection(diagonal) should fail")
	}
}
