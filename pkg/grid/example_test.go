package grid_test

import (
	"fmt"

	"github.com/matzehuels/tessera/pkg/grid"
)

func ExampleFitDim() {
	// A widget dragged past the bottom-right corner of a 10x10 board
	d := grid.FitDim(grid.Dim{X: 8, Y: -1, W: 4, H: 3}, 10, 10)
	fmt.Println(d)
	// Output:
	// 8,0 2x3
}

func ExampleSplit() {
	left, right := grid.Split(grid.Dim{X: 0, Y: 0, W: 5, H: 2}, grid.Horizontal)
	fmt.Println(left)
	fmt.Println(right)
	// Output:
	// 0,0 2x2
	// 2,0 3x2
}
