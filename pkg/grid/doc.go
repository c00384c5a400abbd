// Package grid implements the integer geometry used by dashboard layouts.
//
// # Overview
//
// A board is a fixed xSize × ySize grid of cells. Every widget placement
// occupies a rectangle on that grid, described by a [Dim]. This package owns
// the two geometric operations the layout editor needs:
//
//   - Fitting: [FitDim] clamps a rectangle into the grid bounds so that its
//     top-left corner is always on the grid and it never spills past the
//     right or bottom edge.
//   - Splitting: [Split] divides a rectangle into two halves that exactly
//     tile the original, either left/right ([Horizontal]) or top/bottom
//     ([Vertical]).
//
// # Visibility
//
// A rectangle with a non-positive width or height is not visible. Fitting may
// produce such rectangles (for example when a widget is dragged entirely off
// the grid); callers decide whether to keep or prune them. [Visible] reports
// whether a rectangle is still visible after fitting.
//
// # Determinism
//
// All functions are pure: results depend only on their arguments, and
// [FitDim] is idempotent for any positive grid size.
package grid
