package oracle

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"homey-layout/internal/catalog"
	"homey-layout/internal/mathutil"
	"homey-layout/internal/trs"
)

// DefaultCellSize is the floor-plan grid resolution in meters.
const DefaultCellSize = 0.25

// FloorPlan draws a top-down character grid of the room. Row 0 is the back
// wall (z = 0) and column 0 is x = 0. Each placed item fills the cells under
// its footprint (the cell under its position when none is known), marked with its id in
// base 36; overlapping items show '*'. Items outside the room are listed
// after the grid.
func FloorPlan(room Room, layout trs.Layout, footprints map[int]*catalog.Footprint, cell float64) string {
	if cell <= 0 {
		cell = DefaultCellSize
	}
	cols := int(math.Ceil(room.Width / cell))
	rows := int(math.Ceil(room.Depth / cell))
	if cols <= 0 || rows <= 0 {
		return ""
	}

	grid := make([][]byte, rows)
	for r := range grid {
		grid[r] = []byte(strings.Repeat(".", cols))
	}

	var outside []int
	for _, id := range layout.IDs() {
		t := layout[id]
		x, z := t.Position.X, t.Position.Z
		if x < 0 || x > room.Width || z < 0 || z > room.Depth {
			outside = append(outside, id)
			continue
		}

		mark := idMark(id)
		c0, c1 := cellIndex(x, cell, cols), cellIndex(x, cell, cols)
		r0, r1 := cellIndex(z, cell, rows), cellIndex(z, cell, rows)
		if fp := footprints[id]; fp != nil {
			halfW, halfD := fp.Width/2, fp.Depth/2
			// Quarter turns about Y swap the footprint's axes.
			if q := math.Mod(math.Abs(t.Orientation.RotationY), 180); mathutil.AngleDist(q, 90) < 45 {
				halfW, halfD = halfD, halfW
			}
			c0, c1 = cellSpan(x-halfW, x+halfW, cell, cols)
			r0, r1 = cellSpan(z-halfD, z+halfD, cell, rows)
		}
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				if grid[r][c] == '.' {
					grid[r][c] = mark
				} else if grid[r][c] != mark {
					grid[r][c] = '*'
				}
			}
		}
	}

	var b strings.Builder
	for _, row := range grid {
		b.Write(row)
		b.WriteByte('\n')
	}
	if len(outside) > 0 {
		slices.Sort(outside)
		b.WriteString("outside the room:")
		for _, id := range outside {
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(id))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// cellIndex returns the cell containing v.
func cellIndex(v, cell float64, n int) int {
	return clampIndex(int(math.Floor(v/cell)), n)
}

// cellSpan returns the cells covered by [lo, hi]; a span ending exactly on
// a cell edge does not spill into the next cell.
func cellSpan(lo, hi, cell float64, n int) (int, int) {
	first := clampIndex(int(math.Floor(lo/cell)), n)
	last := clampIndex(int(math.Ceil(hi/cell))-1, n)
	if last < first {
		last = first
	}
	return first, last
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func idMark(id int) byte {
	if id < 0 || id >= 36 {
		return '#'
	}
	return strconv.FormatInt(int64(id), 36)[0]
}
