// Package spatial provides uniform-grid spatial indexing and flow-field
// pathfinding shared by the simulation tick.
package spatial

// Grid is a uniform spatial hash over a bounded world. Cells store entity
// ids by value (not pointers) so a tick's rebuild never allocates beyond
// the first growth of each cell's backing slice.
type Grid struct {
	cellSize    float64
	invCellSize float64
	cols, rows  int
	worldW      float64
	worldH      float64
	cells       [][]uint64
	scratch     []uint64
}

// NewGrid builds a grid covering [0,worldW]x[0,worldH] with the given
// cell size. Smaller cells cost more memory but tighten radius queries.
func NewGrid(worldW, worldH, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 64
	}
	cols := int(worldW/cellSize) + 1
	rows := int(worldH/cellSize) + 1
	g := &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		worldW:      worldW,
		worldH:      worldH,
		cells:       make([][]uint64, cols*rows),
	}
	return g
}

// Clear empties every cell while keeping its backing array, so a
// full-grid rebuild each tick does not churn the allocator.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *Grid) cellIndex(x, y float64) int {
	cx := int(x * g.invCellSize)
	cy := int(y * g.invCellSize)
	if cx < 0 {
		cx = 0
	} else if cx >= g.cols {
		cx = g.cols - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= g.rows {
		cy = g.rows - 1
	}
	return cy*g.cols + cx
}

// Insert places an entity id into the cell covering (x, y).
func (g *Grid) Insert(id uint64, x, y float64) {
	idx := g.cellIndex(x, y)
	g.cells[idx] = append(g.cells[idx], id)
}

// QueryRadius returns the ids of every entity in cells overlapping a
// circle of the given radius. The returned slice is reused scratch
// space owned by the grid — callers must copy it before the next call
// if they need to retain it past the current tick step.
func (g *Grid) QueryRadius(x, y, radius float64) []uint64 {
	g.scratch = g.scratch[:0]

	minCx := int((x - radius) * g.invCellSize)
	maxCx := int((x + radius) * g.invCellSize)
	minCy := int((y - radius) * g.invCellSize)
	maxCy := int((y + radius) * g.invCellSize)

	if minCx < 0 {
		minCx = 0
	}
	if minCy < 0 {
		minCy = 0
	}
	if maxCx >= g.cols {
		maxCx = g.cols - 1
	}
	if maxCy >= g.rows {
		maxCy = g.rows - 1
	}

	for cy := minCy; cy <= maxCy; cy++ {
		for cx := minCx; cx <= maxCx; cx++ {
			g.scratch = append(g.scratch, g.cells[cy*g.cols+cx]...)
		}
	}
	return g.scratch
}

// Dimensions reports the grid's column/row extents, for tests and metrics.
func (g *Grid) Dimensions() (cols, rows int, cellSize float64) {
	return g.cols, g.rows, g.cellSize
}
