package spatial

import (
	"math"
	"strconv"
)

// FlowField is an integration field over a coarse occupancy grid, built
// outward from a single goal cell by breadth-first search and turned
// into a per-cell gradient. Once generated, any mover anywhere in the
// field gets an O(1) direction-to-goal lookup, which amortizes well when
// many units share a destination (a rally point, an attack-move
// staging area) — the approach follows Treuille, Cooper, Popović,
// "Continuum Crowds" (SIGGRAPH 2006).
type FlowField struct {
	cols, rows int
	cellSize   float64

	integration []float32
	flowX       []float32
	flowY       []float32
	blocked     []bool

	queue []int
}

// NewFlowField allocates a field sized to cover a world of worldW x worldH
// at the given cell resolution.
func NewFlowField(worldW, worldH, cellSize float64) *FlowField {
	if cellSize <= 0 {
		cellSize = 64
	}
	cols := int(worldW/cellSize) + 1
	rows := int(worldH/cellSize) + 1
	n := cols * rows
	return &FlowField{
		cols:        cols,
		rows:        rows,
		cellSize:    cellSize,
		integration: make([]float32, n),
		flowX:       make([]float32, n),
		flowY:       make([]float32, n),
		blocked:     make([]bool, n),
		queue:       make([]int, 0, n),
	}
}

func (f *FlowField) idx(cx, cy int) int { return cy*f.cols + cx }

// SetBlocked marks the cell under a world-space point impassable, for
// airborne-agnostic occupancy built from obstacles and completed
// buildings.
func (f *FlowField) SetBlocked(x, y float64, blocked bool) {
	cx := int(x / f.cellSize)
	cy := int(y / f.cellSize)
	if cx < 0 || cy < 0 || cx >= f.cols || cy >= f.rows {
		return
	}
	f.blocked[f.idx(cx, cy)] = blocked
}

// ResetOccupancy clears all blocked flags so occupancy can be re-stamped
// before a regenerate. Manager does not call it: it builds a fresh field
// instead.
func (f *FlowField) ResetOccupancy() {
	for i := range f.blocked {
		f.blocked[i] = false
	}
}

const unreached = float32(1 << 20)

// Generate rebuilds the integration and flow fields for a goal point.
// Cells that never get reached (isolated by blocked cells) keep an
// unreached sentinel in the integration field and a zero flow vector.
func (f *FlowField) Generate(goalX, goalY float64) {
	for i := range f.integration {
		f.integration[i] = unreached
	}
	gcx := clampInt(int(goalX/f.cellSize), 0, f.cols-1)
	gcy := clampInt(int(goalY/f.cellSize), 0, f.rows-1)
	goalIdx := f.idx(gcx, gcy)
	f.integration[goalIdx] = 0

	f.queue = f.queue[:0]
	f.queue = append(f.queue, goalIdx)

	for qi := 0; qi < len(f.queue); qi++ {
		cur := f.queue[qi]
		cx, cy := cur%f.cols, cur/f.cols
		curCost := f.integration[cur]

		for _, n := range neighbors8 {
			nx, ny := cx+n.dx, cy+n.dy
			if nx < 0 || ny < 0 || nx >= f.cols || ny >= f.rows {
				continue
			}
			ni := f.idx(nx, ny)
			if f.blocked[ni] {
				continue
			}
			step := float32(1.0)
			if n.dx != 0 && n.dy != 0 {
				step = float32(math.Sqrt2)
			}
			cand := curCost + step
			if cand < f.integration[ni] {
				f.integration[ni] = cand
				f.queue = append(f.queue, ni)
			}
		}
	}

	for cy := 0; cy < f.rows; cy++ {
		for cx := 0; cx < f.cols; cx++ {
			i := f.idx(cx, cy)
			if f.integration[i] >= unreached {
				f.flowX[i], f.flowY[i] = 0, 0
				continue
			}
			best := f.integration[i]
			var bx, by float32
			for _, n := range neighbors8 {
				nx, ny := cx+n.dx, cy+n.dy
				if nx < 0 || ny < 0 || nx >= f.cols || ny >= f.rows {
					continue
				}
				ni := f.idx(nx, ny)
				if f.integration[ni] < best {
					best = f.integration[ni]
					bx, by = float32(n.dx), float32(n.dy)
				}
			}
			mag := math.Sqrt(float64(bx*bx + by*by))
			if mag > 0 {
				bx = float32(float64(bx) / mag)
				by = float32(float64(by) / mag)
			}
			f.flowX[i], f.flowY[i] = bx, by
		}
	}
}

// Lookup returns the unit flow direction at a world-space point, and
// whether the point's cell was reached by the last Generate call.
func (f *FlowField) Lookup(x, y float64) (dx, dy float64, ok bool) {
	cx := clampInt(int(x/f.cellSize), 0, f.cols-1)
	cy := clampInt(int(y/f.cellSize), 0, f.rows-1)
	i := f.idx(cx, cy)
	if f.integration[i] >= unreached {
		return 0, 0, false
	}
	return float64(f.flowX[i]), float64(f.flowY[i]), true
}

var neighbors8 = []struct{ dx, dy int }{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Manager caches one FlowField per goal cell, keyed by the goal's
// string-encoded grid cell so many movers sharing a destination reuse
// the same generated field.
type Manager struct {
	worldW, worldH, cellSize float64
	fields                   map[string]*FlowField
}

// NewManager creates a flow field cache for a world of the given size.
func NewManager(worldW, worldH, cellSize float64) *Manager {
	return &Manager{
		worldW:   worldW,
		worldH:   worldH,
		cellSize: cellSize,
		fields:   make(map[string]*FlowField),
	}
}

func goalKey(x, y, cellSize float64) (string, int, int) {
	cx := int(x / cellSize)
	cy := int(y / cellSize)
	return keyOf(cx, cy), cx, cy
}

func keyOf(cx, cy int) string {
	return strconv.Itoa(cx) + ":" + strconv.Itoa(cy)
}

// GetOrCreate returns the field for a goal, stamping occupancy via the
// supplied callback only when the field did not already exist.
func (m *Manager) GetOrCreate(goalX, goalY float64, stamp func(*FlowField)) *FlowField {
	key, _, _ := goalKey(goalX, goalY, m.cellSize)
	if f, ok := m.fields[key]; ok {
		return f
	}
	f := NewFlowField(m.worldW, m.worldH, m.cellSize)
	if stamp != nil {
		stamp(f)
	}
	f.Generate(goalX, goalY)
	m.fields[key] = f
	return f
}

// Invalidate drops every cached field, forcing regeneration on next use
// (called when building/obstacle occupancy changes).
func (m *Manager) Invalidate() {
	m.fields = make(map[string]*FlowField)
}
