package impulse

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// ============================================================================
// Types
// ============================================================================

// CellKey is the integer coordinate of a grid cell
type CellKey struct {
	X, Y, Z int
}

// Cell holds the proxy indices overlapping it
type Cell struct {
	indices []int
}

// SpatialGrid is a uniform hashed grid. Cells that collide in the hash share
// a bucket, which only costs extra bounds tests.
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int

	// proxies spanning more cells than the table holds, tested against everything
	oversized []int
}

// ============================================================================
// Constructor
// ============================================================================

// NewSpatialGrid rounds numCells up to a power of two
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].indices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// ============================================================================
// Broad phase
// ============================================================================

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].indices = sg.cells[i].indices[:0]
	}
	sg.oversized = sg.oversized[:0]
}

func (sg *SpatialGrid) Insert(index int, proxy Proxy) {
	minCell, maxCell := sg.worldToCell(proxy.Bounds.Min), sg.worldToCell(proxy.Bounds.Max)
	if sg.span(minCell, maxCell) > len(sg.cells) {
		sg.oversized = append(sg.oversized, index)
		return
	}

	seen := make(map[int]struct{})
	sg.eachCell(minCell, maxCell, func(cellIdx int) {
		if _, ok := seen[cellIdx]; ok {
			return
		}
		seen[cellIdx] = struct{}{}
		sg.cells[cellIdx].indices = append(sg.cells[cellIdx].indices, index)
	})
}

// FindPairs implements BroadPhase
func (sg *SpatialGrid) FindPairs(proxies []Proxy) []Pair {
	sg.Clear()
	for i, proxy := range proxies {
		sg.Insert(i, proxy)
	}

	pairs := make([]Pair, 0, len(proxies))
	seen := make([]bool, len(proxies))
	others := make([]int, 0, 8)

	for i, proxy := range proxies {
		others = others[:0]
		consider := func(j int) {
			if j <= i || seen[j] {
				return
			}
			seen[j] = true
			if proxy.Bounds.Overlaps(proxies[j].Bounds) {
				others = append(others, j)
			}
		}

		if slices.Contains(sg.oversized, i) {
			for j := range proxies {
				consider(j)
			}
		} else {
			minCell, maxCell := sg.worldToCell(proxy.Bounds.Min), sg.worldToCell(proxy.Bounds.Max)
			sg.eachCell(minCell, maxCell, func(cellIdx int) {
				for _, j := range sg.cells[cellIdx].indices {
					consider(j)
				}
			})
			for _, j := range sg.oversized {
				consider(j)
			}
		}

		slices.Sort(others)
		for _, j := range others {
			pairs = append(pairs, Pair{A: i, B: j})
		}
		clear(seen)
	}

	return pairs
}

func (sg *SpatialGrid) eachCell(minCell, maxCell CellKey, fn func(cellIdx int)) {
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				fn(sg.hashCell(CellKey{x, y, z}))
			}
		}
	}
}

func (sg *SpatialGrid) span(minCell, maxCell CellKey) int {
	x := float64(maxCell.X-minCell.X) + 1
	y := float64(maxCell.Y-minCell.Y) + 1
	z := float64(maxCell.Z-minCell.Z) + 1
	if x*y*z > float64(len(sg.cells)) {
		return len(sg.cells) + 1
	}

	return int(x * y * z)
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
