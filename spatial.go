package main

import "github.com/go-gl/mathgl/mgl64"

const (
	GridCellSize   = 1.0 // world units; several trail segments per cell
	GridHalfExtent = 8.0 // covers the sphere plus the highest jump
	GridDim        = int(2 * GridHalfExtent / GridCellSize)
)

// TrailGrid is a fixed-size 3-D grid for broad-phase trail queries. Segments
// are filed under the cell holding their centre. It is derived from
// SimState.Trails and never serialized.
type TrailGrid struct {
	cells [GridDim * GridDim * GridDim][]int
}

// NewTrailGrid returns an empty grid.
func NewTrailGrid() *TrailGrid {
	return &TrailGrid{}
}

// Clear resets all cells (keeps allocated capacity)
func (g *TrailGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func gridCoord(v float64) int {
	c := int((v + GridHalfExtent) / GridCellSize)
	if c < 0 {
		return 0
	}
	if c >= GridDim {
		return GridDim - 1
	}
	return c
}

func cellIdx(x, y, z int) int {
	return (z*GridDim+y)*GridDim + x
}

// Insert files segment idx under the cell containing pos.
func (g *TrailGrid) Insert(pos mgl64.Vec3, idx int) {
	i := cellIdx(gridCoord(pos[0]), gridCoord(pos[1]), gridCoord(pos[2]))
	g.cells[i] = append(g.cells[i], idx)
}

// QueryBuf appends every segment index filed in cells overlapping the box of
// the given radius around pos, and returns the extended slice.
func (g *TrailGrid) QueryBuf(pos mgl64.Vec3, radius float64, buf []int) []int {
	minX, maxX := gridCoord(pos[0]-radius), gridCoord(pos[0]+radius)
	minY, maxY := gridCoord(pos[1]-radius), gridCoord(pos[1]+radius)
	minZ, maxZ := gridCoord(pos[2]-radius), gridCoord(pos[2]+radius)
	for z := minZ; z <= maxZ; z++ {
		for y := minY; y <= maxY; y++ {
			for x := minX; x <= maxX; x++ {
				buf = append(buf, g.cells[cellIdx(x, y, z)]...)
			}
		}
	}
	return buf
}

// Rebuild refiles every segment of trails.
func (g *TrailGrid) Rebuild(trails []TrailSegment) {
	g.Clear()
	for i := range trails {
		g.Insert(trails[i].Position, i)
	}
}
