// Package forcegrid implements the spatially indexed ambient vector field
// sampled once per body per tick during force accumulation (spec §4.3).
package forcegrid

import (
	"math"

	"github.com/azrael-sim/azrael/internal/body"
)

// CellIndex addresses one cell of the lattice.
type CellIndex struct {
	X, Y, Z int
}

// Grid is a regular 3-D lattice with spacing Spacing. Cells are stored in
// a sparse map keyed by CellIndex — following the same "hashed sparse
// index" idiom the teacher uses for world.entities (keyed by string id)
// applied to a spatial key — so unset cells cost nothing and Sample stays
// O(1) average regardless of region size.
type Grid struct {
	Spacing float64
	cells   map[CellIndex]body.Vec3
}

func New(spacing float64) *Grid {
	if spacing <= 0 {
		spacing = 1
	}
	return &Grid{Spacing: spacing, cells: make(map[CellIndex]body.Vec3)}
}

func (g *Grid) indexOf(p body.Vec3) CellIndex {
	return CellIndex{
		X: int(math.Floor(p.X / g.Spacing)),
		Y: int(math.Floor(p.Y / g.Spacing)),
		Z: int(math.Floor(p.Z / g.Spacing)),
	}
}

// Sample returns the vector of the cell containing p; an out-of-region
// (unset) cell returns the zero vector.
func (g *Grid) Sample(p body.Vec3) body.Vec3 {
	return g.cells[g.indexOf(p)]
}

// Set assigns the vector of a single cell by index.
func (g *Grid) Set(idx CellIndex, v body.Vec3) {
	if v.IsZero() {
		delete(g.cells, idx)
		return
	}
	g.cells[idx] = v
}

// SetRegion assigns v to every cell whose index falls within [min, max]
// inclusive, in world coordinates.
func (g *Grid) SetRegion(min, max body.Vec3, v body.Vec3) {
	lo := g.indexOf(min)
	hi := g.indexOf(max)
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				g.Set(CellIndex{x, y, z}, v)
			}
		}
	}
}
