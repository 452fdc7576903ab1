package terrain

import (
	"math"

	"github.com/banshee-data/terrainmap/internal/monitoring"
)

// Coordinate mapping between world coordinates, cell coordinates and linear
// indices. All functions are stateless and parameterised by the grid
// metadata, so they work against any OccupancyGrid snapshot, not just the
// one currently owned by a GridMap.
//
// Out-of-bound results are recoverable: the failing operation reports its
// inputs and the grid dimensions through monitoring.Logf and returns
// ok=false. The caller decides whether to skip the point, grow the grid or
// abort the batch.

// GridCoords maps a world position to cell coordinates using
// round-to-nearest, so a cell covers ±Resolution/2 around its centre.
func GridCoords(g *OccupancyGrid, x, y float64) (cx, cy int, ok bool) {
	cx = int(math.Round((x - g.Origin.X) / g.Resolution))
	cy = int(math.Round((y - g.Origin.Y) / g.Resolution))

	if cx < 0 || cx >= g.Width || cy < 0 || cy >= g.Height {
		monitoring.Logf("[GridCoords] out of bounds: x: (%f - %f) / %f = %d, y: (%f - %f) / %f = %d, grid %d x %d",
			x, g.Origin.X, g.Resolution, cx, y, g.Origin.Y, g.Resolution, cy, g.Width, g.Height)
		return cx, cy, false
	}
	return cx, cy, true
}

// CellCoords decomposes a linear index into cell coordinates. The bound
// check is defensive: it only fails for indices outside [0, Width*Height).
func CellCoords(g *OccupancyGrid, idx int) (cx, cy int, ok bool) {
	if g.Width <= 0 {
		monitoring.Logf("[CellCoords] failed: idx %d on empty grid", idx)
		return 0, 0, false
	}

	cx = idx % g.Width
	cy = idx / g.Width

	if idx < 0 || cy >= g.Height {
		monitoring.Logf("[CellCoords] failed: idx %d out of grid %d x %d", idx, g.Width, g.Height)
		return cx, cy, false
	}
	return cx, cy, true
}

// GridIndex maps a world position to a linear index.
func GridIndex(g *OccupancyGrid, x, y float64) (idx int, ok bool) {
	cx, cy, ok := GridCoords(g, x, y)
	if !ok {
		return 0, false
	}
	return CellIndex(g, cx, cy)
}

// CellIndex maps cell coordinates to a linear index.
func CellIndex(g *OccupancyGrid, cx, cy int) (idx int, ok bool) {
	if cx < 0 || cx >= g.Width || cy < 0 || cy >= g.Height {
		monitoring.Logf("[CellIndex] out of bounds: cell (%d, %d), grid %d x %d", cx, cy, g.Width, g.Height)
		return 0, false
	}
	return cx + cy*g.Width, true
}

// WorldCoords maps cell coordinates to the world position of the cell
// centre. Pure affine map, never fails, also valid outside the footprint.
func WorldCoords(g *OccupancyGrid, cx, cy int) (x, y float64) {
	x = float64(cx)*g.Resolution + g.Origin.X
	y = float64(cy)*g.Resolution + g.Origin.Y
	return x, y
}

// IndexWorldCoords maps a linear index to the world position of the cell
// centre.
func IndexWorldCoords(g *OccupancyGrid, idx int) (x, y float64, ok bool) {
	cx, cy, ok := CellCoords(g, idx)
	if !ok {
		return 0, 0, false
	}
	x, y = WorldCoords(g, cx, cy)
	return x, y, true
}
