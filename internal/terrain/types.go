package terrain

import "math"

// FrameID is a human-readable coordinate frame name like "map" or "site/main-st-001".
type FrameID string

// Vec3 is a cartesian vector in world coordinates (meters).
type Vec3 struct {
	X, Y, Z float64
}

// CellUnknown marks a cell that has never been observed. Freshly allocated
// cells hold this sentinel.
const CellUnknown int8 = math.MinInt8

// OccupancyGrid is the raster snapshot: header, geometry metadata and the
// row-major cell payload. Cell (cx, cy) lives at Data[cx + cy*Width] and
// covers the world square centred on Origin + (cx, cy)*Resolution.
type OccupancyGrid struct {
	FrameID    FrameID
	Seq        uint32
	Resolution float64 // meters per cell edge, uniform in x and y
	Width      int
	Height     int
	Origin     Vec3 // world position of cell (0, 0)
	Data       []int8
}

// Idx returns the linear index for cell coordinates (cx, cy). No bound check;
// use CellIndex for validated access.
func (g *OccupancyGrid) Idx(cx, cy int) int { return cx + cy*g.Width }

// Clone returns a deep copy of the grid.
func (g *OccupancyGrid) Clone() *OccupancyGrid {
	if g == nil {
		return nil
	}
	out := *g
	out.Data = make([]int8, len(g.Data))
	copy(out.Data, g.Data)
	return &out
}
