package terrain

import (
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/terrainmap/internal/monitoring"
)

// GridMap owns a dense occupancy raster that grows on demand to cover new
// observations. Growth preserves already written cells at their world
// position and the resolution is fixed for the lifetime of the map.
//
// GridMap is not safe for concurrent use. Resize replaces the backing
// buffer, so cell pointers obtained from At and the grid borrowed from Grid
// are only valid until the next Resize or Clear.
type GridMap struct {
	grid *OccupancyGrid

	// Observed bounds: the world-space box the map has been asked to cover
	// via Resize. Distinct from the allocated footprint, which is
	// resolution-aligned and may be larger due to the expansion floor.
	min Vec3
	max Vec3

	// Minimum single-sided growth in meters, aligned to a multiple of the
	// resolution so growth never shifts existing data by a fractional cell.
	minExpansion float64
}

// NewGridMap creates an empty map. minExpansionSize is rounded up to the
// next multiple of resolution; it amortises reallocation cost on small
// repeated growth requests.
func NewGridMap(frameID string, resolution, minExpansionSize float64) (*GridMap, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("grid resolution must be positive, got %f", resolution)
	}

	gm := &GridMap{
		grid: &OccupancyGrid{
			FrameID:    FrameID(strings.TrimLeft(frameID, "/")),
			Resolution: resolution,
		},
		minExpansion: ceilTo(minExpansionSize, resolution),
	}
	gm.Clear()
	return gm, nil
}

// NewGridMapFromGrid adopts an existing raster snapshot: resolution, origin,
// dimensions and data are taken verbatim (the data is copied, not aliased).
//
// The observed bounds are seeded from the snapshot's origin point only, not
// from its full footprint. A freshly imported map therefore reports almost
// no observed area and the next Resize reallocates even for points the
// footprint already covers. Downstream consumers rely on that extra
// allocation being harmless, so it is kept as is.
func NewGridMapFromGrid(grid *OccupancyGrid, minExpansionSize float64) (*GridMap, error) {
	if grid == nil {
		return nil, fmt.Errorf("nil grid")
	}
	if grid.Resolution <= 0 {
		return nil, fmt.Errorf("grid resolution must be positive, got %f", grid.Resolution)
	}
	if len(grid.Data) != grid.Width*grid.Height {
		return nil, fmt.Errorf("grid data length %d does not match %d x %d", len(grid.Data), grid.Width, grid.Height)
	}

	gm := &GridMap{
		grid:         &OccupancyGrid{},
		minExpansion: ceilTo(minExpansionSize, grid.Resolution),
	}
	gm.Clear()

	gm.grid = grid.Clone()
	gm.min = grid.Origin
	gm.max = grid.Origin
	return gm, nil
}

// Clear drops the cell storage and resets the observed bounds to their
// sentinel values (+Inf/-Inf), so the first observation redefines them.
// Resolution, frame and the expansion floor are kept.
func (gm *GridMap) Clear() {
	gm.grid.Data = nil
	gm.grid.Width = 0
	gm.grid.Height = 0
	gm.grid.Seq = 0

	gm.min = Vec3{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	gm.max = Vec3{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
}

// Empty reports whether the map holds no cells.
func (gm *GridMap) Empty() bool {
	return len(gm.grid.Data) == 0
}

// At returns a mutable pointer to the cell at the given linear index. The
// index must have been validated via GridIndex/CellIndex first; an
// out-of-range index is a contract violation and panics. The pointer is
// invalidated by the next Resize or Clear.
func (gm *GridMap) At(idx int) *int8 {
	return &gm.grid.Data[idx]
}

// Min returns the observed lower bound.
func (gm *GridMap) Min() Vec3 { return gm.min }

// Max returns the observed upper bound.
func (gm *GridMap) Max() Vec3 { return gm.max }

// Grid borrows the current raster. The returned grid is owned by the map
// and is replaced wholesale by Resize; callers must not retain it across a
// resize boundary. Use ToGrid for a stable copy.
func (gm *GridMap) Grid() *OccupancyGrid { return gm.grid }

// ToGrid exports a deep copy of the current raster state.
func (gm *GridMap) ToGrid() *OccupancyGrid { return gm.grid.Clone() }

// ResizeToCloud grows the map to cover the bounding box of the given cloud.
// An empty cloud is a no-op.
func (gm *GridMap) ResizeToCloud(points []Point) {
	if len(points) == 0 {
		return
	}
	min, max := CloudBounds(points)
	gm.Resize(min, max)
}

// Resize grows the map so its footprint covers the box [min, max].
// Enlargement only: a request already inside the observed bounds is a
// no-op, and the footprint never shrinks. Existing cell values stay
// addressable at the same world position afterwards (their linear index
// may change).
func (gm *GridMap) Resize(min, max Vec3) {
	if min.X >= gm.min.X && min.Y >= gm.min.Y && max.X <= gm.max.X && max.Y <= gm.max.Y {
		return
	}

	res := gm.grid.Resolution
	if len(gm.grid.Data) == 0 {
		// First allocation: align the requested box outward to whole cells.
		// The expansion floor is not applied here.
		gm.min.X = floorTo(min.X, res)
		gm.min.Y = floorTo(min.Y, res)
		gm.max.X = ceilTo(max.X, res)
		gm.max.Y = ceilTo(max.Y, res)
	} else {
		// Grow each exceeded side by at least the expansion floor, always
		// a multiple of the resolution so existing data never shears.
		if gm.min.X > min.X {
			gm.min.X -= math.Max(ceilTo(gm.min.X-min.X, res), gm.minExpansion)
		}
		if gm.min.Y > min.Y {
			gm.min.Y -= math.Max(ceilTo(gm.min.Y-min.Y, res), gm.minExpansion)
		}
		if gm.max.X < max.X {
			gm.max.X += math.Max(ceilTo(max.X-gm.max.X, res), gm.minExpansion)
		}
		if gm.max.Y < max.Y {
			gm.max.Y += math.Max(ceilTo(max.Y-gm.max.Y, res), gm.minExpansion)
		}
	}

	// Double buffering: build the replacement raster, copy the old data
	// into it, then swap. The old buffer is dropped after the swap.
	old := gm.grid
	next := &OccupancyGrid{
		FrameID:    old.FrameID,
		Seq:        old.Seq + 1,
		Resolution: res,
		// +1 because world-to-cell mapping rounds to nearest: the far edge
		// of the box still needs a cell of its own.
		Width:  int(math.Ceil((gm.max.X-gm.min.X)/res)) + 1,
		Height: int(math.Ceil((gm.max.Y-gm.min.Y)/res)) + 1,
		Origin: Vec3{X: gm.min.X, Y: gm.min.Y, Z: old.Origin.Z},
	}
	next.Data = make([]int8, next.Width*next.Height)
	for i := range next.Data {
		next.Data[i] = CellUnknown
	}

	if len(old.Data) > 0 {
		gm.copyCells(old, next)
	}
	gm.grid = next
}

// copyCells moves the old raster row by row into the new one at the offset
// of the old origin. The new box normally contains the old footprint
// (growth is enlargement-only), so the remap cannot fail; the one exception
// is a map imported via NewGridMapFromGrid whose first growth box was
// seeded from the origin only. Rather than corrupt memory, cells that do
// not fit are dropped with a diagnostic.
func (gm *GridMap) copyCells(old, next *OccupancyGrid) {
	newIdx, ok := GridIndex(next, old.Origin.X, old.Origin.Y)
	if !ok {
		monitoring.Logf("[GridMap] resize: old origin (%f, %f) not in new grid %d x %d; previous cells dropped",
			old.Origin.X, old.Origin.Y, next.Width, next.Height)
		return
	}
	if newIdx%next.Width+old.Width > next.Width || newIdx/next.Width+old.Height > next.Height {
		monitoring.Logf("[GridMap] resize: old footprint %d x %d exceeds new grid %d x %d; previous cells dropped",
			old.Width, old.Height, next.Width, next.Height)
		return
	}

	oldIdx := 0
	for row := 0; row < old.Height; row++ {
		copy(next.Data[newIdx:newIdx+old.Width], old.Data[oldIdx:oldIdx+old.Width])
		oldIdx += old.Width
		newIdx += next.Width
	}
}
