package terrain

import (
	"math"
	"strings"
	"testing"

	"github.com/banshee-data/terrainmap/internal/monitoring"
)

// helper to create a small map for tests. Resolution and expansion floor are
// binary-exact so width/height expectations are stable.
func makeTestMap(t *testing.T, resolution, minExpansion float64) *GridMap {
	t.Helper()
	gm, err := NewGridMap("map", resolution, minExpansion)
	if err != nil {
		t.Fatalf("NewGridMap: %v", err)
	}
	return gm
}

func TestNewGridMapRejectsBadResolution(t *testing.T) {
	for _, res := range []float64{0, -0.5} {
		if _, err := NewGridMap("map", res, 1.0); err == nil {
			t.Errorf("expected error for resolution %f", res)
		}
	}
}

func TestNewGridMapAlignsExpansionFloor(t *testing.T) {
	gm := makeTestMap(t, 0.5, 1.2)
	// 1.2 rounds up to the next multiple of 0.5
	if gm.minExpansion != 1.5 {
		t.Fatalf("expected expansion floor 1.5, got %f", gm.minExpansion)
	}
}

func TestNewGridMapStripsFrameSeparators(t *testing.T) {
	gm, err := NewGridMap("/site/main", 0.5, 1.0)
	if err != nil {
		t.Fatalf("NewGridMap: %v", err)
	}
	if gm.Grid().FrameID != "site/main" {
		t.Fatalf("expected frame 'site/main', got %q", gm.Grid().FrameID)
	}
}

func TestClearAndEmpty(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)
	if !gm.Empty() {
		t.Fatal("fresh map should be empty")
	}

	gm.Resize(Vec3{X: 0.3, Y: 0.3}, Vec3{X: 0.3, Y: 0.3})
	if gm.Empty() {
		t.Fatal("map should not be empty after resize")
	}

	gm.Clear()
	if !gm.Empty() {
		t.Fatal("map should be empty after clear")
	}
	if gm.Grid().Seq != 0 {
		t.Fatalf("expected seq 0 after clear, got %d", gm.Grid().Seq)
	}
	if !math.IsInf(gm.Min().X, 1) || !math.IsInf(gm.Max().X, -1) {
		t.Fatalf("expected sentinel bounds after clear, got min=%v max=%v", gm.Min(), gm.Max())
	}
}

func TestFirstResizeAlignsWithoutFloor(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)
	gm.Resize(Vec3{X: 0.3, Y: 0.3}, Vec3{X: 0.3, Y: 0.3})

	g := gm.Grid()
	// first allocation aligns the box outward to whole cells; the expansion
	// floor is not applied
	if g.Origin.X != 0 || g.Origin.Y != 0 {
		t.Fatalf("expected origin (0, 0), got (%f, %f)", g.Origin.X, g.Origin.Y)
	}
	if gm.Min().X != 0 || gm.Max().X != 0.5 {
		t.Fatalf("expected observed x bounds [0, 0.5], got [%f, %f]", gm.Min().X, gm.Max().X)
	}
	if g.Width != 2 || g.Height != 2 {
		t.Fatalf("expected 2 x 2 grid, got %d x %d", g.Width, g.Height)
	}
	if len(g.Data) != g.Width*g.Height {
		t.Fatalf("data length %d does not match %d x %d", len(g.Data), g.Width, g.Height)
	}
	for i, v := range g.Data {
		if v != CellUnknown {
			t.Fatalf("cell %d not initialised to sentinel: %d", i, v)
		}
	}
}

func TestResizeNoOpInsideObservedBounds(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)
	gm.Resize(Vec3{}, Vec3{X: 3.0, Y: 3.0})

	before := gm.Grid()
	seq := before.Seq
	gm.Resize(Vec3{X: 1.0, Y: 1.0}, Vec3{X: 2.0, Y: 2.0})

	if gm.Grid() != before {
		t.Fatal("resize inside observed bounds must not reallocate")
	}
	if gm.Grid().Seq != seq {
		t.Fatal("resize inside observed bounds must not bump seq")
	}
}

func TestResizeIsIdempotent(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)
	min, max := Vec3{X: -1.0, Y: -1.0}, Vec3{X: 1.0, Y: 1.0}

	gm.Resize(min, max)
	g1 := gm.ToGrid()
	gm.Resize(min, max)
	g2 := gm.Grid()

	if g1.Width != g2.Width || g1.Height != g2.Height || g1.Origin != g2.Origin {
		t.Fatalf("second identical resize changed the grid: %dx%d %v vs %dx%d %v",
			g1.Width, g1.Height, g1.Origin, g2.Width, g2.Height, g2.Origin)
	}
}

func TestResizeGrowsByAtLeastFloor(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)
	gm.Resize(Vec3{X: 0.3, Y: 0.3}, Vec3{X: 0.3, Y: 0.3})
	maxBefore := gm.Max()

	// overshoot only 0.1 past the observed bound: growth is clamped up to
	// the expansion floor
	gm.Resize(Vec3{X: 0.6, Y: 0.3}, Vec3{X: 0.6, Y: 0.3})

	growth := gm.Max().X - maxBefore.X
	if growth != 2.0 {
		t.Fatalf("expected growth 2.0 (expansion floor), got %f", growth)
	}
	// growth is an exact multiple of the resolution
	cells := growth / 0.5
	if cells != math.Trunc(cells) {
		t.Fatalf("growth %f is not a whole number of cells", growth)
	}
}

func TestResizeGrowsBeyondFloorForLargeOvershoot(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)
	gm.Resize(Vec3{X: 0.3, Y: 0.3}, Vec3{X: 0.3, Y: 0.3})

	// overshoot 2.5 past max.x=0.5: growth is ceil(2.5, 0.5) = 2.5 > floor
	gm.Resize(Vec3{X: 3.0, Y: 0.3}, Vec3{X: 3.0, Y: 0.3})

	if gm.Max().X != 3.0 {
		t.Fatalf("expected observed max.x 3.0, got %f", gm.Max().X)
	}
	g := gm.Grid()
	if g.Width != 7 || g.Height != 2 {
		t.Fatalf("expected 7 x 2 grid, got %d x %d", g.Width, g.Height)
	}
}

func TestResizeIsMonotonic(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)

	requests := []struct{ min, max Vec3 }{
		{Vec3{X: 0, Y: 0}, Vec3{X: 1, Y: 1}},
		{Vec3{X: 0.2, Y: 0.2}, Vec3{X: 0.4, Y: 0.4}}, // inside: no-op
		{Vec3{X: -3, Y: 0}, Vec3{X: 0.5, Y: 0.5}},
		{Vec3{X: 0, Y: -1}, Vec3{X: 4, Y: 2}},
	}

	prevW, prevH := 0, 0
	prevMin, prevMax := gm.Min(), gm.Max()
	for i, req := range requests {
		gm.Resize(req.min, req.max)
		g := gm.Grid()
		if g.Width < prevW || g.Height < prevH {
			t.Fatalf("request %d shrank the grid: %dx%d -> %dx%d", i, prevW, prevH, g.Width, g.Height)
		}
		if i > 0 && (gm.Min().X > prevMin.X || gm.Min().Y > prevMin.Y ||
			gm.Max().X < prevMax.X || gm.Max().Y < prevMax.Y) {
			t.Fatalf("request %d shrank the observed bounds", i)
		}
		prevW, prevH = g.Width, g.Height
		prevMin, prevMax = gm.Min(), gm.Max()
	}
}

func TestResizePreservesDataAtWorldPosition(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)
	gm.Resize(Vec3{X: 0, Y: 0}, Vec3{X: 1, Y: 1})

	// write a marker at a known world coordinate
	idx, ok := GridIndex(gm.Grid(), 0.5, 0.5)
	if !ok {
		t.Fatal("marker coordinate should be inside the grid")
	}
	*gm.At(idx) = 42

	// grow on the max side
	gm.Resize(Vec3{X: 0, Y: 0}, Vec3{X: 5, Y: 1})
	idx, ok = GridIndex(gm.Grid(), 0.5, 0.5)
	if !ok {
		t.Fatal("marker coordinate lost after max-side growth")
	}
	if got := *gm.At(idx); got != 42 {
		t.Fatalf("marker value after max-side growth: expected 42, got %d", got)
	}

	// grow on the min side, which shifts the origin and all linear indices
	gm.Resize(Vec3{X: -0.2, Y: -0.2}, Vec3{X: 0, Y: 0})
	if gm.Grid().Origin.X != -2.0 || gm.Grid().Origin.Y != -2.0 {
		t.Fatalf("expected origin (-2, -2) after min-side growth, got (%f, %f)",
			gm.Grid().Origin.X, gm.Grid().Origin.Y)
	}
	idx, ok = GridIndex(gm.Grid(), 0.5, 0.5)
	if !ok {
		t.Fatal("marker coordinate lost after min-side growth")
	}
	if got := *gm.At(idx); got != 42 {
		t.Fatalf("marker value after min-side growth: expected 42, got %d", got)
	}
}

func TestResizeCarriesOriginZ(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)
	gm.grid.Origin.Z = 1.25

	gm.Resize(Vec3{X: 0, Y: 0, Z: 3}, Vec3{X: 1, Y: 1, Z: 5})
	if gm.Grid().Origin.Z != 1.25 {
		t.Fatalf("resize must carry origin z unchanged, got %f", gm.Grid().Origin.Z)
	}
}

func TestResizeAfterClearUsesFirstAllocationPath(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)
	gm.Resize(Vec3{X: -4, Y: -4}, Vec3{X: 4, Y: 4})
	gm.Clear()

	gm.Resize(Vec3{X: 0.3, Y: 0.3}, Vec3{X: 0.3, Y: 0.3})
	g := gm.Grid()
	if g.Width != 2 || g.Height != 2 {
		t.Fatalf("resize after clear should behave as first allocation, got %d x %d", g.Width, g.Height)
	}
	if gm.Max().X != 0.5 {
		t.Fatalf("expected observed max.x 0.5 (no expansion floor), got %f", gm.Max().X)
	}
}

func TestResizeToCloudEmptyIsNoOp(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)
	gm.ResizeToCloud(nil)
	if !gm.Empty() {
		t.Fatal("empty cloud must not allocate")
	}

	gm.Resize(Vec3{X: 0, Y: 0}, Vec3{X: 1, Y: 1})
	before := gm.Grid()
	gm.ResizeToCloud([]Point{})
	if gm.Grid() != before {
		t.Fatal("empty cloud must not reallocate")
	}
}

func TestResizeToCloudCoversAllPoints(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)
	cloud := []Point{
		{X: -1.2, Y: 0.3, Z: 0.1},
		{X: 2.7, Y: -0.8, Z: 0.4},
		{X: 0.0, Y: 1.9, Z: -0.2},
	}
	gm.ResizeToCloud(cloud)

	for i, p := range cloud {
		if _, ok := GridIndex(gm.Grid(), p.X, p.Y); !ok {
			t.Fatalf("point %d (%f, %f) not covered after ResizeToCloud", i, p.X, p.Y)
		}
	}
}

// The no-op check gates on observed bounds, not on the allocated footprint.
// A request inside the footprint but outside the observed bounds still
// reallocates.
func TestResizeGatesOnObservedBoundsNotFootprint(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)
	gm.Resize(Vec3{X: 0.3, Y: 0.3}, Vec3{X: 0.3, Y: 0.3})

	// (0.6, 0.3) is mappable in the current 2x2 footprint...
	if _, ok := GridIndex(gm.Grid(), 0.6, 0.3); !ok {
		t.Fatal("test setup: point should be inside the allocated footprint")
	}
	// ...but exceeds the observed max.x of 0.5, so resize reallocates
	before := gm.Grid()
	gm.Resize(Vec3{X: 0.6, Y: 0.3}, Vec3{X: 0.6, Y: 0.3})
	if gm.Grid() == before {
		t.Fatal("request beyond observed bounds must reallocate even inside the footprint")
	}
	if gm.Max().X != 2.5 {
		t.Fatalf("expected observed max.x 2.5 after floor growth, got %f", gm.Max().X)
	}
}

func TestFromGridAdoptsSnapshotVerbatim(t *testing.T) {
	src := &OccupancyGrid{
		FrameID:    "site/main",
		Seq:        7,
		Resolution: 0.5,
		Width:      5,
		Height:     5,
		Origin:     Vec3{X: 1.0, Y: -1.0, Z: 0.25},
		Data:       make([]int8, 25),
	}
	for i := range src.Data {
		src.Data[i] = 9
	}

	gm, err := NewGridMapFromGrid(src, 2.0)
	if err != nil {
		t.Fatalf("NewGridMapFromGrid: %v", err)
	}

	g := gm.Grid()
	if g.Width != 5 || g.Height != 5 || g.Origin != src.Origin || g.Resolution != 0.5 {
		t.Fatalf("snapshot metadata not adopted verbatim: %+v", g)
	}
	if g.Data[12] != 9 {
		t.Fatalf("snapshot data not adopted, got %d", g.Data[12])
	}

	// imported data is copied, not aliased
	src.Data[12] = 1
	if g.Data[12] != 9 {
		t.Fatal("adopted grid must not alias the source data")
	}
}

// Importing a snapshot seeds the observed bounds from the origin point only,
// not from the full footprint. The very next resize therefore reallocates
// even for points the footprint already covers.
func TestFromGridSeedsBoundsFromOriginOnly(t *testing.T) {
	src := &OccupancyGrid{
		FrameID:    "map",
		Resolution: 0.5,
		Width:      5,
		Height:     5,
		Origin:     Vec3{},
		Data:       make([]int8, 25),
	}
	for i := range src.Data {
		src.Data[i] = 7
	}

	gm, err := NewGridMapFromGrid(src, 2.0)
	if err != nil {
		t.Fatalf("NewGridMapFromGrid: %v", err)
	}
	if gm.Min() != src.Origin || gm.Max() != src.Origin {
		t.Fatalf("expected bounds seeded to origin only, got min=%v max=%v", gm.Min(), gm.Max())
	}

	// (1.0, 1.0) is well inside the 5x5 footprint, yet outside the seeded
	// observed bounds: resize reallocates needlessly
	before := gm.Grid()
	gm.Resize(Vec3{X: 1.0, Y: 1.0}, Vec3{X: 1.0, Y: 1.0})
	if gm.Grid() == before {
		t.Fatal("expected reallocation for a point the footprint already covers")
	}

	// the floor-sized growth box still contains the old footprint, so the
	// data survives the needless reallocation
	idx, ok := GridIndex(gm.Grid(), 1.0, 1.0)
	if !ok {
		t.Fatal("point lost after reallocation")
	}
	if got := *gm.At(idx); got != 7 {
		t.Fatalf("expected adopted cell value 7 at (1, 1), got %d", got)
	}
}

// With a small expansion floor the origin-only bounds seeding can produce a
// growth box smaller than the adopted footprint. The copy must not corrupt
// memory; cells that do not fit are dropped with a diagnostic.
func TestFromGridShrinkingGrowthBoxDropsCellsSafely(t *testing.T) {
	src := &OccupancyGrid{
		FrameID:    "map",
		Resolution: 0.5,
		Width:      5,
		Height:     5,
		Origin:     Vec3{},
		Data:       make([]int8, 25),
	}

	gm, err := NewGridMapFromGrid(src, 0)
	if err != nil {
		t.Fatalf("NewGridMapFromGrid: %v", err)
	}

	var lines []string
	defer monitoring.Capture(&lines)()

	gm.Resize(Vec3{X: 1.0, Y: 1.0}, Vec3{X: 1.0, Y: 1.0})

	g := gm.Grid()
	if g.Width != 3 || g.Height != 3 {
		t.Fatalf("expected 3 x 3 grid, got %d x %d", g.Width, g.Height)
	}
	found := false
	for _, l := range lines {
		if strings.Contains(l, "dropped") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a dropped-cells diagnostic, got %v", lines)
	}
}

func TestFromGridRejectsBadSnapshots(t *testing.T) {
	if _, err := NewGridMapFromGrid(nil, 1.0); err == nil {
		t.Error("expected error for nil grid")
	}
	if _, err := NewGridMapFromGrid(&OccupancyGrid{Resolution: 0}, 1.0); err == nil {
		t.Error("expected error for zero resolution")
	}
	bad := &OccupancyGrid{Resolution: 0.5, Width: 2, Height: 2, Data: make([]int8, 3)}
	if _, err := NewGridMapFromGrid(bad, 1.0); err == nil {
		t.Error("expected error for mismatched data length")
	}
}

func TestAtReturnsMutableCell(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)
	gm.Resize(Vec3{}, Vec3{X: 1, Y: 1})

	idx, ok := GridIndex(gm.Grid(), 0.5, 0.5)
	if !ok {
		t.Fatal("index should be valid")
	}
	*gm.At(idx) = 55
	if gm.Grid().Data[idx] != 55 {
		t.Fatal("At must return a mutable pointer into the cell storage")
	}
}

func TestAtPanicsOutOfRange(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)
	gm.Resize(Vec3{}, Vec3{X: 1, Y: 1})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range index")
		}
	}()
	_ = gm.At(len(gm.Grid().Data))
}

func TestResizeBumpsSeq(t *testing.T) {
	gm := makeTestMap(t, 0.5, 2.0)
	gm.Resize(Vec3{}, Vec3{X: 1, Y: 1})
	if gm.Grid().Seq != 1 {
		t.Fatalf("expected seq 1 after first resize, got %d", gm.Grid().Seq)
	}
	gm.Resize(Vec3{}, Vec3{X: 5, Y: 5})
	if gm.Grid().Seq != 2 {
		t.Fatalf("expected seq 2 after second resize, got %d", gm.Grid().Seq)
	}
}
