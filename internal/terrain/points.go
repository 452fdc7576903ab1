package terrain

import "math"

// Point is a single cartesian observation (world frame, meters).
type Point struct {
	X, Y, Z float64
}

// CloudBounds scans a point cloud once and returns its componentwise
// axis-aligned bounding box. An empty cloud yields the sentinel pair
// (+Inf, -Inf); callers must not feed that into Resize directly (use
// ResizeToCloud, which guards against it).
func CloudBounds(points []Point) (min, max Vec3) {
	min = Vec3{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = Vec3{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}

	for _, p := range points {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		min.Z = math.Min(min.Z, p.Z)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
		max.Z = math.Max(max.Z, p.Z)
	}
	return min, max
}

// floorTo rounds v down to a multiple of res.
func floorTo(v, res float64) float64 { return math.Floor(v/res) * res }

// ceilTo rounds v up to a multiple of res.
func ceilTo(v, res float64) float64 { return math.Ceil(v/res) * res }
