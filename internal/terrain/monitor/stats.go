package monitor

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/terrainmap/internal/terrain"
)

// GridStats summarises the payload of the known cells in a grid.
type GridStats struct {
	TotalCells int
	KnownCells int
	Mean       float64 // mean of known cell values
	StdDev     float64 // sample standard deviation of known cell values
}

// Stats computes occupancy statistics over the grid. Unknown cells count
// toward TotalCells only.
func Stats(g *terrain.OccupancyGrid) GridStats {
	s := GridStats{TotalCells: len(g.Data)}

	known := make([]float64, 0, len(g.Data))
	for _, v := range g.Data {
		if v == terrain.CellUnknown {
			continue
		}
		known = append(known, float64(v))
	}
	s.KnownCells = len(known)
	if s.KnownCells > 0 {
		s.Mean, s.StdDev = stat.MeanStdDev(known, nil)
	}
	return s
}
