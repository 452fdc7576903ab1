// Package monitor renders terrain grid state for debugging runs.
package monitor

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/terrainmap/internal/terrain"
)

// occupancyXYZ adapts an OccupancyGrid to plotter.GridXYZ. Unknown cells
// become NaN so they are left out of the heatmap.
type occupancyXYZ struct {
	g *terrain.OccupancyGrid
}

func (o occupancyXYZ) Dims() (c, r int) { return o.g.Width, o.g.Height }

func (o occupancyXYZ) Z(c, r int) float64 {
	v := o.g.Data[o.g.Idx(c, r)]
	if v == terrain.CellUnknown {
		return math.NaN()
	}
	return float64(v)
}

func (o occupancyXYZ) X(c int) float64 {
	x, _ := terrain.WorldCoords(o.g, c, 0)
	return x
}

func (o occupancyXYZ) Y(r int) float64 {
	_, y := terrain.WorldCoords(o.g, 0, r)
	return y
}

// PlotOccupancy renders the grid as a heatmap PNG at outPath. Axes are in
// world coordinates (meters).
func PlotOccupancy(g *terrain.OccupancyGrid, title, outPath string) error {
	if g == nil || len(g.Data) == 0 {
		return fmt.Errorf("no cells to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	hm := plotter.NewHeatMap(occupancyXYZ{g: g}, palette.Heat(256, 1))
	p.Add(hm)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, outPath); err != nil {
		return fmt.Errorf("failed to save heatmap: %w", err)
	}
	return nil
}
