package terrain

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/terrainmap/internal/monitoring"
)

// ImportPointsFromASC reads a CloudCompare-compatible .asc point cloud:
// whitespace-separated "X Y Z [extra...]" rows, '#' comment lines skipped.
// Extra columns beyond Z are ignored.
func ImportPointsFromASC(path string) ([]Point, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var points []Point
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 3 {
			return nil, fmt.Errorf("%s:%d: expected at least 3 columns, got %d", path, line, len(fields))
		}
		var p Point
		if p.X, err = strconv.ParseFloat(fields[0], 64); err != nil {
			return nil, fmt.Errorf("%s:%d: bad x %q: %w", path, line, fields[0], err)
		}
		if p.Y, err = strconv.ParseFloat(fields[1], 64); err != nil {
			return nil, fmt.Errorf("%s:%d: bad y %q: %w", path, line, fields[1], err)
		}
		if p.Z, err = strconv.ParseFloat(fields[2], 64); err != nil {
			return nil, fmt.Errorf("%s:%d: bad z %q: %w", path, line, fields[2], err)
		}
		points = append(points, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// ExportGridToASC writes every known cell of the grid as an "X Y Z Value"
// row to a CloudCompare-compatible .asc file. Unknown cells are skipped.
// Z is the grid's origin height (the raster carries no per-cell elevation).
func ExportGridToASC(g *OccupancyGrid, path string) error {
	if g == nil || len(g.Data) == 0 {
		return fmt.Errorf("no cells to export")
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# Exported occupancy grid cells\n")
	fmt.Fprintf(w, "# Format: X Y Z Value\n")

	exported := 0
	for idx, v := range g.Data {
		if v == CellUnknown {
			continue
		}
		x, y, ok := IndexWorldCoords(g, idx)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%.6f %.6f %.6f %d\n", x, y, g.Origin.Z, v)
		exported++
	}
	if err := w.Flush(); err != nil {
		return err
	}
	monitoring.Logf("[ExportGridToASC] exported %d cells to %s", exported, path)
	return nil
}
