// terrainmap accumulates point-cloud observations into a growable 2-D
// occupancy grid, optionally persisting snapshots to SQLite and rendering
// heatmaps for inspection.
//
// Usage:
//
//	terrainmap [flags] cloud1.asc [cloud2.asc ...]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/terrainmap/internal/config"
	"github.com/banshee-data/terrainmap/internal/terrain"
	"github.com/banshee-data/terrainmap/internal/terrain/monitor"
	"github.com/banshee-data/terrainmap/internal/terrain/terraindb"
	"github.com/banshee-data/terrainmap/internal/version"
)

var (
	showVersion = flag.Bool("version", false, "Print version and exit")
	configPath  = flag.String("config", "", "Path to terrain config JSON (optional)")
	dbPath      = flag.String("db", "", "SQLite database for snapshot persistence (overrides config)")
	mapID       = flag.String("map-id", "", "Map identifier to persist/restore under (empty: new map)")
	restore     = flag.Bool("restore", false, "Restore the latest snapshot for -map-id before accumulating")
	outASC      = flag.String("out-asc", "", "Export known cells to this .asc file after accumulating")
	heatmap     = flag.String("heatmap", "", "Render the grid to this PNG after accumulating")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("terrainmap %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := config.EmptyTerrainConfig()
	if *configPath != "" {
		loaded, err := config.LoadTerrainConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	db := cfg.GetDBPath()
	if *dbPath != "" {
		db = *dbPath
	}
	id := cfg.GetMapID()
	if *mapID != "" {
		id = *mapID
	}

	if err := run(cfg, db, id, flag.Args()); err != nil {
		log.Fatalf("terrainmap: %v", err)
	}
}

func run(cfg *config.TerrainConfig, dbPath, mapID string, cloudFiles []string) error {
	var store *terraindb.TerrainDB
	if dbPath != "" {
		var err error
		store, err = terraindb.New(dbPath)
		if err != nil {
			return fmt.Errorf("open terrain db: %w", err)
		}
		defer store.Close()
	}

	gm, err := buildGridMap(cfg, store, mapID)
	if err != nil {
		return err
	}

	for _, path := range cloudFiles {
		points, err := terrain.ImportPointsFromASC(path)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		written := markCloud(gm, points, cfg.GetOccupiedValue())
		log.Printf("accumulated %s: %d points, %d cells written, grid %d x %d",
			path, len(points), written, gm.Grid().Width, gm.Grid().Height)
	}

	if gm.Empty() {
		log.Printf("no observations accumulated; nothing to persist or export")
		return nil
	}

	stats := monitor.Stats(gm.Grid())
	log.Printf("grid stats: %d/%d cells known, mean=%.2f stddev=%.2f",
		stats.KnownCells, stats.TotalCells, stats.Mean, stats.StdDev)

	if store != nil {
		if mapID == "" {
			mapID = terraindb.NewMapID()
			log.Printf("minted map id %s", mapID)
		}
		if err := gm.Persist(store, mapID, cfg.GetSnapshotReason()); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
		log.Printf("persisted snapshot for map %s", mapID)
	}

	if *outASC != "" {
		if err := terrain.ExportGridToASC(gm.Grid(), *outASC); err != nil {
			return fmt.Errorf("export asc: %w", err)
		}
	}
	if *heatmap != "" {
		title := fmt.Sprintf("terrain occupancy (%s)", cfg.GetFrame())
		if err := monitor.PlotOccupancy(gm.Grid(), title, *heatmap); err != nil {
			return fmt.Errorf("render heatmap: %w", err)
		}
		log.Printf("rendered heatmap to %s", *heatmap)
	}
	return nil
}

// buildGridMap either restores a persisted map or creates an empty one.
func buildGridMap(cfg *config.TerrainConfig, store *terraindb.TerrainDB, mapID string) (*terrain.GridMap, error) {
	if *restore {
		if store == nil || mapID == "" {
			return nil, fmt.Errorf("-restore requires -db and -map-id")
		}
		gm, err := terrain.RestoreGridMap(store, mapID, cfg.GetMinExpansionSize())
		if err != nil {
			return nil, fmt.Errorf("restore map %s: %w", mapID, err)
		}
		log.Printf("restored map %s: grid %d x %d", mapID, gm.Grid().Width, gm.Grid().Height)
		return gm, nil
	}
	return terrain.NewGridMap(cfg.GetFrame(), cfg.GetResolution(), cfg.GetMinExpansionSize())
}

// markCloud grows the map to cover the cloud and writes value into the cell
// of every point. Returns the number of cells written; points that still
// fall outside the footprint after growth are skipped (the mapper reports
// them through the diagnostic sink).
func markCloud(gm *terrain.GridMap, points []terrain.Point, value int8) int {
	gm.ResizeToCloud(points)

	written := 0
	for _, p := range points {
		idx, ok := terrain.GridIndex(gm.Grid(), p.X, p.Y)
		if !ok {
			continue
		}
		*gm.At(idx) = value
		written++
	}
	return written
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] cloud1.asc [cloud2.asc ...]\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
}
