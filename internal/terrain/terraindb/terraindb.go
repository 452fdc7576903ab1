// Package terraindb persists terrain grid snapshots in SQLite. It implements
// terrain.GridStore.
package terraindb

import (
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/terrainmap/internal/monitoring"
	"github.com/banshee-data/terrainmap/internal/terrain"
)

type TerrainDB struct {
	*sql.DB
}

// schema.sql defines the terrain_grid_snapshot table. Kept in sync with the
// migrations under migrations/.
//
//go:embed schema.sql
var schemaSQL string

// pragmas applied to every connection.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// Open opens the database and applies pragmas, but no schema. Use this
// path together with MigrateUp for migration-managed deployments.
func Open(path string) (*TerrainDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return &TerrainDB{db}, nil
}

// New opens the database and applies the embedded schema.
func New(path string) (*TerrainDB, error) {
	tdb, err := Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := tdb.Exec(schemaSQL); err != nil {
		tdb.Close()
		return nil, fmt.Errorf("failed to initialise schema: %w", err)
	}
	monitoring.Logf("[TerrainDB] initialised terrain database schema at %s", path)
	return tdb, nil
}

// NewMapID returns a fresh identifier for an accumulated map.
func NewMapID() string {
	return uuid.New().String()
}

// InsertGridSnapshot persists a snapshot and returns the new snapshot_id.
// An empty MapID is replaced with a fresh UUID.
func (tdb *TerrainDB) InsertGridSnapshot(s *terrain.GridSnapshot) (int64, error) {
	if s == nil {
		return 0, nil
	}
	if s.MapID == "" {
		s.MapID = NewMapID()
	}

	stmt := `INSERT INTO terrain_grid_snapshot (map_id, frame_id, taken_unix_nanos, seq, resolution, width, height, origin_x, origin_y, origin_z, grid_blob, snapshot_reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tdb.Exec(stmt,
		s.MapID, s.FrameID, s.TakenUnixNanos, s.Seq, s.Resolution,
		s.Width, s.Height, s.OriginX, s.OriginY, s.OriginZ,
		s.GridBlob, s.SnapshotReason)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.SnapshotID = &id
	return id, nil
}

// GetLatestGridSnapshot returns the most recent snapshot for mapID, or
// (nil, nil) if none exists.
func (tdb *TerrainDB) GetLatestGridSnapshot(mapID string) (*terrain.GridSnapshot, error) {
	row := tdb.QueryRow(`
		SELECT snapshot_id, map_id, frame_id, taken_unix_nanos, seq, resolution,
		       width, height, origin_x, origin_y, origin_z, grid_blob, snapshot_reason
		FROM terrain_grid_snapshot
		WHERE map_id = ?
		ORDER BY taken_unix_nanos DESC, snapshot_id DESC
		LIMIT 1`, mapID)

	s, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// ListGridSnapshots returns up to limit snapshot headers for mapID, newest
// first. The grid blobs are included; use GetLatestGridSnapshot when only
// the head is needed.
func (tdb *TerrainDB) ListGridSnapshots(mapID string, limit int) ([]*terrain.GridSnapshot, error) {
	rows, err := tdb.Query(`
		SELECT snapshot_id, map_id, frame_id, taken_unix_nanos, seq, resolution,
		       width, height, origin_x, origin_y, origin_z, grid_blob, snapshot_reason
		FROM terrain_grid_snapshot
		WHERE map_id = ?
		ORDER BY taken_unix_nanos DESC, snapshot_id DESC
		LIMIT ?`, mapID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*terrain.GridSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(sc scanner) (*terrain.GridSnapshot, error) {
	var s terrain.GridSnapshot
	var id int64
	err := sc.Scan(&id, &s.MapID, &s.FrameID, &s.TakenUnixNanos, &s.Seq,
		&s.Resolution, &s.Width, &s.Height,
		&s.OriginX, &s.OriginY, &s.OriginZ,
		&s.GridBlob, &s.SnapshotReason)
	if err != nil {
		return nil, err
	}
	s.SnapshotID = &id
	return &s, nil
}

var _ terrain.GridStore = (*TerrainDB)(nil)
