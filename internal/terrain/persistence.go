package terrain

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"time"
)

// GridSnapshot matches the terrain_grid_snapshot table structure. It holds a
// compressed snapshot of the raster for persistence.
type GridSnapshot struct {
	SnapshotID     *int64 // set by the database after insert
	MapID          string // stable identifier for one accumulated map
	FrameID        string
	TakenUnixNanos int64
	Seq            uint32
	Resolution     float64
	Width          int
	Height         int
	OriginX        float64
	OriginY        float64
	OriginZ        float64
	GridBlob       []byte // compressed cell data
	SnapshotReason string // 'periodic', 'batch_complete', 'manual'
}

// GridStore is the interface required to persist grid snapshots.
// Implemented by terraindb.TerrainDB.
type GridStore interface {
	InsertGridSnapshot(s *GridSnapshot) (int64, error)
	GetLatestGridSnapshot(mapID string) (*GridSnapshot, error)
}

// SerializeCells compresses cell data using gob encoding and gzip.
func SerializeCells(cells []int8) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(cells); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeCells decompresses and decodes cell data from a gob+gzip blob.
func DeserializeCells(blob []byte) ([]int8, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty grid blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var cells []int8
	dec := gob.NewDecoder(gz)
	if err := dec.Decode(&cells); err != nil {
		return nil, fmt.Errorf("failed to decode grid cells: %w", err)
	}
	return cells, nil
}

// Persist serialises the current raster and writes a GridSnapshot via the
// provided store. A nil map, empty map or nil store is a no-op.
func (gm *GridMap) Persist(store GridStore, mapID, reason string) error {
	if gm == nil || store == nil || gm.Empty() {
		return nil
	}
	g := gm.grid

	blob, err := SerializeCells(g.Data)
	if err != nil {
		return err
	}

	snap := &GridSnapshot{
		MapID:          mapID,
		FrameID:        string(g.FrameID),
		TakenUnixNanos: time.Now().UnixNano(),
		Seq:            g.Seq,
		Resolution:     g.Resolution,
		Width:          g.Width,
		Height:         g.Height,
		OriginX:        g.Origin.X,
		OriginY:        g.Origin.Y,
		OriginZ:        g.Origin.Z,
		GridBlob:       blob,
		SnapshotReason: reason,
	}

	_, err = store.InsertGridSnapshot(snap)
	return err
}

// RestoreGridMap loads the latest persisted snapshot for mapID and rebuilds
// a GridMap from it. The rebuilt map carries the snapshot-import semantics
// of NewGridMapFromGrid, including its origin-only observed bounds.
func RestoreGridMap(store GridStore, mapID string, minExpansionSize float64) (*GridMap, error) {
	if store == nil {
		return nil, fmt.Errorf("nil store")
	}
	snap, err := store.GetLatestGridSnapshot(mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for map %q: %w", mapID, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("no snapshot found for map %q", mapID)
	}

	cells, err := DeserializeCells(snap.GridBlob)
	if err != nil {
		return nil, err
	}
	if len(cells) != snap.Width*snap.Height {
		return nil, fmt.Errorf("snapshot cell count %d does not match %d x %d", len(cells), snap.Width, snap.Height)
	}

	grid := &OccupancyGrid{
		FrameID:    FrameID(snap.FrameID),
		Seq:        snap.Seq,
		Resolution: snap.Resolution,
		Width:      snap.Width,
		Height:     snap.Height,
		Origin:     Vec3{X: snap.OriginX, Y: snap.OriginY, Z: snap.OriginZ},
		Data:       cells,
	}
	return NewGridMapFromGrid(grid, minExpansionSize)
}
