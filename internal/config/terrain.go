// Package config loads terrain accumulation settings from JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TerrainConfig is the root configuration for a terrain accumulation run.
// All fields are optional in the JSON file; the Get* methods provide
// fallback defaults for fields not specified, so partial configs are safe.
type TerrainConfig struct {
	// Grid params
	Resolution       *float64 `json:"resolution,omitempty"`         // meters per cell
	MinExpansionSize *float64 `json:"min_expansion_size,omitempty"` // meters per growth step
	Frame            *string  `json:"frame,omitempty"`              // coordinate frame name

	// Persistence params
	DBPath         *string `json:"db_path,omitempty"`
	MapID          *string `json:"map_id,omitempty"`
	SnapshotReason *string `json:"snapshot_reason,omitempty"`

	// Cell payload written for observed points (occupancy convention 0..100)
	OccupiedValue *int `json:"occupied_value,omitempty"`
}

// EmptyTerrainConfig returns a TerrainConfig with all fields unset.
func EmptyTerrainConfig() *TerrainConfig {
	return &TerrainConfig{}
}

// LoadTerrainConfig loads a TerrainConfig from a JSON file. The file must
// have a .json extension and stay under the max file size.
func LoadTerrainConfig(path string) (*TerrainConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTerrainConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that set values are usable.
func (c *TerrainConfig) Validate() error {
	if c.Resolution != nil && *c.Resolution <= 0 {
		return fmt.Errorf("resolution must be positive, got %f", *c.Resolution)
	}
	if c.MinExpansionSize != nil && *c.MinExpansionSize < 0 {
		return fmt.Errorf("min_expansion_size must be non-negative, got %f", *c.MinExpansionSize)
	}
	if c.OccupiedValue != nil && (*c.OccupiedValue < -127 || *c.OccupiedValue > 127) {
		return fmt.Errorf("occupied_value must be in [-127, 127], got %d", *c.OccupiedValue)
	}
	return nil
}

// GetResolution returns the resolution or the default.
func (c *TerrainConfig) GetResolution() float64 {
	if c.Resolution == nil {
		return 0.05 // default
	}
	return *c.Resolution
}

// GetMinExpansionSize returns the expansion floor or the default.
func (c *TerrainConfig) GetMinExpansionSize() float64 {
	if c.MinExpansionSize == nil {
		return 1.0 // default
	}
	return *c.MinExpansionSize
}

// GetFrame returns the frame name or the default.
func (c *TerrainConfig) GetFrame() string {
	if c.Frame == nil || *c.Frame == "" {
		return "map" // default
	}
	return *c.Frame
}

// GetDBPath returns the database path; empty disables persistence.
func (c *TerrainConfig) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}

// GetMapID returns the map identifier; empty lets the store mint one.
func (c *TerrainConfig) GetMapID() string {
	if c.MapID == nil {
		return ""
	}
	return *c.MapID
}

// GetSnapshotReason returns the snapshot reason or the default.
func (c *TerrainConfig) GetSnapshotReason() string {
	if c.SnapshotReason == nil || *c.SnapshotReason == "" {
		return "batch_complete" // default
	}
	return *c.SnapshotReason
}

// GetOccupiedValue returns the cell payload for observed points.
func (c *TerrainConfig) GetOccupiedValue() int8 {
	if c.OccupiedValue == nil {
		return 100 // default
	}
	return int8(*c.OccupiedValue)
}
