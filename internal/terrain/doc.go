// Package terrain owns the dense 2-D occupancy raster used to accumulate
// terrain observations.
//
// Responsibilities: growable grid storage (GridMap), world/grid/index
// coordinate mapping, point-cloud boundary extraction, and grid snapshot
// serialisation. Key types: GridMap, OccupancyGrid, Point.
//
// Dependency rule: no SQL/database code is allowed in this package;
// persistence goes through the GridStore interface (implemented by
// terraindb.TerrainDB).
package terrain
