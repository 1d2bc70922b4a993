// Package model defines shared data types for the ingestion pipeline.
//
// Conventions:
//   - Numeric market fields: *float64, nil = explicit "unknown" (never a
//     placeholder zero)
//   - Timestamps: time.Time in UTC
//   - IDs: string for asset identifiers, uuid.UUID for run IDs
package model
