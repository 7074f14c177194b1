// Package core defines the shared types of the movierank table engine.
//
// This package contains:
//   - Adapter configuration (AdapterConfig)
//   - Table metadata (Column, TableMetadata)
//   - CSV ingest options (CSVOptions)
//
// pkg/core imports only the standard library.
// All other packages depend on core, not the reverse.
package core
