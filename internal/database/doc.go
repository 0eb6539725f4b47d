// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── records/         # Course record storage used by import and export
//	└── audit/           # Import/export audit trail
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./course-records.db")
//
//	store := records.NewRepository(db.DB)
//	auditRepo := audit.NewRepository(db.DB)
//
// # Interface Implementations
//
//   - records.Repository: implements services.RecordStore
//   - audit.Repository: implements audit.EventStore
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Implement the required interface
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
