// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite or postgres), migrations
//	├── readinglogs/     # Reading log rows: per user, date range, book
//	├── progress/        # Per-(user, book) completion aggregates
//	├── users/           # Accounts and the default single-user reader
//	├── preferences/     # Per-user key/value preferences
//	├── deliveries/      # Sent scheduled emails, for idempotent batches
//	└── dbtest/          # Throwaway migrated databases for tests
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./app.db")
//
//	logs := readinglogs.NewRepository(db.DB)
//	rows, err := logs.InDateRange(userID, "2024-01-01", "2024-01-07")
//
// # Errors
//
// Connections are opened with gorm error translation enabled, so unique
// constraint failures surface as gorm.ErrDuplicatedKey. IsUniqueViolation also
// recognises the raw driver messages.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Register the entity in Models
//  5. Add compile-time interface check in internal/interfaces
package database
