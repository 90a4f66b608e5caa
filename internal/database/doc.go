// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, permission seeding
//	├── categories/      # Category CRUD
//	├── books/           # Book CRUD, top-level pages, cascading delete
//	├── pages/           # Page tree writes and sibling navigation
//	├── picks/           # Per-user ranked book picks
//	├── shelves/         # Reading lists and default shelf provisioning
//	├── groups/          # Permission groups and the Publishers bootstrap
//	└── users/           # User lookups and data purge
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type wrapping a *gorm.DB:
//
//	db, err := database.NewDatabase("./app.db")
//
//	pagesRepo := pages.NewRepository(db.DB)
//	next, err := pagesRepo.NextPage(page) // nil, nil when page is last
//
// Repositories can be bound to a transaction by constructing them from the
// transaction handle:
//
//	db.DB.Transaction(func(tx *gorm.DB) error {
//		return shelves.NewRepository(tx).CreateDefaultShelves(userID)
//	})
//
// # Startup Order
//
// NewDatabase migrates and seeds the permission registry. Only after that may
// groups.Repository.EnsurePublisherGroup run, since it requires the add_book
// permission to exist.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Implement the store interface the HTTP controller declares
//  5. Add the compile-time check to internal/interfaces/checks.go
package database
