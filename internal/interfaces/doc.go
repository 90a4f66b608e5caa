// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
// Each HTTP controller declares the store it needs next to its handlers:
//
//   - CategoryStore: category CRUD (internal/http/categories.go)
//   - BookStore, BookGetter: catalogue, search and icon paths (internal/http/books.go, stores.go)
//   - PageStore: page tree writes and sibling navigation (internal/http/pages.go)
//   - ShelfStore: user shelves and their books (internal/http/shelves.go)
//   - PickStore: a user's ordered picks (internal/http/picks.go)
//   - GroupStore: Publishers membership (internal/http/groups.go)
//   - UserStore, AccountService: user administration (internal/http/users.go)
//
// ## Authorization
//
//   - PermissionChecker: codename checks (internal/auth/middleware.go). auth.Service
//     grants every codename to admins and otherwise asks the user's groups.
//
// ## Background Work
//
//   - TaskQueue: enqueue tasks and read their status (internal/http/tasks.go)
//   - PageMaintainer: page order normalization and integrity checks (internal/tasks/page_order.go)
//   - Enqueuer: what the cron scheduler needs from the queue (internal/scheduler/integrity.go)
//
// # Adding a New Database Domain
//
// To add a new data domain (e.g., reviews):
//
//  1. Create sub-package: internal/database/reviews/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Declare the store interface in the controller file under internal/http/
//
//  4. Add compile-time check to checks.go:
//
//     var _ http.ReviewStore = (*reviews.Repository)(nil)
//
// # Adding a New Background Task
//
//  1. Define the task type with a Config() naming its queue in internal/tasks/
//
//  2. Add a processor and a New...Queue constructor
//
//  3. Register the queue in entrypoint.go and, if it can be triggered by hand,
//     add it to TasksController.RunTask
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
