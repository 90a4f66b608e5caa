package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/sudarmaa/sudarmaa/internal/auth"
	"github.com/sudarmaa/sudarmaa/internal/database"
	"github.com/sudarmaa/sudarmaa/internal/database/books"
	"github.com/sudarmaa/sudarmaa/internal/database/categories"
	"github.com/sudarmaa/sudarmaa/internal/database/groups"
	"github.com/sudarmaa/sudarmaa/internal/database/pages"
	"github.com/sudarmaa/sudarmaa/internal/database/picks"
	"github.com/sudarmaa/sudarmaa/internal/database/shelves"
	"github.com/sudarmaa/sudarmaa/internal/database/users"
	"github.com/sudarmaa/sudarmaa/internal/http"
	"github.com/sudarmaa/sudarmaa/internal/media"
	"github.com/sudarmaa/sudarmaa/internal/scheduler"
	"github.com/sudarmaa/sudarmaa/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.CategoryStore = (*categories.Repository)(nil)
var _ http.BookStore = (*books.Repository)(nil)
var _ http.BookGetter = (*books.Repository)(nil)
var _ http.PageStore = (*pages.Repository)(nil)
var _ http.ShelfStore = (*shelves.Repository)(nil)
var _ http.PickStore = (*picks.Repository)(nil)
var _ http.GroupStore = (*groups.Repository)(nil)
var _ http.UserStore = (*users.Repository)(nil)
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Accounts and Permissions
// =============================================================================

var _ http.AccountService = (*auth.Service)(nil)
var _ http.PermissionChecker = (*auth.Service)(nil)
var _ auth.PermissionChecker = (*groups.Repository)(nil)

// =============================================================================
// Media and Background Work
// =============================================================================

var _ http.IconStore = (*media.Store)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ tasks.PageMaintainer = (*pages.Repository)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
