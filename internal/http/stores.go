package http

import (
	"github.com/sudarmaa/sudarmaa/internal/auth"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

// Each controller defines the store interface it needs in its own file. This
// file holds the small interfaces shared between controllers.

// BookGetter provides read access to books.
type BookGetter interface {
	GetBookByID(id uint) (*entities.Book, error)
}

// PermissionChecker answers permission questions; auth.Service implements it
// and grants everything to admins.
type PermissionChecker = auth.PermissionChecker

// --- Interface Documentation ---
//
// CategoryStore (categories.go): category CRUD, implemented by database/categories.
// BookStore (books.go):          book CRUD, search, icon path, top pages; database/books.
// IconStore (books.go):          icon files on disk; media.Store.
// PageStore (pages.go):          page tree writes and sibling navigation; database/pages.
// ShelfStore (shelves.go):       user shelves and their books; database/shelves.
// PickStore (picks.go):          a user's ordered picks; database/picks.
// GroupStore (groups.go):        Publishers membership; database/groups.
// UserStore / AccountService (users.go): database/users and auth.Service.
// TaskQueue (tasks.go):          tasks.Client.
