package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sudarmaa/sudarmaa/internal/auth"
	"github.com/sudarmaa/sudarmaa/internal/database/shelves"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

// ShelfStore defines database operations for user shelves.
type ShelfStore interface {
	CreateShelf(userID uint, title string, isPublic bool) (*entities.Shelf, error)
	GetShelf(id uint) (*entities.Shelf, error)
	GetShelvesForUser(userID uint, publicOnly bool) ([]entities.Shelf, error)
	UpdateShelf(id uint, update shelves.ShelfUpdate) (*entities.Shelf, error)
	DeleteShelf(id uint) error
	AddBook(shelfID, bookID uint) error
	RemoveBook(shelfID, bookID uint) error
}

type createShelfRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	IsPublic *bool  `json:"is_public"`
}

type updateShelfRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=255"`
	IsPublic *bool   `json:"is_public"`
}

type ShelvesController struct {
	store ShelfStore
}

func NewShelvesController(store ShelfStore) *ShelvesController {
	return &ShelvesController{store: store}
}

func (sc *ShelvesController) respondError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, shelves.ErrShelfNotFound):
		respondNotFound(c, "shelf")
	case errors.Is(err, shelves.ErrBookNotFound):
		respondNotFound(c, "book")
	case errors.Is(err, shelves.ErrTitleRequired):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}

func isOwnerOrAdmin(c *gin.Context, ownerID uint) bool {
	return GetUserID(c) == ownerID || auth.GetUserRole(c) == entities.UserRoleAdmin
}

// loadShelf resolves :id and hides private shelves of other users.
func (sc *ShelvesController) loadShelf(c *gin.Context) *entities.Shelf {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}
	shelf, err := sc.store.GetShelf(id)
	if err != nil {
		sc.respondError(c, err, "get shelf")
		return nil
	}
	if !shelf.IsPublic && !isOwnerOrAdmin(c, shelf.UserID) {
		respondNotFound(c, "shelf")
		return nil
	}
	return shelf
}

// loadOwnShelf is loadShelf for write operations.
func (sc *ShelvesController) loadOwnShelf(c *gin.Context) *entities.Shelf {
	shelf := sc.loadShelf(c)
	if shelf == nil {
		return nil
	}
	if !isOwnerOrAdmin(c, shelf.UserID) {
		respondForbidden(c, "shelf belongs to another user")
		return nil
	}
	return shelf
}

// ListMyShelves returns all shelves of the caller
// GET /api/shelves
func (sc *ShelvesController) ListMyShelves(c *gin.Context) {
	list, err := sc.store.GetShelvesForUser(GetUserID(c), false)
	if err != nil {
		respondInternalError(c, err, "list shelves")
		return
	}
	c.JSON(http.StatusOK, gin.H{"shelves": list, "count": len(list)})
}

// ListUserShelves returns another user's public shelves, or all of them for
// the user themself
// GET /api/users/:id/shelves
func (sc *ShelvesController) ListUserShelves(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	list, err := sc.store.GetShelvesForUser(userID, !isOwnerOrAdmin(c, userID))
	if err != nil {
		respondInternalError(c, err, "list user shelves")
		return
	}
	c.JSON(http.StatusOK, gin.H{"shelves": list, "count": len(list)})
}

// CreateShelf adds a shelf for the caller. Shelves are public unless is_public is false.
// POST /api/shelves
func (sc *ShelvesController) CreateShelf(c *gin.Context) {
	var req createShelfRequest
	if !bindJSON(c, &req) {
		return
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	shelf, err := sc.store.CreateShelf(GetUserID(c), strings.TrimSpace(req.Title), isPublic)
	if err != nil {
		sc.respondError(c, err, "create shelf")
		return
	}
	respondCreated(c, shelf)
}

// GetShelf returns a shelf with its books
// GET /api/shelves/:id
func (sc *ShelvesController) GetShelf(c *gin.Context) {
	shelf := sc.loadShelf(c)
	if shelf == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"shelf": shelf, "name": shelf.String()})
}

// UpdateShelf renames a shelf or changes its visibility
// PATCH /api/shelves/:id
func (sc *ShelvesController) UpdateShelf(c *gin.Context) {
	shelf := sc.loadOwnShelf(c)
	if shelf == nil {
		return
	}
	var req updateShelfRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}

	updated, err := sc.store.UpdateShelf(shelf.ID, shelves.ShelfUpdate{Title: req.Title, IsPublic: req.IsPublic})
	if err != nil {
		sc.respondError(c, err, "update shelf")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteShelf removes a shelf; its books stay in the catalogue
// DELETE /api/shelves/:id
func (sc *ShelvesController) DeleteShelf(c *gin.Context) {
	shelf := sc.loadOwnShelf(c)
	if shelf == nil {
		return
	}
	if err := sc.store.DeleteShelf(shelf.ID); err != nil {
		sc.respondError(c, err, "delete shelf")
		return
	}
	respondSuccess(c, "shelf deleted")
}

// AddBook puts a book on a shelf
// POST /api/shelves/:id/books/:bookId
func (sc *ShelvesController) AddBook(c *gin.Context) {
	shelf := sc.loadOwnShelf(c)
	if shelf == nil {
		return
	}
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}
	if err := sc.store.AddBook(shelf.ID, bookID); err != nil {
		sc.respondError(c, err, "add book to shelf")
		return
	}
	respondSuccess(c, "book added to shelf")
}

// RemoveBook takes a book off a shelf
// DELETE /api/shelves/:id/books/:bookId
func (sc *ShelvesController) RemoveBook(c *gin.Context) {
	shelf := sc.loadOwnShelf(c)
	if shelf == nil {
		return
	}
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}
	if err := sc.store.RemoveBook(shelf.ID, bookID); err != nil {
		sc.respondError(c, err, "remove book from shelf")
		return
	}
	respondSuccess(c, "book removed from shelf")
}
