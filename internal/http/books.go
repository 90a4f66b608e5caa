package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sudarmaa/sudarmaa/internal/database/books"
	"github.com/sudarmaa/sudarmaa/internal/database/categories"
	"github.com/sudarmaa/sudarmaa/internal/entities"
	"github.com/sudarmaa/sudarmaa/internal/media"
)

// BookStore defines database operations for the book catalogue.
type BookStore interface {
	BookGetter
	CreateBook(book *entities.Book) error
	GetAllBooks(categoryID uint) ([]entities.Book, error)
	SearchBooks(query string) ([]entities.Book, error)
	UpdateBook(id uint, update books.BookUpdate) (*entities.Book, error)
	SetIcon(id uint, path string) (string, error)
	TopPages(bookID uint) ([]entities.Page, error)
	DeleteBook(id uint) error
}

// IconStore keeps icon files on disk.
type IconStore interface {
	SaveBookIcon(bookID uint, r io.Reader) (string, *mimetype.MIME, error)
	Path(rel string) (string, error)
	Remove(rel string) error
	RemoveBookIcons(bookID uint) error
}

type createBookRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	CategoryID  uint   `json:"category_id" validate:"required"`
	Description string `json:"description"`
}

type updateBookRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	CategoryID  *uint   `json:"category_id" validate:"omitempty,gt=0"`
	Description *string `json:"description"`
}

type BooksController struct {
	store       BookStore
	icons       IconStore
	permissions PermissionChecker
}

func NewBooksController(store BookStore, icons IconStore, permissions PermissionChecker) *BooksController {
	return &BooksController{store: store, icons: icons, permissions: permissions}
}

// requireBookAccess lets the book's creator through, and anyone else holding
// codename. It responds and returns false otherwise.
func requireBookAccess(c *gin.Context, permissions PermissionChecker, book *entities.Book, codename string) bool {
	userID := GetUserID(c)
	if book.CreatorID != nil && *book.CreatorID == userID && userID != 0 {
		return true
	}
	if permissions == nil {
		respondForbidden(c, "missing permission "+codename)
		return false
	}
	ok, err := permissions.UserHasPermission(userID, codename)
	if err != nil {
		respondInternalError(c, err, "check permission")
		return false
	}
	if !ok {
		respondForbidden(c, "missing permission "+codename)
		return false
	}
	return true
}

func (bc *BooksController) respondError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, books.ErrBookNotFound):
		respondNotFound(c, "book")
	case errors.Is(err, books.ErrTitleRequired):
		respondBadRequest(c, err.Error())
	case errors.Is(err, categories.ErrCategoryNotFound):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}

// loadBook resolves the :id parameter. It responds and returns nil on failure.
func (bc *BooksController) loadBook(c *gin.Context) *entities.Book {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}
	book, err := bc.store.GetBookByID(id)
	if err != nil {
		bc.respondError(c, err, "get book")
		return nil
	}
	return book
}

// ListBooks returns books, optionally filtered by category
// GET /api/books?category_id=
func (bc *BooksController) ListBooks(c *gin.Context) {
	categoryID, ok := parseOptionalQueryID(c, "category_id")
	if !ok {
		return
	}
	list, err := bc.store.GetAllBooks(categoryID)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// SearchBooks finds books by title
// GET /api/books/search?q=
func (bc *BooksController) SearchBooks(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondBadRequest(c, "q query parameter is required")
		return
	}
	list, err := bc.store.SearchBooks(query)
	if err != nil {
		respondInternalError(c, err, "search books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// CreateBook adds a book created by the caller. Routing requires add_book.
// POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req createBookRequest
	if !bindJSON(c, &req) {
		return
	}

	book := &entities.Book{
		Title:       strings.TrimSpace(req.Title),
		CategoryID:  req.CategoryID,
		Description: req.Description,
	}
	if userID := GetUserID(c); userID != 0 {
		book.CreatorID = &userID
	}

	if err := bc.store.CreateBook(book); err != nil {
		bc.respondError(c, err, "create book")
		return
	}

	created, err := bc.store.GetBookByID(book.ID)
	if err != nil {
		respondInternalError(c, err, "reload book")
		return
	}
	zap.L().Info("book created", zap.Uint("book_id", created.ID), zap.Uint("user_id", GetUserID(c)))
	respondCreated(c, created)
}

// GetBook returns one book with its category
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	book := bc.loadBook(c)
	if book == nil {
		return
	}
	c.JSON(http.StatusOK, book)
}

// UpdateBook applies a partial update
// PATCH /api/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	book := bc.loadBook(c)
	if book == nil {
		return
	}
	if !requireBookAccess(c, bc.permissions, book, "change_book") {
		return
	}

	var req updateBookRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}

	updated, err := bc.store.UpdateBook(book.ID, books.BookUpdate{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		bc.respondError(c, err, "update book")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteBook removes a book, its pages, picks, shelf links and icon files
// DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	book := bc.loadBook(c)
	if book == nil {
		return
	}
	if !requireBookAccess(c, bc.permissions, book, "delete_book") {
		return
	}

	if err := bc.store.DeleteBook(book.ID); err != nil {
		bc.respondError(c, err, "delete book")
		return
	}
	if bc.icons != nil {
		if err := bc.icons.RemoveBookIcons(book.ID); err != nil {
			zap.L().Warn("failed to remove book icons", zap.Uint("book_id", book.ID), zap.Error(err))
		}
	}
	respondSuccess(c, "book deleted")
}

// TopPages returns the book's top-level pages in reading order
// GET /api/books/:id/pages
func (bc *BooksController) TopPages(c *gin.Context) {
	book := bc.loadBook(c)
	if book == nil {
		return
	}
	list, err := bc.store.TopPages(book.ID)
	if err != nil {
		respondInternalError(c, err, "top pages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": list, "count": len(list)})
}

// UploadIcon replaces the book's icon with the multipart "icon" file
// PUT /api/books/:id/icon
func (bc *BooksController) UploadIcon(c *gin.Context) {
	book := bc.loadBook(c)
	if book == nil {
		return
	}
	if !requireBookAccess(c, bc.permissions, book, "change_book") {
		return
	}

	header, err := c.FormFile("icon")
	if err != nil {
		respondBadRequest(c, "icon file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		respondBadRequest(c, "could not read icon file")
		return
	}
	defer file.Close()

	rel, mtype, err := bc.icons.SaveBookIcon(book.ID, file)
	switch {
	case errors.Is(err, media.ErrNotAnImage):
		c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, media.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, media.ErrEmptyFile):
		respondBadRequest(c, err.Error())
		return
	case err != nil:
		respondInternalError(c, err, "save icon")
		return
	}

	previous, err := bc.store.SetIcon(book.ID, rel)
	if err != nil {
		_ = bc.icons.Remove(rel)
		bc.respondError(c, err, "set icon")
		return
	}
	if previous != "" && previous != rel {
		if err := bc.icons.Remove(previous); err != nil {
			zap.L().Warn("failed to remove previous icon", zap.String("path", previous), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"icon": rel, "content_type": mtype.String()})
}

// GetIcon serves the icon file
// GET /api/books/:id/icon
func (bc *BooksController) GetIcon(c *gin.Context) {
	book := bc.loadBook(c)
	if book == nil {
		return
	}
	if book.Icon == "" {
		respondNotFound(c, "icon")
		return
	}
	path, err := bc.icons.Path(book.Icon)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) || errors.Is(err, media.ErrInvalidPath) {
			respondNotFound(c, "icon")
			return
		}
		respondInternalError(c, err, "resolve icon")
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.File(path)
}

// DeleteIcon clears the book's icon
// DELETE /api/books/:id/icon
func (bc *BooksController) DeleteIcon(c *gin.Context) {
	book := bc.loadBook(c)
	if book == nil {
		return
	}
	if !requireBookAccess(c, bc.permissions, book, "change_book") {
		return
	}

	previous, err := bc.store.SetIcon(book.ID, "")
	if err != nil {
		bc.respondError(c, err, "clear icon")
		return
	}
	if previous != "" {
		if err := bc.icons.Remove(previous); err != nil {
			zap.L().Warn("failed to remove icon", zap.String("path", previous), zap.Error(err))
		}
	}
	respondSuccess(c, "icon removed")
}
