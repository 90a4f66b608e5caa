package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sudarmaa/sudarmaa/internal/database/books"
	"github.com/sudarmaa/sudarmaa/internal/database/pages"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

// PageStore defines database operations for a book's page tree.
type PageStore interface {
	CreatePage(page *entities.Page) error
	GetPageByID(id uint) (*entities.Page, error)
	UpdatePage(id uint, update pages.PageUpdate) (*entities.Page, error)
	MovePage(id uint, parentID *uint, order int) (*entities.Page, error)
	DeletePage(id uint) (int, error)
	Subpages(pageID uint) ([]entities.Page, error)
	SiblingPages(page *entities.Page) ([]entities.Page, error)
	NextPage(page *entities.Page) (*entities.Page, error)
	PrevPage(page *entities.Page) (*entities.Page, error)
	Outline(bookID uint) ([]entities.Page, error)
}

type createPageRequest struct {
	BookID        uint   `json:"book_id" validate:"required"`
	ParentPageID  *uint  `json:"parent_page_id" validate:"omitempty,gt=0"`
	Title         string `json:"title" validate:"required,max=255"`
	Content       string `json:"content"`
	SiblingsOrder *int   `json:"siblings_order" validate:"required"`
}

type updatePageRequest struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=255"`
	Content       *string `json:"content"`
	SiblingsOrder *int    `json:"siblings_order"`
}

type movePageRequest struct {
	ParentPageID  *uint `json:"parent_page_id" validate:"omitempty,gt=0"`
	SiblingsOrder *int  `json:"siblings_order" validate:"required"`
}

type PagesController struct {
	store       PageStore
	books       BookGetter
	permissions PermissionChecker
}

func NewPagesController(store PageStore, books BookGetter, permissions PermissionChecker) *PagesController {
	return &PagesController{store: store, books: books, permissions: permissions}
}

func (pc *PagesController) respondError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, pages.ErrPageNotFound):
		respondNotFound(c, "page")
	case errors.Is(err, pages.ErrBookNotFound), errors.Is(err, books.ErrBookNotFound):
		respondNotFound(c, "book")
	case errors.Is(err, pages.ErrDuplicateSiblingOrder):
		respondConflict(c, err.Error())
	case errors.Is(err, pages.ErrTitleRequired),
		errors.Is(err, pages.ErrPageCycle),
		errors.Is(err, pages.ErrParentInOtherBook):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}

// loadPage resolves the :id parameter. It responds and returns nil on failure.
func (pc *PagesController) loadPage(c *gin.Context) *entities.Page {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}
	page, err := pc.store.GetPageByID(id)
	if err != nil {
		pc.respondError(c, err, "get page")
		return nil
	}
	return page
}

// authorize checks that the caller may edit pages of bookID.
func (pc *PagesController) authorize(c *gin.Context, bookID uint) bool {
	book, err := pc.books.GetBookByID(bookID)
	if err != nil {
		pc.respondError(c, err, "get book")
		return false
	}
	return requireBookAccess(c, pc.permissions, book, "change_book")
}

// CreatePage adds a page to a book, optionally under a parent page
// POST /api/pages
func (pc *PagesController) CreatePage(c *gin.Context) {
	var req createPageRequest
	if !bindJSON(c, &req) {
		return
	}
	if !pc.authorize(c, req.BookID) {
		return
	}

	page := &entities.Page{
		BookID:        req.BookID,
		ParentPageID:  req.ParentPageID,
		Title:         strings.TrimSpace(req.Title),
		Content:       req.Content,
		SiblingsOrder: *req.SiblingsOrder,
	}
	if err := pc.store.CreatePage(page); err != nil {
		pc.respondError(c, err, "create page")
		return
	}
	respondCreated(c, page)
}

// GetPage returns one page
// GET /api/pages/:id
func (pc *PagesController) GetPage(c *gin.Context) {
	page := pc.loadPage(c)
	if page == nil {
		return
	}
	c.JSON(http.StatusOK, page)
}

// UpdatePage edits title, content or order
// PATCH /api/pages/:id
func (pc *PagesController) UpdatePage(c *gin.Context) {
	page := pc.loadPage(c)
	if page == nil {
		return
	}
	if !pc.authorize(c, page.BookID) {
		return
	}

	var req updatePageRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}

	updated, err := pc.store.UpdatePage(page.ID, pages.PageUpdate{
		Title:         req.Title,
		Content:       req.Content,
		SiblingsOrder: req.SiblingsOrder,
	})
	if err != nil {
		pc.respondError(c, err, "update page")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// MovePage reparents a page within its book. A null parent makes it top-level.
// POST /api/pages/:id/move
func (pc *PagesController) MovePage(c *gin.Context) {
	page := pc.loadPage(c)
	if page == nil {
		return
	}
	if !pc.authorize(c, page.BookID) {
		return
	}

	var req movePageRequest
	if !bindJSON(c, &req) {
		return
	}

	moved, err := pc.store.MovePage(page.ID, req.ParentPageID, *req.SiblingsOrder)
	if err != nil {
		pc.respondError(c, err, "move page")
		return
	}
	c.JSON(http.StatusOK, moved)
}

// DeletePage removes a page and all of its subpages
// DELETE /api/pages/:id
func (pc *PagesController) DeletePage(c *gin.Context) {
	page := pc.loadPage(c)
	if page == nil {
		return
	}
	if !pc.authorize(c, page.BookID) {
		return
	}

	deleted, err := pc.store.DeletePage(page.ID)
	if err != nil {
		pc.respondError(c, err, "delete page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "page deleted", "deleted": deleted})
}

// Siblings returns the page's sibling group, the page included
// GET /api/pages/:id/siblings
func (pc *PagesController) Siblings(c *gin.Context) {
	page := pc.loadPage(c)
	if page == nil {
		return
	}
	list, err := pc.store.SiblingPages(page)
	if err != nil {
		respondInternalError(c, err, "sibling pages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": list, "count": len(list)})
}

// Subpages returns the page's direct children
// GET /api/pages/:id/subpages
func (pc *PagesController) Subpages(c *gin.Context) {
	page := pc.loadPage(c)
	if page == nil {
		return
	}
	list, err := pc.store.Subpages(page.ID)
	if err != nil {
		respondInternalError(c, err, "subpages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": list, "count": len(list)})
}

// Next returns the following sibling, or {"page": null} for the last one
// GET /api/pages/:id/next
func (pc *PagesController) Next(c *gin.Context) {
	pc.neighbour(c, pc.store.NextPage, "next page")
}

// Prev returns the preceding sibling, or {"page": null} for the first one
// GET /api/pages/:id/prev
func (pc *PagesController) Prev(c *gin.Context) {
	pc.neighbour(c, pc.store.PrevPage, "previous page")
}

func (pc *PagesController) neighbour(c *gin.Context, find func(*entities.Page) (*entities.Page, error), context string) {
	page := pc.loadPage(c)
	if page == nil {
		return
	}
	found, err := find(page)
	if err != nil {
		respondInternalError(c, err, context)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": found})
}

// BookOutline returns the whole page tree of a book
// GET /api/books/:id/outline
func (pc *PagesController) BookOutline(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := pc.books.GetBookByID(id); err != nil {
		pc.respondError(c, err, "get book")
		return
	}
	tree, err := pc.store.Outline(id)
	if err != nil {
		respondInternalError(c, err, "book outline")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book_id": id, "pages": tree})
}
