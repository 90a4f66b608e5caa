package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sudarmaa/sudarmaa/internal/database/categories"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

// CategoryStore defines database operations for categories.
type CategoryStore interface {
	CreateCategory(title string) (*entities.Category, error)
	GetCategoryByID(id uint) (*entities.Category, error)
	GetAllCategories() ([]entities.Category, error)
	RenameCategory(id uint, title string) (*entities.Category, error)
	DeleteCategory(id uint) error
}

type categoryRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type CategoriesController struct {
	store CategoryStore
}

func NewCategoriesController(store CategoryStore) *CategoriesController {
	return &CategoriesController{store: store}
}

// ListCategories returns all categories ordered by title
// GET /api/categories
func (cc *CategoriesController) ListCategories(c *gin.Context) {
	list, err := cc.store.GetAllCategories()
	if err != nil {
		respondInternalError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": list, "count": len(list)})
}

// CreateCategory adds a category
// POST /api/categories
func (cc *CategoriesController) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		respondBadRequest(c, "title is required")
		return
	}

	category, err := cc.store.CreateCategory(title)
	if err != nil {
		respondInternalError(c, err, "create category")
		return
	}
	respondCreated(c, category)
}

// GetCategory returns one category
// GET /api/categories/:id
func (cc *CategoriesController) GetCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	category, err := cc.store.GetCategoryByID(id)
	if err != nil {
		cc.respondError(c, err, "get category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// RenameCategory changes a category's title
// PATCH /api/categories/:id
func (cc *CategoriesController) RenameCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		respondBadRequest(c, "title is required")
		return
	}

	category, err := cc.store.RenameCategory(id, title)
	if err != nil {
		cc.respondError(c, err, "rename category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory removes a category without books
// DELETE /api/categories/:id
func (cc *CategoriesController) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := cc.store.DeleteCategory(id); err != nil {
		cc.respondError(c, err, "delete category")
		return
	}
	respondSuccess(c, "category deleted")
}

func (cc *CategoriesController) respondError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, categories.ErrCategoryNotFound):
		respondNotFound(c, "category")
	case errors.Is(err, categories.ErrCategoryInUse):
		respondConflict(c, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}
