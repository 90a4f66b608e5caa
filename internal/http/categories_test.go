package http

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudarmaa/sudarmaa/internal/database"
	"github.com/sudarmaa/sudarmaa/internal/database/categories"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

func setupCategoriesRouter(t *testing.T) (*gin.Engine, *database.Database) {
	t.Helper()
	db := setupTestDB(t)
	controller := NewCategoriesController(categories.NewRepository(db.DB))

	router := gin.New()
	router.GET("/api/categories", controller.ListCategories)
	router.POST("/api/categories", controller.CreateCategory)
	router.GET("/api/categories/:id", controller.GetCategory)
	router.PATCH("/api/categories/:id", controller.RenameCategory)
	router.DELETE("/api/categories/:id", controller.DeleteCategory)
	return router, db
}

func TestCategoriesController_CreateAndList(t *testing.T) {
	router, _ := setupCategoriesRouter(t)

	w := performJSON(router, http.MethodPost, "/api/categories", gin.H{"title": "  Science "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created entities.Category
	decodeJSON(t, w, &created)
	assert.Equal(t, "Science", created.Title)

	performJSON(router, http.MethodPost, "/api/categories", gin.H{"title": "Art"})

	w = performJSON(router, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Categories []entities.Category `json:"categories"`
		Count      int                 `json:"count"`
	}
	decodeJSON(t, w, &resp)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "Art", resp.Categories[0].Title)
	assert.Equal(t, "Science", resp.Categories[1].Title)
}

func TestCategoriesController_CreateValidation(t *testing.T) {
	router, _ := setupCategoriesRouter(t)

	w := performJSON(router, http.MethodPost, "/api/categories", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	decodeJSON(t, w, &resp)
	assert.Equal(t, "validation failed", resp.Error)
	assert.NotNil(t, resp.Details)

	w = performJSON(router, http.MethodPost, "/api/categories", gin.H{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoriesController_GetAndRename(t *testing.T) {
	router, db := setupCategoriesRouter(t)
	category := createCategory(t, db, "Fiction")

	w := performJSON(router, http.MethodGet, "/api/categories/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performJSON(router, http.MethodPatch, "/api/categories/"+itoa(category.ID), gin.H{"title": "Novels"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performJSON(router, http.MethodGet, "/api/categories/"+itoa(category.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got entities.Category
	decodeJSON(t, w, &got)
	assert.Equal(t, "Novels", got.Title)
}

func TestCategoriesController_DeleteInUse(t *testing.T) {
	router, db := setupCategoriesRouter(t)
	used := createCategory(t, db, "Used")
	empty := createCategory(t, db, "Empty")
	createBook(t, db, "Dune", used.ID, nil)

	w := performJSON(router, http.MethodDelete, "/api/categories/"+itoa(used.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = performJSON(router, http.MethodDelete, "/api/categories/"+itoa(empty.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performJSON(router, http.MethodDelete, "/api/categories/"+itoa(empty.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
