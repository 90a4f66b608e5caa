package http

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudarmaa/sudarmaa/internal/database"
	"github.com/sudarmaa/sudarmaa/internal/database/picks"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

func picksRouterFor(db *database.Database, user *entities.User) *gin.Engine {
	controller := NewPicksController(picks.NewRepository(db.DB))
	router := gin.New()
	router.Use(asUser(user))
	router.GET("/api/picks", controller.ListPicks)
	router.POST("/api/picks", controller.CreatePick)
	router.PATCH("/api/picks/:id", controller.ReorderPick)
	router.DELETE("/api/picks/:id", controller.DeletePick)
	return router
}

func TestPicksController(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice", entities.UserRoleViewer)
	bob := createUser(t, db, "bob", entities.UserRoleViewer)
	category := createCategory(t, db, "Fiction")
	dune := createBook(t, db, "Dune", category.ID, nil)
	emma := createBook(t, db, "Emma", category.ID, nil)

	asAlice := picksRouterFor(db, alice)
	asBob := picksRouterFor(db, bob)

	w := performJSON(asAlice, http.MethodPost, "/api/picks", gin.H{"book_id": dune.ID, "order_number": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created pickResponse
	decodeJSON(t, w, &created)
	assert.Equal(t, "2. Dune", created.Label)

	w = performJSON(asAlice, http.MethodPost, "/api/picks", gin.H{"book_id": emma.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	var second pickResponse
	decodeJSON(t, w, &second)
	assert.Equal(t, 0, second.OrderNumber, "order defaults to zero")

	w = performJSON(asAlice, http.MethodPost, "/api/picks", gin.H{"book_id": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var list struct {
		Picks []pickResponse `json:"picks"`
		Count int            `json:"count"`
	}
	w = performJSON(asAlice, http.MethodGet, "/api/picks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &list)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "0. Emma", list.Picks[0].Label)
	assert.Equal(t, "2. Dune", list.Picks[1].Label)

	w = performJSON(asBob, http.MethodGet, "/api/picks", nil)
	decodeJSON(t, w, &list)
	assert.Zero(t, list.Count)

	t.Run("reorder", func(t *testing.T) {
		w := performJSON(asAlice, http.MethodPatch, "/api/picks/"+itoa(second.ID), gin.H{"order_number": 5})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var moved pickResponse
		decodeJSON(t, w, &moved)
		assert.Equal(t, "5. Emma", moved.Label)

		w = performJSON(asAlice, http.MethodPatch, "/api/picks/"+itoa(second.ID), gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = performJSON(asBob, http.MethodPatch, "/api/picks/"+itoa(second.ID), gin.H{"order_number": 1})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := performJSON(asBob, http.MethodDelete, "/api/picks/"+itoa(created.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = performJSON(asAlice, http.MethodDelete, "/api/picks/"+itoa(created.ID), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
