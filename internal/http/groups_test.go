package http

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudarmaa/sudarmaa/internal/database/groups"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

func TestGroupsController_Publishers(t *testing.T) {
	db := setupTestDB(t)
	repo := groups.NewRepository(db.DB)
	_, err := repo.EnsurePublisherGroup()
	require.NoError(t, err)

	admin := createUser(t, db, "root", entities.UserRoleAdmin)
	writer := createUser(t, db, "writer", entities.UserRoleViewer)

	controller := NewGroupsController(repo)
	router := gin.New()
	router.Use(asUser(admin))
	router.GET("/api/groups/publishers", controller.GetPublishers)
	router.POST("/api/groups/publishers/members/:userId", controller.AddPublisher)
	router.DELETE("/api/groups/publishers/members/:userId", controller.RemovePublisher)

	members := func() []entities.User {
		w := performJSON(router, http.MethodGet, "/api/groups/publishers", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp struct {
			Group   entities.Group  `json:"group"`
			Members []entities.User `json:"members"`
		}
		decodeJSON(t, w, &resp)
		assert.Equal(t, entities.GroupPublishers, resp.Group.Name)
		require.Len(t, resp.Group.Permissions, 1)
		assert.Equal(t, entities.PermissionAddBook, resp.Group.Permissions[0].Codename)
		return resp.Members
	}

	assert.Empty(t, members())

	w := performJSON(router, http.MethodPost, "/api/groups/publishers/members/"+itoa(writer.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := members()
	require.Len(t, list, 1)
	assert.Equal(t, writer.ID, list[0].ID)

	allowed, err := repo.UserHasPermission(writer.ID, entities.PermissionAddBook)
	require.NoError(t, err)
	assert.True(t, allowed)

	w = performJSON(router, http.MethodPost, "/api/groups/publishers/members/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performJSON(router, http.MethodDelete, "/api/groups/publishers/members/"+itoa(writer.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, members())

	allowed, err = repo.UserHasPermission(writer.ID, entities.PermissionAddBook)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestGroupsController_MissingGroup(t *testing.T) {
	db := setupTestDB(t)
	admin := createUser(t, db, "root", entities.UserRoleAdmin)

	controller := NewGroupsController(groups.NewRepository(db.DB))
	router := gin.New()
	router.Use(asUser(admin))
	router.GET("/api/groups/publishers", controller.GetPublishers)

	w := performJSON(router, http.MethodGet, "/api/groups/publishers", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
