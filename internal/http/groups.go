package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sudarmaa/sudarmaa/internal/database/groups"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

// GroupStore defines the group membership operations used by admins.
type GroupStore interface {
	GetGroupByName(name string) (*entities.Group, error)
	GetGroupMembers(groupName string) ([]entities.User, error)
	AddUserToGroup(groupName string, userID uint) error
	RemoveUserFromGroup(groupName string, userID uint) error
}

type GroupsController struct {
	store GroupStore
}

func NewGroupsController(store GroupStore) *GroupsController {
	return &GroupsController{store: store}
}

func (gc *GroupsController) respondError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, groups.ErrGroupNotFound):
		respondNotFound(c, "group")
	case errors.Is(err, groups.ErrUserNotFound):
		respondNotFound(c, "user")
	default:
		respondInternalError(c, err, context)
	}
}

// GetPublishers returns the Publishers group with its permissions and members
// GET /api/groups/publishers
func (gc *GroupsController) GetPublishers(c *gin.Context) {
	group, err := gc.store.GetGroupByName(entities.GroupPublishers)
	if err != nil {
		gc.respondError(c, err, "get publishers")
		return
	}
	members, err := gc.store.GetGroupMembers(entities.GroupPublishers)
	if err != nil {
		gc.respondError(c, err, "get publisher members")
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group, "members": members})
}

// AddPublisher grants a user the Publishers group
// POST /api/groups/publishers/members/:userId
func (gc *GroupsController) AddPublisher(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	if err := gc.store.AddUserToGroup(entities.GroupPublishers, userID); err != nil {
		gc.respondError(c, err, "add publisher")
		return
	}
	zap.L().Info("user added to group",
		zap.String("group", entities.GroupPublishers),
		zap.Uint("user_id", userID),
		zap.Uint("by", GetUserID(c)))
	respondSuccess(c, "user added to "+entities.GroupPublishers)
}

// RemovePublisher revokes a user's Publishers membership
// DELETE /api/groups/publishers/members/:userId
func (gc *GroupsController) RemovePublisher(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	if err := gc.store.RemoveUserFromGroup(entities.GroupPublishers, userID); err != nil {
		gc.respondError(c, err, "remove publisher")
		return
	}
	zap.L().Info("user removed from group",
		zap.String("group", entities.GroupPublishers),
		zap.Uint("user_id", userID),
		zap.Uint("by", GetUserID(c)))
	respondSuccess(c, "user removed from "+entities.GroupPublishers)
}
