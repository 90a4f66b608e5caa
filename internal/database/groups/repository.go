// Package groups provides database operations for permission groups.
//
// EnsurePublisherGroup is a startup step: it must run after database.NewDatabase
// has seeded the permission registry, and a missing add_book permission is fatal.
package groups

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sudarmaa/sudarmaa/internal/entities"
)

var (
	ErrGroupNotFound      = errors.New("group not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrPermissionNotFound = errors.New("permission not found")
)

// Repository handles all group database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new groups repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// EnsurePublisherGroup gets or creates the Publishers group and makes sure it
// holds the add_book permission. Safe to run on every startup.
func (r *Repository) EnsurePublisherGroup() (*entities.Group, error) {
	var group entities.Group
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(entities.Group{Name: entities.GroupPublishers}).FirstOrCreate(&group).Error; err != nil {
			return fmt.Errorf("failed to get or create group: %w", err)
		}

		var permission entities.Permission
		err := tx.Where("codename = ?", entities.PermissionAddBook).First(&permission).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrPermissionNotFound, entities.PermissionAddBook)
		}
		if err != nil {
			return err
		}

		var granted int64
		err = tx.Table("group_permissions").
			Where("group_id = ? AND permission_id = ?", group.ID, permission.ID).
			Count(&granted).Error
		if err != nil {
			return err
		}
		if granted > 0 {
			return nil
		}

		if err := tx.Model(&group).Association("Permissions").Append(&permission); err != nil {
			return fmt.Errorf("failed to grant %s: %w", permission.Codename, err)
		}
		zap.L().Info("granted permission to group",
			zap.String("group", group.Name),
			zap.String("permission", permission.Codename))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetGroupByName(entities.GroupPublishers)
}

// GetGroupByName retrieves a group with its permissions.
func (r *Repository) GetGroupByName(name string) (*entities.Group, error) {
	var group entities.Group
	err := r.db.Preload("Permissions").Where("name = ?", name).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *Repository) membership(groupName string, userID uint) (*entities.Group, *entities.User, error) {
	group, err := r.GetGroupByName(groupName)
	if err != nil {
		return nil, nil, err
	}
	var user entities.User
	err = r.db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrUserNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return group, &user, nil
}

// AddUserToGroup adds a user to a named group. Adding an existing member is a no-op.
func (r *Repository) AddUserToGroup(groupName string, userID uint) error {
	group, user, err := r.membership(groupName, userID)
	if err != nil {
		return err
	}
	return r.db.Model(&entities.User{ID: user.ID}).Association("Groups").Append(&entities.Group{ID: group.ID, Name: group.Name})
}

// RemoveUserFromGroup removes a user from a named group.
func (r *Repository) RemoveUserFromGroup(groupName string, userID uint) error {
	group, user, err := r.membership(groupName, userID)
	if err != nil {
		return err
	}
	return r.db.Exec("DELETE FROM user_groups WHERE user_id = ? AND group_id = ?", user.ID, group.ID).Error
}

// GetGroupMembers lists a group's users ordered by username.
func (r *Repository) GetGroupMembers(groupName string) ([]entities.User, error) {
	group, err := r.GetGroupByName(groupName)
	if err != nil {
		return nil, err
	}
	var users []entities.User
	err = r.db.Joins("JOIN user_groups ON user_groups.user_id = users.id").
		Where("user_groups.group_id = ?", group.ID).
		Order("users.username ASC").
		Find(&users).Error
	return users, err
}

// GetGroupsForUser lists the groups a user belongs to.
func (r *Repository) GetGroupsForUser(userID uint) ([]entities.Group, error) {
	var groups []entities.Group
	err := r.db.Joins("JOIN user_groups ON user_groups.group_id = groups.id").
		Where("user_groups.user_id = ?", userID).
		Order("groups.name ASC").
		Find(&groups).Error
	return groups, err
}

// UserHasPermission reports whether any of the user's groups grants codename.
func (r *Repository) UserHasPermission(userID uint, codename string) (bool, error) {
	var count int64
	err := r.db.Table("user_groups").
		Joins("JOIN group_permissions ON group_permissions.group_id = user_groups.group_id").
		Joins("JOIN permissions ON permissions.id = group_permissions.permission_id").
		Where("user_groups.user_id = ? AND permissions.codename = ?", userID, codename).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
