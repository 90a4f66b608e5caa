// Package users provides database operations for user management.
//
// Account creation lives in internal/auth, which owns password hashing and
// default shelf provisioning. This package covers lookups and removal.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByUsername("alice")
//	err = repo.DeleteUser(user.ID)
package users

import (
	"errors"

	"gorm.io/gorm"

	"github.com/sudarmaa/sudarmaa/internal/database/shelves"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

var ErrUserNotFound = errors.New("user not found")

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns every user ordered by username.
func (r *Repository) ListUsers() ([]entities.User, error) {
	var users []entities.User
	err := r.db.Order("username ASC").Find(&users).Error
	return users, err
}

// DeleteUser removes a user with their shelves, picks and group memberships.
// Books the user created are kept with creator_id cleared.
func (r *Repository) DeleteUser(id uint) error {
	if _, err := r.GetUserByID(id); err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := shelves.NewRepository(tx).DeleteShelvesForUser(id); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&entities.Pick{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_groups WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&entities.Book{}).Where("creator_id = ?", id).Update("creator_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.User{}, id).Error
	})
}
