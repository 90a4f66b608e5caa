// Package picks provides database operations for per-user ranked book picks.
package picks

import (
	"errors"

	"gorm.io/gorm"

	"github.com/sudarmaa/sudarmaa/internal/entities"
)

var (
	ErrPickNotFound = errors.New("pick not found")
	ErrBookNotFound = errors.New("book not found")
)

// Repository handles all pick database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new picks repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreatePick adds a book to a user's picks. The same book may be picked twice.
func (r *Repository) CreatePick(userID, bookID uint, orderNumber int) (*entities.Pick, error) {
	var books int64
	if err := r.db.Model(&entities.Book{}).Where("id = ?", bookID).Count(&books).Error; err != nil {
		return nil, err
	}
	if books == 0 {
		return nil, ErrBookNotFound
	}

	pick := &entities.Pick{UserID: userID, BookID: bookID, OrderNumber: orderNumber}
	if err := r.db.Omit("User", "Book").Create(pick).Error; err != nil {
		return nil, err
	}
	return r.GetPick(pick.ID, userID)
}

// GetPick retrieves a pick owned by userID with its book.
func (r *Repository) GetPick(id, userID uint) (*entities.Pick, error) {
	var pick entities.Pick
	err := r.db.Preload("Book").Where("id = ? AND user_id = ?", id, userID).First(&pick).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPickNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pick, nil
}

// GetPicksForUser lists a user's picks by order_number.
func (r *Repository) GetPicksForUser(userID uint) ([]entities.Pick, error) {
	var picks []entities.Pick
	err := r.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("order_number ASC, id ASC").
		Find(&picks).Error
	return picks, err
}

// ReorderPick changes a pick's order_number.
func (r *Repository) ReorderPick(id, userID uint, orderNumber int) (*entities.Pick, error) {
	result := r.db.Model(&entities.Pick{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("order_number", orderNumber)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Same order number leaves the row untouched on some drivers.
		if _, err := r.GetPick(id, userID); err != nil {
			return nil, err
		}
	}
	return r.GetPick(id, userID)
}

// DeletePick removes a pick owned by userID.
func (r *Repository) DeletePick(id, userID uint) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&entities.Pick{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPickNotFound
	}
	return nil
}
