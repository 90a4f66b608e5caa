// Package categories provides database operations for book categories.
//
// This package implements the CategoryStore interface defined in internal/http/categories.go.
package categories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/sudarmaa/sudarmaa/internal/entities"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category still has books")
)

// Repository handles all category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new categories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateCategory creates a new category.
func (r *Repository) CreateCategory(title string) (*entities.Category, error) {
	category := &entities.Category{Title: title}
	if err := r.db.Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// GetCategoryByID retrieves a category by ID.
func (r *Repository) GetCategoryByID(id uint) (*entities.Category, error) {
	var category entities.Category
	err := r.db.First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetAllCategories returns every category ordered by title.
func (r *Repository) GetAllCategories() ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.Order("title ASC, id ASC").Find(&categories).Error
	return categories, err
}

// RenameCategory changes a category's title.
func (r *Repository) RenameCategory(id uint, title string) (*entities.Category, error) {
	category, err := r.GetCategoryByID(id)
	if err != nil {
		return nil, err
	}
	if err := r.db.Model(category).Update("title", title).Error; err != nil {
		return nil, err
	}
	category.Title = title
	return category, nil
}

// DeleteCategory deletes a category that no book belongs to.
func (r *Repository) DeleteCategory(id uint) error {
	if _, err := r.GetCategoryByID(id); err != nil {
		return err
	}

	var books int64
	if err := r.db.Model(&entities.Book{}).Where("category_id = ?", id).Count(&books).Error; err != nil {
		return err
	}
	if books > 0 {
		return ErrCategoryInUse
	}

	return r.db.Delete(&entities.Category{}, id).Error
}
