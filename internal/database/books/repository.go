// Package books provides database operations for the book catalogue.
//
// This package implements the BookStore interface defined in internal/http/books.go.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByID(id)
//	top, err := repo.TopPages(book.ID)
package books

import (
	"errors"

	"gorm.io/gorm"

	"github.com/sudarmaa/sudarmaa/internal/database/categories"
	"github.com/sudarmaa/sudarmaa/internal/database/pages"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrTitleRequired = errors.New("title is required")
)

// BookUpdate holds the fields of a partial book update. Nil fields are left unchanged.
type BookUpdate struct {
	Title       *string
	Description *string
	CategoryID  *uint
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook inserts a book. The book must reference an existing category.
func (r *Repository) CreateBook(book *entities.Book) error {
	if book.Title == "" {
		return ErrTitleRequired
	}
	if err := r.requireCategory(book.CategoryID); err != nil {
		return err
	}
	return r.db.Omit("Category", "Creator", "Pages").Create(book).Error
}

func (r *Repository) requireCategory(categoryID uint) error {
	if categoryID == 0 {
		return categories.ErrCategoryNotFound
	}
	_, err := categories.NewRepository(r.db).GetCategoryByID(categoryID)
	return err
}

// GetBookByID retrieves a book with its category.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Category").First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetAllBooks lists books ordered by title. A zero categoryID lists every category.
func (r *Repository) GetAllBooks(categoryID uint) ([]entities.Book, error) {
	var books []entities.Book
	query := r.db.Preload("Category").Order("title ASC, id ASC")
	if categoryID > 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	err := query.Find(&books).Error
	return books, err
}

// SearchBooks searches books by title (case-insensitive partial match).
func (r *Repository) SearchBooks(query string) ([]entities.Book, error) {
	var books []entities.Book
	searchPattern := "%" + query + "%"
	err := r.db.Preload("Category").
		Where("LOWER(title) LIKE LOWER(?)", searchPattern).
		Order("title ASC, id ASC").
		Find(&books).Error
	return books, err
}

// UpdateBook applies a partial update and returns the reloaded book.
func (r *Repository) UpdateBook(id uint, update BookUpdate) (*entities.Book, error) {
	if _, err := r.GetBookByID(id); err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if update.Title != nil {
		if *update.Title == "" {
			return nil, ErrTitleRequired
		}
		changes["title"] = *update.Title
	}
	if update.Description != nil {
		changes["description"] = *update.Description
	}
	if update.CategoryID != nil {
		if err := r.requireCategory(*update.CategoryID); err != nil {
			return nil, err
		}
		changes["category_id"] = *update.CategoryID
	}

	if len(changes) > 0 {
		if err := r.db.Model(&entities.Book{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return nil, err
		}
	}
	return r.GetBookByID(id)
}

// SetIcon stores a new icon path (empty clears it) and returns the previous one.
func (r *Repository) SetIcon(id uint, path string) (string, error) {
	book, err := r.GetBookByID(id)
	if err != nil {
		return "", err
	}
	if err := r.db.Model(&entities.Book{}).Where("id = ?", id).Update("icon", path).Error; err != nil {
		return "", err
	}
	return book.Icon, nil
}

// TopPages returns the book's parentless pages ordered by siblings_order.
func (r *Repository) TopPages(bookID uint) ([]entities.Page, error) {
	return pages.NewRepository(r.db).TopPages(bookID)
}

// DeleteBook removes a book together with its pages, picks and shelf links.
func (r *Repository) DeleteBook(id uint) error {
	if _, err := r.GetBookByID(id); err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM shelf_books WHERE book_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.Pick{}).Error; err != nil {
			return err
		}
		// Subpages first so self-referencing rows never outlive their parent.
		if err := tx.Where("book_id = ? AND parent_page_id IS NOT NULL", id).Delete(&entities.Page{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.Page{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Book{}, id).Error
	})
}
