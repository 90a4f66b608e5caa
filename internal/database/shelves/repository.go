// Package shelves provides database operations for user reading lists.
//
// # Usage
//
//	db.Transaction(func(tx *gorm.DB) error {
//		if err := tx.Create(user).Error; err != nil {
//			return err
//		}
//		_, err := shelves.NewRepository(tx).CreateDefaultShelves(user.ID)
//		return err
//	})
package shelves

import (
	"errors"

	"gorm.io/gorm"

	"github.com/sudarmaa/sudarmaa/internal/entities"
)

// DefaultShelfTitles are the shelves every new user starts with, in creation order.
var DefaultShelfTitles = []string{"read", "to-read", "currently-reading"}

var (
	ErrShelfNotFound = errors.New("shelf not found")
	ErrBookNotFound  = errors.New("book not found")
	ErrTitleRequired = errors.New("title is required")
)

// ShelfUpdate holds the fields of a partial shelf update. Nil fields are left unchanged.
type ShelfUpdate struct {
	Title    *string
	IsPublic *bool
}

// Repository handles all shelf database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new shelves repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateDefaultShelves creates one public shelf per DefaultShelfTitles entry.
// It does not check for existing shelves; calling it twice duplicates them.
func (r *Repository) CreateDefaultShelves(userID uint) ([]entities.Shelf, error) {
	shelves := make([]entities.Shelf, 0, len(DefaultShelfTitles))
	for _, title := range DefaultShelfTitles {
		shelves = append(shelves, entities.Shelf{Title: title, UserID: userID, IsPublic: true})
	}
	if err := r.db.Omit("User", "Books").Create(&shelves).Error; err != nil {
		return nil, err
	}
	return shelves, nil
}

// CreateShelf creates a shelf for a user.
func (r *Repository) CreateShelf(userID uint, title string, isPublic bool) (*entities.Shelf, error) {
	if title == "" {
		return nil, ErrTitleRequired
	}
	shelf := &entities.Shelf{Title: title, UserID: userID, IsPublic: isPublic}
	if err := r.db.Omit("User", "Books").Create(shelf).Error; err != nil {
		return nil, err
	}
	return shelf, nil
}

// GetShelf retrieves a shelf with its owner and books.
func (r *Repository) GetShelf(id uint) (*entities.Shelf, error) {
	var shelf entities.Shelf
	err := r.db.Preload("User").
		Preload("Books", func(db *gorm.DB) *gorm.DB { return db.Order("books.title ASC") }).
		First(&shelf, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShelfNotFound
	}
	if err != nil {
		return nil, err
	}
	return &shelf, nil
}

// GetShelvesForUser lists a user's shelves in creation order.
func (r *Repository) GetShelvesForUser(userID uint, publicOnly bool) ([]entities.Shelf, error) {
	var shelves []entities.Shelf
	query := r.db.Where("user_id = ?", userID)
	if publicOnly {
		query = query.Where("is_public = ?", true)
	}
	err := query.Order("id ASC").Find(&shelves).Error
	return shelves, err
}

// UpdateShelf renames a shelf or changes its visibility.
func (r *Repository) UpdateShelf(id uint, update ShelfUpdate) (*entities.Shelf, error) {
	if _, err := r.GetShelf(id); err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if update.Title != nil {
		if *update.Title == "" {
			return nil, ErrTitleRequired
		}
		changes["title"] = *update.Title
	}
	if update.IsPublic != nil {
		changes["is_public"] = *update.IsPublic
	}
	if len(changes) > 0 {
		if err := r.db.Model(&entities.Shelf{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return nil, err
		}
	}
	return r.GetShelf(id)
}

// DeleteShelf deletes a shelf and its book links.
func (r *Repository) DeleteShelf(id uint) error {
	if _, err := r.GetShelf(id); err != nil {
		return err
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM shelf_books WHERE shelf_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Shelf{}, id).Error
	})
}

// DeleteShelvesForUser deletes every shelf a user owns and their book links.
func (r *Repository) DeleteShelvesForUser(userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM shelf_books WHERE shelf_id IN (SELECT id FROM shelves WHERE user_id = ?)", userID).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&entities.Shelf{}).Error
	})
}

// AddBook places a book on a shelf. Adding a book already on the shelf is a no-op.
func (r *Repository) AddBook(shelfID, bookID uint) error {
	if _, err := r.GetShelf(shelfID); err != nil {
		return err
	}
	var book entities.Book
	err := r.db.First(&book, bookID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBookNotFound
	}
	if err != nil {
		return err
	}
	return r.db.Model(&entities.Shelf{ID: shelfID}).Association("Books").Append(&book)
}

// RemoveBook takes a book off a shelf.
func (r *Repository) RemoveBook(shelfID, bookID uint) error {
	if _, err := r.GetShelf(shelfID); err != nil {
		return err
	}
	return r.db.Exec("DELETE FROM shelf_books WHERE shelf_id = ? AND book_id = ?", shelfID, bookID).Error
}
