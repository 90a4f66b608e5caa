package shelves

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sudarmaa/sudarmaa/internal/database"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB), db.DB
}

func createUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	t.Helper()
	user := &entities.User{Username: username, Email: username + "@example.com", Role: entities.UserRoleViewer}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createBook(t *testing.T, db *gorm.DB, title string) *entities.Book {
	t.Helper()
	category := &entities.Category{Title: "General"}
	require.NoError(t, db.Create(category).Error)
	book := &entities.Book{Title: title, CategoryID: category.ID}
	require.NoError(t, db.Create(book).Error)
	return book
}

func TestRepository_CreateDefaultShelves(t *testing.T) {
	repo, db := setupTestDB(t)
	user := createUser(t, db, "alice")

	created, err := repo.CreateDefaultShelves(user.ID)
	require.NoError(t, err)
	require.Len(t, created, 3)

	shelves, err := repo.GetShelvesForUser(user.ID, false)
	require.NoError(t, err)
	require.Len(t, shelves, 3)
	for i, shelf := range shelves {
		assert.Equal(t, DefaultShelfTitles[i], shelf.Title)
		assert.Equal(t, user.ID, shelf.UserID)
		assert.True(t, shelf.IsPublic)
	}
}

func TestRepository_CreateDefaultShelves_NotIdempotent(t *testing.T) {
	repo, db := setupTestDB(t)
	user := createUser(t, db, "alice")

	_, err := repo.CreateDefaultShelves(user.ID)
	require.NoError(t, err)
	_, err = repo.CreateDefaultShelves(user.ID)
	require.NoError(t, err)

	shelves, err := repo.GetShelvesForUser(user.ID, false)
	require.NoError(t, err)
	assert.Len(t, shelves, 6)
}

func TestRepository_CreateDefaultShelves_RollsBackWithTransaction(t *testing.T) {
	_, db := setupTestDB(t)
	failure := errors.New("registration failed")

	err := db.Transaction(func(tx *gorm.DB) error {
		user := &entities.User{Username: "carol", Email: "carol@example.com", Role: entities.UserRoleViewer}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if _, err := NewRepository(tx).CreateDefaultShelves(user.ID); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	var users, shelves int64
	require.NoError(t, db.Model(&entities.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&entities.Shelf{}).Count(&shelves).Error)
	assert.Zero(t, users)
	assert.Zero(t, shelves)
}

func TestRepository_CreateShelf(t *testing.T) {
	repo, db := setupTestDB(t)
	user := createUser(t, db, "alice")

	shelf, err := repo.CreateShelf(user.ID, "private notes", false)
	require.NoError(t, err)
	assert.False(t, shelf.IsPublic)

	loaded, err := repo.GetShelf(shelf.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsPublic)
	assert.Equal(t, "alice:private notes", loaded.String())

	_, err = repo.CreateShelf(user.ID, "", true)
	assert.ErrorIs(t, err, ErrTitleRequired)
}

func TestRepository_GetShelvesForUser_PublicOnly(t *testing.T) {
	repo, db := setupTestDB(t)
	user := createUser(t, db, "alice")

	_, err := repo.CreateShelf(user.ID, "open", true)
	require.NoError(t, err)
	_, err = repo.CreateShelf(user.ID, "hidden", false)
	require.NoError(t, err)

	public, err := repo.GetShelvesForUser(user.ID, true)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "open", public[0].Title)

	all, err := repo.GetShelvesForUser(user.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepository_UpdateShelf(t *testing.T) {
	repo, db := setupTestDB(t)
	user := createUser(t, db, "alice")
	shelf, err := repo.CreateShelf(user.ID, "old", true)
	require.NoError(t, err)

	title := "new"
	hidden := false
	updated, err := repo.UpdateShelf(shelf.ID, ShelfUpdate{Title: &title, IsPublic: &hidden})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.False(t, updated.IsPublic)

	_, err = repo.UpdateShelf(999, ShelfUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrShelfNotFound)
}

func TestRepository_Books(t *testing.T) {
	repo, db := setupTestDB(t)
	user := createUser(t, db, "alice")
	shelf, err := repo.CreateShelf(user.ID, "read", true)
	require.NoError(t, err)
	dune := createBook(t, db, "Dune")
	solaris := createBook(t, db, "Solaris")

	require.NoError(t, repo.AddBook(shelf.ID, solaris.ID))
	require.NoError(t, repo.AddBook(shelf.ID, dune.ID))
	require.NoError(t, repo.AddBook(shelf.ID, dune.ID))

	loaded, err := repo.GetShelf(shelf.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Books, 2)
	assert.Equal(t, "Dune", loaded.Books[0].Title)

	assert.ErrorIs(t, repo.AddBook(shelf.ID, 999), ErrBookNotFound)
	assert.ErrorIs(t, repo.AddBook(999, dune.ID), ErrShelfNotFound)

	require.NoError(t, repo.RemoveBook(shelf.ID, dune.ID))
	loaded, err = repo.GetShelf(shelf.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Books, 1)
	assert.Equal(t, "Solaris", loaded.Books[0].Title)
}

func TestRepository_DeleteShelf(t *testing.T) {
	repo, db := setupTestDB(t)
	user := createUser(t, db, "alice")
	shelf, err := repo.CreateShelf(user.ID, "read", true)
	require.NoError(t, err)
	book := createBook(t, db, "Dune")
	require.NoError(t, repo.AddBook(shelf.ID, book.ID))

	require.NoError(t, repo.DeleteShelf(shelf.ID))
	_, err = repo.GetShelf(shelf.ID)
	assert.ErrorIs(t, err, ErrShelfNotFound)

	var links int64
	require.NoError(t, db.Table("shelf_books").Count(&links).Error)
	assert.Zero(t, links)
}

func TestRepository_DeleteShelvesForUser(t *testing.T) {
	repo, db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	_, err := repo.CreateDefaultShelves(alice.ID)
	require.NoError(t, err)
	bobs, err := repo.CreateDefaultShelves(bob.ID)
	require.NoError(t, err)

	book := createBook(t, db, "Dune")
	require.NoError(t, repo.AddBook(bobs[0].ID, book.ID))

	require.NoError(t, repo.DeleteShelvesForUser(bob.ID))

	remaining, err := repo.GetShelvesForUser(bob.ID, false)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	kept, err := repo.GetShelvesForUser(alice.ID, false)
	require.NoError(t, err)
	assert.Len(t, kept, 3)
}
