package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/sudarmaa/sudarmaa/internal/auth"
	"github.com/sudarmaa/sudarmaa/internal/database"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// asUser makes every request on router act as user.
func asUser(user *entities.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, user.ID)
		c.Set(auth.ContextKeyUsername, user.Username)
		c.Set(auth.ContextKeyRole, user.Role)
		c.Set(auth.ContextKeyAuthType, auth.AuthTypeSession)
		c.Next()
	}
}

func createUser(t *testing.T, db *database.Database, username string, role entities.UserRole) *entities.User {
	t.Helper()
	user := &entities.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, db.DB.Omit("Groups", "Shelves").Create(user).Error)
	return user
}

func createCategory(t *testing.T, db *database.Database, title string) *entities.Category {
	t.Helper()
	category := &entities.Category{Title: title}
	require.NoError(t, db.DB.Create(category).Error)
	return category
}

func createBook(t *testing.T, db *database.Database, title string, categoryID uint, creatorID *uint) *entities.Book {
	t.Helper()
	book := &entities.Book{Title: title, CategoryID: categoryID, CreatorID: creatorID}
	require.NoError(t, db.DB.Omit("Category", "Creator", "Pages").Create(book).Error)
	return book
}

func createPage(t *testing.T, db *database.Database, bookID uint, parentID *uint, title string, order int) *entities.Page {
	t.Helper()
	page := &entities.Page{BookID: bookID, ParentPageID: parentID, Title: title, SiblingsOrder: order}
	require.NoError(t, db.DB.Omit("ParentPage", "Book", "Subpages").Create(page).Error)
	return page
}

func performJSON(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func ptr[T any](v T) *T {
	return &v
}

// permissionStub answers every permission question the same way.
type permissionStub struct {
	allowed bool
	err     error
}

func (p permissionStub) UserHasPermission(uint, string) (bool, error) {
	return p.allowed, p.err
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
