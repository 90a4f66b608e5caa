package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudarmaa/sudarmaa/internal/auth"
	"github.com/sudarmaa/sudarmaa/internal/config"
	"github.com/sudarmaa/sudarmaa/internal/database"
	"github.com/sudarmaa/sudarmaa/internal/database/books"
	"github.com/sudarmaa/sudarmaa/internal/database/categories"
	"github.com/sudarmaa/sudarmaa/internal/database/groups"
	"github.com/sudarmaa/sudarmaa/internal/database/pages"
	"github.com/sudarmaa/sudarmaa/internal/database/picks"
	"github.com/sudarmaa/sudarmaa/internal/database/shelves"
	"github.com/sudarmaa/sudarmaa/internal/database/users"
	"github.com/sudarmaa/sudarmaa/internal/entities"
	"github.com/sudarmaa/sudarmaa/internal/media"
)

type routerFixture struct {
	router  *gin.Engine
	db      *database.Database
	service *auth.Service
}

func setupRouter(t *testing.T, mode config.AuthMode) *routerFixture {
	t.Helper()
	db := setupTestDB(t)
	groupsRepo := groups.NewRepository(db.DB)
	_, err := groupsRepo.EnsurePublisherGroup()
	require.NoError(t, err)

	authCfg := config.Auth{Mode: mode, BcryptCost: 4}
	service := auth.NewService(db.DB, authCfg)
	mw := auth.NewMiddleware(service, nil, authCfg)
	if mode != config.AuthModeLocal {
		local, err := service.EnsureLocalUser()
		require.NoError(t, err)
		mw.UseLocalUser(local)
	}
	icons, err := media.NewStore(t.TempDir(), 0)
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Database:       db,
		Categories:     categories.NewRepository(db.DB),
		Books:          books.NewRepository(db.DB),
		Pages:          pages.NewRepository(db.DB),
		Shelves:        shelves.NewRepository(db.DB),
		Picks:          picks.NewRepository(db.DB),
		Groups:         groupsRepo,
		Users:          users.NewRepository(db.DB),
		Icons:          icons,
		AuthService:    service,
		AuthMiddleware: mw,
		AuthConfig:     authCfg,
		Version:        "test",
	})
	return &routerFixture{router: router, db: db, service: service}
}

func (f *routerFixture) token(t *testing.T, username string, role entities.UserRole) (*entities.User, string) {
	t.Helper()
	user, err := f.service.CreateUser(username, username+"@example.com", testPassword, role)
	require.NoError(t, err)
	token, err := f.service.GenerateToken(user.ID)
	require.NoError(t, err)
	return user, token
}

func (f *routerFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	return performJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		f.router.ServeHTTP(w, r)
	}), method, path, body)
}

func TestRouter_LocalAuth(t *testing.T) {
	f := setupRouter(t, config.AuthModeLocal)
	_, adminToken := f.token(t, "root", entities.UserRoleAdmin)
	viewer, viewerToken := f.token(t, "reader", entities.UserRoleViewer)

	t.Run("health is public", func(t *testing.T) {
		w := f.do(http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("api requires authentication", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/books", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		w = f.do(http.MethodGet, "/api/books", viewerToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	var categoryID uint
	t.Run("category writes need permissions", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/categories", viewerToken, gin.H{"title": "Science"})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = f.do(http.MethodPost, "/api/categories", adminToken, gin.H{"title": "Science"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var category entities.Category
		decodeJSON(t, w, &category)
		categoryID = category.ID
	})

	t.Run("book creation needs add_book", func(t *testing.T) {
		body := gin.H{"title": "Cosmos", "category_id": categoryID}

		w := f.do(http.MethodPost, "/api/books", viewerToken, body)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = f.do(http.MethodPost, "/api/groups/publishers/members/"+itoa(viewer.ID), viewerToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, "only admins manage groups")

		w = f.do(http.MethodPost, "/api/groups/publishers/members/"+itoa(viewer.ID), adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = f.do(http.MethodPost, "/api/books", viewerToken, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var book entities.Book
		decodeJSON(t, w, &book)
		require.NotNil(t, book.CreatorID)
		assert.Equal(t, viewer.ID, *book.CreatorID)

		w = f.do(http.MethodGet, "/api/books/search?q=cos", viewerToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("registration gives default shelves", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/shelves", viewerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list shelfListResponse
		decodeJSON(t, w, &list)
		require.Equal(t, 3, list.Count)
		assert.Equal(t, "read", list.Shelves[0].Title)
		assert.Equal(t, "to-read", list.Shelves[1].Title)
		assert.Equal(t, "currently-reading", list.Shelves[2].Title)
	})

	t.Run("admin routes", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/users", viewerToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		w = f.do(http.MethodGet, "/api/users", adminToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = f.do(http.MethodPatch, "/api/users/me", viewerToken, gin.H{"email": "reader2@example.com"})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("task routes need a queue", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/tasks/types", adminToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("auth routes are mounted", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/auth/me", viewerToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRouter_NoAuth(t *testing.T) {
	f := setupRouter(t, config.AuthModeNone)

	w := f.do(http.MethodPost, "/api/categories", "", gin.H{"title": "Fiction"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var category entities.Category
	decodeJSON(t, w, &category)

	w = f.do(http.MethodPost, "/api/books", "", gin.H{"title": "Dune", "category_id": category.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(http.MethodGet, "/api/shelves", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list shelfListResponse
	decodeJSON(t, w, &list)
	assert.Equal(t, 3, list.Count, "the local user owns the default shelves")

	w = f.do(http.MethodPost, "/api/auth/login", "", gin.H{"login": "local", "password": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
