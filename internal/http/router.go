package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sudarmaa/sudarmaa/internal/auth"
	"github.com/sudarmaa/sudarmaa/internal/config"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

// corsMiddleware allows the configured browser origins. A single "*" allows
// any origin without credentials.
func corsMiddleware(cfg config.CORS) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type", auth.CSRFTokenHeader},
		ExposeHeaders: []string{auth.CSRFTokenHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	return cors.New(corsConfig)
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.AuthConfig.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}
	if len(cfg.CORS.AllowedOrigins) > 0 {
		router.Use(corsMiddleware(cfg.CORS))
	}

	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.LoadAndSave())
	}
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.AuthConfig.SecureCookies, cfg.AuthService))
	}
	mw := cfg.AuthMiddleware
	router.Use(mw.Handler())

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.RateLimiter)
		authController.RegisterRoutes(router.Group("/api/auth"))
	}

	api := router.Group("/api")
	permissions := cfg.AuthService
	adminOnly := mw.RequireRole(entities.UserRoleAdmin)

	categories := NewCategoriesController(cfg.Categories)
	api.GET("/categories", categories.ListCategories)
	api.POST("/categories", mw.RequirePermission(permissions, "add_category"), categories.CreateCategory)
	api.GET("/categories/:id", categories.GetCategory)
	api.PATCH("/categories/:id", mw.RequirePermission(permissions, "change_category"), categories.RenameCategory)
	api.DELETE("/categories/:id", mw.RequirePermission(permissions, "delete_category"), categories.DeleteCategory)

	books := NewBooksController(cfg.Books, cfg.Icons, permissions)
	pages := NewPagesController(cfg.Pages, cfg.Books, permissions)
	api.GET("/books", books.ListBooks)
	api.GET("/books/search", books.SearchBooks)
	api.POST("/books", mw.RequirePermission(permissions, entities.PermissionAddBook), books.CreateBook)
	api.GET("/books/:id", books.GetBook)
	api.PATCH("/books/:id", books.UpdateBook)
	api.DELETE("/books/:id", books.DeleteBook)
	api.GET("/books/:id/pages", books.TopPages)
	api.GET("/books/:id/outline", pages.BookOutline)
	if cfg.Icons != nil {
		api.PUT("/books/:id/icon", books.UploadIcon)
		api.GET("/books/:id/icon", books.GetIcon)
		api.DELETE("/books/:id/icon", books.DeleteIcon)
	}

	api.POST("/pages", pages.CreatePage)
	api.GET("/pages/:id", pages.GetPage)
	api.PATCH("/pages/:id", pages.UpdatePage)
	api.DELETE("/pages/:id", pages.DeletePage)
	api.POST("/pages/:id/move", pages.MovePage)
	api.GET("/pages/:id/siblings", pages.Siblings)
	api.GET("/pages/:id/subpages", pages.Subpages)
	api.GET("/pages/:id/next", pages.Next)
	api.GET("/pages/:id/prev", pages.Prev)

	shelves := NewShelvesController(cfg.Shelves)
	api.GET("/shelves", shelves.ListMyShelves)
	api.POST("/shelves", shelves.CreateShelf)
	api.GET("/shelves/:id", shelves.GetShelf)
	api.PATCH("/shelves/:id", shelves.UpdateShelf)
	api.DELETE("/shelves/:id", shelves.DeleteShelf)
	api.POST("/shelves/:id/books/:bookId", shelves.AddBook)
	api.DELETE("/shelves/:id/books/:bookId", shelves.RemoveBook)
	api.GET("/users/:id/shelves", shelves.ListUserShelves)

	picks := NewPicksController(cfg.Picks)
	api.GET("/picks", picks.ListPicks)
	api.POST("/picks", picks.CreatePick)
	api.PATCH("/picks/:id", picks.ReorderPick)
	api.DELETE("/picks/:id", picks.DeletePick)

	groups := NewGroupsController(cfg.Groups)
	api.GET("/groups/publishers", adminOnly, groups.GetPublishers)
	api.POST("/groups/publishers/members/:userId", adminOnly, groups.AddPublisher)
	api.DELETE("/groups/publishers/members/:userId", adminOnly, groups.RemovePublisher)

	users := NewUsersController(cfg.Users, cfg.AuthService)
	api.PATCH("/users/me", users.UpdateMe)
	api.GET("/users", adminOnly, users.ListUsers)
	api.POST("/users", adminOnly, users.CreateUser)
	api.PATCH("/users/:id/role", adminOnly, users.SetRole)
	api.DELETE("/users/:id", adminOnly, users.DeleteUser)

	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue)
		api.GET("/tasks/types", adminOnly, tasksController.ListTaskTypes)
		api.GET("/tasks/:id", adminOnly, tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", adminOnly, tasksController.RunTask)
	}

	return router
}
