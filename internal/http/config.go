package http

import (
	"github.com/sudarmaa/sudarmaa/internal/auth"
	"github.com/sudarmaa/sudarmaa/internal/config"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database   Pinger
	Categories CategoryStore
	Books      BookStore
	Pages      PageStore
	Shelves    ShelfStore
	Picks      PickStore
	Groups     GroupStore
	Users      UserStore

	// Icon files
	Icons IconStore

	// Authentication. AuthService doubles as the permission checker and
	// account service.
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	RateLimiter    *auth.RateLimiter
	AuthConfig     config.Auth

	// CSRFSecret enables CSRF protection when set (local auth mode only)
	CSRFSecret []byte

	CORS config.CORS

	// Task queue (optional)
	TaskQueue TaskQueue

	// Application info
	Version string
}
