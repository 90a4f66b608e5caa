// Package auth provides authentication and authorization for the API.
//
// It supports two modes, selected with AUTH_MODE:
//   - "none": no login; every request acts as the built-in "local" admin user
//     (see Service.EnsureLocalUser), so shelves and picks still have an owner
//   - "local": users log in with a session cookie or an API bearer token
//
// Registration goes through Service.CreateUser, which creates the user and the
// default shelves in one transaction.
//
// # Configuration
//
//	AUTH_MODE=local
//	AUTH_SESSION_SECRET=<hex>     # CSRF signing key, generated when empty
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_TOKEN_EXPIRY=720h
//	AUTH_BCRYPT_COST=12
//	AUTH_SECURE_COOKIES=true
//	AUTH_ALLOW_SIGNUP=false
//
// # Usage
//
//	service := auth.NewService(db, cfg.Auth)
//	mw := auth.NewMiddleware(service, sessions, cfg.Auth)
//	router.Use(sessions.LoadAndSave(), mw.Handler())
//	router.POST("/api/books", mw.RequirePermission(service, entities.PermissionAddBook), h)
package auth
