package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

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
	http_controllers "github.com/sudarmaa/sudarmaa/internal/http"
	"github.com/sudarmaa/sudarmaa/internal/logging"
	"github.com/sudarmaa/sudarmaa/internal/media"
	"github.com/sudarmaa/sudarmaa/internal/scheduler"
	"github.com/sudarmaa/sudarmaa/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// SetupLogging installs the global zap logger. The returned func flushes it.
func SetupLogging(level string) (func(), error) {
	logger, err := logging.NewLogger(level)
	if err != nil {
		return nil, err
	}
	restore := zap.ReplaceGlobals(logger)
	return func() {
		_ = logger.Sync()
		restore()
	}, nil
}

// Bootstrap opens the database, migrates it, seeds permissions and makes sure
// the Publishers group holds add_book. A failure here must stop the process.
func Bootstrap(cfg *config.Config) (*database.Database, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	group, err := groups.NewRepository(db.DB).EnsurePublisherGroup()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure %s group: %w", entities.GroupPublishers, err)
	}
	zap.L().Info("publisher group ready", zap.Uint("group_id", group.ID), zap.Int("permissions", len(group.Permissions)))
	return db, nil
}

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}
	zap.L().Info("shutting down server", zap.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener so in-flight tasks can finish.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	zap.L().Info("server exited")
	return nil
}

// csrfSecret decodes AUTH_SESSION_SECRET, or generates a secret for this run.
func csrfSecret(configured string) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, nil
		}
		return []byte(configured), nil
	}
	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, err
	}
	zap.L().Warn("generated a session secret for this run; set AUTH_SESSION_SECRET to keep CSRF tokens valid across restarts")
	return hex.DecodeString(generated)
}

// Run wires every component and serves the API.
func Run(cfg *config.Config, version string) error {
	zap.L().Info("starting sudarmaa", zap.String("version", version))

	db, err := Bootstrap(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			zap.L().Error("error closing database", zap.Error(err))
		}
	}()

	pagesRepo := pages.NewRepository(db.DB)
	authService := auth.NewService(db.DB, cfg.Auth)

	icons, err := media.NewStore(cfg.Media.Dir, cfg.Media.MaxIconBytes)
	if err != nil {
		return fmt.Errorf("initialize media store: %w", err)
	}
	zap.L().Info("media store ready", zap.String("dir", icons.Root()))

	// Task queue and integrity scheduler
	var taskClient *tasks.Client
	var integrity *scheduler.IntegrityScheduler
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromConfig(cfg.Tasks))
		if err != nil {
			return fmt.Errorf("initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				zap.L().Error("error closing task client", zap.Error(err))
			}
		}()

		taskClient.Register(
			tasks.NewNormalizePageOrderQueue(pagesRepo),
			tasks.NewCheckPageIntegrityQueue(pagesRepo),
		)
		go taskClient.Start(ctx)

		if cfg.Integrity.Enabled {
			integrity = scheduler.NewIntegrityScheduler(taskClient, cfg.Integrity.Schedule)
			if err := integrity.Start(ctx); err != nil {
				return err
			}
		}
	} else if cfg.Integrity.Enabled {
		zap.L().Warn("integrity checks need the task queue; set TASKS_ENABLED=true")
	}

	// Authentication
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("get sql db for sessions: %w", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Database.Driver, cfg.Auth)
	if err != nil {
		return fmt.Errorf("initialize session manager: %w", err)
	}
	authMiddleware := auth.NewMiddleware(authService, sessionManager, cfg.Auth)

	var secret []byte
	var rateLimiter *auth.RateLimiter
	if cfg.Auth.Mode == config.AuthModeLocal {
		zap.L().Info("authentication mode: local")
		secret, err = csrfSecret(cfg.Auth.SessionSecret)
		if err != nil {
			return fmt.Errorf("csrf secret: %w", err)
		}
		rateLimiter = auth.NewRateLimiter(cfg.Auth.MaxLoginAttempts, cfg.Auth.RateLimitWindow, cfg.Auth.LockoutDuration)
		defer rateLimiter.Stop()

		if hasUsers, err := authService.HasUsers(); err == nil && !hasUsers {
			zap.L().Warn("no users found; POST /api/auth/setup to create an administrator")
		}
	} else {
		local, err := authService.EnsureLocalUser()
		if err != nil {
			return fmt.Errorf("ensure local user: %w", err)
		}
		authMiddleware.UseLocalUser(local)
		zap.L().Info("authentication mode: none", zap.String("acting_as", local.Username))
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Categories:     categories.NewRepository(db.DB),
		Books:          books.NewRepository(db.DB),
		Pages:          pagesRepo,
		Shelves:        shelves.NewRepository(db.DB),
		Picks:          picks.NewRepository(db.DB),
		Groups:         groups.NewRepository(db.DB),
		Users:          users.NewRepository(db.DB),
		Icons:          icons,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		SessionManager: sessionManager,
		RateLimiter:    rateLimiter,
		AuthConfig:     cfg.Auth,
		CSRFSecret:     secret,
		CORS:           cfg.CORS,
		Version:        version,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if integrity != nil {
			integrity.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		cancel()
	}

	return Serve(router, cfg, onShutdown)
}
