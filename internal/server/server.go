// Package server is the composition root: it wires the database, the media
// uploader, the auth services and the handlers into a chi router and runs
// the HTTP server with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/vidstream/internal/auth"
	"github.com/sakif/vidstream/internal/handler"
	"github.com/sakif/vidstream/internal/media"
	"github.com/sakif/vidstream/internal/middleware"
	sqliteRepo "github.com/sakif/vidstream/internal/repository/sqlite"
	"github.com/sakif/vidstream/internal/service"
)

// Config carries everything main.go reads from the environment.
type Config struct {
	Port   int
	DBPath string

	AccessTokenSecret  string
	AccessTokenTTL     time.Duration
	RefreshTokenSecret string
	RefreshTokenTTL    time.Duration
	BcryptCost         int

	Media media.S3Config
}

// Server owns the router and the resources that must be released on
// shutdown (currently the database).
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the dependency graph:
//
//	sqlite.DB → UserService ← TokenService, PasswordService, S3Uploader
//	UserService → UserHandler → routes
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring token service: %w", err)
	}

	uploads, err := media.NewS3Uploader(context.Background(), cfg.Media)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring media uploader: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens, uploads)

	return s, nil
}

func (s *Server) setupRoutes(tokens *auth.TokenService, uploads media.Uploader) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	passwords := auth.NewPasswordService(s.config.BcryptCost)
	users := service.NewUserService(s.db, tokens, passwords, uploads, s.logger)

	userHandler := handler.NewUserHandler(users, tokens.AccessTTL(), tokens.RefreshTTL(), s.logger)
	healthHandler := handler.NewHealthHandler(s.db)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", userHandler.HandleRegister)
		r.Post("/login", userHandler.HandleLogin)
		r.Post("/refresh-token", userHandler.HandleRefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/logout", userHandler.HandleLogout)
			r.Post("/change-password", userHandler.HandleChangePassword)
			r.Get("/me", userHandler.HandleCurrentUser)
			r.Patch("/me", userHandler.HandleUpdateProfile)
			r.Patch("/me/avatar", userHandler.HandleUpdateAvatar)
			r.Patch("/me/cover-image", userHandler.HandleUpdateCoverImage)
		})
	})
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight
// requests and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
