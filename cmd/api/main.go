package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/blog/internal/auth"
	"github.com/crucial707/blog/internal/config"
	"github.com/crucial707/blog/internal/db"
	"github.com/crucial707/blog/internal/handlers"
	"github.com/crucial707/blog/internal/middleware"
	"github.com/crucial707/blog/internal/repo"
	"github.com/crucial707/blog/internal/search"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {

	// Load configuration
	cfg := config.Load()
	setupLogger(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == config.DefaultJWTSecret {
		slog.Warn("using default JWT_SECRET; set JWT_SECRET before exposing this server")
	}

	// Migrations before the pool so a bad schema fails fast
	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.DSN()); err != nil {
			slog.Error("migrate", "err", err)
			os.Exit(1)
		}
	}

	database, err := db.Connect(cfg.DSN(), db.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.Info("connected to database")

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(database, cfg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		useTLS := cfg.TLSCertFile != ""
		slog.Info("starting server", "addr", srv.Addr, "tls", useTLS)
		var err error
		if useTLS {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("server", "err", err)
			os.Exit(1)
		}
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown", "err", err)
	}
}

func setupLogger(format string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

// newRouter builds the full HTTP surface. Split out of main so tests can drive it with sqlmock.
func newRouter(database *sql.DB, cfg config.Config) http.Handler {
	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.SessionTTL())
	users := repo.NewUserRepo(database)
	posts := repo.NewPostRepo(database)
	audit := repo.NewAuditRepo(database)

	render := handlers.JSONRenderer{}

	blogHandler := &handlers.BlogHandler{
		Posts:       posts,
		Search:      search.NewBuilder(cfg.SearchStrategy),
		Render:      render,
		PageSize:    cfg.PageSize,
		SearchLimit: cfg.SearchLimit,
	}
	authHandler := &handlers.AuthHandler{
		Auth:          auth.NewService(users, tokens, cfg.BcryptCost),
		Verifier:      tokens,
		Render:        render,
		SessionTTL:    cfg.SessionTTL(),
		SecureCookies: cfg.SecureCookies,
	}
	adminHandler := &handlers.AdminHandler{
		Posts:    posts,
		Audit:    audit,
		Render:   render,
		PageSize: cfg.PageSize,
	}
	auditHandler := &handlers.AuditHandler{Repo: audit}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(cfg.MaxBodyBytes))
	r.Use(middleware.MethodOverride)

	// Operational endpoints
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := database.PingContext(ctx); err != nil {
			slog.Warn("ready check failed", "err", err)
			handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public pages
	r.Get("/", blogHandler.Home)
	r.Get("/post/{id}", blogHandler.Post)
	r.Post("/search", blogHandler.SearchPosts)
	r.Get("/about", blogHandler.About)
	r.Get("/contact", blogHandler.Contact)

	// Auth
	r.Get("/admin", authHandler.LoginPage)
	r.Post("/admin", authHandler.Login)
	r.Get("/logout", authHandler.Logout)
	r.Get("/unauthorized", authHandler.Unauthorized)
	if cfg.AllowRegistration && !cfg.RegistrationRequiresAuth {
		r.Post("/register", authHandler.Register)
	}

	// Session-protected admin
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionGuard(tokens, middleware.NewUnauthorizedPolicy(cfg.AuthFailurePolicy, cfg.LoginPath)))

		r.Get("/dashboard", adminHandler.Dashboard)
		r.Get("/add-post", adminHandler.AddPostPage)
		r.Post("/add-post", adminHandler.AddPost)
		r.Get("/edit-post/{id}", adminHandler.EditPostPage)
		r.Put("/edit-post/{id}", adminHandler.EditPost)
		r.Delete("/delete-post/{id}", adminHandler.DeletePost)
		r.Get("/audit", auditHandler.ListAudit)

		if cfg.AllowRegistration && cfg.RegistrationRequiresAuth {
			r.Post("/register", authHandler.Register)
		}
	})

	return r
}
