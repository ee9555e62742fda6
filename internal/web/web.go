// Package web sets up and starts the HTTP server that renders the
// RecipeBox pages.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matt-dz/recipebox/internal/env"
	webError "github.com/matt-dz/recipebox/internal/web/error"
	"github.com/matt-dz/recipebox/internal/web/middleware"
	"github.com/matt-dz/recipebox/internal/web/render"
	"github.com/matt-dz/recipebox/internal/web/requestid"
	"github.com/matt-dz/recipebox/internal/web/routes/create"
	"github.com/matt-dz/recipebox/internal/web/routes/home"
	"github.com/matt-dz/recipebox/internal/web/routes/ping"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// handleNotFound renders the navigation shell with an empty main area.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	env := env.EnvFromCtx(r.Context())
	if err := env.Renderer.Page(w, http.StatusNotFound, render.NotFound, nil); err != nil {
		env.Logger.ErrorContext(r.Context(), "failed to render not found page", slog.Any("error", err))
		http.Error(w, webError.NotFound.Message(), http.StatusNotFound)
	}
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	env := env.EnvFromCtx(r.Context())
	webError.RenderError(w, env.Renderer, env.Logger, webError.MethodNotAllowed,
		requestid.ExtractRequestID(r.Context()), "/")
}

func addRoutes(router chi.Router) {
	router.NotFound(handleNotFound)
	router.MethodNotAllowed(handleMethodNotAllowed)

	router.Get("/", home.HandleHome)
	router.Get("/ping", ping.HandlePing)

	router.Route("/create", func(r chi.Router) {
		r.Get("/", create.HandleNew)
		r.With(middleware.LimitBody(create.MaxRequestSize)).Post("/", create.HandlePost)
	})
}

// NewRouter builds the handler serving every page.
func NewRouter(env *env.Env) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.AddRequestID)
	router.Use(middleware.LogRequest(env.Logger))
	router.Use(middleware.InjectEnv(env))

	addRoutes(router)
	return router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, env *env.Env) error {
	addr := fmt.Sprintf(":%d", env.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(env),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errs := make(chan error, 1)
	go func() {
		env.Logger.Info(fmt.Sprintf("Listening at 0.0.0.0%s", addr))
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	env.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
