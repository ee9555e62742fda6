// Package env provides a structure for managing application-wide dependencies.
package env

import (
	"context"
	"log/slog"

	"github.com/matt-dz/recipebox/internal/backend"
	"github.com/matt-dz/recipebox/internal/config"
	"github.com/matt-dz/recipebox/internal/draft"
	"github.com/matt-dz/recipebox/internal/log"
	"github.com/matt-dz/recipebox/internal/web/render"
)

type Env struct {
	Logger   *slog.Logger
	Backend  backend.API
	Drafts   *draft.Store
	Renderer *render.Renderer
	Config   config.Config
}

type envKeyType struct{}

var envKey envKeyType

// WithCtx stores env on the context.
func WithCtx(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey, env)
}

// EnvFromCtx returns the env stored on ctx, or a null env if there is none.
func EnvFromCtx(ctx context.Context) *Env {
	if env, ok := ctx.Value(envKey).(*Env); ok && env != nil {
		return env
	}
	return Null()
}

func Null() *Env {
	return &Env{
		Logger: log.NullLogger(),
		Drafts: draft.NewStore(draft.DefaultTTL),
	}
}
