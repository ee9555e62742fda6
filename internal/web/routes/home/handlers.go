// Package home renders the landing page: featured recipes and categories.
package home

import (
	"log/slog"
	"net/http"

	"github.com/flosch/pongo2/v6"
	"golang.org/x/sync/errgroup"

	"github.com/matt-dz/recipebox/internal/env"
	"github.com/matt-dz/recipebox/internal/recipe"
	webError "github.com/matt-dz/recipebox/internal/web/error"
	"github.com/matt-dz/recipebox/internal/web/render"
	"github.com/matt-dz/recipebox/internal/web/requestid"
)

const FeaturedCount = 3

type card struct {
	ID          int64
	Name        string
	Description string
	PhotoURL    string
}

func cards(recipes []recipe.Recipe) []card {
	out := make([]card, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, card{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			PhotoURL:    r.PhotoURL(),
		})
	}
	return out
}

// HandleHome fetches recipes and categories concurrently. A failed fetch
// only affects its own section; the page is still served with 200.
func HandleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	env := env.EnvFromCtx(ctx)

	var (
		recipes       []recipe.Recipe
		categories    []recipe.Category
		recipesErr    error
		categoriesErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		recipes, recipesErr = env.Backend.ListRecipes(ctx)
		return nil
	})
	g.Go(func() error {
		categories, categoriesErr = env.Backend.ListCategories(ctx)
		return nil
	})
	_ = g.Wait()

	if recipesErr != nil {
		env.Logger.ErrorContext(ctx, "failed to list recipes", slog.Any("error", recipesErr))
	}
	if categoriesErr != nil {
		env.Logger.ErrorContext(ctx, "failed to list categories", slog.Any("error", categoriesErr))
	}

	err := env.Renderer.Page(w, http.StatusOK, render.Home, pongo2.Context{
		"featured":         cards(recipe.Featured(recipes, FeaturedCount)),
		"recipes_error":    recipesErr != nil,
		"categories":       categories,
		"categories_error": categoriesErr != nil,
	})
	if err != nil {
		env.Logger.ErrorContext(ctx, "failed to render home", slog.Any("error", err))
		webError.RenderError(w, env.Renderer, env.Logger, webError.InternalServerError,
			requestid.ExtractRequestID(ctx), "/")
	}
}
