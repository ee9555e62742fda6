// Package backendtest provides an in-memory backend.API for handler tests.
package backendtest

import (
	"context"
	"sync"

	"github.com/matt-dz/recipebox/internal/backend"
	"github.com/matt-dz/recipebox/internal/recipe"
)

// Upload is a recorded CreateRecipe call.
type Upload struct {
	ContentType string
	Body        []byte
}

type Fake struct {
	mu sync.Mutex

	Recipes       []recipe.Recipe
	RecipesErr    error
	Categories    []recipe.Category
	CategoriesErr error

	// CreateFunc answers CreateRecipe; nil means success.
	CreateFunc func(ctx context.Context) (backend.CreateResult, error)

	CategoryCalls int
	Uploads       []Upload
}

var _ backend.API = (*Fake)(nil)

func (f *Fake) ListRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	if f.RecipesErr != nil {
		return nil, f.RecipesErr
	}
	return f.Recipes, nil
}

func (f *Fake) ListCategories(ctx context.Context) ([]recipe.Category, error) {
	f.mu.Lock()
	f.CategoryCalls++
	f.mu.Unlock()
	if f.CategoriesErr != nil {
		return nil, f.CategoriesErr
	}
	return f.Categories, nil
}

func (f *Fake) CreateRecipe(ctx context.Context, contentType string, body []byte) (backend.CreateResult, error) {
	f.mu.Lock()
	f.Uploads = append(f.Uploads, Upload{ContentType: contentType, Body: body})
	create := f.CreateFunc
	f.mu.Unlock()

	if create == nil {
		return backend.CreateResult{Success: true, ID: 1}, nil
	}
	return create(ctx)
}

func (f *Fake) UploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Uploads)
}
