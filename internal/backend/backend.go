// Package backend is the client for the recipe backend API.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	mHttp "github.com/matt-dz/recipebox/internal/http"
	mJson "github.com/matt-dz/recipebox/internal/json"
	"github.com/matt-dz/recipebox/internal/recipe"
)

const (
	recipesPath    = "/api/recetas"
	categoriesPath = "/api/categorias"
	maxResponse    = 8 << 20
)

var ErrMalformedResponse = errors.New("malformed response")

// API is the subset of the backend the views depend on.
type API interface {
	ListRecipes(ctx context.Context) ([]recipe.Recipe, error)
	ListCategories(ctx context.Context) ([]recipe.Category, error)
	CreateRecipe(ctx context.Context, contentType string, body []byte) (CreateResult, error)
}

// CreateResult is the body of a POST /api/recetas response.
type CreateResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	ID      int64  `json:"id,omitempty"`
}

type Client struct {
	baseURL *url.URL
	http    mHttp.HTTPDoer
	logger  *slog.Logger
}

var _ API = (*Client)(nil)

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, doer mHttp.HTTPDoer, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: scheme must be http or https", baseURL)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL: u,
		http:    doer,
		logger:  logger,
	}, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.JoinPath(path).String()
}

func (c *Client) ListRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	var recipes []recipe.Recipe
	if err := c.getJSON(ctx, recipesPath, &recipes); err != nil {
		return nil, fmt.Errorf("listing recipes: %w", err)
	}
	if recipes == nil {
		recipes = []recipe.Recipe{}
	}
	return recipes, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]recipe.Category, error) {
	var categories []recipe.Category
	if err := c.getJSON(ctx, categoriesPath, &categories); err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	if categories == nil {
		categories = []recipe.Category{}
	}
	return categories, nil
}

// CreateRecipe posts a multipart body to the backend. The request is
// never retried. A non-2xx status with a JSON body is reported through
// the result rather than as an error.
func (c *Client) CreateRecipe(ctx context.Context, contentType string, body []byte) (CreateResult, error) {
	req, err := retryablehttp.NewRequestWithContext(mHttp.WithoutRetry(ctx),
		http.MethodPost, c.endpoint(recipesPath), body)
	if err != nil {
		return CreateResult{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	c.logger.DebugContext(ctx, "creating recipe", slog.Int("body_bytes", len(body)))
	resp, err := c.http.Do(req)
	if err != nil {
		return CreateResult{}, fmt.Errorf("posting recipe: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return CreateResult{}, fmt.Errorf("reading response: %w", err)
	}

	var decoded createResponse
	if err := mJson.Decode(&decoded, bytes.NewReader(data)); err != nil {
		if !is2xx(resp.StatusCode) {
			return CreateResult{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return CreateResult{}, errors.Join(ErrMalformedResponse, err)
	}

	result := decoded.result(resp.StatusCode)
	if !result.Success {
		c.logger.WarnContext(ctx, "backend rejected recipe",
			slog.Int("status", resp.StatusCode), slog.String("error", result.Error))
	}
	return result, nil
}

// createResponse accepts both {success, error} and the bare {id, nombre}
// body some backend versions return on success.
type createResponse struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	ID      int64  `json:"id"`
}

func (r createResponse) result(status int) CreateResult {
	result := CreateResult{Error: r.Error, ID: r.ID}
	switch {
	case !is2xx(status):
		result.Success = false
		if result.Error == "" {
			result.Error = fmt.Sprintf("unexpected status %d", status)
		}
	case r.Success != nil:
		result.Success = *r.Success
	default:
		result.Success = r.Error == "" && r.ID != 0
	}
	if !result.Success && result.Error == "" {
		result.Error = "unknown error"
	}
	return result
}

func is2xx(status int) bool {
	return status >= 200 && status <= 299
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	if err := mHttp.ExpectStatus2xx(resp); err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := mJson.Decode(dst, io.LimitReader(resp.Body, maxResponse)); err != nil {
		return errors.Join(ErrMalformedResponse, err)
	}
	return nil
}
