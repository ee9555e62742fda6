package web

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matt-dz/recipebox/internal/backend/backendtest"
	"github.com/matt-dz/recipebox/internal/config"
	"github.com/matt-dz/recipebox/internal/draft"
	"github.com/matt-dz/recipebox/internal/env"
	"github.com/matt-dz/recipebox/internal/log"
	"github.com/matt-dz/recipebox/internal/recipe"
	"github.com/matt-dz/recipebox/internal/web/render"
	"github.com/matt-dz/recipebox/internal/web/routes/create"
)

func newTestEnv(t *testing.T) *env.Env {
	t.Helper()
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New() error = %v", err)
	}
	secret := config.AppSecretValue("0123456789abcdef0123456789abcdef")
	e := &env.Env{
		Logger: log.NullLogger(),
		Backend: &backendtest.Fake{
			Recipes:    []recipe.Recipe{{ID: 1, Name: "Paella"}},
			Categories: []recipe.Category{{ID: 1, Name: "Arroces"}},
		},
		Drafts:   draft.NewStore(time.Minute),
		Renderer: renderer,
		Config: config.Config{
			Env:       config.EnvDev,
			AppSecret: config.AppSecret{Value: &secret, Version: "1"},
		},
	}
	return e
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(NewRouter(newTestEnv(t)))
	t.Cleanup(server.Close)
	return server
}

func TestRoutes(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name     string
		method   string
		path     string
		status   int
		contains string
	}{
		{name: "home", method: http.MethodGet, path: "/", status: http.StatusOK, contains: "Paella"},
		{name: "create", method: http.MethodGet, path: "/create", status: http.StatusOK, contains: "Crear nueva receta"},
		{name: "ping", method: http.MethodGet, path: "/ping", status: http.StatusOK},
		{name: "explore has no view", method: http.MethodGet, path: "/explore", status: http.StatusNotFound, contains: `href="/explore"`},
		{name: "unknown path", method: http.MethodGet, path: "/recetas/1", status: http.StatusNotFound, contains: "RecipeBox"},
		{name: "wrong method", method: http.MethodDelete, path: "/create", status: http.StatusMethodNotAllowed, contains: "Método no permitido."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, server.URL+tt.path, nil)
			if err != nil {
				t.Fatalf("failed to create request: %v", err)
			}
			resp, err := server.Client().Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
			var body bytes.Buffer
			if _, err := body.ReadFrom(resp.Body); err != nil {
				t.Fatalf("reading body: %v", err)
			}
			if tt.contains != "" && !strings.Contains(body.String(), tt.contains) {
				t.Errorf("expected body to contain %q", tt.contains)
			}
		})
	}
}

func TestNotFound_ShellOnly(t *testing.T) {
	server := newTestServer(t)

	resp, err := server.Client().Get(server.URL + "/explore")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		t.Fatalf("reading body: %v", err)
	}
	for _, view := range []string{"Recetas destacadas", "Crear nueva receta"} {
		if strings.Contains(body.String(), view) {
			t.Errorf("unmatched path must not render %q", view)
		}
	}
}

func TestCreate_RequestTooLarge(t *testing.T) {
	router := NewRouter(newTestEnv(t))

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField(create.FieldAction, "submit"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	part, err := w.CreateFormFile(draft.FieldMainPhoto, "huge.png")
	if err != nil {
		t.Fatalf("failed to create file part: %v", err)
	}
	if _, err := part.Write(make([]byte, create.MaxRequestSize+1)); err != nil {
		t.Fatalf("failed to write file part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/create", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status 413, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "20 MiB") {
		t.Error("expected the size limit in the message")
	}
}
