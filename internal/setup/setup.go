// Package setup is responsible for setting up components.
package setup

import (
	"fmt"
	"log/slog"

	"github.com/matt-dz/recipebox/internal/backend"
	"github.com/matt-dz/recipebox/internal/config"
	"github.com/matt-dz/recipebox/internal/draft"
	"github.com/matt-dz/recipebox/internal/env"
	mHttp "github.com/matt-dz/recipebox/internal/http"
	"github.com/matt-dz/recipebox/internal/web/render"
)

// Backend creates the client for the recipe backend.
func Backend(conf config.Config, logger *slog.Logger) (*backend.Client, error) {
	retry := mHttp.WithLogger(mHttp.DefaultConfig(), logger)
	retry.RetryMax = conf.Backend.RetryMax
	retry.HTTPClient.Timeout = conf.Backend.Timeout.Value()

	client, err := backend.New(conf.Backend.URL, mHttp.New(retry), logger)
	if err != nil {
		return nil, fmt.Errorf("creating backend client: %w", err)
	}
	return client, nil
}

func Drafts(conf config.Config) *draft.Store {
	return draft.NewStore(conf.Drafts.TTL.Value())
}

// Env wires every component the pages need.
func Env(conf config.Config, logger *slog.Logger) (*env.Env, error) {
	client, err := Backend(conf, logger)
	if err != nil {
		return nil, err
	}

	renderer, err := render.New()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	return &env.Env{
		Logger:   logger,
		Backend:  client,
		Drafts:   Drafts(conf),
		Renderer: renderer,
		Config:   conf,
	}, nil
}
