// Package session ties a browser to its create-form draft through a signed
// cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/matt-dz/recipebox/internal/config"
	"github.com/matt-dz/recipebox/internal/jwt"
)

var (
	ErrNoSession      = errors.New("no draft session")
	ErrInvalidSession = errors.New("invalid draft session")
)

func CookieName(conf config.Config) string {
	if conf.Env == config.EnvProd {
		return "__Host-Http-draft"
	}
	return "draft"
}

func secretVersion(conf config.Config) string {
	if conf.AppSecret.Version == "" {
		return jwt.DefaultKID
	}
	return conf.AppSecret.Version
}

// NewCookie signs the draft id into a cookie valid for ttl.
func NewCookie(id ulid.ULID, conf config.Config, ttl time.Duration) (*http.Cookie, error) {
	token, err := jwt.GenerateJWT(id.String(), conf.Secret(), secretVersion(conf), ttl)
	if err != nil {
		return nil, fmt.Errorf("signing draft session: %w", err)
	}

	return &http.Cookie{
		Name:     CookieName(conf),
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(ttl / time.Second),
		SameSite: http.SameSiteLaxMode,
		Secure:   conf.Env == config.EnvProd,
	}, nil
}

// ClearCookie expires the draft cookie.
func ClearCookie(conf config.Config) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName(conf),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
		Secure:   conf.Env == config.EnvProd,
	}
}

// DraftID returns the draft id carried by the request's cookie.
func DraftID(r *http.Request, conf config.Config) (ulid.ULID, error) {
	cookie, err := r.Cookie(CookieName(conf))
	if err != nil {
		return ulid.ULID{}, ErrNoSession
	}

	sub, err := jwt.Subject(cookie.Value, secretVersion(conf), conf.Secret())
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	id, err := ulid.ParseStrict(sub)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	return id, nil
}
