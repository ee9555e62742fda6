// Package recipe contains the recipe and category types exchanged with
// the backend API.
package recipe

import (
	"encoding/json"
	"fmt"
	"time"
)

// FallbackPhotoURL is shown for recipes without a main photo.
const FallbackPhotoURL = "https://images.unsplash.com/photo-1504674900247-0877df9cc836?auto=format&fit=crop&w=400&q=80"

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// Recipe is the list projection returned by GET /api/recetas.
type Recipe struct {
	ID           int64      `json:"id"`
	Name         string     `json:"nombre"`
	Description  string     `json:"descripcion"`
	Category     string     `json:"categoria"`
	MainPhotoURL string     `json:"foto_principal"`
	CreatedAt    *Timestamp `json:"fecha_creacion,omitempty"`
}

// PhotoURL returns the main photo, or FallbackPhotoURL when there is none.
func (r Recipe) PhotoURL() string {
	if r.MainPhotoURL == "" {
		return FallbackPhotoURL
	}
	return r.MainPhotoURL
}

// Featured returns at most the first n recipes, in backend order.
func Featured(recipes []Recipe, n int) []Recipe {
	if n < 0 {
		n = 0
	}
	return recipes[:min(len(recipes), n)]
}

// timestampLayouts covers RFC 3339 and the zone-less ISO 8601 form
// the backend emits for naive UTC datetimes.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// Timestamp is a time.Time that also accepts timestamps without a zone,
// which are read as UTC.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp should be a string: %w", err)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}
