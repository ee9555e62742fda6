// Package draft holds the state of a recipe being composed in the create
// form: scalar fields, the ordered ingredient and step rows, attached
// images and the status message shown to the user.
//
// A Draft is the single source of truth for the form. The rendered form is
// a projection of it, and posted values are bound back into it by row index
// before any row operation or submission.
package draft

import (
	"errors"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/matt-dz/recipebox/internal/form"
	"github.com/matt-dz/recipebox/internal/recipe"
)

// MaxRows bounds the rows a form may carry per list.
const MaxRows = 100

var (
	ErrRowOutOfRange      = errors.New("row index out of range")
	ErrStaleForm          = errors.New("form does not match the current draft")
	ErrSubmissionInFlight = errors.New("submission already in flight")
	ErrAlreadySubmitted   = errors.New("draft already submitted")
)

type IngredientRow struct {
	Name     string `validate:"required"`
	Unit     string
	Quantity string
}

type StepRow struct {
	Description string `validate:"required"`
	Photo       *form.File
}

type Draft struct {
	mu sync.Mutex

	id       ulid.ULID
	revision uint64

	name        string
	description string
	categoryID  string
	mainPhoto   *form.File
	ingredients []IngredientRow
	steps       []StepRow

	categories    []recipe.Category
	categoriesErr error
	message       string
	submitting    bool
	submitted     bool
}

// New starts a draft with one empty ingredient row and one empty step row.
func New(id ulid.ULID, categories []recipe.Category, categoriesErr error) *Draft {
	return &Draft{
		id:            id,
		ingredients:   []IngredientRow{{}},
		steps:         []StepRow{{}},
		categories:    categories,
		categoriesErr: categoriesErr,
	}
}

func (d *Draft) ID() ulid.ULID {
	return d.id
}

func (d *Draft) Revision() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revision
}

func (d *Draft) AddIngredientRow() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ingredients = append(d.ingredients, IngredientRow{})
	d.revision++
}

func (d *Draft) RemoveIngredientRow(index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rows, err := removeAt(d.ingredients, index)
	if err != nil {
		return fmt.Errorf("removing ingredient %d: %w", index, err)
	}
	d.ingredients = rows
	d.revision++
	return nil
}

func (d *Draft) AddStepRow() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.steps = append(d.steps, StepRow{})
	d.revision++
}

func (d *Draft) RemoveStepRow(index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rows, err := removeAt(d.steps, index)
	if err != nil {
		return fmt.Errorf("removing step %d: %w", index, err)
	}
	d.steps = rows
	d.revision++
	return nil
}

// removeAt returns rows without the element at index. The input slice is
// not modified.
func removeAt[T any](rows []T, index int) ([]T, error) {
	if index < 0 || index >= len(rows) {
		return rows, ErrRowOutOfRange
	}
	out := make([]T, 0, len(rows)-1)
	out = append(out, rows[:index]...)
	return append(out, rows[index+1:]...), nil
}

// SetMessage replaces the status message; an empty string clears it.
func (d *Draft) SetMessage(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.message = msg
}

// BeginSubmit marks the draft as being submitted. Only one submission may
// be in flight at a time, and a draft is created at most once.
func (d *Draft) BeginSubmit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitted {
		return ErrAlreadySubmitted
	}
	if d.submitting {
		return ErrSubmissionInFlight
	}
	d.submitting = true
	return nil
}

func (d *Draft) EndSubmit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitting = false
}

// MarkSubmitted records that the backend created the recipe.
func (d *Draft) MarkSubmitted() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitted = true
}

// EnsureRows grows the row lists to at least the given lengths. It is used
// to shape a fresh draft after the form it was posted from, so no posted row
// is dropped when binding. The revision is not changed.
func (d *Draft) EnsureRows(ingredients, steps int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.ingredients) < min(ingredients, MaxRows) {
		d.ingredients = append(d.ingredients, IngredientRow{})
	}
	for len(d.steps) < min(steps, MaxRows) {
		d.steps = append(d.steps, StepRow{})
	}
}

// Snapshot is an immutable copy of a draft's state.
type Snapshot struct {
	ID            string
	Revision      uint64
	Name          string `validate:"required"`
	Description   string
	CategoryID    string `validate:"omitempty,numeric"`
	MainPhoto     *form.File
	Ingredients   []IngredientRow `validate:"dive"`
	Steps         []StepRow       `validate:"dive"`
	Categories    []recipe.Category
	CategoriesErr error
	Message       string
	Submitting    bool
}

func (d *Draft) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		ID:            d.id.String(),
		Revision:      d.revision,
		Name:          d.name,
		Description:   d.description,
		CategoryID:    d.categoryID,
		MainPhoto:     d.mainPhoto,
		Ingredients:   append([]IngredientRow(nil), d.ingredients...),
		Steps:         append([]StepRow(nil), d.steps...),
		Categories:    d.categories,
		CategoriesErr: d.categoriesErr,
		Message:       d.message,
		Submitting:    d.submitting,
	}
}
