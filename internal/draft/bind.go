package draft

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"strconv"
	"strings"

	"github.com/matt-dz/recipebox/internal/form"
)

// Form field names shared by the rendered form, Bind and Encode.
const (
	FieldRevision    = "revision"
	FieldName        = "nombre"
	FieldDescription = "descripcion"
	FieldCategory    = "categoria_id"
	FieldMainPhoto   = "foto_principal"
	FieldIngredient  = "ingredientes"
	FieldUnit        = "unidades"
	FieldQuantity    = "cantidades"
	FieldStep        = "pasos"
	FieldStepPhoto   = "fotos_pasos"
)

// IndexedField names the field of row i, e.g. "ingredientes.2".
func IndexedField(field string, i int) string {
	return field + "." + strconv.Itoa(i)
}

// ParseRevision reads the revision a form was rendered from.
func ParseRevision(values url.Values) (uint64, error) {
	raw := strings.TrimSpace(values.Get(FieldRevision))
	rev, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad revision %q", ErrStaleForm, raw)
	}
	return rev, nil
}

// PostedRows reports how many ingredient and step rows a posted form
// carries, judged by the highest row index among its fields. Indexes at or
// past MaxRows are ignored.
func PostedRows(values url.Values, files map[string][]*multipart.FileHeader) (ingredients, steps int) {
	count := func(name string) {
		field, raw, ok := strings.Cut(name, ".")
		if !ok {
			return
		}
		i, err := strconv.Atoi(raw)
		if err != nil || i < 0 || i >= MaxRows {
			return
		}
		switch field {
		case FieldIngredient, FieldUnit, FieldQuantity:
			ingredients = max(ingredients, i+1)
		case FieldStep, FieldStepPhoto:
			steps = max(steps, i+1)
		}
	}
	for name := range values {
		count(name)
	}
	for name := range files {
		count(name)
	}
	return ingredients, steps
}

// Bind copies posted values into the draft. Only the rows the draft
// currently holds are read; the form must have been rendered from the
// draft's current revision.
//
// An uploaded image replaces the attached one; an empty file input keeps
// it. Text fields are bound even if an image is rejected. Images are read
// before the draft is locked.
func (d *Draft) Bind(revision uint64, values url.Values, files map[string][]*multipart.FileHeader) error {
	mainPhoto, mainErr := readImage(files, FieldMainPhoto)
	stepPhotos := make(map[int]*form.File)
	stepErrs := make(map[int]error)
	for i := range MaxRows {
		photo, err := readImage(files, IndexedField(FieldStepPhoto, i))
		switch {
		case err != nil:
			stepErrs[i] = err
		case photo != nil:
			stepPhotos[i] = photo
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if revision != d.revision {
		return fmt.Errorf("%w: got revision %d, draft is at %d", ErrStaleForm, revision, d.revision)
	}

	d.name = strings.TrimSpace(values.Get(FieldName))
	d.description = strings.TrimSpace(values.Get(FieldDescription))
	d.categoryID = strings.TrimSpace(values.Get(FieldCategory))
	for i := range d.ingredients {
		d.ingredients[i] = IngredientRow{
			Name:     strings.TrimSpace(values.Get(IndexedField(FieldIngredient, i))),
			Unit:     strings.TrimSpace(values.Get(IndexedField(FieldUnit, i))),
			Quantity: strings.TrimSpace(values.Get(IndexedField(FieldQuantity, i))),
		}
	}
	for i := range d.steps {
		d.steps[i].Description = strings.TrimSpace(values.Get(IndexedField(FieldStep, i)))
	}

	var errs []error
	if mainErr != nil {
		errs = append(errs, fmt.Errorf("main photo: %w", mainErr))
	} else if mainPhoto != nil {
		d.mainPhoto = mainPhoto
	}
	for i := range d.steps {
		if err, ok := stepErrs[i]; ok {
			errs = append(errs, fmt.Errorf("photo of step %d: %w", i+1, err))
			continue
		}
		if photo, ok := stepPhotos[i]; ok {
			d.steps[i].Photo = photo
		}
	}
	return errors.Join(errs...)
}

func readImage(files map[string][]*multipart.FileHeader, field string) (*form.File, error) {
	headers := files[field]
	if len(headers) == 0 {
		return nil, nil
	}
	f, err := form.ReadFileHeader(headers[0])
	if errors.Is(err, form.ErrNoImageUploaded) {
		return nil, nil
	}
	return f, err
}
