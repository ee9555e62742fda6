package draft

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/matt-dz/recipebox/internal/form"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Encode renders the snapshot as the multipart body expected by
// POST /api/recetas. Field order follows the form: scalar fields, main
// photo, then ingredients and steps row by row. Every step contributes a
// fotos_pasos part, empty when the step has no photo, so pasos[i] and
// fotos_pasos[i] stay aligned.
func (s Snapshot) Encode() (contentType string, body []byte, err error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{FieldName, s.Name},
		{FieldDescription, s.Description},
	}
	if s.CategoryID != "" {
		fields = append(fields, struct{ name, value string }{FieldCategory, s.CategoryID})
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return "", nil, fmt.Errorf("writing %s: %w", f.name, err)
		}
	}

	if s.MainPhoto != nil {
		if err := writeFile(w, FieldMainPhoto, s.MainPhoto); err != nil {
			return "", nil, err
		}
	}

	for i, row := range s.Ingredients {
		for _, f := range []struct{ name, value string }{
			{FieldIngredient, row.Name},
			{FieldUnit, row.Unit},
			{FieldQuantity, row.Quantity},
		} {
			if err := w.WriteField(f.name, f.value); err != nil {
				return "", nil, fmt.Errorf("writing %s of ingredient %d: %w", f.name, i, err)
			}
		}
	}

	for i, step := range s.Steps {
		if err := w.WriteField(FieldStep, step.Description); err != nil {
			return "", nil, fmt.Errorf("writing step %d: %w", i, err)
		}
		if err := writeFile(w, FieldStepPhoto, step.Photo); err != nil {
			return "", nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	if err := w.Close(); err != nil {
		return "", nil, fmt.Errorf("closing multipart writer: %w", err)
	}
	return w.FormDataContentType(), buf.Bytes(), nil
}

// writeFile writes a file part. A nil file is written the way a browser
// submits an empty file input: no file name and no content.
func writeFile(w *multipart.Writer, field string, f *form.File) error {
	name, mimeType := "", "application/octet-stream"
	var data []byte
	if f != nil {
		name, mimeType, data = f.Name, f.MimeType, f.Data
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(name)))
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating %s part: %w", field, err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", field, err)
	}
	return nil
}
