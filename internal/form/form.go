// Package form reads images uploaded through multipart forms.
package form

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize bounds a single uploaded image.
const MaxImageSize = 10 << 20 // 10 MiB

// allowedImageTypes lists the simple MIME types we accept.
var allowedImageTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/svg+xml": ".svg",
	"image/webp":    ".webp",
	"image/gif":     ".gif",
}

var (
	ErrUnsupportedMimeType = errors.New("unsupported mime type")
	ErrNoImageUploaded     = errors.New("image not uploaded")
	ErrImageTooLarge       = errors.New("image too large")
)

type File struct {
	Name     string
	Data     []byte
	MimeType string
}

// ReadFile reads an image from r. name is the client-provided file name;
// when it has no extension one is derived from the detected type.
func ReadFile(name string, r io.Reader) (*File, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoImageUploaded
	}
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	mtype := mimetype.Detect(data)
	contentType, _, _ := strings.Cut(mtype.String(), ";")
	suffix, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("mime type %q: %w", contentType, ErrUnsupportedMimeType)
	}

	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "image"
	}
	if filepath.Ext(name) == "" {
		name += suffix
	}

	return &File{
		Name:     name,
		MimeType: contentType,
		Data:     data,
	}, nil
}

// ReadFileHeader opens and reads an uploaded multipart file. An empty
// file input (no name, no content) yields ErrNoImageUploaded.
func ReadFileHeader(header *multipart.FileHeader) (*File, error) {
	if header == nil || (header.Filename == "" && header.Size == 0) {
		return nil, ErrNoImageUploaded
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening uploaded file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadFile(header.Filename, f)
}
