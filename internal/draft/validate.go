package draft

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidationError lists every field that failed validation, in a form
// that can be shown to the user.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Validate checks the fields a browser would mark as required: the recipe
// name, the name of every ingredient row and the description of every
// step row. Quantities are free-form.
func (s Snapshot) Validate() error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validating draft: %w", err)
	}

	problems := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		problems = append(problems, describe(fe))
	}
	return &ValidationError{Problems: problems}
}

func describe(fe validator.FieldError) string {
	ns := fe.Namespace()
	switch {
	case strings.HasPrefix(ns, "Snapshot.Ingredients["):
		return fmt.Sprintf("el ingrediente %d necesita un nombre", rowNumber(ns))
	case strings.HasPrefix(ns, "Snapshot.Steps["):
		return fmt.Sprintf("el paso %d necesita una descripción", rowNumber(ns))
	case fe.StructField() == "Name":
		return "el nombre es obligatorio"
	case fe.StructField() == "CategoryID":
		return "la categoría no es válida"
	default:
		return fmt.Sprintf("%s no es válido", fe.Field())
	}
}

// rowNumber extracts the 1-based row number from a namespace such as
// "Snapshot.Steps[2].Description".
func rowNumber(ns string) int {
	_, rest, _ := strings.Cut(ns, "[")
	idx, _, _ := strings.Cut(rest, "]")
	n, err := strconv.Atoi(idx)
	if err != nil {
		return 0
	}
	return n + 1
}
