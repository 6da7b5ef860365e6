package store

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their public input name rather than the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("input"); name != "" {
			return name
		}
		return strings.ToLower(f.Name)
	})
	return v
}

// NewBook is the input to AddBook. Author is the single-author path; Authors
// optionally attaches more than one. Both are merged in order.
type NewBook struct {
	Title           string
	Author          string
	Authors         []string
	PublicationYear *int
	ImageURL        string
}

// bookInput is NewBook after trimming, ready to be written.
type bookInput struct {
	Title           string   `input:"title" validate:"required"`
	Authors         []string `input:"author" validate:"min=1,dive,required"`
	PublicationYear *int
	ImageURL        string
}

// normalize trims the text fields, drops blank and duplicate author names and
// checks that a title and at least one author remain.
func (nb NewBook) normalize() (*bookInput, error) {
	in := &bookInput{
		Title:           strings.TrimSpace(nb.Title),
		PublicationYear: nb.PublicationYear,
		ImageURL:        strings.TrimSpace(nb.ImageURL),
	}

	seen := make(map[string]bool)
	for _, name := range append([]string{nb.Author}, nb.Authors...) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		in.Authors = append(in.Authors, name)
	}

	if err := validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}
	return in, nil
}

func toValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "min":
			ve.Problems = append(ve.Problems, fmt.Sprintf("%s is required", fe.Field()))
		default:
			ve.Problems = append(ve.Problems, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return ve
}
