package config

import (
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/at-ishikawa/studydesk/internal/validation"
)

func newValidator() (*validation.Validator, error) {
	return validation.New(
		validation.WithTagName("mapstructure"),
		validation.WithRule("file", "{0} must be an existing and readable file", isFileReadable),
	)
}

func isFileReadable(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	if err != nil || info.IsDir() {
		return false
	}

	// Check if the owner has read permission
	return info.Mode().Perm()&(1<<(uint(8))) != 0
}
