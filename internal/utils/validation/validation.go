// Package validation builds the request validator shared by handlers.
package validation

import (
	"github.com/go-playground/validator/v10"
	"github.com/princekumarofficial/songs-service/internal/types/songs"
)

// New returns a validator that also understands the genre and tag
// enumerations.
func New() *validator.Validate {
	v := validator.New()

	v.RegisterValidation("genre", func(fl validator.FieldLevel) bool {
		return songs.Genre(fl.Field().String()).Valid()
	})
	v.RegisterValidation("tag", func(fl validator.FieldLevel) bool {
		return songs.Tag(fl.Field().String()).Valid()
	})

	return v
}
