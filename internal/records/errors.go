package records

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/autolot/internal/media"
)

// Domain errors for record operations.
var (
	ErrNotFound       = errors.New("record not found")
	ErrNoImages       = errors.New("no images uploaded")
	ErrInvalidRecord  = errors.New("invalid record")
	ErrPersistence    = errors.New("record persistence failed")
	ErrUploadTooLarge = errors.New("upload exceeds maximum size")
)

// MapHTTPStatus maps record and media errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrNoImages), errors.Is(err, ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, media.ErrTooManyFiles), errors.Is(err, media.ErrUnsupportedFile):
		return media.MapHTTPStatus(err)
	default:
		return http.StatusInternalServerError
	}
}
