package media

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/autolot/pkg/storage"
)

var (
	ErrTooManyFiles    = errors.New("too many files")
	ErrUnsupportedFile = errors.New("unsupported file type, allowed: jpg, jpeg, png")
	ErrUpload          = errors.New("media upload failed")
)

// MapHTTPStatus maps media errors to HTTP status codes. Storage failures
// wrapped by an upload defer to storage.MapHTTPStatus.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrTooManyFiles), errors.Is(err, ErrUnsupportedFile):
		return http.StatusBadRequest
	default:
		return storage.MapHTTPStatus(err)
	}
}
