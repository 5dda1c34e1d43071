package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/screening-desk/internal/frappe"
	"github.com/jonathan/screening-desk/internal/importjob"
	"github.com/jonathan/screening-desk/internal/inflight"
	"github.com/jonathan/screening-desk/internal/rendering"
	"github.com/jonathan/screening-desk/internal/screening"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUnknownVariant indicates a screening page variant that does not exist
type ErrUnknownVariant struct {
	Key string
}

func (e *ErrUnknownVariant) Error() string {
	return fmt.Sprintf("unknown screening page: %s", e.Key)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validationErr *ErrValidation
	var variantErr *ErrUnknownVariant
	var fieldErr *rendering.FieldError
	var appErr *frappe.ApplicationError

	switch {
	case errors.As(err, &validationErr), errors.As(err, &fieldErr),
		errors.Is(err, importjob.ErrMissingExport), errors.Is(err, screening.ErrMissingID):
		return http.StatusBadRequest
	case errors.As(err, &variantErr), errors.Is(err, rendering.ErrUnknownRow), frappe.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, inflight.ErrActionInFlight), errors.Is(err, screening.ErrNotSchedulable),
		errors.Is(err, importjob.ErrNewDocument):
		return http.StatusConflict
	case errors.Is(err, screening.ErrUnmounted):
		return http.StatusGone
	case frappe.IsTransport(err), errors.As(err, &appErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
