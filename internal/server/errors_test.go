package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/screening-desk/internal/frappe"
	"github.com/jonathan/screening-desk/internal/importjob"
	"github.com/jonathan/screening-desk/internal/inflight"
	"github.com/jonathan/screening-desk/internal/rendering"
	"github.com/jonathan/screening-desk/internal/screening"
	"github.com/jonathan/screening-desk/internal/types"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ErrValidation{Field: "to_date", Message: "bad"}, http.StatusBadRequest},
		{"field", &rendering.FieldError{Field: types.FieldCategory, Value: "Grey", Msg: "not an option"}, http.StatusBadRequest},
		{"missing export", importjob.ErrMissingExport, http.StatusBadRequest},
		{"unknown variant", &ErrUnknownVariant{Key: "fancy"}, http.StatusNotFound},
		{"unknown row", fmt.Errorf("stage: %w", rendering.ErrUnknownRow), http.StatusNotFound},
		{"backend not found", &frappe.ApplicationError{StatusCode: 404}, http.StatusNotFound},
		{"in flight", inflight.ErrActionInFlight, http.StatusConflict},
		{"not schedulable", screening.ErrNotSchedulable, http.StatusConflict},
		{"new document", importjob.ErrNewDocument, http.StatusConflict},
		{"unmounted", screening.ErrUnmounted, http.StatusGone},
		{"transport", &frappe.TransportError{Message: "connection refused"}, http.StatusBadGateway},
		{"application", &frappe.ApplicationError{StatusCode: 417, ExcType: "ValidationError"}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
