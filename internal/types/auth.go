package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// TokenRequest represents a request to mint an operator session token.
type TokenRequest struct {
	Operator string `json:"operator" validate:"required,min=1,max=140"`
	Hours    int    `json:"hours,omitempty" validate:"omitempty,min=1,max=720"`
}

// Operator identifies the person acting on a screening page.
type Operator struct {
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SaveRowRequest carries the control values submitted with a row's Save action.
// Blank fields were not present on the form.
type SaveRowRequest struct {
	ID              string `validate:"required"`
	Category        string `validate:"omitempty,oneof=White Hold Black"`
	ScreeningStatus string `validate:"omitempty"`
}

// Validate validates the TokenRequest using the validator.
func (r *TokenRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the SaveRowRequest using the validator.
func (r *SaveRowRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	if !ScreeningStatus(r.ScreeningStatus).IsValid() {
		return &UnknownStatusError{Status: r.ScreeningStatus}
	}
	return nil
}

// UnknownStatusError reports a screening status outside the fixed stage set.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return "unknown screening status: " + e.Status
}
