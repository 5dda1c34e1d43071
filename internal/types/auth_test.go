//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		request TokenRequest
		wantErr bool
	}{
		{name: "valid request", request: TokenRequest{Operator: "hr@alpinos.example"}},
		{name: "valid request with hours", request: TokenRequest{Operator: "hr", Hours: 8}},
		{name: "missing operator", request: TokenRequest{}, wantErr: true},
		{name: "hours too large", request: TokenRequest{Operator: "hr", Hours: 1000}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveRowRequest_Validation(t *testing.T) {
	t.Run("category only", func(t *testing.T) {
		req := SaveRowRequest{ID: "AHFPL0001", Category: "White"}
		require.NoError(t, req.Validate())
	})

	t.Run("cleared category", func(t *testing.T) {
		req := SaveRowRequest{ID: "AHFPL0001"}
		require.NoError(t, req.Validate())
	})

	t.Run("missing id", func(t *testing.T) {
		req := SaveRowRequest{Category: "White"}
		assert.Error(t, req.Validate())
	})

	t.Run("unknown category", func(t *testing.T) {
		req := SaveRowRequest{ID: "AHFPL0001", Category: "Grey"}
		assert.Error(t, req.Validate())
	})

	t.Run("unknown status", func(t *testing.T) {
		req := SaveRowRequest{ID: "AHFPL0001", ScreeningStatus: "Ghosted"}
		err := req.Validate()
		var statusErr *UnknownStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, "Ghosted", statusErr.Status)
	})
}
