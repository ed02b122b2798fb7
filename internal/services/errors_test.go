package services

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Lllllllleong/admissionsflow/internal/applicants"
	"github.com/Lllllllleong/admissionsflow/internal/progress"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"nil", nil, http.StatusOK, ""},
		{"validation", validationError("bad field"), http.StatusUnprocessableEntity, "validation failed: bad field"},
		{"rule", fmt.Errorf("wrapped: %w", &progress.Rejection{Reason: "already at final step"}), http.StatusUnprocessableEntity, "already at final step"},
		{"not found", fmt.Errorf("get x: %w", applicants.ErrNotFound), http.StatusNotFound, "applicant not found"},
		{"conflict", fmt.Errorf("apply x: %w", applicants.ErrConflict), http.StatusConflict, "applicant was updated by someone else; reload and try again"},
		{"internal", errors.New("rpc error: unavailable"), http.StatusInternalServerError, "request failed; please try again"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			if tt.err != nil {
				assert.Equal(t, tt.msg, PublicMessage(tt.err))
			}
		})
	}
}
