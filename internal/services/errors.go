package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Lllllllleong/admissionsflow/internal/applicants"
	"github.com/Lllllllleong/admissionsflow/internal/progress"
)

// ErrValidation marks a request that is malformed or breaks a business
// rule. Its message is safe to show to the user.
var ErrValidation = errors.New("validation failed")

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// HTTPStatus maps a service error to the response status used by the
// function handlers.
func HTTPStatus(err error) int {
	var rej *progress.Rejection
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.As(err, &rej):
		return http.StatusUnprocessableEntity
	case errors.Is(err, applicants.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, applicants.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the text shown to the caller for err. Rule
// violations carry their reason; everything else gets a generic message.
func PublicMessage(err error) string {
	var rej *progress.Rejection
	switch {
	case errors.As(err, &rej):
		return rej.Reason
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, applicants.ErrNotFound):
		return "applicant not found"
	case errors.Is(err, applicants.ErrConflict):
		return "applicant was updated by someone else; reload and try again"
	}
	return "request failed; please try again"
}
