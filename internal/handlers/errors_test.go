package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"perfpredict/internal/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestPublicMessage(t *testing.T) {
	cases := map[string]struct {
		err     error
		status  int
		message string
	}{
		"validation detail": {
			err:     fmt.Errorf("register: %w", apperrors.Validation("password is required")),
			status:  http.StatusBadRequest,
			message: "password is required",
		},
		"bare validation": {
			err:     fmt.Errorf("%w: bad input", apperrors.ErrValidation),
			status:  http.StatusBadRequest,
			message: "validation error",
		},
		"duplicate": {
			err:     fmt.Errorf("register %q: %w", "alice", apperrors.ErrDuplicateUser),
			status:  http.StatusBadRequest,
			message: "user already exists",
		},
		"credentials": {
			err:     fmt.Errorf("%w: current password is incorrect", apperrors.ErrInvalidCredentials),
			status:  http.StatusUnauthorized,
			message: "invalid credentials",
		},
		"not found": {
			err:     fmt.Errorf("user with ID %s not found: %w", "u-1", apperrors.ErrNotFound),
			status:  http.StatusNotFound,
			message: "not found",
		},
		"storage": {
			err:     fmt.Errorf("insert prediction: %w: %w", apperrors.ErrStorageUnavailable, errors.New("dial tcp: refused")),
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.status, StatusFor(tc.err))
			assert.Equal(t, tc.message, PublicMessage(tc.err))
		})
	}
}
