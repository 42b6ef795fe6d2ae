package http

import (
	"github.com/google/uuid"

	"github.com/featherline/backend/internal/common/apperror"
)

func ValidateUUID(s string) error {
	if s == "" {
		return apperror.RouteNotFound()
	}
	if _, err := uuid.Parse(s); err != nil {
		return apperror.RouteNotFound().WithCause(err)
	}
	return nil
}
