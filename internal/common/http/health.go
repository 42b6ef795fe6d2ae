package http

import (
	"net/http"

	"github.com/featherline/backend/internal/common/apperror"
	"github.com/featherline/backend/internal/common/logger"
)

func HealthHandler(log *logger.Logger, handler *ErrorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			handler.HandleError(w, r, apperror.MethodNotAllowed())
			return
		}
		log.Debugf("health check request")
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
