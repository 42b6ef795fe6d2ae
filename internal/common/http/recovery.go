package http

import (
	"net/http"
	"runtime/debug"

	"github.com/featherline/backend/internal/common/logger"
)

func RecoveryMiddleware(log *logger.Logger, handler *ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Criticalf("panic recovered: %v\n%s", err, debug.Stack())
					handler.writeBody(w, http.StatusInternalServerError, ErrorBody{
						Title:   "Server Error",
						Message: "internal server error",
						Errors:  []string{},
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
