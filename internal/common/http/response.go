package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/featherline/backend/internal/common/apperror"
)

// ErrorBody is the uniform failure shape for every error response. Stack is
// null except in non-production mode.
type ErrorBody struct {
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
	Stack   *string  `json:"stack"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func RequireMethod(method string, handler *ErrorHandler) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != method {
				handler.HandleError(w, r, apperror.MethodNotAllowed())
				return
			}
			next(w, r)
		}
	}
}

func WithTimeout(timeout time.Duration) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next(w, r.WithContext(ctx))
		}
	}
}

// Chain applies middleware stages to a handler in declaration order: the
// first stage sees the request first and may short-circuit the rest.
func Chain(h http.Handler, stages ...func(http.Handler) http.Handler) http.Handler {
	for i := len(stages) - 1; i >= 0; i-- {
		h = stages[i](h)
	}
	return h
}
