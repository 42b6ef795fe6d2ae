package http

import (
	"net/http"
	"runtime/debug"
	"strconv"

	"github.com/featherline/backend/internal/common/apperror"
	"github.com/featherline/backend/internal/common/httpmetrics"
	"github.com/featherline/backend/internal/common/logger"
	"github.com/featherline/backend/internal/observability/metrics"
)

// ErrorHandler is the single exit point for failed requests. Handlers and
// middleware never write error bodies themselves; they hand the error off
// here and it becomes the uniform {title, message, errors, stack} shape.
type ErrorHandler struct {
	log        *logger.Logger
	production bool
}

func NewErrorHandler(log *logger.Logger, production bool) *ErrorHandler {
	return &ErrorHandler{log: log, production: production}
}

func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	if appErr, ok := apperror.As(err); ok {
		h.handleAppError(w, r, appErr)
		return
	}

	ctx := r.Context()
	h.log.WithFields(ctx, logger.Fields{
		"error":  err.Error(),
		"action": "unhandled_error",
	}).Errorf("unhandled error: %v", err)

	metrics.HTTPErrorsTotal.WithLabelValues(
		strconv.Itoa(http.StatusInternalServerError),
		httpmetrics.NormalizePath(r.URL.Path),
		r.Method,
	).Inc()

	h.writeBody(w, http.StatusInternalServerError, ErrorBody{
		Title:   "Server Error",
		Message: "internal server error",
		Errors:  []string{},
	})
}

func (h *ErrorHandler) handleAppError(w http.ResponseWriter, r *http.Request, err *apperror.Error) {
	ctx := r.Context()

	if h.log.ShouldLog(logger.DEBUG) {
		h.log.WithFields(ctx, logger.Fields{
			"error_code": err.Code,
			"status":     err.Status,
			"action":     "domain_error",
		}).Debugf("domain error: %s", err.Error())
	}

	metrics.DomainErrorsTotal.WithLabelValues(err.Code, strconv.Itoa(err.Status)).Inc()
	metrics.HTTPErrorsTotal.WithLabelValues(
		strconv.Itoa(err.Status),
		httpmetrics.NormalizePath(r.URL.Path),
		r.Method,
	).Inc()

	failures := err.Errors
	if failures == nil {
		failures = []string{}
	}

	h.writeBody(w, err.Status, ErrorBody{
		Title:   err.Title,
		Message: err.Message,
		Errors:  failures,
	})
}

func (h *ErrorHandler) writeBody(w http.ResponseWriter, status int, body ErrorBody) {
	if !h.production {
		stack := string(debug.Stack())
		body.Stack = &stack
	}
	WriteJSON(w, status, body)
}

// NotFoundHandler is the fallback for requests no route matched.
func (h *ErrorHandler) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.HandleError(w, r, apperror.RouteNotFound())
	}
}
