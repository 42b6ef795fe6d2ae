package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/featherline/backend/internal/common/apperror"
	commonhttp "github.com/featherline/backend/internal/common/http"
	"github.com/featherline/backend/internal/common/logger"
)

func newHandler(t *testing.T, production bool) *commonhttp.ErrorHandler {
	t.Helper()
	log, err := logger.New("", "test", "error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return commonhttp.NewErrorHandler(log, production)
}

func handle(h *commonhttp.ErrorHandler, err error) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/tweets", nil)
	rec := httptest.NewRecorder()
	h.HandleError(rec, req, err)
	return rec
}

func TestHandleError_UnknownErrorBecomes500(t *testing.T) {
	h := newHandler(t, true)

	rec := handle(h, errors.New("pool exhausted"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body commonhttp.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Title != "Server Error" {
		t.Errorf("expected title %q, got %q", "Server Error", body.Title)
	}
	if body.Message == "pool exhausted" {
		t.Error("internal error details must not leak into the response")
	}
}

func TestHandleError_AppErrorShape(t *testing.T) {
	h := newHandler(t, true)

	rec := handle(h, apperror.ValidationFailed([]string{"Please provide a username."}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body commonhttp.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Title != "Bad request." {
		t.Errorf("expected title %q, got %q", "Bad request.", body.Title)
	}
	if len(body.Errors) != 1 || body.Errors[0] != "Please provide a username." {
		t.Errorf("unexpected failures %v", body.Errors)
	}
}

func TestHandleError_ErrorsNeverNull(t *testing.T) {
	h := newHandler(t, true)

	rec := handle(h, apperror.Conflict("username or email already in use"))

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode raw body: %v", err)
	}
	if string(raw["errors"]) != "[]" {
		t.Errorf("expected errors to marshal as [], got %s", raw["errors"])
	}
}

func TestHandleError_StackOnlyOutsideProduction(t *testing.T) {
	rec := handle(newHandler(t, true), apperror.RouteNotFound())
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode raw body: %v", err)
	}
	if string(raw["stack"]) != "null" {
		t.Errorf("expected null stack in production, got %s", raw["stack"])
	}

	rec = handle(newHandler(t, false), apperror.RouteNotFound())
	var body commonhttp.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Stack == nil || *body.Stack == "" {
		t.Error("expected a stack trace outside production")
	}
}

func TestNotFoundHandler(t *testing.T) {
	h := newHandler(t, true)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	h.NotFoundHandler()(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body commonhttp.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Title != "Server Error" {
		t.Errorf("expected title %q, got %q", "Server Error", body.Title)
	}
	if body.Message != "The requested resource couldn't be found." {
		t.Errorf("unexpected message %q", body.Message)
	}
}

func TestHandleError_NilIsNoOp(t *testing.T) {
	h := newHandler(t, true)

	rec := handle(h, nil)

	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("expected untouched recorder, got %d with body %q", rec.Code, rec.Body.String())
	}
}
