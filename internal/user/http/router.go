package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/featherline/backend/internal/common/apperror"
	commonhttp "github.com/featherline/backend/internal/common/http"
	"github.com/featherline/backend/internal/common/logger"
	tweetservice "github.com/featherline/backend/internal/tweet/service"
	"github.com/featherline/backend/internal/user/service"
	"github.com/featherline/backend/internal/validation"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userRef struct {
	ID string `json:"id"`
}

type authResponse struct {
	User  userRef `json:"user"`
	Token string  `json:"token"`
}

var registerRules = []validation.Rule{
	{Field: "username", Check: validation.Present, Message: "Please provide a username."},
	{Field: "email", Check: validation.Email, Message: "Please provide a valid email."},
	{Field: "password", Check: validation.Present, Message: "Please provide a password."},
}

var tokenRules = []validation.Rule{
	{Field: "email", Check: validation.Email, Message: "Please provide a valid email."},
	{Field: "password", Check: validation.Present, Message: "Please provide a password."},
}

type Handler struct {
	users   *service.Service
	tweets  *tweetservice.Service
	auth    func(http.Handler) http.Handler
	errors  *commonhttp.ErrorHandler
	log     *logger.Logger
	timeout time.Duration
}

func NewHandler(
	users *service.Service,
	tweets *tweetservice.Service,
	auth func(http.Handler) http.Handler,
	errors *commonhttp.ErrorHandler,
	log *logger.Logger,
	timeout time.Duration,
) *Handler {
	return &Handler{
		users:   users,
		tweets:  tweets,
		auth:    auth,
		errors:  errors,
		log:     log,
		timeout: timeout,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/users", commonhttp.RequireMethod(http.MethodPost, h.errors)(commonhttp.WithTimeout(h.timeout)(h.register)))
	mux.HandleFunc("/users/token", commonhttp.RequireMethod(http.MethodPost, h.errors)(commonhttp.WithTimeout(h.timeout)(h.token)))
	mux.Handle("/users/", h.auth(http.HandlerFunc(commonhttp.WithTimeout(h.timeout)(h.userTweets))))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, apperror.InvalidJSON().WithCause(err))
		return
	}

	payload := map[string]string{
		"username": req.Username,
		"email":    req.Email,
		"password": req.Password,
	}
	if failures := validation.Evaluate(payload, registerRules); len(failures) > 0 {
		h.errors.HandleError(w, r, apperror.ValidationFailed(failures))
		return
	}

	result, err := h.users.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, authResponse{
		User:  userRef{ID: result.UserID},
		Token: result.Token,
	})
}

func (h *Handler) token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, apperror.InvalidJSON().WithCause(err))
		return
	}

	payload := map[string]string{
		"email":    req.Email,
		"password": req.Password,
	}
	if failures := validation.Evaluate(payload, tokenRules); len(failures) > 0 {
		h.errors.HandleError(w, r, apperror.ValidationFailed(failures))
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, authResponse{
		User:  userRef{ID: result.UserID},
		Token: result.Token,
	})
}

// userTweets serves GET /users/:id/tweets; any other subpath misses.
func (h *Handler) userTweets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errors.HandleError(w, r, apperror.MethodNotAllowed())
		return
	}

	remaining := strings.TrimPrefix(r.URL.Path, "/users/")
	parts := strings.Split(remaining, "/")
	if len(parts) != 2 || parts[1] != "tweets" {
		h.errors.HandleError(w, r, apperror.RouteNotFound())
		return
	}

	userID := parts[0]
	if err := commonhttp.ValidateUUID(userID); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	tweets, err := h.tweets.ListByUser(r.Context(), userID)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, tweets)
}
