package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/featherline/backend/internal/common/apperror"
	"github.com/featherline/backend/internal/common/constants"
	commonhttp "github.com/featherline/backend/internal/common/http"
	"github.com/featherline/backend/internal/common/jwtverify"
	"github.com/featherline/backend/internal/common/logger"
	"github.com/featherline/backend/internal/tweet/service"
	"github.com/featherline/backend/internal/tweet/stream"
	"github.com/featherline/backend/internal/validation"
)

type tweetRequest struct {
	Message string `json:"message"`
}

// tweetRules is the declarative contract shared by create and update.
var tweetRules = []validation.Rule{
	{Field: "message", Check: validation.Present, Message: "Please provide a tweet message."},
	{Field: "message", Check: validation.MaxLength(constants.TweetMaxLength), Message: "Tweet message must not be longer than 280 characters."},
}

type Handler struct {
	tweets   *service.Service
	hub      *stream.Hub
	auth     func(http.Handler) http.Handler
	errors   *commonhttp.ErrorHandler
	log      *logger.Logger
	timeout  time.Duration
	upgrader gorillaWS.Upgrader
}

func NewHandler(
	tweets *service.Service,
	hub *stream.Hub,
	auth func(http.Handler) http.Handler,
	errors *commonhttp.ErrorHandler,
	log *logger.Logger,
	timeout time.Duration,
) *Handler {
	return &Handler{
		tweets:  tweets,
		hub:     hub,
		auth:    auth,
		errors:  errors,
		log:     log,
		timeout: timeout,
		upgrader: gorillaWS.Upgrader{
			ReadBufferSize:  constants.StreamReadBufSize,
			WriteBufferSize: constants.StreamWriteBufSize,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				host := r.Host
				if host == "" {
					host = r.URL.Host
				}
				return origin == "http://"+host || origin == "https://"+host
			},
		},
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("/tweets", h.auth(http.HandlerFunc(commonhttp.WithTimeout(h.timeout)(h.collection))))
	mux.Handle("/tweets/stream", h.auth(http.HandlerFunc(h.handleStream)))
	mux.HandleFunc("/tweets/", commonhttp.WithTimeout(h.timeout)(h.byID))
}

func (h *Handler) collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		h.errors.HandleError(w, r, apperror.MethodNotAllowed())
	}
}

// byID routes /tweets/:id. Only strictly-integer segments match; anything
// else falls through to the generic not-found, not a validation error.
func (h *Handler) byID(w http.ResponseWriter, r *http.Request) {
	segment := strings.TrimPrefix(r.URL.Path, "/tweets/")
	if segment == "" || strings.Contains(segment, "/") {
		h.errors.HandleError(w, r, apperror.RouteNotFound())
		return
	}

	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil {
		h.errors.HandleError(w, r, apperror.RouteNotFound())
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.auth(h.withID(id, h.update)).ServeHTTP(w, r)
	case http.MethodDelete:
		h.auth(h.withID(id, h.delete)).ServeHTTP(w, r)
	default:
		h.errors.HandleError(w, r, apperror.MethodNotAllowed())
	}
}

func (h *Handler) withID(id int64, fn func(http.ResponseWriter, *http.Request, int64)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, id)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tweets, err := h.tweets.List(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]any{"tweets": tweets})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, id int64) {
	tweet, err := h.tweets.Get(r.Context(), id)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, tweet)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		h.errors.HandleError(w, r, apperror.Unauthenticated())
		return
	}

	var req tweetRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, apperror.InvalidJSON().WithCause(err))
		return
	}

	if failures := validation.Evaluate(map[string]string{"message": req.Message}, tweetRules); len(failures) > 0 {
		h.errors.HandleError(w, r, apperror.ValidationFailed(failures))
		return
	}

	tweet, err := h.tweets.Create(r.Context(), claims.UserID, claims.Username, req.Message)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]any{"newTweet": tweet})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, id int64) {
	var req tweetRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, apperror.InvalidJSON().WithCause(err))
		return
	}

	if failures := validation.Evaluate(map[string]string{"message": req.Message}, tweetRules); len(failures) > 0 {
		h.errors.HandleError(w, r, apperror.ValidationFailed(failures))
		return
	}

	tweet, err := h.tweets.Update(r.Context(), id, req.Message)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, tweet)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.tweets.Delete(r.Context(), id); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	http.Redirect(w, r, "/tweets", http.StatusFound)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		h.errors.HandleError(w, r, apperror.Unauthenticated())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("stream upgrade failed user_id=%s: %v", claims.UserID, err)
		return
	}

	client := stream.NewClient(conn, claims.UserID, h.log)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.hub)
}
