package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/featherline/backend/internal/common/clock"
	commoncrypto "github.com/featherline/backend/internal/common/crypto"
	commonhttp "github.com/featherline/backend/internal/common/http"
	"github.com/featherline/backend/internal/common/httpmetrics"
	"github.com/featherline/backend/internal/common/jwtverify"
	"github.com/featherline/backend/internal/common/logger"
	"github.com/featherline/backend/internal/tweet/domain"
	tweethttp "github.com/featherline/backend/internal/tweet/http"
	tweetrepo "github.com/featherline/backend/internal/tweet/repository"
	"github.com/featherline/backend/internal/tweet/service"
	"github.com/featherline/backend/internal/tweet/stream"
	userdomain "github.com/featherline/backend/internal/user/domain"
	userservice "github.com/featherline/backend/internal/user/service"
)

const testSecret = "test-secret-key-that-is-long-enough-123"

// fakeTweetRepo keeps tweets in insertion order and counts every call so
// tests can assert the auth gate short-circuits before persistence.
type fakeTweetRepo struct {
	tweets    []domain.Tweet
	usernames map[string]string
	nextID    int64
	calls     int
}

func newFakeTweetRepo() *fakeTweetRepo {
	return &fakeTweetRepo{usernames: map[string]string{}, nextID: 1}
}

func (f *fakeTweetRepo) List(_ context.Context) ([]domain.AnnotatedTweet, error) {
	f.calls++
	annotated := make([]domain.AnnotatedTweet, 0, len(f.tweets))
	for i := len(f.tweets) - 1; i >= 0; i-- {
		t := f.tweets[i]
		annotated = append(annotated, domain.AnnotatedTweet{Tweet: t, Username: f.usernames[t.UserID]})
	}
	return annotated, nil
}

func (f *fakeTweetRepo) ListByUser(_ context.Context, userID string) ([]domain.Tweet, error) {
	f.calls++
	owned := make([]domain.Tweet, 0)
	for i := len(f.tweets) - 1; i >= 0; i-- {
		if f.tweets[i].UserID == userID {
			owned = append(owned, f.tweets[i])
		}
	}
	return owned, nil
}

func (f *fakeTweetRepo) FindByID(_ context.Context, id int64) (domain.Tweet, error) {
	f.calls++
	for _, t := range f.tweets {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Tweet{}, tweetrepo.ErrTweetNotFound
}

func (f *fakeTweetRepo) Create(_ context.Context, userID, message string) (domain.Tweet, error) {
	f.calls++
	t := domain.Tweet{
		ID:        f.nextID,
		Message:   message,
		UserID:    userID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.nextID++
	f.tweets = append(f.tweets, t)
	return t, nil
}

func (f *fakeTweetRepo) UpdateMessage(_ context.Context, id int64, message string) (domain.Tweet, error) {
	f.calls++
	for i, t := range f.tweets {
		if t.ID == id {
			f.tweets[i].Message = message
			f.tweets[i].UpdatedAt = time.Now()
			return f.tweets[i], nil
		}
	}
	return domain.Tweet{}, tweetrepo.ErrTweetNotFound
}

func (f *fakeTweetRepo) Delete(_ context.Context, id int64) error {
	f.calls++
	for i, t := range f.tweets {
		if t.ID == id {
			f.tweets = append(f.tweets[:i], f.tweets[i+1:]...)
			return nil
		}
	}
	return tweetrepo.ErrTweetNotFound
}

func setupMux(t *testing.T, repo *fakeTweetRepo) *http.ServeMux {
	t.Helper()

	log, err := logger.New("", "test", "error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	errH := commonhttp.NewErrorHandler(log, true)
	auth := jwtverify.Middleware(testSecret, errH, log)
	svc := service.NewService(repo, nil, log)
	handler := tweethttp.NewHandler(svc, nil, auth, errH, log, 5*time.Second)

	mux := http.NewServeMux()
	handler.Register(mux)
	return mux
}

func mintToken(t *testing.T, id, username string) string {
	t.Helper()
	issuer := userservice.NewTokenIssuer(testSecret, commoncrypto.NewUUIDGenerator(), time.Hour, clock.NewRealClock())
	token, err := issuer.Issue(userdomain.User{ID: userdomain.ID(id), Username: username})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func doJSON(mux *http.ServeMux, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) commonhttp.ErrorBody {
	t.Helper()
	var body commonhttp.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestCreate_RejectsWithoutToken(t *testing.T) {
	repo := newFakeTweetRepo()
	mux := setupMux(t, repo)

	rec := doJSON(mux, http.MethodPost, "/tweets", "", `{"message":"hello"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body.Title != "Unauthorized" {
		t.Errorf("expected title Unauthorized, got %q", body.Title)
	}
	if body.Message != "The provided credentials were invalid." {
		t.Errorf("unexpected message %q", body.Message)
	}
	if repo.calls != 0 {
		t.Errorf("expected auth gate to run before persistence, got %d repo calls", repo.calls)
	}
}

func TestCreate_RejectsTamperedToken(t *testing.T) {
	repo := newFakeTweetRepo()
	mux := setupMux(t, repo)
	token := mintToken(t, "user-1", "ada")

	rec := doJSON(mux, http.MethodPost, "/tweets", token[:len(token)-2]+"xx", `{"message":"hello"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if repo.calls != 0 {
		t.Errorf("expected zero repo calls, got %d", repo.calls)
	}
}

func TestCreate_ValidationMessages(t *testing.T) {
	repo := newFakeTweetRepo()
	mux := setupMux(t, repo)
	token := mintToken(t, "user-1", "ada")

	rec := doJSON(mux, http.MethodPost, "/tweets", token, `{"message":"   "}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body.Title != "Bad request." {
		t.Errorf("expected title %q, got %q", "Bad request.", body.Title)
	}
	if len(body.Errors) != 1 || body.Errors[0] != "Please provide a tweet message." {
		t.Errorf("unexpected failures %v", body.Errors)
	}
	if repo.calls != 0 {
		t.Errorf("expected no persistence on validation failure, got %d calls", repo.calls)
	}
}

func TestCreate_MessageLengthBoundary(t *testing.T) {
	repo := newFakeTweetRepo()
	mux := setupMux(t, repo)
	token := mintToken(t, "user-1", "ada")

	atLimit := strings.Repeat("a", 280)
	rec := doJSON(mux, http.MethodPost, "/tweets", token, `{"message":"`+atLimit+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 280-character message to pass, got %d: %s", rec.Code, rec.Body.String())
	}

	overLimit := strings.Repeat("a", 281)
	rec = doJSON(mux, http.MethodPost, "/tweets", token, `{"message":"`+overLimit+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 281-character message to fail, got %d", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if len(body.Errors) != 1 || body.Errors[0] != "Tweet message must not be longer than 280 characters." {
		t.Errorf("unexpected failures %v", body.Errors)
	}
}

func TestCreate_OwnerFromToken(t *testing.T) {
	repo := newFakeTweetRepo()
	mux := setupMux(t, repo)
	token := mintToken(t, "user-1", "ada")

	rec := doJSON(mux, http.MethodPost, "/tweets", token, `{"message":"hello"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		NewTweet domain.Tweet `json:"newTweet"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.NewTweet.UserID != "user-1" {
		t.Errorf("expected owner user-1 from token, got %q", resp.NewTweet.UserID)
	}
	if resp.NewTweet.Message != "hello" {
		t.Errorf("expected message hello, got %q", resp.NewTweet.Message)
	}
}

func TestGet_IsPublic(t *testing.T) {
	repo := newFakeTweetRepo()
	repo.tweets = append(repo.tweets, domain.Tweet{ID: 1, Message: "hello", UserID: "user-1"})
	mux := setupMux(t, repo)

	rec := doJSON(mux, http.MethodGet, "/tweets/1", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without a token, got %d", rec.Code)
	}
	var tweet domain.Tweet
	if err := json.Unmarshal(rec.Body.Bytes(), &tweet); err != nil {
		t.Fatalf("decode tweet: %v", err)
	}
	if tweet.Message != "hello" {
		t.Errorf("expected hello, got %q", tweet.Message)
	}
}

func TestGet_NonNumericID(t *testing.T) {
	mux := setupMux(t, newFakeTweetRepo())

	rec := doJSON(mux, http.MethodGet, "/tweets/abc", "", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body.Title != "Server Error" {
		t.Errorf("expected route-miss title %q, got %q", "Server Error", body.Title)
	}
}

func TestGet_MissingTweet(t *testing.T) {
	mux := setupMux(t, newFakeTweetRepo())

	rec := doJSON(mux, http.MethodGet, "/tweets/999", "", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body.Title != "Tweet not found." {
		t.Errorf("expected title %q, got %q", "Tweet not found.", body.Title)
	}
	if body.Message != "The requested resource couldn't be found." {
		t.Errorf("unexpected message %q", body.Message)
	}
}

func TestList_IncludesUsername(t *testing.T) {
	repo := newFakeTweetRepo()
	repo.usernames["user-1"] = "ada"
	repo.tweets = append(repo.tweets, domain.Tweet{ID: 1, Message: "hello", UserID: "user-1"})
	mux := setupMux(t, repo)
	token := mintToken(t, "user-1", "ada")

	rec := doJSON(mux, http.MethodGet, "/tweets", token, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Tweets []domain.AnnotatedTweet `json:"tweets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(resp.Tweets) != 1 {
		t.Fatalf("expected 1 tweet, got %d", len(resp.Tweets))
	}
	if resp.Tweets[0].Username != "ada" {
		t.Errorf("expected username ada in listing, got %q", resp.Tweets[0].Username)
	}
}

func TestUpdate_RequiresToken(t *testing.T) {
	repo := newFakeTweetRepo()
	repo.tweets = append(repo.tweets, domain.Tweet{ID: 1, Message: "hello", UserID: "user-1"})
	mux := setupMux(t, repo)

	rec := doJSON(mux, http.MethodPut, "/tweets/1", "", `{"message":"edited"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestDelete_RedirectsToListing(t *testing.T) {
	repo := newFakeTweetRepo()
	repo.tweets = append(repo.tweets, domain.Tweet{ID: 1, Message: "hello", UserID: "user-1"})
	mux := setupMux(t, repo)
	token := mintToken(t, "user-1", "ada")

	rec := doJSON(mux, http.MethodDelete, "/tweets/1", token, "")

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/tweets" {
		t.Errorf("expected redirect to /tweets, got %q", loc)
	}

	rec = doJSON(mux, http.MethodGet, "/tweets/1", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected deleted tweet to be gone, got %d", rec.Code)
	}
}

func TestDelete_MissingTweet(t *testing.T) {
	mux := setupMux(t, newFakeTweetRepo())
	token := mintToken(t, "user-1", "ada")

	rec := doJSON(mux, http.MethodDelete, "/tweets/999", token, "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body.Title != "Tweet not found." {
		t.Errorf("expected title %q, got %q", "Tweet not found.", body.Title)
	}
}

func TestCollection_MethodNotAllowed(t *testing.T) {
	mux := setupMux(t, newFakeTweetRepo())
	token := mintToken(t, "user-1", "ada")

	rec := doJSON(mux, http.MethodPatch, "/tweets", token, "")

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

// TestStream_HandshakeThroughMiddlewareChain upgrades a websocket behind the
// same recovery/metrics/body-limit chain cmd/api installs and checks a
// created tweet is broadcast to the connected client.
func TestStream_HandshakeThroughMiddlewareChain(t *testing.T) {
	log, err := logger.New("", "test", "error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	errH := commonhttp.NewErrorHandler(log, true)
	auth := jwtverify.Middleware(testSecret, errH, log)

	hub := stream.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	svc := service.NewService(newFakeTweetRepo(), hub, log)
	handler := tweethttp.NewHandler(svc, hub, auth, errH, log, 5*time.Second)
	mux := http.NewServeMux()
	handler.Register(mux)

	chained := commonhttp.Chain(
		mux,
		commonhttp.RecoveryMiddleware(log, errH),
		httpmetrics.Middleware,
		commonhttp.MaxRequestSizeMiddleware(commonhttp.DefaultMaxRequestSize, errH),
	)

	srv := httptest.NewServer(chained)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/tweets/stream"
	header := http.Header{"Authorization": {"Bearer " + mintToken(t, "user-1", "ada")}}

	conn, resp, err := gorillaWS.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("websocket dial failed (status %d): %v", status, err)
	}
	defer conn.Close()

	// Let the handler finish registering the client with the hub.
	time.Sleep(100 * time.Millisecond)

	if _, err := svc.Create(context.Background(), "user-1", "ada", "hello"); err != nil {
		t.Fatalf("create: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	var got domain.AnnotatedTweet
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if got.Message != "hello" || got.Username != "ada" {
		t.Errorf("unexpected broadcast %+v", got)
	}
}

func TestStream_RejectsDialWithoutToken(t *testing.T) {
	log, err := logger.New("", "test", "error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	errH := commonhttp.NewErrorHandler(log, true)
	auth := jwtverify.Middleware(testSecret, errH, log)

	hub := stream.NewHub(log)
	svc := service.NewService(newFakeTweetRepo(), hub, log)
	mux := http.NewServeMux()
	tweethttp.NewHandler(svc, hub, auth, errH, log, 5*time.Second).Register(mux)

	srv := httptest.NewServer(commonhttp.Chain(mux, httpmetrics.Middleware))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/tweets/stream"
	_, resp, err := gorillaWS.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected dial without token to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Errorf("expected 401 handshake rejection, got %d", status)
	}
}

func TestErrorBody_StackNullInProduction(t *testing.T) {
	mux := setupMux(t, newFakeTweetRepo())

	rec := doJSON(mux, http.MethodGet, "/tweets/999", "", "")

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode raw body: %v", err)
	}
	stack, ok := raw["stack"]
	if !ok {
		t.Fatal("expected stack field present")
	}
	if string(stack) != "null" {
		t.Errorf("expected stack to be null in production, got %s", stack)
	}
}
