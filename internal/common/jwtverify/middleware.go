package jwtverify

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/featherline/backend/internal/common/apperror"
	commonhttp "github.com/featherline/backend/internal/common/http"
	"github.com/featherline/backend/internal/common/logger"
	"github.com/featherline/backend/internal/observability/metrics"
)

type Claims struct {
	UserID   string
	Username string
}

type contextKey string

const claimsKey contextKey = "jwt_claims"

// Middleware rejects requests without a valid bearer token before any
// validation or persistence work runs. The 401 body is deliberately generic.
func Middleware(secret string, handler *commonhttp.ErrorHandler, log *logger.Logger) func(next http.Handler) http.Handler {
	secretBytes := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
				log.Warnf("auth failed path=%s: missing or invalid authorization header", r.URL.Path)
				metrics.AuthFailuresTotal.Inc()
				handler.HandleError(w, r, apperror.Unauthenticated())
				return
			}

			tokenString := strings.TrimPrefix(raw, "Bearer ")
			claims, err := parseToken(tokenString, secretBytes, time.Now)
			if err != nil {
				log.Warnf("auth failed path=%s: %v", r.URL.Path, err)
				metrics.AuthFailuresTotal.Inc()
				handler.HandleError(w, r, apperror.Unauthenticated().WithCause(err))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func FromContext(ctx context.Context) (Claims, bool) {
	val := ctx.Value(claimsKey)
	claims, ok := val.(Claims)
	return claims, ok
}

func ParseToken(tokenString string, secret []byte) (Claims, error) {
	return parseToken(tokenString, secret, time.Now)
}

// ParseTokenAt validates claims against the supplied clock instead of
// wall time.
func ParseTokenAt(tokenString string, secret []byte, now func() time.Time) (Claims, error) {
	return parseToken(tokenString, secret, now)
}

func parseToken(tokenString string, secret []byte, now func() time.Time) (Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithTimeFunc(now))
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("token is not valid")
		}
		return Claims{}, err
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("invalid claims type")
	}

	sub, _ := mapClaims["sub"].(string)
	username, _ := mapClaims["usr"].(string)
	if sub == "" || username == "" {
		return Claims{}, errors.New("missing sub or usr claims")
	}

	return Claims{
		UserID:   sub,
		Username: username,
	}, nil
}
