package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/featherline/backend/internal/common/clock"
	commoncrypto "github.com/featherline/backend/internal/common/crypto"
	"github.com/featherline/backend/internal/common/jwtverify"
	"github.com/featherline/backend/internal/observability/metrics"
	"github.com/featherline/backend/internal/user/domain"
)

var (
	ErrInvalidToken = errors.New("token is not valid")
	ErrExpiredToken = errors.New("token is expired")
)

// TokenIssuer signs and resolves the stateless bearer tokens. The signing key
// is process-wide configuration loaded once at startup; nothing is stored.
type TokenIssuer struct {
	jwtSecret   []byte
	idGenerator commoncrypto.IDGenerator
	clock       clock.Clock
	tokenTTL    time.Duration
}

func NewTokenIssuer(
	jwtSecret string,
	idGenerator commoncrypto.IDGenerator,
	tokenTTL time.Duration,
	clock clock.Clock,
) *TokenIssuer {
	return &TokenIssuer{
		jwtSecret:   []byte(jwtSecret),
		idGenerator: idGenerator,
		clock:       clock,
		tokenTTL:    tokenTTL,
	}
}

func (ti *TokenIssuer) Issue(user domain.User) (string, error) {
	jti, err := ti.idGenerator.NewID()
	if err != nil {
		return "", err
	}

	now := ti.clock.Now()
	claims := jwt.MapClaims{
		"sub": string(user.ID),
		"usr": user.Username,
		"jti": jti,
		"exp": now.Add(ti.tokenTTL).Unix(),
		"iat": now.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := t.SignedString(ti.jwtSecret)
	if err != nil {
		return "", err
	}

	metrics.TokensIssuedTotal.Inc()
	return tokenString, nil
}

// Resolve verifies the signature and expiry against the issuer's clock. It
// has no side effects.
func (ti *TokenIssuer) Resolve(tokenString string) (jwtverify.Claims, error) {
	claims, err := jwtverify.ParseTokenAt(tokenString, ti.jwtSecret, ti.clock.Now)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return jwtverify.Claims{}, ErrExpiredToken
		}
		return jwtverify.Claims{}, ErrInvalidToken
	}
	return claims, nil
}
