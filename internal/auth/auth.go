package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is stamped into every token and checked on verification.
const Issuer = "upcheck"

var (
	// ErrBadCredentials is returned when the presented API key does not match.
	ErrBadCredentials = errors.New("bad credentials")
	// ErrInvalidToken is returned for expired, malformed or forged tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carried by an issued token.
type Claims struct {
	jwt.RegisteredClaims
}

// Service exchanges the admin API key for short-lived bearer tokens and
// verifies them on each request.
type Service struct {
	secret   []byte
	adminKey string
	ttl      time.Duration
}

func NewService(secret, adminKey string, ttl time.Duration) *Service {
	return &Service{
		secret:   []byte(secret),
		adminKey: adminKey,
		ttl:      ttl,
	}
}

// Authenticate compares the presented key against the configured admin key
// in constant time.
func (s *Service) Authenticate(key string) error {
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) != 1 {
		return ErrBadCredentials
	}
	return nil
}

// IssueToken mints a signed HS256 token and returns it with its expiry.
func (s *Service) IssueToken() (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    Issuer,
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return token, expiresAt, nil
}

// VerifyToken parses and validates a token string. Any parse or validation
// failure, including a wrong signing method or issuer, is reported as
// ErrInvalidToken so callers cannot leak verification internals.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(Issuer))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
