package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the subset of the supabase access token we rely on.
// sub is the creator's user id.
type Claims struct {
	jwt.RegisteredClaims

	// role is "authenticated" for signed in users, "anon" otherwise
	Role string `json:"role,omitempty"`

	Email     string `json:"email,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// UserID returns the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

// IsAuthenticated reports whether the token belongs to a signed in user.
func (c *Claims) IsAuthenticated() bool {
	return c.Role == "authenticated"
}

// common jwt validation errors
var (
	ErrMissingToken     = errors.New("missing authorization token")
	ErrInvalidToken     = errors.New("invalid token format")
	ErrTokenExpired     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// JWTValidator validates HS256 tokens issued by the hosted auth provider.
// the service never issues tokens itself outside of tests.
type JWTValidator struct {
	secret []byte
	now    func() time.Time
}

// NewJWTValidator creates a new validator with the shared jwt secret.
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// ValidateToken parses and validates a token, with or without the
// "Bearer " prefix. the subject must be a uuid.
func (v *JWTValidator) ValidateToken(raw string) (*Claims, error) {
	tokenString := ExtractBearerToken(raw)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now), jwt.WithExpirationRequired())

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject claim", ErrInvalidClaims)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("%w: subject is not a uuid", ErrInvalidClaims)
	}
	if claims.Role == "anon" {
		return nil, fmt.Errorf("%w: anonymous tokens are not accepted", ErrInvalidClaims)
	}

	return claims, nil
}

// ExtractBearerToken extracts the token from an Authorization header value.
// the scheme is matched case-insensitively.
func ExtractBearerToken(authHeader string) string {
	fields := strings.Fields(authHeader)
	switch {
	case len(fields) == 0:
		return ""
	case strings.EqualFold(fields[0], "bearer"):
		if len(fields) < 2 {
			return ""
		}
		return fields[1]
	}
	return strings.TrimSpace(authHeader)
}

// SignToken issues an HS256 token for the subject. used by tests and the
// local development tooling.
func SignToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: "authenticated",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
