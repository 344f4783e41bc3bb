package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token purposes. A recovery token only authorizes a password update.
const (
	PurposeAccess   = "access"
	PurposeRecovery = "recovery"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims represents the claims in session and recovery tokens
type Claims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 tokens.
type TokenService struct {
	secretKey []byte
	issuer    string
	now       func() time.Time
}

func NewTokenService(secretKey, issuer string) *TokenService {
	return &TokenService{secretKey: []byte(secretKey), issuer: issuer, now: time.Now}
}

// Issue returns a signed token for the user and its expiry.
func (ts *TokenService) Issue(userID, email, purpose string, ttl time.Duration) (string, time.Time, error) {
	now := ts.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    ts.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the token and checks that its purpose is one of purposes.
func (ts *TokenService) Parse(token string, purposes ...string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return ts.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ts.issuer),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	for _, p := range purposes {
		if claims.Purpose == p {
			return claims, nil
		}
	}
	return nil, ErrInvalidToken
}

// TokenExpiry reads the exp claim of a JWT without verifying it. It returns
// the zero time when token is not a JWT or carries no expiry. The signature
// is checked by the provider that issued the token.
func TokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
