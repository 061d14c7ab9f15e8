// Package auth provides JWT minting and validation plus password hashing
// for the account endpoints. The chat core only sees the TokenValidator port.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/YakymenkoDarii/RealTimeChatApp/internal/domain"
)

// Claims is the data stored inside a token: the stable user id and the
// unique username the presence registry is keyed on.
type Claims struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	jwt.RegisteredClaims
}

// TokenService mints and validates HS256-signed tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	clock      clockwork.Clock
}

var _ domain.TokenValidator = (*TokenService)(nil)

func NewTokenService(signingKey, issuer string, ttl time.Duration, clock clockwork.Clock) *TokenService {
	return &TokenService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		clock:      clock,
	}
}

// Generate creates a signed token for the user.
func (s *TokenService) Generate(userID, userName string) (string, error) {
	now := s.clock.Now()
	claims := &Claims{
		UserID:   userID,
		UserName: userName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and checks the signature and expiry of a token string.
// Any failure maps to domain.ErrInvalidToken so callers need no knowledge
// of JWT internals.
func (s *TokenService) Validate(tokenString string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" || claims.UserName == "" {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	return domain.Identity{UserID: claims.UserID, UserName: claims.UserName}, nil
}
