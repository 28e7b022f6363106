package foodrecipe

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"
)

const RoleAdmin = "admin"

// Claims is the identity carried by a signed token.
type Claims struct {
	UserID   uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`

	jwt.RegisteredClaims
}

func NewClaims(user *User, role string) Claims {
	return Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     role,
	}
}

// TokenService signs and verifies HS256 tokens with one shared secret for users and admins.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type TokenServiceParams struct {
	fx.In

	Config *Config
}

func NewTokenService(params TokenServiceParams) (*TokenService, error) {
	if params.Config.Auth.JWTSecret == "" {
		return nil, errors.New("jwt signing secret is empty")
	}

	return &TokenService{
		secret: []byte(params.Config.Auth.JWTSecret),
		ttl:    params.Config.Auth.TokenTTL,
		now:    time.Now,
	}, nil
}

// Issue signs claims. An exp claim is only added when a TTL is configured.
func (s *TokenService) Issue(claims Claims) (string, error) {
	if s.ttl > 0 {
		now := s.now()
		claims.IssuedAt = jwt.NewNumericDate(now)
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == 0 || claims.Username == "" {
		return nil, fmt.Errorf("%w: missing identity claims", ErrInvalidToken)
	}

	return claims, nil
}
