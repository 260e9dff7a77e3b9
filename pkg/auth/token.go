package auth

import (
	"errors"
	"fmt"
	"rentals/pkg/clock"
	"rentals/pkg/model"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

const defaultLeeway = 30 * time.Second

type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the caller resolved from a verified access token.
type Identity struct {
	UserID string
	Role   model.Role
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  clock.Clock
}

func NewTokenManager(secret, issuer string, ttl time.Duration, clk clock.Clock) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}
	if clk == nil {
		clk = clock.System()
	}
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		clock:  clk,
	}, nil
}

func (m *TokenManager) Issue(userID string, role model.Role) (string, error) {
	now := m.clock.Now().UTC()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) Verify(token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(defaultLeeway),
		jwt.WithTimeFunc(m.clock.Now),
	}
	if m.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(m.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: subject missing", ErrInvalidToken)
	}
	if claims.Role != model.RoleLender && claims.Role != model.RoleBorrower {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return &Identity{UserID: claims.Subject, Role: claims.Role}, nil
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}
