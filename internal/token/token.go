// Package token issues and verifies the signed access and refresh tokens
// that carry the authenticated principal between requests.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/quillpress/quillpress/internal/shared"
)

var (
	// ErrTokenExpired indicates the token's expiry has passed.
	ErrTokenExpired = errors.New("token: expired")
	// ErrTokenInvalid indicates a bad signature or malformed payload.
	ErrTokenInvalid = errors.New("token: invalid")
)

// Kind selects which signing secret verifies a token.
type Kind int

const (
	// KindAccess verifies against the access secret.
	KindAccess Kind = iota
	// KindRefresh verifies against the refresh secret.
	KindRefresh
)

type claims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// Service signs and verifies HS256 tokens. Access and refresh tokens use
// different secrets so a leaked access secret cannot mint refresh tokens.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewService constructs a token Service.
func NewService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccessToken signs a short-lived token embedding the principal's id,
// username and role-name snapshot.
func (s *Service) IssueAccessToken(p shared.Principal) (string, error) {
	return s.issue(p, s.accessSecret, s.accessTTL)
}

// IssueRefreshToken signs a long-lived token with the refresh secret. Each
// refresh token carries a unique jti so two sign-ins in the same second still
// produce distinct token strings.
func (s *Service) IssueRefreshToken(p shared.Principal) (string, error) {
	return s.issue(p, s.refreshSecret, s.refreshTTL)
}

func (s *Service) issue(p shared.Principal, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	c := claims{
		Username: p.Username,
		Roles:    p.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and extracts the principal. Callers map
// both failure modes to a single 401 so the distinction never reaches the
// client.
func (s *Service) Verify(raw string, kind Kind) (shared.Principal, error) {
	secret := s.accessSecret
	if kind == KindRefresh {
		secret = s.refreshSecret
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return shared.Principal{}, ErrTokenExpired
		}
		return shared.Principal{}, ErrTokenInvalid
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return shared.Principal{}, ErrTokenInvalid
	}
	return shared.Principal{ID: id, Username: c.Username, Roles: c.Roles}, nil
}
