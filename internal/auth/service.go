package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 24 * time.Hour * 14
)

// dummyHash is compared against when the username is unknown so that a login
// attempt costs one bcrypt comparison whether or not the account exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Service orchestrates credential verification and token issuance. It holds
// no cross-request mutable state; every decision is a function of its inputs,
// the signing secret and the store's current snapshot.
type Service struct {
	store CredentialStore
	codec *Codec
	now   func() time.Time

	accessTTL  time.Duration
	refreshTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.accessTTL = ttl
		}
		return nil
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs Service with optional configuration.
func NewService(store CredentialStore, codec *Codec, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: credential store is required")
	}
	if codec == nil {
		return nil, errors.New("auth: token codec is required")
	}
	svc := &Service{
		store:      store,
		codec:      codec,
		now:        time.Now,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// TokenPair represents freshly minted access and refresh tokens.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// IssueTokenPair verifies the credentials and mints an access/refresh token
// pair carrying the resolved role. Unknown username and wrong password both
// map to ErrInvalidCredentials so a caller cannot probe which part failed.
// Either both tokens are returned or neither.
func (s *Service) IssueTokenPair(ctx context.Context, username, password string) (TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return TokenPair{}, ErrInvalidCredentials
	}
	user, err := s.store.FindByName(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = VerifyPassword(dummyHash, password)
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	access, err := s.codec.Encode(user.Name, user.Role, KindAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.codec.Encode(user.Name, user.Role, KindRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(s.accessTTL),
		RefreshExpiresAt: now.Add(s.refreshTTL),
	}, nil
}

// AccessGrant is the result of a refresh: exactly one new access token. No
// refresh token is reissued; the presented one stays valid until its expiry.
type AccessGrant struct {
	Token     string
	ExpiresAt time.Time
	Subject   string
	Role      Role
}

// Refresh decodes the presented token, requires kind "refresh" and mints a
// new access token with the same subject and role. Presenting an access
// token here fails with ErrWrongTokenKind: access tokens must never be
// exchangeable for new access tokens, that would defeat their short life.
func (s *Service) Refresh(ctx context.Context, token string) (AccessGrant, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		return AccessGrant{}, err
	}
	if claims.Kind != KindRefresh {
		return AccessGrant{}, ErrWrongTokenKind
	}
	access, err := s.codec.Encode(claims.Subject, claims.Role, KindAccess, s.accessTTL)
	if err != nil {
		return AccessGrant{}, err
	}
	return AccessGrant{
		Token:     access,
		ExpiresAt: s.now().UTC().Add(s.accessTTL),
		Subject:   claims.Subject,
		Role:      claims.Role,
	}, nil
}

// AuthenticateAccess validates a bearer token presented on a protected route
// and requires kind "access". A refresh token presented here fails with
// ErrWrongTokenKind, mirroring the refresh-side asymmetry.
func (s *Service) AuthenticateAccess(token string) (*Claims, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	if claims.Kind != KindAccess {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}
