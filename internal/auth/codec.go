package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes the two bearer credentials the service issues.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is the signed payload of every bearer token. Decoding a token is
// the single validation entry point: signature, expiry, issuer, subject and
// role are all checked here and nowhere else.
type Claims struct {
	Role Role      `json:"role"`
	Kind TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// Codec signs and verifies self-contained HS256 tokens. It holds no state
// beyond the immutable secret, so concurrent use needs no coordination.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// CodecOption configures Codec behavior.
type CodecOption func(*Codec)

// WithCodecClock overrides the time source (useful for tests).
func WithCodecClock(fn func() time.Time) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec constructs a Codec for the given signing secret.
func NewCodec(secret []byte, issuer string, opts ...CodecOption) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	c := &Codec{
		secret: secret,
		issuer: strings.TrimSpace(issuer),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encode mints a signed token for subject with the given role, kind and ttl.
func (c *Codec) Encode(subject string, role Role, kind TokenKind, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("auth: subject is required")
	}
	if kind != KindAccess && kind != KindRefresh {
		return "", errors.New("auth: unsupported token kind")
	}
	if ttl <= 0 {
		return "", errors.New("auth: ttl must be greater than zero")
	}

	now := c.now().UTC()
	claims := Claims{
		Role: role,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Decode verifies the token signature and claims. It returns ErrExpiredToken
// for a well-signed token past its expiry and ErrInvalidToken for everything
// else: a forged signature, a malformed payload, a wrong issuer, an unknown
// role or a missing subject.
func (c *Codec) Decode(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithIssuer(c.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	if claims.Kind != KindAccess && claims.Kind != KindRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
