package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the access token lifetime used when configuration does
// not override it.
const DefaultTokenTTL = 30 * time.Minute

const defaultIssuerName = "taskhub"

// Claims represents the assertions embedded in an access token. Role, Email
// and Name reflect the identity's state at issuance and may be stale;
// authorization decisions re-derive the current role from storage (see
// Service.Resolve).
type Claims struct {
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies signed bearer tokens using a process-wide HS256
// secret. The secret is loaded once at startup and never rotated at runtime;
// changing it invalidates all outstanding tokens.
type Issuer struct {
	secret []byte
	name   string
	now    func() time.Time
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithIssuerName overrides the iss claim value.
func WithIssuerName(name string) IssuerOption {
	return func(i *Issuer) {
		if n := strings.TrimSpace(name); n != "" {
			i.name = n
		}
	}
}

// WithIssuerClock overrides the time source (useful for tests).
func WithIssuerClock(fn func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if fn != nil {
			i.now = fn
		}
	}
}

// NewIssuer constructs an Issuer. An empty secret is a configuration error
// and must be treated as fatal at startup.
func NewIssuer(secret string, opts ...IssuerOption) (*Issuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	iss := &Issuer{
		secret: []byte(secret),
		name:   defaultIssuerName,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(iss)
	}
	return iss, nil
}

// Issue signs a token with sub = subjectID and exp = now + ttl. The role and
// any extra claims (email, display name) are embedded as issued-time
// snapshots. Registered claim names cannot be overridden through extra.
func (i *Issuer) Issue(subjectID string, role Role, extra map[string]string, ttl time.Duration) (string, time.Time, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return "", time.Time{}, errors.New("auth: subject id is required")
	}
	now := i.now().UTC()
	exp := now.Add(ttl)

	claims := jwt.MapClaims{
		"iss":  i.name,
		"sub":  subjectID,
		"iat":  jwt.NewNumericDate(now),
		"exp":  jwt.NewNumericDate(exp),
		"jti":  uuid.NewString(),
		"role": string(role),
	}
	for k, v := range extra {
		k = strings.TrimSpace(k)
		if k == "" || v == "" {
			continue
		}
		switch k {
		case "iss", "sub", "iat", "exp", "jti", "nbf", "aud":
			continue
		}
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses the token and checks signature and expiry atomically. It
// returns ErrExpired for a well-signed token past its expiry and
// ErrInvalidToken for anything malformed, tampered or missing a subject.
// Raw token material is never logged; use TruncateToken for correlation.
func (i *Issuer) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
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
	return claims, nil
}

// TruncateToken returns a short prefix of the token safe to include in log
// lines as a correlation detail.
func TruncateToken(token string) string {
	const keep = 8
	if len(token) <= keep {
		return token
	}
	return token[:keep] + "..."
}
