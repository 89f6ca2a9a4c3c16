// Package identity issues the anonymous identities and session tokens used by ScanTrak.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMissingSecret is returned when no signing secret is configured.
	ErrMissingSecret = errors.New("identity signing secret is empty")
	// ErrInvalidToken is returned for malformed, expired or foreign tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// Token kinds.
const (
	KindSession   = "session"
	KindAnonymous = "anonymous"
)

// Claims carried by every token.
type Claims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// Principal is an established anonymous identity.
type Principal struct {
	UID   string
	Token string
}

// Issuer signs and verifies HS256 tokens for one application path.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds an Issuer. The issuer name scopes tokens to a deployment.
func NewIssuer(secret, issuer string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &Issuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token of the given kind for subject.
func (i *Issuer) Issue(subject, kind string) (string, error) {
	now := i.now()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return token, nil
}

// Parse verifies a token and checks it is of the expected kind.
func (i *Issuer) Parse(token, kind string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Kind != kind || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Anonymous returns a fresh per-session authenticator.
func (i *Issuer) Anonymous() *Anonymous {
	return &Anonymous{issuer: i}
}

// Anonymous establishes one anonymous Principal on first use and reuses it afterwards.
type Anonymous struct {
	issuer    *Issuer
	mu        sync.Mutex
	principal *Principal
}

// Authenticate returns the session's Principal, creating it if needed. Once
// its token expires the same UID is signed again.
func (a *Anonymous) Authenticate(ctx context.Context) (Principal, error) {
	if err := ctx.Err(); err != nil {
		return Principal{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.issuer == nil {
		return Principal{}, ErrMissingSecret
	}

	uid := uuid.NewString()
	if a.principal != nil {
		if _, err := a.issuer.Parse(a.principal.Token, KindAnonymous); err == nil {
			return *a.principal, nil
		}
		uid = a.principal.UID
	}

	token, err := a.issuer.Issue(uid, KindAnonymous)
	if err != nil {
		return Principal{}, err
	}

	a.principal = &Principal{UID: uid, Token: token}
	return *a.principal, nil
}
