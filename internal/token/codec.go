package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	// Issuer and Audience are fixed for this single-issuer deployment. The
	// verifier rejects tokens carrying anything else.
	Issuer   = "conduit-identity"
	Audience = "conduit-web"

	// ValidityPeriod is how long an issued token stays verifiable.
	ValidityPeriod = 3600 * time.Second

	bearerPrefix = "Bearer "

	claimUsername = "username"
	claimRole     = "role"
)

// ErrTokenInvalid covers every verification failure: malformed token, bad
// signature, wrong issuer or audience, expired. Callers see one
// undifferentiated kind so a rejected token reveals nothing about why.
var ErrTokenInvalid = errors.New("token invalid")

// Claims is the payload carried by an issued token.
type Claims struct {
	Issuer   string
	Subject  string
	Audience string
	IssuedAt time.Time
	Expiry   time.Time
	TokenID  string
	Username string
	Role     string
}

// Codec issues and verifies signed compact tokens using a single key pair.
// Safe for concurrent use; the key material is never mutated after
// construction.
type Codec struct {
	keys *KeyMaterial
	now  func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the codec's time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a codec bound to the given key material.
func NewCodec(keys *KeyMaterial, opts ...Option) *Codec {
	c := &Codec{
		keys: keys,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue serializes the claim set as a signed compact token. The issuer,
// audience, issued-at, expiry and token ID are always set here; any values
// carried in by the caller are ignored. Only Subject, Username and Role are
// taken from the input.
func (c *Codec) Issue(claims Claims) (string, error) {
	now := c.now().UTC().Truncate(time.Second)

	tok, err := jwt.NewBuilder().
		Issuer(Issuer).
		Subject(claims.Subject).
		Audience([]string{Audience}).
		IssuedAt(now).
		Expiration(now.Add(ValidityPeriod)).
		JwtID(uuid.NewString()).
		Claim(claimUsername, claims.Username).
		Claim(claimRole, claims.Role).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS512, c.keys.private))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), nil
}

// Verify parses a compact token, checks its signature against the public key
// and validates issuer, audience and expiry. The validity window is
// [issued-at, expiry), exclusive at the expiry instant, with no clock skew
// allowance. An optional leading "Bearer " prefix is stripped first. Every
// failure maps to ErrTokenInvalid; the underlying cause is wrapped for
// server-side logging only.
//
// The token ID is not checked against a replay cache: a captured token stays
// usable until expiry.
func (c *Codec) Verify(raw string) (*Claims, error) {
	raw = strings.TrimPrefix(raw, bearerPrefix)

	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.RS512, c.keys.public),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(c.now)),
		jwt.WithAcceptableSkew(0),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims := &Claims{
		Issuer:   tok.Issuer(),
		Subject:  tok.Subject(),
		IssuedAt: tok.IssuedAt(),
		Expiry:   tok.Expiration(),
		TokenID:  tok.JwtID(),
	}
	if aud := tok.Audience(); len(aud) > 0 {
		claims.Audience = aud[0]
	}
	if v, ok := tok.Get(claimUsername); ok {
		if s, ok := v.(string); ok {
			claims.Username = s
		}
	}
	if v, ok := tok.Get(claimRole); ok {
		if s, ok := v.(string); ok {
			claims.Role = s
		}
	}

	return claims, nil
}
