// Package auth issues and verifies the signed session tokens that gate
// signaling connections. Tokens are HS256 JWTs carrying the username
// and role; expiry is checked at verification time only, there is no
// revocation list.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ali4mini/internal-comms/internal/domain"
)

var (
	ErrTokenMissing = errors.New("token missing")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the token payload. Username and role ride next to the
// registered iat/exp claims.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs time-bounded session tokens with a shared secret.
// Stateless; safe for concurrent use.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue builds a token asserting the given username with the default
// role, valid from now until now+ttl.
func (i *Issuer) Issue(username string) (string, error) {
	ident, err := domain.NewIdentity(username, domain.DefaultRole)
	if err != nil {
		return "", err
	}
	now := i.now()
	claims := Claims{
		Username: ident.Username,
		Role:     ident.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verifier checks a presented token exactly once, at connection
// establishment. Tokens are never revalidated after the handshake.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify returns the identity encoded in the token, or ErrTokenMissing
// when no token was presented, or ErrTokenInvalid when the signature,
// expiry or claims do not check out.
func (v *Verifier) Verify(token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, ErrTokenMissing
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !parsed.Valid {
		return domain.Identity{}, ErrTokenInvalid
	}
	if claims.Username == "" {
		return domain.Identity{}, ErrTokenInvalid
	}
	return domain.Identity{Username: claims.Username, Role: claims.Role}, nil
}
