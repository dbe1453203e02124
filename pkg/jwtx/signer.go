package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeySize is the shortest HMAC key accepted by NewHS256.
const MinKeySize = 32

// Signer is anything that can sign session claims.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// HS256 signs and verifies session JWTs with a symmetric device key. Both
// ends of the token live on the same device so no public key is published.
type HS256 struct {
	key    []byte
	issuer string
}

var _ Signer = (*HS256)(nil)
var _ Verifier = (*HS256)(nil)

// NewHS256 returns an HS256 signer/verifier bound to issuer.
func NewHS256(key []byte, issuer string) (*HS256, error) {
	if len(key) < MinKeySize {
		return nil, errors.New("jwtx: HS256 key too short")
	}
	return &HS256{key: append([]byte(nil), key...), issuer: issuer}, nil
}

func (s *HS256) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign turns the claims into a compact JWT string.
func (s *HS256) Sign(claims Claims) (string, error) {
	if claims.Issuer == "" {
		claims.Issuer = s.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Verify validates the JWT string and returns its parsed Claims.
func (s *HS256) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, fmt.Errorf("%w: %w", ErrInvalidSig, err)
		}
		return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidClaim
	}
	if err := claims.ValidateIssuer(s.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateRequired(); err != nil {
		return Claims{}, err
	}
	return *claims, nil
}
