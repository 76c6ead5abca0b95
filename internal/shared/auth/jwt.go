package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity carried by bearer tokens issued by the auth layer.
// Older tokens carry the owner in userId instead of sub.
type Claims struct {
	Sub    string
	UserID string
	Email  string
	Exp    int64
	Iat    int64
}

// Subject returns the owner id of the token.
func (c Claims) Subject() string {
	if s := strings.TrimSpace(c.Sub); s != "" {
		return s
	}
	return strings.TrimSpace(c.UserID)
}

var (
	ErrMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

const defaultTokenTTL = 24 * time.Hour

// claimID accepts an id claim encoded as a JSON string or number.
type claimID string

func (id *claimID) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*id = ""
	case string:
		*id = claimID(t)
	case json.Number:
		*id = claimID(t.String())
	default:
		return fmt.Errorf("id claim must be a string or number")
	}
	return nil
}

// tokenClaims is the wire form of Claims.
type tokenClaims struct {
	UserID claimID `json:"userId,omitempty"`
	Email  string  `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens against a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier builds a Verifier. Outside dev-like environments the secret is required.
func NewVerifier(secret string, devLike bool) (*Verifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		if !devLike {
			return nil, fmt.Errorf("%w: JWT_SECRET required", ErrMissingSecret)
		}
		secret = "dev-secret"
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

// Sign issues a token for claims. Used by tooling and tests; the API never mints tokens.
func (v *Verifier) Sign(claims Claims) (string, error) {
	if claims.Subject() == "" {
		return "", errors.New("subject is required")
	}
	now := v.now().UTC()
	iat := now
	if claims.Iat != 0 {
		iat = time.Unix(claims.Iat, 0)
	}
	exp := now.Add(defaultTokenTTL)
	if claims.Exp != 0 {
		exp = time.Unix(claims.Exp, 0)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID: claimID(claims.UserID),
		Email:  claims.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Sub,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	return token.SignedString(v.secret)
}

// Verify checks the signature and expiry and returns the claims.
func (v *Verifier) Verify(token string) (Claims, error) {
	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims := Claims{
		Sub:    parsed.Subject,
		UserID: string(parsed.UserID),
		Email:  parsed.Email,
	}
	if parsed.ExpiresAt != nil {
		claims.Exp = parsed.ExpiresAt.Unix()
	}
	if parsed.IssuedAt != nil {
		claims.Iat = parsed.IssuedAt.Unix()
	}
	if claims.Subject() == "" {
		return Claims{}, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	return claims, nil
}
