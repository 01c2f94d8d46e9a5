package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelbook/pkg/model"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Claims carries the caller's role next to the registered claims. The subject
// is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IdentityResolver turns a bearer credential into an Identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (model.Identity, error)
}

// JWTProvider issues and verifies HS256 tokens.
type JWTProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTProvider(secret, issuer string, ttl time.Duration) *JWTProvider {
	return &JWTProvider{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (p *JWTProvider) Issue(identity model.Identity) (string, error) {
	if !identity.Valid() {
		return "", fmt.Errorf("cannot issue token for invalid identity %q", identity.UserID)
	}

	now := p.now()
	claims := Claims{
		Role: identity.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func (p *JWTProvider) Resolve(_ context.Context, token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, ErrUnauthenticated
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	if claims.Subject == "" {
		return model.Identity{}, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}
	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	return model.Identity{UserID: claims.Subject, Role: role}, nil
}
