package identity

//go:generate go run go.uber.org/mock/mockgen -source=./identity.go -destination=./mocks/identity_mock.go -package=mocks

import (
	"errors"
	"fmt"
	"tripmarket/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidClaim = errors.New("invalid token claim")
)

// Claims carries the subset of identity-provider token claims the API cares
// about. Subject is the stable caller identifier every ownership check
// compares against.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks bearer tokens issued by the external identity provider.
// The API never issues tokens of its own.
type Verifier interface {
	VerifyToken(tokenString string) (*Claims, error)
}

type verifierImpl struct {
	config *config.Config
}

func New(cfg *config.Config) Verifier {
	return &verifierImpl{
		config: cfg,
	}
}

// VerifyToken validates the token signature and standard claims and returns
// the parsed claims. The caller identity is Claims.Subject.
func (v *verifierImpl) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}

	if v.config.Auth.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.config.Auth.Issuer))
	}

	if v.config.Auth.Audience != "" {
		options = append(options, jwt.WithAudience(v.config.Auth.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (interface{}, error) {
		return []byte(v.config.Auth.SigningSecret), nil
	}, options...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrInvalidClaim
	}

	return claims, nil
}

// ExtractTokenFromHeader extracts the bearer token from an Authorization header
func ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is required")
	}

	const prefix = "Bearer "
	if len(authHeader) < len(prefix) || authHeader[:len(prefix)] != prefix {
		return "", errors.New("authorization header must start with 'Bearer '")
	}

	return authHeader[len(prefix):], nil
}
