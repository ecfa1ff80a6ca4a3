package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errUnauthenticated = errors.New("missing or invalid credentials")

// Authenticator resolves the acting identity of a request. Bearer tokens are
// HS256 JWTs whose subject is the identity id. When AllowHeaderActor is set
// and no token is presented, X-User-Id is trusted as-is (dev and tests only).
type Authenticator struct {
	Secret           []byte
	Issuer           string
	AllowHeaderActor bool
	Now              func() time.Time
}

func (a Authenticator) ResolveActor(r *http.Request) (string, error) {
	if token, ok := bearerToken(r); ok {
		return a.parse(token)
	}
	if a.AllowHeaderActor {
		if actor := strings.TrimSpace(r.Header.Get("X-User-Id")); actor != "" {
			return actor, nil
		}
	}
	return "", errUnauthenticated
}

func (a Authenticator) parse(token string) (string, error) {
	if len(a.Secret) == 0 {
		return "", errUnauthenticated
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.Issuer))
	}
	if a.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(a.Now))
	}

	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.Secret, nil
	}, opts...); err != nil {
		return "", errUnauthenticated
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", errUnauthenticated
	}
	return subject, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
