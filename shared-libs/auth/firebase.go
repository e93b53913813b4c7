package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultFirebaseJWKSURL serves the public keys that sign Firebase Auth ID tokens.
const DefaultFirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

var errMissingSubject = errors.New("token missing subject claim")

// firebaseVerifier validates Firebase-issued ID tokens using JWKS.
type firebaseVerifier struct {
	keyfunc  jwt.Keyfunc
	audience string
	issuer   string
}

func newFirebaseVerifier(cfg Config) (Verifier, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firebase project id is required")
	}
	url := cfg.JWKSURL
	if url == "" {
		url = DefaultFirebaseJWKSURL
	}

	options := keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("jwks refresh failed", "error", err)
			}
		},
	}

	jwks, err := keyfunc.Get(url, options)
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS: %w", err)
	}

	return newFirebaseVerifierWithKeys(jwks.Keyfunc, cfg.ProjectID), nil
}

func newFirebaseVerifierWithKeys(keys jwt.Keyfunc, projectID string) *firebaseVerifier {
	return &firebaseVerifier{
		keyfunc:  keys,
		audience: projectID,
		issuer:   "https://securetoken.google.com/" + projectID,
	}
}

func (v *firebaseVerifier) Verify(_ context.Context, token string) (AuthenticatedUser, error) {
	options := []jwt.ParserOption{
		jwt.WithLeeway(5 * time.Second),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	}

	t, err := jwt.Parse(token, v.keyfunc, options...)
	if err != nil {
		return AuthenticatedUser{}, fmt.Errorf("token verification failed: %w", err)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return AuthenticatedUser{}, errors.New("unexpected claims type")
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return AuthenticatedUser{}, errMissingSubject
	}

	email, _ := claims["email"].(string)
	admin, _ := claims["admin"].(bool)

	expiresAt := int64(0)
	if expRaw, ok := claims["exp"].(float64); ok {
		expiresAt = int64(expRaw)
	}

	return AuthenticatedUser{
		UserID:    subject,
		Email:     email,
		Admin:     admin,
		ExpiresAt: expiresAt,
		Token:     token,
	}, nil
}
