package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	sharederrors "github.com/aknedenik/akne-denik/shared-libs/errors"
)

// Mode represents the authentication strategy to apply for incoming requests.
type Mode string

const (
	// ModeFirebase verifies Firebase Auth ID tokens against Google's securetoken JWKS.
	ModeFirebase Mode = "firebase"
	// ModeGateway trusts the identity headers injected by gateway-api. Only use it behind
	// an ingress that rejects traffic not coming from the gateway.
	ModeGateway Mode = "gateway"
	// ModeNoop disables signature verification and treats the bearer token as the user ID (useful for local development and tests).
	ModeNoop Mode = "noop"
)

// Identity headers forwarded from the gateway to internal services.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserAdmin = "X-User-Admin"
)

// Config captures the inputs required to initialize an authenticator.
type Config struct {
	Mode      Mode
	ProjectID string
	JWKSURL   string
	Logger    *slog.Logger
}

// AuthenticatedUser is the caller's session. Handlers read it once and hand it to the
// domain layer explicitly.
type AuthenticatedUser struct {
	UserID    string
	Email     string
	Admin     bool
	ExpiresAt int64
	Token     string
}

// Verifier verifies a bearer token and returns the associated user context.
type Verifier interface {
	Verify(ctx context.Context, token string) (AuthenticatedUser, error)
}

// HeaderVerifier authenticates a request from its headers instead of a bearer token.
type HeaderVerifier interface {
	VerifyHeaders(ctx context.Context, header http.Header) (AuthenticatedUser, error)
}

var (
	errMissingAuthHeader = errors.New("authorization header missing")
	errInvalidAuthHeader = errors.New("authorization header is malformed")
)

type ctxKey string

const userCtxKey ctxKey = "aknedenik:user"

// Middleware enforces authentication for the wrapped handler using the provided verifier.
func Middleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := authenticate(r, verifier)
			if err != nil {
				sharederrors.Write(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin rejects authenticated callers without the admin claim.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			sharederrors.Write(w, r, http.StatusUnauthorized, sharederrors.CodeUnauthorized, "authentication required")
			return
		}
		if !user.Admin {
			sharederrors.Write(w, r, http.StatusForbidden, sharederrors.CodeForbidden, "admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func authenticate(r *http.Request, verifier Verifier) (AuthenticatedUser, error) {
	if hv, ok := verifier.(HeaderVerifier); ok {
		return hv.VerifyHeaders(r.Context(), r.Header)
	}
	token, err := tokenFromRequest(r)
	if err != nil {
		return AuthenticatedUser{}, err
	}
	return verifier.Verify(r.Context(), token)
}

func tokenFromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingAuthHeader
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errInvalidAuthHeader
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errInvalidAuthHeader
	}

	return token, nil
}

// WithUser stores the authenticated user on ctx.
func WithUser(ctx context.Context, user AuthenticatedUser) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (AuthenticatedUser, bool) {
	value, ok := ctx.Value(userCtxKey).(AuthenticatedUser)
	return value, ok
}

// ForwardHeaders replaces any caller-supplied identity headers with the verified user.
func ForwardHeaders(header http.Header, user AuthenticatedUser) {
	header.Del(HeaderUserID)
	header.Del(HeaderUserEmail)
	header.Del(HeaderUserAdmin)
	header.Set(HeaderUserID, user.UserID)
	if user.Email != "" {
		header.Set(HeaderUserEmail, user.Email)
	}
	header.Set(HeaderUserAdmin, strconv.FormatBool(user.Admin))
}

// NewVerifier constructs a Verifier matching the supplied configuration.
func NewVerifier(cfg Config) (Verifier, error) {
	switch cfg.Mode {
	case ModeFirebase:
		return newFirebaseVerifier(cfg)
	case ModeGateway:
		return gatewayVerifier{}, nil
	case ModeNoop:
		return noopVerifier{}, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
}
