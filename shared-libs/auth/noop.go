package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

const noopAdminPrefix = "admin:"

type noopVerifier struct{}

// Verify accepts any non-empty token as the user id. Tokens of the form "admin:<uid>"
// authenticate <uid> with the admin claim.
func (noopVerifier) Verify(_ context.Context, token string) (AuthenticatedUser, error) {
	if token == "" {
		return AuthenticatedUser{}, errors.New("token must not be empty")
	}
	if uid, ok := strings.CutPrefix(token, noopAdminPrefix); ok && uid != "" {
		return AuthenticatedUser{UserID: uid, Admin: true, Token: token}, nil
	}
	return AuthenticatedUser{UserID: token, Token: token}, nil
}

type gatewayVerifier struct{}

func (gatewayVerifier) Verify(_ context.Context, _ string) (AuthenticatedUser, error) {
	return AuthenticatedUser{}, errors.New("gateway mode authenticates from forwarded headers")
}

func (gatewayVerifier) VerifyHeaders(_ context.Context, header http.Header) (AuthenticatedUser, error) {
	userID := strings.TrimSpace(header.Get(HeaderUserID))
	if userID == "" {
		return AuthenticatedUser{}, errors.New("missing user ID")
	}
	admin, _ := strconv.ParseBool(header.Get(HeaderUserAdmin))
	return AuthenticatedUser{
		UserID: userID,
		Email:  header.Get(HeaderUserEmail),
		Admin:  admin,
	}, nil
}
