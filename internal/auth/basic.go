package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// BasicAuthorizer builds a basic-auth header, resolving the password from a
// credential store on every call so rotated secrets apply immediately.
type BasicAuthorizer struct {
	username     string
	connectionID string
	store        logstream.CredentialStore
}

// NewBasicAuthorizer creates an authorizer for one connection. A nil store
// sends an empty password.
func NewBasicAuthorizer(username, connectionID string, store logstream.CredentialStore) *BasicAuthorizer {
	return &BasicAuthorizer{
		username:     username,
		connectionID: connectionID,
		store:        store,
	}
}

// Authorization returns the Authorization header value.
func (a *BasicAuthorizer) Authorization(ctx context.Context) (string, error) {
	password := ""

	if a.store != nil {
		secret, found, err := a.store.LoadSecret(ctx, a.connectionID)
		if err != nil {
			return "", fmt.Errorf("loading secret for connection %s: %w", a.connectionID, err)
		}

		if found {
			password = secret
		}
	}

	return BasicHeader(a.username, password), nil
}

// BasicHeader encodes username and password. Credentials that are not valid
// UTF-8 yield a placeholder the server rejects with 401.
func BasicHeader(username, password string) string {
	credentials := username + ":" + password
	if !utf8.ValidString(credentials) {
		return constants.InvalidCredentialsHeader
	}

	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}
