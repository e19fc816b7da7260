package service

import (
	"context"
	"errors"
	"strings"

	"github.com/tonearmhq/tonearm/internal/bridge/store"
	"github.com/tonearmhq/tonearm/pkg/cryptox"
	"github.com/tonearmhq/tonearm/pkg/slogx"
)

// AuthorizeService drives the interactive half of the OAuth2
// authorization-code flow: it authenticates the submitted credentials
// against the user directory and asks the TokenService for a code.
type AuthorizeService struct {
	Users  store.UserDirectory
	Tokens *TokenService

	// ClientID optionally pins the one client id this bridge accepts.
	// Empty means any client id is taken at face value; redemption still
	// requires the exact same id.
	ClientID string
}

// AuthorizeRequest captures the validated inputs of a login submission.
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string

	Username string
	Password string
}

// AuthorizeCodeResponse carries the issued code plus the redirect target.
type AuthorizeCodeResponse struct {
	Code        string
	RedirectURI string
	State       string
}

// Authorize validates the request, authenticates the user, and issues an
// authorization code bound to (clientID, redirectURI, PKCE challenge).
//
// Returns:
//   - ErrInvalidRequest for a malformed request (wrong response_type,
//     missing client_id/redirect_uri, unsupported PKCE method)
//   - ErrInvalidClient when a configured client id pin does not match
//   - ErrLoginRequired when no credentials were submitted
//   - ErrInvalidCredentials when the username/password pair is wrong
func (s *AuthorizeService) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeCodeResponse, error) {
	log := slogx.FromContext(ctx)

	if !strings.EqualFold(strings.TrimSpace(req.ResponseType), "code") {
		return nil, ErrInvalidRequest
	}
	if strings.TrimSpace(req.ClientID) == "" || strings.TrimSpace(req.RedirectURI) == "" {
		return nil, ErrInvalidRequest
	}
	if s.ClientID != "" && req.ClientID != s.ClientID {
		return nil, ErrInvalidClient
	}

	challenge, method, err := normalizePKCE(req.CodeChallenge, req.CodeChallengeMethod)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, ErrLoginRequired
	}

	user, err := s.Users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("authorize: unknown user", "username", username)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if cryptox.VerifyPassword(req.Password, user.PasswordHash) != nil {
		log.Info("authorize: password verification failed", "username", username)
		return nil, ErrInvalidCredentials
	}

	code, err := s.Tokens.CreateAuthorizationCode(
		user.ID, user.Username, req.ClientID, req.RedirectURI, challenge, method)
	if err != nil {
		return nil, err
	}

	return &AuthorizeCodeResponse{
		Code:        code,
		RedirectURI: req.RedirectURI,
		State:       req.State,
	}, nil
}

// normalizePKCE validates the challenge/method pair. A challenge with no
// method defaults to S256; an absent challenge stores empty values and
// redemption will accept any verifier.
func normalizePKCE(challenge, method string) (string, string, error) {
	challenge = strings.TrimSpace(challenge)
	method = strings.TrimSpace(method)

	if challenge == "" {
		return "", "", nil
	}

	switch {
	case method == "" || strings.EqualFold(method, "S256"):
		return challenge, "S256", nil
	case strings.EqualFold(method, "plain"):
		return challenge, "plain", nil
	default:
		return "", "", ErrInvalidRequest
	}
}
