package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tonearmhq/tonearm/internal/bridge/domain"
	"github.com/tonearmhq/tonearm/pkg/cryptox"
)

var (
	ErrInvalidGrant       = errors.New("invalid_grant")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidClient      = errors.New("invalid_client")
	ErrLoginRequired      = errors.New("login_required")
)

const (
	DefaultCodeTTL    = 10 * time.Minute
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour

	// DefaultScope is the single protocol audience this bridge serves.
	DefaultScope = "smapi"

	// signingKeyLength is the fixed MAC key size. The configured secret is
	// zero-padded or truncated to exactly this many bytes. Changing the
	// derivation (e.g. to a KDF) invalidates every token held by already
	// paired players, so it stays as-is.
	signingKeyLength = 32
)

// TokenService owns authorization-code and refresh-token state and mints
// the stateless access tokens the speaker presents on every browse call.
//
// Codes and refresh tokens live in concurrent in-memory maps for the
// lifetime of the process; access tokens are never stored at all, their
// validity is recomputed from the HMAC signature.
type TokenService struct {
	key []byte

	CodeTTL    time.Duration
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	codes   sync.Map // code -> domain.AuthorizationCode
	refresh sync.Map // token -> domain.RefreshToken

	// now is a test hook; defaults to time.Now.
	now func() time.Time
}

// NewTokenService derives the MAC key from the configured secret and
// applies the default lifetimes.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		key:        deriveSigningKey(secret),
		CodeTTL:    DefaultCodeTTL,
		AccessTTL:  DefaultAccessTTL,
		RefreshTTL: DefaultRefreshTTL,
		now:        time.Now,
	}
}

// deriveSigningKey pads the secret with zero bytes, or truncates it, to the
// fixed key length. Deliberately not a KDF; see signingKeyLength.
func deriveSigningKey(secret string) []byte {
	key := make([]byte, signingKeyLength)
	copy(key, secret)
	return key
}

// CreateAuthorizationCode stores a pending single-use grant and returns
// its opaque code. The PKCE challenge/method may be empty for clients that
// do not use PKCE.
func (s *TokenService) CreateAuthorizationCode(
	userID, username, clientID, redirectURI, challenge, method string,
) (string, error) {
	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	now := s.now()
	s.purgeExpired(now)

	s.codes.Store(code, domain.AuthorizationCode{
		Code:                code,
		UserID:              userID,
		Username:            username,
		ClientID:            clientID,
		RedirectURI:         redirectURI,
		CodeChallenge:       challenge,
		CodeChallengeMethod: method,
		ExpiresAt:           now.Add(s.CodeTTL),
	})

	return code, nil
}

// RedeemCode consumes an authorization code. The code is removed from the
// map atomically before any validation, so two concurrent redemptions can
// never both succeed and a failed validation still burns the code.
func (s *TokenService) RedeemCode(code, clientID, redirectURI, verifier string) (domain.AuthorizationCode, error) {
	value, ok := s.codes.LoadAndDelete(code)
	if !ok {
		return domain.AuthorizationCode{}, ErrInvalidGrant
	}

	record := value.(domain.AuthorizationCode)
	switch {
	case record.Expired(s.now()):
		return domain.AuthorizationCode{}, ErrInvalidGrant
	case record.ClientID != clientID:
		return domain.AuthorizationCode{}, ErrInvalidGrant
	case record.RedirectURI != redirectURI:
		return domain.AuthorizationCode{}, ErrInvalidGrant
	case !verifyCodeVerifier(record.CodeChallenge, record.CodeChallengeMethod, verifier):
		return domain.AuthorizationCode{}, ErrInvalidGrant
	}

	return record, nil
}

// IssueAccessToken mints a stateless signed access token:
// base64url(payload) "." base64url(HMAC-SHA256(payload)), where payload is
// the pipe-joined fields userID|username|expiresUnix|scope.
func (s *TokenService) IssueAccessToken(userID, username, scope string) (string, time.Time) {
	expiresAt := s.now().Add(s.AccessTTL)

	payload := strings.Join([]string{
		userID,
		username,
		strconv.FormatInt(expiresAt.Unix(), 10),
		scope,
	}, "|")

	return s.signPayload(payload), expiresAt
}

func (s *TokenService) signPayload(payload string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(payload))

	return base64.RawURLEncoding.EncodeToString([]byte(payload)) +
		"." +
		base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateAccessToken recomputes the signature and checks expiry. It never
// fails with an error; an invalid token of any shape simply returns false.
func (s *TokenService) ValidateAccessToken(token string) (domain.Principal, bool) {
	encPayload, encSig, found := strings.Cut(token, ".")
	if !found {
		return domain.Principal{}, false
	}

	payload, err := base64.RawURLEncoding.DecodeString(encPayload)
	if err != nil {
		return domain.Principal{}, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return domain.Principal{}, false
	}

	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	if subtle.ConstantTimeCompare(mac.Sum(nil), sig) != 1 {
		return domain.Principal{}, false
	}

	fields := strings.SplitN(string(payload), "|", 4)
	if len(fields) < 4 {
		return domain.Principal{}, false
	}

	expiresUnix, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return domain.Principal{}, false
	}
	expiresAt := time.Unix(expiresUnix, 0)
	if s.now().After(expiresAt) {
		return domain.Principal{}, false
	}

	return domain.Principal{
		UserID:    fields[0],
		Username:  fields[1],
		Scope:     fields[3],
		ExpiresAt: expiresAt,
	}, true
}

// IssueRefreshToken stores a fresh opaque refresh token server-side.
func (s *TokenService) IssueRefreshToken(userID, username, scope string) (string, time.Time, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize384)
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	s.purgeExpired(now)

	expiresAt := now.Add(s.RefreshTTL)
	s.refresh.Store(token, domain.RefreshToken{
		Token:     token,
		UserID:    userID,
		Username:  username,
		Scope:     scope,
		ExpiresAt: expiresAt,
	})

	return token, expiresAt, nil
}

// IssuePair mints a new access+refresh token pair for a user. Used after a
// successful code redemption and after every refresh exchange.
func (s *TokenService) IssuePair(userID, username, scope string) (*domain.TokenPair, error) {
	if scope == "" {
		scope = DefaultScope
	}

	accessToken, accessExpiresAt := s.IssueAccessToken(userID, username, scope)
	refreshToken, refreshExpiresAt, err := s.IssueRefreshToken(userID, username, scope)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
		Scope:            scope,
	}, nil
}

// ExchangeRefreshToken rotates a refresh token. The old token is removed
// atomically before the expiry check, so concurrent exchanges race for a
// single winner and a spent token can never come back.
func (s *TokenService) ExchangeRefreshToken(token string) (*domain.TokenPair, error) {
	value, ok := s.refresh.LoadAndDelete(token)
	if !ok {
		return nil, ErrInvalidGrant
	}

	record := value.(domain.RefreshToken)
	if record.Expired(s.now()) {
		return nil, ErrInvalidGrant
	}

	return s.IssuePair(record.UserID, record.Username, record.Scope)
}

// purgeExpired lazily drops expired codes and refresh tokens. Called from
// every issuing path; there is no background sweeper.
func (s *TokenService) purgeExpired(now time.Time) {
	s.codes.Range(func(key, value any) bool {
		if value.(domain.AuthorizationCode).Expired(now) {
			s.codes.Delete(key)
		}
		return true
	})
	s.refresh.Range(func(key, value any) bool {
		if value.(domain.RefreshToken).Expired(now) {
			s.refresh.Delete(key)
		}
		return true
	})
}

// verifyCodeVerifier checks a PKCE verifier against the stored challenge.
// No stored challenge accepts any verifier; otherwise the computed
// challenge must match exactly (case-sensitive).
func verifyCodeVerifier(challenge, method, verifier string) bool {
	if challenge == "" {
		return true
	}
	if verifier == "" {
		return false
	}

	switch method {
	case "plain":
		return subtle.ConstantTimeCompare([]byte(challenge), []byte(verifier)) == 1
	case "", "S256":
		sum := sha256.Sum256([]byte(verifier))
		computed := base64.RawURLEncoding.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(challenge), []byte(computed)) == 1
	default:
		return false
	}
}
