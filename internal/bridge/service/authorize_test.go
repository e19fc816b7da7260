package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonearmhq/tonearm/internal/bridge/domain"
	"github.com/tonearmhq/tonearm/internal/bridge/store/drivers/sqlite"
	"github.com/tonearmhq/tonearm/pkg/cryptox"
)

func newTestAuthorize(t *testing.T) *AuthorizeService {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "users.db"))
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	hash, err := cryptox.HashPassword("hunter2")
	require.NoError(t, err)
	require.NoError(t, st.CreateUser(context.Background(), domain.User{
		ID:           "user-1",
		Username:     "alice",
		PasswordHash: hash,
	}))

	return &AuthorizeService{
		Users:  st,
		Tokens: NewTokenService("authorize-test-secret"),
	}
}

func validAuthorizeRequest() AuthorizeRequest {
	return AuthorizeRequest{
		ResponseType: "code",
		ClientID:     "sonos",
		RedirectURI:  "https://cb.example/done",
		State:        "xyzzy",
		Username:     "alice",
		Password:     "hunter2",
	}
}

func TestAuthorize_Success(t *testing.T) {
	t.Parallel()
	svc := newTestAuthorize(t)

	resp, err := svc.Authorize(context.Background(), validAuthorizeRequest())
	require.NoError(t, err)
	require.NotEmpty(t, resp.Code)
	require.Equal(t, "https://cb.example/done", resp.RedirectURI)
	require.Equal(t, "xyzzy", resp.State)

	// The code must redeem against the same client and redirect URI
	record, err := svc.Tokens.RedeemCode(resp.Code, "sonos", "https://cb.example/done", "")
	require.NoError(t, err)
	require.Equal(t, "user-1", record.UserID)
	require.Equal(t, "alice", record.Username)
}

func TestAuthorize_Validation(t *testing.T) {
	t.Parallel()
	svc := newTestAuthorize(t)
	ctx := context.Background()

	t.Run("response_type must be code", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.ResponseType = "token"
		_, err := svc.Authorize(ctx, req)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("client_id required", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.ClientID = ""
		_, err := svc.Authorize(ctx, req)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("redirect_uri required", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.RedirectURI = "  "
		_, err := svc.Authorize(ctx, req)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("unsupported challenge method", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.CodeChallenge = "abc"
		req.CodeChallengeMethod = "S512"
		_, err := svc.Authorize(ctx, req)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("missing credentials", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.Password = ""
		_, err := svc.Authorize(ctx, req)
		require.ErrorIs(t, err, ErrLoginRequired)
	})

	t.Run("unknown user", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.Username = "mallory"
		_, err := svc.Authorize(ctx, req)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.Password = "hunter3"
		_, err := svc.Authorize(ctx, req)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthorize_ClientPin(t *testing.T) {
	t.Parallel()
	svc := newTestAuthorize(t)
	svc.ClientID = "sonos"
	ctx := context.Background()

	_, err := svc.Authorize(ctx, validAuthorizeRequest())
	require.NoError(t, err)

	req := validAuthorizeRequest()
	req.ClientID = "someone-else"
	_, err = svc.Authorize(ctx, req)
	require.ErrorIs(t, err, ErrInvalidClient)
}

func TestNormalizePKCE(t *testing.T) {
	t.Parallel()

	t.Run("absent challenge stays absent", func(t *testing.T) {
		challenge, method, err := normalizePKCE("", "")
		require.NoError(t, err)
		require.Empty(t, challenge)
		require.Empty(t, method)
	})

	t.Run("defaults to S256 when method omitted", func(t *testing.T) {
		challenge, method, err := normalizePKCE("the-challenge", "")
		require.NoError(t, err)
		require.Equal(t, "the-challenge", challenge)
		require.Equal(t, "S256", method)
	})

	t.Run("accepts case-insensitive methods", func(t *testing.T) {
		_, method, err := normalizePKCE("x", "s256")
		require.NoError(t, err)
		require.Equal(t, "S256", method)

		_, method, err = normalizePKCE("x", "PLAIN")
		require.NoError(t, err)
		require.Equal(t, "plain", method)
	})

	t.Run("rejects unsupported methods", func(t *testing.T) {
		_, _, err := normalizePKCE("x", "S123")
		require.ErrorIs(t, err, ErrInvalidRequest)
	})
}
