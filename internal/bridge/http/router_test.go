package http

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonearmhq/tonearm/internal/bridge/domain"
	"github.com/tonearmhq/tonearm/internal/bridge/service"
	"github.com/tonearmhq/tonearm/internal/bridge/smapi"
	"github.com/tonearmhq/tonearm/internal/bridge/store/drivers/sqlite"
	"github.com/tonearmhq/tonearm/pkg/cryptox"
	"github.com/tonearmhq/tonearm/pkg/slogx"
)

type testBridge struct {
	server *httptest.Server
	store  *sqlite.Store
	tokens *service.TokenService
	track  string // seeded audio file path
}

// newTestBridge stands up the full router over a migrated sqlite store,
// with one user (alice / 247) and a one-track catalog whose audio file
// actually exists on disk.
func newTestBridge(t *testing.T) *testBridge {
	t.Helper()

	dir := t.TempDir()
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(dir, "bridge.db"))
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	ctx := context.Background()
	hash, err := cryptox.HashPassword("247")
	require.NoError(t, err)
	require.NoError(t, st.CreateUser(ctx, domain.User{ID: "user-1", Username: "alice", PasswordHash: hash}))

	audio := filepath.Join(dir, "track.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("ID3 fake audio payload for range requests"), 0o600))

	require.NoError(t, st.CreateArtist(ctx, domain.Artist{ID: "a1", Name: "Alabama Shakes", SortName: "Alabama Shakes"}))
	require.NoError(t, st.CreateAlbum(ctx, domain.Album{ID: "b1", Name: "Sound & Color", SortName: "Sound & Color", ArtistID: "a1", Year: 2015}))
	require.NoError(t, st.CreateTrack(ctx, domain.Track{
		ID: "t1", Title: "Don't Wanna Fight", AlbumID: "b1", Index: 2,
		Duration: 233, FilePath: audio, MimeType: "audio/mpeg",
	}))

	tokens := service.NewTokenService("router-test-secret")
	catalog := &service.CatalogService{Store: st, Tokens: tokens, StreamBaseURL: "https://music.example.net"}

	router := NewRouter("test", st, st.Ping, slogx.Discard())
	router.TokenService = tokens
	router.AuthorizeService = &service.AuthorizeService{Users: st, Tokens: tokens}
	router.Dispatcher = &smapi.Dispatcher{Catalog: catalog, AuthorizeURL: "https://music.example.net/oauth/authorize"}
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testBridge{server: server, store: st, tokens: tokens, track: audio}
}

// noRedirect returns a client that reports redirects instead of following
// them, so the 302 back to the speaker callback can be inspected.
func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestLinkFlow_EndToEnd(t *testing.T) {
	t.Parallel()
	bridge := newTestBridge(t)
	client := noRedirect()

	verifier := "0123456789abcdef0123456789abcdef0123456789abcdef"
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	// 1. The player opens the login form
	formURL := bridge.server.URL + "/oauth/authorize?" + url.Values{
		"response_type":         {"code"},
		"client_id":             {"sonos"},
		"redirect_uri":          {"https://sonos.example/cb"},
		"state":                 {"st-42"},
		"code_challenge":        {challenge},
		"code_challenge_method": {"S256"},
	}.Encode()

	resp, err := client.Get(formURL)
	require.NoError(t, err)
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(page), `name="username"`)
	require.Contains(t, string(page), challenge)

	// 2. Alice signs in and is redirected back with a code
	resp, err = client.PostForm(bridge.server.URL+"/oauth/authorize", url.Values{
		"response_type":         {"code"},
		"client_id":             {"sonos"},
		"redirect_uri":          {"https://sonos.example/cb"},
		"state":                 {"st-42"},
		"code_challenge":        {challenge},
		"code_challenge_method": {"S256"},
		"username":              {"alice"},
		"password":              {"247"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "sonos.example", location.Host)
	require.Equal(t, "st-42", location.Query().Get("state"))
	code := location.Query().Get("code")
	require.NotEmpty(t, code)

	// 3. The code is exchanged for tokens
	resp, err = client.PostForm(bridge.server.URL+"/oauth/token", url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {"sonos"},
		"redirect_uri":  {"https://sonos.example/cb"},
		"code_verifier": {verifier},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	var pair TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pair))
	require.Equal(t, "Bearer", pair.TokenType)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "smapi", pair.Scope)
	require.InDelta(t, 3600, pair.ExpiresIn, 10)

	// 4. The code is single use
	resp, err = client.PostForm(bridge.server.URL+"/oauth/token", url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {"sonos"},
		"redirect_uri":  {"https://sonos.example/cb"},
		"code_verifier": {verifier},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// 5. The access token opens the catalog
	browse := `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <getMetadata xmlns="http://www.sonos.com/Services/1.1"><id>artists</id></getMetadata>
  </s:Body>
</s:Envelope>`
	req, err := http.NewRequest(http.MethodPost, bridge.server.URL+"/smapi", strings.NewReader(browse))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)

	resp, err = client.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/xml")
	require.Contains(t, string(body), "<id>artist:a1</id>")

	// 6. Refresh rotates the pair and retires the old refresh token
	resp, err = client.PostForm(bridge.server.URL+"/oauth/token", url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {pair.RefreshToken},
	})
	require.NoError(t, err)
	var rotated TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rotated))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	resp, err = client.PostForm(bridge.server.URL+"/oauth/token", url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {pair.RefreshToken},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthorize_Rejections(t *testing.T) {
	t.Parallel()
	bridge := newTestBridge(t)
	client := noRedirect()

	t.Run("GET missing parameters", func(t *testing.T) {
		resp, err := client.Get(bridge.server.URL + "/oauth/authorize?response_type=code")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("GET wrong response_type", func(t *testing.T) {
		resp, err := client.Get(bridge.server.URL + "/oauth/authorize?response_type=token&client_id=sonos&redirect_uri=https%3A%2F%2Fsonos.example%2Fcb")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("POST wrong password re-renders the form", func(t *testing.T) {
		resp, err := client.PostForm(bridge.server.URL+"/oauth/authorize", url.Values{
			"response_type": {"code"},
			"client_id":     {"sonos"},
			"redirect_uri":  {"https://sonos.example/cb"},
			"username":      {"alice"},
			"password":      {"wrong"},
		})
		require.NoError(t, err)
		page, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Contains(t, string(page), "Wrong username or password")
	})
}

func TestToken_Rejections(t *testing.T) {
	t.Parallel()
	bridge := newTestBridge(t)
	client := noRedirect()

	t.Run("unsupported grant type", func(t *testing.T) {
		resp, err := client.PostForm(bridge.server.URL+"/oauth/token", url.Values{
			"grant_type": {"password"},
		})
		require.NoError(t, err)
		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "unsupported_grant_type", body["error"])
	})

	t.Run("unknown code", func(t *testing.T) {
		resp, err := client.PostForm(bridge.server.URL+"/oauth/token", url.Values{
			"grant_type":   {"authorization_code"},
			"code":         {"never-issued"},
			"client_id":    {"sonos"},
			"redirect_uri": {"https://sonos.example/cb"},
		})
		require.NoError(t, err)
		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "invalid_grant", body["error"])
	})

	t.Run("wrong content type", func(t *testing.T) {
		resp, err := client.Post(bridge.server.URL+"/oauth/token", "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSMAPI_AnonymousRootOnly(t *testing.T) {
	t.Parallel()
	bridge := newTestBridge(t)

	send := func(id string) string {
		body := `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>` +
			`<getMetadata xmlns="http://www.sonos.com/Services/1.1"><id>` + id + `</id></getMetadata>` +
			`</s:Body></s:Envelope>`
		resp, err := http.Post(bridge.server.URL+"/smapi", "text/xml", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		raw, _ := io.ReadAll(resp.Body)
		return string(raw)
	}

	require.Contains(t, send("root"), "<total>3</total>")
	require.Contains(t, send("artists"), "<total>0</total>")
}

func TestStream(t *testing.T) {
	t.Parallel()
	bridge := newTestBridge(t)

	access, _ := bridge.tokens.IssueAccessToken("user-1", "alice", "smapi")

	t.Run("bearer header", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, bridge.server.URL+"/stream/t1", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+access)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
		require.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))

		payload, _ := io.ReadAll(resp.Body)
		want, _ := os.ReadFile(bridge.track)
		require.Equal(t, want, payload)
	})

	t.Run("access_token query parameter", func(t *testing.T) {
		resp, err := http.Get(bridge.server.URL + "/stream/t1?access_token=" + url.QueryEscape(access))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("range request", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, bridge.server.URL+"/stream/t1", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+access)
		req.Header.Set("Range", "bytes=0-3")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusPartialContent, resp.StatusCode)
		payload, _ := io.ReadAll(resp.Body)
		require.Equal(t, []byte("ID3 "), payload)
	})

	t.Run("missing token", func(t *testing.T) {
		resp, err := http.Get(bridge.server.URL + "/stream/t1")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown track", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, bridge.server.URL+"/stream/nosuch", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+access)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	bridge := newTestBridge(t)

	for _, path := range []string{"/livez", "/readyz"} {
		resp, err := http.Get(bridge.server.URL + path)
		require.NoError(t, err)
		var body HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		require.Equal(t, "ok", body.Status)
	}
}
