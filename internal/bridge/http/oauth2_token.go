package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tonearmhq/tonearm/internal/bridge/service"
	"github.com/tonearmhq/tonearm/pkg/httpx"
	"github.com/tonearmhq/tonearm/pkg/slogx"
)

// TokenHandler serves POST /oauth/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	TokenService *service.TokenService
}

// TokenResponse is the JSON body of a successful token exchange.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. Ensure the right content-type
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		httpx.ErrInvalidContentType.WriteError(w)
		return
	}

	// 2. Parse the form body
	if err := r.ParseForm(); err != nil {
		httpx.ErrInvalidFormBody.WriteError(w)
		return
	}

	// 3. Handle the grant type
	grantType := r.Form.Get("grant_type")
	switch grantType {
	case "authorization_code":
		h.handleAuthorizationCodeGrant(w, r, r.Form)
	case "refresh_token":
		h.handleRefreshGrant(w, r, r.Form)
	default:
		httpx.ErrUnsupportedGrantType.WriteError(w)
	}
}

func (h *TokenHandler) handleAuthorizationCodeGrant(
	w http.ResponseWriter,
	r *http.Request,
	form url.Values,
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	code := strings.TrimSpace(form.Get("code"))
	redirectURI := strings.TrimSpace(form.Get("redirect_uri"))
	clientID := strings.TrimSpace(form.Get("client_id"))
	codeVerifier := strings.TrimSpace(form.Get("code_verifier"))

	if code == "" || redirectURI == "" || clientID == "" {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}

	record, err := h.TokenService.RedeemCode(code, clientID, redirectURI, codeVerifier)
	if err != nil {
		if errors.Is(err, service.ErrInvalidGrant) {
			log.Info("authorization_code grant rejected", "client_id", clientID)
			httpx.ErrInvalidGrant.WriteError(w)
			return
		}
		log.Error("authorization_code grant failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	pair, err := h.TokenService.IssuePair(record.UserID, record.Username, "")
	if err != nil {
		log.Error("token pair issuance failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	h.writePair(w, pair.AccessToken, pair.RefreshToken, pair.AccessExpiresAt, pair.Scope)
}

func (h *TokenHandler) handleRefreshGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	refresh := form.Get("refresh_token")
	if refresh == "" {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.ExchangeRefreshToken(refresh)
	if err != nil {
		if errors.Is(err, service.ErrInvalidGrant) {
			log.Info("refresh grant rejected: unknown or spent token")
			httpx.ErrInvalidGrant.WriteError(w)
			return
		}
		log.Error("refresh grant failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	h.writePair(w, pair.AccessToken, pair.RefreshToken, pair.AccessExpiresAt, pair.Scope)
}

func (h *TokenHandler) writePair(w http.ResponseWriter, access, refresh string, accessExpiresAt time.Time, scope string) {
	response := TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(time.Until(accessExpiresAt).Seconds()),
		Scope:        strings.TrimSpace(scope),
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}
