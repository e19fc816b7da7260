package http

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/tonearmhq/tonearm/internal/bridge/service"
	"github.com/tonearmhq/tonearm/pkg/httpx"
	"github.com/tonearmhq/tonearm/pkg/slogx"
)

// AuthorizeHandler processes OAuth2 authorization requests (authorization
// code flow). GET renders the login form; POST authenticates the submitted
// credentials and redirects back to the client with an authorization code.
type AuthorizeHandler struct {
	AuthorizeService *service.AuthorizeService
}

// loginFormData feeds the login template. The OAuth parameters ride along
// as hidden fields so the POST carries the full authorization request.
type loginFormData struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
	Error               string
}

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>Sign in to Tonearm</title>
	<style>
		body { font-family: sans-serif; max-width: 22rem; margin: 4rem auto; padding: 0 1rem; }
		label { display: block; margin-top: 1rem; }
		input { width: 100%; padding: 0.5rem; margin-top: 0.25rem; box-sizing: border-box; }
		button { margin-top: 1.5rem; padding: 0.5rem 1.5rem; }
		.error { color: #b00020; margin-top: 1rem; }
	</style>
</head>
<body>
	<h1>Sign in to Tonearm</h1>
	<p>Link your music library to your player.</p>
	{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
	<form method="post" action="/oauth/authorize">
		<input type="hidden" name="response_type" value="{{.ResponseType}}">
		<input type="hidden" name="client_id" value="{{.ClientID}}">
		<input type="hidden" name="redirect_uri" value="{{.RedirectURI}}">
		<input type="hidden" name="state" value="{{.State}}">
		<input type="hidden" name="code_challenge" value="{{.CodeChallenge}}">
		<input type="hidden" name="code_challenge_method" value="{{.CodeChallengeMethod}}">
		<label>Username <input type="text" name="username" autocomplete="username" autofocus></label>
		<label>Password <input type="password" name="password" autocomplete="current-password"></label>
		<button type="submit">Sign in</button>
	</form>
</body>
</html>
`))

// HandleGet renders the login form. The OAuth query parameters are checked
// up front so a broken link fails before the user types anything.
func (h *AuthorizeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	responseType := strings.TrimSpace(query.Get("response_type"))
	clientID := strings.TrimSpace(query.Get("client_id"))
	redirectURI := strings.TrimSpace(query.Get("redirect_uri"))

	if !strings.EqualFold(responseType, "code") || clientID == "" || redirectURI == "" {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}

	h.renderForm(w, http.StatusOK, loginFormData{
		ResponseType:        responseType,
		ClientID:            clientID,
		RedirectURI:         redirectURI,
		State:               query.Get("state"),
		CodeChallenge:       query.Get("code_challenge"),
		CodeChallengeMethod: query.Get("code_challenge_method"),
	})
}

// HandlePost authenticates the submitted credentials and, on success,
// redirects to the client's redirect_uri with the authorization code.
func (h *AuthorizeHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		httpx.ErrInvalidContentType.WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.ErrInvalidFormBody.WriteError(w)
		return
	}

	req := service.AuthorizeRequest{
		ResponseType:        strings.TrimSpace(r.Form.Get("response_type")),
		ClientID:            strings.TrimSpace(r.Form.Get("client_id")),
		RedirectURI:         strings.TrimSpace(r.Form.Get("redirect_uri")),
		State:               r.Form.Get("state"),
		CodeChallenge:       strings.TrimSpace(r.Form.Get("code_challenge")),
		CodeChallengeMethod: strings.TrimSpace(r.Form.Get("code_challenge_method")),
		Username:            strings.TrimSpace(r.Form.Get("username")),
		Password:            r.Form.Get("password"),
	}

	resp, err := h.AuthorizeService.Authorize(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			httpx.ErrInvalidRequest.WriteError(w)
		case errors.Is(err, service.ErrInvalidClient):
			httpx.ErrInvalidClient.WriteError(w)
		case errors.Is(err, service.ErrLoginRequired):
			h.renderForm(w, http.StatusUnauthorized, formDataFromRequest(req, "Enter your username and password."))
		case errors.Is(err, service.ErrInvalidCredentials):
			h.renderForm(w, http.StatusUnauthorized, formDataFromRequest(req, "Wrong username or password."))
		default:
			log.Error("authorize request failed", "error", err)
			httpx.ErrServerError.WriteError(w)
		}
		return
	}

	redirectURL, err := buildAuthorizeRedirect(resp.RedirectURI, resp.Code, resp.State)
	if err != nil {
		log.Error("failed to build redirect URL", "error", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (h *AuthorizeHandler) renderForm(w http.ResponseWriter, status int, data loginFormData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	httpx.NoCache(w)
	w.WriteHeader(status)
	// Headers are already written; a render failure can only truncate the
	// body at this point.
	_ = loginTemplate.Execute(w, data)
}

func formDataFromRequest(req service.AuthorizeRequest, errMsg string) loginFormData {
	return loginFormData{
		ResponseType:        req.ResponseType,
		ClientID:            req.ClientID,
		RedirectURI:         req.RedirectURI,
		State:               req.State,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		Error:               errMsg,
	}
}

// buildAuthorizeRedirect constructs a redirect URL for a successful
// authorization.
func buildAuthorizeRedirect(baseURI, code, state string) (string, error) {
	u, err := url.Parse(baseURI)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
