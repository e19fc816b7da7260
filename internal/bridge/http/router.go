package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tonearmhq/tonearm/internal/bridge/service"
	"github.com/tonearmhq/tonearm/internal/bridge/smapi"
	"github.com/tonearmhq/tonearm/internal/bridge/store"
	"github.com/tonearmhq/tonearm/pkg/httpx"
	"github.com/tonearmhq/tonearm/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	catalogStore store.CatalogStore
	pingStore    func(ctx context.Context) error

	TokenService     *service.TokenService
	AuthorizeService *service.AuthorizeService
	Dispatcher       *smapi.Dispatcher
}

func NewRouter(
	buildVersion string,
	catalogStore store.CatalogStore,
	pingStore func(ctx context.Context) error,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		catalogStore: catalogStore,
		pingStore:    pingStore,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerSMAPI()
	r.registerStream()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	authorizeHandler := &AuthorizeHandler{AuthorizeService: r.AuthorizeService}

	// GET /authorize - lenient rate limit (just displays the login form)
	r.Mux.Handle("GET /oauth/authorize",
		httpx.Chain(http.HandlerFunc(authorizeHandler.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /authorize - strict rate limit (authentication attempts)
	// Note: Rate limited by IP + username form field to prevent brute force
	r.Mux.Handle("POST /oauth/authorize",
		httpx.Chain(http.HandlerFunc(authorizeHandler.HandlePost),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)

	// POST /token - strict rate limit by IP (covers both grant types)
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /oauth/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSMAPI() {
	// Players poll this endpoint while browsing, so the limit is roomy.
	smapiHandler := &SMAPIHandler{Dispatcher: r.Dispatcher}
	r.Mux.Handle("POST /smapi",
		httpx.Chain(smapiHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerStream() {
	streamHandler := &StreamHandler{
		Tokens: r.TokenService,
		Store:  r.catalogStore,
	}
	r.Mux.Handle("GET /stream/{id}",
		httpx.Chain(streamHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may
	// poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.pingStore),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
