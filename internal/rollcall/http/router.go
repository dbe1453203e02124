package http

import (
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/aussiebroadwan/rollcall/api/rollcall" // Swagger docs
	"github.com/aussiebroadwan/rollcall/internal/rollcall/credstore"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/aussiebroadwan/rollcall/pkg/httpx"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	credentials credstore.Store

	AuthService       *service.AuthService
	StartupService    *service.StartupService
	ProfileService    *service.ProfileService
	CodeResetService  *service.CodeResetService
	TokenResetService *service.TokenResetService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	credentials credstore.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		credentials:  credentials,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerRoute()
	r.registerCodeReset()
	r.registerTokenReset()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			rollcall device API
//	@version		0.1.0
//	@description	Local API of the rollcall daemon: sign-in, the persisted device session, the initial route and the two password reset protocols.
//	@description
//	@description	The daemon keeps exactly one session per device. Reset codes and reset tokens are separate flows and never verify each other.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/rollcall
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSession() {
	h := &SessionHandler{
		AuthService:    r.AuthService,
		ProfileService: r.ProfileService,
	}

	r.Mux.Handle("POST /v1/session",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/session",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/session",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PATCH /v1/session/profile",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateProfile),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerRoute() {
	h := &RouteHandler{StartupService: r.StartupService}

	r.Mux.Handle("GET /v1/route",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PUT /v1/onboarding",
		httpx.Chain(http.HandlerFunc(h.HandleCompleteOnboarding),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/onboarding",
		httpx.Chain(http.HandlerFunc(h.HandleResetOnboarding),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerCodeReset() {
	h := &CodeResetHandler{CodeResetService: r.CodeResetService}

	// Issuing sends mail, limit by IP and the target email.
	r.Mux.Handle("POST /v1/password-reset/code",
		httpx.Chain(http.HandlerFunc(h.HandleRequest),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	// 6-digit codes are guessable. Verify and complete share one bucket per
	// email, whatever address the guesses claim to come from.
	guesses := httpx.RateLimitByJSONField(httpx.StrictLimit, "email")
	r.Mux.Handle("POST /v1/password-reset/code/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify), guesses),
	)
	r.Mux.Handle("POST /v1/password-reset/code/complete",
		httpx.Chain(http.HandlerFunc(h.HandleComplete), guesses),
	)
}

func (r *Router) registerTokenReset() {
	h := &TokenResetHandler{TokenResetService: r.TokenResetService}

	r.Mux.Handle("POST /v1/password-reset/token",
		httpx.Chain(http.HandlerFunc(h.HandleRequest),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /v1/password-reset/token/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/password-reset/token/complete",
		httpx.Chain(http.HandlerFunc(h.HandleComplete),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.credentials),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
