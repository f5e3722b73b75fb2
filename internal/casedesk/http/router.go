package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/service"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/store"
	"github.com/aussiebroadwan/casedesk/pkg/httpx"
	"github.com/aussiebroadwan/casedesk/pkg/jwtx"
	"github.com/aussiebroadwan/casedesk/pkg/metricsx"
	"github.com/aussiebroadwan/casedesk/pkg/slogx"

	_ "github.com/aussiebroadwan/casedesk/api/casedesk" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	validator    *jwtx.Validator
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      *metricsx.Metrics

	// Now is the clock tokens are validated against.
	Now func() time.Time

	store            store.Store
	TokenService     *service.TokenService
	UserService      *service.UserService
	CaseService      *service.CaseService
	AuditService     *service.AuditService
	DashboardService *service.DashboardService
}

func NewRouter(
	validator *jwtx.Validator,
	buildVersion string,
	st store.Store,
	metrics *metricsx.Metrics,
	logger *slog.Logger,
	isDevelopment bool,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		validator:    validator,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		metrics:      metrics,
		logger:       logger,
		Now:          time.Now,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.SecureHeaders(isDevelopment),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerCases()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Casedesk API
//	@version		0.1.0
//	@description	Support case ticketing backend. Users open cases and see only their own; support staff and admins see every case and change case status.
//	@description
//	@description				Privileged reads and every status change are written to an append-only audit log.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/casedesk
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				HS256 bearer token from /auth/login. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// handle registers h under pattern, instrumented with the pattern as its
// route label so path parameters do not explode metric cardinality.
func (r *Router) handle(pattern string, h http.Handler, mws ...httpx.Middleware) {
	r.Mux.Handle(pattern, r.metrics.Instrument(pattern, httpx.Chain(h, mws...)))
}

// authn resolves the bearer token before the per-principal limiter runs.
func (r *Router) authn(limit httpx.RateLimitConfig) []httpx.Middleware {
	return []httpx.Middleware{
		httpx.AuthnMiddleware(r.validator, r.Now),
		httpx.RateLimitByPrincipal(limit),
	}
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		TokenService: r.TokenService,
		UserService:  r.UserService,
	}

	// Credential endpoints are limited by IP plus username against brute force.
	r.handle("POST /auth/login", http.HandlerFunc(h.HandleLogin),
		httpx.RateLimitByIPAndJSONField(httpx.LoginLimit, "username"),
	)
	r.handle("POST /auth/register", http.HandlerFunc(h.HandleRegister),
		httpx.RateLimitByIP(httpx.LoginLimit),
	)
	r.handle("POST /auth/register-with-role", http.HandlerFunc(h.HandleRegisterWithRole),
		r.authn(httpx.MutationLimit)...,
	)
}

func (r *Router) registerCases() {
	h := &CasesHandler{CaseService: r.CaseService}

	r.handle("GET /cases", http.HandlerFunc(h.HandleList), r.authn(httpx.ReadLimit)...)
	r.handle("POST /cases", http.HandlerFunc(h.HandleCreate), r.authn(httpx.MutationLimit)...)
	r.handle("PATCH /cases/{id}", http.HandlerFunc(h.HandleUpdateStatus), r.authn(httpx.MutationLimit)...)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{
		DashboardService: r.DashboardService,
		AuditService:     r.AuditService,
	}

	r.handle("GET /admin/dashboard", http.HandlerFunc(h.HandleDashboard), r.authn(httpx.ReadLimit)...)
	r.handle("GET /admin/audit", http.HandlerFunc(h.HandleAudit), r.authn(httpx.ReadLimit)...)
	r.handle("GET /whoami", http.HandlerFunc(WhoAmIHandler), r.authn(httpx.ReadLimit)...)
}

func (r *Router) registerSystem() {
	// Probes and scrapes are polled; they get the generous limit.
	probe := httpx.RateLimitByIP(httpx.ProbeLimit)

	r.handle("GET /ping", http.HandlerFunc(PingHandler), probe)
	r.handle("GET /livez", LivezHandler(r.startTime, r.buildVersion), probe)
	r.handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store), probe)
	r.Mux.Handle("GET /metrics", httpx.Chain(r.metrics.Handler(), probe))
}
