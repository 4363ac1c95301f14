package authn

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coreidentity/authcore/pkg/aggregate"
	"github.com/coreidentity/authcore/pkg/domain"
	"github.com/coreidentity/authcore/pkg/security"
)

// Server exposes the OAuth/OIDC authorization and token endpoints
// over HTTP, chi-routed the way wisbric-nightowl's internal/httpserver
// lays out its router: global middleware first, unauthenticated
// endpoints mounted directly, domain handlers mounted under a
// sub-router.
type Server struct {
	Router     *chi.Mux
	log        domain.Logger
	issuer     *Issuer
	jarCfg     JARValidatorConfig
	grants     *GrantChecker
	login      *LoginHandler
	revocation RevocationStore
	federation *FederationHandler
}

// NewServer builds the chi.Router for the authorization/token/JAR/
// login surface. login and federation may be nil when the
// browser-facing login page or external-IDP linking aren't configured
// (e.g. a machine-to-machine-only deployment). revocation may be nil,
// in which case /oauth/revoke and introspection skip the revocation
// check entirely.
func NewServer(log domain.Logger, issuer *Issuer, jarCfg JARValidatorConfig, grants *GrantChecker, login *LoginHandler, revocation RevocationStore, federation *FederationHandler) *Server {
	s := &Server{Router: chi.NewRouter(), log: log, issuer: issuer, jarCfg: jarCfg, grants: grants, login: login, revocation: revocation, federation: federation}

	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(s.logRequests)

	s.Router.Get("/healthz", s.handleHealthz)
	s.Router.Handle("/metrics", promhttp.Handler())
	s.Router.Get("/.well-known/openid-configuration", s.handleDiscovery)
	s.Router.Get("/oauth/authorize", s.handleAuthorize)
	s.Router.Post("/oauth/token", s.handleToken)
	s.Router.Post("/oauth/revoke", s.handleRevoke)
	s.Router.Post("/oauth/introspect", s.handleIntrospect)
	if s.login != nil {
		s.Router.Post("/login", s.login.ServeHTTP)
	}
	if s.federation != nil {
		s.Router.Get("/login/federated/{idp}", s.federation.HandleStart)
		s.Router.Get("/login/federated/{idp}/callback", s.federation.HandleCallback)
	}

	return s
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("handled request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start).String())
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"issuer":                 s.jarCfg.ExpectedAudience,
		"authorization_endpoint": "/oauth/authorize",
		"token_endpoint":         "/oauth/token",
	})
}

// handleAuthorize validates the incoming request parameters — a JAR
// `request` JWT takes precedence over plain query parameters, and
// `request_uri` is recognized but always rejected (JAR-014).
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if uri := q.Get("request_uri"); uri != "" {
		respondDomainError(w, s.log, ValidateRequestURIErr(uri))
		return
	}

	var params *JARParams
	var err error
	if raw := q.Get("request"); raw != "" {
		params, err = ValidateJAR(raw, s.jarCfg)
	} else {
		params = &JARParams{
			ClientID:            q.Get("client_id"),
			ResponseType:        q.Get("response_type"),
			RedirectURI:         q.Get("redirect_uri"),
			Scope:               q.Get("scope"),
			State:               q.Get("state"),
			Nonce:               q.Get("nonce"),
			CodeChallenge:       q.Get("code_challenge"),
			CodeChallengeMethod: q.Get("code_challenge_method"),
			Prompt:              q.Get("prompt"),
		}
	}
	if err != nil {
		respondDomainError(w, s.log, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		*JARParams
		AuthRequestID string `json:"authRequestId"`
	}{JARParams: params, AuthRequestID: aggregate.NewAuthRequestID()})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondDomainError(w, s.log, domain.NewValidationError("body", "malformed form body", nil))
		return
	}

	grantType := r.FormValue("grant_type")
	switch grantType {
	case "authorization_code":
		respondJSON(w, http.StatusOK, map[string]string{"status": "not implemented: wire to auth_request aggregate"})
	case "refresh_token":
		respondJSON(w, http.StatusOK, map[string]string{"status": "not implemented: wire to refresh token store"})
	default:
		respondDomainError(w, s.log, domain.NewValidationError("grant_type", "unsupported grant type", grantType))
	}
}

// handleRevoke implements RFC 7009 token revocation: the caller's
// token jti is recorded in the revocation store until its natural
// expiry, after which ValidateTokenWithRevocation rejects it.
func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondDomainError(w, s.log, domain.NewValidationError("body", "malformed form body", nil))
		return
	}
	token := r.FormValue("token")
	if token == "" {
		respondDomainError(w, s.log, domain.NewValidationError("token", "token is required", nil))
		return
	}

	claims, err := s.issuer.ValidateToken(token)
	if err != nil {
		// RFC 7009: an already-invalid token is still a successful revocation.
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if s.revocation != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if ttl <= 0 {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		if err := s.revocation.Revoke(r.Context(), claims.ID, ttl); err != nil {
			respondDomainError(w, s.log, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIntrospect implements RFC 7662: reports whether token is
// currently active, checking both expiry and revocation.
func (s *Server) handleIntrospect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondDomainError(w, s.log, domain.NewValidationError("body", "malformed form body", nil))
		return
	}
	claims, err := s.issuer.ValidateTokenWithRevocation(r.Context(), r.FormValue("token"), s.revocation)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]bool{"active": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"active":      true,
		"sub":         claims.Subject,
		"instance_id": claims.TenantID,
		"scope":       claims.Scope,
	})
}

// ValidateRequestURIErr adapts ValidateRequestURI's error-only
// signature for callers that only need the rejection.
func ValidateRequestURIErr(uri string) error {
	_, err := ValidateRequestURI(uri)
	return err
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondDomainError(w http.ResponseWriter, log domain.Logger, err error) {
	var coder domain.Coder
	code := domain.CodeInternal
	if c, ok := err.(domain.Coder); ok {
		coder = c
		code = coder.DomainCode()
	}
	status := security.MapToStatus(code)
	log.Warn("request rejected", "error", err.Error(), "code", code)
	respondJSON(w, httpStatusForGRPC(status), map[string]string{"error": err.Error()})
}
