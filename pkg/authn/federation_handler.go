package authn

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coreidentity/authcore/pkg/domain"
)

// FederationHandler fronts the external-IDP login redirect/callback
// pair an org's LoginPolicy.LinkedIDPs names. One IDPConfig per linked
// provider is supplied at startup from configuration; a Federator is
// built fresh per request since discovery only costs one request and
// providers are rarely hit concurrently at login volume.
type FederationHandler struct {
	idps map[string]IDPConfig
	log  domain.Logger
}

// NewFederationHandler indexes idps by name for routing.
func NewFederationHandler(idps []IDPConfig, log domain.Logger) *FederationHandler {
	byName := make(map[string]IDPConfig, len(idps))
	for _, cfg := range idps {
		byName[cfg.Name] = cfg
	}
	return &FederationHandler{idps: byName, log: log}
}

// HandleStart redirects the browser into the named external IDP's
// authorization-code flow.
func (h *FederationHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.idps[chi.URLParam(r, "idp")]
	if !ok {
		respondDomainError(w, h.log, domain.NewValidationError("idp", "unknown identity provider", chi.URLParam(r, "idp")))
		return
	}

	fed, err := NewFederator(r.Context(), cfg)
	if err != nil {
		respondDomainError(w, h.log, err)
		return
	}

	state := r.URL.Query().Get("state")
	http.Redirect(w, r, fed.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback completes the authorization-code exchange and hands
// back the federated identity. Linking that identity to a local user
// (UserIDPLink) is the caller's responsibility.
func (h *FederationHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.idps[chi.URLParam(r, "idp")]
	if !ok {
		respondDomainError(w, h.log, domain.NewValidationError("idp", "unknown identity provider", chi.URLParam(r, "idp")))
		return
	}

	fed, err := NewFederator(r.Context(), cfg)
	if err != nil {
		respondDomainError(w, h.log, err)
		return
	}

	identity, err := fed.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		respondDomainError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, identity)
}
