package authn

import (
	"net/http"

	"github.com/gorilla/sessions"
	"gorm.io/gorm"

	"github.com/coreidentity/authcore/pkg/domain"
	"github.com/coreidentity/authcore/pkg/query"
	"github.com/coreidentity/authcore/pkg/security"
)

// sessionUserKey is the gorilla/sessions value key the authenticated
// user's id is stored under.
const sessionUserKey = "user_id"

// LoginHandler authenticates the username/password form POSTed from
// the login page and establishes a browser session cookie, the way a
// first-party login page fronts the authorization-code flow before
// redirecting back to /oauth/authorize.
type LoginHandler struct {
	db     *gorm.DB
	store  sessions.Store
	cookie string
	log    domain.Logger
}

// NewLoginHandler builds a LoginHandler backed by a gorilla/sessions
// cookie store keyed by signingKey, the same library used for
// browser-facing admin consoles elsewhere in this codebase's lineage.
func NewLoginHandler(db *gorm.DB, signingKey []byte, cookieName string, log domain.Logger) *LoginHandler {
	return &LoginHandler{
		db:     db,
		store:  sessions.NewCookieStore(signingKey),
		cookie: cookieName,
		log:    log,
	}
}

// ServeHTTP handles `POST /login`: instance_id, username and password
// form fields in, a session cookie plus 200/401 out.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondDomainError(w, h.log, domain.NewValidationError("body", "malformed form body", nil))
		return
	}

	instanceID := r.FormValue("instance_id")
	username := r.FormValue("username")
	password := r.FormValue("password")

	var user query.User
	err := h.db.WithContext(r.Context()).
		Where("instance_id = ? AND username = ?", instanceID, username).
		First(&user).Error
	if err != nil || user.PasswordHash == "" || !security.VerifyPassword(user.PasswordHash, password) {
		respondDomainError(w, h.log, domain.NewDomainError(domain.CodeUnauthenticated, "invalid username or password", nil))
		return
	}
	if user.State == "LOCKED" || user.State == "DELETED" || user.State == "SUSPENDED" {
		respondDomainError(w, h.log, domain.NewDomainError(domain.CodePermissionDenied, "account is not available for login", nil))
		return
	}

	session, _ := h.store.Get(r, h.cookie)
	session.Values[sessionUserKey] = user.ID
	if err := session.Save(r, w); err != nil {
		respondDomainError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"userId": user.ID})
}

// AuthenticatedUserID reads the user id out of r's session cookie, if
// any. The second return value is false when there is no valid
// session.
func (h *LoginHandler) AuthenticatedUserID(r *http.Request) (string, bool) {
	session, err := h.store.Get(r, h.cookie)
	if err != nil {
		return "", false
	}
	id, ok := session.Values[sessionUserKey].(string)
	return id, ok && id != ""
}
