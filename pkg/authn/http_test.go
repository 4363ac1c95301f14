package authn_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coreidentity/authcore/pkg/authn"
	"github.com/coreidentity/authcore/pkg/cache"
)

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c := cache.New(time.Hour, time.Hour)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newTestServer(t *testing.T, revocation authn.RevocationStore) (*authn.Server, *authn.Issuer) {
	t.Helper()
	iss := newTestIssuer(t)
	jarCfg := authn.JARValidatorConfig{ExpectedAudience: "https://issuer.example"}
	srv := authn.NewServer(noopTestLogger{}, iss, jarCfg, nil, nil, revocation, nil)
	return srv, iss
}

func TestHandleIntrospect_ActiveTokenReportsActive(t *testing.T) {
	srv, iss := newTestServer(t, authn.NewCacheRevocationStore(newTestCache(t)))
	token, _, err := iss.IssueAccessToken("user-1", "https://api.example", "openid", "instance-1")
	require.NoError(t, err)

	form := url.Values{"token": {token}}
	req := httptest.NewRequest(http.MethodPost, "/oauth/introspect", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"active":true`)
}

func TestHandleRevoke_RevokedTokenIsNoLongerActive(t *testing.T) {
	srv, iss := newTestServer(t, authn.NewCacheRevocationStore(newTestCache(t)))
	token, _, err := iss.IssueAccessToken("user-1", "https://api.example", "openid", "instance-1")
	require.NoError(t, err)

	revokeForm := url.Values{"token": {token}}
	revokeReq := httptest.NewRequest(http.MethodPost, "/oauth/revoke", strings.NewReader(revokeForm.Encode()))
	revokeReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	revokeRec := httptest.NewRecorder()
	srv.Router.ServeHTTP(revokeRec, revokeReq)
	require.Equal(t, http.StatusOK, revokeRec.Code)

	introspectForm := url.Values{"token": {token}}
	introspectReq := httptest.NewRequest(http.MethodPost, "/oauth/introspect", strings.NewReader(introspectForm.Encode()))
	introspectReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	introspectRec := httptest.NewRecorder()
	srv.Router.ServeHTTP(introspectRec, introspectReq)

	require.Contains(t, introspectRec.Body.String(), `"active":false`)
}
