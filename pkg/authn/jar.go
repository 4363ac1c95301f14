// Package authn implements the C6 surface: JAR (RFC 9101) request
// object validation, token lifecycle, and
// the grant/role authorization check, fronted by a chi.Router HTTP
// surface (pkg/authn/http.go). Grounded on wisbric-nightowl's
// internal/auth package (OIDC discovery + verification, self-signed
// session tokens, Bearer-precedence middleware), adapted from go-jose
// to github.com/golang-jwt/jwt/v5 per the domain dependency set.
package authn

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coreidentity/authcore/pkg/domain"
)

// jarCode builds the INVALID_ARGUMENT domain error for a JAR-xxx
// failure, preserving the code in the message so callers/logs can grep
// for it the way RFC 9101 conformance tests expect.
func jarCode(code, reason string) error {
	return domain.NewDomainError(domain.CodeInvalidArgument, fmt.Sprintf("%s: %s", code, reason), nil)
}

// JARParams are the OAuth authorization parameters extracted from a
// validated JAR request object.
type JARParams struct {
	ClientID            string
	ResponseType        string
	RedirectURI         string
	Scope               string
	State               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string
	Prompt              string
}

// JARValidatorConfig carries the per-request expectations a JAR is
// checked against.
type JARValidatorConfig struct {
	ExpectedClientID  string
	ExpectedAudience  string
	MaxAge            time.Duration // default 3600s when zero
	RequireSignature  bool
	PublicKeyResolver func(kid string) (interface{}, error)
}

func (c JARValidatorConfig) maxAge() time.Duration {
	if c.MaxAge <= 0 {
		return time.Hour
	}
	return c.MaxAge
}

// ValidateJAR implements the JAR validation algorithm
// against a raw `request` parameter value. `request_uri` is handled
// separately by ValidateRequestURI, which always rejects (JAR-014).
func ValidateJAR(raw string, cfg JARValidatorConfig) (*JARParams, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, jarCode("JAR-000", "request object must be a three-part JWS")
	}

	var claims jwt.MapClaims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	unverifiedClaims := jwt.MapClaims{}
	unverified, _, err := parser.ParseUnverified(raw, unverifiedClaims)
	if err != nil {
		return nil, jarCode("JAR-000", "malformed request object: "+err.Error())
	}
	alg, _ := unverified.Header["alg"].(string)

	if alg == "none" {
		if cfg.RequireSignature {
			return nil, jarCode("JAR-001", "alg=none is not permitted when signatures are required")
		}
		claims = unverifiedClaims
	} else {
		if cfg.PublicKeyResolver == nil {
			if cfg.RequireSignature {
				return nil, jarCode("JAR-002", "no public key available to verify signature")
			}
			claims = unverifiedClaims
		} else {
			verified := jwt.MapClaims{}
			_, err := jwt.ParseWithClaims(raw, &verified, func(t *jwt.Token) (interface{}, error) {
				kid, _ := t.Header["kid"].(string)
				return cfg.PublicKeyResolver(kid)
			})
			if err != nil {
				return nil, jarCode("JAR-002", "signature verification failed: "+err.Error())
			}
			claims = verified
		}
	}

	return validateClaims(claims, cfg)
}

// ValidateRequestURI always rejects: fetching request_uri is not
// implemented. TODO: implement fetch with a host allow-list before
// enabling this path.
func ValidateRequestURI(uri string) (*JARParams, error) {
	return nil, jarCode("JAR-014", "request_uri is not supported")
}

func validateClaims(claims jwt.MapClaims, cfg JARValidatorConfig) (*JARParams, error) {
	iss, ok := claims["iss"].(string)
	if !ok || iss == "" {
		return nil, jarCode("JAR-003", "iss claim is required")
	}
	if iss != cfg.ExpectedClientID {
		return nil, jarCode("JAR-004", "iss does not match the expected client id")
	}

	if !audienceIncludes(claims["aud"], cfg.ExpectedAudience) {
		if claims["aud"] == nil {
			return nil, jarCode("JAR-005", "aud claim is required")
		}
		return nil, jarCode("JAR-006", "aud does not include the expected audience")
	}

	iatFloat, ok := claims["iat"].(float64)
	if !ok {
		return nil, jarCode("JAR-007", "iat claim is required")
	}
	iat := time.Unix(int64(iatFloat), 0)
	now := time.Now()
	if iat.After(now) {
		return nil, jarCode("JAR-008", "iat must not be in the future")
	}
	if now.Sub(iat) > cfg.maxAge() {
		return nil, jarCode("JAR-009", "request object has expired (age exceeds maxAge)")
	}

	if expFloat, ok := claims["exp"].(float64); ok {
		if !now.Before(time.Unix(int64(expFloat), 0)) {
			return nil, jarCode("JAR-010", "exp claim has passed")
		}
	}

	responseType, _ := claims["response_type"].(string)
	if responseType == "" {
		return nil, jarCode("JAR-011", "response_type is required")
	}
	redirectURI, _ := claims["redirect_uri"].(string)
	if redirectURI == "" {
		return nil, jarCode("JAR-012", "redirect_uri is required")
	}

	clientID, _ := claims["client_id"].(string)
	if clientID == "" {
		clientID = iss
	}

	params := &JARParams{
		ClientID:     clientID,
		ResponseType: responseType,
		RedirectURI:  redirectURI,
	}
	params.Scope, _ = claims["scope"].(string)
	params.State, _ = claims["state"].(string)
	params.Nonce, _ = claims["nonce"].(string)
	params.CodeChallenge, _ = claims["code_challenge"].(string)
	params.CodeChallengeMethod, _ = claims["code_challenge_method"].(string)
	params.Prompt, _ = claims["prompt"].(string)
	return params, nil
}

func audienceIncludes(aud interface{}, expected string) bool {
	switch v := aud.(type) {
	case string:
		return v == expected
	case []interface{}:
		for _, a := range v {
			if s, ok := a.(string); ok && s == expected {
				return true
			}
		}
	}
	return false
}
