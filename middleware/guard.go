package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	clubauth "github.com/flightclubhq/clubauth"
	"github.com/flightclubhq/clubauth/authz"
	"github.com/flightclubhq/clubauth/token"
)

// Trust headers set for downstream internal services after the guard has
// verified a credential. Services behind the gateway read these instead of
// re-verifying; they must never be accepted from outside.
const (
	HeaderUserID          = "x-user-id"
	HeaderJWTPayload      = "x-jwt-payload"
	HeaderAdminJWTPayload = "x-admin-jwt-payload"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the claim set stored by [Guard].
func ClaimsFromContext(ctx context.Context) (*token.ClaimSet, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*token.ClaimSet)
	return claims, ok
}

// Guard returns middleware that verifies the request's access credential
// against scope. On success the claim set is stored in the request context
// and the trust headers are stamped onto the request for downstream
// handlers; inbound trust headers are always stripped first.
//
// Verification failures map to 401, scope denials to 403, and a store
// outage during resource resolution would be 500, but the guard itself
// never touches the store.
func Guard(engine *clubauth.Engine, flavor clubauth.SessionFlavor, scope authz.Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			stripTrustHeaders(r)

			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			credential, ok := AccessTokenFromRequest(r, flavor)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := engine.ValidateAccess(credential, scope)
			if err != nil {
				if errors.Is(err, clubauth.ErrInsufficientRole) {
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			stampTrustHeaders(r, claims)

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func stripTrustHeaders(r *http.Request) {
	r.Header.Del(HeaderUserID)
	r.Header.Del(HeaderJWTPayload)
	r.Header.Del(HeaderAdminJWTPayload)
}

func stampTrustHeaders(r *http.Request, claims *token.ClaimSet) {
	r.Header.Set(HeaderUserID, claims.SubjectID)

	if payload, err := json.Marshal(claims); err == nil {
		r.Header.Set(HeaderJWTPayload, string(payload))
	}

	if claims.AdminContext != nil {
		if payload, err := json.Marshal(claims.AdminContext); err == nil {
			r.Header.Set(HeaderAdminJWTPayload, string(payload))
		}
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	tok := value[len(bearer):]
	if tok == "" {
		return "", false
	}

	return tok, true
}
