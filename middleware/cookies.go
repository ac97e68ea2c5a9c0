package middleware

import (
	"net/http"
	"time"

	clubauth "github.com/flightclubhq/clubauth"
)

// CookieNames returns the access and refresh cookie names for a flavor.
// The two flavors use disjoint cookie pairs so a browser can hold a pilot
// session and a club-admin session side by side.
func CookieNames(flavor clubauth.SessionFlavor) (access, refresh string) {
	return string(flavor) + "-access-token", string(flavor) + "-refresh-token"
}

// SetSessionCookies writes both halves of a pair as http-only cookies. The
// cookie maxAge mirrors each credential's remaining lifetime, so the browser
// drops the cookie at roughly the same time the credential stops verifying.
func SetSessionCookies(w http.ResponseWriter, cfg clubauth.CookieConfig, flavor clubauth.SessionFlavor, pair clubauth.TokenPair) {
	accessName, refreshName := CookieNames(flavor)

	http.SetCookie(w, sessionCookie(cfg, accessName, pair.AccessToken, pair.AccessExpiresIn))
	http.SetCookie(w, sessionCookie(cfg, refreshName, pair.RefreshToken, pair.RefreshExpiresIn))
}

// ClearSessionCookies expires both cookies of a flavor. Clearing is the only
// transport-level logout; the credentials themselves stay valid until expiry.
func ClearSessionCookies(w http.ResponseWriter, cfg clubauth.CookieConfig, flavor clubauth.SessionFlavor) {
	accessName, refreshName := CookieNames(flavor)

	http.SetCookie(w, expiredCookie(cfg, accessName))
	http.SetCookie(w, expiredCookie(cfg, refreshName))
}

// AccessTokenFromRequest extracts the access credential: Authorization
// bearer header first, flavor cookie second.
func AccessTokenFromRequest(r *http.Request, flavor clubauth.SessionFlavor) (string, bool) {
	if tok, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return tok, true
	}

	accessName, _ := CookieNames(flavor)
	return cookieValue(r, accessName)
}

// RefreshTokenFromRequest extracts the refresh credential. Refresh is
// cookie-only: a refresh credential never travels in a header.
func RefreshTokenFromRequest(r *http.Request, flavor clubauth.SessionFlavor) (string, bool) {
	_, refreshName := CookieNames(flavor)
	return cookieValue(r, refreshName)
}

func sessionCookie(cfg clubauth.CookieConfig, name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func expiredCookie(cfg clubauth.CookieConfig, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func cookieValue(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
