package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	clubauth "github.com/flightclubhq/clubauth"
)

func TestCookieNames(t *testing.T) {
	access, refresh := CookieNames(clubauth.FlavorPilot)
	if access != "pilot-access-token" || refresh != "pilot-refresh-token" {
		t.Fatalf("pilot names = %q, %q", access, refresh)
	}

	access, refresh = CookieNames(clubauth.FlavorClubAdmin)
	if access != "club-admin-access-token" || refresh != "club-admin-refresh-token" {
		t.Fatalf("club-admin names = %q, %q", access, refresh)
	}
}

func TestSetSessionCookiesAttributes(t *testing.T) {
	rec := httptest.NewRecorder()
	cfg := clubauth.CookieConfig{Secure: true, Domain: "flightclub.example"}

	SetSessionCookies(rec, cfg, clubauth.FlavorPilot, clubauth.TokenPair{
		AccessToken:      "access-credential",
		RefreshToken:     "refresh-credential",
		AccessExpiresIn:  15 * time.Minute,
		RefreshExpiresIn: 24 * time.Hour,
	})

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("cookies = %d, want 2", len(cookies))
	}

	byName := map[string]*http.Cookie{}
	for _, c := range cookies {
		byName[c.Name] = c
	}

	access := byName["pilot-access-token"]
	if access == nil {
		t.Fatal("missing access cookie")
	}
	if access.Value != "access-credential" {
		t.Fatalf("access value = %q", access.Value)
	}
	if access.MaxAge != int((15 * time.Minute).Seconds()) {
		t.Fatalf("access MaxAge = %d", access.MaxAge)
	}
	if !access.HttpOnly || !access.Secure || access.Path != "/" {
		t.Fatalf("access attributes = %+v", access)
	}
	if access.SameSite != http.SameSiteLaxMode {
		t.Fatalf("access SameSite = %v", access.SameSite)
	}
	if access.Domain != "flightclub.example" {
		t.Fatalf("access Domain = %q", access.Domain)
	}

	refresh := byName["pilot-refresh-token"]
	if refresh == nil {
		t.Fatal("missing refresh cookie")
	}
	if refresh.MaxAge != int((24 * time.Hour).Seconds()) {
		t.Fatalf("refresh MaxAge = %d", refresh.MaxAge)
	}
}

func TestClearSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()

	ClearSessionCookies(rec, clubauth.CookieConfig{}, clubauth.FlavorClubAdmin)

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("cookies = %d, want 2", len(cookies))
	}
	for _, c := range cookies {
		if c.Value != "" {
			t.Fatalf("%s value = %q, want empty", c.Name, c.Value)
		}
		if c.MaxAge >= 0 {
			t.Fatalf("%s MaxAge = %d, want negative", c.Name, c.MaxAge)
		}
	}
}

func TestAccessTokenFromRequestPrefersBearer(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer header-credential")
	r.AddCookie(&http.Cookie{Name: "pilot-access-token", Value: "cookie-credential"})

	tok, ok := AccessTokenFromRequest(r, clubauth.FlavorPilot)
	if !ok || tok != "header-credential" {
		t.Fatalf("token = %q, %v", tok, ok)
	}
}

func TestAccessTokenFromRequestFallsBackToCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "pilot-access-token", Value: "cookie-credential"})

	tok, ok := AccessTokenFromRequest(r, clubauth.FlavorPilot)
	if !ok || tok != "cookie-credential" {
		t.Fatalf("token = %q, %v", tok, ok)
	}

	if _, ok := AccessTokenFromRequest(httptest.NewRequest(http.MethodGet, "/", nil), clubauth.FlavorPilot); ok {
		t.Fatal("empty request must not yield a token")
	}
}

func TestRefreshTokenIsCookieOnly(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("Authorization", "Bearer header-credential")

	if _, ok := RefreshTokenFromRequest(r, clubauth.FlavorPilot); ok {
		t.Fatal("refresh token must not be read from headers")
	}

	r.AddCookie(&http.Cookie{Name: "pilot-refresh-token", Value: "refresh-credential"})
	tok, ok := RefreshTokenFromRequest(r, clubauth.FlavorPilot)
	if !ok || tok != "refresh-credential" {
		t.Fatalf("token = %q, %v", tok, ok)
	}
}
