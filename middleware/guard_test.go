package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	clubauth "github.com/flightclubhq/clubauth"
	"github.com/flightclubhq/clubauth/authz"
	"github.com/flightclubhq/clubauth/token"
)

type staticProvider struct {
	subject     clubauth.SubjectRecord
	memberships []clubauth.ClubMembership
}

func (p *staticProvider) GetSubjectByID(_ context.Context, subjectID string) (clubauth.SubjectRecord, error) {
	if subjectID != p.subject.SubjectID {
		return clubauth.SubjectRecord{}, clubauth.ErrSubjectNotFound
	}
	return p.subject, nil
}

func (p *staticProvider) GetSubjectByIdentifier(_ context.Context, identifier string) (clubauth.SubjectRecord, error) {
	if identifier != p.subject.Identifier {
		return clubauth.SubjectRecord{}, clubauth.ErrSubjectNotFound
	}
	return p.subject, nil
}

func (p *staticProvider) GetMemberships(_ context.Context, _ string) ([]clubauth.ClubMembership, error) {
	return p.memberships, nil
}

func (p *staticProvider) GetClubByID(_ context.Context, clubID string) (clubauth.ClubRecord, error) {
	return clubauth.ClubRecord{ClubID: clubID, Name: "Hilltop", Status: clubauth.ClubActive}, nil
}

func newGuardEngine(t *testing.T) *clubauth.Engine {
	t.Helper()

	cfg := clubauth.DefaultConfig()
	cfg.Token.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Token.AccessTTL = 15 * time.Minute
	cfg.Token.RefreshTTL = 24 * time.Hour
	cfg.Password = clubauth.PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}

	engine, err := clubauth.New().
		WithConfig(cfg).
		WithMembershipProvider(&staticProvider{
			subject: clubauth.SubjectRecord{
				SubjectID:  "pilot-1",
				Identifier: "alice@example.com",
				Status:     clubauth.SubjectActive,
			},
			memberships: []clubauth.ClubMembership{
				{ClubID: "club-1", ClubName: "Hilltop", Role: token.RoleAdmin},
			},
		}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func guardedHandler(t *testing.T, engine *clubauth.Engine, scope authz.Scope) (http.Handler, *http.Request) {
	t.Helper()

	handler := Guard(engine, clubauth.FlavorPilot, scope)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Error("claims missing from context")
		}
		w.Header().Set("X-Subject", claims.SubjectID)
		w.Header().Set("X-Downstream-User", r.Header.Get(HeaderUserID))
		w.Header().Set("X-Downstream-Payload", r.Header.Get(HeaderJWTPayload))
		w.WriteHeader(http.StatusOK)
	}))
	return handler, httptest.NewRequest(http.MethodGet, "/protected", nil)
}

func TestGuardAllowsValidBearer(t *testing.T) {
	engine := newGuardEngine(t)
	pair, err := engine.IssuePilotSession(context.Background(), "pilot-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	handler, r := guardedHandler(t, engine, authz.Authenticated())
	r.Header.Set("Authorization", "Bearer "+pair.AccessToken)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Subject") != "pilot-1" {
		t.Fatalf("subject = %q", rec.Header().Get("X-Subject"))
	}
}

func TestGuardAllowsValidCookie(t *testing.T) {
	engine := newGuardEngine(t)
	pair, err := engine.IssuePilotSession(context.Background(), "pilot-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	handler, r := guardedHandler(t, engine, authz.Authenticated())
	r.AddCookie(&http.Cookie{Name: "pilot-access-token", Value: pair.AccessToken})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGuardRejectsMissingAndInvalidCredentials(t *testing.T) {
	engine := newGuardEngine(t)
	handler, r := guardedHandler(t, engine, authz.Authenticated())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no credential: status = %d", rec.Code)
	}

	handler, r = guardedHandler(t, engine, authz.Authenticated())
	r.Header.Set("Authorization", "Bearer not-a-credential")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("forged credential: status = %d", rec.Code)
	}
}

func TestGuardDeniesInsufficientScope(t *testing.T) {
	engine := newGuardEngine(t)
	pair, err := engine.IssuePilotSession(context.Background(), "pilot-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	handler, r := guardedHandler(t, engine, authz.SystemAdmin())
	r.Header.Set("Authorization", "Bearer "+pair.AccessToken)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestGuardStampsTrustHeadersAndStripsInbound(t *testing.T) {
	engine := newGuardEngine(t)
	pair, err := engine.IssuePilotSession(context.Background(), "pilot-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	handler, r := guardedHandler(t, engine, authz.Authenticated())
	r.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	// Spoofing attempt: inbound trust headers must not survive.
	r.Header.Set(HeaderUserID, "admin-999")
	r.Header.Set(HeaderJWTPayload, `{"subject_id":"admin-999","is_system_admin":true}`)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Downstream-User"); got != "pilot-1" {
		t.Fatalf("downstream user = %q, want pilot-1", got)
	}

	var payload token.ClaimSet
	if err := json.Unmarshal([]byte(rec.Header().Get("X-Downstream-Payload")), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.SubjectID != "pilot-1" || payload.IsSystemAdmin {
		t.Fatalf("payload = %+v", payload)
	}
}
