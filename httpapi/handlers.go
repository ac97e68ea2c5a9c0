package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	clubauth "github.com/flightclubhq/clubauth"
	"github.com/flightclubhq/clubauth/authz"
	"github.com/flightclubhq/clubauth/middleware"
	"github.com/flightclubhq/clubauth/token"
)

type refreshResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// handleRefresh serves one flavor's rotation endpoint. The refresh
// credential is cookie-only; on success both cookies are replaced, and on
// definitive rejection they are cleared so the browser stops retrying a
// dead session.
func (a *API) handleRefresh(flavor clubauth.SessionFlavor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		credential, _ := middleware.RefreshTokenFromRequest(r, flavor)

		pair, err := a.engine.Refresh(r.Context(), credential, flavor)
		if err != nil {
			a.writeRefreshError(w, flavor, err)
			return
		}

		middleware.SetSessionCookies(w, a.engine.CookieConfig(), flavor, pair)
		writeJSON(w, http.StatusOK, refreshResponse{Success: true})
	}
}

func (a *API) writeRefreshError(w http.ResponseWriter, flavor clubauth.SessionFlavor, err error) {
	cfg := a.engine.CookieConfig()

	switch {
	case errors.Is(err, clubauth.ErrNoCredential),
		errors.Is(err, token.ErrMalformed),
		errors.Is(err, token.ErrBadSignature),
		errors.Is(err, token.ErrExpired),
		errors.Is(err, token.ErrWrongKind):
		middleware.ClearSessionCookies(w, cfg, flavor)
		writeJSON(w, http.StatusUnauthorized, refreshResponse{Success: false, Error: "invalid refresh credential"})

	case errors.Is(err, clubauth.ErrAccessRevoked),
		errors.Is(err, clubauth.ErrWrongSessionType):
		middleware.ClearSessionCookies(w, cfg, flavor)
		writeJSON(w, http.StatusForbidden, refreshResponse{Success: false, Error: "session no longer valid"})

	case errors.Is(err, clubauth.ErrRefreshRateLimited):
		// Cookies stay: the session may still be fine once the budget resets.
		writeJSON(w, http.StatusTooManyRequests, refreshResponse{Success: false, Error: "too many refresh attempts"})

	case errors.Is(err, clubauth.ErrStoreUnavailable):
		a.logger.Error("refresh store failure", zap.String("flavor", string(flavor)), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, refreshResponse{Success: false, Error: "temporarily unavailable"})

	default:
		a.logger.Error("refresh failure", zap.String("flavor", string(flavor)), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, refreshResponse{Success: false, Error: "refresh failed"})
	}
}

type verifyRequest struct {
	Token              string `json:"token"`
	ClubID             string `json:"clubId,omitempty"`
	ResourceID         string `json:"resourceId,omitempty"`
	RequireClubAdmin   bool   `json:"requireClubAdmin,omitempty"`
	RequireSystemAdmin bool   `json:"requireSystemAdmin,omitempty"`
}

type verifyResponse struct {
	IsValid       bool   `json:"isValid"`
	SubjectID     string `json:"subjectId,omitempty"`
	IsSystemAdmin bool   `json:"isSystemAdmin,omitempty"`
	Error         string `json:"error,omitempty"`
}

// handleVerify lets internal services check a credential they received
// out-of-band. The body always carries isValid; the status follows the
// failure kind: 401 for credential failures, 403 for an insufficient role,
// 404 for an unresolvable resource, 400 for request-shape problems, 500 for
// a store outage.
func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if fields := validateVerifyRequest(req); len(fields) > 0 {
		writeError(w, http.StatusBadRequest, "invalid request", fields...)
		return
	}

	claims, err := a.engine.VerifyAccess(req.Token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, verifyResponse{IsValid: false, Error: verifyFailureLabel(err)})
		return
	}

	decision, err := a.verifyDecision(r, req, claims)
	if err != nil {
		switch {
		case errors.Is(err, clubauth.ErrResourceNotFound):
			writeError(w, http.StatusNotFound, "resource not found")
		default:
			a.logger.Error("verify store failure", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "temporarily unavailable")
		}
		return
	}

	if !decision.Allowed {
		writeJSON(w, http.StatusForbidden, verifyResponse{IsValid: false, Error: "insufficient_role"})
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		IsValid:       true,
		SubjectID:     claims.SubjectID,
		IsSystemAdmin: claims.IsSystemAdmin,
	})
}

func (a *API) verifyDecision(r *http.Request, req verifyRequest, claims *token.ClaimSet) (authz.Decision, error) {
	switch {
	case req.RequireSystemAdmin:
		return a.engine.Authorize(claims, authz.SystemAdmin()), nil
	case req.ResourceID != "":
		return a.engine.AuthorizeResource(r.Context(), claims, req.ResourceID)
	case req.RequireClubAdmin:
		return a.engine.Authorize(claims, authz.ClubAdmin(req.ClubID)), nil
	default:
		return a.engine.Authorize(claims, authz.Authenticated()), nil
	}
}

func validateVerifyRequest(req verifyRequest) []string {
	var fields []string
	if req.Token == "" {
		fields = append(fields, "token")
	}
	if req.RequireClubAdmin && req.ClubID == "" && req.ResourceID == "" {
		fields = append(fields, "clubId")
	}
	if req.RequireSystemAdmin && req.RequireClubAdmin {
		fields = append(fields, "requireClubAdmin")
	}
	return fields
}

func verifyFailureLabel(err error) string {
	switch {
	case errors.Is(err, clubauth.ErrNoCredential):
		return "no_credential"
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, token.ErrWrongKind):
		return "wrong_kind"
	default:
		return "malformed"
	}
}
