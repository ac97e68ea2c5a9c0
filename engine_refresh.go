package clubauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flightclubhq/clubauth/internal/flows"
	"github.com/flightclubhq/clubauth/internal/rate"
	"github.com/flightclubhq/clubauth/token"
)

// refreshThrottle adapts the rate limiter for the refresh flow. Redis
// outages fail open: a degraded throttle must not block rotation.
type refreshThrottle struct {
	limiter *rate.Limiter
}

func (t refreshThrottle) CheckRefresh(ctx context.Context, subjectID string) error {
	err := t.limiter.CheckRefresh(ctx, subjectID)
	if err != nil && errors.Is(err, rate.ErrRedisUnavailable) {
		return nil
	}
	return err
}

// Refresh rotates a refresh credential into a fresh pair. This is the one
// place where issued credentials meet current store state: the subject (and
// for club-admin sessions, the role and the club) is re-validated, and the
// new pair's claims are rebuilt from the store rather than copied forward.
//
// flavor selects the structural session-type gate: a pilot refresh
// credential presented on the club-admin path fails with
// [ErrWrongSessionType] before any store access, and vice versa.
//
// The old pair is not invalidated; it simply ages out. Both halves of a
// rotation remain valid until their own expiry.
func (e *Engine) Refresh(ctx context.Context, credential string, flavor SessionFlavor) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}

	deps := flows.RefreshDeps{
		Now:              time.Now,
		RequireClubAdmin: flavor == FlavorClubAdmin,
		RateLimiter:      refreshThrottle{limiter: e.rateLimiter},
		VerifyRefresh: func(cred string, now time.Time) (*token.ClaimSet, error) {
			return e.tokens.Verify(cred, token.KindRefresh, now)
		},
		Recheck: func(ctx context.Context, claims *token.ClaimSet) flows.RecheckResult {
			clubID := ""
			if ac := claims.AdminContext; ac != nil {
				clubID = ac.ClubID
			}
			return flows.RunRecheck(ctx, e.recheckDeps(), claims.SubjectID, clubID, token.RoleAdmin)
		},
		RebuildClaims: func(ctx context.Context, old *token.ClaimSet) (token.ClaimSet, error) {
			return e.rebuildClaims(ctx, old, flavor)
		},
		IssuePair: e.tokens.IssuePair,
	}

	result := flows.RunRefresh(ctx, credential, deps)

	switch result.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, result.SubjectID, result.ClubID, flavor, nil, nil)
		return result.Pair, nil

	case flows.RefreshFailureNoCredential:
		return TokenPair{}, ErrNoCredential

	case flows.RefreshFailureVerify:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshRejected, false, "", "", flavor, result.Err, nil)
		return TokenPair{}, result.Err

	case flows.RefreshFailureRateLimited:
		e.metricInc(MetricRefreshRateLimited)
		e.emitAudit(ctx, auditEventRefreshRejected, false, result.SubjectID, "", flavor, ErrRefreshRateLimited, nil)
		return TokenPair{}, ErrRefreshRateLimited

	case flows.RefreshFailureSessionType:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshRejected, false, result.SubjectID, "", flavor, ErrWrongSessionType, nil)
		return TokenPair{}, ErrWrongSessionType

	case flows.RefreshFailureRevoked:
		e.metricInc(MetricRefreshRevoked)
		reason := result.Reason
		e.emitAudit(ctx, auditEventRefreshRevoked, false, result.SubjectID, result.ClubID, flavor, ErrAccessRevoked, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return TokenPair{}, fmt.Errorf("%w: %s", ErrAccessRevoked, reason)

	case flows.RefreshFailureStore:
		e.metricInc(MetricStoreUnavailable)
		e.emitAudit(ctx, auditEventStoreUnavailable, false, result.SubjectID, result.ClubID, flavor, result.Err, nil)
		return TokenPair{}, storeFailure(result.Err)

	case flows.RefreshFailureRebuild:
		// The subject passed the recheck but vanished or failed before the
		// rebuild completed. Not-found here still means revoked.
		if isNotFound(result.Err) {
			e.metricInc(MetricRefreshRevoked)
			return TokenPair{}, fmt.Errorf("%w: %v", ErrAccessRevoked, result.Err)
		}
		e.metricInc(MetricStoreUnavailable)
		return TokenPair{}, storeFailure(result.Err)

	default:
		e.metricInc(MetricRefreshFailure)
		if result.Err != nil {
			return TokenPair{}, result.Err
		}
		return TokenPair{}, errors.New("refresh failed")
	}
}

func (e *Engine) recheckDeps() flows.RecheckDeps {
	return flows.RecheckDeps{
		FetchSubject: func(ctx context.Context, subjectID string) (flows.SubjectState, error) {
			rec, err := e.getSubjectByID(ctx, subjectID)
			if err != nil {
				return flows.SubjectState{}, err
			}
			return flows.SubjectState{
				Active:      rec.Status == SubjectActive,
				SystemAdmin: rec.IsSystemAdmin,
			}, nil
		},
		FetchRole: func(ctx context.Context, subjectID, clubID string) (token.Role, bool, error) {
			memberships, err := e.getMemberships(ctx, subjectID)
			if err != nil {
				return "", false, err
			}
			for _, m := range memberships {
				if m.ClubID == clubID {
					return m.Role, true, nil
				}
			}
			return "", false, nil
		},
		FetchClubActive: func(ctx context.Context, clubID string) (bool, error) {
			club, err := e.getClubByID(ctx, clubID)
			if err != nil {
				return false, err
			}
			return club.Status == ClubActive, nil
		},
		IsNotFound: isNotFound,
	}
}

// rebuildClaims re-derives the claim set from current store state so the
// rotated pair reflects membership and role changes made since issuance.
func (e *Engine) rebuildClaims(ctx context.Context, old *token.ClaimSet, flavor SessionFlavor) (token.ClaimSet, error) {
	subject, err := e.getSubjectByID(ctx, old.SubjectID)
	if err != nil {
		return token.ClaimSet{}, err
	}

	if flavor == FlavorClubAdmin {
		ac := old.AdminContext
		if ac == nil {
			return token.ClaimSet{}, ErrWrongSessionType
		}
		club, err := e.getClubByID(ctx, ac.ClubID)
		if err != nil {
			return token.ClaimSet{}, err
		}
		return clubAdminClaims(subject, club), nil
	}

	return e.pilotClaims(ctx, subject)
}

func storeFailure(err error) error {
	if err == nil {
		return ErrStoreUnavailable
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
