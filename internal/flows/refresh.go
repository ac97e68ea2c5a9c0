package flows

import (
	"context"
	"time"

	"github.com/flightclubhq/clubauth/token"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureNoCredential
	RefreshFailureVerify
	RefreshFailureRateLimited
	RefreshFailureSessionType
	RefreshFailureRevoked
	RefreshFailureStore
	RefreshFailureRebuild
	RefreshFailureIssue
)

// RefreshResult carries either the rotated pair or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	Reason  string

	SubjectID string
	ClubID    string
	Claims    *token.ClaimSet
	Pair      token.Pair
}

// RefreshRateLimiter throttles refresh attempts per subject.
type RefreshRateLimiter interface {
	CheckRefresh(ctx context.Context, subjectID string) error
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Now              func() time.Time
	VerifyRefresh    func(credential string, now time.Time) (*token.ClaimSet, error)
	RequireClubAdmin bool
	Recheck          func(ctx context.Context, claims *token.ClaimSet) RecheckResult
	RebuildClaims    func(ctx context.Context, old *token.ClaimSet) (token.ClaimSet, error)
	IssuePair        func(claims token.ClaimSet, now time.Time) (token.Pair, error)
	RateLimiter      RefreshRateLimiter
}

// RunRefresh executes the rotation state machine:
// received -> signature checked -> structure checked -> revocation checked
// -> rotated, with an exit at each gate. The store is never touched before
// the credential has been presented and verified. On success the new pair
// carries claims rebuilt from current store state, so rotation is also a
// privilege re-sync, not just a lifetime extension.
func RunRefresh(ctx context.Context, credential string, deps RefreshDeps) RefreshResult {
	if credential == "" {
		return RefreshResult{Failure: RefreshFailureNoCredential}
	}

	now := deps.Now()
	claims, err := deps.VerifyRefresh(credential, now)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureVerify, Err: err}
	}

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.CheckRefresh(ctx, claims.SubjectID); err != nil {
			return RefreshResult{
				Failure:   RefreshFailureRateLimited,
				Err:       err,
				SubjectID: claims.SubjectID,
			}
		}
	}

	// Structural gate: the credential's session flavor must match the
	// refresh being requested, so neither flavor can stand in for the other.
	if claims.IsClubAdminSession() != deps.RequireClubAdmin {
		return RefreshResult{
			Failure:   RefreshFailureSessionType,
			SubjectID: claims.SubjectID,
		}
	}

	clubID := ""
	if ac := claims.AdminContext; ac != nil {
		clubID = ac.ClubID
	}

	recheck := deps.Recheck(ctx, claims)
	switch recheck.Outcome {
	case RecheckStillValid:
	case RecheckRevoked:
		return RefreshResult{
			Failure:   RefreshFailureRevoked,
			Err:       recheck.Err,
			Reason:    recheck.Reason,
			SubjectID: claims.SubjectID,
			ClubID:    clubID,
		}
	default:
		return RefreshResult{
			Failure:   RefreshFailureStore,
			Err:       recheck.Err,
			SubjectID: claims.SubjectID,
			ClubID:    clubID,
		}
	}

	rebuilt, err := deps.RebuildClaims(ctx, claims)
	if err != nil {
		return RefreshResult{
			Failure:   RefreshFailureRebuild,
			Err:       err,
			SubjectID: claims.SubjectID,
			ClubID:    clubID,
		}
	}

	pair, err := deps.IssuePair(rebuilt, now)
	if err != nil {
		return RefreshResult{
			Failure:   RefreshFailureIssue,
			Err:       err,
			SubjectID: claims.SubjectID,
			ClubID:    clubID,
		}
	}

	return RefreshResult{
		Failure:   RefreshFailureNone,
		SubjectID: rebuilt.SubjectID,
		ClubID:    clubID,
		Claims:    &rebuilt,
		Pair:      pair,
	}
}
