package flows

import (
	"context"

	"github.com/flightclubhq/clubauth/token"
)

// RecheckOutcome classifies the result of a revocation re-validation.
type RecheckOutcome int

const (
	RecheckStillValid RecheckOutcome = iota
	RecheckRevoked
	RecheckStoreFailed
)

// RecheckResult carries the outcome plus a short machine-readable reason
// for revocations and the underlying error for store failures.
type RecheckResult struct {
	Outcome RecheckOutcome
	Reason  string
	Err     error
}

// SubjectState is the minimal current-state view of a subject needed to
// decide revocation.
type SubjectState struct {
	Active      bool
	SystemAdmin bool
}

// RecheckDeps captures revocation-check dependencies. Fetchers are expected
// to enforce their own bounded timeout. IsNotFound recognizes missing
// records, which count as revocation; every other fetch error is a store
// failure.
type RecheckDeps struct {
	FetchSubject    func(ctx context.Context, subjectID string) (SubjectState, error)
	FetchRole       func(ctx context.Context, subjectID, clubID string) (token.Role, bool, error)
	FetchClubActive func(ctx context.Context, clubID string) (bool, error)

	IsNotFound func(error) bool
}

// RunRecheck re-validates against the membership store that the subject is
// still active and, when clubID is set, still holds requiredRole for that
// club and the club itself is still active. Invoked only on the refresh
// path; plain access-credential verification never reaches here.
func RunRecheck(ctx context.Context, deps RecheckDeps, subjectID, clubID string, requiredRole token.Role) RecheckResult {
	state, err := deps.FetchSubject(ctx, subjectID)
	if err != nil {
		return classifyFetchError(deps, err, "subject_not_found")
	}
	if !state.Active {
		return RecheckResult{Outcome: RecheckRevoked, Reason: "subject_inactive"}
	}

	if clubID == "" {
		return RecheckResult{Outcome: RecheckStillValid}
	}

	// System admins hold club-admin sessions without a membership row, so
	// the role scan does not apply to them. The club liveness check does.
	if !state.SystemAdmin {
		role, ok, err := deps.FetchRole(ctx, subjectID, clubID)
		if err != nil {
			return classifyFetchError(deps, err, "membership_removed")
		}
		if !ok {
			return RecheckResult{Outcome: RecheckRevoked, Reason: "membership_removed"}
		}
		if role != requiredRole && role != token.RoleAdmin {
			return RecheckResult{Outcome: RecheckRevoked, Reason: "role_changed"}
		}
	}

	active, err := deps.FetchClubActive(ctx, clubID)
	if err != nil {
		return classifyFetchError(deps, err, "club_not_found")
	}
	if !active {
		return RecheckResult{Outcome: RecheckRevoked, Reason: "club_inactive"}
	}

	return RecheckResult{Outcome: RecheckStillValid}
}

func classifyFetchError(deps RecheckDeps, err error, notFoundReason string) RecheckResult {
	if deps.IsNotFound != nil && deps.IsNotFound(err) {
		return RecheckResult{Outcome: RecheckRevoked, Reason: notFoundReason, Err: err}
	}
	return RecheckResult{Outcome: RecheckStoreFailed, Err: err}
}
