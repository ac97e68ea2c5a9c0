package clubauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flightclubhq/clubauth/authz"
	"github.com/flightclubhq/clubauth/token"
)

// VerifyAccess checks an access credential's signature, structure, kind,
// and expiry, and returns the embedded claim set. No store access: the
// claims are trusted as a snapshot for the access lifetime, and revocation
// is deferred to the refresh path.
//
// Failures are the token package sentinels: [token.ErrExpired],
// [token.ErrBadSignature], [token.ErrMalformed], [token.ErrWrongKind]. An
// empty credential returns [ErrNoCredential].
func (e *Engine) VerifyAccess(credential string) (*token.ClaimSet, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if credential == "" {
		e.metricInc(MetricVerifyRejected)
		return nil, ErrNoCredential
	}

	start := time.Now()
	claims, err := e.tokens.Verify(credential, token.KindAccess, time.Now())
	if e.metrics.Enabled() {
		e.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}

	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			e.metricInc(MetricVerifyExpired)
		} else {
			e.metricInc(MetricVerifyRejected)
		}
		return nil, err
	}

	e.metricInc(MetricVerifySuccess)
	return claims, nil
}

// Authorize evaluates a verified claim set against a scope and returns the
// decision. Pure claim inspection, no store access.
func (e *Engine) Authorize(claims *token.ClaimSet, scope authz.Scope) authz.Decision {
	decision := authz.Evaluate(claims, scope)
	if decision.Allowed {
		e.metricInc(MetricAuthzAllow)
	} else {
		e.metricInc(MetricAuthzDeny)
	}
	return decision
}

// Require is Authorize reduced to an error: nil when allowed,
// [ErrInsufficientRole] when denied.
func (e *Engine) Require(claims *token.ClaimSet, scope authz.Scope) error {
	if e.Authorize(claims, scope).Allowed {
		return nil
	}
	return ErrInsufficientRole
}

// ValidateAccess verifies a credential and checks it against a scope in one
// step. This is the whole per-request gate; it never touches the store.
func (e *Engine) ValidateAccess(credential string, scope authz.Scope) (*token.ClaimSet, error) {
	claims, err := e.VerifyAccess(credential)
	if err != nil {
		return nil, err
	}
	if err := e.Require(claims, scope); err != nil {
		return nil, err
	}
	return claims, nil
}

// AuthorizeResource resolves a resource id to its owning club and evaluates
// the claim set for club-admin access to that club. Resolution may hit the
// cache or the store; unresolvable resources return [ErrResourceNotFound].
func (e *Engine) AuthorizeResource(ctx context.Context, claims *token.ClaimSet, resourceID string) (authz.Decision, error) {
	if e == nil || e.resolver == nil {
		return authz.Decision{}, ErrEngineNotReady
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Security.StoreTimeout)
	defer cancel()

	clubID, err := e.resolver.OwningClub(ctx, resourceID)
	if err != nil {
		if isNotFound(err) {
			return authz.Decision{}, err
		}
		e.metricInc(MetricStoreUnavailable)
		return authz.Decision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return e.Authorize(claims, authz.ClubAdmin(clubID)), nil
}
