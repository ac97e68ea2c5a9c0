package clubauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/flightclubhq/clubauth/internal/rate"
	"github.com/flightclubhq/clubauth/internal/resolve"
	"github.com/flightclubhq/clubauth/password"
	"github.com/flightclubhq/clubauth/token"
)

// Engine is the session and authorization core. Build one with [Builder] at
// startup; all methods are safe for concurrent use.
type Engine struct {
	config       Config
	tokens       *token.Manager
	provider     MembershipProvider
	resolver     *resolve.Cache
	rateLimiter  *rate.Limiter
	audit        *auditDispatcher
	metrics      *Metrics
	passwordHash *password.Argon2
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// CookieConfig exposes the transport cookie settings for packages that
// write session cookies on the engine's behalf.
func (e *Engine) CookieConfig() CookieConfig {
	if e == nil {
		return CookieConfig{}
	}
	return e.config.Cookie
}

// ResetRefreshThrottle clears the per-subject refresh counter. Intended for
// operators resolving an incident, not for request paths.
func (e *Engine) ResetRefreshThrottle(ctx context.Context, subjectID string) error {
	if e == nil || e.rateLimiter == nil {
		return ErrEngineNotReady
	}
	return e.rateLimiter.ResetRefresh(ctx, subjectID)
}

// InvalidateResource drops a cached resource-to-club mapping. Call it when
// processing an ownership transfer so stale mappings do not outlive the
// cache TTL.
func (e *Engine) InvalidateResource(ctx context.Context, resourceID string) error {
	if e == nil || e.resolver == nil {
		return nil
	}
	return e.resolver.Invalidate(ctx, resourceID)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() error {
	if e == nil || e.tokens == nil || e.provider == nil {
		return ErrEngineNotReady
	}
	return nil
}

/*
====================================
STORE ACCESS
====================================

Every membership store call runs under the configured timeout. Failures are
classified once, here: not-found sentinels pass through untouched, anything
else is wrapped in ErrStoreUnavailable.
*/

func (e *Engine) getSubjectByID(ctx context.Context, subjectID string) (SubjectRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Security.StoreTimeout)
	defer cancel()

	rec, err := e.provider.GetSubjectByID(ctx, subjectID)
	if err != nil {
		return SubjectRecord{}, classifyStoreErr(err)
	}
	return rec, nil
}

func (e *Engine) getSubjectByIdentifier(ctx context.Context, identifier string) (SubjectRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Security.StoreTimeout)
	defer cancel()

	rec, err := e.provider.GetSubjectByIdentifier(ctx, identifier)
	if err != nil {
		return SubjectRecord{}, classifyStoreErr(err)
	}
	return rec, nil
}

func (e *Engine) getMemberships(ctx context.Context, subjectID string) ([]ClubMembership, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Security.StoreTimeout)
	defer cancel()

	memberships, err := e.provider.GetMemberships(ctx, subjectID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return memberships, nil
}

func (e *Engine) getClubByID(ctx context.Context, clubID string) (ClubRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Security.StoreTimeout)
	defer cancel()

	rec, err := e.provider.GetClubByID(ctx, clubID)
	if err != nil {
		return ClubRecord{}, classifyStoreErr(err)
	}
	return rec, nil
}

func classifyStoreErr(err error) error {
	if isNotFound(err) {
		return err
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrSubjectNotFound) ||
		errors.Is(err, ErrClubNotFound) ||
		errors.Is(err, ErrResourceNotFound)
}
