package clubauth

import (
	"context"
	"time"

	internalaudit "github.com/flightclubhq/clubauth/internal/audit"
)

const (
	auditEventLoginSuccess      = "login_success"
	auditEventLoginFailure      = "login_failure"
	auditEventSessionIssued     = "session_issued"
	auditEventClubAdminEntered  = "club_admin_entered"
	auditEventClubAdminRejected = "club_admin_rejected"
	auditEventRefreshSuccess    = "refresh_success"
	auditEventRefreshRejected   = "refresh_rejected"
	auditEventRefreshRevoked    = "refresh_revoked"
	auditEventStoreUnavailable  = "store_unavailable"
)

type auditDispatcher = internalaudit.Dispatcher

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	return internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Enabled,
		BufferSize: cfg.BufferSize,
		DropIfFull: cfg.DropIfFull,
	}, sink)
}

// emitAudit builds and dispatches one audit event. metadata is a lazy
// constructor so the hot path pays nothing when auditing is disabled.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subjectID, clubID string,
	flavor SessionFlavor,
	cause error,
	metadata func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		EventID:   internalaudit.NewEventID(),
		Timestamp: time.Now(),
		EventType: eventType,
		SubjectID: subjectID,
		ClubID:    clubID,
		Flavor:    string(flavor),
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
