package clubauth

import (
	"context"
	"io"

	internalaudit "github.com/flightclubhq/clubauth/internal/audit"
	"github.com/flightclubhq/clubauth/token"
)

// SubjectStatus represents the lifecycle state of a pilot account.
type SubjectStatus uint8

const (
	// SubjectActive accounts may hold sessions.
	SubjectActive SubjectStatus = iota
	// SubjectSuspended accounts fail every revocation recheck.
	SubjectSuspended
	// SubjectInactive accounts are deactivated and fail every recheck.
	SubjectInactive
)

// ClubStatus represents the lifecycle state of a club.
type ClubStatus uint8

const (
	ClubActive ClubStatus = iota
	ClubInactive
)

// SessionFlavor names the two session kinds exposed at the transport
// boundary. The flavor selects cookie names and the refresh structural
// check.
type SessionFlavor string

const (
	// FlavorPilot is an ordinary pilot session.
	FlavorPilot SessionFlavor = "pilot"
	// FlavorClubAdmin is a session scoped to administering one club.
	FlavorClubAdmin SessionFlavor = "club-admin"
)

// SubjectRecord is the current account record returned by a
// [MembershipProvider]. It carries the credential hash, status, and the
// platform-admin flag.
type SubjectRecord struct {
	SubjectID     string
	Identifier    string
	Email         string
	Name          string
	PasswordHash  string
	Status        SubjectStatus
	IsSystemAdmin bool
}

// ClubRecord is the current club record returned by a [MembershipProvider].
type ClubRecord struct {
	ClubID string
	Name   string
	Status ClubStatus
}

// ClubMembership is one current club membership row.
type ClubMembership struct {
	ClubID   string
	ClubName string
	Role     token.Role
}

// MembershipProvider is the interface callers implement to connect clubauth
// to their datastore. It is the single source of truth for whether a role
// is still valid; credentials are time-boxed cached assertions of what the
// provider said at issuance.
//
// Lookups must wrap missing records in [ErrSubjectNotFound] /
// [ErrClubNotFound]. The engine applies its own bounded timeout around
// every call.
type MembershipProvider interface {
	GetSubjectByID(ctx context.Context, subjectID string) (SubjectRecord, error)
	GetSubjectByIdentifier(ctx context.Context, identifier string) (SubjectRecord, error)
	GetMemberships(ctx context.Context, subjectID string) ([]ClubMembership, error)
	GetClubByID(ctx context.Context, clubID string) (ClubRecord, error)
}

// ResourceResolver maps a resource id (aircraft, flight) to the id of the
// club that owns it. Missing resources are wrapped in [ErrResourceNotFound].
type ResourceResolver interface {
	OwningClub(ctx context.Context, resourceID string) (string, error)
}

// ResourceResolverFunc adapts a function to the [ResourceResolver] interface.
type ResourceResolverFunc func(ctx context.Context, resourceID string) (string, error)

func (f ResourceResolverFunc) OwningClub(ctx context.Context, resourceID string) (string, error) {
	return f(ctx, resourceID)
}

// TokenPair is a freshly minted access/refresh credential pair.
type TokenPair = token.Pair

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
