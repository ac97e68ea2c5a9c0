package clubauth

import "errors"

var (
	// ErrNoCredential is returned when no credential was presented at all.
	// The membership store is never consulted before this check.
	ErrNoCredential = errors.New("no credential presented")
	// ErrWrongSessionType is returned when a credential of one session
	// flavor is presented on the other flavor's refresh path.
	ErrWrongSessionType = errors.New("wrong session type")
	// ErrInsufficientRole is returned when a claim set does not satisfy the
	// requested scope.
	ErrInsufficientRole = errors.New("insufficient role")
	// ErrAccessRevoked is returned when store state changed out-of-band
	// after issuance: subject deactivated, role downgraded, club closed.
	ErrAccessRevoked = errors.New("access revoked")
	// ErrStoreUnavailable is returned when a membership store lookup timed
	// out or failed to connect. The only possibly-transient failure kind;
	// callers may retry with backoff, the core never does.
	ErrStoreUnavailable = errors.New("membership store unavailable")
	// ErrRefreshRateLimited is returned when the per-subject refresh budget
	// is exhausted.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrInvalidCredentials is returned for a failed identifier/password
	// login. Deliberately indistinguishable between unknown identifier and
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSubjectNotFound is the sentinel membership providers wrap when a
	// subject does not exist.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrClubNotFound is the sentinel membership providers wrap when a club
	// does not exist.
	ErrClubNotFound = errors.New("club not found")
	// ErrResourceNotFound is the sentinel resource resolvers wrap when a
	// resource id cannot be mapped to an owning club.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrEngineNotReady is returned when an Engine method is called on an
	// incompletely built engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
