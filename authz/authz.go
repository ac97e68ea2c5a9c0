package authz

import "github.com/flightclubhq/clubauth/token"

// ScopeKind identifies the protection level a request asks for.
type ScopeKind int

const (
	// ScopeAuthenticated admits any signed-in subject.
	ScopeAuthenticated ScopeKind = iota
	// ScopeClubAdmin admits club admins of one specific club.
	ScopeClubAdmin
	// ScopeSystemAdmin admits platform-wide administrators only.
	ScopeSystemAdmin
)

// Scope is a requested authorization scope. ClubID is set only for
// ScopeClubAdmin.
type Scope struct {
	Kind   ScopeKind
	ClubID string
}

// Authenticated returns the plain signed-in scope.
func Authenticated() Scope { return Scope{Kind: ScopeAuthenticated} }

// ClubAdmin returns the scope for administrative actions within clubID.
func ClubAdmin(clubID string) Scope { return Scope{Kind: ScopeClubAdmin, ClubID: clubID} }

// SystemAdmin returns the platform-wide administrative scope.
func SystemAdmin() Scope { return Scope{Kind: ScopeSystemAdmin} }

// DenyReason classifies why a decision denied.
type DenyReason int

const (
	DenyNone DenyReason = iota
	DenyInsufficientRole
	DenyMissingClub
)

// Decision is the result of evaluating a claim set against a scope.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision            { return Decision{Allowed: true} }
func deny(r DenyReason) Decision { return Decision{Reason: r} }

// Evaluate applies the rule chain. It is pure and safe to call concurrently
// from any number of request handlers.
func Evaluate(claims *token.ClaimSet, scope Scope) Decision {
	if claims == nil {
		return deny(DenyInsufficientRole)
	}

	if claims.IsSystemAdmin {
		return allow()
	}

	switch scope.Kind {
	case ScopeSystemAdmin:
		return deny(DenyInsufficientRole)

	case ScopeClubAdmin:
		if scope.ClubID == "" {
			return deny(DenyMissingClub)
		}
		if ac := claims.AdminContext; ac != nil {
			if ac.SessionType == token.SessionTypeClubAdmin && ac.ClubID == scope.ClubID {
				return allow()
			}
			return deny(DenyInsufficientRole)
		}
		if role, ok := claims.MembershipRole(scope.ClubID); ok && role == token.RoleAdmin {
			return allow()
		}
		return deny(DenyInsufficientRole)

	default:
		// Any successfully decoded claim set identifies a subject.
		return allow()
	}
}
