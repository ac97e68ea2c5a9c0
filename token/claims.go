package token

// Kind discriminates the two credential flavors carried in the "knd" claim.
type Kind string

const (
	// KindAccess marks a short-lived credential used for request-level gating.
	KindAccess Kind = "access"
	// KindRefresh marks a long-lived credential used only to mint a new pair.
	KindRefresh Kind = "refresh"
)

// Role is a per-club membership role.
type Role string

const (
	// RoleMember grants plain membership in a club.
	RoleMember Role = "MEMBER"
	// RoleAdmin grants administrative rights within a club.
	RoleAdmin Role = "ADMIN"
)

// SessionTypeClubAdmin is the discriminator carried by a scoped club-admin
// session's admin context. A refresh of a club-admin session is rejected
// when this value is absent.
const SessionTypeClubAdmin = "club_admin"

// Membership is one club membership entry as asserted at issuance time.
// Order within a claim set is irrelevant.
type Membership struct {
	ClubID   string `json:"club_id"`
	ClubName string `json:"club_name,omitempty"`
	Role     Role   `json:"role"`
}

// AdminContext scopes a session to administrative actions within one club.
// Its presence narrows what the credential asserts; it is never trusted as
// a standalone admin signal without cross-checking the membership list or,
// on refresh, the membership store.
type AdminContext struct {
	ClubID      string `json:"club_id"`
	ClubName    string `json:"club_name,omitempty"`
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name,omitempty"`
	SessionType string `json:"session_type"`
}

// ClaimSet is the decoded payload of a credential. The json tags shape the
// trust-header payload handed to internal services, not the credential
// encoding itself.
type ClaimSet struct {
	SubjectID     string        `json:"subject_id"`
	Email         string        `json:"email,omitempty"`
	IsSystemAdmin bool          `json:"is_system_admin,omitempty"`
	Memberships   []Membership  `json:"memberships,omitempty"`
	AdminContext  *AdminContext `json:"admin_context,omitempty"`
}

// MembershipRole returns the asserted role for the given club, if any.
func (c *ClaimSet) MembershipRole(clubID string) (Role, bool) {
	for _, m := range c.Memberships {
		if m.ClubID == clubID {
			return m.Role, true
		}
	}
	return "", false
}

// IsClubAdminSession reports whether the claim set carries a well-formed
// club-admin context.
func (c *ClaimSet) IsClubAdminSession() bool {
	return c.AdminContext != nil && c.AdminContext.SessionType == SessionTypeClubAdmin
}
