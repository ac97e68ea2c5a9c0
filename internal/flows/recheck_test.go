package flows

import (
	"context"
	"errors"
	"testing"

	"github.com/flightclubhq/clubauth/token"
)

var (
	errMissing = errors.New("missing record")
	errTimeout = errors.New("store timed out")
)

type recheckFixture struct {
	subjects map[string]SubjectState
	roles    map[string]token.Role // key: subjectID + "/" + clubID
	clubs    map[string]bool
	subErr   error
	roleErr  error
	clubErr  error
}

func (f *recheckFixture) deps() RecheckDeps {
	return RecheckDeps{
		FetchSubject: func(_ context.Context, subjectID string) (SubjectState, error) {
			if f.subErr != nil {
				return SubjectState{}, f.subErr
			}
			state, ok := f.subjects[subjectID]
			if !ok {
				return SubjectState{}, errMissing
			}
			return state, nil
		},
		FetchRole: func(_ context.Context, subjectID, clubID string) (token.Role, bool, error) {
			if f.roleErr != nil {
				return "", false, f.roleErr
			}
			role, ok := f.roles[subjectID+"/"+clubID]
			return role, ok, nil
		},
		FetchClubActive: func(_ context.Context, clubID string) (bool, error) {
			if f.clubErr != nil {
				return false, f.clubErr
			}
			active, ok := f.clubs[clubID]
			if !ok {
				return false, errMissing
			}
			return active, nil
		},
		IsNotFound: func(err error) bool { return errors.Is(err, errMissing) },
	}
}

func TestRecheckActiveSubjectWithoutClub(t *testing.T) {
	f := &recheckFixture{subjects: map[string]SubjectState{"p1": {Active: true}}}

	res := RunRecheck(context.Background(), f.deps(), "p1", "", token.RoleAdmin)
	if res.Outcome != RecheckStillValid {
		t.Fatalf("outcome = %v, want still valid", res.Outcome)
	}
}

func TestRecheckSubjectGone(t *testing.T) {
	f := &recheckFixture{subjects: map[string]SubjectState{}}

	res := RunRecheck(context.Background(), f.deps(), "p1", "", token.RoleAdmin)
	if res.Outcome != RecheckRevoked || res.Reason != "subject_not_found" {
		t.Fatalf("got %+v, want revoked subject_not_found", res)
	}
}

func TestRecheckSubjectInactive(t *testing.T) {
	f := &recheckFixture{subjects: map[string]SubjectState{"p1": {Active: false}}}

	res := RunRecheck(context.Background(), f.deps(), "p1", "", token.RoleAdmin)
	if res.Outcome != RecheckRevoked || res.Reason != "subject_inactive" {
		t.Fatalf("got %+v, want revoked subject_inactive", res)
	}
}

func TestRecheckRoleDowngraded(t *testing.T) {
	f := &recheckFixture{
		subjects: map[string]SubjectState{"p1": {Active: true}},
		roles:    map[string]token.Role{"p1/c1": token.RoleMember},
		clubs:    map[string]bool{"c1": true},
	}

	res := RunRecheck(context.Background(), f.deps(), "p1", "c1", token.RoleAdmin)
	if res.Outcome != RecheckRevoked || res.Reason != "role_changed" {
		t.Fatalf("got %+v, want revoked role_changed", res)
	}
}

func TestRecheckMembershipRemoved(t *testing.T) {
	f := &recheckFixture{
		subjects: map[string]SubjectState{"p1": {Active: true}},
		roles:    map[string]token.Role{},
		clubs:    map[string]bool{"c1": true},
	}

	res := RunRecheck(context.Background(), f.deps(), "p1", "c1", token.RoleAdmin)
	if res.Outcome != RecheckRevoked || res.Reason != "membership_removed" {
		t.Fatalf("got %+v, want revoked membership_removed", res)
	}
}

func TestRecheckClubInactive(t *testing.T) {
	f := &recheckFixture{
		subjects: map[string]SubjectState{"p1": {Active: true}},
		roles:    map[string]token.Role{"p1/c1": token.RoleAdmin},
		clubs:    map[string]bool{"c1": false},
	}

	res := RunRecheck(context.Background(), f.deps(), "p1", "c1", token.RoleAdmin)
	if res.Outcome != RecheckRevoked || res.Reason != "club_inactive" {
		t.Fatalf("got %+v, want revoked club_inactive", res)
	}
}

func TestRecheckClubGone(t *testing.T) {
	f := &recheckFixture{
		subjects: map[string]SubjectState{"p1": {Active: true}},
		roles:    map[string]token.Role{"p1/c1": token.RoleAdmin},
		clubs:    map[string]bool{},
	}

	res := RunRecheck(context.Background(), f.deps(), "p1", "c1", token.RoleAdmin)
	if res.Outcome != RecheckRevoked || res.Reason != "club_not_found" {
		t.Fatalf("got %+v, want revoked club_not_found", res)
	}
}

func TestRecheckSystemAdminSkipsRoleScan(t *testing.T) {
	f := &recheckFixture{
		subjects: map[string]SubjectState{"p1": {Active: true, SystemAdmin: true}},
		roles:    map[string]token.Role{}, // no membership row
		clubs:    map[string]bool{"c1": true},
	}

	res := RunRecheck(context.Background(), f.deps(), "p1", "c1", token.RoleAdmin)
	if res.Outcome != RecheckStillValid {
		t.Fatalf("got %+v, want still valid", res)
	}
}

func TestRecheckStoreFailureIsNotRevocation(t *testing.T) {
	f := &recheckFixture{subErr: errTimeout}

	res := RunRecheck(context.Background(), f.deps(), "p1", "", token.RoleAdmin)
	if res.Outcome != RecheckStoreFailed {
		t.Fatalf("got %+v, want store failed", res)
	}
	if !errors.Is(res.Err, errTimeout) {
		t.Fatalf("err = %v, want wrapped timeout", res.Err)
	}
}
