package clubauth

import (
	"context"
	"time"

	"github.com/flightclubhq/clubauth/token"
)

// Login authenticates an identifier/password pair and mints a pilot session
// pair. Failed lookups and failed password checks return the same
// [ErrInvalidCredentials]; only a store failure is distinguishable.
func (e *Engine) Login(ctx context.Context, identifier, plaintext string) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}
	if e.passwordHash == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	subject, err := e.getSubjectByIdentifier(ctx, identifier)
	if err != nil {
		if isNotFound(err) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", "", FlavorPilot, ErrInvalidCredentials, func() map[string]string {
				return map[string]string{"identifier": identifier}
			})
			return TokenPair{}, ErrInvalidCredentials
		}
		e.metricInc(MetricStoreUnavailable)
		return TokenPair{}, err
	}

	ok, err := e.passwordHash.Verify(plaintext, subject.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, subject.SubjectID, "", FlavorPilot, ErrInvalidCredentials, nil)
		return TokenPair{}, ErrInvalidCredentials
	}

	if subject.Status != SubjectActive {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, subject.SubjectID, "", FlavorPilot, ErrAccessRevoked, func() map[string]string {
			return map[string]string{"reason": "subject_inactive"}
		})
		return TokenPair{}, ErrAccessRevoked
	}

	pair, err := e.issuePilot(ctx, subject)
	if err != nil {
		return TokenPair{}, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, subject.SubjectID, "", FlavorPilot, nil, nil)

	return pair, nil
}

// IssuePilotSession mints a pilot pair for an already-authenticated subject.
// Callers that authenticate out of band (SSO, service accounts) use this
// instead of [Engine.Login].
func (e *Engine) IssuePilotSession(ctx context.Context, subjectID string) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}

	subject, err := e.getSubjectByID(ctx, subjectID)
	if err != nil {
		if !isNotFound(err) {
			e.metricInc(MetricStoreUnavailable)
		}
		return TokenPair{}, err
	}
	if subject.Status != SubjectActive {
		return TokenPair{}, ErrAccessRevoked
	}

	return e.issuePilot(ctx, subject)
}

// IssueClubAdminSession mints a club-scoped admin pair. The subject must
// hold the ADMIN role for clubID right now, or be a system admin; the club
// must exist and be active. The resulting credentials carry an admin context
// and a single ADMIN membership for that club only.
func (e *Engine) IssueClubAdminSession(ctx context.Context, subjectID, clubID string) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}

	subject, err := e.getSubjectByID(ctx, subjectID)
	if err != nil {
		if !isNotFound(err) {
			e.metricInc(MetricStoreUnavailable)
		}
		return TokenPair{}, err
	}
	if subject.Status != SubjectActive {
		return TokenPair{}, ErrAccessRevoked
	}

	if !subject.IsSystemAdmin {
		memberships, err := e.getMemberships(ctx, subjectID)
		if err != nil {
			e.metricInc(MetricStoreUnavailable)
			return TokenPair{}, err
		}
		if !holdsAdminRole(memberships, clubID) {
			e.emitAudit(ctx, auditEventClubAdminRejected, false, subjectID, clubID, FlavorClubAdmin, ErrInsufficientRole, nil)
			return TokenPair{}, ErrInsufficientRole
		}
	}

	club, err := e.getClubByID(ctx, clubID)
	if err != nil {
		if !isNotFound(err) {
			e.metricInc(MetricStoreUnavailable)
		}
		return TokenPair{}, err
	}
	if club.Status != ClubActive {
		e.emitAudit(ctx, auditEventClubAdminRejected, false, subjectID, clubID, FlavorClubAdmin, ErrInsufficientRole, func() map[string]string {
			return map[string]string{"reason": "club_inactive"}
		})
		return TokenPair{}, ErrInsufficientRole
	}

	claims := clubAdminClaims(subject, club)
	pair, err := e.tokens.IssuePair(claims, time.Now())
	if err != nil {
		return TokenPair{}, err
	}

	e.metricInc(MetricClubAdminSessionIssued)
	e.emitAudit(ctx, auditEventClubAdminEntered, true, subjectID, clubID, FlavorClubAdmin, nil, nil)

	return pair, nil
}

func (e *Engine) issuePilot(ctx context.Context, subject SubjectRecord) (TokenPair, error) {
	claims, err := e.pilotClaims(ctx, subject)
	if err != nil {
		e.metricInc(MetricStoreUnavailable)
		return TokenPair{}, err
	}

	pair, err := e.tokens.IssuePair(claims, time.Now())
	if err != nil {
		return TokenPair{}, err
	}

	e.metricInc(MetricSessionIssued)
	e.emitAudit(ctx, auditEventSessionIssued, true, subject.SubjectID, "", FlavorPilot, nil, nil)

	return pair, nil
}

// pilotClaims snapshots the subject's full current membership list into a
// claim set. The snapshot is what makes later verification store-free.
func (e *Engine) pilotClaims(ctx context.Context, subject SubjectRecord) (token.ClaimSet, error) {
	memberships, err := e.getMemberships(ctx, subject.SubjectID)
	if err != nil {
		return token.ClaimSet{}, err
	}

	claims := token.ClaimSet{
		SubjectID:     subject.SubjectID,
		Email:         subject.Email,
		IsSystemAdmin: subject.IsSystemAdmin,
	}
	for _, m := range memberships {
		claims.Memberships = append(claims.Memberships, token.Membership{
			ClubID:   m.ClubID,
			ClubName: m.ClubName,
			Role:     m.Role,
		})
	}

	return claims, nil
}

// clubAdminClaims narrows the claim set to one club: an admin context plus a
// singleton ADMIN membership. Other memberships the subject holds are
// deliberately absent from the scoped session.
func clubAdminClaims(subject SubjectRecord, club ClubRecord) token.ClaimSet {
	return token.ClaimSet{
		SubjectID:     subject.SubjectID,
		Email:         subject.Email,
		IsSystemAdmin: subject.IsSystemAdmin,
		Memberships: []token.Membership{{
			ClubID:   club.ClubID,
			ClubName: club.Name,
			Role:     token.RoleAdmin,
		}},
		AdminContext: &token.AdminContext{
			ClubID:      club.ClubID,
			ClubName:    club.Name,
			SubjectID:   subject.SubjectID,
			SubjectName: subject.Name,
			SessionType: token.SessionTypeClubAdmin,
		},
	}
}

func holdsAdminRole(memberships []ClubMembership, clubID string) bool {
	for _, m := range memberships {
		if m.ClubID == clubID && m.Role == token.RoleAdmin {
			return true
		}
	}
	return false
}
