package clubauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/flightclubhq/clubauth/password"
	"github.com/flightclubhq/clubauth/token"
)

const testPassword = "correct-horse-battery"

// mockProvider is a map-backed MembershipProvider with failure injection
// and call counting.
type mockProvider struct {
	mu          sync.Mutex
	subjects    map[string]SubjectRecord
	byIdent     map[string]string
	clubs       map[string]ClubRecord
	memberships map[string][]ClubMembership

	failWith error
	calls    int
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		subjects:    map[string]SubjectRecord{},
		byIdent:     map[string]string{},
		clubs:       map[string]ClubRecord{},
		memberships: map[string][]ClubMembership{},
	}
}

func (p *mockProvider) putSubject(rec SubjectRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects[rec.SubjectID] = rec
	if rec.Identifier != "" {
		p.byIdent[rec.Identifier] = rec.SubjectID
	}
}

func (p *mockProvider) putClub(rec ClubRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clubs[rec.ClubID] = rec
}

func (p *mockProvider) setMemberships(subjectID string, ms ...ClubMembership) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.memberships[subjectID] = ms
}

func (p *mockProvider) failAll(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = err
}

func (p *mockProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *mockProvider) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.failWith
}

func (p *mockProvider) GetSubjectByID(_ context.Context, subjectID string) (SubjectRecord, error) {
	if err := p.begin(); err != nil {
		return SubjectRecord{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.subjects[subjectID]
	if !ok {
		return SubjectRecord{}, ErrSubjectNotFound
	}
	return rec, nil
}

func (p *mockProvider) GetSubjectByIdentifier(_ context.Context, identifier string) (SubjectRecord, error) {
	if err := p.begin(); err != nil {
		return SubjectRecord{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.byIdent[identifier]
	if !ok {
		return SubjectRecord{}, ErrSubjectNotFound
	}
	return p.subjects[id], nil
}

func (p *mockProvider) GetMemberships(_ context.Context, subjectID string) ([]ClubMembership, error) {
	if err := p.begin(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ClubMembership(nil), p.memberships[subjectID]...), nil
}

func (p *mockProvider) GetClubByID(_ context.Context, clubID string) (ClubRecord, error) {
	if err := p.begin(); err != nil {
		return ClubRecord{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.clubs[clubID]
	if !ok {
		return ClubRecord{}, ErrClubNotFound
	}
	return rec, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Token.AccessTTL = 15 * time.Minute
	cfg.Token.RefreshTTL = 24 * time.Hour
	// Low argon2 costs keep the suite fast.
	cfg.Password = PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	cfg.Metrics.Enabled = true
	return cfg
}

func testHash(t *testing.T) string {
	t.Helper()

	h, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("argon2 init: %v", err)
	}
	hash, err := h.Hash(testPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return hash
}

// seedProvider populates the canonical fixture: pilot-1 administers club-1
// and is a plain member of club-2; admin-1 is a system admin with no
// memberships.
func seedProvider(t *testing.T) *mockProvider {
	t.Helper()

	provider := newMockProvider()
	hash := testHash(t)

	provider.putSubject(SubjectRecord{
		SubjectID:    "pilot-1",
		Identifier:   "alice@example.com",
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: hash,
		Status:       SubjectActive,
	})
	provider.putSubject(SubjectRecord{
		SubjectID:     "admin-1",
		Identifier:    "root@example.com",
		Email:         "root@example.com",
		Name:          "Root",
		PasswordHash:  hash,
		Status:        SubjectActive,
		IsSystemAdmin: true,
	})
	provider.putClub(ClubRecord{ClubID: "club-1", Name: "Hilltop", Status: ClubActive})
	provider.putClub(ClubRecord{ClubID: "club-2", Name: "Valley", Status: ClubActive})
	provider.setMemberships("pilot-1",
		ClubMembership{ClubID: "club-1", ClubName: "Hilltop", Role: token.RoleAdmin},
		ClubMembership{ClubID: "club-2", ClubName: "Valley", Role: token.RoleMember},
	)

	return provider
}

func newTestEngine(t *testing.T, cfg Config, provider *mockProvider) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(cfg).
		WithMembershipProvider(provider).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func newThrottledEngine(t *testing.T, cfg Config, provider *mockProvider) (*Engine, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	engine, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithMembershipProvider(provider).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, mr
}
