package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the credential signature algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with a process-wide symmetric secret (default).
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an ed25519 key pair.
	MethodEd25519 SigningMethod = "ed25519"
)

var (
	// ErrMalformed is returned for structurally invalid credentials:
	// undecodable input, missing required claims, or wrong claim types.
	ErrMalformed = errors.New("malformed credential")
	// ErrBadSignature is returned when the signature does not verify.
	ErrBadSignature = errors.New("invalid credential signature")
	// ErrExpired is returned when now is strictly after the expiry instant.
	ErrExpired = errors.New("credential expired")
	// ErrWrongKind is returned when a refresh credential is presented where
	// an access credential is expected, or vice versa.
	ErrWrongKind = errors.New("wrong credential kind")
)

// Config holds the immutable signing configuration. It is validated once by
// NewManager and never mutated afterwards.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte // HS256 secret or ed25519 private key
	PublicKey     []byte // ed25519 only
	Issuer        string
}

// Manager encodes, issues, and verifies credentials. Safe for concurrent use.
type Manager struct {
	config Config
}

// Pair is a freshly minted access/refresh credential pair. A pair is
// immutable once issued; rotation always produces a brand-new Pair.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

type wireClaims struct {
	Email         string        `json:"email,omitempty"`
	IsSystemAdmin bool          `json:"sys,omitempty"`
	Memberships   []Membership  `json:"memberships,omitempty"`
	AdminContext  *AdminContext `json:"admin_ctx,omitempty"`
	Kind          Kind          `json:"knd"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, errors.New("refresh TTL must exceed access TTL")
	}
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodHS256
	}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) < 32 {
			return nil, errors.New("hs256 requires a secret of at least 32 bytes")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}

	return &Manager{config: cfg}, nil
}

// IssuePair mints an access/refresh pair carrying claims, with lifetimes
// anchored at now. Pure given now: no store access, no randomness. Callers
// must have already established that the claims are correct.
func (m *Manager) IssuePair(claims ClaimSet, now time.Time) (Pair, error) {
	access, err := m.encode(claims, KindAccess, now, m.config.AccessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.encode(claims, KindRefresh, now, m.config.RefreshTTL)
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresIn:  m.config.AccessTTL,
		RefreshExpiresIn: m.config.RefreshTTL,
	}, nil
}

// Verify checks signature, structure, kind, and expiry of a presented
// credential against now, returning the embedded claim set or a typed
// failure. Deterministic and side-effect-free.
func (m *Manager) Verify(credential string, kind Kind, now time.Time) (*ClaimSet, error) {
	if credential == "" {
		return nil, ErrMalformed
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.ParseWithClaims(credential, &wireClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.verifyKey()
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrBadSignature
		}
		return nil, ErrMalformed
	}

	wc, ok := parsed.Claims.(*wireClaims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if wc.Subject == "" || wc.ExpiresAt == nil {
		return nil, ErrMalformed
	}
	if m.config.Issuer != "" && wc.Issuer != m.config.Issuer {
		return nil, ErrMalformed
	}
	switch wc.Kind {
	case KindAccess, KindRefresh:
	default:
		return nil, ErrMalformed
	}
	if ac := wc.AdminContext; ac != nil {
		if ac.ClubID == "" || ac.SubjectID == "" || ac.SessionType == "" {
			return nil, ErrMalformed
		}
	}
	for _, mem := range wc.Memberships {
		if mem.ClubID == "" || (mem.Role != RoleMember && mem.Role != RoleAdmin) {
			return nil, ErrMalformed
		}
	}
	if wc.Kind != kind {
		return nil, ErrWrongKind
	}
	// Boundary: a credential is valid at exactly its expiry instant.
	if now.After(wc.ExpiresAt.Time) {
		return nil, ErrExpired
	}

	return &ClaimSet{
		SubjectID:     wc.Subject,
		Email:         wc.Email,
		IsSystemAdmin: wc.IsSystemAdmin,
		Memberships:   wc.Memberships,
		AdminContext:  wc.AdminContext,
	}, nil
}

// ExpiresAt returns the expiry instant embedded in a credential without
// verifying its signature. Transport code uses it to derive cookie maxAge;
// it must never gate authorization.
func (m *Manager) ExpiresAt(credential string) (time.Time, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	wc := &wireClaims{}
	if _, _, err := parser.ParseUnverified(credential, wc); err != nil {
		return time.Time{}, ErrMalformed
	}
	if wc.ExpiresAt == nil {
		return time.Time{}, ErrMalformed
	}
	return wc.ExpiresAt.Time, nil
}

func (m *Manager) encode(claims ClaimSet, kind Kind, now time.Time, ttl time.Duration) (string, error) {
	if claims.SubjectID == "" {
		return "", errors.New("claim set missing subject id")
	}

	wc := wireClaims{
		Email:         claims.Email,
		IsSystemAdmin: claims.IsSystemAdmin,
		Memberships:   claims.Memberships,
		AdminContext:  claims.AdminContext,
		Kind:          kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.SubjectID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}

	signKey, err := m.signKey()
	if err != nil {
		return "", err
	}

	return jwt.NewWithClaims(m.method(), wc).SignedString(signKey)
}

func (m *Manager) method() jwt.SigningMethod {
	switch m.config.SigningMethod {
	case MethodEd25519:
		return jwt.SigningMethodEdDSA
	default:
		return jwt.SigningMethodHS256
	}
}

func (m *Manager) signKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodEd25519:
		return parseEdPrivateKey(m.config.PrivateKey)
	default:
		return m.config.PrivateKey, nil
	}
}

func (m *Manager) verifyKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodEd25519:
		return parseEdPublicKey(m.config.PublicKey)
	default:
		return m.config.PrivateKey, nil
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
