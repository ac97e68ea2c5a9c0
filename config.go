package clubauth

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config is the process-wide configuration: loaded once at startup,
// validated by [Builder.Build], and never mutated afterwards. The signing
// secret and lifetimes are injected into the token manager as constructor
// dependencies, not read through globals.
type Config struct {
	Token    TokenConfig
	Cookie   CookieConfig
	Security SecurityConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig holds credential lifetimes and signing material.
// AccessTTL must be much shorter than RefreshTTL: the access lifetime is
// the bounded staleness window traded for store-free verification.
type TokenConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default), "ed25519" optional
	PrivateKey    []byte // hs256 secret or ed25519 private key
	PublicKey     []byte // ed25519 only
	Issuer        string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig controls the transport-level cookie attributes applied by
// package middleware. The core never reads cookies itself.
type CookieConfig struct {
	Secure bool
	Domain string
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig tunes the refresh throttle and the bounded timeout applied
// to every membership store and resource resolution call.
type SecurityConfig struct {
	EnableRefreshThrottle bool
	MaxRefreshAttempts    int
	RefreshCooldown       time.Duration

	// StoreTimeout bounds each membership store lookup. The auth gate sits
	// on every request; a hung store must surface as a typed failure, not
	// a stalled handler.
	StoreTimeout time.Duration

	// ResolveCacheTTL bounds how long a resource→club mapping may be served
	// from cache. Zero disables caching.
	ResolveCacheTTL time.Duration
}

// PasswordConfig carries the cost parameters of the one-way hash primitive.
// The algorithm itself is not configurable.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration embedders start from.
// The signing material must still be supplied before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    30 * 24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "clubauth",
		},
		Cookie: CookieConfig{
			Secure: true,
		},
		Security: SecurityConfig{
			EnableRefreshThrottle: false,
			MaxRefreshAttempts:    30,
			RefreshCooldown:       time.Minute,
			StoreTimeout:          2 * time.Second,
			ResolveCacheTTL:       5 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

// Validate rejects configurations the engine cannot run safely with.
func (c Config) Validate() error {
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	if c.Security.StoreTimeout <= 0 {
		return errors.New("store timeout must be positive")
	}
	if c.Security.EnableRefreshThrottle {
		if c.Security.MaxRefreshAttempts <= 0 {
			return errors.New("refresh throttle requires MaxRefreshAttempts > 0")
		}
		if c.Security.RefreshCooldown <= 0 {
			return errors.New("refresh throttle requires RefreshCooldown > 0")
		}
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

type envConfig struct {
	AccessTTL       time.Duration `env:"CLUBAUTH_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL      time.Duration `env:"CLUBAUTH_REFRESH_TTL" envDefault:"720h"`
	SigningMethod   string        `env:"CLUBAUTH_SIGNING_METHOD" envDefault:"hs256"`
	SigningSecret   string        `env:"CLUBAUTH_SIGNING_SECRET"`
	Issuer          string        `env:"CLUBAUTH_ISSUER" envDefault:"clubauth"`
	CookieSecure    bool          `env:"CLUBAUTH_COOKIE_SECURE" envDefault:"true"`
	CookieDomain    string        `env:"CLUBAUTH_COOKIE_DOMAIN"`
	StoreTimeout    time.Duration `env:"CLUBAUTH_STORE_TIMEOUT" envDefault:"2s"`
	RefreshThrottle bool          `env:"CLUBAUTH_REFRESH_THROTTLE" envDefault:"false"`
	AuditEnabled    bool          `env:"CLUBAUTH_AUDIT_ENABLED" envDefault:"false"`
	MetricsEnabled  bool          `env:"CLUBAUTH_METRICS_ENABLED" envDefault:"false"`
}

// ConfigFromEnv builds a Config from CLUBAUTH_* environment variables on
// top of the defaults. The signing secret is required; everything else has
// a default.
func ConfigFromEnv() (Config, error) {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return Config{}, err
	}
	if e.SigningSecret == "" {
		return Config{}, errors.New("CLUBAUTH_SIGNING_SECRET is required")
	}

	cfg := defaultConfig()
	cfg.Token.AccessTTL = e.AccessTTL
	cfg.Token.RefreshTTL = e.RefreshTTL
	cfg.Token.SigningMethod = e.SigningMethod
	cfg.Token.PrivateKey = []byte(e.SigningSecret)
	cfg.Token.Issuer = e.Issuer
	cfg.Cookie.Secure = e.CookieSecure
	cfg.Cookie.Domain = e.CookieDomain
	cfg.Security.StoreTimeout = e.StoreTimeout
	cfg.Security.EnableRefreshThrottle = e.RefreshThrottle
	cfg.Audit.Enabled = e.AuditEnabled
	cfg.Metrics.Enabled = e.MetricsEnabled

	return cfg, cfg.Validate()
}
