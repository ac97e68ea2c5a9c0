package clubauth

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/flightclubhq/clubauth/internal/rate"
	"github.com/flightclubhq/clubauth/internal/resolve"
	"github.com/flightclubhq/clubauth/password"
	"github.com/flightclubhq/clubauth/token"
)

// Builder assembles an [Engine]. Configure it during initialization, call
// Build once, and discard it.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	provider  MembershipProvider
	resolver  ResourceResolver
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis attaches a Redis client. Required when the refresh throttle is
// enabled; otherwise optional, in which case the resource resolution cache
// degrades to direct store lookups.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithMembershipProvider attaches the membership store, the single source
// of truth for accounts, clubs, and roles.
func (b *Builder) WithMembershipProvider(p MembershipProvider) *Builder {
	b.provider = p
	return b
}

// WithResourceResolver attaches the resource-to-club resolver used by
// resource-level authorization. Optional; without it AuthorizeResource
// returns [ErrEngineNotReady].
func (b *Builder) WithResourceResolver(r ResourceResolver) *Builder {
	b.resolver = r
	return b
}

// WithAuditSink attaches the sink that receives audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process metrics system.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the verification latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wiring and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.provider == nil {
		return nil, errors.New("membership provider required")
	}

	if b.redis == nil && cfg.Security.EnableRefreshThrottle {
		return nil, errors.New("refresh throttle requires redis client")
	}

	tm, err := token.NewManager(token.Config{
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
		SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
		Issuer:        cfg.Token.Issuer,
	})
	if err != nil {
		return nil, err
	}

	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		tokens:       tm,
		provider:     b.provider,
		passwordHash: ph,
	}

	engine.rateLimiter = rate.New(b.redis, rate.Config{
		EnableRefreshThrottle: cfg.Security.EnableRefreshThrottle,
		MaxRefreshAttempts:    cfg.Security.MaxRefreshAttempts,
		RefreshCooldown:       cfg.Security.RefreshCooldown,
	})

	if b.resolver != nil {
		engine.resolver = resolve.New(b.redis, cfg.Security.ResolveCacheTTL,
			resolve.Func(b.resolver.OwningClub))
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
