package authcore

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/workhive/authcore/password"
	"github.com/workhive/authcore/registry"
	"github.com/workhive/authcore/token"
)

// Builder assembles an Engine from configuration and external
// collaborators. A Builder is single-use; Build fails on reuse.
type Builder struct {
	config Config
	redis  *redis.Client

	userStore UserStore
	mailer    Mailer
	notifier  Notifier

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale. The config is
// cloned; later mutations of cfg do not leak into the engine.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the refresh-token registry.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the persistence adapter for user records.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.userStore = store
	return b
}

// WithMailer sets the outbound email adapter.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithNotifier sets the optional in-app notification sink. A nil notifier
// disables dispatch; flows are unaffected.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithMetricsEnabled toggles in-process flow counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the internal components and
// returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userStore == nil {
		return nil, errors.New("user store required")
	}

	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}

	engine := &Engine{
		config: cfg,
		users:  b.userStore,
		mailer: b.mailer,
	}

	engine.refreshTokens = registry.New(b.redis, cfg.Registry.Prefix)
	engine.notify = newNotifyDispatcher(cfg.Notify, b.notifier)
	engine.metrics = NewMetrics(cfg.Metrics)

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
	engine.hasher = ph

	tm, err := token.NewManager(token.Config{
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
		AccessSecret:  cloneBytes(cfg.Token.AccessSecret),
		RefreshSecret: cloneBytes(cfg.Token.RefreshSecret),
		Issuer:        cfg.Token.Issuer,
	})
	if err != nil {
		return nil, err
	}
	engine.tokens = tm

	b.built = true

	return engine, nil
}
