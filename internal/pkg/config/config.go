// Package config assembles the runtime settings record from environment
// variables.
//
// Settings are built in two steps: Load resolves the base layer, where every
// value comes from its own variable with an explicit default, and a settings
// layer (Development or Production) returns a modified copy. Assemble runs
// both steps, picking the layer from ENV.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// InsecureSecretKey is the placeholder SECRET_KEY default. Production refuses
// to start with it.
const InsecureSecretKey = "change-me-in-production"

// ErrImproperlyConfigured is returned when a settings layer rejects the
// assembled configuration. It is fatal at process start.
var ErrImproperlyConfigured = errors.New("improperly configured")

// Layer names a settings override set.
type Layer string

const (
	LayerBase        Layer = "base"
	LayerDevelopment Layer = "development"
	LayerProduction  Layer = "production"
)

// ParseLayer maps the ENV value to a Layer.
func ParseLayer(s string) (Layer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "development", "dev", "local":
		return LayerDevelopment, nil
	case "production", "prod":
		return LayerProduction, nil
	default:
		return "", fmt.Errorf("%w: unknown ENV %q (want development or production)", ErrImproperlyConfigured, s)
	}
}

// environment is the raw view of every variable the settings read.
type environment struct {
	Env       string `env:"ENV,        default=development"`
	Port      string `env:"PORT,       default=8080"`
	SecretKey string `env:"SECRET_KEY, default=change-me-in-production"`
	Debug     Flag   `env:"DEBUG,      default=0"`
	Hosts     List   `env:"ALLOWED_HOSTS, default=*"`
	TimeZone  string `env:"TZ,         default=UTC"`

	DatabaseURL string `env:"DATABASE_URL,          default=postgres://postgres:postgres@db:5432/app_db"`
	ConnMaxAge  int    `env:"DATABASE_CONN_MAX_AGE, default=600"`
	RedisURL    string `env:"REDIS_URL,             default=redis://redis:6379/0"`
	BrokerURL   string `env:"CELERY_BROKER_URL,     default=redis://redis:6379/1"`

	CORSOrigins List `env:"CORS_ALLOWED_ORIGINS"`
	CSRFOrigins List `env:"CSRF_TRUSTED_ORIGINS"`

	LogLevel          string `env:"LOG_LEVEL,        default=INFO"`
	FrameworkLogLevel string `env:"DJANGO_LOG_LEVEL, default=INFO"`

	SSLRedirect Flag `env:"SECURE_SSL_REDIRECT, default=1"`

	EmailBackend      string `env:"EMAIL_BACKEND,       default=smtp"`
	EmailHost         string `env:"EMAIL_HOST"`
	EmailPort         int    `env:"EMAIL_PORT,          default=587"`
	EmailUseTLS       Flag   `env:"EMAIL_USE_TLS,       default=1"`
	EmailHostUser     string `env:"EMAIL_HOST_USER"`
	EmailHostPassword string `env:"EMAIL_HOST_PASSWORD"`
	DefaultFromEmail  string `env:"DEFAULT_FROM_EMAIL,  default=noreply@example.com"`

	SentryDSN        string  `env:"SENTRY_DSN"`
	SentrySampleRate float64 `env:"SENTRY_TRACES_SAMPLE_RATE, default=0.1"`
	SentrySendPII    Flag    `env:"SENTRY_SEND_DEFAULT_PII,   default=0"`

	StaticURL  string `env:"STATIC_URL,  default=/static/"`
	StaticRoot string `env:"STATIC_ROOT, default=staticfiles"`
	MediaURL   string `env:"MEDIA_URL,   default=/media/"`
	MediaRoot  string `env:"MEDIA_ROOT,  default=mediafiles"`

	SessionCookieAge int `env:"SESSION_COOKIE_AGE, default=1209600"`
	PageSize         int `env:"PAGE_SIZE,          default=20"`
}

// Settings is the configuration record handed to every runtime component.
// It is built once at startup and passed by reference.
type Settings struct {
	Layer        Layer
	Env          string
	Port         string `validate:"required,numeric"`
	SecretKey    string
	Debug        bool
	AllowedHosts List
	TimeZone     string
	Location     *time.Location `validate:"-"`
	LanguageCode string

	Database DatabaseSettings
	Cache    CacheSettings
	Celery   CelerySettings
	CORS     CORSSettings
	CSRF     CSRFSettings
	Logging  LoggingSettings
	Security SecuritySettings
	Email    EmailSettings
	Sentry   SentrySettings
	Static   StaticSettings
	Session  SessionSettings
	API      APISettings

	env environment
}

type DatabaseSettings struct {
	URL        string        `validate:"required"`
	ConnMaxAge time.Duration `validate:"gte=0"`
}

type CacheSettings struct {
	URL string `validate:"required"`
}

type CelerySettings struct {
	BrokerURL      string `validate:"required"`
	ResultBackend  string
	AcceptContent  []string
	TaskSerializer string
	Timezone       string
}

type CORSSettings struct {
	AllowedOrigins List
	AllowAll       bool
}

type CSRFSettings struct {
	TrustedOrigins List
	CookieSecure   bool
}

// LoggingSettings holds the root and framework logger levels.
type LoggingSettings struct {
	Level          string `validate:"oneof=trace debug info warn warning error critical"`
	FrameworkLevel string `validate:"oneof=trace debug info warn warning error critical"`
	Pretty         bool
}

// SecuritySettings mirrors the transport hardening switches.
type SecuritySettings struct {
	SSLRedirect           bool
	ProxySSLHeader        string
	ProxySSLValue         string
	HSTSSeconds           int `validate:"gte=0"`
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentTypeNosniff    bool
	XFrameOptions         string
}

const (
	EmailBackendSMTP    = "smtp"
	EmailBackendConsole = "console"
)

type EmailSettings struct {
	Backend      string
	Host         string
	Port         int `validate:"min=1,max=65535"`
	UseTLS       bool
	HostUser     string
	HostPassword string
	DefaultFrom  string
}

// SentrySettings configures error telemetry. Enabled is only ever set by
// the production layer.
type SentrySettings struct {
	DSN              string
	TracesSampleRate float64 `validate:"gte=0,lte=1"`
	SendDefaultPII   bool
	Enabled          bool
}

const (
	StaticStorageManifest = "manifest"
	StaticStorageSimple   = "simple"
)

type StaticSettings struct {
	URL       string `validate:"required,startswith=/"`
	Root      string
	Storage   string `validate:"oneof=manifest simple"`
	MediaURL  string `validate:"required,startswith=/"`
	MediaRoot string
}

type SessionSettings struct {
	CookieName   string
	CookieAge    time.Duration `validate:"gt=0"`
	CookieSecure bool
}

// APISettings holds defaults shared by the JSON endpoints.
type APISettings struct {
	PageSize int `validate:"min=1,max=1000"`
}

// FromEnv loads the base layer from the process environment.
func FromEnv(ctx context.Context) (*Settings, error) {
	return Load(ctx, envconfig.OsLookuper())
}

// Load resolves the base layer from the given variable mapping.
func Load(ctx context.Context, l envconfig.Lookuper) (*Settings, error) {
	var env environment
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}

	s, err := base(env)
	if err != nil {
		return nil, err
	}
	if err := validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Assemble loads the base layer and applies the layer selected by ENV.
func Assemble(ctx context.Context, l envconfig.Lookuper) (*Settings, error) {
	s, err := Load(ctx, l)
	if err != nil {
		return nil, err
	}
	layer, err := ParseLayer(s.Env)
	if err != nil {
		return nil, err
	}
	out, err := s.Apply(layer)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func base(env environment) (*Settings, error) {
	loc, err := time.LoadLocation(env.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: TZ %q: %v", ErrImproperlyConfigured, env.TimeZone, err)
	}

	return &Settings{
		Layer:        LayerBase,
		Env:          env.Env,
		Port:         env.Port,
		SecretKey:    env.SecretKey,
		Debug:        bool(env.Debug),
		AllowedHosts: env.Hosts.clone(),
		TimeZone:     env.TimeZone,
		Location:     loc,
		LanguageCode: "en-us",
		Database: DatabaseSettings{
			URL:        env.DatabaseURL,
			ConnMaxAge: time.Duration(env.ConnMaxAge) * time.Second,
		},
		Cache: CacheSettings{URL: env.RedisURL},
		Celery: CelerySettings{
			BrokerURL:      env.BrokerURL,
			ResultBackend:  "database",
			AcceptContent:  []string{"json"},
			TaskSerializer: "json",
			Timezone:       env.TimeZone,
		},
		CORS: CORSSettings{
			AllowedOrigins: env.CORSOrigins.clone(),
			AllowAll:       len(env.CORSOrigins) == 0,
		},
		CSRF: CSRFSettings{TrustedOrigins: env.CSRFOrigins.clone()},
		Logging: LoggingSettings{
			Level:          strings.ToLower(strings.TrimSpace(env.LogLevel)),
			FrameworkLevel: strings.ToLower(strings.TrimSpace(env.FrameworkLogLevel)),
		},
		Security: SecuritySettings{XFrameOptions: "DENY"},
		Email: EmailSettings{
			Backend:     EmailBackendSMTP,
			Host:        "localhost",
			Port:        25,
			DefaultFrom: "webmaster@localhost",
		},
		Sentry: SentrySettings{
			DSN:              env.SentryDSN,
			TracesSampleRate: env.SentrySampleRate,
			SendDefaultPII:   bool(env.SentrySendPII),
		},
		Static: StaticSettings{
			URL:       env.StaticURL,
			Root:      env.StaticRoot,
			Storage:   StaticStorageManifest,
			MediaURL:  env.MediaURL,
			MediaRoot: env.MediaRoot,
		},
		Session: SessionSettings{
			CookieName: "sessionid",
			CookieAge:  time.Duration(env.SessionCookieAge) * time.Second,
		},
		API: APISettings{PageSize: env.PageSize},
		env: env,
	}, nil
}

// Addr returns the HTTP listen address.
func (s *Settings) Addr() string {
	return ":" + s.Port
}

// IsProduction reports whether the production layer produced s.
func (s *Settings) IsProduction() bool {
	return s.Layer == LayerProduction
}
