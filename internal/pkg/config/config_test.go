package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, env map[string]string) *Settings {
	t.Helper()
	s, err := Load(context.Background(), envconfig.MapLookuper(env))
	require.NoError(t, err)
	return s
}

func TestLoad_Defaults(t *testing.T) {
	s := load(t, map[string]string{})

	assert.Equal(t, LayerBase, s.Layer)
	assert.Equal(t, "8080", s.Port)
	assert.Equal(t, InsecureSecretKey, s.SecretKey)
	assert.False(t, s.Debug)
	assert.Equal(t, List{"*"}, s.AllowedHosts)
	assert.Equal(t, "postgres://postgres:postgres@db:5432/app_db", s.Database.URL)
	assert.Equal(t, 600*time.Second, s.Database.ConnMaxAge)
	assert.Equal(t, "redis://redis:6379/0", s.Cache.URL)
	assert.Equal(t, "redis://redis:6379/1", s.Celery.BrokerURL)
	assert.Equal(t, "UTC", s.Celery.Timezone)
	assert.Equal(t, "UTC", s.Location.String())
	assert.Empty(t, s.CORS.AllowedOrigins)
	assert.True(t, s.CORS.AllowAll)
	assert.Empty(t, s.CSRF.TrustedOrigins)
	assert.Equal(t, "info", s.Logging.Level)
	assert.Equal(t, "info", s.Logging.FrameworkLevel)
	assert.Equal(t, StaticStorageManifest, s.Static.Storage)
	assert.Equal(t, 20, s.API.PageSize)
	assert.Equal(t, 14*24*time.Hour, s.Session.CookieAge)
	assert.Equal(t, 0.1, s.Sentry.TracesSampleRate)
	assert.False(t, s.Sentry.Enabled)
}

func TestLoad_ParsesLists(t *testing.T) {
	s := load(t, map[string]string{
		"ALLOWED_HOSTS":        " example.com, ,www.example.com,",
		"CORS_ALLOWED_ORIGINS": "https://example.com,https://app.example.com",
		"CSRF_TRUSTED_ORIGINS": "https://admin.example.com",
	})

	assert.Equal(t, List{"example.com", "www.example.com"}, s.AllowedHosts)
	assert.Equal(t, List{"https://example.com", "https://app.example.com"}, s.CORS.AllowedOrigins)
	assert.False(t, s.CORS.AllowAll)
	assert.Equal(t, List{"https://admin.example.com"}, s.CSRF.TrustedOrigins)
}

func TestLoad_DebugFlagOnlyAcceptsOne(t *testing.T) {
	cases := map[string]bool{"1": true, "0": false, "true": false, "yes": false, "": false}
	for raw, want := range cases {
		s := load(t, map[string]string{"DEBUG": raw})
		assert.Equal(t, want, s.Debug, "DEBUG=%q", raw)
	}
}

func TestLoad_InvalidTimeZone(t *testing.T) {
	_, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{"TZ": "Mars/Olympus"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrImproperlyConfigured))
}

func TestLoad_RejectsOutOfRangeSampleRate(t *testing.T) {
	_, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{"SENTRY_TRACES_SAMPLE_RATE": "1.5"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrImproperlyConfigured))
}

func TestLoad_RejectsUnknownLogLevel(t *testing.T) {
	_, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{"LOG_LEVEL": "LOUD"}))
	require.Error(t, err)
}

func TestDevelopment_Overrides(t *testing.T) {
	base := load(t, map[string]string{
		"ALLOWED_HOSTS":        "example.com",
		"CORS_ALLOWED_ORIGINS": "https://example.com",
	})

	s := Development(*base)

	assert.Equal(t, LayerDevelopment, s.Layer)
	assert.True(t, s.Debug)
	assert.Equal(t, List{"*"}, s.AllowedHosts)
	assert.True(t, s.CORS.AllowAll)
	assert.Equal(t, StaticStorageSimple, s.Static.Storage)
	assert.Equal(t, EmailBackendConsole, s.Email.Backend)
	assert.Equal(t, "debug", s.Logging.Level)
	assert.True(t, s.Logging.Pretty)

	// the base record is untouched
	assert.Equal(t, List{"example.com"}, base.AllowedHosts)
	assert.False(t, base.Debug)
}

func prodEnv() map[string]string {
	return map[string]string{
		"SECRET_KEY":    "a-real-secret",
		"ALLOWED_HOSTS": "api.example.com",
		"DEBUG":         "1",
		"EMAIL_HOST":    "smtp.example.com",
	}
}

func TestProduction_Overrides(t *testing.T) {
	s, err := Production(*load(t, prodEnv()))
	require.NoError(t, err)

	assert.Equal(t, LayerProduction, s.Layer)
	assert.False(t, s.Debug)
	assert.True(t, s.Security.SSLRedirect)
	assert.Equal(t, "X-Forwarded-Proto", s.Security.ProxySSLHeader)
	assert.Equal(t, 31536000, s.Security.HSTSSeconds)
	assert.True(t, s.Security.HSTSIncludeSubdomains)
	assert.True(t, s.Security.HSTSPreload)
	assert.True(t, s.Security.ContentTypeNosniff)
	assert.True(t, s.Session.CookieSecure)
	assert.True(t, s.CSRF.CookieSecure)
	assert.False(t, s.CORS.AllowAll)
	assert.Equal(t, EmailBackendSMTP, s.Email.Backend)
	assert.Equal(t, "smtp.example.com", s.Email.Host)
	assert.Equal(t, 587, s.Email.Port)
	assert.True(t, s.Email.UseTLS)
	assert.Equal(t, "noreply@example.com", s.Email.DefaultFrom)
	assert.False(t, s.Sentry.Enabled)
	assert.False(t, s.Logging.Pretty)
}

func TestProduction_SSLRedirectCanBeDisabled(t *testing.T) {
	env := prodEnv()
	env["SECURE_SSL_REDIRECT"] = "0"

	s, err := Production(*load(t, env))
	require.NoError(t, err)
	assert.False(t, s.Security.SSLRedirect)
}

func TestProduction_RejectsInsecureSecretKey(t *testing.T) {
	for _, key := range []string{InsecureSecretKey, ""} {
		env := prodEnv()
		env["SECRET_KEY"] = key

		_, err := Production(*load(t, env))
		require.Error(t, err, "SECRET_KEY=%q", key)
		assert.True(t, errors.Is(err, ErrImproperlyConfigured))
	}
}

func TestProduction_RejectsMissingSecretKey(t *testing.T) {
	env := prodEnv()
	delete(env, "SECRET_KEY")

	_, err := Production(*load(t, env))
	assert.True(t, errors.Is(err, ErrImproperlyConfigured))
}

func TestProduction_RejectsHostAllowlist(t *testing.T) {
	for _, hosts := range []string{"", "*", "example.com,*", " , "} {
		env := prodEnv()
		env["ALLOWED_HOSTS"] = hosts

		_, err := Production(*load(t, env))
		require.Error(t, err, "ALLOWED_HOSTS=%q", hosts)
		assert.True(t, errors.Is(err, ErrImproperlyConfigured))
	}
}

func TestProduction_EnablesTelemetryWithDSN(t *testing.T) {
	env := prodEnv()
	env["SENTRY_DSN"] = "https://public@sentry.example.com/1"
	env["SENTRY_TRACES_SAMPLE_RATE"] = "0.25"

	s, err := Production(*load(t, env))
	require.NoError(t, err)
	assert.True(t, s.Sentry.Enabled)
	assert.Equal(t, 0.25, s.Sentry.TracesSampleRate)
	assert.False(t, s.Sentry.SendDefaultPII)
}

func TestDevelopment_NeverEnablesTelemetry(t *testing.T) {
	s := Development(*load(t, map[string]string{"SENTRY_DSN": "https://public@sentry.example.com/1"}))
	assert.False(t, s.Sentry.Enabled)
}

func TestAssemble_SelectsLayerFromEnv(t *testing.T) {
	s, err := Assemble(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)
	assert.Equal(t, LayerDevelopment, s.Layer)

	env := prodEnv()
	env["ENV"] = "prod"
	s, err = Assemble(context.Background(), envconfig.MapLookuper(env))
	require.NoError(t, err)
	assert.Equal(t, LayerProduction, s.Layer)

	_, err = Assemble(context.Background(), envconfig.MapLookuper(map[string]string{"ENV": "production"}))
	assert.True(t, errors.Is(err, ErrImproperlyConfigured))

	_, err = Assemble(context.Background(), envconfig.MapLookuper(map[string]string{"ENV": "staging"}))
	assert.True(t, errors.Is(err, ErrImproperlyConfigured))
}

func TestDeployWarnings(t *testing.T) {
	env := prodEnv()
	delete(env, "EMAIL_HOST")
	s, err := Production(*load(t, env))
	require.NoError(t, err)

	warnings := DeployWarnings(&s)
	assert.Contains(t, warnings, "EMAIL_HOST is empty: outbound mail will fail")
	assert.Contains(t, warnings, "CORS_ALLOWED_ORIGINS is empty: cross-origin requests are rejected")
	assert.Contains(t, warnings, "SENTRY_DSN is empty: error telemetry is disabled")
}

func TestDeployWarnings_Development(t *testing.T) {
	s, err := Assemble(context.Background(), envconfig.MapLookuper(map[string]string{"ENV": "development"}))
	require.NoError(t, err)

	assert.Equal(t, []string{`SECRET_KEY is the placeholder "change-me-in-production"`}, DeployWarnings(s))

	s, err = Assemble(context.Background(), envconfig.MapLookuper(map[string]string{"ENV": "development", "SECRET_KEY": "local"}))
	require.NoError(t, err)
	assert.Empty(t, DeployWarnings(s))
}

func TestLoadSuperuser(t *testing.T) {
	env, err := LoadSuperuser(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)
	assert.Equal(t, "admin", env.Username)
	assert.Equal(t, "admin@example.com", env.Email)
	assert.Empty(t, env.Password)

	env, err = LoadSuperuser(context.Background(), envconfig.MapLookuper(map[string]string{
		"DJANGO_SUPERUSER_USERNAME": "root",
		"DJANGO_SUPERUSER_EMAIL":    "root@example.com",
		"DJANGO_SUPERUSER_PASSWORD": "s3cret",
	}))
	require.NoError(t, err)
	assert.Equal(t, SuperuserEnv{Username: "root", Email: "root@example.com", Password: "s3cret"}, env)
}
