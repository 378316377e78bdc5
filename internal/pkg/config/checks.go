package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// DeployWarnings lists settings that are legal but likely wrong for a
// deployment. None of them stop the process.
func DeployWarnings(s *Settings) []string {
	var warnings []string

	if s.IsProduction() {
		if s.Email.Backend == EmailBackendSMTP && s.Email.Host == "" {
			warnings = append(warnings, "EMAIL_HOST is empty: outbound mail will fail")
		}
		if len(s.CORS.AllowedOrigins) == 0 {
			warnings = append(warnings, "CORS_ALLOWED_ORIGINS is empty: cross-origin requests are rejected")
		}
		if !s.Security.SSLRedirect {
			warnings = append(warnings, "SECURE_SSL_REDIRECT is off: plain HTTP requests are served")
		}
		if s.Sentry.DSN == "" {
			warnings = append(warnings, "SENTRY_DSN is empty: error telemetry is disabled")
		}
		if s.Sentry.SendDefaultPII {
			warnings = append(warnings, "SENTRY_SEND_DEFAULT_PII is on: personal data is sent with error reports")
		}
	}

	if s.SecretKey == InsecureSecretKey && !s.IsProduction() {
		warnings = append(warnings, fmt.Sprintf("SECRET_KEY is the placeholder %q", InsecureSecretKey))
	}

	return warnings
}

// SuperuserEnv carries the inputs of the superuser bootstrap command.
type SuperuserEnv struct {
	Username string `env:"DJANGO_SUPERUSER_USERNAME, default=admin"`
	Email    string `env:"DJANGO_SUPERUSER_EMAIL,    default=admin@example.com"`
	Password string `env:"DJANGO_SUPERUSER_PASSWORD"`
}

// LoadSuperuser reads the bootstrap variables. The password has no default.
func LoadSuperuser(ctx context.Context, l envconfig.Lookuper) (SuperuserEnv, error) {
	var env SuperuserEnv
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: l,
	}); err != nil {
		return SuperuserEnv{}, fmt.Errorf("config: failed to load superuser variables: %w", err)
	}
	return env, nil
}
