package config

import (
	"fmt"
	"strings"
)

const hstsOneYear = 31536000

// Apply returns a copy of s with the given layer applied.
func (s Settings) Apply(layer Layer) (Settings, error) {
	switch layer {
	case LayerDevelopment:
		return Development(s), nil
	case LayerProduction:
		return Production(s)
	case LayerBase:
		return s.clone(), nil
	default:
		return Settings{}, fmt.Errorf("%w: unknown settings layer %q", ErrImproperlyConfigured, layer)
	}
}

// Development relaxes the base layer for local work.
func Development(base Settings) Settings {
	s := base.clone()
	s.Layer = LayerDevelopment
	s.Debug = true
	s.AllowedHosts = List{"*"}
	s.CORS.AllowAll = true
	s.Static.Storage = StaticStorageSimple
	s.Email.Backend = EmailBackendConsole
	s.Logging.Level = "debug"
	s.Logging.Pretty = true
	s.Sentry.Enabled = false
	return s
}

// Production hardens the base layer. It fails with ErrImproperlyConfigured
// when the secret key is the insecure placeholder or the host allowlist is
// empty or a wildcard.
func Production(base Settings) (Settings, error) {
	s := base.clone()
	s.Layer = LayerProduction
	s.Debug = false

	s.Security = SecuritySettings{
		SSLRedirect:           bool(s.env.SSLRedirect),
		ProxySSLHeader:        "X-Forwarded-Proto",
		ProxySSLValue:         "https",
		HSTSSeconds:           hstsOneYear,
		HSTSIncludeSubdomains: true,
		HSTSPreload:           true,
		ContentTypeNosniff:    true,
		XFrameOptions:         "DENY",
	}
	s.Session.CookieSecure = true
	s.CSRF.CookieSecure = true

	s.CORS.AllowAll = false

	s.Email = EmailSettings{
		Backend:      s.env.EmailBackend,
		Host:         s.env.EmailHost,
		Port:         s.env.EmailPort,
		UseTLS:       bool(s.env.EmailUseTLS),
		HostUser:     s.env.EmailHostUser,
		HostPassword: s.env.EmailHostPassword,
		DefaultFrom:  s.env.DefaultFromEmail,
	}

	s.Logging.Pretty = false

	if strings.TrimSpace(s.SecretKey) == "" || s.SecretKey == InsecureSecretKey {
		return Settings{}, fmt.Errorf("%w: SECRET_KEY must be set to a unique, unpredictable value in production", ErrImproperlyConfigured)
	}
	if len(s.AllowedHosts) == 0 || s.AllowedHosts.Contains("*") {
		return Settings{}, fmt.Errorf("%w: ALLOWED_HOSTS must list explicit hosts in production", ErrImproperlyConfigured)
	}

	s.Sentry.Enabled = s.Sentry.DSN != ""

	if err := validate(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) clone() Settings {
	out := s
	out.AllowedHosts = s.AllowedHosts.clone()
	out.CORS.AllowedOrigins = s.CORS.AllowedOrigins.clone()
	out.CSRF.TrustedOrigins = s.CSRF.TrustedOrigins.clone()
	out.Celery.AcceptContent = append([]string(nil), s.Celery.AcceptContent...)
	return out
}
