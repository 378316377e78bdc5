package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func originStatus(t *testing.T, cfg OriginsConfig, method, origin string) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/admin/login/", nil)
	req.Host = "api.example.com"
	if origin != "" {
		req.Header.Set(echo.HeaderOrigin, origin)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := TrustedOrigins(cfg)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec.Code
}

func TestTrustedOrigins(t *testing.T) {
	cfg := OriginsConfig{Trusted: []string{"https://admin.example.com", "https://*.example.net/"}}

	cases := []struct {
		method string
		origin string
		want   int
	}{
		{http.MethodGet, "https://evil.com", http.StatusOK},
		{http.MethodPost, "", http.StatusOK},
		{http.MethodPost, "http://api.example.com", http.StatusOK},
		{http.MethodPost, "https://admin.example.com", http.StatusOK},
		{http.MethodPost, "https://a.b.example.net", http.StatusOK},
		{http.MethodPost, "https://example.net", http.StatusOK},
		{http.MethodPost, "http://a.example.net", http.StatusForbidden},
		{http.MethodDelete, "https://evil.com", http.StatusForbidden},
		{http.MethodPost, "https://badexample.net", http.StatusForbidden},
	}
	for _, tc := range cases {
		if got := originStatus(t, cfg, tc.method, tc.origin); got != tc.want {
			t.Fatalf("%s %q: expected %d, got %d", tc.method, tc.origin, tc.want, got)
		}
	}
}
