// Package telemetry reports unexpected errors to Sentry. Reporting is off
// unless a DSN is configured.
package telemetry

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// Options configures the Sentry client.
type Options struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
	SendDefaultPII   bool
}

// Reporter forwards errors to Sentry. The zero value and a nil Reporter are
// valid and report nothing.
type Reporter struct {
	enabled bool
}

// Init configures the global Sentry client. An empty DSN yields a disabled
// Reporter.
func Init(opts Options) (*Reporter, error) {
	if opts.DSN == "" {
		return &Reporter{}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		EnableTracing:    opts.TracesSampleRate > 0,
		TracesSampleRate: opts.TracesSampleRate,
		SendDefaultPII:   opts.SendDefaultPII,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if !opts.SendDefaultPII {
				scrub(event)
			}
			return event
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}
	return &Reporter{enabled: true}, nil
}

func (r *Reporter) Enabled() bool {
	return r != nil && r.enabled
}

// Capture reports err, attaching req when given.
func (r *Reporter) Capture(err error, req *http.Request) {
	if !r.Enabled() || err == nil {
		return
	}
	hub := sentry.CurrentHub().Clone()
	if req != nil {
		hub.Scope().SetRequest(req)
	}
	hub.CaptureException(err)
}

// Flush waits up to timeout for buffered events to be sent.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if !r.Enabled() {
		return true
	}
	return sentry.Flush(timeout)
}

var sensitiveHeaders = []string{"Authorization", "Cookie", "Set-Cookie", "X-Csrftoken"}

func scrub(event *sentry.Event) {
	if event == nil {
		return
	}
	event.User = sentry.User{}
	if event.Request == nil {
		return
	}
	event.Request.Cookies = ""
	for k := range event.Request.Headers {
		for _, h := range sensitiveHeaders {
			if strings.EqualFold(k, h) {
				delete(event.Request.Headers, k)
			}
		}
	}
}
