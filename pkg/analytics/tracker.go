// Package analytics sends page-view beacons to the site's stats endpoint.
// Delivery is best effort: failures are logged at debug level and dropped.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/capscope/capscope/pkg/whttp"
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultEndpoint is used when no endpoint is configured.
const DefaultEndpoint = "http://localhost:5000"

// Logger is the subset of logging the tracker needs.
type Logger interface {
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}

var logger Logger = nopLogger{}

// SetLogger routes the package's debug output to l.
func SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	logger = l
}

// PageView is the beacon payload.
type PageView struct {
	Page      string `json:"page"`
	VisitorID string `json:"visitorId"`
	SessionID string `json:"sessionId"`
	Referrer  string `json:"referrer"`
	UserAgent string `json:"userAgent"`
}

// Config controls a Tracker.
type Config struct {
	Enabled   bool
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
}

// Tracker posts page views. A nil or disabled Tracker does nothing.
type Tracker struct {
	enabled   bool
	url       string
	userAgent string
	identity  IdentityProvider
	client    *retryablehttp.Client
}

// NewTracker builds a tracker for cfg using identity for visitor/session IDs.
func NewTracker(cfg Config, identity IdentityProvider) *Tracker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := whttp.NewClient(whttp.Options{RetryMax: 1, Timeout: timeout})

	if identity == nil {
		identity = StaticIdentity{}
	}

	return &Tracker{
		enabled:   cfg.Enabled,
		url:       ViewURL(cfg.Endpoint),
		userAgent: cfg.UserAgent,
		identity:  identity,
		client:    client,
	}
}

// ViewURL derives the page-view URL from an API base: a trailing "/" and then
// a trailing "/api" are stripped before "/api/view" is appended.
func ViewURL(endpoint string) string {
	base := strings.TrimSpace(endpoint)
	if base == "" {
		base = DefaultEndpoint
	}
	base = strings.TrimSuffix(base, "/")
	base = strings.TrimSuffix(base, "/api")
	return base + "/api/view"
}

// Track sends one page view and reports whether it was accepted. Errors are
// logged, never returned.
func (t *Tracker) Track(ctx context.Context, page, referrer string) bool {
	if t == nil || !t.enabled {
		return false
	}

	pv := PageView{
		Page:      page,
		VisitorID: t.identity.VisitorID(),
		SessionID: t.identity.SessionID(),
		Referrer:  referrer,
		UserAgent: t.userAgent,
	}

	if err := t.send(ctx, pv); err != nil {
		logger.Debugf("[analytics] tracking %s failed: %v", page, err)
		return false
	}
	return true
}

// TrackAsync sends a page view in the background.
func (t *Tracker) TrackAsync(page, referrer string) {
	if t == nil || !t.enabled {
		return
	}
	go t.Track(context.Background(), page, referrer)
}

func (t *Tracker) send(ctx context.Context, pv PageView) error {
	body, err := json.Marshal(pv)
	if err != nil {
		return err
	}

	logger.Debugf("[analytics] tracking to: %s", t.url)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if pv.UserAgent != "" {
		req.Header.Set("User-Agent", pv.UserAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := whttp.CheckStatus(resp); err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
