// Package whttp builds the retrying HTTP clients used to talk to the intake
// host and the stats API.
package whttp

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

type Options struct {
	RetryMax int
	Timeout  time.Duration // 0 keeps the client default
}

// NewClient returns a retryablehttp client with its request logging silenced.
// Once retries are exhausted the last response is handed back as is, so
// callers still see the status and body of a failing server.
func NewClient(opts Options) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.Logger = log.New(io.Discard, "", 0)
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.RetryMax = opts.RetryMax
	if opts.Timeout > 0 {
		c.HTTPClient.Timeout = opts.Timeout
	}
	return c
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.URL, e.StatusCode)
}

// CheckStatus drains and rejects non-2xx responses. The body is left open
// for the caller to close.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	io.Copy(io.Discard, resp.Body)
	u := ""
	if resp.Request != nil && resp.Request.URL != nil {
		u = resp.Request.URL.String()
	}
	return &StatusError{URL: u, StatusCode: resp.StatusCode}
}
