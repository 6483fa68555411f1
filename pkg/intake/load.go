package intake

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/capscope/capscope/pkg/whttp"
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultSource is the intake table location used when none is configured.
const DefaultSource = "INTAKE_DATASET.csv"

// Load reads the intake table from a file path or an http(s) URL.
// client is used for URLs; nil means a default retrying client.
func Load(ctx context.Context, src string, client *retryablehttp.Client) ([]Record, error) {
	if !isURL(src) {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("open intake table: %w", err)
		}
		defer f.Close()
		return ParseCSV(f)
	}

	if client == nil {
		client = NewHTTPClient()
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv, text/plain, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch intake table: %w", err)
	}
	defer resp.Body.Close()

	if err := whttp.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("fetch intake table: %w", err)
	}
	return ParseCSV(resp.Body)
}

// NewHTTPClient returns a retrying client with retry logging silenced.
func NewHTTPClient() *retryablehttp.Client {
	return whttp.NewClient(whttp.Options{RetryMax: 3})
}

func isURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}
