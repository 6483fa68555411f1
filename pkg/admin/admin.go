// Package admin performs the admin login against the remote stats API and
// keeps the returned opaque token on disk.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/capscope/capscope/pkg/whttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

const (
	DefaultEndpoint    = "http://localhost:5000"
	defaultFailMessage = "Login failed"
)

// LoginError is returned when the login endpoint rejects the credentials or
// cannot be reached.
type LoginError struct {
	Status  int // 0 when no response was received
	Message string
	Err     error
}

func (e *LoginError) Error() string {
	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *LoginError) Unwrap() error { return e.Err }

// Client talks to the admin login endpoint.
type Client struct {
	endpoint string
	http     *retryablehttp.Client
}

// NewClient returns a client for the API rooted at endpoint.
func NewClient(endpoint string) *Client {
	c := whttp.NewClient(whttp.Options{RetryMax: 2, Timeout: 15 * time.Second})

	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	endpoint = strings.TrimSuffix(endpoint, "/api")

	return &Client{endpoint: endpoint, http: c}
}

// Login submits the credential pair and returns the issued token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &LoginError{Message: defaultFailMessage, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &LoginError{Status: resp.StatusCode, Message: defaultFailMessage, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(raw, "message").String()
		if msg == "" {
			msg = defaultFailMessage
		}
		return "", &LoginError{Status: resp.StatusCode, Message: msg}
	}

	token := gjson.GetBytes(raw, "token").String()
	if token == "" {
		return "", &LoginError{Status: resp.StatusCode, Message: "login response carried no token"}
	}
	return token, nil
}

// TokenFile stores the admin token.
type TokenFile struct {
	Path string
}

// Save writes token with owner-only permissions.
func (f TokenFile) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.Path, []byte(token), 0o600)
}

// Load returns the stored token, or "" when none is stored.
func (f TokenFile) Load() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Clear removes the stored token.
func (f TokenFile) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
