// Package registry is the HTTP client for the hook registry served by the
// host: fetch, replace and reset the hook list, discover candidate targets,
// and download locale dictionaries.
//
//	client, err := registry.NewClient(registry.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	list := client.FetchHooks(ctx)
//	applied, err := client.ReplaceHooks(ctx, list)
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/jingkaihe/hushprint/internal/errx"
)

const (
	// EnvAddress overrides the default registry address.
	EnvAddress = "HUSHPRINT_ADDR"

	defaultAddress  = "http://127.0.0.1:8541/remove-print"
	maxResponseBody = 4 << 20
)

// Config holds client configuration.
type Config struct {
	// Address is the base URL of the registry, including any path prefix
	// the host mounts the endpoints under.
	Address string
	// HTTPClient is the underlying client. Defaults to a pooled cleanhttp client.
	HTTPClient *http.Client
	// Timeout bounds every request, retries included. Zero disables it.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// RetryWaitMin and RetryWaitMax bound the backoff between attempts.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// Backoff defaults to retryablehttp.LinearJitterBackoff.
	Backoff retryablehttp.Backoff
	Logger  *slog.Logger
}

// DefaultConfig returns a configuration reading the address from
// HUSHPRINT_ADDR when set.
func DefaultConfig() Config {
	addr := os.Getenv(EnvAddress)
	if addr == "" {
		addr = defaultAddress
	}
	return Config{
		Address:      addr,
		HTTPClient:   cleanhttp.DefaultPooledClient(),
		Timeout:      30 * time.Second,
		MaxRetries:   2,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 1500 * time.Millisecond,
		Backoff:      retryablehttp.LinearJitterBackoff,
	}
}

// Client talks to one registry. All methods are safe for concurrent use.
type Client struct {
	base    string
	timeout time.Duration
	http    *retryablehttp.Client
	logger  *slog.Logger
}

func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.Address))
	if err != nil {
		return nil, errx.Wrap(ErrInvalidAddress, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errx.With(ErrInvalidAddress, ": %q: scheme must be http or https", cfg.Address)
	}
	if u.Host == "" {
		return nil, errx.With(ErrInvalidAddress, ": %q: missing host", cfg.Address)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "registry")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = retryablehttp.LinearJitterBackoff
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		base:    strings.TrimRight(u.String(), "/"),
		timeout: cfg.Timeout,
		logger:  logger,
		http: &retryablehttp.Client{
			HTTPClient:   httpClient,
			RetryWaitMin: cfg.RetryWaitMin,
			RetryWaitMax: cfg.RetryWaitMax,
			RetryMax:     retries,
			Backoff:      backoff,
			CheckRetry:   retryablehttp.DefaultRetryPolicy,
			ErrorHandler: retryablehttp.PassthroughErrorHandler,
			Logger:       logger,
		},
	}, nil
}

// Address returns the base URL requests are sent to.
func (c *Client) Address() string {
	return c.base
}

// do sends one request and returns the status and body. A non-nil error
// means no response was received.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (int, []byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body interface{}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, errx.Wrap(ErrBuildRequest, err)
		}
		body = data
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return 0, nil, errx.Wrap(ErrBuildRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, errx.With(ErrTransport, " %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, nil, errx.With(ErrTransport, " %s %s: read body: %w", method, path, err)
	}
	return resp.StatusCode, data, nil
}

// getJSON issues a GET and decodes a 2xx body into dst.
func (c *Client) getJSON(ctx context.Context, path string, dst interface{}) error {
	status, data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return &StatusError{Err: ErrUnexpectedCode, StatusCode: status, Message: errorMessage(data)}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errx.Wrap(ErrDecodeResponse, err)
	}
	return nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// errorMessage extracts {"error": "..."} from a failure body, falling back
// to the trimmed body text.
func errorMessage(body []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	msg := string(bytes.TrimSpace(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
