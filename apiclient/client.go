package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/skylens/go-api-client/internal/apierrors"
	"github.com/skylens/go-api-client/sessions"
	"github.com/skylens/go-api-client/token"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "skylens-go-client/1.0"
)

// Client executes authenticated requests against the SkyLens API. It attaches
// the session's current access token to every request and transparently
// retries a request exactly once after a 401, behind a single token refresh.
// Auth endpoints themselves are never retried.
//
// The refresh credential is an HTTP-only cookie managed by the client's
// cookie jar; it is never visible to callers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *sessions.Store
	tokens     *token.Manager
	log        zerolog.Logger
	language   string
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for testing).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout on the underlying HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the logger used for request events.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithLanguage sets the locale tag used to localize error messages.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// New initializes a new API client for the given base URL.
func New(baseURL string, store *sessions.Store, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[apiclient.New] base URL is required")
	}
	if store == nil {
		return nil, errors.New("[apiclient.New] session store is required")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[apiclient.New] cookie jar")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
		store: store,
		log:   zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// SetTokenManager wires the token manager used for the 401 refresh-and-retry
// path. Wired after construction because the manager refreshes through this
// client.
func (c *Client) SetTokenManager(tokens *token.Manager) {
	c.tokens = tokens
}

// Get issues an authenticated GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out, false)
}

// Post issues an authenticated POST with a JSON body and decodes the JSON
// response into out. Either may be nil.
func (c *Client) Post(ctx context.Context, path string, in, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, in, out, false)
}

// do runs the request pipeline: attach token, send, refresh-and-retry once on
// 401 (unless the endpoint is itself an auth endpoint), then normalize any
// failure. This is the only retry policy in the client; it is never
// recursive.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}, authEndpoint bool) error {
	status, header, body, sendErr := c.send(ctx, method, path, in)
	if sendErr != nil {
		return sendErr
	}

	if status == http.StatusUnauthorized && !authEndpoint && c.tokens != nil {
		original := apierrors.FromResponse(status, header, body, c.language)
		if _, err := c.tokens.RefreshAccessToken(ctx); err != nil {
			c.log.Debug().Str("path", path).Msg("refresh after 401 failed, clearing session")
			c.tokens.ClearTokens()
			return original
		}
		status, header, body, sendErr = c.send(ctx, method, path, in)
		if sendErr != nil {
			return sendErr
		}
	}

	if status < 200 || status > 299 {
		return apierrors.FromResponse(status, header, body, c.language)
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return apierrors.Unknown(errors.Wrap(err, "decode response"), c.language)
		}
	}
	return nil
}

// send issues one HTTP round trip and buffers the response. Transport
// failures come back normalized as network errors.
func (c *Client) send(ctx context.Context, method, path string, in interface{}) (int, http.Header, []byte, error) {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, nil, nil, apierrors.Unknown(errors.Wrap(err, "encode request"), c.language)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, nil, apierrors.Unknown(errors.Wrap(err, "build request"), c.language)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.New().String())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session := c.store.Read(); session.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("path", path).Msg("request failed")
		return 0, nil, nil, apierrors.Network(err, c.language)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, apierrors.Network(errors.Wrap(err, "read response"), c.language)
	}

	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("request complete")
	return resp.StatusCode, resp.Header, body, nil
}
