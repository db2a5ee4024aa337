// Package client is the HTTP fixture client used to seed a SkillTree
// backend before a browser test runs. Every call is effectful and
// fail-fast: nothing is retried and any non-2xx answer is returned as an
// *errors.APIError.
package client

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/skilltree/skilltree-e2e/internal/client/errors"
	"github.com/skilltree/skilltree-e2e/internal/metrics"
	"github.com/skilltree/skilltree-e2e/internal/version"
)

const xsrfCookie = "XSRF-TOKEN"

// Client represents the SkillTree fixture client
type Client struct {
	httpClient *resty.Client
	baseURL    string
	log        zerolog.Logger
	metrics    *metrics.Recorder

	mu   sync.RWMutex
	user string
}

// Config represents client configuration
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Debug     bool
	Logger    *zerolog.Logger
	Metrics   *metrics.Recorder
}

// New creates a fixture client with an empty cookie session.
func New(config *Config) *Client {
	if config.UserAgent == "" {
		config.UserAgent = version.UserAgent()
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	log := zerolog.Nop()
	if config.Logger != nil {
		log = *config.Logger
	}

	jar, _ := cookiejar.New(nil)
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
		SetTimeout(config.Timeout).
		SetRetryCount(0).
		SetCookieJar(jar).
		SetHeader("User-Agent", config.UserAgent).
		SetHeader("Accept", "application/json")

	if config.Debug {
		httpClient.SetDebug(true)
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		log:        log,
		metrics:    config.Metrics,
	}

	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return c.setXSRF(req)
	})
	httpClient.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		return c.handleError(resp)
	})

	return c
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// setXSRF echoes the backend's XSRF cookie as a header, the same way the
// web client does.
func (c *Client) setXSRF(req *resty.Request) error {
	for _, ck := range c.Cookies() {
		if ck.Name == xsrfCookie {
			req.SetHeader("X-XSRF-TOKEN", ck.Value)
			break
		}
	}
	return nil
}

// handleError converts non-2xx responses into *errors.APIError
func (c *Client) handleError(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	method, path := "", ""
	if resp.Request != nil {
		method = resp.Request.Method
		path = strings.TrimPrefix(resp.Request.URL, c.baseURL)
	}

	var body struct {
		Message     string `json:"message"`
		Explanation string `json:"explanation"`
		ErrorCode   string `json:"errorCode"`
		Error       string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		msg := body.Explanation
		if msg == "" {
			msg = body.Message
		}
		if msg == "" {
			msg = body.Error
		}
		return errors.NewAPIError(resp.StatusCode(), method, path, msg, body.ErrorCode, string(resp.Body()))
	}

	return errors.NewAPIError(resp.StatusCode(), method, path, "", "", string(resp.Body()))
}

// request is the single choke point for all calls so metrics and logging
// see every request exactly once.
func (c *Client) request(ctx context.Context, method, path string, build func(*resty.Request)) (*resty.Response, error) {
	req := c.httpClient.R().SetContext(ctx)
	if build != nil {
		build(req)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	took := time.Since(start)

	status := 0
	if resp != nil && resp.RawResponse != nil {
		status = resp.StatusCode()
	}
	c.metrics.Observe(method, status, took)

	if err != nil {
		var apiErr *errors.APIError
		if stderrors.As(err, &apiErr) {
			c.log.Warn().Str("method", method).Str("path", path).Int("status", apiErr.StatusCode).Dur("took", took).Msg("fixture request rejected")
			return resp, apiErr
		}
		c.log.Error().Err(err).Str("method", method).Str("path", path).Msg("fixture request failed")
		return resp, &errors.NetworkError{
			Operation: method,
			URL:       c.baseURL + path,
			Err:       err,
		}
	}

	c.log.Debug().Str("method", method).Str("path", path).Int("status", status).Dur("took", took).Msg("fixture request")
	return resp, nil
}

// Do sends body as JSON (when non-nil) and decodes a JSON answer into
// result (when non-nil).
func (c *Client) Do(ctx context.Context, method, path string, body, result interface{}) error {
	_, err := c.request(ctx, method, path, func(req *resty.Request) {
		if body != nil {
			req.SetHeader("Content-Type", "application/json")
			req.SetBody(body)
		}
		if result != nil {
			req.SetResult(result)
		}
	})
	return err
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.Do(ctx, http.MethodPost, path, body, result)
}

// Put performs a PUT request
func (c *Client) Put(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.Do(ctx, http.MethodPut, path, body, result)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string, result interface{}) error {
	return c.Do(ctx, http.MethodDelete, path, nil, result)
}

// PostForm posts url-encoded form fields.
func (c *Client) PostForm(ctx context.Context, path string, fields map[string]string) error {
	_, err := c.request(ctx, http.MethodPost, path, func(req *resty.Request) {
		req.SetFormData(fields)
	})
	return err
}

// Upload posts a multipart form with one file part plus plain fields.
func (c *Client) Upload(ctx context.Context, path, fileParam, filePath string, fields map[string]string, result interface{}) error {
	_, err := c.request(ctx, http.MethodPost, path, func(req *resty.Request) {
		req.SetFile(fileParam, filePath)
		if len(fields) > 0 {
			req.SetMultipartFormData(fields)
		}
		if result != nil {
			req.SetResult(result)
		}
	})
	return err
}

// GetBytes downloads a resource verbatim.
func (c *Client) GetBytes(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// Login posts the login form; any previous session is discarded first.
func (c *Client) Login(ctx context.Context, user, password string) error {
	c.resetSession()
	if err := c.PostForm(ctx, "/performLogin", map[string]string{
		"username": user,
		"password": password,
	}); err != nil {
		return err
	}
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()
	return nil
}

// Logout ends the backend session and clears local cookies.
func (c *Client) Logout(ctx context.Context) error {
	err := c.PostForm(ctx, "/logout", nil)
	c.resetSession()
	return err
}

// CreateAccount registers user and starts a session as them. With root
// set the account is created through the root bootstrap endpoint.
func (c *Client) CreateAccount(ctx context.Context, user, password string, root bool) error {
	c.resetSession()
	path := "/createAccount"
	if root {
		path = "/createRootAccount"
	}
	body := map[string]string{
		"firstName": "Person",
		"lastName":  "Three",
		"email":     user,
		"password":  password,
	}
	if err := c.Put(ctx, path, body, nil); err != nil {
		return err
	}
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()
	return nil
}

// UserInfo is the identity the backend associates with the session.
type UserInfo struct {
	UserID string   `json:"userId"`
	Roles  []string `json:"roles"`
}

// Me returns the identity of the current session.
func (c *Client) Me(ctx context.Context) (*UserInfo, error) {
	var info UserInfo
	if err := c.Get(ctx, "/app/userInfo", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CurrentUser returns the user of the active session, or "".
func (c *Client) CurrentUser() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Client) resetSession() {
	jar, _ := cookiejar.New(nil)
	c.httpClient.SetCookieJar(jar)
	c.mu.Lock()
	c.user = ""
	c.mu.Unlock()
}

// Cookies returns the session cookies held for the backend URL.
func (c *Client) Cookies() []*http.Cookie {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil
	}
	jar := c.httpClient.GetClient().Jar
	if jar == nil {
		return nil
	}
	return jar.Cookies(u)
}

// Ping checks that the backend answers at all.
func (c *Client) Ping(ctx context.Context) error {
	return c.Get(ctx, "/public/config", nil)
}
