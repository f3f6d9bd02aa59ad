// Package kommo provides bearer-token REST access to the Kommo v4 API.
package kommo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gmgolfo/sales-analyst/internal/model"
)

// RawData bundles the four raw collections the enrichment pipeline
// consumes.
type RawData struct {
	Leads       []model.RawLead    `json:"leads"`
	Pipelines   []model.Pipeline   `json:"pipelines"`
	Users       []model.User       `json:"users"`
	LossReasons []model.LossReason `json:"loss_reasons"`
}

// Client defines the Kommo API operations used by the pipeline.
type Client interface {
	Leads(ctx context.Context) ([]model.RawLead, error)
	Pipelines(ctx context.Context) ([]model.Pipeline, error)
	Users(ctx context.Context) ([]model.User, error)
	LossReasons(ctx context.Context) ([]model.LossReason, error)
	FetchAll(ctx context.Context) (*RawData, error)
}

// ClientOption configures the Kommo client.
type ClientOption func(*apiClient)

// WithRateLimit sets a per-second rate limit for API calls. A burst
// equal to the integer portion of rps is allowed.
func WithRateLimit(rps float64) ClientOption {
	return func(c *apiClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithMaxRetries sets how many attempts each page request gets before
// the error is surfaced. Retries apply only to 429/5xx and transport
// errors.
func WithMaxRetries(n int) ClientOption {
	return func(c *apiClient) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *apiClient) { c.hc = hc }
}

type apiClient struct {
	baseURL    string
	token      string
	hc         *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewClient creates a Kommo client for the given API root
// (https://<subdomain>.kommo.com/api/v4) and long-lived access token.
func NewClient(baseURL, token string, opts ...ClientOption) Client {
	c := &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		hc:         &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the HAL-style wrapper Kommo puts around every collection
// response.
type envelope struct {
	Links struct {
		Next struct {
			Href string `json:"href"`
		} `json:"next"`
	} `json:"_links"`
	Embedded map[string]json.RawMessage `json:"_embedded"`
}

// wait blocks until the rate limiter allows one event, or ctx is
// cancelled.
func (c *apiClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// getPage fetches one page and decodes the envelope. A 204 means the
// collection is empty and is returned as a nil envelope, not an error.
func (c *apiClient) getPage(ctx context.Context, pageURL string) (*envelope, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "kommo: rate limit")
	}

	var env *envelope
	var lastErr error
	backoff := 500 * time.Millisecond

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		env, lastErr = c.doGet(ctx, pageURL)
		if lastErr == nil || !isRetryable(lastErr) {
			return env, lastErr
		}

		zap.L().Warn("kommo: retrying request",
			zap.String("url", pageURL),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)

		// Exponential backoff with jitter, capped at 30s.
		sleep := time.Duration(float64(backoff) * math.Pow(2, float64(attempt-1)))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		sleep += time.Duration(rand.Int64N(int64(sleep) / 4))

		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), "kommo: cancelled")
		case <-time.After(sleep):
		}
	}
	return nil, lastErr
}

// retryableError marks status codes worth another attempt.
type retryableError struct{ msg string }

func (e *retryableError) Error() string { return e.msg }

func isRetryable(err error) bool {
	var re *retryableError
	return eris.As(err, &re)
}

func (c *apiClient) doGet(ctx context.Context, pageURL string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "kommo: build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, eris.Wrap(&retryableError{msg: err.Error()}, "kommo: request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, eris.Wrap(&retryableError{msg: fmt.Sprintf("status %d", resp.StatusCode)}, "kommo: request")
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, eris.Errorf("kommo: GET %s: status %d: %s", pageURL, resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, eris.Wrap(err, "kommo: decode response")
	}
	return &env, nil
}

// collect walks every page of an endpoint and appends the items found
// under the given _embedded key.
func collect[T any](ctx context.Context, c *apiClient, endpoint, key string, params url.Values) ([]T, error) {
	pageURL := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		pageURL += "?" + params.Encode()
	}

	var all []T
	for pageURL != "" {
		env, err := c.getPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		if env == nil || env.Embedded == nil {
			break
		}

		raw, ok := env.Embedded[key]
		if !ok {
			break
		}
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, eris.Wrapf(err, "kommo: decode %s", key)
		}
		all = append(all, items...)

		pageURL = env.Links.Next.Href
	}
	return all, nil
}

func (c *apiClient) Leads(ctx context.Context) ([]model.RawLead, error) {
	params := url.Values{"with": {"loss_reason,contacts"}, "limit": {"250"}}
	leads, err := collect[model.RawLead](ctx, c, "leads", "leads", params)
	if err != nil {
		return nil, eris.Wrap(err, "kommo: fetch leads")
	}
	return leads, nil
}

func (c *apiClient) Pipelines(ctx context.Context) ([]model.Pipeline, error) {
	pipelines, err := collect[model.Pipeline](ctx, c, "leads/pipelines", "pipelines", nil)
	if err != nil {
		return nil, eris.Wrap(err, "kommo: fetch pipelines")
	}
	return pipelines, nil
}

func (c *apiClient) Users(ctx context.Context) ([]model.User, error) {
	users, err := collect[model.User](ctx, c, "users", "users", url.Values{"limit": {"250"}})
	if err != nil {
		return nil, eris.Wrap(err, "kommo: fetch users")
	}
	return users, nil
}

func (c *apiClient) LossReasons(ctx context.Context) ([]model.LossReason, error) {
	reasons, err := collect[model.LossReason](ctx, c, "leads/loss_reasons", "loss_reasons", nil)
	if err != nil {
		return nil, eris.Wrap(err, "kommo: fetch loss reasons")
	}
	return reasons, nil
}

// FetchAll retrieves the four collections sequentially. Pagination order
// within each collection is preserved, so repeated runs over unchanged
// CRM data produce identical input for the pipeline.
func (c *apiClient) FetchAll(ctx context.Context) (*RawData, error) {
	leads, err := c.Leads(ctx)
	if err != nil {
		return nil, err
	}
	pipelines, err := c.Pipelines(ctx)
	if err != nil {
		return nil, err
	}
	users, err := c.Users(ctx)
	if err != nil {
		return nil, err
	}
	reasons, err := c.LossReasons(ctx)
	if err != nil {
		return nil, err
	}

	zap.L().Info("kommo: fetch complete",
		zap.Int("leads", len(leads)),
		zap.Int("pipelines", len(pipelines)),
		zap.Int("users", len(users)),
		zap.Int("loss_reasons", len(reasons)),
	)

	return &RawData{
		Leads:       leads,
		Pipelines:   pipelines,
		Users:       users,
		LossReasons: reasons,
	}, nil
}
