// Package upstream talks to the hosted inference API. A Call posts one JSON
// payload to a model endpoint and drives a small retry state machine over the
// outcome: model loading, rate limiting, and transport failures are waited out
// and retried; 404 and other non-2xx statuses fail immediately.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/Yates-Labs/gamebible/internal/config"
	"github.com/Yates-Labs/gamebible/internal/metrics"
)

const (
	textBodyLimit  = 4 << 20
	imageBodyLimit = 64 << 20

	// maxModelLoadWait caps the estimated_time a 503 may ask for
	maxModelLoadWait = 5 * time.Minute
)

var errBodyTooLarge = errors.New("response body too large")

// Response is a successful upstream reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the Content-Type header, possibly empty.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Client posts payloads to BaseURL/<model>. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	policy     RetryPolicy
	sleeper    Sleeper
	logger     *zap.Logger
	observe    func(model string, t Transition)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSleeper replaces the wait between attempts.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleeper = s }
}

// WithPolicy overrides the retry policy derived from config.
func WithPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver registers a callback invoked on every state transition.
func WithObserver(fn func(model string, t Transition)) Option {
	return func(c *Client) { c.observe = fn }
}

// NewClient builds a client from upstream config.
func NewClient(cfg config.UpstreamConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		policy:     PolicyFromConfig(cfg),
		sleeper:    ContextSleeper,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.policy.MaxAttempts < 1 {
		c.policy.MaxAttempts = 1
	}
	return c
}

// Call posts payload to the model endpoint and retries according to the policy.
// stream marks a binary response (images) and raises the accepted body size.
func (c *Client) Call(ctx context.Context, model string, payload any, stream bool) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload for %s: %w", model, err)
	}

	limit := int64(textBodyLimit)
	if stream {
		limit = imageBodyLimit
	}
	endpoint := c.baseURL + "/" + model
	log := c.logger.With(zap.String("model", model))

	var last error
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		c.transition(model, Transition{Attempt: attempt, State: StateAttempting})

		resp, err := c.do(ctx, endpoint, body, limit)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("call %s: %w", model, ctxErr)
		}
		if errors.Is(err, errBodyTooLarge) {
			tooLarge := &ResponseTooLargeError{Model: model, Limit: limit}
			c.fail(model, attempt, StateFailedPermanent, tooLarge)
			log.Warn("upstream response too large", zap.Int64("limit", limit))
			return nil, tooLarge
		}

		final := attempt == c.policy.MaxAttempts-1
		var (
			state State
			wait  time.Duration
		)

		if err != nil {
			kind := classifyTransport(err)
			last = &TransportError{Model: model, Kind: kind, Err: err}
			switch kind {
			case TransportConnect:
				state, wait = StateBackingOff, c.policy.ConnectWait
			case TransportTimeout:
				state, wait = StateBackingOff, c.policy.TimeoutWait
			default:
				if final {
					c.fail(model, attempt, StateFailedPermanent, last)
					return nil, last
				}
				state, wait = StateBackingOff, time.Duration(attempt+1)*c.policy.BackoffStep
			}
			log.Warn("upstream transport error",
				zap.Int("attempt", attempt+1),
				zap.String("kind", string(kind)),
				zap.Error(err))
		} else {
			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				c.transition(model, Transition{Attempt: attempt, State: StateSucceeded})
				metrics.UpstreamAttempts.WithLabelValues(model, "success").Inc()
				return resp, nil
			case resp.StatusCode == http.StatusNotFound:
				err := &ModelNotFoundError{Model: model}
				c.fail(model, attempt, StateFailedPermanent, err)
				log.Warn("model not found")
				return nil, err
			case resp.StatusCode == http.StatusServiceUnavailable:
				wait = estimatedWait(resp.Body, c.policy.ModelLoadingWait)
				state = StateWaitingModelLoad
				last = &ModelLoadingError{Model: model, EstimatedWait: wait}
				log.Info("model loading", zap.Int("attempt", attempt+1), zap.Duration("wait", wait))
			case resp.StatusCode == http.StatusTooManyRequests:
				wait = c.policy.RateLimitWait
				state = StateWaitingRateLimit
				last = &RateLimitedError{Model: model, Wait: wait}
				log.Warn("rate limited", zap.Int("attempt", attempt+1), zap.Duration("wait", wait))
			default:
				err := &HTTPError{Model: model, StatusCode: resp.StatusCode, Body: truncate(string(resp.Body), 300)}
				c.fail(model, attempt, StateFailedPermanent, err)
				log.Warn("upstream http error", zap.Int("status", resp.StatusCode))
				return nil, err
			}
		}

		metrics.UpstreamAttempts.WithLabelValues(model, state.String()).Inc()
		if final {
			break
		}

		c.transition(model, Transition{Attempt: attempt, State: state, Wait: wait, Err: last})
		metrics.UpstreamWaitSeconds.WithLabelValues(model, state.String()).Add(wait.Seconds())
		if err := c.sleeper.Sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("call %s: %w", model, err)
		}
	}

	exhausted := &RetriesExhaustedError{Model: model, Attempts: c.policy.MaxAttempts, Last: last}
	c.transition(model, Transition{Attempt: c.policy.MaxAttempts - 1, State: StateExhausted, Err: exhausted})
	log.Warn("upstream retries exhausted", zap.Error(last))
	return nil, exhausted
}

func (c *Client) do(ctx context.Context, endpoint string, body []byte, limit int64) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) transition(model string, t Transition) {
	if c.observe != nil {
		c.observe(model, t)
	}
}

func (c *Client) fail(model string, attempt int, state State, err error) {
	metrics.UpstreamAttempts.WithLabelValues(model, state.String()).Inc()
	c.transition(model, Transition{Attempt: attempt, State: state, Err: err})
}

func classifyTransport(err error) TransportKind {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return TransportConnect
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TransportTimeout
	}
	return TransportOther
}

// estimatedWait reads estimated_time (seconds) from a 503 body, capped at
// maxModelLoadWait.
func estimatedWait(body []byte, fallback time.Duration) time.Duration {
	v := gjson.GetBytes(body, "estimated_time")
	if v.Type != gjson.Number || v.Float() <= 0 {
		return fallback
	}
	if v.Float() >= maxModelLoadWait.Seconds() {
		return maxModelLoadWait
	}
	return time.Duration(v.Float() * float64(time.Second))
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
