package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// Client is an HTTP client facade that layers configuration merging,
// retries, response caching, circuit breaking, rate limiting, request
// de-duplication, middleware and metrics over a pluggable Transport. It is
// safe for concurrent use.
type Client struct {
	transport       Transport
	adapter         string
	baseURL         string
	headers         map[string]string
	timeout         time.Duration
	retry           RetryConfig
	auth            *BasicAuth
	middleware      []Middleware
	hooks           []Hooks
	cache           Cache
	cacheTTL        time.Duration
	cacheKeyFunc    func(*RequestConfig) string
	cacheCondition  CacheCondition
	circuitBreaker  *CircuitBreaker
	rateLimiter     *RateLimiter
	deduplication   *DeduplicationTracker
	dedupKeyFunc    DeduplicationKeyFunc
	dedupCondition  DeduplicationCondition
	metrics         *MetricsCollector
	debug           *DebugConfig
	logger          Logger
	validationError error
}

// New constructs a Client using the provided functional options. A best
// effort validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	client := &Client{
		transport:      NewHTTPTransport(nil),
		adapter:        AdapterNetHTTP,
		timeout:        30 * time.Second,
		retry:          defaultRetryConfig(),
		cacheTTL:       5 * time.Minute,
		cacheKeyFunc:   DefaultCacheKeyFunc,
		cacheCondition: DefaultCacheCondition,
		circuitBreaker: NewCircuitBreaker(CircuitBreakerConfig{}),
		dedupKeyFunc:   DefaultDeduplicationKeyFunc,
		dedupCondition: DefaultDeduplicationCondition,
		debug:          DefaultDebugConfig(),
	}

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// Get performs an HTTP GET. Params become query parameters and may be nil.
func (c *Client) Get(ctx context.Context, url string, params map[string]any) (*Response, error) {
	return c.Request(ctx, &RequestConfig{Method: "GET", URL: url, Params: params})
}

// Post performs an HTTP POST with the given body.
func (c *Client) Post(ctx context.Context, url string, body any) (*Response, error) {
	return c.Request(ctx, &RequestConfig{Method: "POST", URL: url, Body: body})
}

// Put performs an HTTP PUT with the given body.
func (c *Client) Put(ctx context.Context, url string, body any) (*Response, error) {
	return c.Request(ctx, &RequestConfig{Method: "PUT", URL: url, Body: body})
}

// Patch performs an HTTP PATCH with the given body.
func (c *Client) Patch(ctx context.Context, url string, body any) (*Response, error) {
	return c.Request(ctx, &RequestConfig{Method: "PATCH", URL: url, Body: body})
}

// Delete performs an HTTP DELETE.
func (c *Client) Delete(ctx context.Context, url string) (*Response, error) {
	return c.Request(ctx, &RequestConfig{Method: "DELETE", URL: url})
}

// Request executes a request through the full pipeline: config merge,
// lifecycle hooks, cache lookup, retry loop over the transport, cache store.
// Every failure leaves this method as a normalized *APIError.
func (c *Client) Request(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	if c.validationError != nil {
		return nil, c.fail(ctx, newValidationError(c.validationError.Error()))
	}

	start := time.Now()
	merged := c.mergeConfig(cfg)
	endpoint := endpointFromConfig(merged)

	var requestID string
	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}

	if c.debug != nil && c.debug.Enabled && c.debug.LogRequests && c.logger != nil {
		c.logger.Debug("Starting request", "requestID", requestID, "method", merged.Method, "url", merged.URL, "endpoint", endpoint)
	}

	if c.metrics != nil {
		c.metrics.RecordRequestStart(merged.Method, endpoint)
		defer c.metrics.RecordRequestEnd(merged.Method, endpoint)
	}

	if err := c.runBeforeHooks(ctx, merged); err != nil {
		return nil, c.fail(ctx, err)
	}

	dedupEnabled := c.deduplication != nil && c.dedupCondition(merged)

	var dedupEntry *DeduplicationEntry
	var dedupKey string
	if dedupEnabled {
		dedupKey = c.dedupKeyFunc(merged)
		var owner bool
		dedupEntry, owner = c.deduplication.GetOrCreateEntry(dedupKey)

		if !owner {
			resp, err := dedupEntry.Wait(ctx)
			if c.metrics != nil {
				c.metrics.RecordDeduplicationHit(merged.Method, endpoint)
			}
			if c.debug != nil && c.debug.Enabled && c.logger != nil {
				c.logger.Debug("Deduplication hit", "requestID", requestID, "dedupKey", dedupKey)
			}
			if err != nil {
				return nil, Normalize(err)
			}
			return resp, nil
		}
	}

	cacheEnabled := c.shouldCacheRequest(ctx, merged)

	if cacheEnabled {
		cacheKey := c.cacheKeyFunc(merged)
		if entry, found := c.cache.Get(cacheKey); found {
			if c.debug != nil && c.debug.Enabled && c.debug.LogCache && c.logger != nil {
				c.logger.Debug("Cache hit", "requestID", requestID, "cacheKey", cacheKey)
			}
			if c.metrics != nil {
				c.metrics.RecordCacheHit(merged.Method, endpoint)
			}
			resp := responseFromCache(entry)
			if dedupEnabled {
				c.deduplication.Complete(dedupKey, resp, nil)
			}
			return resp, nil
		}
		if c.metrics != nil {
			c.metrics.RecordCacheMiss(merged.Method, endpoint)
		}
		if c.debug != nil && c.debug.Enabled && c.debug.LogCache && c.logger != nil {
			c.logger.Debug("Cache miss", "requestID", requestID, "cacheKey", cacheKey)
		}
	}

	resp, err := c.doWithRetry(ctx, merged, 0, requestID)

	if c.metrics != nil {
		c.recordOutcome(merged.Method, endpoint, resp, start)
	}

	if err == nil && resp != nil {
		if cacheEnabled && resp.StatusCode < 400 {
			cacheKey := c.cacheKeyFunc(merged)
			ttl := c.cacheTTLForRequest(ctx)
			c.cache.Set(cacheKey, cacheEntryFromResponse(resp), ttl)

			if c.metrics != nil {
				c.metrics.RecordCacheSize("default", c.cache.Stats().Size)
			}
			if c.debug != nil && c.debug.Enabled && c.debug.LogCache && c.logger != nil {
				c.logger.Debug("Response cached", "requestID", requestID, "cacheKey", cacheKey, "ttl", ttl)
			}
		}

		if hookErr := c.runAfterHooks(ctx, resp); hookErr != nil {
			err = hookErr
			resp = nil
		}
	}

	if err != nil {
		apiErr := Normalize(err)
		if dedupEnabled {
			c.deduplication.Complete(dedupKey, nil, apiErr)
		}
		return nil, c.fail(ctx, apiErr)
	}

	if dedupEnabled {
		c.deduplication.Complete(dedupKey, resp, nil)
	}

	return resp, nil
}

// doWithRetry drives attempts 0..MaxRetries over the transport. Attempts of
// one request run strictly sequentially; the only suspension points are the
// transport call and the inter-attempt sleep.
func (c *Client) doWithRetry(ctx context.Context, cfg *RequestConfig, attempt int, requestID string) (*Response, error) {
	endpoint := endpointFromConfig(cfg)

	if c.rateLimiter != nil && !c.rateLimiter.Allow() {
		if c.debug != nil && c.debug.Enabled && c.debug.LogRateLimit && c.logger != nil {
			c.logger.Warn("Rate limit exceeded", "requestID", requestID, "endpoint", endpoint)
		}
		if c.metrics != nil {
			c.metrics.RecordError("RateLimit", cfg.Method, endpoint)
			c.metrics.RecordRateLimiterTokens("default", c.rateLimiter.Tokens())
		}
		return nil, ErrRateLimited
	}

	if c.circuitBreaker != nil && !c.circuitBreaker.Allow() {
		if c.debug != nil && c.debug.Enabled && c.debug.LogCircuit && c.logger != nil {
			c.logger.Warn("Circuit breaker open", "requestID", requestID, "endpoint", endpoint)
		}
		if c.metrics != nil {
			c.metrics.RecordError("CircuitBreaker", cfg.Method, endpoint)
		}
		return nil, ErrCircuitOpen
	}

	if attempt > 0 {
		if c.debug != nil && c.debug.Enabled && c.debug.LogRetries && c.logger != nil {
			c.logger.Info("Retry attempt", "requestID", requestID, "attempt", attempt, "maxRetries", cfg.Retry.MaxRetries, "endpoint", endpoint)
		}
		if c.metrics != nil {
			c.metrics.RecordRetry(cfg.Method, endpoint, attempt)
		}
	}

	resp, err := c.executeAttempt(ctx, cfg)

	if err == nil && resp.StatusCode >= 400 {
		err = normalizeStatus(resp)
	}

	c.recordCircuit(err, requestID, cfg.Method, endpoint)

	if err == nil {
		return resp, nil
	}

	if !shouldRetry(cfg.Retry, err, attempt) {
		return nil, err
	}

	delay := nextDelay(cfg.Retry, resp, attempt)

	if c.debug != nil && c.debug.Enabled && c.debug.LogRetries && c.logger != nil {
		c.logger.Info("Scheduling retry", "requestID", requestID, "attempt", attempt+1, "backoff", delay, "endpoint", endpoint)
	}

	if sleepErr := sleep(ctx, delay); sleepErr != nil {
		return nil, sleepErr
	}

	return c.doWithRetry(ctx, cfg, attempt+1, requestID)
}

// executeAttempt runs one transport call through the middleware chain with
// the per-attempt timeout applied.
func (c *Client) executeAttempt(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	transport, err := c.transportFor(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	current := transport
	for i := len(c.middleware) - 1; i >= 0; i-- {
		mw := c.middleware[i]
		next := current
		current = TransportFunc(func(ctx context.Context, cfg *RequestConfig) (*Response, error) {
			return mw(ctx, cfg, next)
		})
	}

	return current.Execute(ctx, cfg)
}

func (c *Client) transportFor(cfg *RequestConfig) (Transport, error) {
	if cfg.Adapter == "" || cfg.Adapter == c.adapter {
		return c.transport, nil
	}
	return NewTransport(cfg.Adapter)
}

func (c *Client) recordCircuit(err error, requestID, method, endpoint string) {
	if c.circuitBreaker == nil {
		return
	}

	apiErr := Normalize(err)
	failure := apiErr != nil && (apiErr.Source == SourceNetwork || apiErr.Status >= 500)

	if failure {
		c.circuitBreaker.RecordFailure()
		if c.debug != nil && c.debug.Enabled && c.debug.LogCircuit && c.logger != nil {
			c.logger.Warn("Circuit breaker failure recorded", "requestID", requestID, "error", apiErr.Error())
		}
		if c.metrics != nil {
			if apiErr.Source == SourceNetwork {
				c.metrics.RecordError("Network", method, endpoint)
			} else {
				c.metrics.RecordError("Server", method, endpoint)
			}
		}
	} else {
		c.circuitBreaker.RecordSuccess()
	}

	if c.metrics != nil {
		c.metrics.RecordCircuitBreakerState("default", c.circuitBreaker.State())
	}
}

func (c *Client) runBeforeHooks(ctx context.Context, cfg *RequestConfig) error {
	for _, h := range c.hooks {
		if h.BeforeRequest == nil {
			continue
		}
		if err := h.BeforeRequest(ctx, cfg); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) runAfterHooks(ctx context.Context, resp *Response) error {
	for _, h := range c.hooks {
		if h.AfterResponse == nil {
			continue
		}
		if err := h.AfterResponse(ctx, resp); err != nil {
			return err
		}
	}
	return nil
}

// fail normalizes err, notifies OnError hooks and returns the result.
func (c *Client) fail(ctx context.Context, err error) error {
	apiErr := Normalize(err)
	for _, h := range c.hooks {
		if h.OnError != nil {
			h.OnError(ctx, apiErr)
		}
	}
	return apiErr
}

func (c *Client) recordOutcome(method, endpoint string, resp *Response, start time.Time) {
	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	c.metrics.RecordRequest(method, endpoint, statusCode, time.Since(start))
}

// ValidateConfiguration checks option combinations that New cannot reject
// type-safely.
func (c *Client) ValidateConfiguration() error {
	if c.retry.MaxRetries < 0 {
		return fmt.Errorf("maxRetries must be >= 0, got %d", c.retry.MaxRetries)
	}
	if c.retry.Delay < 0 {
		return fmt.Errorf("retry delay must be >= 0, got %v", c.retry.Delay)
	}
	if c.timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.timeout)
	}
	switch c.retry.Strategy {
	case "", RetryImmediate, RetryFixed, RetryExponential:
	default:
		return fmt.Errorf("unknown retry strategy %q", c.retry.Strategy)
	}
	if c.transport == nil {
		return fmt.Errorf("transport must not be nil")
	}
	return nil
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// CacheStats exposes the cache population, or a zero value when caching is
// disabled.
func (c *Client) CacheStats() CacheStats {
	if c.cache == nil {
		return CacheStats{}
	}
	return c.cache.Stats()
}

// ClearCache drops every cached response.
func (c *Client) ClearCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// JSON decodes a response body into T.
func JSON[T any](resp *Response) (T, error) {
	var out T
	if resp == nil {
		return out, newValidationError("cannot decode nil response")
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, newValidationError(fmt.Sprintf("cannot decode response body: %v", err))
	}
	return out, nil
}

// endpointFromConfig reduces a request URL to its path so metric labels stay
// low-cardinality.
func endpointFromConfig(cfg *RequestConfig) string {
	if cfg.URL == "" {
		return "unknown"
	}
	if u, err := url.Parse(cfg.URL); err == nil && u.Path != "" {
		return u.Path
	}
	return cfg.URL
}
