package apiclient

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
)

// WithBaseURL sets the base URL relative request paths resolve against
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHeader sets a default header applied to every request
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if c.headers == nil {
			c.headers = make(map[string]string)
		}
		c.headers[key] = value
	}
}

// WithHeaders sets default headers applied to every request
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		if c.headers == nil {
			c.headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithTimeout sets the per-attempt request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithBasicAuth sets credentials attached to every request
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.auth = &BasicAuth{Username: username, Password: password}
	}
}

// WithMaxRetries sets the maximum number of retry attempts
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.retry.MaxRetries = n
	}
}

// WithRetryDelay sets the base delay between retry attempts
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retry.Delay = d
	}
}

// WithRetryStrategy selects the inter-attempt delay policy
func WithRetryStrategy(s RetryStrategy) Option {
	return func(c *Client) {
		c.retry.Strategy = s
	}
}

// WithRetryableStatuses overrides the set of HTTP statuses that trigger a retry
func WithRetryableStatuses(statuses ...int) Option {
	return func(c *Client) {
		c.retry.Statuses = statuses
	}
}

// WithRetryConfig replaces the whole default retry policy
func WithRetryConfig(rc RetryConfig) Option {
	return func(c *Client) {
		c.retry = rc
	}
}

// WithTransport sets a custom transport implementation
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
		c.adapter = ""
	}
}

// WithAdapter selects a built-in transport by tag. Unknown tags surface as
// a construction-time validation error.
func WithAdapter(adapter string) Option {
	return func(c *Client) {
		t, err := NewTransport(adapter)
		if err != nil {
			c.validationError = err
			return
		}
		c.transport = t
		c.adapter = adapter
	}
}

// WithHTTPClient routes requests through the given net/http client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.transport = NewHTTPTransport(client)
		c.adapter = AdapterNetHTTP
	}
}

// WithFastHTTPClient routes requests through the given fasthttp client
func WithFastHTTPClient(client *fasthttp.Client) Option {
	return func(c *Client) {
		c.transport = NewFastHTTPTransport(client)
		c.adapter = AdapterFastHTTP
	}
}

// WithCache enables response caching with the bounded in-memory cache
func WithCache(ttl time.Duration, maxSize int) Option {
	return func(c *Client) {
		c.cache = NewInMemoryCache(maxSize)
		c.cacheTTL = ttl
	}
}

// WithCustomCache sets a custom cache implementation
func WithCustomCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithCacheKeyFunc sets a custom cache key function
func WithCacheKeyFunc(fn func(*RequestConfig) string) Option {
	return func(c *Client) {
		c.cacheKeyFunc = fn
	}
}

// WithCacheCondition sets a custom cache condition function
func WithCacheCondition(fn CacheCondition) Option {
	return func(c *Client) {
		c.cacheCondition = fn
	}
}

// WithHooks appends lifecycle hooks; hooks run in registration order
func WithHooks(hooks Hooks) Option {
	return func(c *Client) {
		c.hooks = append(c.hooks, hooks)
	}
}

// WithMiddleware adds middleware to the client
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithCircuitBreaker sets the circuit breaker configuration
func WithCircuitBreaker(config CircuitBreakerConfig) Option {
	return func(c *Client) {
		c.circuitBreaker = NewCircuitBreaker(config)
	}
}

// WithoutCircuitBreaker disables the circuit breaker entirely
func WithoutCircuitBreaker() Option {
	return func(c *Client) {
		c.circuitBreaker = nil
	}
}

// WithRateLimiter sets the rate limiter
func WithRateLimiter(maxTokens int, refillRate time.Duration) Option {
	return func(c *Client) {
		c.rateLimiter = NewRateLimiter(maxTokens, refillRate)
	}
}

// WithDeduplication enables request deduplication
func WithDeduplication() Option {
	return func(c *Client) {
		c.deduplication = NewDeduplicationTracker()
	}
}

// WithDeduplicationKeyFunc sets a custom deduplication key function
func WithDeduplicationKeyFunc(fn DeduplicationKeyFunc) Option {
	return func(c *Client) {
		c.dedupKeyFunc = fn
	}
}

// WithDeduplicationCondition sets a custom deduplication condition
func WithDeduplicationCondition(fn DeduplicationCondition) Option {
	return func(c *Client) {
		c.dedupCondition = fn
	}
}

// WithMetrics enables Prometheus metrics collection
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithDebug enables debug logging with default configuration
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a simple console logger
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}
