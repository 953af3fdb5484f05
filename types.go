package apiclient

import (
	"context"
	"net/http"
	"time"
)

// Transport executes a single HTTP exchange against a remote server.
// Implementations must be safe for concurrent use.
type Transport interface {
	Execute(ctx context.Context, cfg *RequestConfig) (*Response, error)
}

// TransportFunc adapts a plain function to the Transport interface.
type TransportFunc func(ctx context.Context, cfg *RequestConfig) (*Response, error)

func (f TransportFunc) Execute(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	return f(ctx, cfg)
}

// Middleware wraps a Transport call with cross-cutting behavior. Middleware
// runs inside the retry loop, so it observes every attempt.
type Middleware func(ctx context.Context, cfg *RequestConfig, next Transport) (*Response, error)

// RequestConfig describes one HTTP request. The executor always works on a
// merged copy; the caller's instance is never mutated.
type RequestConfig struct {
	Method       string
	URL          string
	Headers      map[string]string
	Params       map[string]any
	Body         any
	Timeout      time.Duration
	Adapter      string
	Retry        *RetryConfig
	Auth         *BasicAuth
	ResponseType string
}

// Clone returns a copy with its own header and param maps. The body is
// shared.
func (c *RequestConfig) Clone() *RequestConfig {
	out := *c
	if c.Headers != nil {
		out.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			out.Headers[k] = v
		}
	}
	if c.Params != nil {
		out.Params = make(map[string]any, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	if c.Retry != nil {
		rc := *c.Retry
		out.Retry = &rc
	}
	return &out
}

// RetryConfig controls the retry loop for a request. A nil RetryConfig on a
// RequestConfig means the client defaults apply.
type RetryConfig struct {
	MaxRetries int
	Delay      time.Duration
	Strategy   RetryStrategy
	Statuses   []int
}

// RetryStrategy selects the inter-attempt delay policy.
type RetryStrategy string

const (
	RetryImmediate   RetryStrategy = "immediate"
	RetryFixed       RetryStrategy = "fixed"
	RetryExponential RetryStrategy = "exponential"
)

// BasicAuth carries credentials attached to outgoing requests.
type BasicAuth struct {
	Username string
	Password string
}

// Response is the transport-agnostic result of a completed exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Hooks observe and may mutate the request lifecycle. Each callback is
// optional; hooks registered on a client run in registration order.
type Hooks struct {
	BeforeRequest func(ctx context.Context, cfg *RequestConfig) error
	AfterResponse func(ctx context.Context, resp *Response) error
	OnError       func(ctx context.Context, err error)
}

// CacheEntry represents a cached response
type CacheEntry struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Cache interface for response caching
type Cache interface {
	Get(key string) (*CacheEntry, bool)
	Set(key string, entry *CacheEntry, ttl time.Duration)
	Delete(key string)
	Clear()
	Stats() CacheStats
}

// CacheStats reports the current cache population.
type CacheStats struct {
	Size int
	Keys []string
}

// CacheCondition determines whether a request should be cached
type CacheCondition func(cfg *RequestConfig) bool

// Context keys for cache control
type contextKey string

const (
	cacheControlKey contextKey = "apiclient_cache_control"
)

// CacheControl holds cache control options for a request
type CacheControl struct {
	Enabled bool
	TTL     time.Duration
}

// DeduplicationKeyFunc derives the key used to merge identical in-flight
// requests.
type DeduplicationKeyFunc func(cfg *RequestConfig) string

// DeduplicationCondition determines whether a request participates in
// deduplication.
type DeduplicationCondition func(cfg *RequestConfig) bool

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	SuccessThreshold int
}

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

// Option represents a configuration option
type Option func(*Client)
