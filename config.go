package apiclient

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// mergeConfig combines client defaults with a per-request config into the
// effective config used for execution. Request values win on collision.
// Malformed URLs are not rejected here; they surface from the transport.
func (c *Client) mergeConfig(cfg *RequestConfig) *RequestConfig {
	merged := cfg.Clone()

	if merged.Method == "" {
		merged.Method = "GET"
	}

	if c.baseURL != "" && !isAbsoluteURL(merged.URL) {
		merged.URL = joinURL(c.baseURL, merged.URL)
	}

	if len(c.headers) > 0 {
		headers := make(map[string]string, len(c.headers)+len(merged.Headers))
		for k, v := range c.headers {
			headers[k] = v
		}
		for k, v := range merged.Headers {
			headers[k] = v
		}
		merged.Headers = headers
	}

	if merged.Timeout == 0 {
		merged.Timeout = c.timeout
	}
	if merged.Adapter == "" {
		merged.Adapter = c.adapter
	}
	if merged.Auth == nil {
		merged.Auth = c.auth
	}

	if merged.Retry == nil {
		rc := c.retry
		merged.Retry = &rc
	}
	if merged.Retry.Strategy == "" {
		merged.Retry.Strategy = RetryExponential
	}
	if merged.Retry.Delay == 0 {
		merged.Retry.Delay = c.retry.Delay
	}

	return merged
}

func isAbsoluteURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// joinURL concatenates a base URL and a relative path with exactly one
// separating slash, regardless of how many either side carried.
func joinURL(base, path string) string {
	base = strings.TrimRight(base, "/")
	path = strings.TrimLeft(path, "/")
	if path == "" {
		return base
	}
	return base + "/" + path
}

// buildURL renders the effective URL including encoded query parameters.
// Parameters are appended in sorted key order so the result is
// deterministic.
func buildURL(cfg *RequestConfig) string {
	if len(cfg.Params) == 0 {
		return cfg.URL
	}

	values := url.Values{}
	for k, v := range cfg.Params {
		values.Set(k, formatParam(v))
	}

	sep := "?"
	if strings.Contains(cfg.URL, "?") {
		sep = "&"
	}
	return cfg.URL + sep + values.Encode()
}

func formatParam(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// DefaultCacheKeyFunc builds the cache key from the request URL and the
// serialized parameter set. Params serialize in sorted key order, so two
// equal parameter maps always produce the same key.
func DefaultCacheKeyFunc(cfg *RequestConfig) string {
	if len(cfg.Params) == 0 {
		return cfg.URL
	}
	// encoding/json emits map keys sorted, which keeps the key stable.
	raw, err := json.Marshal(cfg.Params)
	if err != nil {
		keys := make([]string, 0, len(cfg.Params))
		for k := range cfg.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return cfg.URL + "?" + strings.Join(keys, ",")
	}
	return cfg.URL + string(raw)
}

// DefaultCacheCondition determines if a request should be cached
func DefaultCacheCondition(cfg *RequestConfig) bool {
	return cfg.Method == "GET"
}

// DefaultDeduplicationKeyFunc mirrors the cache key plus the method so only
// identical requests merge.
func DefaultDeduplicationKeyFunc(cfg *RequestConfig) string {
	return cfg.Method + ":" + DefaultCacheKeyFunc(cfg)
}

// DefaultDeduplicationCondition restricts deduplication to GET requests.
func DefaultDeduplicationCondition(cfg *RequestConfig) bool {
	return cfg.Method == "GET"
}
