// Package apiclient provides a universal HTTP API client facade with
// composable reliability and traversal primitives:
//
//   - Pluggable transports (net/http by default, fasthttp as an alternative)
//   - Retries with immediate, fixed or exponential + jitter delay policies
//   - Bounded in-memory response caching with TTL and FIFO eviction
//   - Multi-strategy pagination (page, offset, cursor, Link header)
//   - GraphQL request envelope with strict error surfacing
//   - Circuit breaker, rate limiting and request de-duplication
//   - Lifecycle hooks and a middleware chain for cross-cutting concerns
//   - Prometheus metrics and lightweight structured debug logging
//
// Design goals:
//   - Small surface area: functional options configure everything
//   - One canonical error shape: every failure leaves the client as *APIError
//   - Safe concurrent use of a single *Client instance
//   - Extensibility via user supplied middleware & pluggable transport / cache
//
// Typical usage:
//
//	client := apiclient.New(
//	    apiclient.WithBaseURL("https://api.example.com"),
//	    apiclient.WithMaxRetries(3),
//	    apiclient.WithCache(5*time.Minute, 100),
//	)
//	resp, err := client.Get(ctx, "/users", map[string]any{"active": true})
//
// Paginated endpoints are traversed with a pull-based iterator:
//
//	pager := apiclient.Paginate[User](client, &apiclient.RequestConfig{URL: "/users"}, apiclient.PaginationConfig{
//	    Strategy:  apiclient.PaginatePage,
//	    DataField: "data",
//	})
//	users, err := pager.All(ctx)
//
// The client avoids opinionated logging: provide a Logger (e.g. via
// WithSimpleLogger or NewZerologLogger) and enable debug flags selectively
// for insight without noise.
package apiclient
