package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
)

// Adapter tags selecting a concrete Transport.
const (
	AdapterNetHTTP  = "nethttp"
	AdapterFastHTTP = "fasthttp"
)

// NewTransport returns the Transport registered for the adapter tag. The
// choice is validated here, at construction time, rather than on first use.
func NewTransport(adapter string) (Transport, error) {
	switch adapter {
	case "", AdapterNetHTTP:
		return NewHTTPTransport(nil), nil
	case AdapterFastHTTP:
		return NewFastHTTPTransport(nil), nil
	default:
		return nil, newValidationError(fmt.Sprintf("unknown transport adapter %q", adapter))
	}
}

// HTTPTransport executes requests with the standard net/http client. It is
// the default transport.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps the given client, or http.DefaultClient-like
// defaults when nil. Timeouts are enforced by the executor via context, not
// by the wrapped client.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{client: client}
}

// Execute implements the Transport interface.
func (t *HTTPTransport) Execute(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	body, contentType, err := encodeBody(cfg.Body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, cfg.Method, buildURL(cfg), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	if contentType != "" && cfg.Headers["Content-Type"] == "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	if cfg.Auth != nil {
		req.SetBasicAuth(cfg.Auth.Username, cfg.Auth.Password)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       drainBody(resp.Body),
	}, nil
}

// FastHTTPTransport executes requests with valyala/fasthttp. It trades
// context-native cancellation for throughput: cancellation is honored via
// the context deadline only.
type FastHTTPTransport struct {
	client *fasthttp.Client
}

// NewFastHTTPTransport wraps the given fasthttp client, creating one with
// defaults when nil.
func NewFastHTTPTransport(client *fasthttp.Client) *FastHTTPTransport {
	if client == nil {
		client = &fasthttp.Client{}
	}
	return &FastHTTPTransport{client: client}
}

// Execute implements the Transport interface.
func (t *FastHTTPTransport) Execute(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(cfg.Body)
	if err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(cfg.Method)
	req.SetRequestURI(buildURL(cfg))
	if contentType != "" && cfg.Headers["Content-Type"] == "" {
		req.Header.SetContentType(contentType)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	if cfg.Auth != nil {
		req.URI().SetUsername(cfg.Auth.Username)
		req.URI().SetPassword(cfg.Auth.Password)
	}
	if len(body) > 0 {
		req.SetBody(body)
	}

	if deadline, ok := ctx.Deadline(); ok {
		err = t.client.DoDeadline(req, resp, deadline)
	} else {
		err = t.client.Do(req, resp)
	}
	if err != nil {
		if err == fasthttp.ErrTimeout {
			return nil, context.DeadlineExceeded
		}
		return nil, err
	}

	header := make(http.Header)
	resp.Header.VisitAll(func(key, value []byte) {
		header.Add(string(key), string(value))
	})

	out := &Response{
		StatusCode: resp.StatusCode(),
		Header:     header,
		Body:       append([]byte(nil), resp.Body()...),
	}
	return out, nil
}

// encodeBody serializes a request body. Byte slices and strings pass
// through; anything else is JSON-encoded.
func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "", nil
	case string:
		return []byte(b), "", nil
	case json.RawMessage:
		return b, "application/json", nil
	default:
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, "", newValidationError(fmt.Sprintf("cannot encode request body: %v", err))
		}
		return raw, "application/json", nil
	}
}

// sleep waits for d unless the context finishes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
