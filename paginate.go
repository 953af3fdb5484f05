package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
)

// PaginationStrategy selects how page boundaries are communicated to the
// server.
type PaginationStrategy string

const (
	PaginatePage   PaginationStrategy = "page"
	PaginateOffset PaginationStrategy = "offset"
	PaginateCursor PaginationStrategy = "cursor"
	PaginateLink   PaginationStrategy = "link"
)

// Pagination defaults applied when the config leaves them zero.
const (
	DefaultPageSize = 20
	DefaultMaxPages = 100
)

// PaginationConfig describes how to drive and interpret a paginated
// endpoint. Zero values fall back to the documented defaults.
type PaginationConfig struct {
	Strategy PaginationStrategy

	// PageSize is the requested page length, sent as the limit parameter.
	PageSize int

	// MaxPages caps the number of pages the paginator will fetch.
	MaxPages int

	// DataField names the body field holding the item array. Empty means
	// the whole body is the array; a non-array body becomes a single-item
	// page.
	DataField string

	// TotalField names the body field carrying the total item count.
	TotalField string

	// HasNextField names the body field signalling more pages. Only a JSON
	// boolean true counts; anything else reads as false.
	HasNextField string

	// NextPageField names the body field carrying the next cursor or
	// next-page URL. A Link response header with rel="next" overrides it.
	NextPageField string
}

func (pc *PaginationConfig) applyDefaults() {
	if pc.Strategy == "" {
		pc.Strategy = PaginatePage
	}
	if pc.PageSize <= 0 {
		pc.PageSize = DefaultPageSize
	}
	if pc.MaxPages <= 0 {
		pc.MaxPages = DefaultMaxPages
	}
	if pc.TotalField == "" {
		pc.TotalField = "total"
	}
	if pc.HasNextField == "" {
		pc.HasNextField = "hasNext"
	}
	if pc.NextPageField == "" {
		pc.NextPageField = "nextPage"
	}
}

// Page is one yielded page of a paginated sequence.
type Page[T any] struct {
	Items    []T
	Number   int
	Total    int
	HasNext  bool
	Response *Response
}

// Paginator is a pull-based, single-pass cursor over a paginated endpoint.
// It is forward-only and not restartable: once exhausted or errored it stays
// terminal. A Paginator must not be pulled concurrently.
type Paginator[T any] struct {
	client *Client
	base   *RequestConfig
	config PaginationConfig

	page        int
	hasNext     bool
	nextPageURL string
	nextCursor  string
	err         error
}

// Paginate creates a paginator driving the client with copies of base. The
// base request's own params are preserved; strategy parameters are injected
// per page.
func Paginate[T any](client *Client, base *RequestConfig, config PaginationConfig) *Paginator[T] {
	config.applyDefaults()
	return &Paginator[T]{
		client:  client,
		base:    base.Clone(),
		config:  config,
		hasNext: true,
	}
}

// HasNext reports whether another page may be fetched.
func (p *Paginator[T]) HasNext() bool {
	return p.err == nil && p.hasNext && p.page < p.config.MaxPages
}

// Next fetches and returns the next page. A request error makes the
// paginator terminal and propagates unchanged; pulling past the end returns
// ErrIteratorExhausted.
func (p *Paginator[T]) Next(ctx context.Context) (*Page[T], error) {
	if p.err != nil {
		return nil, p.err
	}
	if !p.HasNext() {
		return nil, ErrIteratorExhausted
	}

	req := p.nextRequest()

	resp, err := p.client.Request(ctx, req)
	if err != nil {
		p.err = err
		p.hasNext = false
		return nil, err
	}

	page, err := p.interpret(resp)
	if err != nil {
		p.err = err
		p.hasNext = false
		return nil, err
	}

	if p.client.metrics != nil {
		p.client.metrics.RecordPage(string(p.config.Strategy), endpointFromConfig(req))
	}

	return page, nil
}

// All drains the remaining pages and returns the concatenated items.
func (p *Paginator[T]) All(ctx context.Context) ([]T, error) {
	var items []T
	for p.HasNext() {
		page, err := p.Next(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// Pages returns a lazy sequence of pages. Iteration stops after the first
// error, which is yielded with a nil page.
func (p *Paginator[T]) Pages(ctx context.Context) iter.Seq2[*Page[T], error] {
	return func(yield func(*Page[T], error) bool) {
		for p.HasNext() {
			page, err := p.Next(ctx)
			if !yield(page, err) || err != nil {
				return
			}
		}
	}
}

// Err returns the error that terminated the sequence, if any.
func (p *Paginator[T]) Err() error {
	return p.err
}

// nextRequest builds the request for the upcoming page, injecting
// strategy-specific parameters.
func (p *Paginator[T]) nextRequest() *RequestConfig {
	req := p.base.Clone()
	if req.Params == nil {
		req.Params = make(map[string]any)
	}

	switch p.config.Strategy {
	case PaginatePage:
		req.Params["page"] = p.page + 1
		req.Params["limit"] = p.config.PageSize
	case PaginateOffset:
		req.Params["offset"] = p.page * p.config.PageSize
		req.Params["limit"] = p.config.PageSize
	case PaginateCursor:
		req.Params["limit"] = p.config.PageSize
		if p.nextCursor != "" {
			req.Params["cursor"] = p.nextCursor
		}
	case PaginateLink:
		// The discovered next-page URL replaces the request target; its
		// query string already carries the server's own parameters.
		if p.nextPageURL != "" {
			req.URL = p.nextPageURL
			req.Params = nil
		}
	}

	return req
}

// interpret folds one response into the paginator state and produces the
// yielded page.
func (p *Paginator[T]) interpret(resp *Response) (*Page[T], error) {
	items, meta, err := extractPage[T](resp.Body, p.config)
	if err != nil {
		return nil, err
	}

	nextToken := meta.nextToken
	if link := parseLinkNext(resp.Header.Get("Link")); link != "" {
		nextToken = link
	}

	p.page++
	p.hasNext = meta.hasNext

	switch p.config.Strategy {
	case PaginateLink:
		// The link is authoritative: a next URL means more pages, its
		// absence means the end, regardless of any body flag.
		p.nextPageURL = nextToken
		p.hasNext = nextToken != ""
	case PaginateCursor:
		p.nextCursor = nextToken
	}

	if p.config.Strategy == PaginatePage && meta.totalPresent {
		p.hasNext = p.page < ceilDiv(meta.total, p.config.PageSize)
	} else if p.config.Strategy != PaginateLink && p.hasNext && len(items) < p.config.PageSize {
		// A short page means the server ran out even if the flag said
		// otherwise.
		p.hasNext = false
	}

	return &Page[T]{
		Items:    items,
		Number:   p.page,
		Total:    meta.total,
		HasNext:  p.hasNext,
		Response: resp,
	}, nil
}

type pageMeta struct {
	total        int
	totalPresent bool
	hasNext      bool
	nextToken    string
}

// extractPage pulls the item list and page metadata out of a response body.
func extractPage[T any](body []byte, config PaginationConfig) ([]T, pageMeta, error) {
	var meta pageMeta

	dataRaw := json.RawMessage(body)
	if config.DataField != "" {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, meta, newValidationError(fmt.Sprintf("cannot decode page body: %v", err))
		}
		dataRaw = envelope[config.DataField]

		if raw, ok := envelope[config.TotalField]; ok {
			var total int
			if err := json.Unmarshal(raw, &total); err == nil {
				meta.total = total
				meta.totalPresent = true
			}
		}
		if raw, ok := envelope[config.HasNextField]; ok {
			// Strict comparison: only the JSON literal true continues.
			meta.hasNext = bytes.Equal(bytes.TrimSpace(raw), []byte("true"))
		}
		if raw, ok := envelope[config.NextPageField]; ok {
			var token string
			if err := json.Unmarshal(raw, &token); err == nil {
				meta.nextToken = token
			}
		}
	}

	items, err := decodeItems[T](dataRaw)
	if err != nil {
		return nil, meta, err
	}
	return items, meta, nil
}

// decodeItems unmarshals an array, wrapping a non-array value as a
// single-element slice.
func decodeItems[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, newValidationError(fmt.Sprintf("cannot decode page items: %v", err))
		}
		return items, nil
	}

	var single T
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, newValidationError(fmt.Sprintf("cannot decode page item: %v", err))
	}
	return []T{single}, nil
}

func ceilDiv(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
