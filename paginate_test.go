package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

type item struct {
	ID int `json:"id"`
}

func itemRange(start, count int) []item {
	items := make([]item, count)
	for i := range items {
		items[i] = item{ID: start + i}
	}
	return items
}

func TestPaginatePageStrategy(t *testing.T) {
	const total = 45
	const pageSize = 20

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit != pageSize {
			t.Errorf("Expected limit=%d, got %d", pageSize, limit)
		}

		start := (page - 1) * pageSize
		count := total - start
		if count > pageSize {
			count = pageSize
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":  itemRange(start, count),
			"total": total,
		})
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	paginator := Paginate[item](client, &RequestConfig{URL: "/items"}, PaginationConfig{
		Strategy:  PaginatePage,
		PageSize:  pageSize,
		DataField: "data",
	})

	var pages []*Page[item]
	for paginator.HasNext() {
		page, err := paginator.Next(context.Background())
		if err != nil {
			t.Fatalf("Unexpected error on page %d: %v", len(pages)+1, err)
		}
		pages = append(pages, page)
	}

	if len(pages) != 3 {
		t.Fatalf("Expected 3 pages for total=45 pageSize=20, got %d", len(pages))
	}
	for i, want := range []int{20, 20, 5} {
		if len(pages[i].Items) != want {
			t.Errorf("page %d: expected %d items, got %d", i+1, want, len(pages[i].Items))
		}
	}
	if pages[2].HasNext {
		t.Error("Expected the last page to report no next page")
	}
	if pages[0].Total != total {
		t.Errorf("Expected total %d carried on the page, got %d", total, pages[0].Total)
	}

	if _, err := paginator.Next(context.Background()); !errors.Is(err, ErrIteratorExhausted) {
		t.Errorf("Expected ErrIteratorExhausted past the end, got %v", err)
	}
}

func TestPaginateOffsetStrategy(t *testing.T) {
	var offsets []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		offsets = append(offsets, offset)

		count := 5
		if offset >= 10 {
			count = 2 // short page ends the sequence
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":    itemRange(offset, count),
			"hasNext": true,
		})
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	paginator := Paginate[item](client, &RequestConfig{URL: "/items"}, PaginationConfig{
		Strategy:  PaginateOffset,
		PageSize:  5,
		DataField: "data",
	})

	items, err := paginator.All(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(items) != 12 {
		t.Errorf("Expected 12 items, got %d", len(items))
	}
	wantOffsets := []int{0, 5, 10}
	if len(offsets) != len(wantOffsets) {
		t.Fatalf("Expected offsets %v, got %v", wantOffsets, offsets)
	}
	for i := range wantOffsets {
		if offsets[i] != wantOffsets[i] {
			t.Fatalf("Expected offsets %v, got %v", wantOffsets, offsets)
		}
	}
}

func TestPaginateCursorStrategy(t *testing.T) {
	var cursors []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("cursor")
		cursors = append(cursors, cursor)

		switch cursor {
		case "":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data":     itemRange(0, 2),
				"hasNext":  true,
				"nextPage": "cur-2",
			})
		case "cur-2":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data":    itemRange(2, 1),
				"hasNext": false,
			})
		default:
			t.Errorf("Unexpected cursor %q", cursor)
		}
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	paginator := Paginate[item](client, &RequestConfig{URL: "/feed"}, PaginationConfig{
		Strategy:  PaginateCursor,
		PageSize:  2,
		DataField: "data",
	})

	items, err := paginator.All(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(items) != 3 {
		t.Errorf("Expected 3 items, got %d", len(items))
	}
	if len(cursors) != 2 || cursors[0] != "" || cursors[1] != "cur-2" {
		t.Errorf("Expected the first request without a cursor then cursor=cur-2, got %v", cursors)
	}
}

func TestPaginateCursorStrictHasNext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// hasNext is a string, not the JSON boolean true.
		_, _ = w.Write([]byte(`{"data": [{"id": 1}, {"id": 2}], "hasNext": "true", "nextPage": "x"}`))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	paginator := Paginate[item](client, &RequestConfig{URL: "/feed"}, PaginationConfig{
		Strategy:  PaginateCursor,
		PageSize:  2,
		DataField: "data",
	})

	page, err := paginator.Next(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if page.HasNext {
		t.Error("Expected a non-boolean hasNext to read as false")
	}
	if paginator.HasNext() {
		t.Error("Expected the paginator to be exhausted")
	}
}

func TestPaginateLinkStrategy(t *testing.T) {
	var paths []string
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.String())

		switch r.URL.Path {
		case "/items":
			w.Header().Set("Link", fmt.Sprintf(`<%s/items/page2?since=40>; rel="next"`, server.URL))
			_ = json.NewEncoder(w).Encode(itemRange(0, 2))
		case "/items/page2":
			if r.URL.Query().Get("since") != "40" {
				t.Errorf("Expected the discovered URL's query to be preserved, got %q", r.URL.RawQuery)
			}
			_ = json.NewEncoder(w).Encode(itemRange(2, 1))
		default:
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	paginator := Paginate[item](client, &RequestConfig{URL: "/items"}, PaginationConfig{
		Strategy: PaginateLink,
		PageSize: 2,
	})

	items, err := paginator.All(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(items) != 3 {
		t.Errorf("Expected 3 items across linked pages, got %d", len(items))
	}
	if len(paths) != 2 {
		t.Fatalf("Expected 2 requests, got %v", paths)
	}
	if paths[1] != "/items/page2?since=40" {
		t.Errorf("Expected the second request to follow the Link URL, got %q", paths[1])
	}
}

func TestPaginateLinkHeaderOverridesBodyToken(t *testing.T) {
	var paths []string
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)

		if r.URL.Path == "/a" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/from-header>; rel="next"`, server.URL))
			_, _ = w.Write([]byte(`{"data": [{"id": 1}], "nextPage": "/from-body"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	paginator := Paginate[item](client, &RequestConfig{URL: "/a"}, PaginationConfig{
		Strategy:  PaginateLink,
		DataField: "data",
	})

	if _, err := paginator.All(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(paths) != 2 || paths[1] != "/from-header" {
		t.Errorf("Expected the Link header target to win over the body token, got %v", paths)
	}
}

func TestPaginateMaxPagesCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":    itemRange(0, 2),
			"hasNext": true,
		})
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	paginator := Paginate[item](client, &RequestConfig{URL: "/endless"}, PaginationConfig{
		Strategy:  PaginateOffset,
		PageSize:  2,
		MaxPages:  3,
		DataField: "data",
	})

	items, err := paginator.All(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(items) != 6 {
		t.Errorf("Expected maxPages to cap the sequence at 6 items, got %d", len(items))
	}
	if paginator.HasNext() {
		t.Error("Expected HasNext to be false at the page cap")
	}
}

func TestPaginateErrorIsTerminal(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	paginator := Paginate[item](client, &RequestConfig{URL: "/broken"}, PaginationConfig{
		Strategy:  PaginatePage,
		DataField: "data",
	})

	_, err := paginator.Next(context.Background())
	if err == nil {
		t.Fatal("Expected an error")
	}
	if paginator.Err() == nil {
		t.Error("Expected Err to report the terminal error")
	}
	if paginator.HasNext() {
		t.Error("Expected a failed paginator to stop")
	}

	_, again := paginator.Next(context.Background())
	if !errors.Is(again, err) && again != err {
		t.Errorf("Expected the stored error on subsequent pulls, got %v", again)
	}
	if calls != 1 {
		t.Errorf("Expected no further requests after the failure, got %d", calls)
	}
}

func TestPaginatePagesSequence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		count := 2
		if page == 2 {
			count = 1
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":  itemRange((page-1)*2, count),
			"total": 3,
		})
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	paginator := Paginate[item](client, &RequestConfig{URL: "/items"}, PaginationConfig{
		Strategy:  PaginatePage,
		PageSize:  2,
		DataField: "data",
	})

	var numbers []int
	for page, err := range paginator.Pages(context.Background()) {
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		numbers = append(numbers, page.Number)
	}

	if len(numbers) != 2 || numbers[0] != 1 || numbers[1] != 2 {
		t.Errorf("Expected pages 1 and 2, got %v", numbers)
	}
}

func TestPaginateBareArrayBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(itemRange(0, 3))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	paginator := Paginate[item](client, &RequestConfig{URL: "/plain"}, PaginationConfig{
		Strategy: PaginatePage,
		PageSize: 5,
	})

	page, err := paginator.Next(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(page.Items) != 3 {
		t.Errorf("Expected the whole body as the item array, got %d items", len(page.Items))
	}
	if page.HasNext {
		t.Error("Expected a short bare-array page to end the sequence")
	}
}

func TestExtractPageSingleObject(t *testing.T) {
	items, _, err := extractPage[item]([]byte(`{"data": {"id": 9}, "total": 1}`), PaginationConfig{
		DataField:  "data",
		TotalField: "total",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != 9 {
		t.Errorf("Expected a single wrapped item, got %v", items)
	}
}
