package directory

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeES struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	respond  func(r *http.Request) (int, string)
}

func (f *fakeES) RoundTrip(r *http.Request) (*http.Response, error) {
	var body string
	if r.Body != nil {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	}
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()

	status, payload := f.respond(r)
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("X-Elastic-Product", "Elasticsearch")
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(payload)),
		Request:    r,
	}, nil
}

func newFakeElastic(t *testing.T, respond func(r *http.Request) (int, string)) (*Elastic, *fakeES) {
	t.Helper()
	fake := &fakeES{respond: respond}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://es.test:9200"},
		Transport: fake,
	})
	require.NoError(t, err)
	return &Elastic{ES: client, Index: "users"}, fake
}

func TestElastic_IndexAccount(t *testing.T) {
	t.Parallel()

	e, fake := newFakeElastic(t, func(r *http.Request) (int, string) {
		return http.StatusCreated, `{"result":"created"}`
	})

	err := e.IndexAccount(context.Background(), Entry{ID: 42, Username: "alice@x.io", FirstName: "Alice"})
	require.NoError(t, err)

	require.Len(t, fake.requests, 1)
	assert.Equal(t, "/users/_doc/42", fake.requests[0].URL.Path)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(fake.bodies[0]), &doc))
	assert.Equal(t, "alice@x.io", doc["username"])
	assert.NotContains(t, fake.bodies[0], "password")
}

func TestElastic_Search(t *testing.T) {
	t.Parallel()

	e, fake := newFakeElastic(t, func(r *http.Request) (int, string) {
		return http.StatusOK, `{"hits":{"total":{"value":2},"hits":[
			{"_source":{"id":1,"username":"alice@x.io","firstName":"Alice","lastName":"A"}},
			{"_source":{"id":3,"username":"alicia@x.io","firstName":"Alicia","lastName":"B"}}]}}`
	})

	total, entries, err := e.Search(context.Background(), "alice", 10, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, entries, 2)
	assert.Equal(t, uint(3), entries[1].ID)
	assert.Equal(t, "Alicia", entries[1].FirstName)

	require.Len(t, fake.requests, 1)
	assert.Equal(t, "/users/_search", fake.requests[0].URL.Path)
	assert.Contains(t, fake.bodies[0], `"multi_match"`)
	assert.Contains(t, fake.bodies[0], `"from":10`)
}

func TestElastic_SearchError(t *testing.T) {
	t.Parallel()

	e, _ := newFakeElastic(t, func(r *http.Request) (int, string) {
		return http.StatusBadRequest, `{"error":"bad"}`
	})

	_, _, err := e.Search(context.Background(), "alice", 0, 10)
	assert.Error(t, err)
	assert.Error(t, e.IndexAccount(context.Background(), Entry{ID: 1}))
}

func TestElastic_EnsureIndex(t *testing.T) {
	t.Parallel()

	e, fake := newFakeElastic(t, func(r *http.Request) (int, string) {
		if r.Method == http.MethodHead {
			return http.StatusNotFound, ``
		}
		return http.StatusOK, `{"acknowledged":true}`
	})

	require.NoError(t, e.EnsureIndex(context.Background()))
	require.Len(t, fake.requests, 2)
	assert.Equal(t, http.MethodPut, fake.requests[1].Method)
	assert.Contains(t, fake.bodies[1], `"mappings"`)

	existing, fake2 := newFakeElastic(t, func(r *http.Request) (int, string) { return http.StatusOK, `` })
	require.NoError(t, existing.EnsureIndex(context.Background()))
	assert.Len(t, fake2.requests, 1)
}

func TestNewPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		number, size int
		want         Page
	}{
		{name: "first page", number: 1, size: 10, want: Page{Number: 1, Size: 10, From: 0}},
		{name: "third page", number: 3, size: 20, want: Page{Number: 3, Size: 20, From: 40}},
		{name: "zero values", number: 0, size: 0, want: Page{Number: 1, Size: DefaultPageSize, From: 0}},
		{name: "negative page", number: -4, size: 5, want: Page{Number: 1, Size: 5, From: 0}},
		{name: "oversized", number: 2, size: 500, want: Page{Number: 2, Size: MaxPageSize, From: MaxPageSize}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NewPage(tt.number, tt.size))
		})
	}
}

func TestNop(t *testing.T) {
	t.Parallel()

	var n Nop
	require.NoError(t, n.IndexAccount(context.Background(), Entry{}))
	total, entries, err := n.Search(context.Background(), "x", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, entries)
}
