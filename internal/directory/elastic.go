package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
)

// Entry is the searchable projection of an account. It never carries credentials.
type Entry struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type Indexer interface {
	IndexAccount(ctx context.Context, e Entry) error
}

type Searcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []Entry, error)
}

type Elastic struct {
	ES    *elasticsearch.Client
	Index string
}

func NewClient(ctx context.Context, url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}
	return client, nil
}

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":        {"type": "long"},
      "username":  {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "firstName": {"type": "text"},
      "lastName":  {"type": "text"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (e *Elastic) EnsureIndex(ctx context.Context) error {
	res, err := e.ES.Indices.Exists([]string{e.Index}, e.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = e.ES.Indices.Create(e.Index,
		e.ES.Indices.Create.WithContext(ctx),
		e.ES.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
	)
	if err != nil {
		return fmt.Errorf("index create: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index create: %s", res.Status())
	}
	return nil
}

func (e *Elastic) IndexAccount(ctx context.Context, entry Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("index account: %w", err)
	}

	res, err := e.ES.Index(e.Index, bytes.NewReader(body),
		e.ES.Index.WithContext(ctx),
		e.ES.Index.WithDocumentID(strconv.FormatUint(uint64(entry.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index account: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index account: %s", res.Status())
	}
	return nil
}

func (e *Elastic) Search(ctx context.Context, query string, from, size int) (int64, []Entry, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"username^2", "firstName", "lastName"},
				"fuzziness": "AUTO",
			},
		},
		"sort": []interface{}{"_score", map[string]string{"id": "asc"}},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}

	res, err := e.ES.Search(
		e.ES.Search.WithContext(ctx),
		e.ES.Search.WithIndex(e.Index),
		e.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source Entry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search decode: %w", err)
	}

	out := make([]Entry, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		out[i] = hit.Source
	}
	return r.Hits.Total.Value, out, nil
}

// Nop ignores writes and finds nothing.
type Nop struct{}

func (Nop) IndexAccount(context.Context, Entry) error { return nil }

func (Nop) Search(context.Context, string, int, int) (int64, []Entry, error) {
	return 0, nil, nil
}
