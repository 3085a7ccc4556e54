package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBodyLen = 512

// Backend stores documents in a search engine.
type Backend interface {
	IndexDocument(ctx context.Context, index, id string, doc any) error
	DeleteDocument(ctx context.Context, index, id string) error
}

// StatusError is returned for an error response from the search engine.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// ElasticBackend talks to the Elasticsearch document API.
type ElasticBackend struct {
	client *elasticsearch.Client
}

// NewElasticBackend creates a backend for the cluster at rawURL (es.url).
// A nil transport gets the default one wrapped with otelhttp.
func NewElasticBackend(rawURL string, transport http.RoundTripper) (*ElasticBackend, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("search: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("search: unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("search: url has no host")
	}
	if transport == nil {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{strings.TrimSuffix(rawURL, "/")},
		Transport:    transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("search: create client: %w", err)
	}
	return &ElasticBackend{client: client}, nil
}

// IndexDocument creates or replaces document id in index.
func (b *ElasticBackend) IndexDocument(ctx context.Context, index, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("search: encode document %s/%s: %w", index, id, err)
	}

	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, b.client)
	_, err = checkResponse(http.MethodPut, docPath(index, id), res, err)
	return err
}

// DeleteDocument removes document id from index. A missing document is not an error.
func (b *ElasticBackend) DeleteDocument(ctx context.Context, index, id string) error {
	req := esapi.DeleteRequest{
		Index:      index,
		DocumentID: id,
	}
	res, err := req.Do(ctx, b.client)
	status, err := checkResponse(http.MethodDelete, docPath(index, id), res, err)
	if status == http.StatusNotFound {
		return nil
	}
	return err
}

func docPath(index, id string) string {
	return "/" + url.PathEscape(index) + "/_doc/" + url.PathEscape(id)
}

// checkResponse maps an esapi result to the response status and an error,
// draining and closing the body.
func checkResponse(method, path string, res *esapi.Response, err error) (int, error) {
	if err != nil {
		return 0, fmt.Errorf("search: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if !res.IsError() {
		_, _ = io.Copy(io.Discard, res.Body)
		return res.StatusCode, nil
	}

	msg, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBodyLen))
	return res.StatusCode, &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: res.StatusCode,
		Body:       strings.TrimSpace(string(msg)),
	}
}
