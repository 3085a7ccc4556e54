package search

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method      string
	path        string
	contentType string
	body        string
}

func newESServer(t *testing.T, status int) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var got []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, recordedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
		})
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestNewElasticBackendValidatesURL(t *testing.T) {
	_, err := NewElasticBackend("ftp://localhost:9200", nil)
	assert.Error(t, err)

	_, err = NewElasticBackend("http://", nil)
	assert.Error(t, err)

	_, err = NewElasticBackend("http://localhost:9200", nil)
	assert.NoError(t, err)
}

func TestElasticBackendIndexDocument(t *testing.T) {
	srv, got := newESServer(t, http.StatusCreated)
	b, err := NewElasticBackend(srv.URL+"/", srv.Client().Transport)
	require.NoError(t, err)

	err = b.IndexDocument(context.Background(), "sumotest_test_default", "42", map[string]string{"title": "Firefox"})
	require.NoError(t, err)

	require.Len(t, *got, 1)
	req := (*got)[0]
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/sumotest_test_default/_doc/42", req.path)
	assert.Equal(t, "application/json", req.contentType)
	assert.JSONEq(t, `{"title":"Firefox"}`, req.body)
}

func TestElasticBackendErrorStatus(t *testing.T) {
	srv, _ := newESServer(t, http.StatusBadRequest)
	b, err := NewElasticBackend(srv.URL, srv.Client().Transport)
	require.NoError(t, err)

	err = b.IndexDocument(context.Background(), "idx", "1", map[string]int{"n": 1})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, `{"error":"boom"}`, statusErr.Body)
}

func TestElasticBackendDeleteDocument(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		srv, got := newESServer(t, http.StatusOK)
		b, err := NewElasticBackend(srv.URL, srv.Client().Transport)
		require.NoError(t, err)

		require.NoError(t, b.DeleteDocument(context.Background(), "idx", "7"))
		require.Len(t, *got, 1)
		assert.Equal(t, http.MethodDelete, (*got)[0].method)
		assert.Equal(t, "/idx/_doc/7", (*got)[0].path)
	})

	t.Run("missing document", func(t *testing.T) {
		srv, _ := newESServer(t, http.StatusNotFound)
		b, err := NewElasticBackend(srv.URL, srv.Client().Transport)
		require.NoError(t, err)

		assert.NoError(t, b.DeleteDocument(context.Background(), "idx", "7"))
	})

	t.Run("server error", func(t *testing.T) {
		srv, _ := newESServer(t, http.StatusInternalServerError)
		b, err := NewElasticBackend(srv.URL, srv.Client().Transport)
		require.NoError(t, err)

		assert.Error(t, b.DeleteDocument(context.Background(), "idx", "7"))
	})
}

func TestElasticBackendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	b, err := NewElasticBackend(url, nil)
	require.NoError(t, err)
	err = b.IndexDocument(context.Background(), "idx", "1", struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PUT /idx/_doc/1")
}
