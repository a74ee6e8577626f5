package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedBatches(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/embed", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req struct {
			Texts []string `json:"texts"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		out := make([][]float64, len(req.Texts))
		for i := range req.Texts {
			out[i] = []float64{float64(i), 1}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": out})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "", "secret")
	vecs, err := c.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 1}, {1, 1}, {2, 1}}, vecs)
	assert.Equal(t, 1, calls)

	none, err := c.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.Equal(t, 1, calls, "empty batch must not reach the service")
}

func TestEmbedCountMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1,2]]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", "").Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
}

func TestPredict(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		var req struct {
			Price  [][]float64 `json:"price"`
			Events [][]float64 `json:"events"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Price, 2)
		assert.Len(t, req.Events, 2)
		_, _ = w.Write([]byte(`{"prediction":0.75}`))
	}))
	defer srv.Close()

	c := NewClient("", srv.URL, "")
	got, err := c.Predict(context.Background(), [][]float64{{0, 0, 0, 0}, {1, 1, 1, 1}}, [][]float64{{0}, {1}})
	require.NoError(t, err)
	assert.Equal(t, 0.75, got)
}

func TestPredictErrors(t *testing.T) {
	t.Parallel()

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer empty.Close()

	_, err := NewClient("", empty.URL, "").Predict(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no prediction")

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()

	_, err = NewClient("", failing.URL, "").Predict(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
