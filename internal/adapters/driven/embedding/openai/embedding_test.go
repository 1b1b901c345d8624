package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studybuddy/internal/adapters/driven/httperr"
	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

func newService(t *testing.T, h http.HandlerFunc, cfg Config) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg.APIKey = "sk-test"
	cfg.BaseURL = srv.URL + "/v1"
	svc, err := NewEmbeddingService(cfg)
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService_RequiresKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.ErrorContains(t, err, "API key is required")
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "sk"})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 1536, svc.Dimensions())
	assert.False(t, svc.sendDims)
	assert.NoError(t, svc.Close())
}

func TestNewEmbeddingService_Dimensions(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "sk", Model: "text-embedding-3-large", Dimensions: 256})
	require.NoError(t, err)
	assert.Equal(t, 256, svc.Dimensions())
	assert.True(t, svc.sendDims)

	svc, err = NewEmbeddingService(Config{APIKey: "sk", Model: "text-embedding-ada-002", Dimensions: 1536})
	require.NoError(t, err)
	assert.False(t, svc.sendDims)

	_, err = NewEmbeddingService(Config{APIKey: "sk", Model: "local-model"})
	assert.ErrorContains(t, err, "unknown dimensions")
}

func TestEmbedBatch_RequestAndOrdering(t *testing.T) {
	var body map[string]any
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0, 1]},
				{"object": "embedding", "index": 0, "embedding": [1, 0]}
			],
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`))
	}, Config{Model: "text-embedding-3-small", Dimensions: 2})

	vectors, err := svc.EmbedBatch(context.Background(), []string{"first", "second"}, domain.TaskQuestionAnswering)

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
	assert.Equal(t, "text-embedding-3-small", body["model"])
	assert.Equal(t, []any{"first", "second"}, body["input"])
	assert.InDelta(t, 2, body["dimensions"], 0)
}

func TestEmbed_Single(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.25,0.5]}],"model":"m","usage":{"prompt_tokens":1,"total_tokens":1}}`))
	}, Config{})

	v, err := svc.Embed(context.Background(), "q", domain.TaskRetrievalQuery)

	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5}, v)
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	svc := newService(t, func(http.ResponseWriter, *http.Request) {
		t.Error("unexpected request")
	}, Config{})

	vectors, err := svc.EmbedBatch(context.Background(), nil, domain.TaskQuestionAnswering)

	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[],"model":"m","usage":{"prompt_tokens":0,"total_tokens":0}}`))
	}, Config{})

	_, err := svc.EmbedBatch(context.Background(), []string{"a"}, domain.TaskQuestionAnswering)

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorContains(t, err, "0 embeddings for 1 inputs")
}

func TestEmbedBatch_APIError(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "4")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
	}, Config{})

	_, err := svc.EmbedBatch(context.Background(), []string{"a"}, domain.TaskQuestionAnswering)

	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	var se *httperr.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, "Rate limit reached", se.Message)
	assert.True(t, httperr.IsTransient(err))
}

func TestPing(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models/text-embedding-3-small", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"text-embedding-3-small","object":"model","created":1,"owned_by":"system"}`))
	}, Config{})

	assert.NoError(t, svc.Ping(context.Background()))
}

func TestPing_Unauthorised(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}, Config{})

	err := svc.Ping(context.Background())

	assert.ErrorContains(t, err, "Incorrect API key provided")
	assert.False(t, httperr.IsTransient(err))
}
