package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}

// indexProvider returns, for each text, a vector holding the text length.
type indexProvider struct {
	batch int
	calls atomic.Int32
	fail  bool
	short bool
	mu    sync.Mutex
	seen  []EmbeddingStrategy
}

func (p *indexProvider) MaxBatchSize() int { return p.batch }

func (p *indexProvider) CreateEmbeddings(_ context.Context, texts []string, s EmbeddingStrategy) ([][]float32, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.seen = append(p.seen, s)
	p.mu.Unlock()
	if p.fail {
		return nil, errors.New("provider down")
	}
	n := len(texts)
	if p.short {
		n--
	}
	out := make([][]float32, n)
	for i := 0; i < n; i++ {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return out, nil
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(make([]byte, i))
	}
	return out
}

func TestClientBatchesAndKeepsOrder(t *testing.T) {
	p := &indexProvider{batch: 10}
	c := NewClientWithProvider(p, Config{Model: "m", Concurrency: 3}, nopLogger{})

	in := texts(25)
	vectors, err := c.CreateEmbeddings(context.Background(), in, InputSearchDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 25)
	for i, v := range vectors {
		assert.Equal(t, float32(i), v[0])
	}
	assert.Equal(t, int32(3), p.calls.Load())
	for _, s := range p.seen {
		assert.Equal(t, InputSearchDocument, s.InputType)
		assert.Equal(t, "m", s.Model)
	}
}

func TestClientErrors(t *testing.T) {
	_, err := NewClientWithProvider(&indexProvider{batch: 5, fail: true}, Config{}, nopLogger{}).
		CreateEmbeddings(context.Background(), texts(3), InputSearchQuery)
	assert.Error(t, err)

	_, err = NewClientWithProvider(&indexProvider{batch: 5, short: true}, Config{}, nopLogger{}).
		CreateEmbeddings(context.Background(), texts(3), InputSearchQuery)
	assert.ErrorIs(t, err, ErrCountMismatch)
}

func TestClientEmptyInput(t *testing.T) {
	p := &indexProvider{batch: 5}
	vectors, err := NewClientWithProvider(p, Config{}, nopLogger{}).CreateEmbeddings(context.Background(), nil, InputSearchQuery)
	assert.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Zero(t, p.calls.Load())
}

func TestCohereProvider(t *testing.T) {
	var got cohereEmbedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embed", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"x","embeddings":{"float":[[0.1,0.2],[0.3,0.4]]}}`))
	}))
	defer srv.Close()

	p := NewCohereProvider(Config{Endpoint: srv.URL + "/", APIKey: "secret"})
	vectors, err := p.CreateEmbeddings(context.Background(), []string{"a", "b"}, EmbeddingStrategy{
		Model:     DefaultModel,
		InputType: InputSearchDocument,
		Truncate:  "END",
	})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, vectors)
	assert.Equal(t, []string{"a", "b"}, got.Texts)
	assert.Equal(t, "search_document", got.InputType)
	assert.Equal(t, []string{"float"}, got.EmbeddingTypes)
	assert.Equal(t, DefaultModel, got.Model)
}

func TestCohereProviderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer srv.Close()

	p := NewCohereProvider(Config{Endpoint: srv.URL, APIKey: "k"})
	_, err := p.CreateEmbeddings(context.Background(), []string{"a"}, EmbeddingStrategy{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestDecodeCohereEmbeddings(t *testing.T) {
	legacy, err := decodeCohereEmbeddings(json.RawMessage(`[[1,2]]`))
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}}, legacy)

	_, err = decodeCohereEmbeddings(json.RawMessage(`{"int8":[[1]]}`))
	assert.Error(t, err)

	_, err = decodeCohereEmbeddings(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "missing api key")

	cfg.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Provider = "bogus"
	assert.Error(t, cfg.Validate())
}
