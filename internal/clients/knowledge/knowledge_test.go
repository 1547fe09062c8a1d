// internal/clients/knowledge/knowledge_test.go
package knowledge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"itbot/internal/common/config"
	commonerrors "itbot/internal/common/errors"
	"itbot/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newFakeES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return es
}

func esHits(articles ...Article) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hits := make([]map[string]interface{}, 0, len(articles))
		for _, a := range articles {
			hits = append(hits, map[string]interface{}{"_source": a})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"hits": map[string]interface{}{"hits": hits},
		})
	}
}

func newTestClient(t *testing.T, es *elasticsearch.Client, llmURL string) *Client {
	return NewClient(es, config.KnowledgeConfig{
		Index:     "kb_articles",
		TopK:      3,
		TimeoutMS: 2000,
		LLM: config.LLMConfig{
			BaseURL: llmURL,
			APIKey:  "test-key",
			Model:   "gpt-4o-mini",
		},
	}, logger.NewTestLogger(t))
}

// ==========================
// Answer Tests
// ==========================

func TestAnswer_ComposesFromRetrievedArticles(t *testing.T) {
	es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/kb_articles/_search", r.URL.Path)
		esHits(
			Article{Title: "VPN Setup", Content: "Install the client and use SSO."},
			Article{Title: "VPN Troubleshooting", Content: "Restart the client first."},
		)(w, r)
	})

	var prompt string
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		prompt = req.Messages[1].Content

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "Install the VPN client and sign in with SSO."}},
			},
		})
	}))
	defer llm.Close()

	answer, err := newTestClient(t, es, llm.URL).Answer(context.Background(), "how do I set up the VPN?")
	require.NoError(t, err)
	assert.Equal(t, "Install the VPN client and sign in with SSO.", answer)
	assert.Contains(t, prompt, "VPN Setup")
	assert.Contains(t, prompt, "how do I set up the VPN?")
}

func TestAnswer_NoHitsReturnsFallback(t *testing.T) {
	es := newFakeES(t, esHits())

	t.Run("english", func(t *testing.T) {
		answer, err := newTestClient(t, es, "http://llm.invalid").Answer(context.Background(), "how do I fix the coffee machine?")
		require.NoError(t, err)
		assert.Contains(t, answer, "couldn't find relevant information")
	})

	t.Run("chinese", func(t *testing.T) {
		answer, err := newTestClient(t, es, "http://llm.invalid").Answer(context.Background(), "怎么修咖啡机")
		require.NoError(t, err)
		assert.Contains(t, answer, "没有找到相关信息")
	})
}

func TestAnswer_SearchFailure(t *testing.T) {
	es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "shard failure", http.StatusInternalServerError)
	})

	_, err := newTestClient(t, es, "http://llm.invalid").Answer(context.Background(), "vpn")
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeKnowledgeSearchFailed, commonerrors.CodeOf(err))
}

func TestAnswer_GenerationFailure(t *testing.T) {
	es := newFakeES(t, esHits(Article{Title: "VPN Setup", Content: "Install the client."}))
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer llm.Close()

	_, err := newTestClient(t, es, llm.URL).Answer(context.Background(), "vpn")
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeAnswerGenFailed, commonerrors.CodeOf(err))
}
