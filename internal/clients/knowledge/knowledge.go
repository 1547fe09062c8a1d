// internal/clients/knowledge/knowledge.go
//
// Knowledge base answering. Articles are retrieved from an
// Elasticsearch index and the final reply is composed by an
// OpenAI-compatible model from the retrieved snippets only.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"itbot/internal/common/config"
	commonerrors "itbot/internal/common/errors"
	"itbot/internal/common/logger"
	"itbot/internal/dialogue"

	"github.com/elastic/go-elasticsearch/v8"
)

const systemPrompt = "You are an IT support assistant. Answer the user's question using only the provided knowledge base articles. If the articles do not cover the question, say you could not find relevant information. Answer in the language the question was asked in."

type Client struct {
	es     *elasticsearch.Client
	llm    *llmClient
	index  string
	topK   int
	logger logger.Logger
}

// Article is one retrieved knowledge base document.
type Article struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source Article `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func NewClient(es *elasticsearch.Client, cfg config.KnowledgeConfig, log logger.Logger) *Client {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		es:     es,
		llm:    newLLMClient(cfg.LLM, timeout),
		index:  cfg.Index,
		topK:   topK,
		logger: log.WithFields(map[string]interface{}{"component": "knowledge-client"}),
	}
}

// Answer retrieves candidate articles and composes the reply. When the
// index has nothing relevant it returns a localized no-results message
// rather than an error.
func (c *Client) Answer(ctx context.Context, query string) (string, error) {
	articles, err := c.search(ctx, query)
	if err != nil {
		return "", commonerrors.NewDownstreamError(commonerrors.ErrCodeKnowledgeSearchFailed, err.Error())
	}

	if len(articles) == 0 {
		if dialogue.SelectLanguage(query) == dialogue.LangChinese {
			return "抱歉，我在知识库中没有找到相关信息。您可以尝试换个方式描述，或者创建支持工单。", nil
		}
		return "I couldn't find relevant information in the knowledge base. You could try rephrasing your question, or I can create a support ticket for you.", nil
	}

	answer, err := c.llm.Complete(ctx, systemPrompt, buildPrompt(query, articles))
	if err != nil {
		return "", commonerrors.NewDownstreamError(commonerrors.ErrCodeAnswerGenFailed, err.Error())
	}

	c.logger.Debug("knowledge answer composed", map[string]interface{}{
		"articles": len(articles),
	})
	return answer, nil
}

func (c *Client) search(ctx context.Context, query string) ([]Article, error) {
	body := map[string]interface{}{
		"size": c.topK,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "content"},
			},
		},
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(strings.NewReader(string(jsonBody))),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	articles := make([]Article, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		articles = append(articles, hit.Source)
	}
	return articles, nil
}

func buildPrompt(query string, articles []Article) string {
	var b strings.Builder
	b.WriteString("Knowledge base articles:\n\n")
	for i, a := range articles {
		fmt.Fprintf(&b, "Article %d: %s\n%s\n\n", i+1, a.Title, a.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}
