// Package websearch provides tiered web search for question grounding. The
// client tries Tavily first, then Serper, then the free DuckDuckGo instant
// answer API, and finally returns a synthetic placeholder result. A search
// never fails: callers always get a non-empty, non-error result set.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/voxhire/interviewd/logging"
)

const (
	defaultTavilyEndpoint = "https://api.tavily.com/search"
	defaultSerperEndpoint = "https://google.serper.dev/search"
	defaultDDGEndpoint    = "https://api.duckduckgo.com/"
)

// Result is one search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Client performs tiered web searches.
type Client struct {
	httpClient *http.Client
	logger     logging.Logger

	tavilyKey string
	serperKey string

	tavilyEndpoint string
	serperEndpoint string
	ddgEndpoint    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTavilyEndpoint overrides the Tavily API endpoint.
func WithTavilyEndpoint(endpoint string) Option {
	return func(c *Client) { c.tavilyEndpoint = endpoint }
}

// WithSerperEndpoint overrides the Serper API endpoint.
func WithSerperEndpoint(endpoint string) Option {
	return func(c *Client) { c.serperEndpoint = endpoint }
}

// WithDuckDuckGoEndpoint overrides the DuckDuckGo API endpoint.
func WithDuckDuckGoEndpoint(endpoint string) Option {
	return func(c *Client) { c.ddgEndpoint = endpoint }
}

// New creates a Client. Empty API keys disable the corresponding paid backend;
// the DuckDuckGo tier and the placeholder need no credentials.
func New(tavilyKey, serperKey string, opts ...Option) *Client {
	c := &Client{
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		logger:         logging.NoOpLogger{},
		tavilyKey:      tavilyKey,
		serperKey:      serperKey,
		tavilyEndpoint: defaultTavilyEndpoint,
		serperEndpoint: defaultSerperEndpoint,
		ddgEndpoint:    defaultDDGEndpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search walks the backend tiers until one yields results. The final tier is
// a synthetic placeholder, so the returned slice is never empty.
func (c *Client) Search(ctx context.Context, query string, maxResults int) []Result {
	if maxResults <= 0 {
		maxResults = 5
	}

	if c.tavilyKey != "" {
		if results, err := c.searchTavily(ctx, query, maxResults); err == nil && len(results) > 0 {
			return results
		} else if err != nil {
			c.logger.Warn("tavily search failed", "error", err)
		}
	}
	if c.serperKey != "" {
		if results, err := c.searchSerper(ctx, query, maxResults); err == nil && len(results) > 0 {
			return results
		} else if err != nil {
			c.logger.Warn("serper search failed", "error", err)
		}
	}
	if results, err := c.searchDuckDuckGo(ctx, query, maxResults); err == nil && len(results) > 0 {
		return results
	} else if err != nil {
		c.logger.Warn("duckduckgo search failed", "error", err)
	}

	return placeholderResults(query)
}

// SearchTechnicalTopic searches interview material for a technical topic.
func (c *Client) SearchTechnicalTopic(ctx context.Context, topic string) []Result {
	return c.Search(ctx, topic+" 技术 面试题 常见问题", 3)
}

func (c *Client) searchTavily(ctx context.Context, query string, maxResults int) ([]Result, error) {
	payload := map[string]any{
		"api_key":      c.tavilyKey,
		"query":        query,
		"max_results":  maxResults,
		"search_depth": "basic",
	}
	var parsed struct {
		Results []struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}
	if err := c.postJSON(ctx, c.tavilyEndpoint, nil, payload, &parsed); err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		results = append(results, Result{Title: item.Title, URL: item.URL, Content: item.Content, Score: item.Score})
	}
	return results, nil
}

func (c *Client) searchSerper(ctx context.Context, query string, maxResults int) ([]Result, error) {
	payload := map[string]any{"q": query, "num": maxResults}
	headers := map[string]string{"X-API-KEY": c.serperKey}
	var parsed struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := c.postJSON(ctx, c.serperEndpoint, headers, payload, &parsed); err != nil {
		return nil, err
	}
	results := make([]Result, 0, maxResults)
	for _, item := range parsed.Organic {
		if len(results) >= maxResults {
			break
		}
		results = append(results, Result{Title: item.Title, URL: item.Link, Content: item.Snippet, Score: 1.0})
	}
	return results, nil
}

func (c *Client) searchDuckDuckGo(ctx context.Context, query string, maxResults int) ([]Result, error) {
	endpoint := fmt.Sprintf("%s?q=%s&format=json&no_html=1", c.ddgEndpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("websearch: duckduckgo returned status %d", resp.StatusCode)
	}

	var parsed struct {
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		Heading       string `json:"Heading"`
		RelatedTopics []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	var results []Result
	if parsed.AbstractText != "" {
		results = append(results, Result{Title: parsed.Heading, URL: parsed.AbstractURL, Content: parsed.AbstractText, Score: 0.8})
	}
	for _, topic := range parsed.RelatedTopics {
		if len(results) >= maxResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		results = append(results, Result{Title: topic.Text, URL: topic.FirstURL, Content: topic.Text, Score: 0.8})
	}
	return results, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("websearch: %s returned status %d", endpoint, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// placeholderResults is the last tier: a single synthetic result explaining
// that live search is unavailable.
func placeholderResults(query string) []Result {
	return []Result{{
		Title:   fmt.Sprintf("关于 '%s' 的搜索结果", query),
		URL:     "https://example.com",
		Content: fmt.Sprintf("由于搜索服务暂时不可用，无法获取关于 '%s' 的实时信息。建议稍后重试。", query),
		Score:   0.0,
	}}
}

// FormatForPrompt renders results as a markdown block for prompt injection.
// Content is truncated to 200 runes per result.
func FormatForPrompt(results []Result) string {
	if len(results) == 0 {
		return "未找到相关搜索结果。"
	}
	var buf bytes.Buffer
	buf.WriteString("### 网络搜索结果\n\n")
	for i, r := range results {
		content := []rune(r.Content)
		if len(content) > 200 {
			content = content[:200]
		}
		fmt.Fprintf(&buf, "**%d. %s**\n", i+1, r.Title)
		fmt.Fprintf(&buf, "   %s...\n", string(content))
		fmt.Fprintf(&buf, "   来源: %s\n\n", r.URL)
	}
	return buf.String()
}
