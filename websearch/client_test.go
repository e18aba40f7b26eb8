package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/interviewd/retrieval"
)

func TestSearchTavilyFirstTier(t *testing.T) {
	tavily := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"results":[{"title":"Kafka 面试题","url":"https://a.example","content":"消息队列基础","score":0.92}]}`))
	}))
	defer tavily.Close()

	c := New("tavily-key", "", WithTavilyEndpoint(tavily.URL))
	results := c.Search(context.Background(), "Kafka", 3)

	require.Len(t, results, 1)
	assert.Equal(t, "Kafka 面试题", results[0].Title)
	assert.Equal(t, 0.92, results[0].Score)
}

func TestSearchFallsThroughToSerper(t *testing.T) {
	tavily := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer tavily.Close()
	serper := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "serper-key", r.Header.Get("X-API-KEY"))
		w.Write([]byte(`{"organic":[{"title":"ES 深度分页","link":"https://b.example","snippet":"scroll 与 search_after"}]}`))
	}))
	defer serper.Close()

	c := New("tavily-key", "serper-key", WithTavilyEndpoint(tavily.URL), WithSerperEndpoint(serper.URL))
	results := c.Search(context.Background(), "Elasticsearch 分页", 3)

	require.Len(t, results, 1)
	assert.Equal(t, "ES 深度分页", results[0].Title)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestSearchDuckDuckGoTier(t *testing.T) {
	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "format=json")
		w.Write([]byte(`{"Heading":"Kubernetes","AbstractText":"容器编排系统","AbstractURL":"https://c.example","RelatedTopics":[{"Text":"Pod 调度","FirstURL":"https://d.example"}]}`))
	}))
	defer ddg.Close()

	c := New("", "", WithDuckDuckGoEndpoint(ddg.URL))
	results := c.Search(context.Background(), "Kubernetes", 5)

	require.Len(t, results, 2)
	assert.Equal(t, "Kubernetes", results[0].Title)
	assert.Equal(t, 0.8, results[0].Score)
}

func TestSearchNeverReturnsEmpty(t *testing.T) {
	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ddg.Close()

	c := New("", "", WithDuckDuckGoEndpoint(ddg.URL))
	results := c.Search(context.Background(), "不存在的技术栈", 5)

	require.Len(t, results, 1)
	assert.Contains(t, results[0].Title, "不存在的技术栈")
	assert.Equal(t, 0.0, results[0].Score)
}

func TestFormatForPrompt(t *testing.T) {
	out := FormatForPrompt([]Result{
		{Title: "标题一", URL: "https://a.example", Content: "内容摘要"},
	})
	assert.True(t, strings.HasPrefix(out, "### 网络搜索结果"))
	assert.Contains(t, out, "**1. 标题一**")
	assert.Contains(t, out, "https://a.example")

	assert.Equal(t, "未找到相关搜索结果。", FormatForPrompt(nil))
}

func TestShouldSearchEmptyResults(t *testing.T) {
	assert.True(t, ShouldSearch(nil, "basic_knowledge", ""))
}

func TestShouldSearchAllLowScores(t *testing.T) {
	results := []retrieval.Result{{Score: 0.2}, {Score: 0.49}}
	assert.True(t, ShouldSearch(results, "basic_knowledge", ""))
}

func TestShouldSearchGoodScoresNoSearch(t *testing.T) {
	results := []retrieval.Result{{Score: 0.8}, {Score: 0.3}}
	assert.False(t, ShouldSearch(results, "basic_knowledge", "精通 Kubernetes 与 Kafka"))
}

func TestShouldSearchFreshTechDuringDeepDive(t *testing.T) {
	results := []retrieval.Result{{Score: 0.9}}
	assert.True(t, ShouldSearch(results, "project_deep_dive", "负责 Kubernetes 集群运维"))
	assert.False(t, ShouldSearch(results, "project_deep_dive", "负责 MySQL 主从架构"))
}
