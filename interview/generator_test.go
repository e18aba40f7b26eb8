package interview

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/interviewd/logging"
	"github.com/voxhire/interviewd/provider"
	"github.com/voxhire/interviewd/retrieval"
	"github.com/voxhire/interviewd/websearch"
)

// newOfflineSearch returns a client whose every backend fails, so searches
// resolve to the synthetic placeholder without leaving the test process.
func newOfflineSearch(t *testing.T) *websearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	return websearch.New("", "", websearch.WithDuckDuckGoEndpoint(srv.URL))
}

func newTestGenerator(t *testing.T, llm, llmPrecise provider.Completer, bankOpts ...retrieval.Option) *Generator {
	t.Helper()
	bank := retrieval.New(provider.NewMockEmbedder(), bankOpts...)
	return NewGenerator(llm, llmPrecise, bank, newOfflineSearch(t), logging.NoOpLogger{})
}

func deepDiveState() *State {
	state := NewState("s1", "u1", "Python后端开发", "三年 Python 后端开发经验，熟悉 Django 和 MySQL。")
	state.CurrentStage = StageBasicKnowledge
	return state
}

func TestGenerateHappyPath(t *testing.T) {
	llm := provider.NewMockCompleter()
	llm.AddResponse("生成一个面试问题", `{"question":"请解释Python的内存管理机制。","reference_answer":"引用计数与分代回收","source":"generated","difficulty":3}`)
	llmPrecise := provider.NewMockCompleter()
	llmPrecise.AddResponse("检索面试题目的关键词", `["Python", "装饰器", "后端"]`)

	g := newTestGenerator(t, llm, llmPrecise)
	state := deepDiveState()

	result := g.Generate(context.Background(), state)

	assert.Equal(t, "请解释Python的内存管理机制。", result.Question)
	assert.Equal(t, "引用计数与分代回收", result.ReferenceAnswer)
	assert.Equal(t, "generated", result.Source)
	assert.Equal(t, []string{"Python", "装饰器", "后端"}, state.SearchKeywords)
}

func TestGenerateLogsModelCalls(t *testing.T) {
	llm := provider.NewMockCompleter()
	llm.AddResponse("生成一个面试问题", `{"question":"请解释GIL。","reference_answer":"","source":"generated"}`)
	llmPrecise := provider.NewMockCompleter()
	llmPrecise.AddResponse("检索面试题目的关键词", `["Python"]`)

	buf := &bytes.Buffer{}
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json", Output: buf})
	bank := retrieval.New(provider.NewMockEmbedder())
	g := NewGenerator(llm, llmPrecise, bank, newOfflineSearch(t), logger)

	g.Generate(context.Background(), deepDiveState())

	assert.Contains(t, buf.String(), `"operation":"generate_keywords"`)
	assert.Contains(t, buf.String(), `"operation":"synthesize_question"`)
}

func TestGenerateKeywordFallback(t *testing.T) {
	llm := provider.NewMockCompleter()
	llm.AddResponse("生成一个面试问题", `{"question":"问题","reference_answer":"","source":"generated"}`)
	llmPrecise := provider.NewMockCompleter()
	llmPrecise.Err = errors.New("model down")

	g := newTestGenerator(t, llm, llmPrecise)
	state := deepDiveState()

	g.Generate(context.Background(), state)

	assert.Equal(t, []string{"Python后端开发", "basic_knowledge"}, state.SearchKeywords)
}

func TestGenerateSynthesisFailureFallsBackToBank(t *testing.T) {
	llm := provider.NewMockCompleter()
	llm.Err = errors.New("model down")
	llmPrecise := provider.NewMockCompleter()
	llmPrecise.AddResponse("检索面试题目的关键词", `["Python"]`)

	g := newTestGenerator(t, llm, llmPrecise)
	state := deepDiveState()

	result := g.Generate(context.Background(), state)

	require.NotEmpty(t, result.Question)
	assert.Equal(t, "rag", result.Source)
	assert.NotEmpty(t, result.ReferenceAnswer)
}

func TestGenerateSkipsAlreadyAskedQuestions(t *testing.T) {
	asked := "Python中的GIL是什么？它有什么影响？"
	llm := provider.NewMockCompleter()
	llm.AddResponse("生成一个面试问题", `{"question":"`+asked+`","source":"generated"}`)
	llmPrecise := provider.NewMockCompleter()
	llmPrecise.AddResponse("检索面试题目的关键词", `["Python"]`)

	g := newTestGenerator(t, llm, llmPrecise)
	state := deepDiveState()
	state.AddRecord(QuestionRecord{Question: asked, Score: 6, Stage: state.Stage()})

	result := g.Generate(context.Background(), state)

	assert.NotEqual(t, asked, result.Question)
	require.NotEmpty(t, result.Question)
}

func TestGenerateGenericFallbackWhenEverythingFails(t *testing.T) {
	llm := provider.NewMockCompleter()
	llm.Err = errors.New("model down")
	llmPrecise := provider.NewMockCompleter()
	llmPrecise.Err = errors.New("model down")

	g := newTestGenerator(t, llm, llmPrecise, retrieval.WithCorpus(nil))
	state := deepDiveState()

	result := g.Generate(context.Background(), state)

	assert.Equal(t, genericFallbackQuestion, result.Question)
	assert.Equal(t, "generated", result.Source)
}

func TestDecideWebSearchThinkingMessages(t *testing.T) {
	g := newTestGenerator(t, provider.NewMockCompleter(), provider.NewMockCompleter())
	state := deepDiveState()

	needs, thinking := g.decideWebSearch(nil, state)
	assert.True(t, needs)
	assert.Equal(t, fillerMessages[FillerSearching][0], thinking)

	needs, thinking = g.decideWebSearch([]retrieval.Result{{Score: 0.1}}, state)
	assert.True(t, needs)
	assert.Equal(t, fillerMessages[FillerWebSearch][0], thinking)

	needs, thinking = g.decideWebSearch([]retrieval.Result{{Score: 0.9}}, state)
	assert.False(t, needs)
	assert.Empty(t, thinking)
}

func TestDecideWebSearchFreshTech(t *testing.T) {
	g := newTestGenerator(t, provider.NewMockCompleter(), provider.NewMockCompleter())
	state := NewState("s1", "u1", "平台工程师", "负责 Kubernetes 集群与 Kafka 消息平台。")
	state.CurrentStage = StageProjectDeepDive

	needs, thinking := g.decideWebSearch([]retrieval.Result{{Score: 0.9}}, state)
	assert.True(t, needs)
	assert.Equal(t, fillerMessages[FillerWebSearch][1], thinking)
}
