package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/voxhire/interviewd/logging"
	"github.com/voxhire/interviewd/provider"
	"github.com/voxhire/interviewd/retrieval"
	"github.com/voxhire/interviewd/websearch"
)

// genericFallbackQuestion is asked when every pipeline step fails and the
// bank has nothing unasked to offer.
const genericFallbackQuestion = "请介绍一下你最近参与的一个项目。"

// GeneratedQuestion is the outcome of one question pipeline run.
type GeneratedQuestion struct {
	Question        string
	ReferenceAnswer string
	Source          string // rag/web/generated
	ThinkingMessage string // spoken while a slow step runs, empty when fast
}

// Generator runs the question pipeline: keyword extraction, bank retrieval,
// the web-search decision, optional web search and final synthesis. Every
// step has a deterministic fallback so Generate always yields a question.
type Generator struct {
	llm        provider.Completer
	llmPrecise provider.Completer
	bank       *retrieval.Engine
	search     *websearch.Client
	logger     logging.Logger
}

// NewGenerator wires the question pipeline.
func NewGenerator(llm, llmPrecise provider.Completer, bank *retrieval.Engine, search *websearch.Client, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Generator{llm: llm, llmPrecise: llmPrecise, bank: bank, search: search, logger: logger}
}

// Generate produces the next question for the session.
func (g *Generator) Generate(ctx context.Context, state *State) GeneratedQuestion {
	start := time.Now()
	stage := state.Stage()

	keywords := g.generateKeywords(ctx, state)
	state.SetSearchKeywords(keywords)

	bankResults := g.searchBank(ctx, state, keywords)

	needsSearch, thinking := g.decideWebSearch(bankResults, state)

	var webResults []websearch.Result
	if needsSearch {
		query := fmt.Sprintf("%s %s 面试题", state.JobTitle, strings.Join(keywords, " "))
		webResults = g.search.Search(ctx, query, 3)
		g.logger.Debug("web search completed", "query", query, "results", len(webResults))
	}

	result := g.synthesize(ctx, state, bankResults, webResults)
	result.ThinkingMessage = thinking

	g.logger.Info("question generated",
		"stage", string(stage),
		"source", result.Source,
		"web_search", needsSearch,
		"duration", time.Since(start))
	return result
}

// generateKeywords asks the precise model for 3-5 retrieval keywords. On any
// failure the fallback is the job title plus the stage name.
func (g *Generator) generateKeywords(ctx context.Context, state *State) []string {
	prompt := fmt.Sprintf(keywordPromptTemplate,
		truncateRunes(state.ResumeText, 1500),
		state.JobTitle,
		string(state.Stage()),
		formatRecentExchanges(state.RecentExchanges(3)),
	)

	start := time.Now()
	raw, err := g.llmPrecise.Complete(ctx, "你是一个关键词生成助手，只输出 JSON 数组。", prompt)
	logging.ModelCall(g.logger, "llm_precise", "generate_keywords", time.Since(start), err)
	if err != nil {
		return []string{state.JobTitle, string(state.Stage())}
	}

	var keywords []string
	if arr, ok := provider.ExtractJSONArray(raw); ok {
		if err := json.Unmarshal([]byte(arr), &keywords); err != nil {
			keywords = nil
		}
	}
	if keywords == nil {
		for _, part := range strings.Split(raw, ",") {
			part = strings.Trim(strings.TrimSpace(part), `"'`)
			if part != "" {
				keywords = append(keywords, part)
			}
		}
	}
	cleaned := keywords[:0]
	for _, k := range keywords {
		k = strings.Trim(strings.TrimSpace(k), `"'`)
		if k != "" {
			cleaned = append(cleaned, k)
		}
	}
	if len(cleaned) == 0 {
		return []string{state.JobTitle, string(state.Stage())}
	}
	return cleaned
}

// searchBank retrieves bank candidates and drops anything already asked.
func (g *Generator) searchBank(ctx context.Context, state *State, keywords []string) []retrieval.Result {
	results := g.bank.SearchByKeywords(ctx, keywords, 5, retrieval.Filter{})
	filtered := results[:0]
	for _, r := range results {
		if !state.HasAsked(r.Question) {
			filtered = append(filtered, r)
		}
	}
	g.logger.Debug("bank search completed", "keywords", strings.Join(keywords, " "), "unique_results", len(filtered))
	return filtered
}

// decideWebSearch applies the search policy and picks the filler phrase the
// candidate hears while the slow path runs.
func (g *Generator) decideWebSearch(bankResults []retrieval.Result, state *State) (bool, string) {
	stage := state.Stage()
	if !websearch.ShouldSearch(bankResults, string(stage), state.ResumeText) {
		return false, ""
	}
	if len(bankResults) == 0 {
		return true, fillerMessages[FillerSearching][0]
	}
	allLow := true
	for _, r := range bankResults {
		if r.Score >= 0.5 {
			allLow = false
			break
		}
	}
	if allLow {
		return true, fillerMessages[FillerWebSearch][0]
	}
	return true, fillerMessages[FillerWebSearch][1]
}

type synthesizedQuestion struct {
	Question        string `json:"question"`
	ReferenceAnswer string `json:"reference_answer"`
	Source          string `json:"source"`
	Difficulty      int    `json:"difficulty"`
}

// synthesize merges everything into the final question via the creative
// model. Failures fall back to the best unasked bank candidate, and as a
// last resort to the generic project question.
func (g *Generator) synthesize(ctx context.Context, state *State, bankResults []retrieval.Result, webResults []websearch.Result) GeneratedQuestion {
	stage := state.Stage()
	cfg := stage.Config()

	webFormatted := "无"
	if len(webResults) > 0 {
		webFormatted = websearch.FormatForPrompt(webResults)
	}

	prompt := fmt.Sprintf(questionPromptTemplate,
		fmt.Sprintf("%s (%d/%d)", string(stage), stage.Index()+1, len(StageOrder())),
		cfg.Description,
		truncateRunes(state.ResumeText, 1500),
		state.JobTitle,
		formatAskedQuestions(state.AskedQuestions()),
		formatBankResults(bankResults),
		webFormatted,
		formatRecentExchanges(state.RecentExchanges(3)),
	) + fmt.Sprintf(questionStageConstraint, string(stage))

	start := time.Now()
	raw, err := g.llm.Complete(ctx, systemPrompt, prompt)
	logging.ModelCall(g.logger, "llm", "synthesize_question", time.Since(start), err)
	if err != nil {
		return g.fallbackQuestion(state, bankResults)
	}

	var parsed synthesizedQuestion
	if obj, ok := provider.ExtractJSONObject(raw); ok {
		if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
			parsed = synthesizedQuestion{}
		}
	}
	if parsed.Question == "" {
		// No JSON in the reply; treat the raw text as the question itself.
		parsed = synthesizedQuestion{Question: strings.TrimSpace(raw), Source: "generated"}
	}
	if parsed.Question == "" || state.HasAsked(parsed.Question) {
		return g.fallbackQuestion(state, bankResults)
	}
	if parsed.Source == "" {
		parsed.Source = "generated"
	}
	return GeneratedQuestion{
		Question:        parsed.Question,
		ReferenceAnswer: parsed.ReferenceAnswer,
		Source:          parsed.Source,
	}
}

func (g *Generator) fallbackQuestion(state *State, bankResults []retrieval.Result) GeneratedQuestion {
	for _, r := range bankResults {
		if !state.HasAsked(r.Question) {
			return GeneratedQuestion{
				Question:        r.Question,
				ReferenceAnswer: r.ReferenceAnswer,
				Source:          "rag",
			}
		}
	}
	return GeneratedQuestion{Question: genericFallbackQuestion, Source: "generated"}
}
