package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/voxhire/interviewd/logging"
	"github.com/voxhire/interviewd/provider"
)

// Action is the interviewer's next move after an answer.
type Action string

const (
	ActionFollowUp     Action = "follow_up"
	ActionNextQuestion Action = "next_question"
	ActionNextStage    Action = "next_stage"
	ActionEndInterview Action = "end_interview"
)

// Analysis is the evaluation of one candidate answer.
type Analysis struct {
	Score              float64 `json:"score"`
	Feedback           string  `json:"feedback"`
	Action             Action  `json:"action"`
	FollowUpQuestion   string  `json:"follow_up_question,omitempty"`
	Reason             string  `json:"reason,omitempty"`
	ShouldAdvanceStage bool    `json:"should_advance_stage"`
	NextStage          Stage   `json:"next_stage,omitempty"`
}

// Evaluator scores answers and decides the next action. Model failures yield
// a neutral analysis (score 5, next question) so the interview always moves.
type Evaluator struct {
	llmPrecise provider.Completer
	logger     logging.Logger
}

// NewEvaluator creates an Evaluator on the precise (low temperature) model.
func NewEvaluator(llmPrecise provider.Completer, logger logging.Logger) *Evaluator {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Evaluator{llmPrecise: llmPrecise, logger: logger}
}

func neutralAnalysis(feedback string) Analysis {
	return Analysis{Score: 5, Feedback: feedback, Action: ActionNextQuestion}
}

// Analyze evaluates the candidate's answer to the current question.
//
// The model proposes score and action; the stage budget policy is applied on
// top of the model's output:
//   - stage question count at or above the maximum forces an advance
//   - at or above the minimum, a score of 7 or higher allows an early advance
func (e *Evaluator) Analyze(ctx context.Context, state *State, answer string) Analysis {
	stage := state.Stage()
	stageCount := state.StageQuestions()
	next, hasNext := Next(stage)
	nextName := "END"
	if hasNext {
		nextName = string(next)
	}

	prompt := fmt.Sprintf(analysisPromptTemplate,
		state.CurrentQuestion,
		orDefault(state.CurrentReference, "无"),
		answer,
		string(stage),
		stageCount,
		state.FollowUpCount,
		truncateRunes(state.ResumeText, 1000),
	) + fmt.Sprintf(analysisStageConstraint, string(stage), nextName)

	analysis := e.modelAnalysis(ctx, prompt)

	// Stage budget policy overrides the model where the budget says so.
	cfg := stage.Config()
	if stageCount >= cfg.MaxQuestions {
		analysis.ShouldAdvanceStage = true
	} else if stageCount >= cfg.MinQuestions && analysis.Score >= 7 {
		analysis.ShouldAdvanceStage = true
	}

	e.logger.Info("answer analyzed",
		"stage", string(stage),
		"score", analysis.Score,
		"action", string(analysis.Action),
		"should_advance", analysis.ShouldAdvanceStage)
	return analysis
}

func (e *Evaluator) modelAnalysis(ctx context.Context, prompt string) Analysis {
	start := time.Now()
	raw, err := e.llmPrecise.Complete(ctx, systemPrompt, prompt)
	logging.ModelCall(e.logger, "llm_precise", "analyze_answer", time.Since(start), err)
	if err != nil {
		return neutralAnalysis("系统处理中")
	}

	obj, ok := provider.ExtractJSONObject(raw)
	if !ok {
		return neutralAnalysis("回答已记录")
	}
	var analysis Analysis
	if err := json.Unmarshal([]byte(obj), &analysis); err != nil {
		e.logger.Warn("answer analysis parse failed", "error", err)
		return neutralAnalysis("回答已记录")
	}

	if analysis.Score < 0 {
		analysis.Score = 0
	}
	if analysis.Score > 10 {
		analysis.Score = 10
	}
	switch analysis.Action {
	case ActionFollowUp, ActionNextQuestion, ActionNextStage, ActionEndInterview:
	default:
		analysis.Action = ActionNextQuestion
	}
	return analysis
}

// FollowUp generates a follow-up question when the model asked for one but
// did not supply it.
func (e *Evaluator) FollowUp(ctx context.Context, state *State, answer, reason string) string {
	prompt := fmt.Sprintf(followUpPromptTemplate,
		state.CurrentQuestion,
		answer,
		orDefault(reason, "回答不够深入"),
		truncateRunes(state.ResumeText, 1000),
	)
	start := time.Now()
	raw, err := e.llmPrecise.Complete(ctx, systemPrompt, prompt)
	logging.ModelCall(e.logger, "llm_precise", "generate_follow_up", time.Since(start), err)
	if err != nil || strings.TrimSpace(raw) == "" {
		return "能具体展开讲讲吗？比如举一个实际的例子。"
	}
	return strings.TrimSpace(raw)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
