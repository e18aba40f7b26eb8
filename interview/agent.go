// Package interview implements the interview session engine: stage machine,
// session state, question pipeline, answer evaluation and the interviewer
// facade the transport layer drives.
package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voxhire/interviewd/logging"
	"github.com/voxhire/interviewd/provider"
	"github.com/voxhire/interviewd/retrieval"
	"github.com/voxhire/interviewd/websearch"
)

// Recorder receives dialogue events for persistence. A transcript writer
// satisfies this; nil-safe wrappers are applied internally so callers may
// pass nil to skip recording.
type Recorder interface {
	AppendQuestion(question, stage string, index int, isFollowUp bool, source string)
	AppendAnswer(answer string, score float64, feedback string)
	AppendStageTransition(from, to string)
	AppendSummary(totalQuestions int, totalScore float64, stageScores map[string]float64, durationMinutes int)
}

// QuestionResult is what the transport speaks to the candidate for one turn.
type QuestionResult struct {
	Question        string
	ReferenceAnswer string
	ThinkingMessage string
	Stage           Stage
}

// Summary aggregates a finished interview.
type Summary struct {
	TotalQuestions  int               `json:"total_questions"`
	AverageScore    float64           `json:"average_score"`
	DurationMinutes int               `json:"duration_minutes"`
	StageScores     map[Stage]float64 `json:"stage_scores"`
}

// Interviewer is the session-facing facade over the question pipeline and
// the evaluator. One Interviewer serves many sessions; per-session data
// lives in State and the per-session Recorder.
type Interviewer struct {
	llm       provider.Completer
	generator *Generator
	evaluator *Evaluator
	logger    logging.Logger
}

// NewInterviewer wires the interviewer from its two completers (creative and
// precise), the question bank and the web search client.
func NewInterviewer(llm, llmPrecise provider.Completer, bank *retrieval.Engine, search *websearch.Client, logger logging.Logger) *Interviewer {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Interviewer{
		llm:       llm,
		generator: NewGenerator(llm, llmPrecise, bank, search, logger),
		evaluator: NewEvaluator(llmPrecise, logger),
		logger:    logger,
	}
}

// Initialize creates the session state and generates the opening line. The
// opening never fails: model errors fall back to a fixed greeting.
func (i *Interviewer) Initialize(ctx context.Context, sessionID, userID, jobTitle, resumeText string) (*State, string) {
	state := NewState(sessionID, userID, jobTitle, resumeText)
	opening := i.opening(ctx, jobTitle)
	i.logger.Info("interview initialized", "session_id", sessionID, "user_id", userID, "job_title", jobTitle)
	return state, opening
}

func (i *Interviewer) opening(ctx context.Context, jobTitle string) string {
	const candidateName = "同学"
	prompt := fmt.Sprintf(openingPromptTemplate, candidateName, jobTitle)
	start := time.Now()
	raw, err := i.llm.Complete(ctx, "你是一位专业的 AI 面试官。", prompt)
	logging.ModelCall(i.logger, "llm", "generate_opening", time.Since(start), err)
	if err != nil || strings.TrimSpace(raw) == "" {
		return fmt.Sprintf("你好%s，我是今天的 AI 面试官。欢迎参加%s岗位的面试。请确认你的设备准备就绪，准备好了就可以开始。", candidateName, jobTitle)
	}
	return strings.TrimSpace(raw)
}

// NextQuestion runs the question pipeline, commits the question to the
// session state and records it.
func (i *Interviewer) NextQuestion(ctx context.Context, state *State, rec Recorder) QuestionResult {
	generated := i.generator.Generate(ctx, state)
	state.SetCurrentQuestion(generated.Question, generated.ReferenceAnswer)

	if rec != nil {
		rec.AppendQuestion(generated.Question, string(state.Stage()), state.QuestionCount()+1, false, generated.Source)
	}
	return QuestionResult{
		Question:        generated.Question,
		ReferenceAnswer: generated.ReferenceAnswer,
		ThinkingMessage: generated.ThinkingMessage,
		Stage:           state.Stage(),
	}
}

// ProcessAnswer evaluates the answer, appends the history record and applies
// the action policy.
//
// Contract:
//   - stage changes go through the forward-only gate; a rejected advance is
//     downgraded to next_question, never applied
//   - at most two consecutive follow-ups; the third becomes next_question
//   - in the closing stage the action is always end_interview
func (i *Interviewer) ProcessAnswer(ctx context.Context, state *State, answer string, rec Recorder) Analysis {
	stage := state.Stage()
	analysis := i.evaluator.Analyze(ctx, state, answer)

	state.AddRecord(QuestionRecord{
		Question:        state.CurrentQuestion,
		Answer:          answer,
		Score:           analysis.Score,
		Feedback:        analysis.Feedback,
		Stage:           stage,
		IsFollowUp:      state.FollowUpCount > 0,
		ReferenceAnswer: state.CurrentReference,
		Source:          "agent",
		Timestamp:       time.Now(),
	})
	if rec != nil {
		rec.AppendAnswer(answer, analysis.Score, analysis.Feedback)
	}

	if analysis.ShouldAdvanceStage || analysis.Action == ActionNextStage {
		next, ok := Next(stage)
		if !ok {
			analysis.Action = ActionEndInterview
		} else if err := state.ApplyTransition(next); err != nil {
			i.logger.Warn("stage advance rejected", "from", string(stage), "to", string(next), "error", err)
			analysis.ShouldAdvanceStage = false
			analysis.Action = ActionNextQuestion
		} else {
			if rec != nil {
				rec.AppendStageTransition(string(stage), string(next))
			}
			analysis.Action = ActionNextStage
			analysis.NextStage = next
			i.logger.Info("stage transition", "from", string(stage), "to", string(next))
		}
	}

	if analysis.Action == ActionFollowUp {
		if state.BumpFollowUp() >= 2 {
			analysis.Action = ActionNextQuestion
			analysis.FollowUpQuestion = ""
			state.ResetFollowUp()
		} else {
			if analysis.FollowUpQuestion == "" {
				analysis.FollowUpQuestion = i.evaluator.FollowUp(ctx, state, answer, analysis.Reason)
			}
			state.SetFollowUpQuestion(analysis.FollowUpQuestion, "")
			if rec != nil {
				rec.AppendQuestion(analysis.FollowUpQuestion, string(state.Stage()), state.QuestionCount()+1, true, "agent")
			}
		}
	} else {
		state.ResetFollowUp()
	}

	if state.Stage() == StageClosing {
		analysis.Action = ActionEndInterview
	}
	return analysis
}

// ForceNextStage advances the session one stage regardless of budget, used
// by the candidate's skip request. It returns the new stage, or false when
// the session is already at the terminal stage.
func (i *Interviewer) ForceNextStage(state *State, rec Recorder) (Stage, bool) {
	from := state.Stage()
	next, ok := Next(from)
	if !ok {
		return from, false
	}
	if err := state.ApplyTransition(next); err != nil {
		i.logger.Warn("forced stage advance rejected", "from", string(from), "error", err)
		return from, false
	}
	if rec != nil {
		rec.AppendStageTransition(string(from), string(next))
	}
	i.logger.Info("forced stage transition", "from", string(from), "to", string(next))
	return next, true
}

// EndInterview produces the closing line and the session summary, and writes
// the summary to the recorder. Like the opening, the closing never fails.
func (i *Interviewer) EndInterview(ctx context.Context, state *State, rec Recorder) (string, Summary) {
	totalQuestions := state.QuestionCount()
	averageScore := state.AverageScore()
	durationMinutes := int(time.Since(state.StartTime).Minutes())

	closing := i.closing(ctx, state, averageScore, durationMinutes)

	snapshot := state.Snapshot()
	if rec != nil {
		stageScores := make(map[string]float64, len(snapshot.StageScores))
		for stage, score := range snapshot.StageScores {
			stageScores[string(stage)] = score
		}
		rec.AppendSummary(totalQuestions, snapshot.TotalScore, stageScores, durationMinutes)
	}

	i.logger.Info("interview ended",
		"session_id", state.SessionID,
		"questions", totalQuestions,
		"average_score", averageScore,
		"duration_minutes", durationMinutes)

	return closing, Summary{
		TotalQuestions:  totalQuestions,
		AverageScore:    averageScore,
		DurationMinutes: durationMinutes,
		StageScores:     snapshot.StageScores,
	}
}

func (i *Interviewer) closing(ctx context.Context, state *State, averageScore float64, durationMinutes int) string {
	var sb strings.Builder
	for _, rec := range state.RecentExchanges(5) {
		fmt.Fprintf(&sb, "Q: %s... A: 评分%.1f\n", truncateRunes(rec.Question, 50), rec.Score)
	}
	prompt := fmt.Sprintf(closingPromptTemplate, sb.String(), averageScore, durationMinutes)

	start := time.Now()
	raw, err := i.llm.Complete(ctx, "你是一位专业的 AI 面试官。", prompt)
	logging.ModelCall(i.logger, "llm", "generate_closing", time.Since(start), err)
	if err != nil || strings.TrimSpace(raw) == "" {
		return "好的，今天的面试就到这里。感谢你的参与，后续结果我们会通过邮件通知你。祝你一切顺利！"
	}
	return strings.TrimSpace(raw)
}
