package interview

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/interviewd/logging"
	"github.com/voxhire/interviewd/provider"
	"github.com/voxhire/interviewd/retrieval"
)

type recordedQuestion struct {
	question   string
	stage      string
	index      int
	isFollowUp bool
	source     string
}

type fakeRecorder struct {
	questions   []recordedQuestion
	answers     []string
	transitions []string
	summaries   int
}

func (r *fakeRecorder) AppendQuestion(question, stage string, index int, isFollowUp bool, source string) {
	r.questions = append(r.questions, recordedQuestion{question, stage, index, isFollowUp, source})
}

func (r *fakeRecorder) AppendAnswer(answer string, score float64, feedback string) {
	r.answers = append(r.answers, answer)
}

func (r *fakeRecorder) AppendStageTransition(from, to string) {
	r.transitions = append(r.transitions, from+"->"+to)
}

func (r *fakeRecorder) AppendSummary(int, float64, map[string]float64, int) {
	r.summaries++
}

func newTestInterviewer(t *testing.T, llm, llmPrecise provider.Completer) *Interviewer {
	t.Helper()
	bank := retrieval.New(provider.NewMockEmbedder())
	return NewInterviewer(llm, llmPrecise, bank, newOfflineSearch(t), logging.NoOpLogger{})
}

func TestInitializeGeneratesOpening(t *testing.T) {
	llm := provider.NewMockCompleter()
	llm.AddResponse("生成面试开场白", "你好，我是今天的 AI 面试官，我们开始吧。")
	i := newTestInterviewer(t, llm, provider.NewMockCompleter())

	state, opening := i.Initialize(context.Background(), "s1", "u1", "后端开发", "简历")

	assert.Equal(t, StageOpening, state.Stage())
	assert.Equal(t, "你好，我是今天的 AI 面试官，我们开始吧。", opening)
}

func TestInitializeOpeningFallback(t *testing.T) {
	llm := provider.NewMockCompleter()
	llm.Err = errors.New("model down")
	i := newTestInterviewer(t, llm, provider.NewMockCompleter())

	_, opening := i.Initialize(context.Background(), "s1", "u1", "后端开发", "简历")

	assert.Contains(t, opening, "AI 面试官")
	assert.Contains(t, opening, "后端开发")
}

func TestNextQuestionCommitsAndRecords(t *testing.T) {
	llm := provider.NewMockCompleter()
	llm.AddResponse("生成一个面试问题", `{"question":"请介绍你负责过的服务拆分。","reference_answer":"关注边界划分","source":"generated"}`)
	llmPrecise := provider.NewMockCompleter()
	llmPrecise.AddResponse("检索面试题目的关键词", `["微服务"]`)
	i := newTestInterviewer(t, llm, llmPrecise)

	state := NewState("s1", "u1", "后端开发", "简历")
	state.CurrentStage = StageProjectDeepDive
	rec := &fakeRecorder{}

	result := i.NextQuestion(context.Background(), state, rec)

	assert.Equal(t, "请介绍你负责过的服务拆分。", result.Question)
	assert.Equal(t, StageProjectDeepDive, result.Stage)
	assert.Equal(t, "请介绍你负责过的服务拆分。", state.CurrentQuestion)
	assert.Equal(t, 1, state.StageQuestionCount)

	require.Len(t, rec.questions, 1)
	assert.Equal(t, 1, rec.questions[0].index)
	assert.False(t, rec.questions[0].isFollowUp)
	assert.Equal(t, "generated", rec.questions[0].source)
}

func TestProcessAnswerAdvancesAtStageMax(t *testing.T) {
	llmPrecise := provider.NewMockCompleter()
	llmPrecise.AddResponse("分析候选人的回答", `{"score":8,"feedback":"介绍清晰","action":"next_question","should_advance_stage":false}`)
	i := newTestInterviewer(t, provider.NewMockCompleter(), llmPrecise)

	state := NewState("s1", "u1", "后端开发", "简历")
	state.CurrentStage = StageSelfIntro
	state.StageQuestionCount = 2
	state.CurrentQuestion = "请介绍一下你自己。"
	rec := &fakeRecorder{}

	analysis := i.ProcessAnswer(context.Background(), state, "我叫……", rec)

	assert.Equal(t, ActionNextStage, analysis.Action)
	assert.Equal(t, StageProjectDeepDive, analysis.NextStage)
	assert.Equal(t, StageProjectDeepDive, state.Stage())
	assert.Zero(t, state.StageQuestionCount)
	assert.Zero(t, state.FollowUpCount)
	assert.Equal(t, []string{"self_intro->project_deep_dive"}, rec.transitions)

	require.Len(t, state.History, 1)
	assert.Equal(t, StageSelfIntro, state.History[0].Stage)
	assert.Equal(t, 8.0, state.History[0].Score)
	assert.Equal(t, 8.0, state.TotalScore)
}

func TestProcessAnswerFollowUpThenCap(t *testing.T) {
	llmPrecise := provider.NewMockCompleter()
	llmPrecise.AddResponse("分析候选人的回答", `{"score":6,"feedback":"可以更深入","action":"follow_up","follow_up_question":"能举一个具体例子吗？","should_advance_stage":false}`)
	i := newTestInterviewer(t, provider.NewMockCompleter(), llmPrecise)

	state := NewState("s1", "u1", "后端开发", "简历")
	state.CurrentStage = StageProjectDeepDive
	state.StageQuestionCount = 1
	state.CurrentQuestion = "介绍一下这个项目。"
	rec := &fakeRecorder{}

	first := i.ProcessAnswer(context.Background(), state, "我做了一个服务。", rec)
	assert.Equal(t, ActionFollowUp, first.Action)
	assert.Equal(t, "能举一个具体例子吗？", first.FollowUpQuestion)
	assert.Equal(t, 1, state.FollowUpCount)
	assert.Equal(t, "能举一个具体例子吗？", state.CurrentQuestion)
	// Follow-ups do not consume stage budget.
	assert.Equal(t, 1, state.StageQuestionCount)
	require.Len(t, rec.questions, 1)
	assert.True(t, rec.questions[0].isFollowUp)

	second := i.ProcessAnswer(context.Background(), state, "比如订单服务。", rec)
	assert.Equal(t, ActionNextQuestion, second.Action)
	assert.Empty(t, second.FollowUpQuestion)
	assert.Zero(t, state.FollowUpCount)

	// The second exchange was answered while a follow-up was pending.
	require.Len(t, state.History, 2)
	assert.True(t, state.History[1].IsFollowUp)
}

func TestProcessAnswerClosingForcesEnd(t *testing.T) {
	llmPrecise := provider.NewMockCompleter()
	llmPrecise.AddResponse("分析候选人的回答", `{"score":5,"feedback":"","action":"next_question","should_advance_stage":false}`)
	i := newTestInterviewer(t, provider.NewMockCompleter(), llmPrecise)

	state := NewState("s1", "u1", "后端开发", "简历")
	state.CurrentStage = StageClosing
	state.CurrentQuestion = "没有问题了吧？"

	analysis := i.ProcessAnswer(context.Background(), state, "没有了。", nil)

	assert.Equal(t, ActionEndInterview, analysis.Action)
}

func TestProcessAnswerReverseInterviewAdvanceEndsInterview(t *testing.T) {
	llmPrecise := provider.NewMockCompleter()
	llmPrecise.AddResponse("分析候选人的回答", `{"score":6,"feedback":"","action":"next_question","should_advance_stage":false}`)
	i := newTestInterviewer(t, provider.NewMockCompleter(), llmPrecise)

	state := NewState("s1", "u1", "后端开发", "简历")
	state.CurrentStage = StageReverseInterview
	state.StageQuestionCount = 1
	state.CurrentQuestion = "你还有什么想问我的吗？"

	analysis := i.ProcessAnswer(context.Background(), state, "团队规模多大？", nil)

	assert.Equal(t, StageClosing, state.Stage())
	assert.Equal(t, ActionEndInterview, analysis.Action)
	assert.Equal(t, StageClosing, analysis.NextStage)
}

func TestForceNextStage(t *testing.T) {
	i := newTestInterviewer(t, provider.NewMockCompleter(), provider.NewMockCompleter())
	state := NewState("s1", "u1", "后端开发", "简历")
	rec := &fakeRecorder{}

	next, ok := i.ForceNextStage(state, rec)
	require.True(t, ok)
	assert.Equal(t, StageSelfIntro, next)
	assert.Equal(t, []string{"opening->self_intro"}, rec.transitions)

	state.CurrentStage = StageClosing
	_, ok = i.ForceNextStage(state, rec)
	assert.False(t, ok)
}

func TestEndInterviewSummary(t *testing.T) {
	llm := provider.NewMockCompleter()
	llm.AddResponse("生成面试结束语", "感谢你的参与，后续结果会邮件通知你。")
	i := newTestInterviewer(t, llm, provider.NewMockCompleter())

	state := NewState("s1", "u1", "后端开发", "简历")
	state.AddRecord(QuestionRecord{Question: "q1", Score: 8, Stage: StageSelfIntro})
	state.AddRecord(QuestionRecord{Question: "q2", Score: 6, Stage: StageProjectDeepDive})
	rec := &fakeRecorder{}

	closing, summary := i.EndInterview(context.Background(), state, rec)

	assert.Equal(t, "感谢你的参与，后续结果会邮件通知你。", closing)
	assert.Equal(t, 2, summary.TotalQuestions)
	assert.Equal(t, 7.0, summary.AverageScore)
	assert.Equal(t, 8.0, summary.StageScores[StageSelfIntro])
	assert.Equal(t, 1, rec.summaries)
}

func TestEndInterviewClosingFallback(t *testing.T) {
	llm := provider.NewMockCompleter()
	llm.Err = errors.New("model down")
	i := newTestInterviewer(t, llm, provider.NewMockCompleter())

	state := NewState("s1", "u1", "后端开发", "简历")
	closing, _ := i.EndInterview(context.Background(), state, nil)

	assert.Contains(t, closing, "感谢你的参与")
}

func TestFillerMessageKnownAndUnknownKinds(t *testing.T) {
	assert.Contains(t, fillerMessages[FillerThinking], FillerMessage(FillerThinking))
	assert.Contains(t, fillerMessages[FillerThinking], FillerMessage(FillerKind("unknown")))
	assert.Contains(t, fillerMessages[FillerTransitioning], FillerMessage(FillerTransitioning))
}
