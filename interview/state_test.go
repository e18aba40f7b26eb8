package interview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateStartsAtOpening(t *testing.T) {
	state := NewState("s1", "u1", "后端开发", "简历")
	assert.Equal(t, StageOpening, state.Stage())
	assert.Zero(t, state.StageQuestionCount)
	assert.Empty(t, state.History)
}

func TestTotalScoreEqualsSumOfRecords(t *testing.T) {
	state := NewState("s1", "u1", "后端开发", "简历")

	scores := []float64{7, 4.5, 9, 6}
	var sum float64
	for _, score := range scores {
		state.AddRecord(QuestionRecord{Question: "q", Score: score, Stage: state.Stage(), Timestamp: time.Now()})
		sum += score
	}

	assert.Equal(t, sum, state.TotalScore)
	assert.Equal(t, sum, state.StageScores[StageOpening])
	assert.Equal(t, len(scores), state.QuestionCount())
	assert.Equal(t, sum/float64(len(scores)), state.AverageScore())
}

func TestApplyTransitionResetsCounters(t *testing.T) {
	state := NewState("s1", "u1", "后端开发", "简历")
	state.SetCurrentQuestion("q1", "")
	state.BumpFollowUp()

	require.NoError(t, state.ApplyTransition(StageSelfIntro))

	assert.Equal(t, StageSelfIntro, state.Stage())
	assert.Zero(t, state.StageQuestionCount)
	assert.Zero(t, state.FollowUpCount)
}

func TestApplyTransitionRejectsSkipAndKeepsState(t *testing.T) {
	state := NewState("s1", "u1", "后端开发", "简历")
	state.SetCurrentQuestion("q1", "")

	err := state.ApplyTransition(StageBasicKnowledge)

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StageOpening, state.Stage())
	assert.Equal(t, 1, state.StageQuestionCount)
}

func TestAskedQuestionsIncludesInFlight(t *testing.T) {
	state := NewState("s1", "u1", "后端开发", "简历")
	state.AddRecord(QuestionRecord{Question: "第一题", Score: 5})
	state.SetCurrentQuestion("第二题", "")

	assert.Equal(t, []string{"第一题", "第二题"}, state.AskedQuestions())
	assert.True(t, state.HasAsked("第一题"))
	assert.True(t, state.HasAsked("第二题"))
	assert.False(t, state.HasAsked("第三题"))
}

func TestSetFollowUpQuestionDoesNotBumpStageCount(t *testing.T) {
	state := NewState("s1", "u1", "后端开发", "简历")
	state.SetCurrentQuestion("原问题", "参考")
	require.Equal(t, 1, state.StageQuestionCount)

	state.SetFollowUpQuestion("追问", "")

	assert.Equal(t, 1, state.StageQuestionCount)
	assert.Equal(t, "追问", state.CurrentQuestion)
}

func TestStageQuestionsTracksCurrentStage(t *testing.T) {
	state := NewState("s1", "u1", "后端开发", "简历")
	state.SetCurrentQuestion("q1", "")
	state.SetCurrentQuestion("q2", "")

	assert.Equal(t, 2, state.StageQuestions())

	require.NoError(t, state.ApplyTransition(StageSelfIntro))
	assert.Zero(t, state.StageQuestions())
}

func TestRecentExchangesReturnsTail(t *testing.T) {
	state := NewState("s1", "u1", "后端开发", "简历")
	for i := 0; i < 5; i++ {
		state.AddRecord(QuestionRecord{Question: string(rune('a' + i)), Score: 5})
	}

	recent := state.RecentExchanges(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "d", recent[0].Question)
	assert.Equal(t, "e", recent[1].Question)

	assert.Len(t, state.RecentExchanges(10), 5)
	assert.Nil(t, state.RecentExchanges(0))
}

func TestSnapshotIsACopy(t *testing.T) {
	state := NewState("s1", "u1", "后端开发", "简历")
	state.AddRecord(QuestionRecord{Question: "q", Score: 6, Stage: StageOpening})

	snap := state.Snapshot()
	snap.StageScores[StageOpening] = 99

	assert.Equal(t, 6.0, state.StageScores[StageOpening])
	assert.Equal(t, "s1", snap.SessionID)
	assert.Equal(t, 1, snap.QuestionCount)
}
