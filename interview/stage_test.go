package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageOrderIsFixed(t *testing.T) {
	order := StageOrder()
	require.Len(t, order, 7)
	assert.Equal(t, StageOpening, order[0])
	assert.Equal(t, StageClosing, order[6])
}

func TestTransitionAcceptsSingleForwardStep(t *testing.T) {
	order := StageOrder()
	for i := 0; i < len(order)-1; i++ {
		next, err := Transition(order[i], order[i+1])
		require.NoError(t, err)
		assert.Equal(t, order[i+1], next)
	}
}

func TestTransitionRejectsSkip(t *testing.T) {
	got, err := Transition(StageProjectDeepDive, StageClosing)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StageProjectDeepDive, got)
}

func TestTransitionRejectsBackward(t *testing.T) {
	got, err := Transition(StageBasicKnowledge, StageSelfIntro)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StageBasicKnowledge, got)
}

func TestTransitionRejectsSameStage(t *testing.T) {
	_, err := Transition(StageSelfIntro, StageSelfIntro)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionRejectsUnknownStage(t *testing.T) {
	_, err := Transition(StageOpening, Stage("coffee_break"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestNext(t *testing.T) {
	next, ok := Next(StageOpening)
	require.True(t, ok)
	assert.Equal(t, StageSelfIntro, next)

	_, ok = Next(StageClosing)
	assert.False(t, ok)
}

func TestStageConfigs(t *testing.T) {
	cfg := StageSelfIntro.Config()
	assert.Equal(t, "自我介绍", cfg.Name)
	assert.Equal(t, 1, cfg.MinQuestions)
	assert.Equal(t, 2, cfg.MaxQuestions)

	assert.True(t, StageClosing.IsTerminal())
	assert.False(t, StageReverseInterview.IsTerminal())
	assert.False(t, Stage("coffee_break").Valid())
}
