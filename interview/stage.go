package interview

import (
	"errors"
	"fmt"
)

// Stage identifies one phase of the interview flow. The set is closed and the
// order is fixed; progression through it is strictly forward, one stage at a
// time, enforced by Transition.
type Stage string

const (
	// StageOpening welcomes the candidate and explains the flow.
	StageOpening Stage = "opening"
	// StageSelfIntro asks the candidate to introduce themselves.
	StageSelfIntro Stage = "self_intro"
	// StageProjectDeepDive digs into the candidate's project experience.
	StageProjectDeepDive Stage = "project_deep_dive"
	// StageBasicKnowledge probes professional fundamentals.
	StageBasicKnowledge Stage = "basic_knowledge"
	// StageScenarioAlgorithm covers scenario and algorithm questions.
	StageScenarioAlgorithm Stage = "scenario_algorithm"
	// StageReverseInterview gives the candidate time to ask questions.
	StageReverseInterview Stage = "reverse_interview"
	// StageClosing thanks the candidate and explains next steps.
	StageClosing Stage = "closing"
)

// ErrInvalidTransition is returned by Transition when the requested stage is
// not exactly one step ahead of the current stage.
var ErrInvalidTransition = errors.New("interview: stage transition must advance exactly one stage")

// StageConfig is the immutable per-stage configuration.
type StageConfig struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	MinQuestions int    `json:"min_questions"`
	MaxQuestions int    `json:"max_questions"`
	Duration     int    `json:"duration_minutes"`
}

var stageOrder = []Stage{
	StageOpening,
	StageSelfIntro,
	StageProjectDeepDive,
	StageBasicKnowledge,
	StageScenarioAlgorithm,
	StageReverseInterview,
	StageClosing,
}

var stageConfigs = map[Stage]StageConfig{
	StageOpening:           {Name: "开场白", Description: "欢迎候选人，介绍面试流程", MinQuestions: 0, MaxQuestions: 0, Duration: 1},
	StageSelfIntro:         {Name: "自我介绍", Description: "让候选人介绍自己的背景和经历", MinQuestions: 1, MaxQuestions: 2, Duration: 3},
	StageProjectDeepDive:   {Name: "项目深挖", Description: "深入了解候选人的项目经验", MinQuestions: 2, MaxQuestions: 4, Duration: 10},
	StageBasicKnowledge:    {Name: "基础知识考核", Description: "考察专业基础知识", MinQuestions: 2, MaxQuestions: 4, Duration: 8},
	StageScenarioAlgorithm: {Name: "场景/算法题", Description: "考察问题解决能力", MinQuestions: 1, MaxQuestions: 2, Duration: 5},
	StageReverseInterview:  {Name: "反问环节", Description: "候选人提问时间", MinQuestions: 1, MaxQuestions: 1, Duration: 3},
	StageClosing:           {Name: "结束", Description: "感谢候选人，说明后续流程", MinQuestions: 0, MaxQuestions: 0, Duration: 1},
}

// StageOrder returns the fixed stage sequence.
func StageOrder() []Stage {
	order := make([]Stage, len(stageOrder))
	copy(order, stageOrder)
	return order
}

// Index returns the position of s in the stage order, or -1 if s is unknown.
func (s Stage) Index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a member of the closed stage set.
func (s Stage) Valid() bool { return s.Index() >= 0 }

// IsTerminal reports whether s is the final stage.
func (s Stage) IsTerminal() bool { return s == StageClosing }

// Config returns the immutable configuration for s. Unknown stages yield the
// zero config.
func (s Stage) Config() StageConfig { return stageConfigs[s] }

// Next returns the stage following s and true, or s and false when s is
// terminal or unknown.
func Next(s Stage) (Stage, bool) {
	idx := s.Index()
	if idx < 0 || idx >= len(stageOrder)-1 {
		return s, false
	}
	return stageOrder[idx+1], true
}

// Transition is the single forward-only gate for stage changes. The requested
// stage is accepted only if it sits exactly one position after current in the
// stage order; any other target (backward, same, or skipping ahead) is
// rejected with ErrInvalidTransition and the unchanged current stage.
//
// No other code may mutate a session's stage directly.
func Transition(current, requested Stage) (Stage, error) {
	curIdx := current.Index()
	reqIdx := requested.Index()
	if curIdx < 0 || reqIdx < 0 {
		return current, fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, current, requested)
	}
	if reqIdx != curIdx+1 {
		return current, fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, current, requested)
	}
	return requested, nil
}
