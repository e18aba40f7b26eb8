package interview

import (
	"sync"
	"time"
)

// QuestionRecord is one asked question together with the candidate's answer
// and its evaluation. Records are append-only; once added to the history they
// are never mutated.
type QuestionRecord struct {
	Question        string    `json:"question"`
	Answer          string    `json:"answer"`
	Score           float64   `json:"score"`
	Feedback        string    `json:"feedback"`
	Stage           Stage     `json:"stage"`
	IsFollowUp      bool      `json:"is_follow_up"`
	ReferenceAnswer string    `json:"reference_answer,omitempty"`
	Source          string    `json:"source,omitempty"` // retrieval/search/generated
	Timestamp       time.Time `json:"timestamp"`
}

// State carries everything the engine tracks for one interview session. It is
// owned exclusively by the connection task that created it; the embedded lock
// only exists so read-only status snapshots can be taken from the HTTP side.
//
// Contract:
//   - CurrentStage changes only through ApplyTransition (which itself goes
//     through the Transition gate)
//   - History is append-only; TotalScore always equals the sum of record scores
//   - No two history records share the same question text.
type State struct {
	SessionID  string `json:"session_id"`
	UserID     string `json:"user_id"`
	JobTitle   string `json:"job_title"`
	ResumeText string `json:"resume_text"`

	CurrentStage       Stage `json:"current_stage"`
	StageQuestionCount int   `json:"stage_question_count"`
	FollowUpCount      int   `json:"follow_up_count"`

	History          []QuestionRecord `json:"history"`
	CurrentQuestion  string           `json:"current_question,omitempty"`
	CurrentReference string           `json:"current_reference,omitempty"`

	TotalScore  float64           `json:"total_score"`
	StageScores map[Stage]float64 `json:"stage_scores"`

	SearchKeywords []string `json:"search_keywords,omitempty"`

	StartTime      time.Time `json:"start_time"`
	StageStartTime time.Time `json:"stage_start_time"`

	mu sync.RWMutex
}

// NewState creates the initial session state positioned at the opening stage.
func NewState(sessionID, userID, jobTitle, resumeText string) *State {
	now := time.Now()
	return &State{
		SessionID:      sessionID,
		UserID:         userID,
		JobTitle:       jobTitle,
		ResumeText:     resumeText,
		CurrentStage:   StageOpening,
		History:        []QuestionRecord{},
		StageScores:    map[Stage]float64{},
		StartTime:      now,
		StageStartTime: now,
	}
}

// Stage returns the current stage.
func (s *State) Stage() Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CurrentStage
}

// SetCurrentQuestion records the question now awaiting an answer along with
// its internal reference answer, and bumps the per-stage question counter.
func (s *State) SetCurrentQuestion(question, reference string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CurrentQuestion = question
	s.CurrentReference = reference
	s.StageQuestionCount++
}

// SetFollowUpQuestion records a follow-up as the question awaiting an answer.
// Unlike SetCurrentQuestion it does not bump the stage counter: follow-ups
// drill into the current question rather than consuming stage budget.
func (s *State) SetFollowUpQuestion(question, reference string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CurrentQuestion = question
	s.CurrentReference = reference
}

// BumpFollowUp increments the follow-up counter and returns the new value.
func (s *State) BumpFollowUp() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FollowUpCount++
	return s.FollowUpCount
}

// ResetFollowUp clears the follow-up counter.
func (s *State) ResetFollowUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FollowUpCount = 0
}

// SetSearchKeywords stores the keywords used for the latest bank retrieval.
func (s *State) SetSearchKeywords(keywords []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SearchKeywords = keywords
}

// AddRecord appends a completed question/answer record and folds its score
// into the running totals. The TotalScore invariant (sum of record scores)
// is maintained here and nowhere else.
func (s *State) AddRecord(rec QuestionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.History = append(s.History, rec)
	s.TotalScore += rec.Score
	s.StageScores[rec.Stage] += rec.Score
}

// ApplyTransition routes the requested stage through the forward-only gate.
// On success the stage is committed, the per-stage counters reset and a new
// stage start time stamped. On rejection the state is left untouched and the
// gate's error returned.
func (s *State) ApplyTransition(requested Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := Transition(s.CurrentStage, requested)
	if err != nil {
		return err
	}
	s.CurrentStage = next
	s.StageQuestionCount = 0
	s.FollowUpCount = 0
	s.StageStartTime = time.Now()
	return nil
}

// AskedQuestions returns the question text of every history record plus the
// question currently awaiting an answer, used to keep questions unique.
func (s *State) AskedQuestions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	asked := make([]string, 0, len(s.History)+1)
	for _, rec := range s.History {
		asked = append(asked, rec.Question)
	}
	if s.CurrentQuestion != "" {
		asked = append(asked, s.CurrentQuestion)
	}
	return asked
}

// HasAsked reports whether the exact question text already appears in the
// session history or as the in-flight question.
func (s *State) HasAsked(question string) bool {
	for _, q := range s.AskedQuestions() {
		if q == question {
			return true
		}
	}
	return false
}

// RecentExchanges returns up to n of the most recent records, oldest first.
func (s *State) RecentExchanges(n int) []QuestionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	start := len(s.History) - n
	if start < 0 {
		start = 0
	}
	out := make([]QuestionRecord, len(s.History)-start)
	copy(out, s.History[start:])
	return out
}

// StageQuestions returns the number of questions asked in the current stage.
func (s *State) StageQuestions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.StageQuestionCount
}

// QuestionCount returns the number of completed exchanges.
func (s *State) QuestionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.History)
}

// AverageScore returns the mean record score, or 0 for an empty history.
func (s *State) AverageScore() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.History) == 0 {
		return 0
	}
	return s.TotalScore / float64(len(s.History))
}

// Snapshot is a read-only copy of the status fields exposed over HTTP.
type Snapshot struct {
	SessionID          string            `json:"session_id"`
	UserID             string            `json:"user_id"`
	JobTitle           string            `json:"job_title"`
	CurrentStage       Stage             `json:"current_stage"`
	StageQuestionCount int               `json:"stage_question_count"`
	QuestionCount      int               `json:"question_count"`
	TotalScore         float64           `json:"total_score"`
	StageScores        map[Stage]float64 `json:"stage_scores"`
	StartTime          time.Time         `json:"start_time"`
}

// Snapshot returns a consistent copy of the observable session status.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scores := make(map[Stage]float64, len(s.StageScores))
	for k, v := range s.StageScores {
		scores[k] = v
	}
	return Snapshot{
		SessionID:          s.SessionID,
		UserID:             s.UserID,
		JobTitle:           s.JobTitle,
		CurrentStage:       s.CurrentStage,
		StageQuestionCount: s.StageQuestionCount,
		QuestionCount:      len(s.History),
		TotalScore:         s.TotalScore,
		StageScores:        scores,
		StartTime:          s.StartTime,
	}
}
