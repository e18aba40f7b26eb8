// Package store persists resumes and finished interview records.
package store

import (
	"context"
	"time"
)

// Resume is an uploaded resume for a user. Only the latest resume per user is
// consulted when a session starts.
type Resume struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	JobTitle  string    `json:"job_title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// InterviewRecord summarizes one completed interview session.
type InterviewRecord struct {
	SessionID      string             `json:"session_id"`
	UserID         string             `json:"user_id"`
	JobTitle       string             `json:"job_title"`
	TotalScore     float64            `json:"total_score"`
	QuestionCount  int                `json:"question_count"`
	DurationSec    int                `json:"duration_sec"`
	EndReason      string             `json:"end_reason"`
	StageScores    map[string]float64 `json:"stage_scores"`
	TranscriptPath string             `json:"transcript_path,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// Repository is the persistence contract.
type Repository interface {
	Ping(ctx context.Context) error
	Close() error

	SaveResume(ctx context.Context, resume *Resume) error
	GetLatestResume(ctx context.Context, userID string) (*Resume, error)

	SaveInterviewRecord(ctx context.Context, record *InterviewRecord) error
	GetInterviewRecord(ctx context.Context, sessionID string) (*InterviewRecord, error)
	ListInterviewRecords(ctx context.Context, userID string, limit int) ([]*InterviewRecord, error)
}
