package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS resumes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		job_title TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_resumes_user ON resumes(user_id, created_at);

	CREATE TABLE IF NOT EXISTS interview_records (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		job_title TEXT NOT NULL,
		total_score REAL NOT NULL,
		question_count INTEGER NOT NULL,
		duration_sec INTEGER NOT NULL,
		end_reason TEXT NOT NULL,
		stage_scores_json TEXT NOT NULL,
		transcript_path TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_user ON interview_records(user_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// SaveResume stores an uploaded resume.
func (s *SQLiteStore) SaveResume(ctx context.Context, resume *Resume) error {
	if resume.CreatedAt.IsZero() {
		resume.CreatedAt = time.Now()
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO resumes (user_id, job_title, content, created_at) VALUES (?, ?, ?, ?)`,
		resume.UserID, resume.JobTitle, resume.Content, resume.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert resume: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("resume last insert id: %w", err)
	}
	resume.ID = id
	return nil
}

// GetLatestResume returns the most recently uploaded resume for a user, or
// nil when the user has none.
func (s *SQLiteStore) GetLatestResume(ctx context.Context, userID string) (*Resume, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, job_title, content, created_at
		 FROM resumes WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID,
	)

	var resume Resume
	var createdAt int64
	err := row.Scan(&resume.ID, &resume.UserID, &resume.JobTitle, &resume.Content, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan resume row: %w", err)
	}
	resume.CreatedAt = time.Unix(createdAt, 0)
	return &resume, nil
}

// SaveInterviewRecord stores a completed interview summary. Saving the same
// session twice overwrites the earlier record.
func (s *SQLiteStore) SaveInterviewRecord(ctx context.Context, record *InterviewRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	stageScores, err := json.Marshal(record.StageScores)
	if err != nil {
		return fmt.Errorf("marshal stage scores: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO interview_records (
			session_id, user_id, job_title, total_score, question_count,
			duration_sec, end_reason, stage_scores_json, transcript_path, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			total_score = excluded.total_score,
			question_count = excluded.question_count,
			duration_sec = excluded.duration_sec,
			end_reason = excluded.end_reason,
			stage_scores_json = excluded.stage_scores_json,
			transcript_path = excluded.transcript_path`,
		record.SessionID, record.UserID, record.JobTitle, record.TotalScore, record.QuestionCount,
		record.DurationSec, record.EndReason, string(stageScores), record.TranscriptPath, record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert interview record: %w", err)
	}
	return nil
}

// GetInterviewRecord retrieves one record by session id, or nil when absent.
func (s *SQLiteStore) GetInterviewRecord(ctx context.Context, sessionID string) (*InterviewRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, user_id, job_title, total_score, question_count,
		       duration_sec, end_reason, stage_scores_json, transcript_path, created_at
		FROM interview_records WHERE session_id = ?`,
		sessionID,
	)
	record, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return record, err
}

// ListInterviewRecords returns a user's records, newest first.
func (s *SQLiteStore) ListInterviewRecords(ctx context.Context, userID string, limit int) ([]*InterviewRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, user_id, job_title, total_score, question_count,
		       duration_sec, end_reason, stage_scores_json, transcript_path, created_at
		FROM interview_records WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query interview records: %w", err)
	}
	defer rows.Close()

	var records []*InterviewRecord
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interview records: %w", err)
	}
	return records, nil
}

func scanRecord(scan func(dest ...any) error) (*InterviewRecord, error) {
	var record InterviewRecord
	var stageScoresJSON string
	var transcriptPath sql.NullString
	var createdAt int64

	err := scan(
		&record.SessionID, &record.UserID, &record.JobTitle, &record.TotalScore, &record.QuestionCount,
		&record.DurationSec, &record.EndReason, &stageScoresJSON, &transcriptPath, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan interview record: %w", err)
	}

	if err := json.Unmarshal([]byte(stageScoresJSON), &record.StageScores); err != nil {
		return nil, fmt.Errorf("unmarshal stage scores: %w", err)
	}
	record.TranscriptPath = transcriptPath.String
	record.CreatedAt = time.Unix(createdAt, 0)
	return &record, nil
}
