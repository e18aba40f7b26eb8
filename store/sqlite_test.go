package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestGetLatestResumeReturnsNewest(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	older := &Resume{UserID: "u1", JobTitle: "后端开发", Content: "旧简历", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &Resume{UserID: "u1", JobTitle: "后端开发", Content: "新简历", CreatedAt: time.Now()}
	require.NoError(t, repo.SaveResume(ctx, older))
	require.NoError(t, repo.SaveResume(ctx, newer))

	got, err := repo.GetLatestResume(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "新简历", got.Content)
}

func TestGetLatestResumeMissingUser(t *testing.T) {
	repo := newTestStore(t)

	got, err := repo.GetLatestResume(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInterviewRecordRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	record := &InterviewRecord{
		SessionID:      "sess-1",
		UserID:         "u1",
		JobTitle:       "后端开发",
		TotalScore:     42.5,
		QuestionCount:  6,
		DurationSec:    1800,
		EndReason:      "completed",
		StageScores:    map[string]float64{"self_intro": 8, "basic_knowledge": 21.5},
		TranscriptPath: "/tmp/u1_context.md",
	}
	require.NoError(t, repo.SaveInterviewRecord(ctx, record))

	got, err := repo.GetInterviewRecord(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 42.5, got.TotalScore)
	assert.Equal(t, 6, got.QuestionCount)
	assert.Equal(t, "completed", got.EndReason)
	assert.Equal(t, 21.5, got.StageScores["basic_knowledge"])
	assert.Equal(t, "/tmp/u1_context.md", got.TranscriptPath)
}

func TestSaveInterviewRecordUpsert(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	record := &InterviewRecord{SessionID: "sess-1", UserID: "u1", JobTitle: "后端开发", TotalScore: 10, EndReason: "abandoned"}
	require.NoError(t, repo.SaveInterviewRecord(ctx, record))
	record.TotalScore = 55
	record.EndReason = "completed"
	require.NoError(t, repo.SaveInterviewRecord(ctx, record))

	got, err := repo.GetInterviewRecord(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 55.0, got.TotalScore)
	assert.Equal(t, "completed", got.EndReason)
}

func TestListInterviewRecordsNewestFirst(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	for i, sess := range []string{"a", "b", "c"} {
		require.NoError(t, repo.SaveInterviewRecord(ctx, &InterviewRecord{
			SessionID: sess,
			UserID:    "u1",
			JobTitle:  "后端开发",
			EndReason: "completed",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := repo.ListInterviewRecords(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0].SessionID)
	assert.Equal(t, "b", records[1].SessionID)
}

func TestGetInterviewRecordMissing(t *testing.T) {
	repo := newTestStore(t)

	got, err := repo.GetInterviewRecord(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}
