package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/interviewd/interview"
)

func TestRegistrySnapshotRequiresBoundState(t *testing.T) {
	r := NewRegistry()
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.register("s1", cancel)
	_, ok := r.Snapshot("s1")
	assert.False(t, ok)

	state := interview.NewState("s1", "u1", "后端开发", "简历")
	r.bind("s1", state)

	snap, ok := r.Snapshot("s1")
	require.True(t, ok)
	assert.Equal(t, "s1", snap.SessionID)
	assert.Equal(t, interview.StageOpening, snap.CurrentStage)

	r.unregister("s1")
	_, ok = r.Snapshot("s1")
	assert.False(t, ok)
	assert.Zero(t, r.Len())
}

func TestRegistryInvalidateCancelsSession(t *testing.T) {
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())

	r.register("s1", cancel)
	require.True(t, r.Invalidate("s1"))

	select {
	case <-ctx.Done():
	default:
		t.Fatal("expected context to be cancelled")
	}

	assert.False(t, r.Invalidate("missing"))
}

func TestRegistryBindUnknownSessionIsNoOp(t *testing.T) {
	r := NewRegistry()
	r.bind("ghost", interview.NewState("ghost", "u1", "岗位", "简历"))
	_, ok := r.Snapshot("ghost")
	assert.False(t, ok)
}
