package session

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-autopilot/internal/types"
)

func testProfile() *types.CandidateProfile {
	return &types.CandidateProfile{Name: "Jane Doe", Email: "jane@example.com"}
}

func TestCreate_RejectsSecondActiveSession(t *testing.T) {
	store := NewStore()
	owner := uuid.New()

	_, err := store.Create(owner, testProfile(), "Backend Engineer", "Remote")
	require.NoError(t, err)

	_, err = store.Create(owner, testProfile(), "Backend Engineer", "Remote")
	require.Error(t, err)

	var busy *ErrBusy
	require.ErrorAs(t, err, &busy)
	assert.Equal(t, owner, busy.OwnerID)
}

func TestCreate_AllowsRestartAfterTerminalState(t *testing.T) {
	store := NewStore()
	owner := uuid.New()

	_, err := store.Create(owner, testProfile(), "Backend Engineer", "Remote")
	require.NoError(t, err)

	require.NoError(t, store.Fail(owner, "no jobs found"))

	_, err = store.Create(owner, testProfile(), "Data Engineer", "NYC")
	require.NoError(t, err)

	sess := store.Get(owner)
	require.NotNil(t, sess)
	assert.Equal(t, types.StateWaitingProfile, sess.State)
	assert.Equal(t, "Data Engineer", sess.TargetRole)
	assert.Empty(t, sess.Error)
}

func TestAdvance_CompareAndSet(t *testing.T) {
	store := NewStore()
	owner := uuid.New()
	_, err := store.Create(owner, testProfile(), "Backend Engineer", "Remote")
	require.NoError(t, err)

	require.NoError(t, store.Advance(owner, types.StateWaitingProfile, types.StateSearching))

	// Second trigger observing the stale state must conflict, not double-run.
	err = store.Advance(owner, types.StateWaitingProfile, types.StateSearching)
	var conflict *ErrConflict
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, types.StateWaitingProfile, conflict.Expected)
	assert.Equal(t, types.StateSearching, conflict.Actual)
}

func TestAdvance_ConcurrentTriggersExactlyOneWins(t *testing.T) {
	store := NewStore()
	owner := uuid.New()
	_, err := store.Create(owner, testProfile(), "Backend Engineer", "Remote")
	require.NoError(t, err)

	const triggers = 8
	results := make(chan error, triggers)
	for i := 0; i < triggers; i++ {
		go func() {
			results <- store.Advance(owner, types.StateWaitingProfile, types.StateSearching)
		}()
	}

	wins := 0
	for i := 0; i < triggers; i++ {
		if err := <-results; err == nil {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestAdvanceWith_AppliesMutationWithTransition(t *testing.T) {
	store := NewStore()
	owner := uuid.New()
	_, err := store.Create(owner, testProfile(), "Backend Engineer", "Remote")
	require.NoError(t, err)

	err = store.AdvanceWith(owner, types.StateWaitingProfile, types.StateSearching, func(s *types.PipelineSession) {
		s.TargetLocation = "NYC"
	})
	require.NoError(t, err)

	sess := store.Get(owner)
	assert.Equal(t, types.StateSearching, sess.State)
	assert.Equal(t, "NYC", sess.TargetLocation)
}

func TestAdvanceWith_SkipsMutationOnConflict(t *testing.T) {
	store := NewStore()
	owner := uuid.New()
	_, err := store.Create(owner, testProfile(), "Backend Engineer", "Remote")
	require.NoError(t, err)

	err = store.AdvanceWith(owner, types.StateSearching, types.StateGeneratingCVs, func(s *types.PipelineSession) {
		s.TargetLocation = "NYC"
	})
	var conflict *ErrConflict
	require.ErrorAs(t, err, &conflict)

	sess := store.Get(owner)
	assert.Equal(t, types.StateWaitingProfile, sess.State)
	assert.Equal(t, "Remote", sess.TargetLocation)
}

func TestAdvance_NoSession(t *testing.T) {
	store := NewStore()
	err := store.Advance(uuid.New(), types.StateWaitingProfile, types.StateSearching)

	var noSession *ErrNoSession
	require.ErrorAs(t, err, &noSession)
}

func TestGet_ReturnsSnapshot(t *testing.T) {
	store := NewStore()
	owner := uuid.New()
	_, err := store.Create(owner, testProfile(), "Backend Engineer", "Remote")
	require.NoError(t, err)

	snap := store.Get(owner)
	require.NotNil(t, snap)

	// Mutating the snapshot must not leak into the stored session.
	snap.TargetRole = "mutated"
	assert.Equal(t, "Backend Engineer", store.Get(owner).TargetRole)
}

func TestReset_ClearsSession(t *testing.T) {
	store := NewStore()
	owner := uuid.New()
	_, err := store.Create(owner, testProfile(), "Backend Engineer", "Remote")
	require.NoError(t, err)

	store.Reset(owner)
	assert.Nil(t, store.Get(owner))

	_, err = store.Create(owner, testProfile(), "Backend Engineer", "Remote")
	require.NoError(t, err)
}

func TestAppendActivity_BoundsLog(t *testing.T) {
	store := NewStore()
	owner := uuid.New()
	_, err := store.Create(owner, testProfile(), "Backend Engineer", "Remote")
	require.NoError(t, err)

	for i := 0; i < maxActivityEntries+25; i++ {
		store.AppendActivity(owner, fmt.Sprintf("entry %d", i))
	}

	sess := store.Get(owner)
	require.Len(t, sess.ActivityLog, maxActivityEntries)
	// Oldest entries evicted: the first surviving entry is entry 25.
	assert.Equal(t, "entry 25", sess.ActivityLog[0].Message)
}

func TestCategorizeMessage(t *testing.T) {
	tests := []struct {
		message  string
		category string
	}{
		{"✅ Tailored CV for Acme Co", "success"},
		{"❌ Discovery failed for Acme Co", "error"},
		{"⚠️ Verification service unreachable", "warning"},
		{"🔍 Searching for Backend Engineer in Remote", "search"},
		{"📧 Found hr@acme.com (deliverable)", "email"},
		{"📄 Rendered 3 of 4 documents", "document"},
		{"Starting pipeline", "info"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.category, CategorizeMessage(tt.message), tt.message)
	}
}
