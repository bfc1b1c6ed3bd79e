package reasoning

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron/council/internal/model"
)

type fakeChainRepo struct {
	mu     sync.Mutex
	chains []model.ReasoningChain
}

func (f *fakeChainRepo) InsertReasoningChains(ctx context.Context, chains []model.ReasoningChain) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chains = append(f.chains, chains...)
	return len(chains), nil
}

func (f *fakeChainRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chains)
}

func newTestChain() model.ReasoningChain {
	return model.ReasoningChain{ID: uuid.New(), RunID: uuid.New(), ExpertID: uuid.New(), GameID: "g1", CreatedAt: time.Now()}
}

func TestBuffer_AppendThenFlushNowDelivers(t *testing.T) {
	repo := &fakeChainRepo{}
	buf := NewBuffer(repo, slog.Default(), 100, time.Hour, nil)
	buf.Start(context.Background())
	defer buf.Close(context.Background())

	require.NoError(t, buf.Append(newTestChain()))
	require.NoError(t, buf.FlushNow(context.Background()))

	assert.Equal(t, 1, repo.count())
	assert.Equal(t, 0, buf.Len())
}

func TestBuffer_Close_IsIdempotent(t *testing.T) {
	repo := &fakeChainRepo{}
	buf := NewBuffer(repo, slog.Default(), 100, time.Hour, nil)
	buf.Start(context.Background())

	require.NoError(t, buf.Append(newTestChain()))

	ctx := context.Background()
	err1 := buf.Close(ctx)
	err2 := buf.Close(ctx)

	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, 1, repo.count())
}

func TestBuffer_Close_FlushesPendingChains(t *testing.T) {
	repo := &fakeChainRepo{}
	buf := NewBuffer(repo, slog.Default(), 100, time.Hour, nil)
	buf.Start(context.Background())

	require.NoError(t, buf.Append(newTestChain()))
	require.NoError(t, buf.Append(newTestChain()))

	require.NoError(t, buf.Close(context.Background()))
	assert.Equal(t, 2, repo.count())
}

func TestBuffer_AppendAfterCloseIsRejected(t *testing.T) {
	repo := &fakeChainRepo{}
	buf := NewBuffer(repo, slog.Default(), 100, time.Hour, nil)
	buf.Start(context.Background())
	require.NoError(t, buf.Close(context.Background()))

	err := buf.Append(newTestChain())
	assert.ErrorIs(t, err, ErrBufferDraining)
}

func TestBuffer_RecoversFromWALAfterRestart(t *testing.T) {
	dir := t.TempDir()
	repo := &fakeChainRepo{}

	wal1, err := NewWAL(dir)
	require.NoError(t, err)
	buf1 := NewBuffer(repo, slog.Default(), 100, time.Hour, wal1)
	buf1.Start(context.Background())

	chain := newTestChain()
	require.NoError(t, buf1.Append(chain))
	// Simulate a crash: the WAL file handle is closed without a flush, so the
	// buffered chain never reaches the repository.
	require.NoError(t, wal1.Close())
	assert.Equal(t, 0, repo.count())

	wal2, err := NewWAL(dir)
	require.NoError(t, err)
	buf2 := NewBuffer(repo, slog.Default(), 100, time.Hour, wal2)
	buf2.Start(context.Background())
	defer buf2.Close(context.Background())

	require.NoError(t, buf2.FlushNow(context.Background()))
	assert.Equal(t, 1, repo.count())
}

func TestWAL_NilDirDisablesWAL(t *testing.T) {
	w, err := NewWAL("")
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestWAL_CheckpointClearsRecoveredRecords(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWAL(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Append(newTestChain()))
	require.NoError(t, w.Checkpoint())

	var recovered []model.ReasoningChain
	require.NoError(t, w.Recover(&recovered))
	assert.Empty(t, recovered)
}
