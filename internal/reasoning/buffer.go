package reasoning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gridiron/council/internal/model"
)

// maxBufferCapacity bounds in-memory growth if the flush path stalls.
const maxBufferCapacity = 50_000

// ErrBufferDraining indicates Close has already been initiated.
var ErrBufferDraining = errors.New("reasoning: buffer is draining")

// Repository is the storage contract the reasoning buffer flushes into.
type Repository interface {
	InsertReasoningChains(ctx context.Context, chains []model.ReasoningChain) (int, error)
}

// Buffer accumulates ReasoningChain writes in memory and flushes them to
// Postgres on a timer or explicit FlushNow, backed by an optional WAL for
// crash durability (§4.5 "write-only during prediction").
type Buffer struct {
	repo         Repository
	logger       *slog.Logger
	maxSize      int
	flushTimeout time.Duration
	wal          *WAL

	mu     sync.Mutex
	chains []model.ReasoningChain

	draining   atomic.Bool
	started    atomic.Bool
	closeOnce  sync.Once
	flushCh    chan struct{}
	done       chan struct{}
	cancelLoop context.CancelFunc
}

// NewBuffer constructs a Buffer. Pass wal=nil to disable crash durability.
func NewBuffer(repo Repository, logger *slog.Logger, maxSize int, flushTimeout time.Duration, wal *WAL) *Buffer {
	return &Buffer{
		repo:         repo,
		logger:       logger,
		maxSize:      maxSize,
		flushTimeout: flushTimeout,
		wal:          wal,
		flushCh:      make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
}

// Start recovers any WAL-buffered chains from a prior crash and begins the
// background flush loop. Safe to call only once.
func (b *Buffer) Start(ctx context.Context) {
	if !b.started.CompareAndSwap(false, true) {
		b.logger.Warn("reasoning: buffer Start called more than once, ignoring")
		return
	}

	if b.wal != nil {
		var recovered []model.ReasoningChain
		if err := b.wal.Recover(&recovered); err != nil {
			b.logger.Error("reasoning: wal recovery failed", "error", err)
		} else if len(recovered) > 0 {
			b.mu.Lock()
			b.chains = append(b.chains, recovered...)
			b.mu.Unlock()
			b.logger.Info("reasoning: recovered chains from wal", "count", len(recovered))
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	b.cancelLoop = cancel
	go b.flushLoop(loopCtx)
}

// Append records a reasoning chain, durable on disk (if WAL is configured)
// before it returns.
func (b *Buffer) Append(chain model.ReasoningChain) error {
	if b.draining.Load() {
		return ErrBufferDraining
	}
	if err := b.wal.Append(chain); err != nil {
		return fmt.Errorf("reasoning: wal append: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.chains) >= maxBufferCapacity {
		return fmt.Errorf("reasoning: buffer at capacity (%d chains)", len(b.chains))
	}
	b.chains = append(b.chains, chain)
	if len(b.chains) >= b.maxSize {
		select {
		case b.flushCh <- struct{}{}:
		default:
		}
	}
	return nil
}

func (b *Buffer) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(b.flushTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := b.flushUntilEmpty(finalCtx); err != nil {
				b.logger.Warn("reasoning: final flush incomplete", "error", err, "remaining", b.Len())
			}
			cancel()
			close(b.done)
			return
		case <-ticker.C:
			_, _ = b.flushOnce(ctx)
		case <-b.flushCh:
			_, _ = b.flushOnce(ctx)
		}
	}
}

// FlushNow blocks until buffered chains are durably written or ctx expires.
func (b *Buffer) FlushNow(ctx context.Context) error {
	return b.flushUntilEmpty(ctx)
}

func (b *Buffer) flushUntilEmpty(ctx context.Context) error {
	const maxBackoff = 2 * time.Second
	backoff := 50 * time.Millisecond

	for {
		flushed, err := b.flushOnce(ctx)
		if err == nil {
			if !flushed {
				return nil
			}
			backoff = 50 * time.Millisecond
			continue
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("reasoning: flush incomplete before deadline: %w", ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

func (b *Buffer) flushOnce(ctx context.Context) (bool, error) {
	b.mu.Lock()
	if len(b.chains) == 0 {
		b.mu.Unlock()
		return false, nil
	}
	batch := make([]model.ReasoningChain, len(b.chains))
	copy(batch, b.chains)
	b.mu.Unlock()

	if _, err := b.repo.InsertReasoningChains(ctx, batch); err != nil {
		b.logger.Error("reasoning: flush failed", "error", err, "batch_size", len(batch))
		return false, err
	}

	b.mu.Lock()
	if len(b.chains) >= len(batch) {
		b.chains = b.chains[len(batch):]
	} else {
		b.chains = nil
	}
	b.mu.Unlock()

	if err := b.wal.Checkpoint(); err != nil {
		b.logger.Warn("reasoning: wal checkpoint failed (chains are durable in postgres)", "error", err)
	}

	return true, nil
}

// Len returns the number of chains currently buffered in memory.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chains)
}

// Close drains the buffer (final flush) and releases the WAL file handle.
// Idempotent: a second call is a no-op and returns nil (§4.5 contract).
func (b *Buffer) Close(ctx context.Context) error {
	var closeErr error
	b.closeOnce.Do(func() {
		b.draining.Store(true)
		if b.cancelLoop != nil {
			b.cancelLoop()
			select {
			case <-b.done:
			case <-ctx.Done():
			}
		} else {
			// Start was never called; flush synchronously.
			closeErr = b.flushUntilEmpty(ctx)
		}
		if err := b.wal.Close(); err != nil {
			closeErr = err
		}
	})
	return closeErr
}
