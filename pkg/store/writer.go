package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/indichess/live-server/pkg/metrics"
)

// AsyncWriter wraps a Store with a fixed pool of write workers so persistence
// never blocks the move hot path. Writes are enqueued onto a buffered channel
// and dropped with a warning when the buffer is full; reads pass through
// synchronously. This is the fire-and-forget contract made concrete.
type AsyncWriter struct {
	inner   Store
	jobs    chan func(context.Context)
	workers int
	timeout time.Duration

	wg     sync.WaitGroup
	once   sync.Once
	logger *zap.Logger
}

// NewAsyncWriter creates a writer with the given worker count and queue depth.
func NewAsyncWriter(inner Store, workers, buffer int, logger *zap.Logger) *AsyncWriter {
	if workers <= 0 {
		workers = 2
	}
	if buffer <= 0 {
		buffer = 256
	}

	return &AsyncWriter{
		inner:   inner,
		jobs:    make(chan func(context.Context), buffer),
		workers: workers,
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

// Start launches the worker pool.
func (w *AsyncWriter) Start() {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run()
	}

	w.logger.Info("store writer pool started", zap.Int("workers", w.workers))
}

func (w *AsyncWriter) run() {
	defer w.wg.Done()

	for job := range w.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		job(ctx)
		cancel()
	}
}

// Close drains outstanding writes and stops the workers.
func (w *AsyncWriter) Close() {
	w.once.Do(func() {
		close(w.jobs)
	})
	w.wg.Wait()
}

func (w *AsyncWriter) enqueue(op string, job func(context.Context)) {
	select {
	case w.jobs <- job:
	default:
		metrics.StoreWriteFailures.Inc()
		w.logger.Warn("store write dropped, queue full", zap.String("op", op))
	}
}

func (w *AsyncWriter) CreateMatch(_ context.Context, matchID, player1ID, player2ID, mode string) error {
	w.enqueue("create_match", func(ctx context.Context) {
		if err := w.inner.CreateMatch(ctx, matchID, player1ID, player2ID, mode); err != nil {
			metrics.StoreWriteFailures.Inc()
			w.logger.Warn("create match write failed",
				zap.String("match_id", matchID), zap.Error(err))
		}
	})

	return nil
}

// LoadMatchConfig is the one synchronous path; session rebuilds need the
// answer immediately.
func (w *AsyncWriter) LoadMatchConfig(ctx context.Context, matchID string) (MatchConfig, error) {
	return w.inner.LoadMatchConfig(ctx, matchID)
}

func (w *AsyncWriter) SaveMove(_ context.Context, matchID, position, moveCode string, ply int) error {
	w.enqueue("save_move", func(ctx context.Context) {
		if err := w.inner.SaveMove(ctx, matchID, position, moveCode, ply); err != nil {
			metrics.StoreWriteFailures.Inc()
			w.logger.Warn("move write failed",
				zap.String("match_id", matchID), zap.Int("ply", ply), zap.Error(err))
		}
	})

	return nil
}

func (w *AsyncWriter) SaveMatchResult(_ context.Context, matchID, status string, finishedAt time.Time) error {
	w.enqueue("save_match_result", func(ctx context.Context) {
		if err := w.inner.SaveMatchResult(ctx, matchID, status, finishedAt); err != nil {
			metrics.StoreWriteFailures.Inc()
			w.logger.Warn("match result write failed",
				zap.String("match_id", matchID), zap.String("status", status), zap.Error(err))
		}
	})

	return nil
}

func (w *AsyncWriter) SavePlayerClocks(_ context.Context, matchID string, p1Remaining, p2Remaining *time.Duration) error {
	p1 := copyDuration(p1Remaining)
	p2 := copyDuration(p2Remaining)

	w.enqueue("save_player_clocks", func(ctx context.Context) {
		if err := w.inner.SavePlayerClocks(ctx, matchID, p1, p2); err != nil {
			metrics.StoreWriteFailures.Inc()
			w.logger.Warn("clock write failed",
				zap.String("match_id", matchID), zap.Error(err))
		}
	})

	return nil
}
