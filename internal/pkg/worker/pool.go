// Package worker provides goroutine pool management.
//
// Concurrent work goes through a Pool with context propagation rather than
// bare goroutines.
//
// Import Path: eagle-eye.io/fieldagent/internal/pkg/worker
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"eagle-eye.io/fieldagent/internal/pkg/logger"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Task is a context-aware task function.
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context-aware submission.
type Pool struct {
	pool *ants.Pool
	name string
}

// Pools is the Worker pool collection.
type Pools struct {
	// Import runs roster import rows, one task per row.
	Import *Pool
}

// PoolConfig contains Worker Pool configuration.
type PoolConfig struct {
	ImportPoolSize int
}

// DefaultPoolConfig returns default configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		ImportPoolSize: 8,
	}
}

// NewPools creates Worker pool collection.
func NewPools(cfg PoolConfig) (*Pools, error) {
	if cfg.ImportPoolSize <= 0 {
		cfg.ImportPoolSize = DefaultPoolConfig().ImportPoolSize
	}
	importPool, err := newPool("import", cfg.ImportPoolSize, 10*time.Second)
	if err != nil {
		return nil, err
	}
	return &Pools{Import: importPool}, nil
}

func newPool(name string, size int, expiry time.Duration) (*Pool, error) {
	// Unified panic recovery
	panicHandler := func(p interface{}) {
		logger.Error("Worker panic recovered",
			zap.String("pool", name),
			zap.Any("panic", p),
			zap.Stack("stack"),
		)
	}

	p, err := ants.NewPool(size,
		ants.WithPanicHandler(panicHandler),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(expiry),
	)
	if err != nil {
		return nil, err
	}
	return &Pool{pool: p, name: name}, nil
}

// Submit submits a context-aware task.
// The task receives the caller's context and SHOULD check ctx.Done() at blocking points.
// If context is already cancelled, returns ctx.Err() immediately without submitting.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	return p.submit(ctx, task, nil)
}

// submit runs done once the task has run or been skipped.
func (p *Pool) submit(ctx context.Context, task Task, done func()) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := p.pool.Submit(func() {
		if done != nil {
			defer done()
		}
		// Check context again inside worker (may have been cancelled while queued)
		select {
		case <-ctx.Done():
			logger.Debug("Task skipped: context cancelled",
				zap.String("pool", p.name),
				zap.Error(ctx.Err()),
			)
			return
		default:
		}
		task(ctx)
	})
	if errors.Is(err, ants.ErrPoolClosed) {
		return ErrPoolClosed
	}
	return err
}

// Group tracks a batch of tasks submitted to one pool under a shared
// context.
type Group struct {
	pool *Pool
	ctx  context.Context
	wg   sync.WaitGroup
}

// Group starts a batch bound to ctx.
func (p *Pool) Group(ctx context.Context) *Group {
	return &Group{pool: p, ctx: ctx}
}

// Submit queues task on the pool. Errors are those of Pool.Submit; a task
// that was not accepted is not waited for.
func (g *Group) Submit(task Task) error {
	g.wg.Add(1)
	if err := g.pool.submit(g.ctx, task, g.wg.Done); err != nil {
		g.wg.Done()
		return err
	}
	return nil
}

// Wait blocks until every accepted task has either run or been skipped
// because the group context was cancelled while it was queued.
func (g *Group) Wait() {
	g.wg.Wait()
}

// Shutdown waits for running tasks to finish, up to 30 seconds.
func (p *Pools) Shutdown() {
	const shutdownTimeout = 30 * time.Second
	if err := p.Import.pool.ReleaseTimeout(shutdownTimeout); err != nil {
		logger.Warn("Import pool shutdown timeout", zap.Error(err))
	}
}
