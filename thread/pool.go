package thread

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Pool owns the threads spawned through it: they share one context, Wait is
// the join point, and the first failure cancels the remaining work.
type Pool struct {
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	firstErr error
	canceled bool

	opts Options
	obs  Observer
	sem  *semaphore.Weighted
}

// NewPool creates a pool bound to parent. A nil parent means Background.
func NewPool(parent context.Context, optFns ...Option) *Pool {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	p := &Pool{ctx: ctx, cancel: cancel, opts: defaultOptions()}
	for _, fn := range optFns {
		fn(&p.opts)
	}
	p.obs = p.opts.Observer
	if p.opts.MaxWorkers > 0 {
		p.sem = semaphore.NewWeighted(int64(p.opts.MaxWorkers))
	}
	if p.obs != nil {
		p.obs.PoolCreated(ctx)
	}
	return p
}

func (p *Pool) Context() context.Context { return p.ctx }

// Go spawns fn as pool-owned work. A non-nil error or a panic records the
// first failure and cancels the pool's context.
func (p *Pool) Go(fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if p.sem != nil {
			if err := p.sem.Acquire(p.ctx, 1); err != nil {
				p.fail(err)
				return
			}
			defer p.sem.Release(1)
		}
		defer func() {
			if r := recover(); r != nil {
				err := &PanicError{Value: r, Stack: debug.Stack()}
				p.fail(err)
				if p.obs != nil {
					p.obs.ThreadFinished(p.opts.Name, 0, err, true)
				}
			}
		}()

		var start time.Time
		if p.obs != nil {
			start = time.Now()
			p.obs.ThreadSpawned(p.opts.Name)
		}

		err := fn(p.ctx)
		if err != nil {
			p.fail(err)
		}
		if p.obs != nil {
			p.obs.ThreadFinished(p.opts.Name, time.Since(start), err, false)
		}
	}()
}

// Cancel stops the pool's context. The first non-nil error passed here or
// recorded by failed work becomes the Wait result.
func (p *Pool) Cancel(err error) {
	p.mu.Lock()
	wasCanceled := p.canceled
	p.canceled = true
	if p.firstErr == nil && err != nil {
		p.firstErr = err
	}
	cause := p.firstErr
	p.mu.Unlock()

	p.cancel()
	if !wasCanceled && p.obs != nil {
		p.obs.PoolCancelled(p.ctx, cause)
	}
}

// Wait blocks until all pool-owned work has finished and returns the first
// recorded error, if any. It is safe to call more than once.
func (p *Pool) Wait() error {
	var start time.Time
	if p.obs != nil {
		start = time.Now()
	}
	p.wg.Wait()
	if p.obs != nil {
		p.obs.PoolJoined(p.ctx, time.Since(start))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.firstErr
}

func (p *Pool) fail(err error) {
	if err == nil {
		return
	}
	p.mu.Lock()
	if p.firstErr == nil {
		p.firstErr = err
	}
	cause := p.firstErr
	p.mu.Unlock()
	p.Cancel(cause)
}
