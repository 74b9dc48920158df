package pdf

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing.
const (
	MinPoolSize = 1

	// MaxPoolSize caps browser instances, roughly 200MB each.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("pdf pool is closed")

// Pool hands out Converters, each with its own browser, so documents print
// in parallel. Converters are created on first demand.
type Pool struct {
	size    int
	newConv func() (*Converter, error)

	mu      sync.Mutex
	created []*Converter
	idle    chan *Converter
	closed  bool
}

// NewPool creates a pool of at most n converters with the given settings.
func NewPool(n int, settings Settings) (*Pool, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return newPool(n, func() (*Converter, error) {
		return NewConverter(settings, DefaultTimeout)
	}), nil
}

func newPool(n int, newConv func() (*Converter, error)) *Pool {
	if n < MinPoolSize {
		n = MinPoolSize
	}
	return &Pool{
		size:    n,
		newConv: newConv,
		idle:    make(chan *Converter, n),
	}
}

// Acquire returns an idle converter, creating one while under capacity and
// blocking otherwise.
func (p *Pool) Acquire(ctx context.Context) (*Converter, error) {
	select {
	case c, ok := <-p.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		return c, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if len(p.created) < p.size {
		c, err := p.newConv()
		if err != nil {
			p.mu.Unlock()
			return nil, err
		}
		p.created = append(p.created, c)
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	select {
	case c, ok := <-p.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns c to the pool. Converters released after Close are
// closed instead.
func (p *Pool) Release(c *Converter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = c.Close()
		return
	}
	p.idle <- c
}

// Convert prints doc on a pooled converter.
func (p *Pool) Convert(ctx context.Context, doc []byte) ([]byte, error) {
	c, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(c)
	return c.Convert(ctx, doc)
}

// Size returns the pool capacity.
func (p *Pool) Size() int {
	return p.size
}

// Close releases every browser. Errors are joined.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.idle)
	created := p.created
	p.mu.Unlock()

	var errs []error
	for _, c := range created {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ResolvePoolSize returns workers when positive, otherwise half of
// GOMAXPROCS bounded by MinPoolSize and MaxPoolSize.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	return min(max(n, MinPoolSize), MaxPoolSize)
}
