package workers

import (
	"context"
	"sync"
	"time"
)

// Observer receives limiter events.
type Observer interface {
	ObserveQueueWait(d time.Duration)
	ObserveInProgress(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveQueueWait(time.Duration) {}
func (nopObserver) ObserveInProgress(int)          {}

// Limiter bounds the number of concurrent holders.
type Limiter struct {
	slots    chan struct{}
	observer Observer

	mu     sync.Mutex
	active int
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithObserver reports queue wait and occupancy to o.
func WithObserver(o Observer) LimiterOption {
	return func(l *Limiter) {
		if o != nil {
			l.observer = o
		}
	}
}

// NewLimiter creates a Limiter admitting n holders at once; n below 1 is
// treated as 1.
func NewLimiter(n int, opts ...LimiterOption) *Limiter {
	if n < 1 {
		n = 1
	}
	l := &Limiter{slots: make(chan struct{}, n), observer: nopObserver{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Size returns the number of slots.
func (l *Limiter) Size() int {
	return cap(l.slots)
}

// Active returns the number of current holders.
func (l *Limiter) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Acquire blocks until a slot is free or ctx is done. The returned release
// function must be called exactly once; further calls are ignored.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	start := time.Now()
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	l.observer.ObserveQueueWait(time.Since(start))
	l.adjust(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.adjust(-1)
			<-l.slots
		})
	}, nil
}

func (l *Limiter) adjust(delta int) {
	l.mu.Lock()
	l.active += delta
	n := l.active
	l.mu.Unlock()
	l.observer.ObserveInProgress(n)
}
