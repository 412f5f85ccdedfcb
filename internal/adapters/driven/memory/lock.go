package memory

import (
	"context"
	"sync"
	"time"

	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*Lock)(nil)

// Lock implements DistributedLock within a single process. It only
// coordinates goroutines of one instance; multi-instance deployments need
// the Redis lock.
type Lock struct {
	mu    sync.Mutex
	locks map[string]time.Time // name -> expiry
}

// NewLock creates an in-process lock.
func NewLock() *Lock {
	return &Lock{
		locks: make(map[string]time.Time),
	}
}

func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, held := l.locks[name]; held && time.Now().Before(expiry) {
		return false, nil
	}
	l.locks[name] = time.Now().Add(ttl)
	return true, nil
}

func (l *Lock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	delete(l.locks, name)
	l.mu.Unlock()
	return nil
}

func (l *Lock) Ping(ctx context.Context) error {
	return nil
}
