package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

var errHeld = errors.New("lock held")

type memEntry struct {
	token   string
	expires time.Time
}

// MemoryLocker keeps locks in an in-process map. It only guards against
// concurrent handlers inside one process; it is not durable.
type MemoryLocker struct {
	mu         sync.Mutex
	held       map[string]memEntry // resource -> entry
	byToken    map[string]string   // token -> resource
	waitBudget time.Duration
}

func NewMemoryLocker(waitBudget time.Duration) *MemoryLocker {
	return &MemoryLocker{
		held:       map[string]memEntry{},
		byToken:    map[string]string{},
		waitBudget: waitBudget,
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, resource string, ttl time.Duration) Result {
	var token string
	op := func() error {
		t, ok := l.tryAcquire(resource, ttl)
		if !ok {
			return errHeld
		}
		token = t
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = l.waitBudget
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return Result{Status: StatusTimedOut}
	}
	return Result{Status: StatusAcquired, Token: token}
}

func (l *MemoryLocker) Release(_ context.Context, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	resource, ok := l.byToken[token]
	if !ok {
		return
	}
	delete(l.byToken, token)
	if e, held := l.held[resource]; held && e.token == token {
		delete(l.held, resource)
	}
}

func (l *MemoryLocker) tryAcquire(resource string, ttl time.Duration) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if e, ok := l.held[resource]; ok && now.Before(e.expires) {
		return "", false
	}
	token := uuid.New().String()
	l.held[resource] = memEntry{token: token, expires: now.Add(ttl)}
	l.byToken[token] = resource
	return token, true
}
