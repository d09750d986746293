package lock

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"ops-insights-go/internal/blob"
	"ops-insights-go/internal/logger"
)

const lockPrefix = "locks/"

type lockDoc struct {
	Resource string    `json:"resource"`
	Token    string    `json:"token"`
	Expires  time.Time `json:"expires"`
}

// BlobLocker stores lock objects in the blob store so separate
// processes can see each other's locks. The read-check-write is not
// atomic; the lock stays advisory.
type BlobLocker struct {
	store      blob.Store
	waitBudget time.Duration
}

func NewBlobLocker(store blob.Store, waitBudget time.Duration) *BlobLocker {
	return &BlobLocker{store: store, waitBudget: waitBudget}
}

func (l *BlobLocker) Acquire(ctx context.Context, resource string, ttl time.Duration) Result {
	log := logger.New().WithComponent("lock").WithField("resource", resource)

	var token string
	storageDown := false
	op := func() error {
		t, err := l.tryAcquire(ctx, resource, ttl)
		if err != nil {
			if errors.Is(err, errHeld) {
				return errHeld
			}
			storageDown = true
			return backoff.Permanent(err)
		}
		token = t
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = l.waitBudget
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if storageDown {
			log.WithError(err).Warn("lock storage unavailable")
			return Result{Status: StatusStorageUnavailable}
		}
		return Result{Status: StatusTimedOut}
	}
	return Result{Status: StatusAcquired, Token: token}
}

func (l *BlobLocker) Release(ctx context.Context, token string) {
	log := logger.New().WithComponent("lock")
	infos, err := l.store.List(ctx, lockPrefix)
	if err != nil {
		log.WithError(err).Warn("release: listing locks failed")
		return
	}
	for _, info := range infos {
		data, err := l.store.Fetch(ctx, info.URL)
		if err != nil {
			continue
		}
		var doc lockDoc
		if json.Unmarshal(data, &doc) != nil || doc.Token != token {
			continue
		}
		if err := l.store.Del(ctx, info.URL); err != nil {
			log.WithError(err).WithField("resource", doc.Resource).Warn("release failed")
		}
		return
	}
}

func (l *BlobLocker) tryAcquire(ctx context.Context, resource string, ttl time.Duration) (string, error) {
	key := lockPrefix + resource + ".json"

	infos, err := l.store.List(ctx, key)
	if err != nil {
		return "", err
	}
	for _, info := range infos {
		if info.Pathname != key {
			continue
		}
		data, err := l.store.Fetch(ctx, info.URL)
		if err != nil && !errors.Is(err, blob.ErrNotFound) {
			return "", err
		}
		var doc lockDoc
		if err == nil && json.Unmarshal(data, &doc) == nil && time.Now().Before(doc.Expires) {
			return "", errHeld
		}
	}

	doc := lockDoc{
		Resource: resource,
		Token:    uuid.New().String(),
		Expires:  time.Now().Add(ttl),
	}
	data, _ := json.Marshal(doc)
	if _, err := l.store.Put(ctx, key, data); err != nil {
		return "", err
	}
	return doc.Token, nil
}
