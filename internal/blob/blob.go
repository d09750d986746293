// Package blob defines the key-blob store collaborator: an eventually
// consistent map from string key to JSON blob reached over HTTP. The
// service performs its own read-modify-write; writes are unconditional
// and last writer wins.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound reports that a key or URL has no stored blob.
var ErrNotFound = errors.New("blob: not found")

// ObjectInfo describes one stored blob in a listing.
type ObjectInfo struct {
	Pathname string `json:"pathname"`
	URL      string `json:"url"`
}

// Store is the hosted key-blob collaborator.
type Store interface {
	Put(ctx context.Context, key string, data []byte) (url string, err error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
	Del(ctx context.Context, url string) error
}
