// Package memory is an in-memory media host for tests and local development.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pixelforge/gallery/internal/errors"
	"github.com/pixelforge/gallery/internal/media"
)

// Uploader keeps uploaded blobs in a map keyed by public ID.
type Uploader struct {
	mu     sync.Mutex
	nextID int64
	blobs  map[string][]byte

	// FailDestroy makes Destroy return an upstream error, for exercising the
	// fail-closed deletion path.
	FailDestroy bool
}

var _ media.Uploader = (*Uploader)(nil)

// New creates an empty uploader.
func New() *Uploader {
	return &Uploader{nextID: 1, blobs: make(map[string][]byte)}
}

func (u *Uploader) Upload(_ context.Context, r io.Reader, filename string) (media.Asset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return media.Asset{}, errors.Upstream("read upload", err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	publicID := fmt.Sprintf("mem-%d", u.nextID)
	u.nextID++
	u.blobs[publicID] = data

	return media.Asset{
		URL:      fmt.Sprintf("memory://%s/%s", publicID, filename),
		PublicID: publicID,
	}, nil
}

func (u *Uploader) Destroy(_ context.Context, publicID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.FailDestroy {
		return errors.Upstream("media host unavailable", nil)
	}
	delete(u.blobs, publicID)
	return nil
}

// Stored reports whether a blob is still held for the public ID.
func (u *Uploader) Stored(publicID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.blobs[publicID]
	return ok
}
