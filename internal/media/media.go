// Package media defines the upload collaborator contract: an external host
// that stores raw image bytes and hands back a stable reference.
package media

import (
	"context"
	"io"
)

// Asset is the stable reference returned by the host. PublicID is the opaque
// handle required to purge the stored binary later.
type Asset struct {
	URL      string
	PublicID string
}

// Uploader stores and purges image binaries on the media host.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, filename string) (Asset, error)
	Destroy(ctx context.Context, publicID string) error
}
