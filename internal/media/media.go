// Package media uploads user media (avatars, cover images) to an
// S3-compatible object store and hands back public URLs.
package media

import (
	"context"
	"io"
)

// Uploader is the contract the service layer consumes. Upload streams the
// file to the media host and returns the public URL of the stored object.
// No retries are attempted; a failed upload surfaces immediately.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error)
}
