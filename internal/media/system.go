// Package media uploads bounded batches of listing images to blob storage and
// removes them again by durable URL.
package media

import (
	"context"
	"time"
)

// System uploads image batches and removes previously issued media.
type System interface {
	// UploadBatch stores every file and returns their durable URLs in submission
	// order. The batch is all-or-nothing: on any failure no uploaded blob remains.
	UploadBatch(ctx context.Context, files []File) ([]string, error)
	// Remove deletes the blobs behind durable URLs issued by UploadBatch.
	// Foreign URLs are skipped and already-missing blobs are not an error.
	Remove(ctx context.Context, urls []string) error
}

// Config bounds upload batches.
type Config struct {
	Folder      string
	MaxFiles    int
	Concurrency int
	Timeout     time.Duration
}
