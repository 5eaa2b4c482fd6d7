package media

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/autolot/pkg/storage"
)

const (
	cleanupTimeout = 30 * time.Second
	batchIDBytes   = 4
)

type uploader struct {
	store   storage.System
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
	batchID func() string
}

// Option configures optional uploader behavior.
type Option func(*uploader)

// WithClock overrides the time source used to stamp keys.
func WithClock(now func() time.Time) Option {
	return func(u *uploader) { u.now = now }
}

// WithBatchID overrides the generator of the per-batch key token.
func WithBatchID(fn func() string) Option {
	return func(u *uploader) { u.batchID = fn }
}

// New creates a media system backed by the given blob storage.
func New(store storage.System, cfg Config, logger *slog.Logger, opts ...Option) System {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	u := &uploader{
		store:   store,
		cfg:     cfg,
		logger:  logger.With("system", "media"),
		now:     time.Now,
		batchID: newBatchID,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func newBatchID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:batchIDBytes])
}

func (u *uploader) UploadBatch(ctx context.Context, files []File) ([]string, error) {
	if len(files) == 0 {
		return []string{}, nil
	}
	if u.cfg.MaxFiles > 0 && len(files) > u.cfg.MaxFiles {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrTooManyFiles, len(files), u.cfg.MaxFiles)
	}
	for _, f := range files {
		if !f.Supported() {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, f.Name)
		}
	}

	if u.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.cfg.Timeout)
		defer cancel()
	}

	keys := batchKeys(u.cfg.Folder, u.now().UTC(), u.batchID(), files)
	owned := slices.Clone(keys)
	urls := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.cfg.Concurrency)

	for i, f := range files {
		g.Go(func() error {
			url, err := u.store.Upload(gctx, keys[i], f.Body, f.contentType())
			if err != nil {
				if errors.Is(err, storage.ErrKeyExists) {
					owned[i] = ""
				}
				return fmt.Errorf("%w: %s: %w", ErrUpload, f.Name, err)
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		u.rollback(ctx, owned)
		return nil, err
	}

	u.logger.Info("media batch uploaded", "count", len(urls))
	return urls, nil
}

func (u *uploader) Remove(ctx context.Context, urls []string) error {
	var errs []error

	for _, raw := range urls {
		key, ok := u.store.Key(raw)
		if !ok {
			u.logger.Warn("skipping foreign media url", "url", raw)
			continue
		}
		if err := u.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

// rollback deletes every key the failed batch may have written, whether or not
// its upload returned a URL; an upload cancelled mid-flight can still commit.
// Empty keys belong to another writer and are left alone. It runs detached
// from the request context, which is usually already cancelled.
func (u *uploader) rollback(ctx context.Context, keys []string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := u.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			u.logger.Error("orphaned media after failed batch", "key", key, "error", err)
		}
	}
}
