package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/autolot/internal/media"
)

const mediaCleanupTimeout = 30 * time.Second

type repo struct {
	store   Store
	media   media.System
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// Option configures the records system.
type Option func(*repo)

// WithClock replaces the clock used to stamp CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *repo) {
		r.now = now
	}
}

// New creates the listing service over a record store and the media adapter.
// Every store call is bounded by timeout when it is positive.
func New(
	store Store,
	mediaSys media.System,
	logger *slog.Logger,
	timeout time.Duration,
	opts ...Option,
) System {
	r := &repo{
		store:   store,
		media:   mediaSys,
		logger:  logger.With("system", "records"),
		timeout: timeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *repo) Handler(maxUploadSize int64, guard func(http.Handler) http.Handler) *Handler {
	return NewHandler(r, r.logger, maxUploadSize, guard)
}

func (r *repo) CreateInventoryEntry(
	ctx context.Context,
	sub InventorySubmission,
	files []media.File,
) (*Record, error) {
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	urls, err := r.media.UploadBatch(ctx, files)
	if err != nil {
		return nil, err
	}

	rec := Record{
		CustomerName: withDefault(sub.CustomerName, DefaultCustomerName),
		PhoneNumber:  withDefault(sub.PhoneNumber, DefaultPhoneNumber),
		CarName:      sub.CarName,
		CarModel:     sub.CarModel,
		Price:        CoercePrice(sub.Price),
		Description:  sub.Description,
		Images:       urls,
		IsAdminEntry: CoerceFlag(sub.IsAdminEntry),
	}

	created, err := r.create(ctx, rec)
	if err != nil {
		r.removeMedia(ctx, urls)
		return nil, err
	}

	r.logger.Info(
		"inventory entry created",
		"id", created.ID,
		"images", len(created.Images),
		"public", created.IsAdminEntry,
	)
	return created, nil
}

func (r *repo) CreateInquiry(ctx context.Context, sub InquirySubmission) (*Record, error) {
	created, err := r.create(ctx, Record{
		CustomerName: sub.Name,
		PhoneNumber:  withDefault(sub.Phone, DefaultPhoneNumber),
		Description:  sub.Message,
		Images:       []string{},
		IsAdminEntry: false,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("inquiry created", "id", created.ID)
	return created, nil
}

func (r *repo) ListPublicInventory(ctx context.Context) ([]Record, error) {
	return r.list(ctx, PublicInventory())
}

func (r *repo) ListInquiries(ctx context.Context) ([]Record, error) {
	return r.list(ctx, Inquiries())
}

func (r *repo) Find(ctx context.Context, id string) (*Record, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	rec, err := r.store.Find(ctx, id)
	if err != nil {
		return nil, r.storeError("find record", err)
	}
	return normalize(rec), nil
}

func (r *repo) UpdateRecord(ctx context.Context, id string, fields map[string]any) (*Record, error) {
	cmd, err := DecodeUpdate(fields)
	if err != nil {
		return nil, err
	}

	if cmd.Empty() {
		return r.Find(ctx, id)
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()

	rec, err := r.store.Update(ctx, id, cmd)
	if err != nil {
		return nil, r.storeError("update record", err)
	}

	r.logger.Info("record updated", "id", id)
	return normalize(rec), nil
}

func (r *repo) DeleteRecord(ctx context.Context, id string) error {
	storeCtx, cancel := r.bound(ctx)
	defer cancel()

	rec, err := r.store.Delete(storeCtx, id)
	if err != nil {
		return r.storeError("delete record", err)
	}

	r.removeMedia(ctx, rec.Images)

	r.logger.Info("record deleted", "id", id)
	return nil
}

func (r *repo) create(ctx context.Context, rec Record) (*Record, error) {
	rec.CreatedAt = r.now().UTC()

	ctx, cancel := r.bound(ctx)
	defer cancel()

	created, err := r.store.Create(ctx, rec)
	if err != nil {
		return nil, r.storeError("create record", err)
	}
	return normalize(created), nil
}

func (r *repo) list(ctx context.Context, f Filter) ([]Record, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	recs, err := r.store.List(ctx, f)
	if err != nil {
		return nil, r.storeError("list records", err)
	}

	for i := range recs {
		if recs[i].Images == nil {
			recs[i].Images = []string{}
		}
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}

func (r *repo) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// storeError passes ErrNotFound through and wraps anything else as ErrPersistence,
// keeping the store's message.
func (r *repo) storeError(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// removeMedia deletes record images without failing the caller.
func (r *repo) removeMedia(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mediaCleanupTimeout)
	defer cancel()

	if err := r.media.Remove(ctx, urls); err != nil {
		r.logger.Warn("media cleanup failed", "urls", urls, "error", err)
	}
}

func normalize(rec Record) *Record {
	if rec.Images == nil {
		rec.Images = []string{}
	}
	return &rec
}

func withDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
