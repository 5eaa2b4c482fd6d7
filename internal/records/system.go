package records

import (
	"context"
	"net/http"

	"github.com/JaimeStill/autolot/internal/media"
)

// System defines the public contract for listing operations.
type System interface {
	// Handler builds the HTTP handler. guard, when non-nil, wraps every admin route.
	Handler(maxUploadSize int64, guard func(http.Handler) http.Handler) *Handler

	CreateInventoryEntry(ctx context.Context, sub InventorySubmission, files []media.File) (*Record, error)
	CreateInquiry(ctx context.Context, sub InquirySubmission) (*Record, error)
	ListPublicInventory(ctx context.Context) ([]Record, error)
	ListInquiries(ctx context.Context) ([]Record, error)
	Find(ctx context.Context, id string) (*Record, error)
	UpdateRecord(ctx context.Context, id string, fields map[string]any) (*Record, error)
	DeleteRecord(ctx context.Context, id string) error
}
