package records

import "context"

// Store persists records. Implementations assign IDs on Create, return
// List results newest first, and report a missing id as ErrNotFound.
type Store interface {
	Create(ctx context.Context, r Record) (Record, error)
	List(ctx context.Context, f Filter) ([]Record, error)
	Find(ctx context.Context, id string) (Record, error)
	Update(ctx context.Context, id string, cmd UpdateCommand) (Record, error)
	// Delete removes the record and returns it as it was before deletion.
	Delete(ctx context.Context, id string) (Record, error)
}
