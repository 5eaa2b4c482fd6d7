package records

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/JaimeStill/autolot/pkg/query"
	"github.com/JaimeStill/autolot/pkg/repository"
)

type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a Store over the records table created by cmd/migrate.
func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Create(ctx context.Context, r Record) (Record, error) {
	q, args := query.NewBuilder(projection).BuildInsert([]query.Assignment{
		{Field: "ID", Value: uuid.New()},
		{Field: "CustomerName", Value: r.CustomerName},
		{Field: "PhoneNumber", Value: r.PhoneNumber},
		{Field: "CarName", Value: r.CarName},
		{Field: "CarModel", Value: r.CarModel},
		{Field: "Price", Value: r.Price},
		{Field: "Description", Value: r.Description},
		{Field: "Images", Value: imageList(r.Images)},
		{Field: "IsAdminEntry", Value: r.IsAdminEntry},
		{Field: "CreatedAt", Value: r.CreatedAt},
	})

	return repository.QueryOne(ctx, s.db, q, args, scanRecord)
}

func (s *postgresStore) List(ctx context.Context, f Filter) ([]Record, error) {
	qb := query.NewBuilder(projection, defaultSort...)
	f.Apply(qb)

	q, args := qb.Build()
	return repository.QueryMany(ctx, s.db, q, args, scanRecord)
}

func (s *postgresStore) Find(ctx context.Context, id string) (Record, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Record{}, ErrNotFound
	}

	q, args := query.NewBuilder(projection).BuildSingle("ID", uid)
	r, err := repository.QueryOne(ctx, s.db, q, args, scanRecord)
	if err != nil {
		return Record{}, repository.MapError(err, ErrNotFound)
	}
	return r, nil
}

func (s *postgresStore) Update(ctx context.Context, id string, cmd UpdateCommand) (Record, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Record{}, ErrNotFound
	}

	q, args := query.NewBuilder(projection).BuildUpdate("ID", uid, cmd.assignments())
	r, err := repository.QueryOne(ctx, s.db, q, args, scanRecord)
	if err != nil {
		return Record{}, repository.MapError(err, ErrNotFound)
	}
	return r, nil
}

func (s *postgresStore) Delete(ctx context.Context, id string) (Record, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Record{}, ErrNotFound
	}

	q, args := query.NewBuilder(projection).BuildDelete("ID", uid)
	r, err := repository.QueryOne(ctx, s.db, q, args, scanRecord)
	if err != nil {
		return Record{}, repository.MapError(err, ErrNotFound)
	}
	return r, nil
}
