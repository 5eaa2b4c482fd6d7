package api

import (
	"context"
	"fmt"

	"github.com/JaimeStill/autolot/internal/auth"
	"github.com/JaimeStill/autolot/internal/media"
	"github.com/JaimeStill/autolot/internal/records"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Records records.System
	Auth    auth.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) (*Domain, error) {
	store, err := newRecordStore(runtime)
	if err != nil {
		return nil, err
	}

	mediaSystem := media.New(runtime.Storage, runtime.Media, runtime.Logger)

	recordsSystem := records.New(
		store,
		mediaSystem,
		runtime.Logger,
		runtime.StoreTimeout,
	)

	authSystem := auth.New(
		auth.StaticCredentials{
			Username: runtime.Auth.Username,
			Password: runtime.Auth.Password,
			Hash:     runtime.Auth.PasswordHash,
		},
		auth.Config{
			Secret:   runtime.Auth.JWTSecret,
			TokenTTL: runtime.Auth.TokenTTLDuration(),
			Issuer:   runtime.Auth.Issuer,
		},
		runtime.Logger,
	)

	return &Domain{
		Records: recordsSystem,
		Auth:    authSystem,
	}, nil
}

func newRecordStore(runtime *Runtime) (records.Store, error) {
	switch {
	case runtime.Database != nil:
		return records.NewPostgresStore(runtime.Database.Connection()), nil
	case runtime.Mongo != nil:
		db := runtime.Mongo.Database()
		runtime.Lifecycle.OnStartup(func() error {
			ctx, cancel := context.WithTimeout(runtime.Lifecycle.Context(), runtime.StoreTimeout)
			defer cancel()
			return records.EnsureMongoIndexes(ctx, db)
		})
		return records.NewMongoStore(db), nil
	case runtime.Dynamo != nil:
		return records.NewDynamoStore(runtime.Dynamo.Client(), runtime.Dynamo.Table()), nil
	default:
		return nil, fmt.Errorf("no record store configured for backend %q", runtime.Backend)
	}
}
