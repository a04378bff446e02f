package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxRunner runs a unit of work, atomically when the store allows it
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// Atomic reports whether a failed fn leaves no partial writes behind.
	Atomic() bool
}

// mongoTxRunner needs a replica set or sharded cluster.
type mongoTxRunner struct {
	client *mongo.Client
}

func NewMongoTxRunner(client *mongo.Client) TxRunner {
	return &mongoTxRunner{client: client}
}

func (r *mongoTxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *mongoTxRunner) Atomic() bool { return true }

// directRunner calls fn as-is; each repository write stands on its own.
type directRunner struct{}

func NewDirectRunner() TxRunner {
	return directRunner{}
}

func (directRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (directRunner) Atomic() bool { return false }
