package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// TransactionManager runs fn atomically. Repositories called with the ctx
// handed to fn take part in the transaction.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mongoTransactionManager struct {
	client *mongo.Client
}

// NewTransactionManager returns a session backed manager, or a pass-through
// one when transactions are disabled (standalone mongod has no transactions).
func NewTransactionManager(client *mongo.Client, enabled bool) TransactionManager {
	if client == nil || !enabled {
		return noopTransactionManager{}
	}
	return &mongoTransactionManager{client: client}
}

func (m *mongoTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("mongo: transaction function is required")
	}
	// already inside a session: join it
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo: start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
