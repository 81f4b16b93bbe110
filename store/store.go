// Package store persists orders. DynamoStore talks to a dynamodb table and
// MemoryStore keeps orders in process for tests and local runs.
package store

import (
	"context"

	"github.com/pkg/errors"
)

// KeyAttribute is the partition key of the orders table.
const KeyAttribute = "orderId"

var (
	// ErrInvalidRequest is the cause of errors where the store rejected the
	// request itself, as opposed to failing to serve it.
	ErrInvalidRequest = errors.New("invalid store request")
)

// Order is a schema-less order record. Only KeyAttribute is required.
type Order map[string]interface{}

// ID returns the order's key and whether it is a non-empty string.
func (o Order) ID() (string, bool) {
	id, ok := o[KeyAttribute].(string)
	return id, ok && id != ""
}

// OrderStore is the storage contract the order handlers depend on.
type OrderStore interface {
	// Get returns the order with the given id. found is false when no such
	// order exists.
	Get(ctx context.Context, orderID string) (order Order, found bool, err error)

	// Put writes the whole order, replacing any existing order with the same id.
	Put(ctx context.Context, order Order) error

	// UpdateField sets a single attribute and returns the updated attributes.
	UpdateField(ctx context.Context, orderID string, name string, value interface{}) (Order, error)

	// Delete removes the order and returns its previous attributes, nil if
	// there were none.
	Delete(ctx context.Context, orderID string) (Order, error)

	// Scan returns every order in the store.
	Scan(ctx context.Context) ([]Order, error)
}
