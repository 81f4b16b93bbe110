package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// MemoryStore is an OrderStore holding orders in a map. It mirrors the
// dynamodb semantics the handlers rely on: whole-item puts, upserting single
// attribute updates and deletes returning the old item.
//
// Update names are document paths as in DynamoStore, so "a.b" sets b inside
// the map a and fails when a is missing or not a map. List indexes ("a[0]")
// are not supported and are rejected with ErrInvalidRequest.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[string]Order
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: map[string]Order{}}
}

func copyOrder(o Order) Order {
	if o == nil {
		return nil
	}

	c := make(Order, len(o))
	for k, v := range o {
		c[k] = copyValue(v)
	}

	return c
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		c := make(map[string]interface{}, len(t))
		for k, e := range t {
			c[k] = copyValue(e)
		}
		return c
	case Order:
		return copyOrder(t)
	case []interface{}:
		c := make([]interface{}, len(t))
		for i, e := range t {
			c[i] = copyValue(e)
		}
		return c
	default:
		return v
	}
}

// documentPath splits name into its map keys.
func documentPath(name string) ([]string, error) {
	if strings.ContainsAny(name, "[]") {
		return nil, errors.Wrapf(ErrInvalidRequest, "list index in '%s' is not supported", name)
	}

	path := strings.Split(name, ".")
	for _, p := range path {
		if p == "" {
			return nil, errors.Wrapf(ErrInvalidRequest, "empty segment in '%s'", name)
		}
	}

	if path[0] == KeyAttribute {
		return nil, errors.Wrapf(ErrInvalidRequest, "cannot update key attribute '%s'", KeyAttribute)
	}

	return path, nil
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case Order:
		return t, true
	default:
		return nil, false
	}
}

// Get implements OrderStore.
func (s *MemoryStore) Get(ctx context.Context, orderID string) (Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	return copyOrder(order), ok, nil
}

// Put implements OrderStore.
func (s *MemoryStore) Put(ctx context.Context, order Order) error {
	id, ok := order.ID()
	if !ok {
		return ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[id] = copyOrder(order)
	return nil
}

// UpdateField implements OrderStore.
func (s *MemoryStore) UpdateField(ctx context.Context, orderID string, name string, value interface{}) (Order, error) {
	path, err := documentPath(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		order = Order{KeyAttribute: orderID}
	}

	parent := map[string]interface{}(order)
	for i, p := range path[:len(path)-1] {
		child, ok := asMap(parent[p])
		if !ok {
			return nil, errors.Wrapf(ErrInvalidRequest, "document path '%s' is not a map", strings.Join(path[:i+1], "."))
		}
		parent = child
	}

	parent[path[len(path)-1]] = copyValue(value)
	s.orders[orderID] = order

	updated := copyValue(value)
	for i := len(path) - 1; i > 0; i-- {
		updated = map[string]interface{}{path[i]: updated}
	}

	return Order{path[0]: updated}, nil
}

// Delete implements OrderStore.
func (s *MemoryStore) Delete(ctx context.Context, orderID string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.orders[orderID]
	delete(s.orders, orderID)
	return order, nil
}

// Scan implements OrderStore. Orders are returned sorted by id.
func (s *MemoryStore) Scan(ctx context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.orders))
	for id := range s.orders {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	orders := make([]Order, 0, len(ids))
	for _, id := range ids {
		orders = append(orders, copyOrder(s.orders[id]))
	}

	return orders, nil
}
