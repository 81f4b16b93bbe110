package orders

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/prognoshealth/orderproxy/store"
)

var testPaths = Paths{
	Health: "/womencare",
	Order:  "/order",
	Orders: "/orders",
}

func newTestFunction(t *testing.T, s store.OrderStore) (*Function, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)

	fn, err := NewFunction(s, zap.New(core), testPaths)
	require.NoError(t, err)

	return fn, logs
}

func request(method string, path string, body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       path,
		Body:       body,
	}
}

func call(t *testing.T, fn *Function, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	response, err := fn.Handle(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "application/json", response.Headers["Content-Type"])

	return response
}

// failingStore fails every operation with err.
type failingStore struct {
	err error
}

func (s *failingStore) Get(context.Context, string) (store.Order, bool, error) {
	return nil, false, s.err
}

func (s *failingStore) Put(context.Context, store.Order) error {
	return s.err
}

func (s *failingStore) UpdateField(context.Context, string, string, interface{}) (store.Order, error) {
	return nil, s.err
}

func (s *failingStore) Delete(context.Context, string) (store.Order, error) {
	return nil, s.err
}

func (s *failingStore) Scan(context.Context) ([]store.Order, error) {
	return nil, s.err
}

var errTableGone = errors.New("ResourceNotFoundException: table gone")
