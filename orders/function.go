package orders

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/prognoshealth/orderproxy/lambdautils"
	"github.com/prognoshealth/orderproxy/proxy"
	"github.com/prognoshealth/orderproxy/store"
)

// Paths are the request paths the order routes are served on.
type Paths struct {
	Health string
	Order  string
	Orders string
}

// NewRouter returns the router for the order routes. Unmatched requests get
// proxy.NotFound and route errors go through h.HandleError.
func NewRouter(h *Handler, paths Paths) (*proxy.Router, error) {
	router := &proxy.Router{}

	router.GET(paths.Health, h.Health)
	router.GET(paths.Order, h.GetOrder)
	router.GET(paths.Orders, h.GetOrders)
	router.POST(paths.Order, h.SaveOrder)
	router.PATCH(paths.Order, h.ModifyOrder)
	router.DELETE(paths.Order, h.DeleteOrder)

	router.AddCatchAllHandler(proxy.NotFound)
	router.AddErrorHandler(h.HandleError)

	if !router.Valid() {
		return nil, router.BuildErrors()
	}

	return router, nil
}

// Function is the lambda entry point of the orders api.
type Function struct {
	router *proxy.Router
	logger *zap.Logger
}

// NewFunction wires a Handler over s into a router served on paths.
func NewFunction(s store.OrderStore, logger *zap.Logger, paths Paths) (*Function, error) {
	router, err := NewRouter(NewHandler(s, logger), paths)
	if err != nil {
		return nil, err
	}

	return &Function{
		router: router,
		logger: logger,
	}, nil
}

// Handle routes a single api gateway request.
func (fn *Function) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx = lambdautils.WithRequestID(ctx)

	logger := lambdautils.Logger(ctx, fn.logger)
	logger.Info("request event",
		zap.String("method", request.HTTPMethod),
		zap.String("path", request.Path),
		zap.Any("query", request.QueryStringParameters),
	)

	response, err := fn.router.Route(ctx, request)
	if err != nil {
		logger.Error("unhandled request error", zap.Error(err))
		return response, err
	}

	logger.Debug("response", zap.Int("status", response.StatusCode))
	return response, nil
}
