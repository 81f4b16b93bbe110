package orders

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/prognoshealth/orderproxy/lambdautils"
	"github.com/prognoshealth/orderproxy/proxy"
	"github.com/prognoshealth/orderproxy/store"
)

// Operation names reported in OperationResult.
const (
	// OperationSave is reported by the create route.
	OperationSave = "SAVE"
	// OperationUpdate is reported by the single field update route.
	OperationUpdate = "UPDATE"
	// OperationDelete is reported by the delete route.
	OperationDelete = "DELETE"
)

// SuccessMessage is the Message of every successful write.
const SuccessMessage = "SUCCESSFULLY DONE"

// OperationResult is the body returned by the write operations.
type OperationResult struct {
	Operation         string      `json:"Operation"`
	Message           string      `json:"Message"`
	Item              interface{} `json:"Item,omitempty"`
	UpdatedAttributes interface{} `json:"UpdatedAttributes,omitempty"`
}

// StoreResponse wraps the attributes a store write returned.
type StoreResponse struct {
	Attributes store.Order `json:"Attributes,omitempty"`
}

// OrdersResult is the body of the list operation.
type OrdersResult struct {
	Orders []store.Order `json:"orders"`
}

// ErrorResult is the body of every failed request.
type ErrorResult struct {
	Message string `json:"Message"`
}

type getRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

type modifyRequest struct {
	OrderID     string      `json:"orderId" validate:"required"`
	UpdateKey   string      `json:"updateKey" validate:"required,ne=orderId"`
	UpdateValue interface{} `json:"updateValue"`
}

type deleteRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

// Handler serves the order routes against an OrderStore.
type Handler struct {
	Store store.OrderStore

	logger   *zap.Logger
	validate *validator.Validate
}

// NewHandler returns a Handler for s logging through logger.
func NewHandler(s store.OrderStore, logger *zap.Logger) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		Store:    s,
		logger:   logger,
		validate: v,
	}
}

func (h *Handler) log(ctx context.Context) *zap.Logger {
	return lambdautils.Logger(ctx, h.logger)
}

// decode unmarshals the request body into v and validates it.
func (h *Handler) decode(rctx *proxy.RouteContext, v interface{}) error {
	if err := rctx.DecodeBody(v); err != nil {
		return errors.Wrap(ErrMalformedInput, err.Error())
	}

	if err := h.validate.Struct(v); err != nil {
		return validationError(err)
	}

	return nil
}

// Health responds 200 without a body.
func (h *Handler) Health(rctx *proxy.RouteContext) (events.APIGatewayProxyResponse, error) {
	return proxy.JSONResponse(http.StatusOK, nil)
}

// GetOrder responds with the order named by the orderId query parameter. A
// missing order is answered with 200 and no body.
func (h *Handler) GetOrder(rctx *proxy.RouteContext) (events.APIGatewayProxyResponse, error) {
	req := getRequest{OrderID: rctx.Params["orderId"]}
	if err := h.validate.Struct(req); err != nil {
		return events.APIGatewayProxyResponse{}, validationError(err)
	}

	order, found, err := h.Store.Get(rctx.Context, req.OrderID)
	if err != nil {
		return events.APIGatewayProxyResponse{}, errors.Wrapf(err, "failed getting order %s", req.OrderID)
	}

	if !found {
		h.log(rctx.Context).Info("order not found", zap.String("orderId", req.OrderID))
		return proxy.JSONResponse(http.StatusOK, nil)
	}

	return proxy.JSONResponse(http.StatusOK, order)
}

// GetOrders responds with every order in the store.
func (h *Handler) GetOrders(rctx *proxy.RouteContext) (events.APIGatewayProxyResponse, error) {
	orders, err := h.Store.Scan(rctx.Context)
	if err != nil {
		return events.APIGatewayProxyResponse{}, errors.Wrap(err, "failed scanning orders")
	}

	if orders == nil {
		orders = []store.Order{}
	}

	h.log(rctx.Context).Debug("scanned orders", zap.Int("count", len(orders)))
	return proxy.JSONResponse(http.StatusOK, OrdersResult{Orders: orders})
}

// SaveOrder writes the request body as a whole order, replacing any order
// with the same id.
func (h *Handler) SaveOrder(rctx *proxy.RouteContext) (events.APIGatewayProxyResponse, error) {
	var order store.Order
	if err := rctx.DecodeBody(&order); err != nil {
		return events.APIGatewayProxyResponse{}, errors.Wrap(ErrMalformedInput, err.Error())
	}

	id, ok := order.ID()
	if !ok {
		return events.APIGatewayProxyResponse{}, malformed("orderId must be a non empty string")
	}

	if err := h.Store.Put(rctx.Context, order); err != nil {
		return events.APIGatewayProxyResponse{}, errors.Wrapf(err, "failed saving order %s", id)
	}

	return proxy.JSONResponse(http.StatusOK, OperationResult{
		Operation: OperationSave,
		Message:   SuccessMessage,
		Item:      order,
	})
}

// ModifyOrder sets a single attribute of an order.
func (h *Handler) ModifyOrder(rctx *proxy.RouteContext) (events.APIGatewayProxyResponse, error) {
	var req modifyRequest
	if err := h.decode(rctx, &req); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	attrs, err := h.Store.UpdateField(rctx.Context, req.OrderID, req.UpdateKey, req.UpdateValue)
	if err != nil {
		return events.APIGatewayProxyResponse{}, errors.Wrapf(err, "failed updating '%s' of order %s", req.UpdateKey, req.OrderID)
	}

	return proxy.JSONResponse(http.StatusOK, OperationResult{
		Operation:         OperationUpdate,
		Message:           SuccessMessage,
		UpdatedAttributes: StoreResponse{Attributes: attrs},
	})
}

// DeleteOrder removes the order named in the request body and responds with
// its previous attributes.
func (h *Handler) DeleteOrder(rctx *proxy.RouteContext) (events.APIGatewayProxyResponse, error) {
	var req deleteRequest
	if err := h.decode(rctx, &req); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	old, err := h.Store.Delete(rctx.Context, req.OrderID)
	if err != nil {
		return events.APIGatewayProxyResponse{}, errors.Wrapf(err, "failed deleting order %s", req.OrderID)
	}

	if old == nil {
		h.log(rctx.Context).Info("deleted order did not exist", zap.String("orderId", req.OrderID))
	}

	return proxy.JSONResponse(http.StatusOK, OperationResult{
		Operation: OperationDelete,
		Message:   SuccessMessage,
		Item:      StoreResponse{Attributes: old},
	})
}

// HandleError logs err and converts it into an error response. Malformed
// input is reported back verbatim. A request the store rejected only reports
// store.ErrInvalidRequest since the store's own message names the table.
// Anything else is an internal error.
func (h *Handler) HandleError(ctx context.Context, request events.APIGatewayProxyRequest, err error) (events.APIGatewayProxyResponse, error) {
	status := StatusCode(err)
	logger := h.log(ctx).With(
		zap.String("method", request.HTTPMethod),
		zap.String("path", request.Path),
		zap.Int("status", status),
		zap.Error(err),
	)

	if status == http.StatusBadRequest {
		logger.Warn("rejected request")
		return proxy.JSONResponse(status, ErrorResult{Message: clientMessage(err)})
	}

	logger.Error("failed request")
	return proxy.JSONResponse(status, ErrorResult{Message: http.StatusText(status)})
}
