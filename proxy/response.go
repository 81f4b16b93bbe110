package proxy

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
)

// NotFoundMessage is the body text returned for unmatched requests.
const NotFoundMessage = "404 Not Found"

// JSONResponse builds a response with a json content type and body set to the
// json encoding of body. A nil body produces an empty Body.
func JSONResponse(statusCode int, body interface{}) (events.APIGatewayProxyResponse, error) {
	response := events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}

	if body == nil {
		return response, nil
	}

	b, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, errors.Wrapf(err, "failed to marshal %d response body", statusCode)
	}

	response.Body = string(b)
	return response, nil
}

// NotFound is a CatchAllHandler responding 404 with the json string
// NotFoundMessage as body.
func NotFound(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return JSONResponse(http.StatusNotFound, NotFoundMessage)
}
