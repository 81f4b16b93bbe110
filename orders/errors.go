package orders

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/prognoshealth/orderproxy/store"
)

// ErrMalformedInput is the cause of errors from unparseable bodies and missing
// or invalid fields. Any error without this cause (or store.ErrInvalidRequest)
// is treated as a store failure.
var ErrMalformedInput = errors.New("malformed input")

// StatusCode maps a handler error to the http status reported to the caller.
func StatusCode(err error) int {
	switch errors.Cause(err) {
	case ErrMalformedInput, store.ErrInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage is the text of a 400 response for err.
func clientMessage(err error) string {
	if errors.Cause(err) == store.ErrInvalidRequest {
		return store.ErrInvalidRequest.Error()
	}

	return err.Error()
}

func malformed(format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformedInput, format, args...)
}

// validationError flattens validator errors into a single malformed input
// error naming every offending field.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return malformed("%v", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}

	return malformed("invalid request: %s", strings.Join(msgs, ", "))
}
