package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/ranking-reports/internal/pipeline"
	"github.com/jonathan/ranking-reports/internal/types"
)

// ErrBadRequest indicates a malformed request that never reached the service.
type ErrBadRequest struct {
	Message string
}

func (e *ErrBadRequest) Error() string {
	return "bad request: " + e.Message
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		notFound     *types.NotFoundError
		invalidState *types.InvalidStateError
		unauthorized *types.UnauthorizedError
		badRequest   *ErrBadRequest
		validation   validator.ValidationErrors
		syntax       *json.SyntaxError
		typeErr      *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalidState), errors.Is(err, types.ErrTerminalState):
		return http.StatusConflict
	case errors.As(err, &unauthorized):
		return http.StatusForbidden
	case errors.As(err, &badRequest), errors.As(err, &validation),
		errors.As(err, &syntax), errors.As(err, &typeErr):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrShuttingDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
