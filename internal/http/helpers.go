package http

import (
	"context"
	"errors"
	"net/http"

	"tracepay/internal/api"
	"tracepay/internal/core"
)

// upstreamError maps an admin backend failure to a response. Anything that
// is not a validation error is reported as a gateway status.
func upstreamError(err error) *JSONResponseBuilder {
	var apiErr *api.Error
	switch {
	case errors.Is(err, core.ErrInvalidPage), errors.Is(err, core.ErrInvalidDays):
		return BadRequestError(err.Error())
	case errors.Is(err, api.ErrUnauthorized):
		return ErrorResponse(http.StatusUnauthorized, "backend rejected the stored credentials")
	case errors.Is(err, api.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorResponse(http.StatusGatewayTimeout, api.ErrTimeout.Error())
	case errors.As(err, &apiErr):
		return ErrorResponse(http.StatusBadGateway, apiErr.Detail)
	default:
		return ErrorResponse(http.StatusBadGateway, "admin backend unavailable")
	}
}
