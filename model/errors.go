package model

import (
	"errors"
	"net/http"

	"github.com/Scalingo/ghlangstats/aggregator"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewAPIError maps a service or aggregation error to the body returned to API clients
func NewAPIError(errReason error) APIError {
	switch {
	case errors.Is(errReason, aggregator.ErrEmptyDataset):
		return APIError{
			Code:    aggregator.ErrEmptyDataset.Error(),
			Message: "no language data found for the requested repositories",
		}

	case errors.Is(errReason, aggregator.ErrInvalidWeight):
		return APIError{
			Code:    aggregator.ErrInvalidWeight.Error(),
			Message: "github returned invalid language data. contact our support with the reason code for assistance",
		}
	}

	switch errReason.Error() {
	case "RATE_LIMIT_REACHED":
		return APIError{
			Code:    "RATE_LIMIT_REACHED",
			Message: "github rate limit reached. consider using a token to increase the limit or wait few minutes and try again",
		}

	case "MISSING_USERNAME":
		return APIError{
			Code:    "MISSING_USERNAME",
			Message: "a github username is required, either as user query parameter or in configuration",
		}

	case "GRAPHQL_UNAVAILABLE":
		return APIError{
			Code:    "GRAPHQL_UNAVAILABLE",
			Message: "profile statistics require a github token to be configured",
		}

	default:
		return APIError{
			Code:    errReason.Error(),
			Message: "internal server error. contact our support with the reason code for assistance",
		}
	}
}

// HTTPStatus returns the status code matching an error code
func (e APIError) HTTPStatus() int {
	switch e.Code {
	case "RATE_LIMIT_REACHED":
		return http.StatusTooManyRequests
	case "MISSING_USERNAME", "INVALID_QUERY":
		return http.StatusBadRequest
	case "EMPTY_DATASET":
		return http.StatusUnprocessableEntity
	case "GRAPHQL_UNAVAILABLE":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
