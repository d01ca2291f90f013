package endpoints

import (
	"context"
	"errors"

	"cpu-monitoring/internal/domain"
)

const (
	API_SUCCESS = iota + 303000 // 303000
	API_FAILURE                 // 303001 - Generic API failure
)

const (
	INVALID_PARAMETERS = iota + 101 // 101 - Missing or unparsable query parameter
	INVALID_TIME_RANGE              // 102 - Start after end, or end in the future
	REQUEST_CANCELLED               // 103 - Request was cancelled by client or server timeout
	METHOD_NOT_ALLOWED              // 104 - Only GET is served
)

var (
	ErrInvalidParameters = errors.New("invalid or missing query parameter")
	ErrRequestCancelled  = errors.New("request cancelled by client or server timeout")
	ErrMethodNotAllowed  = errors.New("method not allowed, only GET requests are supported")
)

func GetErrorCode(err error) int {
	if err == nil {
		return API_SUCCESS
	}

	switch {
	case errors.Is(err, ErrInvalidParameters):
		return INVALID_PARAMETERS
	case errors.Is(err, domain.ErrInvalidRange):
		return INVALID_TIME_RANGE
	case errors.Is(err, ErrRequestCancelled), errors.Is(err, context.Canceled):
		return REQUEST_CANCELLED
	case errors.Is(err, ErrMethodNotAllowed):
		return METHOD_NOT_ALLOWED
	default:
		return API_FAILURE
	}
}
