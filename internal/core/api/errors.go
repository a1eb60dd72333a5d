package api

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/rulekeeper/internal/types"
)

// Service-level errors not owned by the domain types.
var (
	// ErrInvalidRequest indicates a request body that cannot be decoded or
	// combines mutually exclusive fields.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrStoreDisabled indicates an operation that needs persistence on a
	// service running without a database.
	ErrStoreDisabled = errors.New("persistence is not configured")
)

// Error mapping is done in one place for both transports.
// Validation errors map to INVALID_ARGUMENT / 400.
// Missing rows map to NOT_FOUND / 404, expired ledgers to FAILED_PRECONDITION / 410.
// Context timeouts map to DEADLINE_EXCEEDED / 504.
// Anything else came from the database and maps to UNAVAILABLE / 503.

// Code returns the gRPC code for err.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, types.ErrInvalidRuleSet),
		errors.Is(err, types.ErrInvalidDirection),
		errors.Is(err, types.ErrInvalidMode),
		errors.Is(err, types.ErrInvalidRuleSetName),
		errors.Is(err, types.ErrInvalidLedgerID),
		errors.Is(err, types.ErrConflictIndexOutOfRange),
		errors.Is(err, types.ErrTextTooLarge),
		errors.Is(err, types.ErrTooManyRules):
		return codes.InvalidArgument
	case errors.Is(err, types.ErrRuleSetNotFound),
		errors.Is(err, types.ErrLedgerNotFound):
		return codes.NotFound
	case errors.Is(err, types.ErrLedgerExpired):
		return codes.FailedPrecondition
	case errors.Is(err, ErrStoreDisabled):
		return codes.Unimplemented
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	default:
		return codes.Unavailable
	}
}

// GRPCError converts err to a gRPC status error.
func GRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(Code(err), err.Error())
}

// HTTPStatus returns the HTTP status for err.
func HTTPStatus(err error) int {
	switch Code(err) {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition:
		return http.StatusGone
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		return 499
	default:
		return http.StatusServiceUnavailable
	}
}
