package graph

import (
	"context"
	"errors"
	"strings"

	"github.com/wadjakorntonsri/linkboard/pkg/core/auth"
	"github.com/wadjakorntonsri/linkboard/pkg/core/domain"
	"github.com/wadjakorntonsri/linkboard/pkg/logger"
	"go.uber.org/zap"
)

// Error codes returned in the "extensions.code" field
const (
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeMissingCredential = "MISSING_CREDENTIAL"
	CodeInvalidCredential = "INVALID_CREDENTIAL"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidArgument   = "INVALID_ARGUMENT"
	CodeInternal          = "INTERNAL"
	internalMessage       = "internal error"
)

// Error is a resolver error with a stable machine-readable code
type Error struct {
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.err }

// Extensions is picked up by graphql-go and rendered next to the message
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

// toGraphQLError maps domain errors to coded GraphQL errors. Anything unknown
// is logged and hidden behind a generic message.
func toGraphQLError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		return newError(CodeMissingCredential, userMessage(err), err)
	case errors.Is(err, domain.ErrInvalidCredential):
		return newError(CodeInvalidCredential, userMessage(err), err)
	case errors.Is(err, domain.ErrUnauthenticated):
		return newError(CodeUnauthenticated, userMessage(err), err)
	case errors.Is(err, domain.ErrNotFound):
		return newError(CodeNotFound, domain.ErrNotFound.Error(), err)
	case errors.Is(err, domain.ErrInvalidArgument):
		msg := err.Error()
		if i := strings.Index(msg, domain.ErrInvalidArgument.Error()); i >= 0 {
			msg = msg[i:]
		}
		return newError(CodeInvalidArgument, msg, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newError(CodeInternal, err.Error(), err)
	}

	logger.From(ctx).Error("resolver failed", zap.Error(err))
	return newError(CodeInternal, internalMessage, err)
}

// userMessage prefers the guard's own wording over the wrapped chain
func userMessage(err error) string {
	var ue *auth.UnauthenticatedError
	if errors.As(err, &ue) {
		return ue.Error()
	}
	return err.Error()
}

func newError(code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, err: err}
}
