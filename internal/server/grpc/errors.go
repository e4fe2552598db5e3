package grpc

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// statusError maps a service error to a gRPC status. Unexpected errors are
// logged and reported as a bare "internal error".
func (s *GRPCServer) statusError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "token expired")
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "invalid username or password")
	case errors.Is(err, common.ErrorForbidden):
		return status.Error(codes.PermissionDenied, "not enough privileges")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "user not found")
	case errors.Is(err, common.ErrorConflict):
		return status.Error(codes.AlreadyExists, "user already exists")
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, validationMessage(err))
	}

	s.logger.Error(ctx, "request failed", "op", op, "error", err, "request_id", RequestIDFromContext(ctx))
	return status.Error(codes.Internal, "internal error")
}

// validationMessage strips the sentinel prefix: "validation error: invalid
// email" becomes "invalid email".
func validationMessage(err error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, common.ErrorValidation.Error()+": "); ok {
		return rest
	}
	return msg
}
