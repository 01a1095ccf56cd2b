package handler

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/erp-sessions/internal/model"
)

func handleError(err error) error {
	switch {
	case errors.Is(err, model.ErrTokenInvalid):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, model.ErrTokenRevoked):
		return status.Error(codes.Unauthenticated, "session revoked")
	case errors.Is(err, model.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, "session not found")
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}
