package testutil

import (
	"io"

	"github.com/dtroode/erp-sessions/internal/logger"
)

func MakeNoopLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, 0)
}
