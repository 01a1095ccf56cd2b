package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateTokenID = errors.New("token id already in use")
	ErrTokenRevoked     = errors.New("token revoked")
	ErrTokenInvalid     = errors.New("token invalid")
	ErrCacheUnavailable = errors.New("cache unavailable")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// StorageError is a failure of the durable session store. It is always fatal to the operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// CacheError is a failure of the cache backend. Callers log it and fall back to the store.
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// IsCacheError reports whether err is (or wraps) a CacheError.
func IsCacheError(err error) bool {
	var ce *CacheError
	return errors.As(err, &ce)
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
