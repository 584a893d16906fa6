package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// storageError passes domain errors through and wraps everything else as
// StorageUnavailable. The driver error stays reachable through Unwrap.
func storageError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return shared.NewStorageUnavailable(err)
}

// isUniqueViolation reports a unique-constraint failure. The dialect error
// translation covers postgres and sqlite; the text checks cover drivers
// opened without TranslateError.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// retryRead runs an idempotent read, retrying once on a storage failure.
// Domain errors (not found and friends) and context errors are returned as is.
func retryRead[T any](ctx context.Context, read func() (T, error)) (T, error) {
	v, err := read()
	if err == nil || !retryable(ctx, err) {
		return v, err
	}
	return read()
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return errors.Is(err, shared.ErrStorageUnavailable)
	}
	return !errors.Is(err, gorm.ErrRecordNotFound)
}
