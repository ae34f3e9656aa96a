package service

import (
	"errors"

	"github.com/swinilab/orderflow/internal/repository"
	apperrors "github.com/swinilab/orderflow/pkg/errors"
)

// notFoundOr converts a repository not-found into a typed NotFound error and
// leaves everything else untouched.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFoundError(msg)
	}
	return err
}

// finishTx maps whatever came out of a unit of work to a typed application
// error. Typed errors raised inside the transaction pass through unchanged;
// anything else means the transaction could not run to commit.
func finishTx(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	return apperrors.NewPersistenceError(err.Error())
}
