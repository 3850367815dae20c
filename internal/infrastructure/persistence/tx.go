package persistence

import (
	"context"
	"errors"

	"github.com/perfume/backend/internal/domain/shared"
	"gorm.io/gorm"
)

type txKey struct{}

func contextWithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok
}

// conn returns the transaction bound to ctx, or db
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := txFromContext(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// translateError maps gorm errors to domain errors
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.WrapDomainError(shared.ErrAlreadyExists.Code, "Record already exists", err)
	}
	return err
}

var errConcurrentModification = shared.NewDomainError(shared.ErrConcurrencyConflict.Code,
	"The record was modified by another request")
