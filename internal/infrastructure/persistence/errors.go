package persistence

import (
	"errors"

	"github.com/shopfront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps GORM errors onto domain errors. Needs gorm.Config.TranslateError
// for duplicate keys to surface as gorm.ErrDuplicatedKey.
func translateError(op, entity, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.NewNotFoundError(entity, key)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &shared.DomainError{
			Code:    shared.CodeAlreadyExists,
			Message: entity + " " + key + " already exists",
			Cause:   err,
		}
	default:
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return err
		}
		return shared.NewStorageError(op, err)
	}
}
