package postgres

import (
	"errors"

	"gorm.io/gorm"
)

// Storage-agnostic errors returned by the package operations.
var (
	ErrRecordNotFound = errors.New("[Postgres] record not found")
	ErrDuplicateKey   = errors.New("[Postgres] duplicate key violation")
	ErrForeignKey     = errors.New("[Postgres] foreign key violation")
	ErrInvalidData    = errors.New("[Postgres] invalid data")
)

// TranslateError maps GORM errors onto the package errors. Unknown errors
// are returned unchanged.
func TranslateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrForeignKey
	case errors.Is(err, gorm.ErrInvalidData):
		return ErrInvalidData
	}
	return err
}
