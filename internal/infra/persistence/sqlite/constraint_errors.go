package sqlite

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Helper functions for sqlite error checking. GORM's error translation
// covers most cases; the message checks catch raw driver errors that reach
// us untranslated.
func isUniqueConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isForeignKeyConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

func isNotNullConstraintViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "not null constraint failed")
}
