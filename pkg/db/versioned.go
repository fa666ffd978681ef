package db

import (
	"fmt"

	"gorm.io/gorm"

	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
)

// UpdateVersioned applies updates to the row identified by id only if its
// version still equals expected, bumping the version by one. A lost race
// yields CONCURRENT_MODIFICATION so the caller can re-read and retry.
func UpdateVersioned(tx *gorm.DB, model any, id any, expected int64, updates map[string]any) error {
	return UpdateVersionedBy(tx, model, "id", id, expected, updates)
}

// UpdateVersionedBy is UpdateVersioned for tables keyed by another column.
func UpdateVersionedBy(tx *gorm.DB, model any, keyColumn string, key any, expected int64, updates map[string]any) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	values := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["version"] = gorm.Expr("version + 1")

	res := tx.Model(model).
		Where(keyColumn+" = ? AND version = ?", key, expected).
		Updates(values)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "versioned update failed")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConcurrentModification, "row changed since it was read")
	}
	return nil
}
