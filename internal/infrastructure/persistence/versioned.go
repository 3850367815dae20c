package persistence

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type versionedAggregate interface {
	PersistedVersion() int
	MarkPersisted(version int)
}

type versionedModel interface {
	SetVersion(v int)
}

// saveVersioned inserts an aggregate that was never stored, otherwise
// updates it only if the stored version still matches the one it was
// loaded with. Associations are left to the caller.
func saveVersioned(db *gorm.DB, agg versionedAggregate, model versionedModel) error {
	expected := agg.PersistedVersion()
	if expected == 0 {
		model.SetVersion(1)
		if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
			return translateError(err)
		}
		agg.MarkPersisted(1)
		return nil
	}

	next := expected + 1
	model.SetVersion(next)
	result := db.Model(model).
		Omit(clause.Associations, "created_at").
		Select("*").
		Where("version = ?", expected).
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errConcurrentModification
	}
	agg.MarkPersisted(next)
	return nil
}
