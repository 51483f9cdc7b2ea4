package specification

import "gorm.io/gorm"

// Specification narrows a gorm query. Specifications compose in the order given.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// ApplyAll folds specs over db. Nil entries are skipped.
func ApplyAll(db *gorm.DB, specs ...Specification) *gorm.DB {
	for _, s := range specs {
		if s != nil {
			db = s.Apply(db)
		}
	}
	return db
}
