package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func withPreloads(db *gorm.DB, preload []string) *gorm.DB {
	for _, p := range preload {
		db = db.Preload(p)
	}
	return db
}

// forUpdate adds SELECT ... FOR UPDATE. SQLite has no row locks and
// serialises writers, so the clause is skipped there.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
