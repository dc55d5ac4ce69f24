package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/watchtower-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// NewestFirst orders audit rows by change time, ties broken by id
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("status_logs.changed_at DESC").Order("status_logs.id DESC")
}
