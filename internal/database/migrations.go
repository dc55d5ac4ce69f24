package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/watchtower-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes used by the board and audit queries
func AddIndexes(db *gorm.DB, log logrus.FieldLogger) error {
	indexes := []struct {
		model   any
		table   string
		name    string
		columns string
	}{
		// Audit log reads are always newest-first per parent
		{&models.StatusLog{}, "status_logs", "idx_status_logs_assignment_changed", "assignment_id, changed_at"},
		{&models.StatusLog{}, "status_logs", "idx_status_logs_controller_changed", "controller_id, changed_at"},

		// Board polling filters assignments by shift and status
		{&models.ShiftAssignment{}, "shift_assignments", "idx_assignments_shift_status", "shift_id, status"},

		// Token listing per user
		{&models.PersonalAccessToken{}, "personal_access_tokens", "idx_tokens_user_created", "user_id, created_at"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			log.WithField("index", idx.name).Debug("Index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithField("index", idx.name).Infof("Created index on %s(%s)", idx.table, idx.columns)
	}

	return nil
}
