package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationLowercaseAccountEmails = "2026-07-14_lowercase_account_emails"
	migrationRemoveOrphanedNotes    = "2026-08-02_remove_orphaned_notes"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationLowercaseAccountEmails, apply: lowercaseAccountEmails},
		{name: migrationRemoveOrphanedNotes, apply: removeOrphanedNotes},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// lowercaseAccountEmails normalizes addresses written before the service
// started lowercasing on registration.
func lowercaseAccountEmails(db *gorm.DB) error {
	return db.Exec("UPDATE accounts SET email = lower(email) WHERE email <> lower(email)").Error
}

// removeOrphanedNotes drops notes whose room was deleted before room deletion
// cascaded over its note collection.
func removeOrphanedNotes(db *gorm.DB) error {
	return db.Exec("DELETE FROM notes WHERE room_id NOT IN (SELECT room_id FROM rooms)").Error
}
