package migration_1

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DatasetSplit struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Kind      string `gorm:"size:10;not null"`
	Path      string
	Files     int
	Sentences int
	Tokens    int

	CreationTime time.Time
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().CreateTable(&DatasetSplit{}); err != nil {
		return fmt.Errorf("error creating dataset_splits table: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&DatasetSplit{}); err != nil {
		return fmt.Errorf("error dropping dataset_splits table: %w", err)
	}
	return nil
}
