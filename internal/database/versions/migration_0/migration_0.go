package migration_0

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Model struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name           string
	Type           string `gorm:"size:20;not null"`
	Status         string `gorm:"size:20;not null"`
	Dir            string
	Epochs         int
	CreationTime   time.Time
	CompletionTime sql.NullTime

	Tags []ModelTag `gorm:"foreignKey:ModelId;constraint:OnDelete:CASCADE"`
}

type ModelTag struct {
	ModelId uuid.UUID `gorm:"type:uuid;primaryKey"`
	Tag     string    `gorm:"primaryKey"`
}

type Evaluation struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	ModelId uuid.UUID `gorm:"type:uuid"`
	Model   *Model    `gorm:"foreignKey:ModelId;constraint:OnDelete:CASCADE"`

	DataDir   string
	Sentences int
	Tokens    int

	FullReport   datatypes.JSON
	EntityReport datatypes.JSON
	CoarseReport datatypes.JSON

	CreationTime time.Time
}

func Migration(db *gorm.DB) error {
	return db.AutoMigrate(&Model{}, &ModelTag{}, &Evaluation{})
}
