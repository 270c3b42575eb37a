package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ModelQueued   string = "QUEUED"
	ModelTraining string = "TRAINING"
	ModelTrained  string = "TRAINED"
	ModelFailed   string = "FAILED"
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

	Tags        []ModelTag   `gorm:"foreignKey:ModelId;constraint:OnDelete:CASCADE"`
	Evaluations []Evaluation `gorm:"foreignKey:ModelId;constraint:OnDelete:CASCADE"`
}

type ModelTag struct {
	ModelId uuid.UUID `gorm:"type:uuid;primaryKey"`
	Tag     string    `gorm:"primaryKey"`
}

type Evaluation struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	ModelId uuid.UUID `gorm:"type:uuid"`
	Model   *Model    `gorm:"foreignKey:ModelId"`

	DataDir   string
	Sentences int
	Tokens    int

	// metrics.Report payloads
	FullReport   datatypes.JSON
	EntityReport datatypes.JSON
	CoarseReport datatypes.JSON

	CreationTime time.Time
}

const (
	TrainSplit      string = "train"
	ValidationSplit string = "valid"
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
