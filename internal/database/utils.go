package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func CreateModel(ctx context.Context, db *gorm.DB, name, modelType, dir string, epochs int) (Model, error) {
	model := Model{
		Id:           uuid.New(),
		Name:         name,
		Type:         modelType,
		Status:       ModelTraining,
		Dir:          dir,
		Epochs:       epochs,
		CreationTime: time.Now().UTC(),
	}

	if err := db.WithContext(ctx).Create(&model).Error; err != nil {
		return Model{}, fmt.Errorf("failed to create model record: %w", err)
	}
	return model, nil
}

func UpdateModelStatus(ctx context.Context, txn *gorm.DB, modelId uuid.UUID, status string) error {
	updates := map[string]any{"status": status}
	if status == ModelTrained || status == ModelFailed {
		updates["completion_time"] = time.Now().UTC()
	}

	if err := txn.WithContext(ctx).Model(&Model{Id: modelId}).Updates(updates).Error; err != nil {
		slog.Error("error updating model status", "model_id", modelId, "status", status, "error", err)
		return err
	}
	return nil
}

func SetModelTags(ctx context.Context, db *gorm.DB, modelId uuid.UUID, tags []string) error {
	newTags := make([]ModelTag, len(tags))
	for i, t := range tags {
		newTags[i] = ModelTag{ModelId: modelId, Tag: t}
	}

	return db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := txn.Where("model_id = ?", modelId).Delete(&ModelTag{}).Error; err != nil {
			return fmt.Errorf("could not clear old tags: %w", err)
		}

		if len(newTags) > 0 {
			if err := txn.Create(&newTags).Error; err != nil {
				return fmt.Errorf("could not add new tags: %w", err)
			}
		}
		return nil
	})
}

func GetModel(ctx context.Context, db *gorm.DB, modelId uuid.UUID) (Model, error) {
	var model Model
	if err := db.WithContext(ctx).Preload("Tags").First(&model, "id = ?", modelId).Error; err != nil {
		return Model{}, err
	}
	return model, nil
}

func ListModels(ctx context.Context, db *gorm.DB) ([]Model, error) {
	var models []Model
	if err := db.WithContext(ctx).Preload("Tags").Order("creation_time desc").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("error listing models: %w", err)
	}
	return models, nil
}

// FindOrCreateModel returns the most recent model trained into dir, registering the
// directory as an already trained model if no run recorded it.
func FindOrCreateModel(ctx context.Context, db *gorm.DB, modelType, dir string) (Model, error) {
	var model Model
	err := db.WithContext(ctx).
		Where("dir = ? AND status = ?", dir, ModelTrained).
		Order("creation_time desc").
		First(&model).Error
	if err == nil {
		return model, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Model{}, fmt.Errorf("error querying model for %s: %w", dir, err)
	}

	now := time.Now().UTC()
	model = Model{
		Id:             uuid.New(),
		Name:           dir,
		Type:           modelType,
		Status:         ModelTrained,
		Dir:            dir,
		CreationTime:   now,
		CompletionTime: sql.NullTime{Time: now, Valid: true},
	}
	if err := db.WithContext(ctx).Create(&model).Error; err != nil {
		return Model{}, fmt.Errorf("failed to create model record: %w", err)
	}
	slog.Info("registered existing model directory", "model_id", model.Id, "dir", dir)
	return model, nil
}

func marshalReport(report any) (datatypes.JSON, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("could not marshal report: %w", err)
	}
	return datatypes.JSON(data), nil
}

type EvaluationRecord struct {
	ModelId   uuid.UUID
	DataDir   string
	Sentences int
	Tokens    int

	Full, Entity, Coarse any
}

func SaveEvaluation(ctx context.Context, db *gorm.DB, record EvaluationRecord) (Evaluation, error) {
	eval := Evaluation{
		Id:           uuid.New(),
		ModelId:      record.ModelId,
		DataDir:      record.DataDir,
		Sentences:    record.Sentences,
		Tokens:       record.Tokens,
		CreationTime: time.Now().UTC(),
	}

	var err error
	if eval.FullReport, err = marshalReport(record.Full); err != nil {
		return Evaluation{}, err
	}
	if eval.EntityReport, err = marshalReport(record.Entity); err != nil {
		return Evaluation{}, err
	}
	if eval.CoarseReport, err = marshalReport(record.Coarse); err != nil {
		return Evaluation{}, err
	}

	if err := db.WithContext(ctx).Create(&eval).Error; err != nil {
		return Evaluation{}, fmt.Errorf("failed to save evaluation: %w", err)
	}
	return eval, nil
}

func GetEvaluation(ctx context.Context, db *gorm.DB, evalId uuid.UUID) (Evaluation, error) {
	var eval Evaluation
	if err := db.WithContext(ctx).First(&eval, "id = ?", evalId).Error; err != nil {
		return Evaluation{}, err
	}
	return eval, nil
}

// ListEvaluations returns the newest evaluations first. A nil model id matches every
// model, a limit <= 0 returns all of them.
func ListEvaluations(ctx context.Context, db *gorm.DB, modelId *uuid.UUID, limit int) ([]Evaluation, error) {
	query := db.WithContext(ctx).Order("creation_time desc")
	if modelId != nil {
		query = query.Where("model_id = ?", *modelId)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var evals []Evaluation
	if err := query.Find(&evals).Error; err != nil {
		return nil, fmt.Errorf("error listing evaluations: %w", err)
	}
	return evals, nil
}

func SaveDatasetSplit(ctx context.Context, db *gorm.DB, kind, path string, files, sentences, tokens int) (DatasetSplit, error) {
	split := DatasetSplit{
		Id:           uuid.New(),
		Kind:         kind,
		Path:         path,
		Files:        files,
		Sentences:    sentences,
		Tokens:       tokens,
		CreationTime: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(&split).Error; err != nil {
		return DatasetSplit{}, fmt.Errorf("failed to save dataset split: %w", err)
	}
	return split, nil
}
