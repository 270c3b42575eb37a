package database_test

import (
	"context"
	"testing"
	"time"

	"ner-pipeline/internal/database"
	"ner-pipeline/internal/database/versions/migration_0"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.GetMigrator(db).Migrate())
	return db
}

func TestModelLifecycle(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	model, err := database.CreateModel(ctx, db, "ner", "perceptron", "models/ner", 10)
	require.NoError(t, err)
	assert.Equal(t, database.ModelTraining, model.Status)

	require.NoError(t, database.SetModelTags(ctx, db, model.Id, []string{"B-Diseases", "O"}))
	require.NoError(t, database.SetModelTags(ctx, db, model.Id, []string{"B-Drug", "B-Diseases", "O"}))
	require.NoError(t, database.UpdateModelStatus(ctx, db, model.Id, database.ModelTrained))

	loaded, err := database.GetModel(ctx, db, model.Id)
	require.NoError(t, err)
	assert.Equal(t, database.ModelTrained, loaded.Status)
	assert.True(t, loaded.CompletionTime.Valid)
	assert.Len(t, loaded.Tags, 3)

	models, err := database.ListModels(ctx, db)
	require.NoError(t, err)
	assert.Len(t, models, 1)

	_, err = database.GetModel(ctx, db, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindOrCreateModel(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	trained, err := database.CreateModel(ctx, db, "ner", "perceptron", "models/ner", 5)
	require.NoError(t, err)

	// still training, so the directory is registered as a separate model
	registered, err := database.FindOrCreateModel(ctx, db, "perceptron", "models/ner")
	require.NoError(t, err)
	assert.NotEqual(t, trained.Id, registered.Id)
	assert.Equal(t, database.ModelTrained, registered.Status)

	again, err := database.FindOrCreateModel(ctx, db, "perceptron", "models/ner")
	require.NoError(t, err)
	assert.Equal(t, registered.Id, again.Id)
}

func TestEvaluations(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	model, err := database.CreateModel(ctx, db, "ner", "perceptron", "models/ner", 5)
	require.NoError(t, err)
	other, err := database.CreateModel(ctx, db, "other", "perceptron", "models/other", 5)
	require.NoError(t, err)

	report := map[string]float64{"f1": 0.5}
	for i := 0; i < 3; i++ {
		_, err := database.SaveEvaluation(ctx, db, database.EvaluationRecord{
			ModelId: model.Id, DataDir: "test", Sentences: 10, Tokens: 100,
			Full: report, Entity: report, Coarse: report,
		})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}
	last, err := database.SaveEvaluation(ctx, db, database.EvaluationRecord{ModelId: other.Id, Full: report})
	require.NoError(t, err)

	evals, err := database.ListEvaluations(ctx, db, nil, 0)
	require.NoError(t, err)
	assert.Len(t, evals, 4)
	assert.Equal(t, last.Id, evals[0].Id)

	evals, err = database.ListEvaluations(ctx, db, &model.Id, 2)
	require.NoError(t, err)
	assert.Len(t, evals, 2)
	for _, e := range evals {
		assert.Equal(t, model.Id, e.ModelId)
	}

	loaded, err := database.GetEvaluation(ctx, db, last.Id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"f1": 0.5}`, string(loaded.FullReport))
	assert.JSONEq(t, `null`, string(loaded.CoarseReport))
}

func TestSaveDatasetSplit(t *testing.T) {
	db := createDB(t)

	split, err := database.SaveDatasetSplit(context.Background(), db, database.TrainSplit, "out/train.txt", 4, 20, 200)
	require.NoError(t, err)

	var loaded database.DatasetSplit
	require.NoError(t, db.First(&loaded, "id = ?", split.Id).Error)
	assert.Equal(t, "out/train.txt", loaded.Path)
	assert.Equal(t, 20, loaded.Sentences)
}

func TestMigrateFromInitialSchema(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, migration_0.Migration(db))
	require.NoError(t, db.Exec("CREATE TABLE migrations (id VARCHAR(255) PRIMARY KEY)").Error)
	require.NoError(t, db.Exec("INSERT INTO migrations (id) VALUES ('0')").Error)
	assert.False(t, db.Migrator().HasTable(&database.DatasetSplit{}))

	migrator := database.GetMigrator(db)
	require.NoError(t, migrator.Migrate())
	assert.True(t, db.Migrator().HasTable(&database.DatasetSplit{}))

	require.NoError(t, migrator.RollbackLast())
	assert.False(t, db.Migrator().HasTable(&database.DatasetSplit{}))
}
