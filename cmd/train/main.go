package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"ner-pipeline/cmd"
	"ner-pipeline/internal/config"
	"ner-pipeline/internal/core"
	"ner-pipeline/internal/database"
	"ner-pipeline/internal/storage"
)

func loadCorpus(path, kind string) core.Corpus {
	corpus, err := core.LoadCorpus(path)
	if err != nil {
		log.Fatalf("error loading %s data: %v", kind, err)
	}
	slog.Info("loaded corpus", "kind", kind, "path", path, "sentences", len(corpus), "tokens", core.CountTokens(corpus))
	return corpus
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.LoadTrainConfig(cmd.LoadEnvironment())
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	if err := os.MkdirAll(cfg.Model.ModelDir, os.ModePerm); err != nil {
		log.Fatalf("error creating model directory: %v", err)
	}

	train := loadCorpus(cfg.TrainData, database.TrainSplit)
	valid := loadCorpus(cfg.ValidationData, database.ValidationSplit)

	embeddings, err := core.LoadVectors(cfg.Vectors)
	if err != nil {
		log.Fatalf("error loading word vectors: %v", err)
	}
	slog.Info("loaded word vectors", "path", cfg.Vectors, "words", len(embeddings), "dim", embeddings.Dim())

	ctx := context.Background()
	db := cmd.OpenRegistry(cfg.Registry)

	record, err := database.CreateModel(ctx, db, filepath.Base(cfg.Model.ModelDir), cfg.Model.ModelType, cfg.Model.ModelDir, cfg.Iterations)
	if err != nil {
		log.Fatalf("error registering model: %v", err)
	}

	fail := func(format string, args ...any) {
		if err := database.UpdateModelStatus(ctx, db, record.Id, database.ModelFailed); err != nil {
			slog.Error("error marking model as failed", "model_id", record.Id, "error", err)
		}
		log.Fatalf(format, args...)
	}

	model, err := core.NewModel(core.ModelType(cfg.Model.ModelType), cfg.Model.PluginPath)
	if err != nil {
		fail("error creating model: %v", err)
	}
	defer model.Release()

	opts := core.FitOptions{
		Epochs:           cfg.Iterations,
		WordEmbeddingDim: cfg.WordEmbeddingDim,
		CharEmbeddingDim: cfg.CharEmbeddingDim,
		Dropout:          cfg.Dropout,
		Embeddings:       embeddings,
		Seed:             cfg.Seed,
	}

	slog.Info("training started", "model_id", record.Id, "model_type", cfg.Model.ModelType, "epochs", opts.Epochs)
	if err := model.Fit(train, valid, opts); err != nil {
		model.Release()
		fail("error training model: %v", err)
	}

	if err := model.Save(core.ModelPathsIn(cfg.Model.ModelDir)); err != nil {
		model.Release()
		fail("error saving model: %v", err)
	}

	tags := train.Tags()
	if err := database.SetModelTags(ctx, db, record.Id, tags); err != nil {
		slog.Error("error saving model tags", "model_id", record.Id, "error", err)
	}
	if err := database.UpdateModelStatus(ctx, db, record.Id, database.ModelTrained); err != nil {
		slog.Error("error updating model status", "model_id", record.Id, "error", err)
	}

	if publisher := cmd.NewPublisher(ctx, cfg.Artifacts); publisher != nil {
		if err := publisher.PublishDir(ctx, storage.ModelArtifact, record.Id, cfg.Model.ModelDir); err != nil {
			slog.Error("error publishing model", "model_id", record.Id, "error", err)
		}
	}

	slog.Info("training finished", "model_id", record.Id, "dir", cfg.Model.ModelDir, "tags", len(tags))
}
