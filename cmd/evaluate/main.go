package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"ner-pipeline/cmd"
	"ner-pipeline/internal/config"
	"ner-pipeline/internal/core"
	"ner-pipeline/internal/database"
	"ner-pipeline/internal/storage"
)

const conllPattern = "*.conll"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.LoadEvaluateConfig(cmd.LoadEnvironment())
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	files, err := core.CollectFiles(cfg.DataDir, conllPattern)
	if err != nil {
		log.Fatalf("error collecting test files: %v", err)
	}

	corpus, err := cmd.SegmentWithProgress(files, core.SplitOptions{
		Capacity:  cfg.Segment.Capacity,
		MinLength: cfg.Segment.MinLength,
		MaxLength: cfg.Segment.MaxLength,
	}, "segmenting test files")
	if err != nil {
		log.Fatalf("error splitting test files: %v", err)
	}
	slog.Info("loaded test data", "dir", cfg.DataDir, "files", len(files), "sentences", len(corpus), "tokens", core.CountTokens(corpus))

	ctx := context.Background()

	model, err := cmd.LoadModel(ctx, cfg.Model, cfg.Artifacts)
	if err != nil {
		log.Fatalf("could not load NER model: %v", err)
	}
	defer model.Release()

	eval, err := core.Evaluate(model, corpus)
	if err != nil {
		model.Release()
		log.Fatalf("error evaluating model: %v", err)
	}

	fmt.Println(eval.Entity.String())

	if err := eval.WriteDebugFile(cfg.OutputFile); err != nil {
		model.Release()
		log.Fatalf("error writing %s: %v", cfg.OutputFile, err)
	}

	fmt.Println(eval.Full.String())
	fmt.Println(eval.Coarse.String())

	db := cmd.OpenRegistry(cfg.Registry)

	record, err := database.FindOrCreateModel(ctx, db, cfg.Model.ModelType, cfg.Model.ModelDir)
	if err != nil {
		slog.Error("error looking up model record", "dir", cfg.Model.ModelDir, "error", err)
		return
	}

	saved, err := database.SaveEvaluation(ctx, db, database.EvaluationRecord{
		ModelId:   record.Id,
		DataDir:   cfg.DataDir,
		Sentences: len(corpus),
		Tokens:    core.CountTokens(corpus),
		Full:      eval.Full,
		Entity:    eval.Entity,
		Coarse:    eval.Coarse,
	})
	if err != nil {
		slog.Error("error saving evaluation", "error", err)
		return
	}

	if publisher := cmd.NewPublisher(ctx, cfg.Artifacts); publisher != nil {
		if err := publisher.PublishFiles(ctx, storage.EvaluationArtifact, saved.Id, cfg.OutputFile); err != nil {
			slog.Error("error publishing evaluation", "evaluation_id", saved.Id, "error", err)
		}
	}

	slog.Info("evaluation finished", "evaluation_id", saved.Id, "model_id", record.Id, "output", cfg.OutputFile)
}
