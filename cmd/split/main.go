package main

import (
	"context"
	"log"
	"log/slog"
	"path/filepath"

	"ner-pipeline/cmd"
	"ner-pipeline/internal/config"
	"ner-pipeline/internal/core"
	"ner-pipeline/internal/database"
	"ner-pipeline/internal/storage"
)

const conllPattern = "*.conll"

type splitResult struct {
	kind  string
	path  string
	files int
	data  core.Corpus
}

func splitFolder(dir, outPath, kind string, opts core.SplitOptions) splitResult {
	files, err := core.CollectFiles(dir, conllPattern)
	if err != nil {
		log.Fatalf("error collecting %s files: %v", kind, err)
	}

	corpus, err := cmd.SegmentWithProgress(files, opts, "splitting "+kind)
	if err != nil {
		log.Fatalf("error splitting %s files: %v", kind, err)
	}

	core.ShuffleCorpus(corpus, core.DefaultShuffleSeed)

	if err := core.WriteCorpus(corpus, outPath); err != nil {
		log.Fatalf("error writing %s data: %v", kind, err)
	}

	slog.Info("split dataset", "kind", kind, "files", len(files), "sentences", len(corpus), "output", outPath)

	return splitResult{kind: kind, path: outPath, files: len(files), data: corpus}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.LoadSplitConfig(cmd.LoadEnvironment())
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	opts := core.SplitOptions{
		Capacity:  cfg.Segment.Capacity,
		MinLength: cfg.Segment.MinLength,
		MaxLength: cfg.Segment.MaxLength,
	}

	slog.Info("splitting started", "input", cfg.InputFolder, "output", cfg.OutputFolder, "capacity", opts.Capacity, "min", opts.MinLength, "max", opts.MaxLength)

	results := []splitResult{
		splitFolder(filepath.Join(cfg.InputFolder, "train"), filepath.Join(cfg.OutputFolder, "train.txt"), database.TrainSplit, opts),
		splitFolder(filepath.Join(cfg.InputFolder, "validation"), filepath.Join(cfg.OutputFolder, "valid.txt"), database.ValidationSplit, opts),
	}

	ctx := context.Background()
	db := cmd.OpenRegistry(cfg.Registry)
	publisher := cmd.NewPublisher(ctx, cfg.Artifacts)

	for _, res := range results {
		split, err := database.SaveDatasetSplit(ctx, db, res.kind, res.path, res.files, len(res.data), core.CountTokens(res.data))
		if err != nil {
			log.Fatalf("error recording %s split: %v", res.kind, err)
		}

		if publisher != nil {
			if err := publisher.PublishFiles(ctx, storage.DatasetArtifact, split.Id, res.path); err != nil {
				log.Fatalf("error publishing %s split: %v", res.kind, err)
			}
		}
	}

	slog.Info("splitting finished")
}
