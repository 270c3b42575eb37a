package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"ner-pipeline/internal/config"
	"ner-pipeline/internal/core"
	"ner-pipeline/internal/database"
	"ner-pipeline/internal/storage"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"gorm.io/gorm"
)

// LoadEnvironment parses the -config flag and returns the merged configuration
// environment. Any error ends the process.
func LoadEnvironment() map[string]string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path of a .env or .yaml config file")
	flag.Parse()

	if configPath == "" {
		log.Printf("no config file specified, using os.Environ only")
	}

	environ, err := config.Environment(configPath)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	return environ
}

func OpenRegistry(cfg config.RegistryConfig) *gorm.DB {
	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open run registry: %v", err)
	}
	return db
}

func NewObjectStore(ctx context.Context, cfg config.ArtifactConfig) (storage.ObjectStore, error) {
	if cfg.LocalRoot != "" {
		return storage.NewLocalObjectStore(cfg.LocalRoot)
	}
	return storage.NewS3ObjectStore(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3EndpointURL,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
}

// NewPublisher returns nil when publishing is disabled.
func NewPublisher(ctx context.Context, cfg config.ArtifactConfig) *storage.Publisher {
	if !cfg.Enabled() {
		return nil
	}

	store, err := NewObjectStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to create artifact store: %v", err)
	}

	publisher, err := storage.NewPublisher(ctx, store, cfg.Bucket)
	if err != nil {
		log.Fatalf("failed to create artifact publisher: %v", err)
	}
	return publisher
}

// LoadModel loads the configured model, downloading it from the artifact bucket first
// if MODEL_ID is set and the model directory does not exist yet.
func LoadModel(ctx context.Context, modelCfg config.ModelConfig, artifacts config.ArtifactConfig) (core.Model, error) {
	if _, err := os.Stat(modelCfg.ModelDir); os.IsNotExist(err) && modelCfg.ModelId != "" {
		id, err := uuid.Parse(modelCfg.ModelId)
		if err != nil {
			return nil, fmt.Errorf("invalid model id '%s': %w", modelCfg.ModelId, err)
		}

		publisher := NewPublisher(ctx, artifacts)
		if publisher == nil {
			return nil, fmt.Errorf("model %s is not available locally and no artifact bucket is configured", id)
		}

		slog.Info("downloading model", "model_id", id, "dir", modelCfg.ModelDir)
		if err := publisher.Fetch(ctx, storage.ModelArtifact, id, modelCfg.ModelDir); err != nil {
			return nil, fmt.Errorf("error downloading model %s: %w", id, err)
		}
	}

	return core.LoadModel(core.ModelType(modelCfg.ModelType), modelCfg.PluginPath, modelCfg.ModelDir)
}

func NewProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// SegmentWithProgress runs core.SplitDataset and advances a progress bar per file.
func SegmentWithProgress(files []string, opts core.SplitOptions, description string) (core.Corpus, error) {
	bar := NewProgressBar(len(core.SelectFiles(files, opts.Capacity)), description)

	segmented := 0
	opts.OnFile = func(path string, sentences int) {
		slog.Debug("segmented file", "path", path, "sentences", sentences)
		segmented++
		_ = bar.Add(1)
	}

	corpus, err := core.SplitDataset(files, opts)
	_ = bar.Finish()
	if err != nil {
		return nil, err
	}

	slog.Info("segmented files", "found", len(files), "selected", segmented, "sentences", len(corpus))
	return corpus, nil
}
