package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// Kinds of published artifacts.
const (
	DatasetArtifact    = "datasets"
	ModelArtifact      = "models"
	EvaluationArtifact = "evaluations"
)

// ArtifactPrefix is the key prefix of a run's artifacts: "<kind>/<id>/".
func ArtifactPrefix(kind string, id uuid.UUID) string {
	return path.Join(kind, id.String()) + "/"
}

// Publisher copies the outputs of a run into a bucket of an object store.
type Publisher struct {
	store  ObjectStore
	bucket string
}

func NewPublisher(ctx context.Context, store ObjectStore, bucket string) (*Publisher, error) {
	if bucket == "" {
		return nil, fmt.Errorf("artifact bucket is required")
	}
	if err := store.CreateBucket(ctx, bucket); err != nil {
		return nil, err
	}
	return &Publisher{store: store, bucket: bucket}, nil
}

// PublishFiles uploads each file under the run prefix, keyed by its base name.
func (p *Publisher) PublishFiles(ctx context.Context, kind string, id uuid.UUID, files ...string) error {
	prefix := ArtifactPrefix(kind, id)
	for _, file := range files {
		if err := p.putFile(ctx, prefix+filepath.Base(file), file); err != nil {
			return err
		}
	}
	slog.Info("published artifacts", "bucket", p.bucket, "prefix", prefix, "files", len(files))
	return nil
}

func (p *Publisher) putFile(ctx context.Context, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("error opening artifact %s: %w", file, err)
	}
	defer f.Close()

	return p.store.PutObject(ctx, p.bucket, key, f)
}

// PublishDir uploads the contents of dir under the run prefix.
func (p *Publisher) PublishDir(ctx context.Context, kind string, id uuid.UUID, dir string) error {
	prefix := ArtifactPrefix(kind, id)
	if err := p.store.UploadDir(ctx, p.bucket, prefix, dir); err != nil {
		return err
	}
	slog.Info("published artifact directory", "bucket", p.bucket, "prefix", prefix, "dir", dir)
	return nil
}

// Fetch downloads the artifacts of a run into dest.
func (p *Publisher) Fetch(ctx context.Context, kind string, id uuid.UUID, dest string) error {
	return p.store.DownloadDir(ctx, p.bucket, ArtifactPrefix(kind, id), dest, true)
}
