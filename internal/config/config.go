package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// SegmentConfig holds the sentence segmentation parameters of the "split" group.
type SegmentConfig struct {
	Capacity  float64 `env:"SPLIT_CAPACITY,required,notEmpty"`
	MinLength int     `env:"SPLIT_MIN,required,notEmpty"`
	MaxLength int     `env:"SPLIT_MAX,required,notEmpty"`
}

type SplitConfig struct {
	Segment SegmentConfig

	InputFolder  string `env:"SPLIT_INPUT_FOLDER,required,notEmpty"`
	OutputFolder string `env:"SPLIT_OUTPUT_FOLDER,required,notEmpty"`

	Registry  RegistryConfig
	Artifacts ArtifactConfig
}

type ModelConfig struct {
	ModelDir   string `env:"TRAIN_MODEL_DIR,required,notEmpty"`
	ModelType  string `env:"MODEL_TYPE" envDefault:"perceptron"`
	PluginPath string `env:"TAGGER_PLUGIN_PATH"`

	// Fetched from the artifact bucket into ModelDir when ModelDir does not exist.
	ModelId string `env:"MODEL_ID"`
}

type TrainConfig struct {
	Model ModelConfig

	TrainData      string `env:"TRAIN_TRAIN_DATA,required,notEmpty"`
	ValidationData string `env:"TRAIN_VALIDATION_DATA,required,notEmpty"`
	Vectors        string `env:"TRAIN_VECTORS,required,notEmpty"`
	Iterations     int    `env:"TRAIN_ITERATIONS,required,notEmpty"`

	WordEmbeddingDim int     `env:"TRAIN_WORD_EMBEDDING_DIM" envDefault:"200"`
	CharEmbeddingDim int     `env:"TRAIN_CHAR_EMBEDDING_DIM" envDefault:"50"`
	Dropout          float64 `env:"TRAIN_DROPOUT" envDefault:"0.2"`
	Seed             int64   `env:"TRAIN_SEED" envDefault:"999"`

	Registry  RegistryConfig
	Artifacts ArtifactConfig
}

type EvaluateConfig struct {
	Segment SegmentConfig
	Model   ModelConfig

	DataDir    string `env:"TEST_DATA_DIR,required,notEmpty"`
	OutputFile string `env:"TEST_OUTPUT_FILE" envDefault:"output.txt"`

	Registry  RegistryConfig
	Artifacts ArtifactConfig
}

type ServeConfig struct {
	Model ModelConfig

	Port int `env:"API_PORT" envDefault:"8001"`

	Registry  RegistryConfig
	Artifacts ArtifactConfig
}

type RegistryConfig struct {
	// A postgres:// url or the path of a sqlite database file.
	DatabaseURL string `env:"DATABASE_URL" envDefault:"ner-pipeline.db"`
}

type ArtifactConfig struct {
	// Empty disables publishing of artifacts.
	Bucket string `env:"ARTIFACT_BUCKET"`

	// When set, artifacts are copied under this directory instead of S3.
	LocalRoot string `env:"ARTIFACT_LOCAL_ROOT"`

	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

func (c ArtifactConfig) Enabled() bool {
	return c.Bucket != ""
}

func (c SegmentConfig) Validate() error {
	if c.Capacity <= 0 || c.Capacity > 1 {
		return fmt.Errorf("%w: split capacity must be in (0, 1], got %v", ErrInvalidConfig, c.Capacity)
	}
	if c.MinLength < 0 {
		return fmt.Errorf("%w: split min must be non-negative, got %d", ErrInvalidConfig, c.MinLength)
	}
	if c.MaxLength < 1 {
		return fmt.Errorf("%w: split max must be positive, got %d", ErrInvalidConfig, c.MaxLength)
	}
	if c.MinLength > c.MaxLength {
		return fmt.Errorf("%w: split min (%d) is greater than split max (%d)", ErrInvalidConfig, c.MinLength, c.MaxLength)
	}
	return nil
}

func (c TrainConfig) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("%w: train iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return fmt.Errorf("%w: train dropout must be in [0, 1), got %v", ErrInvalidConfig, c.Dropout)
	}
	return nil
}

// Environment merges the optional config file with the process environment. The
// process environment takes precedence over the file.
func Environment(path string) (map[string]string, error) {
	environ := map[string]string{}

	if path != "" {
		var (
			fileEnv map[string]string
			err     error
		)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			fileEnv, err = readYAML(path)
		default:
			fileEnv, err = godotenv.Read(path)
		}
		if err != nil {
			return nil, fmt.Errorf("error loading config file '%s': %w", path, err)
		}
		slog.Info("loaded config file", "path", path, "keys", len(fileEnv))
		for k, v := range fileEnv {
			environ[k] = v
		}
	}

	for k, v := range env.ToMap(os.Environ()) {
		environ[k] = v
	}

	return environ, nil
}

// readYAML flattens a file of groups into environment keys, so that
//
//	split:
//	  capacity: 0.5
//
// becomes SPLIT_CAPACITY=0.5.
func readYAML(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var groups map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, err
	}

	out := map[string]string{}
	for group, values := range groups {
		for key, value := range values {
			if value == nil {
				continue
			}
			name := strings.ToUpper(group + "_" + key)
			out[name] = fmt.Sprint(value)
		}
	}
	return out, nil
}

func parse[T any](environ map[string]string) (T, error) {
	var cfg T
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func LoadSplitConfig(environ map[string]string) (SplitConfig, error) {
	cfg, err := parse[SplitConfig](environ)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Segment.Validate()
}

func LoadTrainConfig(environ map[string]string) (TrainConfig, error) {
	cfg, err := parse[TrainConfig](environ)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func LoadEvaluateConfig(environ map[string]string) (EvaluateConfig, error) {
	cfg, err := parse[EvaluateConfig](environ)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Segment.Validate()
}

func LoadServeConfig(environ map[string]string) (ServeConfig, error) {
	return parse[ServeConfig](environ)
}
