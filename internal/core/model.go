package core

import (
	"fmt"
	"path/filepath"

	"ner-pipeline/internal/core/perceptron"
	"ner-pipeline/internal/core/remote"
	"ner-pipeline/internal/core/types"
	"ner-pipeline/pkg/api"
)

// ModelType represents the type of sequence tagger
type ModelType string

// Available model types
const (
	Perceptron ModelType = "perceptron"
	Plugin     ModelType = "plugin"
)

type (
	FitOptions = types.FitOptions
	ModelPaths = types.ModelPaths
	Embeddings = types.Embeddings
)

type Model interface {
	Fit(train, valid []api.Sample, opts FitOptions) error

	Predict(sentences [][]string) ([][]string, error)

	Save(paths ModelPaths) error

	Release()
}

// ModelPathsIn returns the locations of the model files inside dir.
func ModelPathsIn(dir string) ModelPaths {
	return ModelPaths{
		Weights:      filepath.Join(dir, "weights.json"),
		Params:       filepath.Join(dir, "params.json"),
		Preprocessor: filepath.Join(dir, "preprocessor.json"),
	}
}

type ModelFactory struct {
	New  func() (Model, error)
	Load func(paths ModelPaths) (Model, error)
}

func NewModelFactories(pluginPath string) map[ModelType]ModelFactory {
	return map[ModelType]ModelFactory{
		Perceptron: {
			New: func() (Model, error) {
				return perceptron.New(), nil
			},
			Load: func(paths ModelPaths) (Model, error) {
				return perceptron.Load(paths)
			},
		},
		Plugin: {
			New: func() (Model, error) {
				return remote.Start(pluginPath)
			},
			Load: func(paths ModelPaths) (Model, error) {
				m, err := remote.Start(pluginPath)
				if err != nil {
					return nil, err
				}
				if err := m.Load(paths); err != nil {
					m.Release()
					return nil, err
				}
				return m, nil
			},
		},
	}
}

func getFactory(modelType ModelType, pluginPath string) (ModelFactory, error) {
	factory, ok := NewModelFactories(pluginPath)[modelType]
	if !ok {
		return ModelFactory{}, fmt.Errorf("unsupported model type '%s'", modelType)
	}
	if modelType == Plugin && pluginPath == "" {
		return ModelFactory{}, fmt.Errorf("model type '%s' requires a plugin path", modelType)
	}
	return factory, nil
}

func NewModel(modelType ModelType, pluginPath string) (Model, error) {
	factory, err := getFactory(modelType, pluginPath)
	if err != nil {
		return nil, err
	}
	return factory.New()
}

func LoadModel(modelType ModelType, pluginPath, modelDir string) (Model, error) {
	factory, err := getFactory(modelType, pluginPath)
	if err != nil {
		return nil, err
	}
	model, err := factory.Load(ModelPathsIn(modelDir))
	if err != nil {
		return nil, fmt.Errorf("error loading %s model from %s: %w", modelType, modelDir, err)
	}
	return model, nil
}
