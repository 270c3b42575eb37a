package core_test

import (
	"path/filepath"
	"testing"

	"ner-pipeline/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelPathsIn(t *testing.T) {
	paths := core.ModelPathsIn("models/run1")
	assert.Equal(t, filepath.Join("models", "run1", "weights.json"), paths.Weights)
	assert.Equal(t, filepath.Join("models", "run1", "params.json"), paths.Params)
	assert.Equal(t, filepath.Join("models", "run1", "preprocessor.json"), paths.Preprocessor)
}

func TestNewModelUnsupported(t *testing.T) {
	_, err := core.NewModel("crf", "")
	assert.ErrorContains(t, err, "unsupported model type")

	_, err = core.NewModel(core.Plugin, "")
	assert.ErrorContains(t, err, "requires a plugin path")
}

func TestPerceptronModelLifecycle(t *testing.T) {
	corpus := sampleCorpus()

	model, err := core.NewModel(core.Perceptron, "")
	require.NoError(t, err)
	defer model.Release()

	require.NoError(t, model.Fit(corpus, corpus, core.FitOptions{Epochs: 5, Seed: 1}))

	dir := t.TempDir()
	require.NoError(t, model.Save(core.ModelPathsIn(dir)))

	loaded, err := core.LoadModel(core.Perceptron, "", dir)
	require.NoError(t, err)
	defer loaded.Release()

	want, err := model.Predict(corpus.Sentences())
	require.NoError(t, err)
	got, err := loaded.Predict(corpus.Sentences())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	eval, err := core.Evaluate(loaded, corpus)
	require.NoError(t, err)
	assert.Len(t, eval.Predicted, len(corpus))
}

func TestLoadModelMissingDir(t *testing.T) {
	_, err := core.LoadModel(core.Perceptron, "", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "error loading perceptron model")
}
