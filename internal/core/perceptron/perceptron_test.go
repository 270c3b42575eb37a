package perceptron

import (
	"path/filepath"
	"testing"

	"ner-pipeline/internal/core/types"
	"ner-pipeline/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diseaseSamples() []api.Sample {
	var samples []api.Sample
	for _, disease := range []string{"cancer", "diabetes", "asthma", "influenza"} {
		samples = append(samples,
			api.Sample{
				Tokens: []string{"John", "has", disease, "."},
				Labels: []string{"O", "O", "B-Diseases", "O"},
			},
			api.Sample{
				Tokens: []string{"Mary", "was", "diagnosed", "with", "lung", disease, "."},
				Labels: []string{"O", "O", "O", "O", "B-Diseases", "I-Diseases", "O"},
			},
		)
	}
	return samples
}

func paths(dir string) types.ModelPaths {
	return types.ModelPaths{
		Weights:      filepath.Join(dir, "weights.json"),
		Params:       filepath.Join(dir, "params.json"),
		Preprocessor: filepath.Join(dir, "preprocessor.json"),
	}
}

func TestShape(t *testing.T) {
	assert.Equal(t, "Xx", shape("John"))
	assert.Equal(t, "d.d", shape("3.14"))
	assert.Equal(t, "X-d", shape("COVID-19"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "!YEAR", normalize("1999"))
	assert.Equal(t, "!DIGITS", normalize("42"))
	assert.Equal(t, "cancer", normalize("Cancer"))
}

func TestSignature(t *testing.T) {
	assert.Equal(t, "101", signature([]float64{0.5, -0.1, 0}))
	assert.Len(t, signature(make([]float64, 50)), signatureBits)
}

func TestFitPredict(t *testing.T) {
	samples := diseaseSamples()

	tagger := New()
	require.NoError(t, tagger.Fit(samples, samples[:2], types.FitOptions{Epochs: 10, Seed: 1}))

	assert.Equal(t, []string{"B-Diseases", "I-Diseases", "O"}, tagger.Tags())

	predicted, err := tagger.Predict([][]string{{"John", "has", "cancer", "."}, {}})
	require.NoError(t, err)
	require.Len(t, predicted, 2)
	assert.Equal(t, []string{"O", "O", "B-Diseases", "O"}, predicted[0])
	assert.Empty(t, predicted[1])
}

func TestEmbeddingSignatureGeneralizes(t *testing.T) {
	samples := diseaseSamples()
	embeddings := types.Embeddings{
		"cancer":    {1, 1, -1},
		"diabetes":  {1, 1, -1},
		"asthma":    {1, 1, -1},
		"influenza": {1, 1, -1},
		"measles":   {1, 1, -1},
		"john":      {-1, -1, 1},
	}

	tagger := New()
	require.NoError(t, tagger.Fit(samples, nil, types.FitOptions{Epochs: 10, Embeddings: embeddings}))

	predicted, err := tagger.Predict([][]string{{"John", "has", "measles", "."}})
	require.NoError(t, err)
	assert.Equal(t, "B-Diseases", predicted[0][2])
}

func TestFitValidation(t *testing.T) {
	tagger := New()
	err := tagger.Fit([]api.Sample{{Tokens: []string{"a"}, Labels: nil}}, nil, types.FitOptions{Epochs: 1})
	assert.Error(t, err)

	valid := []api.Sample{{Tokens: []string{"John", "has", "flu"}, Labels: []string{"O"}}}
	err = tagger.Fit(diseaseSamples(), valid, types.FitOptions{Epochs: 1})
	assert.ErrorContains(t, err, "validation sample 0")

	err = tagger.Fit(diseaseSamples(), nil, types.FitOptions{Epochs: 0})
	assert.Error(t, err)

	err = tagger.Fit(diseaseSamples(), nil, types.FitOptions{Epochs: 1, Dropout: 1})
	assert.Error(t, err)
}

func TestFitIsDeterministic(t *testing.T) {
	opts := types.FitOptions{Epochs: 3, Dropout: 0.2, Seed: 7}
	sentences := [][]string{{"Mary", "has", "lung", "asthma", "."}}

	a := New()
	require.NoError(t, a.Fit(diseaseSamples(), nil, opts))
	b := New()
	require.NoError(t, b.Fit(diseaseSamples(), nil, opts))

	pa, err := a.Predict(sentences)
	require.NoError(t, err)
	pb, err := b.Predict(sentences)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()

	tagger := New()
	opts := types.FitOptions{Epochs: 5, WordEmbeddingDim: 200, CharEmbeddingDim: 50, Dropout: 0.1, Seed: 3}
	require.NoError(t, tagger.Fit(diseaseSamples(), nil, opts))
	require.NoError(t, tagger.Save(paths(filepath.Join(dir, "model"))))

	loaded, err := Load(paths(filepath.Join(dir, "model")))
	require.NoError(t, err)

	assert.Equal(t, tagger.Params(), loaded.Params())
	assert.Equal(t, tagger.Tags(), loaded.Tags())

	sentences := [][]string{{"John", "has", "diabetes", "."}, {"lung", "cancer"}}
	want, err := tagger.Predict(sentences)
	require.NoError(t, err)
	got, err := loaded.Predict(sentences)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadMissingFiles(t *testing.T) {
	_, err := Load(paths(t.TempDir()))
	assert.Error(t, err)
}

func TestUntrainedPredictsOutside(t *testing.T) {
	predicted, err := New().Predict([][]string{{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"O", "O"}}, predicted)
}
