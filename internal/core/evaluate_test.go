package core_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ner-pipeline/internal/core"
	"ner-pipeline/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedModel predicts a fixed set of labels regardless of the input.
type fixedModel struct {
	labels [][]string
	err    error
}

func (m *fixedModel) Fit(train, valid []api.Sample, opts core.FitOptions) error { return nil }

func (m *fixedModel) Predict(sentences [][]string) ([][]string, error) {
	return m.labels, m.err
}

func (m *fixedModel) Save(paths core.ModelPaths) error { return nil }

func (m *fixedModel) Release() {}

func TestEntityType(t *testing.T) {
	assert.Equal(t, "Diseases", core.EntityType("B-Diseases"))
	assert.Equal(t, "Diseases", core.EntityType("I-Diseases"))
	assert.Equal(t, "Diseases", core.EntityType("S-Diseases"))
	assert.Equal(t, "O", core.EntityType("O"))
	assert.Equal(t, "Misc", core.EntityType("Misc"))
}

func TestCoarsePairs(t *testing.T) {
	truth := [][]string{{"O", "B-Diseases", "O"}, {"B-Drug"}}
	predicted := [][]string{{"O", "I-Diseases", "B-Drug"}, {"O"}}

	coarseTrue, coarsePred, err := core.CoarsePairs(truth, predicted)
	require.NoError(t, err)

	// the leading ('O','O') pair is dropped, mixed pairs are kept
	assert.Equal(t, []string{"Diseases", "O", "Drug"}, coarseTrue)
	assert.Equal(t, []string{"Diseases", "Drug", "O"}, coarsePred)
}

func TestCoarsePairsMismatch(t *testing.T) {
	_, _, err := core.CoarsePairs([][]string{{"O"}}, [][]string{{"O", "O"}})
	assert.ErrorIs(t, err, core.ErrLengthMismatch)

	_, _, err = core.CoarsePairs([][]string{{"O"}}, nil)
	assert.ErrorIs(t, err, core.ErrLengthMismatch)
}

func TestNewEvaluation(t *testing.T) {
	tokens := [][]string{{"John", "has", "lung", "cancer", "."}, {"Takes", "aspirin"}}
	truth := [][]string{{"O", "O", "B-Diseases", "I-Diseases", "O"}, {"O", "B-Drug"}}
	predicted := [][]string{{"O", "O", "B-Diseases", "I-Diseases", "O"}, {"O", "O"}}

	eval, err := core.NewEvaluation(tokens, predicted, truth)
	require.NoError(t, err)

	score, ok := eval.Full.Score("B-Drug")
	require.True(t, ok)
	assert.Equal(t, 1, score.Support)
	assert.InDelta(t, 0, score.Recall, 1e-9)

	score, ok = eval.Full.Score("I-Diseases")
	require.True(t, ok)
	assert.InDelta(t, 1, score.F1, 1e-9)

	score, ok = eval.Entity.Score("Diseases")
	require.True(t, ok)
	assert.InDelta(t, 1, score.F1, 1e-9)

	score, ok = eval.Entity.Score("Drug")
	require.True(t, ok)
	assert.InDelta(t, 0, score.Recall, 1e-9)

	// coarse only sees the two disease tokens and the missed drug
	score, ok = eval.Coarse.Score("Diseases")
	require.True(t, ok)
	assert.Equal(t, 2, score.Support)
	score, ok = eval.Coarse.Score("O")
	require.True(t, ok)
	assert.Equal(t, 0, score.Support)
}

func TestEvaluate(t *testing.T) {
	corpus := core.Corpus{
		{Tokens: []string{"John", "has", "cancer", "."}, Labels: []string{"O", "O", "B-Diseases", "O"}},
	}

	model := &fixedModel{labels: [][]string{{"O", "O", "B-Diseases", "O"}}}
	eval, err := core.Evaluate(model, corpus)
	require.NoError(t, err)
	assert.Equal(t, corpus.Sentences(), eval.Tokens)
	assert.Equal(t, corpus.Labels(), eval.Truth)

	score, ok := eval.Full.Score("micro avg")
	require.True(t, ok)
	assert.InDelta(t, 1, score.F1, 1e-9)
}

func TestEvaluateErrors(t *testing.T) {
	corpus := core.Corpus{{Tokens: []string{"a", "b"}, Labels: []string{"O", "O"}}}

	_, err := core.Evaluate(&fixedModel{err: errors.New("model crashed")}, corpus)
	assert.ErrorContains(t, err, "model crashed")

	_, err = core.Evaluate(&fixedModel{labels: [][]string{{"O"}}}, corpus)
	assert.ErrorIs(t, err, core.ErrLengthMismatch)
}

func TestWriteDebugFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "output.txt")

	tokens := [][]string{{"John", "cancer"}, {"ok"}}
	predicted := [][]string{{"O", "B-Diseases"}, {"O"}}
	truth := [][]string{{"O", "I-Diseases"}, {"O"}}

	eval, err := core.NewEvaluation(tokens, predicted, truth)
	require.NoError(t, err)
	require.NoError(t, eval.WriteDebugFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "John\tO\tO\ncancer\tB-Diseases\tI-Diseases\n\nok\tO\tO\n\n", string(data))
}

func TestWriteDebugFileMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.txt")

	err := core.WriteDebugFile([][]string{{"a", "b"}}, [][]string{{"O", "O"}}, [][]string{{"O"}}, path)
	assert.ErrorIs(t, err, core.ErrLengthMismatch)
	assert.NoFileExists(t, path)
}
