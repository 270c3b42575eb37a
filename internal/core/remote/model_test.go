package remote_test

import (
	"errors"
	"path/filepath"
	"testing"

	"ner-pipeline/internal/core/perceptron"
	"ner-pipeline/internal/core/remote"
	"ner-pipeline/internal/core/types"
	"ner-pipeline/pkg/api"
	"ner-pipeline/plugin/shared"

	"github.com/hashicorp/go-plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, impl shared.Tagger) *remote.Model {
	client, _ := plugin.TestPluginRPCConn(t, map[string]plugin.Plugin{
		shared.PluginName: &shared.TaggerPlugin{Impl: impl},
	}, nil)
	t.Cleanup(func() { client.Close() })

	raw, err := client.Dispense(shared.PluginName)
	require.NoError(t, err)

	tagger, ok := raw.(shared.Tagger)
	require.True(t, ok)

	return remote.Wrap(tagger)
}

type failingTagger struct{}

func (failingTagger) Fit(req shared.FitRequest) error { return errors.New("fit failed") }
func (failingTagger) Predict(sentences [][]string) ([][]string, error) {
	return nil, errors.New("predict failed")
}
func (failingTagger) Save(paths types.ModelPaths) error { return errors.New("save failed") }
func (failingTagger) Load(paths types.ModelPaths) error { return errors.New("load failed") }

type shortTagger struct{ failingTagger }

func (shortTagger) Predict(sentences [][]string) ([][]string, error) {
	return [][]string{}, nil
}

func TestPluginRoundTrip(t *testing.T) {
	samples := []api.Sample{
		{Tokens: []string{"John", "has", "cancer", "."}, Labels: []string{"O", "O", "B-Diseases", "O"}},
		{Tokens: []string{"Mary", "has", "asthma", "."}, Labels: []string{"O", "O", "B-Diseases", "O"}},
	}

	model := connect(t, perceptron.NewPluginTagger())
	defer model.Release()

	require.NoError(t, model.Fit(samples, samples, types.FitOptions{Epochs: 5}))

	labels, err := model.Predict([][]string{{"John", "has", "cancer", "."}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"O", "O", "B-Diseases", "O"}}, labels)

	dir := t.TempDir()
	paths := types.ModelPaths{
		Weights:      filepath.Join(dir, "weights.json"),
		Params:       filepath.Join(dir, "params.json"),
		Preprocessor: filepath.Join(dir, "preprocessor.json"),
	}
	require.NoError(t, model.Save(paths))
	assert.FileExists(t, paths.Weights)

	other := connect(t, perceptron.NewPluginTagger())
	defer other.Release()
	require.NoError(t, other.Load(paths))

	reloaded, err := other.Predict([][]string{{"John", "has", "cancer", "."}})
	require.NoError(t, err)
	assert.Equal(t, labels, reloaded)
}

func TestPluginErrors(t *testing.T) {
	model := connect(t, failingTagger{})

	assert.ErrorContains(t, model.Fit(nil, nil, types.FitOptions{}), "fit failed")
	_, err := model.Predict([][]string{{"a"}})
	assert.ErrorContains(t, err, "predict failed")
	assert.ErrorContains(t, model.Save(types.ModelPaths{}), "save failed")
	assert.ErrorContains(t, model.Load(types.ModelPaths{}), "load failed")
}

func TestPluginLabelCountMismatch(t *testing.T) {
	model := connect(t, shortTagger{})

	_, err := model.Predict([][]string{{"a"}})
	assert.ErrorContains(t, err, "1 sentences")
}

func TestReleasedModel(t *testing.T) {
	model := connect(t, failingTagger{})
	model.Release()
	model.Release()

	_, err := model.Predict([][]string{{"a"}})
	assert.ErrorContains(t, err, "released")
}
