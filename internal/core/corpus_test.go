package core_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"ner-pipeline/internal/core"
	"ner-pipeline/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCorpus() core.Corpus {
	return core.Corpus{
		{Tokens: []string{"John", "has", "cancer", "."}, Labels: []string{"O", "O", "B-Diseases", "O"}},
		{Tokens: []string{"BP", ":"}, Labels: []string{"B-Vital", "O"}},
		{Tokens: []string{"no", "fever"}, Labels: []string{"O", "B-Symptom"}},
	}
}

func TestWriteCorpusFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "train.txt")

	require.NoError(t, core.WriteCorpus(sampleCorpus()[:2], path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "John\tO\nhas\tO\ncancer\tB-Diseases\n.\tO\n\nBP\tB-Vital\n:\tO\n\n", string(data))
}

func TestWriteCorpusEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")

	require.NoError(t, core.WriteCorpus(nil, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestWriteCorpusLengthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	corpus := core.Corpus{{Tokens: []string{"a", "b"}, Labels: []string{"O"}}}

	err := core.WriteCorpus(corpus, path)
	assert.ErrorIs(t, err, core.ErrLengthMismatch)
	assert.NoFileExists(t, path)
}

func TestLoadCorpusRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.txt")
	corpus := sampleCorpus()

	require.NoError(t, core.WriteCorpus(corpus, path))

	loaded, err := core.LoadCorpus(path)
	require.NoError(t, err)
	assert.Equal(t, corpus, loaded)
}

func TestLoadCorpusSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "train.txt", "John\tO \nnotag\ncancer\tB-Diseases\n\n\nBP\tB-Vital\n")

	corpus, err := core.LoadCorpus(path)
	require.NoError(t, err)
	assert.Equal(t, core.Corpus{
		{Tokens: []string{"John", "cancer"}, Labels: []string{"O", "B-Diseases"}},
		{Tokens: []string{"BP"}, Labels: []string{"B-Vital"}},
	}, corpus)
}

func TestLoadCorpusMissing(t *testing.T) {
	_, err := core.LoadCorpus(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestShuffleCorpusDeterministic(t *testing.T) {
	var original core.Corpus
	for i := 0; i < 50; i++ {
		original = append(original, api.Sample{Tokens: []string{fmt.Sprint(i)}, Labels: []string{"O"}})
	}

	a := append(core.Corpus(nil), original...)
	b := append(core.Corpus(nil), original...)
	core.ShuffleCorpus(a, core.DefaultShuffleSeed)
	core.ShuffleCorpus(b, core.DefaultShuffleSeed)

	assert.Equal(t, a, b)
	assert.NotEqual(t, original, a)
	assert.ElementsMatch(t, original, a)

	c := append(core.Corpus(nil), original...)
	core.ShuffleCorpus(c, 1)
	assert.NotEqual(t, a, c)
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "b O\n")
	writeFile(t, dir, "a.txt", "a O\n")
	writeFile(t, dir, "c.csv", "c O\n")

	files, err := core.CollectFiles(dir, "*.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, files)

	files, err = core.CollectFiles(dir, "*.json")
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = core.CollectFiles(filepath.Join(dir, "missing"), "*.txt")
	assert.Error(t, err)

	_, err = core.CollectFiles(filepath.Join(dir, "a.txt"), "*.txt")
	assert.ErrorContains(t, err, "not a directory")
}

func TestCorpusAccessors(t *testing.T) {
	corpus := sampleCorpus()

	assert.Equal(t, 8, core.CountTokens(corpus))
	assert.Equal(t, []string{"BP", ":"}, corpus.Sentences()[1])
	assert.Equal(t, []string{"O", "B-Symptom"}, corpus.Labels()[2])
	assert.Equal(t, []string{"B-Diseases", "B-Symptom", "B-Vital", "O"}, corpus.Tags())
}
