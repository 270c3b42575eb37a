package types

import "strings"

// Embeddings maps a word to its pretrained vector.
type Embeddings map[string][]float64

func (e Embeddings) Dim() int {
	for _, v := range e {
		return len(v)
	}
	return 0
}

// Lookup finds the vector of a word, falling back to its lowercase form.
func (e Embeddings) Lookup(word string) ([]float64, bool) {
	if v, ok := e[word]; ok {
		return v, true
	}
	v, ok := e[strings.ToLower(word)]
	return v, ok
}

type FitOptions struct {
	Epochs int

	WordEmbeddingDim int
	CharEmbeddingDim int
	Dropout          float64

	Embeddings Embeddings

	// Seed for shuffling the training samples between epochs.
	Seed int64
}

// ModelPaths are the three files a trained model is persisted to.
type ModelPaths struct {
	Weights      string
	Params       string
	Preprocessor string
}
