package core

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ner-pipeline/internal/metrics"
)

const OutsideTag = "O"

var entityPrefixes = []string{"B-", "I-", "E-", "S-"}

// EntityType drops the position prefix of a tag, "B-Diseases" becomes "Diseases".
// The outside tag is returned unchanged.
func EntityType(tag string) string {
	if tag == OutsideTag {
		return tag
	}
	for _, p := range entityPrefixes {
		if rest, ok := strings.CutPrefix(tag, p); ok {
			return rest
		}
	}
	return tag
}

func checkAligned(names [3]string, seqs ...[][]string) error {
	for i := 1; i < len(seqs); i++ {
		if len(seqs[i]) != len(seqs[0]) {
			return fmt.Errorf("found %d %s and %d %s: %w", len(seqs[0]), names[0], len(seqs[i]), names[i], ErrLengthMismatch)
		}
	}
	for j := range seqs[0] {
		for i := 1; i < len(seqs); i++ {
			if len(seqs[i][j]) != len(seqs[0][j]) {
				return fmt.Errorf("sentence %d has %d %s and %d %s: %w", j, len(seqs[0][j]), names[0], len(seqs[i][j]), names[i], ErrLengthMismatch)
			}
		}
	}
	return nil
}

// CoarsePairs flattens the label sequences, reduces every tag to its entity type and
// drops the positions where both the true and the predicted tag are outside tags.
func CoarsePairs(truth, predicted [][]string) ([]string, []string, error) {
	if err := checkAligned([3]string{"true labels", "predicted labels"}, truth, predicted); err != nil {
		return nil, nil, err
	}

	var coarseTrue, coarsePred []string
	for i := range truth {
		for j := range truth[i] {
			t, p := EntityType(truth[i][j]), EntityType(predicted[i][j])
			if t == OutsideTag && p == OutsideTag {
				continue
			}
			coarseTrue = append(coarseTrue, t)
			coarsePred = append(coarsePred, p)
		}
	}
	return coarseTrue, coarsePred, nil
}

func flatten(seqs [][]string) []string {
	var out []string
	for _, s := range seqs {
		out = append(out, s...)
	}
	return out
}

// WriteDebugFile writes "token\tpredicted\ttrue" lines with a blank line after every
// sentence.
func WriteDebugFile(tokens, predicted, truth [][]string, path string) error {
	if err := checkAligned([3]string{"tokens", "predicted labels", "true labels"}, tokens, predicted, truth); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for i := range tokens {
		for j := range tokens[i] {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", tokens[i][j], predicted[i][j], truth[i][j]); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

type Evaluation struct {
	Tokens    [][]string
	Predicted [][]string
	Truth     [][]string

	// Full scores every tag including its B-/I- prefix.
	Full metrics.Report
	// Entity scores complete entity spans.
	Entity metrics.Report
	// Coarse scores entity types after dropping outside/outside positions.
	Coarse metrics.Report
}

func NewEvaluation(tokens, predicted, truth [][]string) (*Evaluation, error) {
	if err := checkAligned([3]string{"tokens", "predicted labels", "true labels"}, tokens, predicted, truth); err != nil {
		return nil, err
	}

	full, err := metrics.ClassificationReport(flatten(truth), flatten(predicted))
	if err != nil {
		return nil, fmt.Errorf("error computing full report: %w", err)
	}

	entity, err := metrics.EntityReport(truth, predicted)
	if err != nil {
		return nil, fmt.Errorf("error computing entity report: %w", err)
	}

	coarseTrue, coarsePred, err := CoarsePairs(truth, predicted)
	if err != nil {
		return nil, err
	}
	coarse, err := metrics.ClassificationReport(coarseTrue, coarsePred)
	if err != nil {
		return nil, fmt.Errorf("error computing coarse report: %w", err)
	}

	return &Evaluation{
		Tokens:    tokens,
		Predicted: predicted,
		Truth:     truth,
		Full:      full,
		Entity:    entity,
		Coarse:    coarse,
	}, nil
}

// Evaluate tags every sentence of the corpus with the model and scores the predictions
// against the corpus labels.
func Evaluate(model Model, corpus Corpus) (*Evaluation, error) {
	sentences := corpus.Sentences()

	slog.Info("predicting labels", "sentences", len(sentences))
	predicted, err := model.Predict(sentences)
	if err != nil {
		return nil, fmt.Errorf("error predicting labels: %w", err)
	}

	return NewEvaluation(sentences, predicted, corpus.Labels())
}

func (e *Evaluation) WriteDebugFile(path string) error {
	return WriteDebugFile(e.Tokens, e.Predicted, e.Truth, path)
}
