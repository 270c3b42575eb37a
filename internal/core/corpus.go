package core

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ner-pipeline/pkg/api"
)

// DefaultShuffleSeed keeps the train/valid files reproducible across runs.
const DefaultShuffleSeed int64 = 999

var ErrLengthMismatch = errors.New("tokens and labels have different lengths")

func checkSample(i int, s api.Sample) error {
	if len(s.Tokens) != len(s.Labels) {
		return fmt.Errorf("sentence %d has %d tokens and %d labels: %w", i, len(s.Tokens), len(s.Labels), ErrLengthMismatch)
	}
	return nil
}

func ShuffleCorpus(corpus Corpus, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(corpus), func(i, j int) {
		corpus[i], corpus[j] = corpus[j], corpus[i]
	})
}

// WriteCorpus writes one "token\ttag" line per token and a blank line after every
// sentence. Missing parent directories are created.
func WriteCorpus(corpus Corpus, path string) error {
	for i, sample := range corpus {
		if err := checkSample(i, sample); err != nil {
			return err
		}
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
	for _, sample := range corpus {
		for i, token := range sample.Tokens {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", token, sample.Labels[i]); err != nil {
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

// LoadCorpus reads a file written by WriteCorpus. Each blank-line delimited block is a
// sentence; lines without a tag are logged and skipped.
func LoadCorpus(path string) (Corpus, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer file.Close()

	var (
		corpus  Corpus
		current api.Sample
	)

	err = eachLine(path, file, func(lineNum int, line string) {
		if strings.TrimSpace(line) == "" {
			if len(current.Tokens) > 0 {
				corpus = append(corpus, current)
				current = api.Sample{}
			}
			return
		}

		token, tag, ok := ParseLine(line)
		if !ok {
			slog.Warn("skipping malformed line", "file", path, "line", lineNum, "text", line)
			return
		}
		current.Tokens = append(current.Tokens, token)
		current.Labels = append(current.Labels, tag)
	})
	if err != nil {
		return nil, err
	}

	if len(current.Tokens) > 0 {
		corpus = append(corpus, current)
	}

	return corpus, nil
}

// CollectFiles returns the files in dir matching pattern, sorted by name.
func CollectFiles(dir, pattern string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading input directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path %s is not a directory", dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
	}
	sort.Strings(files)

	return files, nil
}

func CountTokens(corpus Corpus) int {
	total := 0
	for _, s := range corpus {
		total += len(s.Tokens)
	}
	return total
}

func (c Corpus) Sentences() [][]string {
	out := make([][]string, len(c))
	for i, s := range c {
		out[i] = s.Tokens
	}
	return out
}

func (c Corpus) Labels() [][]string {
	out := make([][]string, len(c))
	for i, s := range c {
		out[i] = s.Labels
	}
	return out
}

// Tags returns the distinct labels of the corpus in sorted order.
func (c Corpus) Tags() []string {
	seen := map[string]struct{}{}
	for _, s := range c {
		for _, l := range s.Labels {
			seen[l] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
