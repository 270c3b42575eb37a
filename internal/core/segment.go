package core

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"unicode"

	"ner-pipeline/pkg/api"
)

// Corpus is an ordered list of sentences with their aligned labels.
type Corpus []api.Sample

type SplitOptions struct {
	// Fraction of the input files to process, in (0, 1].
	Capacity  float64
	MinLength int
	MaxLength int

	// OnFile is called after each selected file is segmented.
	OnFile func(path string, sentences int)
}

// Characters which end a sentence once it is longer than the minimum length.
const sentenceDelimiters = ".:"

// ParseLine splits a "<token> <tag>" line. The token is the first whitespace
// delimited field, the tag is the rest of the line with surrounding whitespace removed.
func ParseLine(line string) (token, tag string, ok bool) {
	line = strings.TrimFunc(line, unicode.IsSpace)

	idx := strings.IndexFunc(line, unicode.IsSpace)
	if idx < 0 {
		return "", "", false
	}

	token = line[:idx]
	tag = strings.TrimLeftFunc(line[idx:], unicode.IsSpace)
	return token, tag, true
}

// Lines longer than this are skipped rather than buffered.
const maxLineLength = 1 << 20

// eachLine calls fn for every line of r with its 1-based number and without the line
// terminator. Lines over maxLineLength are logged and skipped.
func eachLine(name string, r io.Reader, fn func(num int, line string)) error {
	reader := bufio.NewReaderSize(r, 64*1024)

	var (
		buf     []byte
		tooLong bool
		num     int
	)
	for {
		fragment, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading %s: %w", name, err)
		}

		if !tooLong {
			buf = append(buf, fragment...)
			if len(buf) > maxLineLength {
				tooLong = true
				buf = buf[:0]
			}
		}
		if isPrefix {
			continue
		}

		num++
		if tooLong {
			slog.Warn("skipping line over length limit", "file", name, "line", num, "limit", maxLineLength)
		} else {
			fn(num, string(buf))
		}
		buf, tooLong = buf[:0], false
	}
}

// SelectFiles returns the first floor(capacity * len(files)) files.
func SelectFiles(files []string, capacity float64) []string {
	n := int(math.Floor(capacity * float64(len(files))))
	n = max(0, min(n, len(files)))
	return files[:n]
}

type Segmenter struct {
	MinLength int
	// MaxLength <= 0 disables the length cutoff.
	MaxLength int

	// OnFile is called after each file is segmented.
	OnFile func(path string, sentences int)
}

func (s *Segmenter) isBoundary(token string, length int) bool {
	if s.MaxLength > 0 && length == s.MaxLength {
		return true
	}
	return strings.ContainsAny(token, sentenceDelimiters) && length > s.MinLength
}

// SegmentReader groups the word/tag lines of r into sentences. A sentence ends when it
// reaches MaxLength, or when its last token contains '.' or ':' and it is longer than
// MinLength. Whatever remains at the end of the stream is emitted as a final sentence.
func (s *Segmenter) SegmentReader(name string, r io.Reader) (Corpus, error) {
	var (
		corpus Corpus
		tokens []string
		labels []string
	)

	err := eachLine(name, r, func(lineNum int, line string) {
		token, tag, ok := ParseLine(line)
		if !ok {
			if strings.TrimSpace(line) == "" {
				slog.Debug("skipping blank line", "file", name, "line", lineNum)
			} else {
				slog.Warn("skipping malformed line", "file", name, "line", lineNum, "text", line)
			}
			return
		}

		tokens = append(tokens, token)
		labels = append(labels, tag)

		if s.isBoundary(token, len(tokens)) {
			corpus = append(corpus, api.Sample{Tokens: tokens, Labels: labels})
			tokens, labels = nil, nil
		}
	})
	if err != nil {
		return nil, err
	}

	if len(tokens) != 0 {
		corpus = append(corpus, api.Sample{Tokens: tokens, Labels: labels})
	}

	return corpus, nil
}

func (s *Segmenter) SegmentFile(path string) (Corpus, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer file.Close()

	corpus, err := s.SegmentReader(path, file)
	if err != nil {
		return nil, err
	}

	if s.OnFile != nil {
		s.OnFile(path, len(corpus))
	}

	return corpus, nil
}

// SegmentFiles segments each file in order and concatenates the results. The first
// file which cannot be read aborts the whole run.
func (s *Segmenter) SegmentFiles(files []string) (Corpus, error) {
	var corpus Corpus
	for _, path := range files {
		sentences, err := s.SegmentFile(path)
		if err != nil {
			return nil, err
		}
		corpus = append(corpus, sentences...)
	}
	return corpus, nil
}

// SplitDataset segments the first Capacity fraction of files, in order.
func SplitDataset(files []string, opts SplitOptions) (Corpus, error) {
	s := Segmenter{MinLength: opts.MinLength, MaxLength: opts.MaxLength, OnFile: opts.OnFile}
	return s.SegmentFiles(SelectFiles(files, opts.Capacity))
}
