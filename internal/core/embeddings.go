package core

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// word2vec text files start with a "<count> <dim>" line.
func isVectorsHeader(fields []string) bool {
	if len(fields) != 2 {
		return false
	}
	for _, f := range fields {
		if _, err := strconv.Atoi(f); err != nil {
			return false
		}
	}
	return true
}

// LoadVectors reads a text embedding file with one "word v1 v2 ..." entry per line.
// Blank lines are ignored. All vectors must have the same dimension.
func LoadVectors(path string) (Embeddings, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening vectors file %s: %w", path, err)
	}
	defer file.Close()

	vectors := Embeddings{}
	dim := -1

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || (lineNum == 1 && isVectorsHeader(fields)) {
			continue
		}

		vector := make([]float64, len(fields)-1)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q on line %d of %s: %w", f, lineNum, path, err)
			}
			vector[i] = v
		}

		if dim < 0 {
			dim = len(vector)
		} else if len(vector) != dim {
			return nil, fmt.Errorf("line %d of %s has dimension %d, expected %d", lineNum, path, len(vector), dim)
		}

		vectors[fields[0]] = vector
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading vectors file %s: %w", path, err)
	}

	return vectors, nil
}
