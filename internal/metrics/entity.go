package metrics

import (
	"fmt"
	"strings"
)

type Chunk struct {
	Type  string
	Start int
	End   int // inclusive
}

func splitTag(tag string) (prefix, typ string) {
	if tag == "O" || tag == "" {
		return "O", ""
	}
	if len(tag) > 2 && tag[1] == '-' && strings.ContainsRune("BIES", rune(tag[0])) {
		return tag[:1], tag[2:]
	}
	return "I", tag
}

func endOfChunk(prevPrefix, prefix, prevType, typ string) bool {
	switch {
	case prevPrefix == "E" || prevPrefix == "S":
		return true
	case (prevPrefix == "B" || prevPrefix == "I") && (prefix == "B" || prefix == "S" || prefix == "O"):
		return true
	case prevPrefix != "O" && prevType != typ:
		return true
	}
	return false
}

func startOfChunk(prevPrefix, prefix, prevType, typ string) bool {
	switch {
	case prefix == "B" || prefix == "S":
		return true
	case (prevPrefix == "E" || prevPrefix == "S" || prevPrefix == "O") && (prefix == "E" || prefix == "I"):
		return true
	case prefix != "O" && prevType != typ:
		return true
	}
	return false
}

// Chunks extracts the entity spans of an IOB/IOBES tag sequence.
func Chunks(tags []string) []Chunk {
	var chunks []Chunk

	prevPrefix, prevType := "O", ""
	start := 0
	for i := 0; i <= len(tags); i++ {
		prefix, typ := "O", ""
		if i < len(tags) {
			prefix, typ = splitTag(tags[i])
		}

		if endOfChunk(prevPrefix, prefix, prevType, typ) {
			chunks = append(chunks, Chunk{Type: prevType, Start: start, End: i - 1})
		}
		if startOfChunk(prevPrefix, prefix, prevType, typ) {
			start = i
		}

		prevPrefix, prevType = prefix, typ
	}

	return chunks
}

// EntityReport scores whole entity spans per entity type: a predicted entity counts
// only if its type and both boundaries match a true entity.
func EntityReport(yTrue, yPred [][]string) (Report, error) {
	if len(yTrue) != len(yPred) {
		return Report{}, fmt.Errorf("found %d true sequences and %d predicted sequences", len(yTrue), len(yPred))
	}

	perClass := map[string]*counts{}
	get := func(label string) *counts {
		c, ok := perClass[label]
		if !ok {
			c = &counts{}
			perClass[label] = c
		}
		return c
	}

	for i := range yTrue {
		if len(yTrue[i]) != len(yPred[i]) {
			return Report{}, fmt.Errorf("sequence %d has %d true labels and %d predicted labels", i, len(yTrue[i]), len(yPred[i]))
		}

		trueChunks := map[Chunk]struct{}{}
		for _, c := range Chunks(yTrue[i]) {
			trueChunks[c] = struct{}{}
			get(c.Type).actual++
		}
		for _, c := range Chunks(yPred[i]) {
			get(c.Type).predicted++
			if _, ok := trueChunks[c]; ok {
				get(c.Type).truePositives++
			}
		}
	}

	return newReport(perClass), nil
}
