package utils

import (
	"regexp"
)

var tokenRegex = regexp.MustCompile(`\S+`)

// DefaultSentenceLength is the number of tokens per sentence when raw text is split
// for prediction.
const DefaultSentenceLength = 100

// SplitTokens splits text on whitespace and groups the tokens into sentences of at
// most length tokens. startOffsets holds the byte offset of each sentence's first
// token in text.
func SplitTokens(text string, length int) (sentences [][]string, startOffsets []int) {
	if length <= 0 {
		length = DefaultSentenceLength
	}

	spans := tokenRegex.FindAllStringIndex(text, -1)

	for start := 0; start < len(spans); start += length {
		end := min(start+length, len(spans))

		tokens := make([]string, 0, end-start)
		for _, span := range spans[start:end] {
			tokens = append(tokens, text[span[0]:span[1]])
		}

		sentences = append(sentences, tokens)
		startOffsets = append(startOffsets, spans[start][0])
	}
	return
}
