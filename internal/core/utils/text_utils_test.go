package utils_test

import (
	"testing"

	"ner-pipeline/internal/core/utils"

	"github.com/stretchr/testify/assert"
)

func TestSplitTokens(t *testing.T) {
	tests := []struct {
		name             string
		text             string
		length           int
		wantSentences    [][]string
		wantStartOffsets []int
	}{
		{
			name:             "length 2",
			text:             "hello \n\n world \t\t how are you",
			length:           2,
			wantSentences:    [][]string{{"hello", "world"}, {"how", "are"}, {"you"}},
			wantStartOffsets: []int{0, 18, 26},
		},
		{
			name:             "default length",
			text:             "Patient has fever.\nDx: flu",
			length:           utils.DefaultSentenceLength,
			wantSentences:    [][]string{{"Patient", "has", "fever.", "Dx:", "flu"}},
			wantStartOffsets: []int{0},
		},
		{
			name:             "non positive length uses default",
			text:             "  a b",
			length:           0,
			wantSentences:    [][]string{{"a", "b"}},
			wantStartOffsets: []int{2},
		},
		{
			name:   "only whitespace",
			text:   " \n\t ",
			length: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sentences, startOffsets := utils.SplitTokens(tt.text, tt.length)
			assert.Equal(t, tt.wantSentences, sentences)
			assert.Equal(t, tt.wantStartOffsets, startOffsets)
		})
	}
}
