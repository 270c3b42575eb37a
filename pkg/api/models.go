package api

import (
	"time"

	"github.com/google/uuid"
)

type Sample struct {
	Tokens []string
	Labels []string
}

type Model struct {
	Id     uuid.UUID
	Name   string
	Type   string
	Status string
	Dir    string
	Epochs int

	CreationTime   time.Time
	CompletionTime *time.Time `json:"CompletionTime,omitempty"`

	Tags []string `json:"Tags,omitempty"`
}

type ClassMetrics struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

type Report struct {
	Classes  []ClassMetrics
	Averages []ClassMetrics
}

type Evaluation struct {
	Id      uuid.UUID
	ModelId uuid.UUID

	DataDir   string
	Sentences int
	Tokens    int

	Full   *Report `json:"Full,omitempty"`
	Coarse *Report `json:"Coarse,omitempty"`
	Entity *Report `json:"Entity,omitempty"`

	CreationTime time.Time
}

type ListEvaluationsParams struct {
	ModelId string `schema:"model_id"`
	Limit   int    `schema:"limit"`
}

type PredictRequest struct {
	// Either pre-tokenized sentences or raw text which is split on whitespace.
	Sentences [][]string
	Text      string
}

type PredictResponse struct {
	Tokens [][]string
	Labels [][]string

	// Byte offset of each sentence in the request text, only set for text requests.
	StartOffsets []int `json:"StartOffsets,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
