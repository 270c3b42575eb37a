package api

import (
	"errors"
	"log/slog"
	"net/http"

	"ner-pipeline/internal/core"
	"ner-pipeline/internal/core/utils"
	"ner-pipeline/internal/database"
	"ner-pipeline/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxEvaluationsLimit = 1000

type NerService struct {
	db    *gorm.DB
	model core.Model
}

func NewNerService(db *gorm.DB, model core.Model) *NerService {
	return &NerService{db: db, model: model}
}

func (s *NerService) AddRoutes(r chi.Router) {
	r.Get("/health", JSONHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Post("/predict", JSONHandler(s.Predict))
	r.Route("/models", func(r chi.Router) {
		r.Get("/", JSONHandler(s.ListModels))
		r.Get("/{model_id}", JSONHandler(s.GetModel))
	})
	r.Route("/evaluations", func(r chi.Router) {
		r.Get("/", JSONHandler(s.ListEvaluations))
		r.Get("/{evaluation_id}", JSONHandler(s.GetEvaluation))
	})
}

func (s *NerService) Predict(r *http.Request) (any, error) {
	req, err := DecodeBody[api.PredictRequest](r)
	if err != nil {
		return nil, err
	}

	sentences := req.Sentences
	var offsets []int
	if len(sentences) == 0 {
		sentences, offsets = utils.SplitTokens(req.Text, utils.DefaultSentenceLength)
	}
	if len(sentences) == 0 {
		return nil, StatusErrorf(http.StatusBadRequest, "request must contain sentences or text")
	}
	for i, sentence := range sentences {
		if len(sentence) == 0 {
			return nil, StatusErrorf(http.StatusBadRequest, "sentence %d is empty", i)
		}
	}

	labels, err := s.model.Predict(sentences)
	if err != nil {
		slog.Error("error running prediction", "error", err)
		return nil, StatusErrorf(http.StatusInternalServerError, "error running prediction")
	}

	return api.PredictResponse{Tokens: sentences, Labels: labels, StartOffsets: offsets}, nil
}

func (s *NerService) ListModels(r *http.Request) (any, error) {
	models, err := database.ListModels(r.Context(), s.db)
	if err != nil {
		slog.Error("error listing models", "error", err)
		return nil, StatusErrorf(http.StatusInternalServerError, "error retrieving model records")
	}

	return convertModels(models), nil
}

func (s *NerService) GetModel(r *http.Request) (any, error) {
	modelId, err := URLParamUUID(r, "model_id")
	if err != nil {
		return nil, err
	}

	model, err := database.GetModel(r.Context(), s.db, modelId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, StatusErrorf(http.StatusNotFound, "model not found")
		}
		slog.Error("error getting model", "error", err)
		return nil, StatusErrorf(http.StatusInternalServerError, "error retrieving model record")
	}

	return convertModel(model), nil
}

func (s *NerService) ListEvaluations(r *http.Request) (any, error) {
	params, err := DecodeQuery[api.ListEvaluationsParams](r)
	if err != nil {
		return nil, err
	}

	var modelId *uuid.UUID
	if params.ModelId != "" {
		id, err := uuid.Parse(params.ModelId)
		if err != nil {
			return nil, StatusErrorf(http.StatusBadRequest, "invalid model_id '%s' provided: %w", params.ModelId, err)
		}
		modelId = &id
	}

	if params.Limit < 0 || params.Limit > maxEvaluationsLimit {
		return nil, StatusErrorf(http.StatusBadRequest, "limit must be between 0 and %d", maxEvaluationsLimit)
	}

	evals, err := database.ListEvaluations(r.Context(), s.db, modelId, params.Limit)
	if err != nil {
		slog.Error("error listing evaluations", "error", err)
		return nil, StatusErrorf(http.StatusInternalServerError, "error retrieving evaluation records")
	}

	// reports are only returned for single evaluations
	results := make([]api.Evaluation, 0, len(evals))
	for _, e := range evals {
		results = append(results, convertEvaluationSummary(e))
	}
	return results, nil
}

func (s *NerService) GetEvaluation(r *http.Request) (any, error) {
	evalId, err := URLParamUUID(r, "evaluation_id")
	if err != nil {
		return nil, err
	}

	eval, err := database.GetEvaluation(r.Context(), s.db, evalId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, StatusErrorf(http.StatusNotFound, "evaluation not found")
		}
		slog.Error("error getting evaluation", "error", err)
		return nil, StatusErrorf(http.StatusInternalServerError, "error retrieving evaluation record")
	}

	result, err := convertEvaluation(eval)
	if err != nil {
		slog.Error("error decoding evaluation reports", "evaluation_id", evalId, "error", err)
		return nil, StatusErrorf(http.StatusInternalServerError, "error decoding evaluation reports")
	}
	return result, nil
}
