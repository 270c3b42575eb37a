package api

import (
	"encoding/json"
	"fmt"

	"ner-pipeline/internal/database"
	"ner-pipeline/pkg/api"

	"gorm.io/datatypes"
)

func convertModel(m database.Model) api.Model {
	model := api.Model{
		Id:           m.Id,
		Name:         m.Name,
		Type:         m.Type,
		Status:       m.Status,
		Dir:          m.Dir,
		Epochs:       m.Epochs,
		CreationTime: m.CreationTime,
	}

	if m.CompletionTime.Valid {
		model.CompletionTime = &m.CompletionTime.Time
	}

	for _, t := range m.Tags {
		model.Tags = append(model.Tags, t.Tag)
	}

	return model
}

func convertModels(ms []database.Model) []api.Model {
	models := make([]api.Model, 0, len(ms))
	for _, m := range ms {
		models = append(models, convertModel(m))
	}
	return models
}

func convertEvaluationSummary(e database.Evaluation) api.Evaluation {
	return api.Evaluation{
		Id:           e.Id,
		ModelId:      e.ModelId,
		DataDir:      e.DataDir,
		Sentences:    e.Sentences,
		Tokens:       e.Tokens,
		CreationTime: e.CreationTime,
	}
}

func convertReport(data datatypes.JSON) (*api.Report, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var report *api.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("invalid report json: %w", err)
	}
	return report, nil
}

func convertEvaluation(e database.Evaluation) (api.Evaluation, error) {
	eval := convertEvaluationSummary(e)

	var err error
	if eval.Full, err = convertReport(e.FullReport); err != nil {
		return api.Evaluation{}, err
	}
	if eval.Entity, err = convertReport(e.EntityReport); err != nil {
		return api.Evaluation{}, err
	}
	if eval.Coarse, err = convertReport(e.CoarseReport); err != nil {
		return api.Evaluation{}, err
	}
	return eval, nil
}
