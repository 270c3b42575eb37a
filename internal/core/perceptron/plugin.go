package perceptron

import (
	"ner-pipeline/internal/core/types"
	"ner-pipeline/plugin/shared"
)

// PluginTagger serves a perceptron Tagger as a tagger plugin.
type PluginTagger struct {
	tagger *Tagger
}

var _ shared.Tagger = (*PluginTagger)(nil)

func NewPluginTagger() *PluginTagger {
	return &PluginTagger{tagger: New()}
}

func (p *PluginTagger) Fit(req shared.FitRequest) error {
	return p.tagger.Fit(req.Train, req.Valid, req.Options)
}

func (p *PluginTagger) Predict(sentences [][]string) ([][]string, error) {
	return p.tagger.Predict(sentences)
}

func (p *PluginTagger) Save(paths types.ModelPaths) error {
	return p.tagger.Save(paths)
}

func (p *PluginTagger) Load(paths types.ModelPaths) error {
	t, err := Load(paths)
	if err != nil {
		return err
	}
	p.tagger = t
	return nil
}
