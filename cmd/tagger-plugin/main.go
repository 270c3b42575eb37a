package main

import (
	"os"

	"ner-pipeline/internal/core/perceptron"
	"ner-pipeline/plugin/shared"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "tagger-plugin",
		Level:      hclog.Info,
		Output:     os.Stderr,
		JSONFormat: true,
	})

	logger.Info("serving perceptron tagger")

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: shared.Handshake,
		Plugins: map[string]plugin.Plugin{
			shared.PluginName: &shared.TaggerPlugin{Impl: perceptron.NewPluginTagger()},
		},
		Logger: logger,
	})
}
