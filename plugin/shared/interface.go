package shared

import (
	"net/rpc"

	"ner-pipeline/internal/core/types"
	"ner-pipeline/pkg/api"

	"github.com/hashicorp/go-plugin"
)

const PluginName = "tagger"

// Handshake must match between cmd/tagger-plugin and the host.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "NER_PIPELINE_PLUGIN",
	MagicCookieValue: "sequence-tagger",
}

var PluginMap = map[string]plugin.Plugin{
	PluginName: &TaggerPlugin{},
}

type FitRequest struct {
	Train   []api.Sample
	Valid   []api.Sample
	Options types.FitOptions
}

// Tagger is the interface exposed by a tagger plugin.
type Tagger interface {
	Fit(req FitRequest) error
	Predict(sentences [][]string) ([][]string, error)
	Save(paths types.ModelPaths) error
	Load(paths types.ModelPaths) error
}

// TaggerPlugin is the plugin.Plugin implementation serving a Tagger over net/rpc.
type TaggerPlugin struct {
	Impl Tagger
}

func (p *TaggerPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RPCServer{Impl: p.Impl}, nil
}

func (*TaggerPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RPCClient{client: c}, nil
}
