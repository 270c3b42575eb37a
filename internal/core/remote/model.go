package remote

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"ner-pipeline/internal/core/types"
	"ner-pipeline/pkg/api"
	"ner-pipeline/plugin/shared"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

// Model runs the tagger in a separate plugin process. Calls are serialized because the
// plugin connection handles one request at a time per model.
type Model struct {
	mu     sync.Mutex
	client *plugin.Client
	tagger shared.Tagger
}

// Start launches the plugin executable and connects to its tagger.
func Start(executable string) (*Model, error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  shared.Handshake,
		Plugins:          shared.PluginMap,
		Cmd:              exec.Command(executable),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:   "tagger-plugin",
			Output: os.Stderr,
			Level:  hclog.Info,
		}),
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("error establishing RPC connection: %w", err)
	}

	raw, err := rpcClient.Dispense(shared.PluginName)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("error dispensing '%s': %w", shared.PluginName, err)
	}

	tagger, ok := raw.(shared.Tagger)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("dispensed interface '%s' is not of expected type shared.Tagger (actual type: %T)", shared.PluginName, raw)
	}

	return &Model{client: client, tagger: tagger}, nil
}

// Wrap adapts an already connected tagger. Release will not kill any process.
func Wrap(tagger shared.Tagger) *Model {
	return &Model{tagger: tagger}
}

func (m *Model) Fit(train, valid []api.Sample, opts types.FitOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tagger == nil {
		return fmt.Errorf("plugin model has been released")
	}
	if err := m.tagger.Fit(shared.FitRequest{Train: train, Valid: valid, Options: opts}); err != nil {
		return fmt.Errorf("plugin fit failed: %w", err)
	}
	return nil
}

func (m *Model) Predict(sentences [][]string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tagger == nil {
		return nil, fmt.Errorf("plugin model has been released")
	}
	labels, err := m.tagger.Predict(sentences)
	if err != nil {
		return nil, fmt.Errorf("plugin predict failed: %w", err)
	}
	if len(labels) != len(sentences) {
		return nil, fmt.Errorf("plugin returned %d label sequences for %d sentences", len(labels), len(sentences))
	}
	return labels, nil
}

func (m *Model) Save(paths types.ModelPaths) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tagger == nil {
		return fmt.Errorf("plugin model has been released")
	}
	if err := m.tagger.Save(paths); err != nil {
		return fmt.Errorf("plugin save failed: %w", err)
	}
	return nil
}

func (m *Model) Load(paths types.ModelPaths) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tagger == nil {
		return fmt.Errorf("plugin model has been released")
	}
	if err := m.tagger.Load(paths); err != nil {
		return fmt.Errorf("plugin load failed: %w", err)
	}
	return nil
}

func (m *Model) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		m.client.Kill()
		m.client = nil
	}
	m.tagger = nil
}
