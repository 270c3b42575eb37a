package shared

import (
	"net/rpc"

	"ner-pipeline/internal/core/types"
)

// RPCClient forwards Tagger calls to the plugin process.
type RPCClient struct{ client *rpc.Client }

func (m *RPCClient) Fit(req FitRequest) error {
	var ok bool
	return m.client.Call("Plugin.Fit", req, &ok)
}

func (m *RPCClient) Predict(sentences [][]string) ([][]string, error) {
	var resp [][]string
	err := m.client.Call("Plugin.Predict", sentences, &resp)
	return resp, err
}

func (m *RPCClient) Save(paths types.ModelPaths) error {
	var ok bool
	return m.client.Call("Plugin.Save", paths, &ok)
}

func (m *RPCClient) Load(paths types.ModelPaths) error {
	var ok bool
	return m.client.Call("Plugin.Load", paths, &ok)
}

// RPCServer exposes a Tagger as net/rpc methods inside the plugin process.
type RPCServer struct {
	Impl Tagger
}

func (m *RPCServer) Fit(req FitRequest, ok *bool) error {
	err := m.Impl.Fit(req)
	*ok = err == nil
	return err
}

func (m *RPCServer) Predict(sentences [][]string, resp *[][]string) error {
	v, err := m.Impl.Predict(sentences)
	*resp = v
	return err
}

func (m *RPCServer) Save(paths types.ModelPaths, ok *bool) error {
	err := m.Impl.Save(paths)
	*ok = err == nil
	return err
}

func (m *RPCServer) Load(paths types.ModelPaths, ok *bool) error {
	err := m.Impl.Load(paths)
	*ok = err == nil
	return err
}
