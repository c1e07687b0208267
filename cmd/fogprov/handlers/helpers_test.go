package handlers

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/fogprov/internal/compute"
	"github.com/imamik/fogprov/internal/config"
	"github.com/imamik/fogprov/internal/node"
	"github.com/imamik/fogprov/internal/transport"
	"github.com/imamik/fogprov/internal/transport/transporttest"
)

const testURL = "fog:Hetzner:acme"

type testEnv struct {
	cfg       *config.Config
	client    *compute.MockClient
	transport *transporttest.Fake
	store     node.Store
	out       *bytes.Buffer
	global    Global
}

// withTestEnv swaps the factory variables for in-memory collaborators and a
// file store under a temporary directory.
func withTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	te := &testEnv{
		cfg: &config.Config{
			Driver:    config.DriverHetzner,
			NodeStore: config.NodeStoreConfig{Type: config.StoreFile, Path: filepath.Join(dir, "nodes")},
			NodeDefaults: config.NodeDefaults{
				BootstrapOptions: map[string]any{"server_type": "cx22", "image": "ubuntu-24.04"},
			},
		},
		client:    &compute.MockClient{},
		transport: transporttest.New(),
		out:       &bytes.Buffer{},
		global:    Global{ConfigPath: filepath.Join(dir, "fogprov.yaml")},
	}

	store, err := node.NewFileStore(te.cfg.NodeStore.Path)
	require.NoError(t, err)
	te.store = store

	origLoad := loadConfigFile
	origStore := openNodeStore
	origClient := newComputeClient
	origTransport := newTransport
	origStdout := stdout
	origInteractive := isInteractive
	origConfirm := confirmDestroy
	t.Cleanup(func() {
		loadConfigFile = origLoad
		openNodeStore = origStore
		newComputeClient = origClient
		newTransport = origTransport
		stdout = origStdout
		isInteractive = origInteractive
		confirmDestroy = origConfirm
	})

	loadConfigFile = func(string) (*config.Config, error) { return te.cfg, nil }
	openNodeStore = func(context.Context, config.NodeStoreConfig) (node.Store, error) { return te.store, nil }
	newComputeClient = func(*config.Config, *config.Timeouts) (compute.Client, string, error) {
		return te.client, testURL, nil
	}
	newTransport = func(transport.Kind, *transport.Config) (transport.Transport, error) {
		return te.transport, nil
	}
	stdout = te.out
	isInteractive = func() bool { return false }

	return te
}

func running(id string) *compute.Instance {
	return &compute.Instance{
		ID:         id,
		PublicIP:   "192.0.2.10",
		Status:     compute.StatusRunning,
		Username:   "root",
		PrivateKey: []byte("key"),
	}
}

// seedNode stores a node that was acquired earlier.
func (te *testEnv) seedNode(t *testing.T, name, id string) {
	t.Helper()
	n := node.New(name)
	n.SetOutput(testURL, id)
	require.NoError(t, te.store.Save(context.Background(), n))
}
