package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/imamik/fogprov/internal/compute"
	"github.com/imamik/fogprov/internal/config"
	"github.com/imamik/fogprov/internal/convergence"
	"github.com/imamik/fogprov/internal/node"
	"github.com/imamik/fogprov/internal/platform/hcloud"
	"github.com/imamik/fogprov/internal/provisioner"
	"github.com/imamik/fogprov/internal/provisioning"
	"github.com/imamik/fogprov/internal/transport"
)

// Global holds the flags shared by all commands.
type Global struct {
	ConfigPath  string
	MetricsFile string
}

// Factory function variables - can be replaced in tests.
var (
	findConfigFile = config.FindConfigFile
	loadConfigFile = config.LoadFile
	openNodeStore  = node.OpenStore
	loadTimeouts   = config.LoadTimeouts

	// newComputeClient builds the configured compute driver and returns it
	// together with the provisioner URL it stamps on nodes.
	newComputeClient = func(cfg *config.Config, timeouts *config.Timeouts) (compute.Client, string, error) {
		if cfg.Driver != config.DriverHetzner {
			return nil, "", fmt.Errorf("unsupported driver %q", cfg.Driver)
		}
		opts, err := hcloud.ParseOptions(cfg.ComputeOptions)
		if err != nil {
			return nil, "", err
		}
		client, err := hcloud.NewRealClient(opts, hcloud.WithTimeouts(timeouts))
		if err != nil {
			return nil, "", err
		}
		return client, hcloud.ProvisionerURL(opts), nil
	}

	newTransport provisioner.TransportFactory = transport.New

	// stdout receives command output. Progress goes through the log package.
	stdout io.Writer = os.Stdout
)

// environment bundles what every node command needs.
type environment struct {
	cfg         *config.Config
	store       node.Store
	provisioner *provisioner.Provisioner
	metrics     *provisioning.Metrics
	metricsFile string
}

func setup(ctx context.Context, g Global) (*environment, error) {
	cfg, err := loadConfig(g.ConfigPath)
	if err != nil {
		return nil, err
	}

	store, err := openNodeStore(ctx, cfg.NodeStore)
	if err != nil {
		return nil, fmt.Errorf("failed to open node store: %w", err)
	}

	env := &environment{
		cfg:         cfg,
		store:       store,
		metricsFile: cfg.MetricsFile,
	}
	if g.MetricsFile != "" {
		env.metricsFile = g.MetricsFile
	}
	if env.metricsFile != "" {
		env.metrics = provisioning.NewMetrics()
	}

	timeouts := loadTimeouts()
	client, url, err := newComputeClient(cfg, timeouts)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute client: %w", err)
	}

	env.provisioner = provisioner.New(client, url,
		provisioner.WithObserver(provisioning.NewConsoleObserver()),
		provisioner.WithMetrics(env.metrics),
		provisioner.WithTransportFactory(newTransport),
		provisioner.WithStrategies(convergence.NewFactory(convergence.OptionsFromConfig(cfg.Convergence))),
		provisioner.WithTimeouts(timeouts),
	)
	return env, nil
}

// finish writes the metrics file, if one is configured.
func (e *environment) finish() {
	if e == nil || e.metricsFile == "" {
		return
	}
	if err := e.metrics.WriteTextfile(e.metricsFile); err != nil {
		log.Printf("Warning: failed to write metrics to %s: %v", e.metricsFile, err)
	}
}

// loadNode returns the stored record, or a fresh one seeded from
// node_defaults when create is set.
func (e *environment) loadNode(ctx context.Context, name string, create bool) (*node.Node, error) {
	n, err := e.store.Load(ctx, name)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, node.ErrNotFound) || !create {
		return nil, fmt.Errorf("failed to load node %s: %w", name, err)
	}

	if err := node.ValidateName(name); err != nil {
		return nil, err
	}
	n = node.New(name)
	d := e.cfg.NodeDefaults
	n.Options.IsWindows = d.IsWindows
	n.Options.SSHUsername = d.SSHUsername
	if len(d.BootstrapOptions) > 0 {
		n.Options.BootstrapOptions = make(map[string]any, len(d.BootstrapOptions))
		for k, v := range d.BootstrapOptions {
			n.Options.BootstrapOptions[k] = v
		}
	}
	return n, nil
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		path, err := findConfigFile()
		if err != nil {
			return nil, fmt.Errorf("no config file found: %w", err)
		}
		configPath = path
	}
	return loadConfigFile(configPath)
}
