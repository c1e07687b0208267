package convergence

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/imamik/fogprov/internal/config"
)

// Options configure a strategy. The yaml tags match the node's
// provisioner_options.convergence_options keys.
type Options struct {
	InstallURL        string   `yaml:"install_url"`
	WindowsInstallURL string   `yaml:"windows_install_url"`
	InstallArgs       []string `yaml:"install_args"`
	CheckCommand      string   `yaml:"check_command"`
	AgentCommand      string   `yaml:"agent_command"`
	KeyDir            string   `yaml:"key_dir"`
}

// OptionsFromConfig converts the config file section.
func OptionsFromConfig(cfg config.ConvergenceConfig) Options {
	return Options{
		InstallURL:        cfg.InstallURL,
		WindowsInstallURL: cfg.WindowsInstallURL,
		InstallArgs:       cfg.InstallArgs,
		CheckCommand:      cfg.CheckCommand,
		AgentCommand:      cfg.AgentCommand,
		KeyDir:            cfg.KeyDir,
	}
}

// WithOverrides returns a copy of o with the keys present in raw replaced.
// Unknown keys are rejected.
func (o Options) WithOverrides(raw map[string]any) (Options, error) {
	if len(raw) == 0 {
		return o, nil
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return o, fmt.Errorf("failed to encode convergence options: %w", err)
	}

	merged := o
	merged.InstallArgs = append([]string(nil), o.InstallArgs...)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&merged); err != nil {
		return o, fmt.Errorf("invalid convergence options: %w", err)
	}
	return merged, nil
}
