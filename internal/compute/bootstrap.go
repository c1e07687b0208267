package compute

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// BootstrapOptions are the create parameters taken from a node's
// provisioner_options.bootstrap_options.
type BootstrapOptions struct {
	ServerType string            `yaml:"server_type"`
	Image      string            `yaml:"image"`
	Location   string            `yaml:"location"`
	SSHKeys    []string          `yaml:"ssh_keys"`
	Labels     map[string]string `yaml:"labels"`
	UserData   string            `yaml:"user_data"`
	// Name overrides the instance name, which defaults to the node name.
	Name string `yaml:"name"`
	// StartAfterCreate defaults to true when unset.
	StartAfterCreate *bool `yaml:"start_after_create"`
}

// DecodeBootstrapOptions converts the free-form map stored on a node into
// BootstrapOptions. Unknown keys are rejected.
func DecodeBootstrapOptions(raw map[string]any) (BootstrapOptions, error) {
	var opts BootstrapOptions
	if len(raw) == 0 {
		return opts, nil
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return opts, fmt.Errorf("failed to encode bootstrap options: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil {
		return opts, fmt.Errorf("invalid bootstrap options: %w", err)
	}
	return opts, nil
}

// ShouldStart reports whether the instance should be powered on after create.
func (o BootstrapOptions) ShouldStart() bool {
	return o.StartAfterCreate == nil || *o.StartAfterCreate
}
