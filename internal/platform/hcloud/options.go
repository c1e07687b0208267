package hcloud

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderName is the provider segment of the provisioner URL.
const ProviderName = "Hetzner"

// DefaultUsername is used for instance logins when none is configured.
const DefaultUsername = "root"

// Options are the driver's connection options.
type Options struct {
	Token    string `yaml:"token"`
	Endpoint string `yaml:"endpoint"`
	// PollInterval is the delay between action status polls.
	PollInterval time.Duration `yaml:"poll_interval"`
	// Project names the Hetzner project and becomes the provisioner URL
	// fragment. Without it, a hash of the token is used.
	Project        string `yaml:"project"`
	PrivateKeyPath string `yaml:"private_key_path"`
	Username       string `yaml:"username"`
}

// ParseOptions decodes the compute_options map. Unknown keys are rejected.
func ParseOptions(raw map[string]any) (Options, error) {
	var opts Options

	data, err := yaml.Marshal(raw)
	if err != nil {
		return opts, fmt.Errorf("failed to encode compute options: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return opts, fmt.Errorf("invalid compute options: %w", err)
	}

	if opts.Token == "" {
		return opts, errors.New("compute option token is required")
	}
	if opts.PrivateKeyPath == "" {
		return opts, errors.New("compute option private_key_path is required")
	}
	if opts.Username == "" {
		opts.Username = DefaultUsername
	}
	opts.PrivateKeyPath = expandHome(opts.PrivateKeyPath)
	return opts, nil
}

// ProvisionerURL returns the identity recorded on nodes acquired with opts.
func ProvisionerURL(opts Options) string {
	fragment := opts.Project
	if fragment == "" {
		sum := sha256.Sum256([]byte(opts.Token))
		fragment = hex.EncodeToString(sum[:])[:12]
	}
	return fmt.Sprintf("fog:%s:%s", ProviderName, fragment)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
