package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadFile reads, defaults and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses, defaults and validates a configuration document.
// ${VAR} references are expanded from the environment before parsing.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverHetzner
	}
	if c.ComputeOptions == nil {
		c.ComputeOptions = make(map[string]any)
	}
	if _, ok := c.ComputeOptions["token"]; !ok {
		if token := os.Getenv("HCLOUD_TOKEN"); token != "" {
			c.ComputeOptions["token"] = token
		}
	}
	if c.NodeStore.Type == "" {
		c.NodeStore.Type = StoreFile
	}
	if c.NodeStore.Type == StoreFile && c.NodeStore.Path == "" {
		c.NodeStore.Path = "nodes"
	}
	if c.NodeStore.Type == StoreS3 && c.NodeStore.Region == "" {
		c.NodeStore.Region = "us-east-1"
	}
}

// FindConfigFile looks for fogprov.yaml in the working directory and its parents.
func FindConfigFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := cwd
	for {
		path := filepath.Join(dir, DefaultConfigFilename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("config file %s not found", DefaultConfigFilename)
}
