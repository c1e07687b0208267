package config

import (
	"errors"
	"fmt"
)

// Validate reports every problem found in the configuration.
func (c *Config) Validate() error {
	var errs []error

	switch c.Driver {
	case DriverHetzner:
		if token, _ := c.ComputeOptions["token"].(string); token == "" {
			errs = append(errs, fmt.Errorf("compute_options.token is required (or set HCLOUD_TOKEN)"))
		}
		if key, _ := c.ComputeOptions["private_key_path"].(string); key == "" {
			errs = append(errs, fmt.Errorf("compute_options.private_key_path is required to log in to instances"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported driver %q", c.Driver))
	}

	switch c.NodeStore.Type {
	case StoreFile:
		if c.NodeStore.Path == "" {
			errs = append(errs, fmt.Errorf("node_store.path is required for the file store"))
		}
	case StoreS3:
		if c.NodeStore.Bucket == "" {
			errs = append(errs, fmt.Errorf("node_store.bucket is required for the s3 store"))
		}
		if (c.NodeStore.AccessKey == "") != (c.NodeStore.SecretKey == "") {
			errs = append(errs, fmt.Errorf("node_store.access_key and node_store.secret_key must be set together"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported node_store.type %q", c.NodeStore.Type))
	}

	return errors.Join(errs...)
}
