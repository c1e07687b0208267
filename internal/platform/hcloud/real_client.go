package hcloud

import (
	"fmt"
	"os"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/fogprov/internal/compute"
	"github.com/imamik/fogprov/internal/config"
)

// RealClient implements compute.Client using the Hetzner Cloud API.
type RealClient struct {
	client     *hcloud.Client
	timeouts   *config.Timeouts
	username   string
	privateKey []byte
}

var _ compute.Client = (*RealClient)(nil)

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithTimeouts sets custom timeouts for the client.
func WithTimeouts(t *config.Timeouts) ClientOption {
	return func(c *RealClient) {
		c.timeouts = t
	}
}

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) ClientOption {
	return func(c *RealClient) {
		c.client = hc
	}
}

// WithPrivateKey sets the login key handed out with every instance,
// overriding Options.PrivateKeyPath.
func WithPrivateKey(pem []byte) ClientOption {
	return func(c *RealClient) {
		c.privateKey = pem
	}
}

// NewRealClient creates a RealClient from driver options.
func NewRealClient(opts Options, clientOpts ...ClientOption) (*RealClient, error) {
	hcOpts := []hcloud.ClientOption{
		hcloud.WithToken(opts.Token),
		hcloud.WithApplication("fogprov", ""),
	}
	if opts.Endpoint != "" {
		hcOpts = append(hcOpts, hcloud.WithEndpoint(opts.Endpoint))
	}
	if opts.PollInterval > 0 {
		hcOpts = append(hcOpts, hcloud.WithPollOpts(hcloud.PollOpts{
			BackoffFunc: hcloud.ConstantBackoff(opts.PollInterval),
		}))
	}

	c := &RealClient{
		client:   hcloud.NewClient(hcOpts...),
		timeouts: config.LoadTimeouts(),
		username: opts.Username,
	}
	if c.username == "" {
		c.username = DefaultUsername
	}
	for _, opt := range clientOpts {
		opt(c)
	}

	if c.privateKey == nil && opts.PrivateKeyPath != "" {
		// #nosec G304
		key, err := os.ReadFile(opts.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		c.privateKey = key
	}
	return c, nil
}

// HCloudClient returns the underlying hcloud.Client.
func (c *RealClient) HCloudClient() *hcloud.Client {
	return c.client
}
