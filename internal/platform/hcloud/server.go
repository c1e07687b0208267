package hcloud

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/fogprov/internal/compute"
	"github.com/imamik/fogprov/internal/util/labels"
	"github.com/imamik/fogprov/internal/util/retry"
)

// CreateInstance creates a server and waits until it is up.
func (c *RealClient) CreateInstance(ctx context.Context, name string, bo compute.BootstrapOptions) (*compute.Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.InstanceCreate)
	defer cancel()

	if bo.Name != "" {
		name = bo.Name
	}

	opts, err := c.buildServerCreateOpts(ctx, name, bo)
	if err != nil {
		return nil, err
	}

	result, _, err := c.client.Server.Create(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create server %s: %w", name, err)
	}

	if err := c.waitFor(ctx, append([]*hcloud.Action{result.Action}, result.NextActions...)...); err != nil {
		return nil, fmt.Errorf("failed to wait for server %s creation: %w", name, err)
	}

	// The create response predates the actions; refresh for status and IPs.
	server, _, err := c.client.Server.GetByID(ctx, result.Server.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh server %s: %w", name, err)
	}
	if server == nil {
		server = result.Server
	}
	return c.toInstance(server), nil
}

// GetInstance returns the server with the given id.
func (c *RealClient) GetInstance(ctx context.Context, id string) (*compute.Instance, error) {
	serverID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.APICall)
	defer cancel()

	server, _, err := c.client.Server.GetByID(ctx, serverID)
	if err != nil {
		return nil, instanceError("get", id, err)
	}
	if server == nil {
		return nil, fmt.Errorf("failed to get instance %s: %w", id, compute.ErrInstanceNotFound)
	}
	return c.toInstance(server), nil
}

// StartInstance powers the server on and waits for the action.
func (c *RealClient) StartInstance(ctx context.Context, id string) error {
	serverID, err := parseID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.InstanceStart)
	defer cancel()

	action, _, err := c.client.Server.Poweron(ctx, &hcloud.Server{ID: serverID})
	if err != nil {
		return instanceError("start", id, err)
	}
	if err := c.waitFor(ctx, action); err != nil {
		return fmt.Errorf("failed to wait for instance %s power on: %w", id, err)
	}
	return nil
}

// DestroyInstance deletes the server and waits for the action. Deletion is
// retried while the server is locked by another action.
func (c *RealClient) DestroyInstance(ctx context.Context, id string) error {
	serverID, err := parseID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.InstanceDelete)
	defer cancel()

	var action *hcloud.Action
	err = retry.Do(ctx, func(ctx context.Context) error {
		result, _, err := c.client.Server.DeleteWithResult(ctx, &hcloud.Server{ID: serverID})
		if err != nil {
			if isResourceLocked(err) {
				return err
			}
			return retry.Fatal(err)
		}
		action = result.Action
		return nil
	},
		retry.WithMaxAttempts(c.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
	if err != nil {
		return instanceError("destroy", id, err)
	}

	if err := c.waitFor(ctx, action); err != nil {
		return fmt.Errorf("failed to wait for instance %s deletion: %w", id, err)
	}
	return nil
}

// ListInstances returns all servers carrying every given label.
func (c *RealClient) ListInstances(ctx context.Context, lbls map[string]string) ([]*compute.Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.APICall)
	defer cancel()

	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labels.Selector(lbls)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}

	instances := make([]*compute.Instance, 0, len(servers))
	for _, s := range servers {
		instances = append(instances, c.toInstance(s))
	}
	return instances, nil
}

// waitFor blocks until every non-nil action has finished.
func (c *RealClient) waitFor(ctx context.Context, actions ...*hcloud.Action) error {
	pending := make([]*hcloud.Action, 0, len(actions))
	for _, a := range actions {
		if a != nil {
			pending = append(pending, a)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	return c.client.Action.WaitFor(ctx, pending...)
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid server id: %q", id)
	}
	return n, nil
}
