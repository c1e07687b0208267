package hcloud

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/fogprov/internal/compute"
)

// buildServerCreateOpts resolves all referenced resources and builds server creation options.
func (c *RealClient) buildServerCreateOpts(ctx context.Context, name string, bo compute.BootstrapOptions) (hcloud.ServerCreateOpts, error) {
	if bo.ServerType == "" {
		return hcloud.ServerCreateOpts{}, errors.New("bootstrap option server_type is required")
	}
	if bo.Image == "" {
		return hcloud.ServerCreateOpts{}, errors.New("bootstrap option image is required")
	}

	serverTypeObj, _, err := c.client.ServerType.Get(ctx, bo.ServerType)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get server type: %w", err)
	}
	if serverTypeObj == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("server type not found: %s", bo.ServerType)
	}

	imageObj, err := c.resolveImage(ctx, bo.Image, serverTypeObj)
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	sshKeyObjs, err := c.resolveSSHKeys(ctx, bo.SSHKeys)
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	locObj, err := c.resolveLocation(ctx, bo.Location)
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	return hcloud.ServerCreateOpts{
		Name:             name,
		ServerType:       serverTypeObj,
		Image:            imageObj,
		SSHKeys:          sshKeyObjs,
		Labels:           bo.Labels,
		UserData:         bo.UserData,
		Location:         locObj,
		StartAfterCreate: hcloud.Ptr(bo.ShouldStart()),
	}, nil
}

// resolveImage resolves an image by ID, or by name for the server type's architecture.
func (c *RealClient) resolveImage(ctx context.Context, image string, serverTypeObj *hcloud.ServerType) (*hcloud.Image, error) {
	var (
		imageObj *hcloud.Image
		err      error
	)
	if id, parseErr := strconv.ParseInt(image, 10, 64); parseErr == nil {
		imageObj, _, err = c.client.Image.GetByID(ctx, id)
	} else {
		imageObj, _, err = c.client.Image.GetForArchitecture(ctx, image, serverTypeObj.Architecture)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	if imageObj == nil {
		return nil, fmt.Errorf("image not found: %s (%s)", image, serverTypeObj.Architecture)
	}
	return imageObj, nil
}

// resolveSSHKeys resolves SSH key names/IDs to SSH key objects.
func (c *RealClient) resolveSSHKeys(ctx context.Context, sshKeys []string) ([]*hcloud.SSHKey, error) {
	var sshKeyObjs []*hcloud.SSHKey
	for _, key := range sshKeys {
		keyObj, _, err := c.client.SSHKey.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to get ssh key %s: %w", key, err)
		}
		if keyObj == nil {
			return nil, fmt.Errorf("ssh key not found: %s", key)
		}
		sshKeyObjs = append(sshKeyObjs, keyObj)
	}
	return sshKeyObjs, nil
}

// resolveLocation resolves a location name to a location object.
func (c *RealClient) resolveLocation(ctx context.Context, location string) (*hcloud.Location, error) {
	if location == "" {
		return nil, nil
	}

	locObj, _, err := c.client.Location.Get(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to get location %s: %w", location, err)
	}
	if locObj == nil {
		return nil, fmt.Errorf("location not found: %s", location)
	}
	return locObj, nil
}

func (c *RealClient) toInstance(s *hcloud.Server) *compute.Instance {
	return &compute.Instance{
		ID:         strconv.FormatInt(s.ID, 10),
		Name:       s.Name,
		PublicIP:   ServerIP(s),
		Status:     string(s.Status),
		Username:   c.username,
		PrivateKey: c.privateKey,
		Labels:     s.Labels,
	}
}

// ServerIP returns the server's public IPv4 address, falling back to the
// host address of its IPv6 network.
func ServerIP(s *hcloud.Server) string {
	if s == nil {
		return ""
	}
	if ip := s.PublicNet.IPv4.IP; ip != nil && !ip.IsUnspecified() {
		return ip.String()
	}
	if ip := s.PublicNet.IPv6.IP; ip != nil && !ip.IsUnspecified() {
		// Hetzner assigns a /64 and configures ::1 within it on the host.
		host := make(net.IP, len(ip))
		copy(host, ip)
		host[len(host)-1] = 1
		return host.String()
	}
	return ""
}
