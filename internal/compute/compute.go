package compute

import (
	"context"
	"errors"
)

// StatusRunning is the only status for which an instance is ready.
const StatusRunning = "running"

// ErrInstanceNotFound is returned when the provider has no instance with the
// requested identifier.
var ErrInstanceNotFound = errors.New("instance not found")

// Client manages the lifecycle of compute instances.
type Client interface {
	CreateInstance(ctx context.Context, name string, opts BootstrapOptions) (*Instance, error)
	GetInstance(ctx context.Context, id string) (*Instance, error)
	StartInstance(ctx context.Context, id string) error
	DestroyInstance(ctx context.Context, id string) error
	// ListInstances returns instances carrying every given label.
	ListInstances(ctx context.Context, labels map[string]string) ([]*Instance, error)
}

// Instance is a provider instance as seen at the time of the call.
type Instance struct {
	ID       string
	Name     string
	PublicIP string
	Status   string
	// Username and PrivateKey are the credentials for the instance's transport.
	Username   string
	PrivateKey []byte
	Labels     map[string]string
}

// Ready reports whether the instance is running.
func (i *Instance) Ready() bool {
	return i != nil && i.Status == StatusRunning
}
