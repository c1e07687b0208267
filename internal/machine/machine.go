package machine

import (
	"context"
	"fmt"
	"os"

	"github.com/imamik/fogprov/internal/compute"
	"github.com/imamik/fogprov/internal/node"
	"github.com/imamik/fogprov/internal/transport"
)

// Machine is a handle on a provisioned node.
type Machine interface {
	Name() string
	Node() *node.Node
	Instance() *compute.Instance
	Transport() transport.Transport
	IsWindows() bool

	// ConfigDir is where fogprov keeps agent files on the instance.
	ConfigDir() string
	// Path joins elements with the instance's path separator.
	Path(elem ...string) string
	// MakeDir creates path and its parents on the instance.
	MakeDir(ctx context.Context, path string) error

	Execute(ctx context.Context, cmd string) (*transport.Result, error)
	Upload(ctx context.Context, content []byte, remotePath string, mode os.FileMode) error
	Download(ctx context.Context, remotePath string) ([]byte, error)

	// Converge installs the agent if needed and runs it once.
	Converge(ctx context.Context) error
	Close() error
}

// Strategy installs and runs the configuration agent on a machine.
type Strategy interface {
	// Setup makes sure the agent is installed.
	Setup(ctx context.Context, m Machine) error
	// Converge runs the agent.
	Converge(ctx context.Context, m Machine) error
	// Cleanup releases local state kept for the node after its instance is gone.
	Cleanup(ctx context.Context, n *node.Node) error
}

// base holds what Unix and Windows machines share. The self field points at
// the outer wrapper so strategies see the OS-specific idioms.
type base struct {
	node      *node.Node
	instance  *compute.Instance
	transport transport.Transport
	strategy  Strategy
	self      Machine
}

func (b *base) Name() string                   { return b.node.Name }
func (b *base) Node() *node.Node               { return b.node }
func (b *base) Instance() *compute.Instance    { return b.instance }
func (b *base) Transport() transport.Transport { return b.transport }

func (b *base) Execute(ctx context.Context, cmd string) (*transport.Result, error) {
	return b.transport.Execute(ctx, cmd)
}

func (b *base) Upload(ctx context.Context, content []byte, remotePath string, mode os.FileMode) error {
	return b.transport.Upload(ctx, content, remotePath, mode)
}

func (b *base) Download(ctx context.Context, remotePath string) ([]byte, error) {
	return b.transport.Download(ctx, remotePath)
}

func (b *base) Converge(ctx context.Context) error {
	if b.strategy == nil {
		return fmt.Errorf("no convergence strategy for node %s", b.node.Name)
	}
	if err := b.strategy.Setup(ctx, b.self); err != nil {
		return fmt.Errorf("failed to set up agent on %s: %w", b.node.Name, err)
	}
	if err := b.strategy.Converge(ctx, b.self); err != nil {
		return fmt.Errorf("failed to converge %s: %w", b.node.Name, err)
	}
	return nil
}

func (b *base) Close() error {
	return b.transport.Close()
}

// run executes cmd and turns a non-zero exit into an error.
func (b *base) run(ctx context.Context, cmd string) error {
	res, err := b.transport.Execute(ctx, cmd)
	if err != nil {
		return err
	}
	return res.Err()
}
