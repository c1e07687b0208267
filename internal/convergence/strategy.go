package convergence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/imamik/fogprov/internal/machine"
	"github.com/imamik/fogprov/internal/node"
)

// Factory builds the strategy for a node from defaults plus the node's
// convergence_options.
type Factory struct {
	defaults Options
}

// NewFactory returns a Factory with the given defaults.
func NewFactory(defaults Options) *Factory {
	return &Factory{defaults: defaults}
}

// Unix returns an InstallScript strategy for n.
func (f *Factory) Unix(n *node.Node) (machine.Strategy, error) {
	opts, err := f.defaults.WithOverrides(n.Options.ConvergenceOptions)
	if err != nil {
		return nil, err
	}
	return &InstallScript{Options: opts}, nil
}

// Windows returns an InstallMSI strategy for n.
func (f *Factory) Windows(n *node.Node) (machine.Strategy, error) {
	opts, err := f.defaults.WithOverrides(n.Options.ConvergenceOptions)
	if err != nil {
		return nil, err
	}
	return &InstallMSI{Options: opts}, nil
}

// NoOp does nothing. Use it when the caller bootstraps the agent itself.
type NoOp struct{}

var _ machine.Strategy = NoOp{}

func (NoOp) Setup(context.Context, machine.Machine) error    { return nil }
func (NoOp) Converge(context.Context, machine.Machine) error { return nil }
func (NoOp) Cleanup(context.Context, *node.Node) error       { return nil }

// KeyPath returns where the node's client key is cached locally, or "" when
// no key directory is configured.
func (o Options) KeyPath(n *node.Node) string {
	if o.KeyDir == "" {
		return ""
	}
	return filepath.Join(expandHome(o.KeyDir), n.Name+".pem")
}

func removeKey(o Options, n *node.Node) error {
	path := o.KeyPath(n)
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove client key %s: %w", path, err)
	}
	return nil
}

// installed runs the check command and reports whether it succeeded.
func installed(ctx context.Context, m machine.Machine, check string) (bool, error) {
	if check == "" {
		return false, nil
	}
	res, err := m.Execute(ctx, check)
	if err != nil {
		return false, err
	}
	return res.ExitStatus == 0, nil
}

func runAgent(ctx context.Context, m machine.Machine, cmd string) error {
	if cmd == "" {
		return errors.New("no agent command configured")
	}
	res, err := m.Execute(ctx, cmd)
	if err != nil {
		return err
	}
	return res.Err()
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
