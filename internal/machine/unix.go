package machine

import (
	"context"
	"fmt"
	"path"

	"github.com/imamik/fogprov/internal/compute"
	"github.com/imamik/fogprov/internal/node"
	"github.com/imamik/fogprov/internal/transport"
)

// UnixConfigDir holds agent files on Unix instances.
const UnixConfigDir = "/etc/fogprov"

// Unix is a Machine running a POSIX shell.
type Unix struct {
	base
}

var _ Machine = (*Unix)(nil)

// NewUnix returns a handle for a Unix instance.
func NewUnix(n *node.Node, inst *compute.Instance, tr transport.Transport, s Strategy) *Unix {
	m := &Unix{base: base{node: n, instance: inst, transport: tr, strategy: s}}
	m.self = m
	return m
}

func (m *Unix) IsWindows() bool   { return false }
func (m *Unix) ConfigDir() string { return UnixConfigDir }

func (m *Unix) Path(elem ...string) string {
	return path.Join(elem...)
}

func (m *Unix) MakeDir(ctx context.Context, dir string) error {
	if err := m.run(ctx, "mkdir -p "+transport.ShellQuote(dir)); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}
