package machine

import (
	"context"
	"fmt"
	"strings"

	"github.com/imamik/fogprov/internal/compute"
	"github.com/imamik/fogprov/internal/node"
	"github.com/imamik/fogprov/internal/transport"
)

// WindowsConfigDir holds agent files on Windows instances.
const WindowsConfigDir = `C:\fogprov`

// Windows is a Machine driven through PowerShell.
type Windows struct {
	base
}

var _ Machine = (*Windows)(nil)

// NewWindows returns a handle for a Windows instance.
func NewWindows(n *node.Node, inst *compute.Instance, tr transport.Transport, s Strategy) *Windows {
	m := &Windows{base: base{node: n, instance: inst, transport: tr, strategy: s}}
	m.self = m
	return m
}

func (m *Windows) IsWindows() bool   { return true }
func (m *Windows) ConfigDir() string { return WindowsConfigDir }

func (m *Windows) Path(elem ...string) string {
	parts := make([]string, 0, len(elem))
	for i, e := range elem {
		e = strings.ReplaceAll(e, "/", `\`)
		if i > 0 {
			e = strings.TrimLeft(e, `\`)
		}
		if i < len(elem)-1 {
			e = strings.TrimRight(e, `\`)
		}
		if e != "" {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, `\`)
}

func (m *Windows) MakeDir(ctx context.Context, dir string) error {
	cmd := PowerShell(fmt.Sprintf("New-Item -ItemType Directory -Force -Path %s | Out-Null", PSQuote(dir)))
	if err := m.run(ctx, cmd); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

// PowerShell wraps script into a non-interactive powershell invocation.
func PowerShell(script string) string {
	return "powershell -NoProfile -NonInteractive -Command " + `"` + strings.ReplaceAll(script, `"`, `\"`) + `"`
}

// PSQuote quotes s as a PowerShell single-quoted string literal.
func PSQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
