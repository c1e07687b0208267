package convergence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imamik/fogprov/internal/machine"
	"github.com/imamik/fogprov/internal/node"
	"github.com/imamik/fogprov/internal/transport"
)

const installScriptName = "install.sh"

// InstallScript installs the agent on Unix instances by running a shell
// installer fetched with curl.
type InstallScript struct {
	Options
}

var _ machine.Strategy = (*InstallScript)(nil)

// Setup uploads a wrapper script to the config directory and runs it,
// unless the check command reports the agent is already present.
func (s *InstallScript) Setup(ctx context.Context, m machine.Machine) error {
	ok, err := installed(ctx, m, s.CheckCommand)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if s.InstallURL == "" {
		return errors.New("no install_url configured")
	}

	if err := m.MakeDir(ctx, m.ConfigDir()); err != nil {
		return err
	}

	path := m.Path(m.ConfigDir(), installScriptName)
	if err := m.Upload(ctx, []byte(s.script()), path, 0o755); err != nil {
		return err
	}

	res, err := m.Execute(ctx, "sh "+transport.ShellQuote(path))
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("install script failed: %w", err)
	}
	return nil
}

// Converge runs the agent command.
func (s *InstallScript) Converge(ctx context.Context, m machine.Machine) error {
	return runAgent(ctx, m, s.AgentCommand)
}

// Cleanup removes the node's cached client key.
func (s *InstallScript) Cleanup(_ context.Context, n *node.Node) error {
	return removeKey(s.Options, n)
}

func (s *InstallScript) script() string {
	args := make([]string, 0, len(s.InstallArgs))
	for _, a := range s.InstallArgs {
		args = append(args, transport.ShellQuote(a))
	}

	var b strings.Builder
	b.WriteString("#!/bin/sh\nset -e\n")
	b.WriteString("tmp=$(mktemp)\n")
	b.WriteString("trap 'rm -f \"$tmp\"' EXIT\n")
	fmt.Fprintf(&b, "curl -fsSL %s -o \"$tmp\"\n", transport.ShellQuote(s.InstallURL))
	b.WriteString("sh \"$tmp\"")
	if len(args) > 0 {
		b.WriteString(" " + strings.Join(args, " "))
	}
	b.WriteString("\n")
	return b.String()
}
