package convergence

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/fogprov/internal/machine"
	"github.com/imamik/fogprov/internal/node"
)

const msiName = "agent.msi"

// InstallMSI installs the agent on Windows instances from an MSI package.
type InstallMSI struct {
	Options
}

var _ machine.Strategy = (*InstallMSI)(nil)

// Setup downloads the MSI into the config directory and installs it quietly,
// unless the check command reports the agent is already present.
func (s *InstallMSI) Setup(ctx context.Context, m machine.Machine) error {
	ok, err := installed(ctx, m, s.CheckCommand)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if s.WindowsInstallURL == "" {
		return errors.New("no windows_install_url configured")
	}

	if err := m.MakeDir(ctx, m.ConfigDir()); err != nil {
		return err
	}

	path := m.Path(m.ConfigDir(), msiName)
	script := fmt.Sprintf(
		"$ProgressPreference = 'SilentlyContinue'; "+
			"Invoke-WebRequest -UseBasicParsing -Uri %s -OutFile %s; "+
			"$p = Start-Process -FilePath msiexec.exe -ArgumentList @('/qn', '/i', %s) -Wait -PassThru; "+
			"exit $p.ExitCode",
		machine.PSQuote(s.WindowsInstallURL), machine.PSQuote(path), machine.PSQuote(path))

	res, err := m.Execute(ctx, machine.PowerShell(script))
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("msi install failed: %w", err)
	}
	return nil
}

// Converge runs the agent command.
func (s *InstallMSI) Converge(ctx context.Context, m machine.Machine) error {
	return runAgent(ctx, m, s.AgentCommand)
}

// Cleanup removes the node's cached client key.
func (s *InstallMSI) Cleanup(_ context.Context, n *node.Node) error {
	return removeKey(s.Options, n)
}
