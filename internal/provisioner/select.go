package provisioner

import (
	"fmt"

	"github.com/imamik/fogprov/internal/compute"
	"github.com/imamik/fogprov/internal/machine"
	"github.com/imamik/fogprov/internal/node"
	"github.com/imamik/fogprov/internal/transport"
)

const rootUser = "root"

// machineFor wires transport and strategy into the OS-specific handle.
func (p *Provisioner) machineFor(n *node.Node, inst *compute.Instance) (machine.Machine, error) {
	tr, err := p.transportFor(n, inst)
	if err != nil {
		return nil, err
	}
	strategy, err := p.strategyFor(n)
	if err != nil {
		_ = tr.Close()
		return nil, err
	}

	if n.Options.IsWindows {
		return machine.NewWindows(n, inst, tr, strategy), nil
	}
	return machine.NewUnix(n, inst, tr, strategy), nil
}

// transportFor opens the node's transport. Only SSH is available; the node's
// ssh_username overrides the instance's default login. Non-root Unix logins
// run commands through sudo; Windows shells have no sudo.
func (p *Provisioner) transportFor(n *node.Node, inst *compute.Instance) (transport.Transport, error) {
	kind := transport.Kind(n.Options.TransportName())
	if kind != transport.KindSSH {
		return nil, fmt.Errorf("node %s: %w: %s", n.Name, transport.ErrUnsupported, kind)
	}

	user := inst.Username
	if n.Options.SSHUsername != "" {
		user = n.Options.SSHUsername
	}
	if user == "" {
		user = rootUser
	}

	cfg := &transport.Config{
		Host:       inst.PublicIP,
		User:       user,
		PrivateKey: inst.PrivateKey,
	}
	if user != rootUser && !n.Options.IsWindows {
		cfg.Prefix = "sudo "
	}
	if p.timeouts != nil {
		cfg.MaxRetries = p.timeouts.RetryMaxAttempts
		cfg.RetryDelay = p.timeouts.RetryInitialDelay
	}

	tr, err := p.transports(kind, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open transport to node %s: %w", n.Name, err)
	}
	return tr, nil
}

// strategyFor picks the Windows or Unix convergence strategy.
func (p *Provisioner) strategyFor(n *node.Node) (machine.Strategy, error) {
	var (
		s   machine.Strategy
		err error
	)
	if n.Options.IsWindows {
		s, err = p.strategies.Windows(n)
	} else {
		s, err = p.strategies.Unix(n)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select convergence strategy for node %s: %w", n.Name, err)
	}
	return s, nil
}
