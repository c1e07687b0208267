package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/imamik/fogprov/internal/machine"
)

// Acquire handles the acquire command.
//
// It loads the node record (or seeds a new one from node_defaults), makes
// sure an instance is running for it and saves the record. The record is
// saved whenever the instance identifier changed, also when acquire failed
// after the instance was created.
func Acquire(ctx context.Context, g Global, name string, converge bool) error {
	env, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer env.finish()

	n, err := env.loadNode(ctx, name, true)
	if err != nil {
		return err
	}
	before := n.ServerID()

	m, acquireErr := env.provisioner.Acquire(ctx, n)
	if n.ServerID() != before || acquireErr == nil {
		if err := env.store.Save(ctx, n); err != nil {
			if m != nil {
				_ = m.Close()
			}
			return fmt.Errorf("instance %s acquired but node %s was not saved: %w", n.ServerID(), name, err)
		}
	}
	if acquireErr != nil {
		return fmt.Errorf("acquire failed: %w", acquireErr)
	}
	defer func() { _ = m.Close() }()

	if converge {
		log.Printf("Converging node %s...", name)
		if err := m.Converge(ctx); err != nil {
			return fmt.Errorf("convergence failed: %w", err)
		}
	}

	printMachine(m)
	return nil
}

func printMachine(m machine.Machine) {
	inst := m.Instance()
	_, _ = fmt.Fprintf(stdout, "Node:     %s\n", m.Name())
	_, _ = fmt.Fprintf(stdout, "Instance: %s\n", inst.ID)
	_, _ = fmt.Fprintf(stdout, "Address:  %s\n", inst.PublicIP)
	_, _ = fmt.Fprintf(stdout, "Status:   %s\n", inst.Status)
}
