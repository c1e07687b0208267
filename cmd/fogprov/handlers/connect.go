package handlers

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Connect handles the connect command.
//
// It opens the node's recorded instance without changing it. With a command,
// the command runs on the instance and its output is copied to the local
// stdout and stderr. Without one, the instance details are printed.
func Connect(ctx context.Context, g Global, name string, command []string) error {
	env, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer env.finish()

	n, err := env.loadNode(ctx, name, false)
	if err != nil {
		return err
	}

	m, err := env.provisioner.Connect(ctx, n)
	if err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}
	defer func() { _ = m.Close() }()

	if len(command) == 0 {
		printMachine(m)
		return nil
	}

	res, err := m.Execute(ctx, strings.Join(command, " "))
	if err != nil {
		return err
	}
	_, _ = stdout.Write(res.Stdout)
	_, _ = os.Stderr.Write(res.Stderr)
	return res.Err()
}
