package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// ErrAborted is returned when the user declines the destroy confirmation.
var ErrAborted = errors.New("aborted")

var (
	isInteractive = isInteractiveTTY

	confirmDestroy = func(ctx context.Context, name, id string) (bool, error) {
		var ok bool
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Destroy instance %s of node %s?", id, name)).
					Description("The instance and its disks are deleted. This cannot be undone.").
					Affirmative("Destroy").
					Negative("Cancel").
					Value(&ok),
			),
		).RunWithContext(ctx)
		return ok, err
	}
)

// Destroy handles the destroy command.
//
// It deletes the node's instance, runs the convergence cleanup and saves the
// record without the instance identifier. The provisioner URL stays recorded
// so the node remains bound to its provider. With purge the record is removed
// from the store instead; a record without an instance is removed directly.
func Destroy(ctx context.Context, g Global, name string, yes, purge bool) error {
	env, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer env.finish()

	n, err := env.loadNode(ctx, name, false)
	if err != nil {
		return err
	}

	if !yes && n.ServerID() != "" {
		if !isInteractive() {
			return fmt.Errorf("refusing to destroy node %s without --yes", name)
		}
		ok, err := confirmDestroy(ctx, name, n.ServerID())
		if err != nil {
			return err
		}
		if !ok {
			return ErrAborted
		}
	}

	if purge && n.ServerID() == "" {
		if err := env.store.Delete(ctx, name); err != nil {
			return fmt.Errorf("failed to remove node %s: %w", name, err)
		}
		log.Printf("Node %s has no instance, record removed", name)
		return nil
	}

	if err := env.provisioner.Delete(ctx, n); err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}

	if purge {
		if err := env.store.Delete(ctx, name); err != nil {
			return fmt.Errorf("failed to remove node %s: %w", name, err)
		}
		log.Printf("Node %s destroyed and removed", name)
		return nil
	}

	if err := env.store.Save(ctx, n); err != nil {
		return fmt.Errorf("instance destroyed but node %s was not saved: %w", name, err)
	}
	log.Printf("Node %s destroyed", name)
	return nil
}

func isInteractiveTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
