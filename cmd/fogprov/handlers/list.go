package handlers

import (
	"context"
	"fmt"
	"sort"

	"github.com/imamik/fogprov/internal/util/labels"
)

// List handles the list command.
//
// It prints every instance this provisioner manages, together with whether
// a node record in the store still points at it.
func List(ctx context.Context, g Global) error {
	env, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer env.finish()

	instances, err := env.provisioner.List(ctx)
	if err != nil {
		return err
	}

	recorded, err := recordedIDs(ctx, env)
	if err != nil {
		return err
	}

	rows := make([]listRow, 0, len(instances))
	for _, inst := range instances {
		rows = append(rows, listRow{
			Node:     inst.Labels[labels.KeyNode],
			ID:       inst.ID,
			Status:   inst.Status,
			Address:  inst.PublicIP,
			Recorded: recorded[inst.ID],
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Node < rows[j].Node })

	_, _ = fmt.Fprint(stdout, renderInstanceList(env.provisioner.ProvisionerURL(), rows))
	return nil
}

// recordedIDs maps instance identifiers to whether a stored node records them.
func recordedIDs(ctx context.Context, env *environment) (map[string]bool, error) {
	names, err := env.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	ids := make(map[string]bool, len(names))
	for _, name := range names {
		n, err := env.store.Load(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load node %s: %w", name, err)
		}
		if id := n.ServerID(); id != "" {
			ids[id] = true
		}
	}
	return ids, nil
}
