package provisioner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/imamik/fogprov/internal/compute"
	"github.com/imamik/fogprov/internal/config"
	"github.com/imamik/fogprov/internal/convergence"
	"github.com/imamik/fogprov/internal/machine"
	"github.com/imamik/fogprov/internal/node"
	"github.com/imamik/fogprov/internal/provisioning"
	"github.com/imamik/fogprov/internal/transport"
	"github.com/imamik/fogprov/internal/util/labels"
)

const (
	phaseAcquire = "acquire"
	phaseDelete  = "delete"
)

// TransportFactory opens a transport to an instance.
type TransportFactory func(kind transport.Kind, cfg *transport.Config) (transport.Transport, error)

// StrategyFactory returns the convergence strategy for a node.
type StrategyFactory interface {
	Unix(n *node.Node) (machine.Strategy, error)
	Windows(n *node.Node) (machine.Strategy, error)
}

// Provisioner acquires, connects to and deletes the instances behind nodes.
type Provisioner struct {
	client     compute.Client
	url        string
	transports TransportFactory
	strategies StrategyFactory
	observer   provisioning.Observer
	metrics    *provisioning.Metrics
	timeouts   *config.Timeouts
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithObserver sets the event observer.
func WithObserver(o provisioning.Observer) Option {
	return func(p *Provisioner) {
		p.observer = o
	}
}

// WithMetrics records reconcile outcomes and compute API calls.
func WithMetrics(m *provisioning.Metrics) Option {
	return func(p *Provisioner) {
		p.metrics = m
	}
}

// WithTransportFactory replaces transport.New.
func WithTransportFactory(f TransportFactory) Option {
	return func(p *Provisioner) {
		p.transports = f
	}
}

// WithStrategies sets the convergence strategy factory.
func WithStrategies(f StrategyFactory) Option {
	return func(p *Provisioner) {
		p.strategies = f
	}
}

// WithTimeouts sets the transport connection budget.
func WithTimeouts(t *config.Timeouts) Option {
	return func(p *Provisioner) {
		p.timeouts = t
	}
}

// New returns a Provisioner that manages instances through client and
// stamps nodes with provisionerURL.
func New(client compute.Client, provisionerURL string, opts ...Option) *Provisioner {
	p := &Provisioner{
		client:     client,
		url:        provisionerURL,
		transports: transport.New,
		strategies: convergence.NewFactory(convergence.Options{}),
		observer:   provisioning.NewConsoleObserver(),
		timeouts:   config.LoadTimeouts(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics != nil {
		p.client = compute.WithMetrics(p.client, p.metrics)
	}
	return p
}

// ProvisionerURL returns the identity stamped on acquired nodes.
func (p *Provisioner) ProvisionerURL() string {
	return p.url
}

// Acquire makes sure the node has a running instance and returns a handle
// to it. The node's provisioner_output is updated in place; persisting it is
// up to the caller, also when an error is returned after the instance
// identifier was recorded.
func (p *Provisioner) Acquire(ctx context.Context, n *node.Node) (machine.Machine, error) {
	start := time.Now()
	obs := p.observer.WithFields(map[string]string{"provisioner": p.url})

	if err := p.checkProvider(n); err != nil {
		return nil, err
	}
	if err := node.ValidateName(n.Name); err != nil {
		return nil, err
	}

	provisioning.LogPhaseStart(obs, phaseAcquire, n.Name)

	var (
		inst   *compute.Instance
		action string
		err    error
	)
	if id := n.ServerID(); id != "" {
		inst, action, err = p.ensureRunning(ctx, obs, n, id)
	} else {
		inst, action, err = p.createOrAdopt(ctx, obs, n)
	}
	p.metrics.RecordReconcile(action, err)
	if err != nil {
		provisioning.LogPhaseFailed(obs, phaseAcquire, n.Name, err)
		return nil, err
	}

	n.SetOutput(p.url, inst.ID)

	m, err := p.machineFor(n, inst)
	if err != nil {
		provisioning.LogPhaseFailed(obs, phaseAcquire, n.Name, err)
		return nil, err
	}

	provisioning.LogPhaseComplete(obs, phaseAcquire, n.Name, time.Since(start))
	return m, nil
}

// ensureRunning handles a node with a recorded instance: reuse it when
// running, otherwise start it exactly once.
func (p *Provisioner) ensureRunning(ctx context.Context, obs provisioning.Observer, n *node.Node, id string) (*compute.Instance, string, error) {
	inst, err := p.getInstance(ctx, id)
	if err != nil {
		return nil, provisioning.ActionReuse, fmt.Errorf("failed to get instance %s for node %s: %w", id, n.Name, err)
	}

	if inst.Ready() {
		provisioning.LogResourceExists(obs, phaseAcquire, n.Name, inst.ID, inst.Status)
		return inst, provisioning.ActionReuse, nil
	}

	inst, err = p.start(ctx, obs, n, inst)
	return inst, provisioning.ActionStart, err
}

// createOrAdopt handles a node without a recorded instance. An instance left
// behind by an acquire whose node record was never saved carries the node's
// labels and is adopted instead of creating a duplicate.
func (p *Provisioner) createOrAdopt(ctx context.Context, obs provisioning.Observer, n *node.Node) (*compute.Instance, string, error) {
	bo, err := compute.DecodeBootstrapOptions(n.Options.BootstrapOptions)
	if err != nil {
		return nil, provisioning.ActionCreate, fmt.Errorf("node %s: %w", n.Name, err)
	}

	existing, err := p.client.ListInstances(ctx, labels.ForNode(p.url, n.Name))
	if err != nil {
		return nil, provisioning.ActionCreate, fmt.Errorf("failed to look up instances for node %s: %w", n.Name, err)
	}

	switch len(existing) {
	case 0:
	case 1:
		inst := existing[0]
		provisioning.LogResourceAdopted(obs, phaseAcquire, n.Name, inst.ID)
		if !inst.Ready() {
			inst, err = p.start(ctx, obs, n, inst)
		}
		return inst, provisioning.ActionAdopt, err
	default:
		ids := make([]string, 0, len(existing))
		for _, inst := range existing {
			ids = append(ids, inst.ID)
		}
		return nil, provisioning.ActionAdopt, fmt.Errorf("%w %s: %s", ErrAmbiguousInstance, n.Name, strings.Join(ids, ", "))
	}

	bo.Labels = labels.NewLabelBuilder(p.url).WithNode(n.Name).Merge(bo.Labels).Build()

	provisioning.LogResourceCreating(obs, phaseAcquire, n.Name)
	inst, err := p.client.CreateInstance(ctx, n.Name, bo)
	if err != nil {
		return nil, provisioning.ActionCreate, fmt.Errorf("failed to create instance for node %s: %w", n.Name, err)
	}
	provisioning.LogResourceCreated(obs, phaseAcquire, n.Name, inst.ID)
	return inst, provisioning.ActionCreate, nil
}

// start powers the instance on and re-reads it for its current state.
func (p *Provisioner) start(ctx context.Context, obs provisioning.Observer, n *node.Node, inst *compute.Instance) (*compute.Instance, error) {
	provisioning.LogResourceStarting(obs, phaseAcquire, n.Name, inst.ID)
	if err := p.client.StartInstance(ctx, inst.ID); err != nil {
		return nil, fmt.Errorf("failed to start instance %s for node %s: %w", inst.ID, n.Name, err)
	}

	started, err := p.getInstance(ctx, inst.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get instance %s for node %s: %w", inst.ID, n.Name, err)
	}
	return started, nil
}

// Connect returns a handle for the node's recorded instance. It never
// creates, starts or destroys anything.
func (p *Provisioner) Connect(ctx context.Context, n *node.Node) (m machine.Machine, err error) {
	defer func() { p.metrics.RecordReconcile(provisioning.ActionConnect, err) }()

	if err := p.checkProvider(n); err != nil {
		return nil, err
	}
	id := n.ServerID()
	if id == "" {
		return nil, fmt.Errorf("cannot connect to node %s: %w", n.Name, ErrNoInstance)
	}

	inst, err := p.getInstance(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get instance %s for node %s: %w", id, n.Name, err)
	}
	p.observer.Printf("[Provisioner:Connect] node %s -> instance %s (%s, %s)", n.Name, inst.ID, inst.PublicIP, inst.Status)

	return p.machineFor(n, inst)
}

// Delete destroys the node's recorded instance, runs the strategy's cleanup
// and forgets the instance identifier. An instance that no longer exists
// is treated as already destroyed.
func (p *Provisioner) Delete(ctx context.Context, n *node.Node) (err error) {
	defer func() { p.metrics.RecordReconcile(provisioning.ActionDelete, err) }()

	if err := p.checkProvider(n); err != nil {
		return err
	}
	id := n.ServerID()
	if id == "" {
		return fmt.Errorf("cannot delete node %s: %w", n.Name, ErrNoInstance)
	}

	obs := p.observer.WithFields(map[string]string{"provisioner": p.url})
	provisioning.LogPhaseStart(obs, phaseDelete, n.Name)
	start := time.Now()

	if err := p.destroy(ctx, obs, n, id); err != nil {
		provisioning.LogPhaseFailed(obs, phaseDelete, n.Name, err)
		return err
	}

	if err := p.cleanup(ctx, n); err != nil {
		provisioning.LogPhaseFailed(obs, phaseDelete, n.Name, err)
		return err
	}

	n.ClearServerID()
	provisioning.LogPhaseComplete(obs, phaseDelete, n.Name, time.Since(start))
	return nil
}

// cleanup runs the convergence strategy's cleanup hook for n.
func (p *Provisioner) cleanup(ctx context.Context, n *node.Node) error {
	strategy, err := p.strategyFor(n)
	if err != nil {
		return err
	}
	if err := strategy.Cleanup(ctx, n); err != nil {
		return fmt.Errorf("cleanup for node %s failed: %w", n.Name, err)
	}
	return nil
}

func (p *Provisioner) destroy(ctx context.Context, obs provisioning.Observer, n *node.Node, id string) error {
	inst, err := p.getInstance(ctx, id)
	if errors.Is(err, compute.ErrInstanceNotFound) {
		p.observer.Printf("[Provisioner:Delete] instance %s of node %s is already gone", id, n.Name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get instance %s for node %s: %w", id, n.Name, err)
	}

	provisioning.LogResourceDeleting(obs, phaseDelete, n.Name, inst.ID)
	if err := p.client.DestroyInstance(ctx, inst.ID); err != nil {
		return fmt.Errorf("failed to destroy instance %s for node %s: %w", inst.ID, n.Name, err)
	}
	provisioning.LogResourceDeleted(obs, phaseDelete, n.Name, inst.ID)
	return nil
}

// List returns every instance created by this provisioner.
func (p *Provisioner) List(ctx context.Context) ([]*compute.Instance, error) {
	instances, err := p.client.ListInstances(ctx, labels.ForProvisioner(p.url))
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	return instances, nil
}

// getInstance treats a nil instance without error as not found.
func (p *Provisioner) getInstance(ctx context.Context, id string) (*compute.Instance, error) {
	inst, err := p.client.GetInstance(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, fmt.Errorf("instance %s: %w", id, compute.ErrInstanceNotFound)
	}
	return inst, nil
}

// checkProvider fails when the node was acquired with another provisioner.
func (p *Provisioner) checkProvider(n *node.Node) error {
	recorded := n.ProvisionerURL()
	if recorded != "" && recorded != p.url {
		return fmt.Errorf("%w: node %s was provisioned by %s, not %s", ErrProviderMismatch, n.Name, recorded, p.url)
	}
	return nil
}
