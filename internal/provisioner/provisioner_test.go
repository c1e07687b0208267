package provisioner

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fogprov/internal/compute"
	"github.com/imamik/fogprov/internal/config"
	"github.com/imamik/fogprov/internal/convergence"
	"github.com/imamik/fogprov/internal/machine"
	"github.com/imamik/fogprov/internal/node"
	"github.com/imamik/fogprov/internal/provisioning"
	"github.com/imamik/fogprov/internal/transport"
	"github.com/imamik/fogprov/internal/transport/transporttest"
	"github.com/imamik/fogprov/internal/util/labels"
)

const testURL = "fog:Hetzner:acme"

// recordingStrategy records Cleanup calls.
type recordingStrategy struct {
	convergence.NoOp
	cleaned    []string
	cleanupErr error
}

func (s *recordingStrategy) Cleanup(_ context.Context, n *node.Node) error {
	s.cleaned = append(s.cleaned, n.Name)
	return s.cleanupErr
}

// eventRecorder keeps every event emitted through it.
type eventRecorder struct {
	provisioning.NopObserver
	events []provisioning.Event
}

func (r *eventRecorder) Event(e provisioning.Event) { r.events = append(r.events, e) }

func (r *eventRecorder) WithFields(map[string]string) provisioning.Observer { return r }

func (r *eventRecorder) has(t provisioning.EventType) bool {
	for _, e := range r.events {
		if e.Type == t {
			return true
		}
	}
	return false
}

type failingStrategies struct{ err error }

func (f failingStrategies) Unix(*node.Node) (machine.Strategy, error)    { return nil, f.err }
func (f failingStrategies) Windows(*node.Node) (machine.Strategy, error) { return nil, f.err }

type staticStrategies struct {
	unix, windows machine.Strategy
}

func (f staticStrategies) Unix(*node.Node) (machine.Strategy, error)    { return f.unix, nil }
func (f staticStrategies) Windows(*node.Node) (machine.Strategy, error) { return f.windows, nil }

type harness struct {
	client   *compute.MockClient
	strategy *recordingStrategy
	configs  []*transport.Config
	metrics  *provisioning.Metrics
	p        *Provisioner
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		client:   &compute.MockClient{},
		strategy: &recordingStrategy{},
		metrics:  provisioning.NewMetrics(),
	}
	h.p = New(h.client, testURL,
		WithObserver(provisioning.NopObserver{}),
		WithMetrics(h.metrics),
		WithStrategies(staticStrategies{unix: h.strategy, windows: h.strategy}),
		WithTimeouts(&config.Timeouts{RetryMaxAttempts: 3, RetryInitialDelay: 1}),
		WithTransportFactory(func(kind transport.Kind, cfg *transport.Config) (transport.Transport, error) {
			h.configs = append(h.configs, cfg)
			return transporttest.New(), nil
		}),
	)
	return h
}

func testNode() *node.Node {
	n := node.New("web-1")
	n.Options.BootstrapOptions = map[string]any{
		"server_type": "cx22",
		"image":       "ubuntu-24.04",
		"labels":      map[string]any{"team": "infra", "fogprov.io/node": "spoofed"},
	}
	return n
}

func running(id string) *compute.Instance {
	return &compute.Instance{ID: id, PublicIP: "192.0.2.10", Status: compute.StatusRunning, Username: "root", PrivateKey: []byte("key")}
}

func TestAcquire_CreateLabelsInstance(t *testing.T) {
	h := newHarness(t)
	n := testNode()

	var (
		gotName string
		gotOpts compute.BootstrapOptions
		listed  map[string]string
	)
	h.client.ListInstancesFunc = func(_ context.Context, l map[string]string) ([]*compute.Instance, error) {
		listed = l
		return nil, nil
	}
	h.client.CreateInstanceFunc = func(_ context.Context, name string, opts compute.BootstrapOptions) (*compute.Instance, error) {
		gotName, gotOpts = name, opts
		return running("42"), nil
	}

	m, err := h.p.Acquire(context.Background(), n)
	require.NoError(t, err)

	assert.Equal(t, "web-1", m.Name())
	assert.Equal(t, "web-1", gotName)
	assert.Equal(t, "cx22", gotOpts.ServerType)
	assert.Equal(t, labels.ForNode(testURL, "web-1"), listed)
	assert.Equal(t, "web-1", gotOpts.Labels[labels.KeyNode])
	assert.Equal(t, "infra", gotOpts.Labels["team"])
	assert.Equal(t, labels.ProvisionerValue(testURL), gotOpts.Labels[labels.KeyProvisioner])
	assert.Equal(t, "42", n.ServerID())

	count, err := testutil.GatherAndCount(h.metrics.Registry(), "fogprov_reconcile_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAcquire_AmbiguousInstances(t *testing.T) {
	h := newHarness(t)
	n := testNode()
	h.client.ListInstancesFunc = func(context.Context, map[string]string) ([]*compute.Instance, error) {
		return []*compute.Instance{running("1"), running("2")}, nil
	}

	_, err := h.p.Acquire(context.Background(), n)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousInstance)
	assert.Contains(t, err.Error(), "1, 2")
	assert.Zero(t, h.client.Calls(compute.OpCreate))
	assert.Empty(t, n.ServerID())
}

func TestAcquire_AdoptsAndStartsStoppedOrphan(t *testing.T) {
	h := newHarness(t)
	n := testNode()
	h.client.ListInstancesFunc = func(context.Context, map[string]string) ([]*compute.Instance, error) {
		return []*compute.Instance{{ID: "9", Status: "off"}}, nil
	}
	h.client.GetInstanceFunc = func(context.Context, string) (*compute.Instance, error) {
		return running("9"), nil
	}

	_, err := h.p.Acquire(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, 1, h.client.Calls(compute.OpStart))
	assert.Zero(t, h.client.Calls(compute.OpCreate))
	assert.Equal(t, "9", n.ServerID())
}

func TestAcquire_InvalidName(t *testing.T) {
	h := newHarness(t)
	n := node.New("Not_Valid")

	_, err := h.p.Acquire(context.Background(), n)
	require.Error(t, err)
	assert.Zero(t, h.client.TotalCalls())
}

func TestAcquire_BadBootstrapOptions(t *testing.T) {
	h := newHarness(t)
	n := testNode()
	n.Options.BootstrapOptions["unknown_option"] = true

	_, err := h.p.Acquire(context.Background(), n)
	require.Error(t, err)
	assert.Zero(t, h.client.TotalCalls())
}

func TestAcquire_StartFailureIsNotRetried(t *testing.T) {
	h := newHarness(t)
	n := testNode()
	n.SetOutput(testURL, "42")
	h.client.GetInstanceFunc = func(context.Context, string) (*compute.Instance, error) {
		return &compute.Instance{ID: "42", Status: "off"}, nil
	}
	h.client.StartInstanceFunc = func(context.Context, string) error {
		return errors.New("locked")
	}

	_, err := h.p.Acquire(context.Background(), n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
	assert.Equal(t, 1, h.client.Calls(compute.OpStart))
	assert.Equal(t, 1, h.client.Calls(compute.OpGet))
}

func TestAcquire_MachineFlavour(t *testing.T) {
	h := newHarness(t)
	h.client.CreateInstanceFunc = func(context.Context, string, compute.BootstrapOptions) (*compute.Instance, error) {
		return running("42"), nil
	}

	n := testNode()
	m, err := h.p.Acquire(context.Background(), n)
	require.NoError(t, err)
	assert.IsType(t, &machine.Unix{}, m)

	w := testNode()
	w.Name = "win-1"
	w.Options.IsWindows = true
	m, err = h.p.Acquire(context.Background(), w)
	require.NoError(t, err)
	assert.IsType(t, &machine.Windows{}, m)
	assert.True(t, m.IsWindows())
}

func TestTransportFor(t *testing.T) {
	tests := []struct {
		name       string
		windows    bool
		sshUser    string
		instUser   string
		transport  string
		wantUser   string
		wantPrefix string
		wantErr    error
	}{
		{name: "instance default", instUser: "root", wantUser: "root"},
		{name: "empty defaults to root", wantUser: "root"},
		{name: "node override uses sudo", instUser: "root", sshUser: "ubuntu", wantUser: "ubuntu", wantPrefix: "sudo "},
		{name: "windows non-root runs without sudo", windows: true, instUser: "root", sshUser: "Administrator", wantUser: "Administrator"},
		{name: "winrm unsupported", transport: node.TransportWinRM, wantErr: transport.ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			n := testNode()
			n.Options.IsWindows = tt.windows
			n.Options.SSHUsername = tt.sshUser
			n.Options.Transport = tt.transport
			inst := running("42")
			inst.Username = tt.instUser

			_, err := h.p.transportFor(n, inst)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, h.configs)
				return
			}
			require.NoError(t, err)
			require.Len(t, h.configs, 1)

			cfg := h.configs[0]
			assert.Equal(t, "192.0.2.10", cfg.Host)
			assert.Equal(t, tt.wantUser, cfg.User)
			assert.Equal(t, tt.wantPrefix, cfg.Prefix)
			assert.Equal(t, []byte("key"), cfg.PrivateKey)
			assert.Equal(t, 3, cfg.MaxRetries)
		})
	}
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	n := testNode()
	n.SetOutput(testURL, "42")

	var order []string
	h.client.GetInstanceFunc = func(context.Context, string) (*compute.Instance, error) {
		order = append(order, compute.OpGet)
		return running("42"), nil
	}
	h.client.DestroyInstanceFunc = func(_ context.Context, id string) error {
		order = append(order, compute.OpDestroy)
		assert.Equal(t, "42", id)
		return nil
	}

	require.NoError(t, h.p.Delete(context.Background(), n))
	assert.Equal(t, []string{compute.OpGet, compute.OpDestroy}, order)
	assert.Equal(t, []string{"web-1"}, h.strategy.cleaned)
	assert.Empty(t, n.ServerID())
	assert.Equal(t, testURL, n.ProvisionerURL())
}

func TestDelete_InstanceAlreadyGone(t *testing.T) {
	h := newHarness(t)
	n := testNode()
	n.SetOutput(testURL, "42")
	h.client.GetInstanceFunc = func(context.Context, string) (*compute.Instance, error) {
		return nil, compute.ErrInstanceNotFound
	}

	require.NoError(t, h.p.Delete(context.Background(), n))
	assert.Zero(t, h.client.Calls(compute.OpDestroy))
	assert.Equal(t, []string{"web-1"}, h.strategy.cleaned)
	assert.Empty(t, n.ServerID())
}

func TestDelete_DestroyFailureKeepsID(t *testing.T) {
	h := newHarness(t)
	n := testNode()
	n.SetOutput(testURL, "42")
	h.client.GetInstanceFunc = func(context.Context, string) (*compute.Instance, error) {
		return running("42"), nil
	}
	h.client.DestroyInstanceFunc = func(context.Context, string) error {
		return errors.New("api down")
	}

	require.Error(t, h.p.Delete(context.Background(), n))
	assert.Empty(t, h.strategy.cleaned)
	assert.Equal(t, "42", n.ServerID())
}

func TestDelete_CleanupFailure(t *testing.T) {
	h := newHarness(t)
	h.strategy.cleanupErr = errors.New("permission denied")
	n := testNode()
	n.SetOutput(testURL, "42")
	h.client.GetInstanceFunc = func(context.Context, string) (*compute.Instance, error) {
		return running("42"), nil
	}

	err := h.p.Delete(context.Background(), n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, 1, h.client.Calls(compute.OpDestroy))
}

func TestDelete_ProviderMismatch(t *testing.T) {
	h := newHarness(t)
	n := testNode()
	n.SetOutput("fog:Hetzner:other", "42")

	err := h.p.Delete(context.Background(), n)
	assert.ErrorIs(t, err, ErrProviderMismatch)
	assert.Zero(t, h.client.TotalCalls())
}

func TestConnect_ProviderMismatch(t *testing.T) {
	h := newHarness(t)
	n := testNode()
	n.SetOutput("fog:Hetzner:other", "42")

	_, err := h.p.Connect(context.Background(), n)
	assert.ErrorIs(t, err, ErrProviderMismatch)
	assert.Zero(t, h.client.TotalCalls())
}

func TestList(t *testing.T) {
	h := newHarness(t)

	var selector map[string]string
	h.client.ListInstancesFunc = func(_ context.Context, l map[string]string) ([]*compute.Instance, error) {
		selector = l
		return []*compute.Instance{running("1")}, nil
	}

	instances, err := h.p.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, instances, 1)
	assert.Equal(t, labels.ForProvisioner(testURL), selector)
}

func TestNew_MetricsWrapClient(t *testing.T) {
	h := newHarness(t)
	h.client.ListInstancesFunc = func(context.Context, map[string]string) ([]*compute.Instance, error) {
		return nil, nil
	}

	_, err := h.p.List(context.Background())
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(h.metrics.Registry(), "fogprov_compute_api_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAcquire_NilInstanceIsNotFound(t *testing.T) {
	h := newHarness(t)
	n := testNode()
	n.SetOutput(testURL, "42")
	h.client.GetInstanceFunc = func(context.Context, string) (*compute.Instance, error) {
		return nil, nil
	}

	_, err := h.p.Acquire(context.Background(), n)
	require.Error(t, err)
	assert.ErrorIs(t, err, compute.ErrInstanceNotFound)
	assert.Zero(t, h.client.Calls(compute.OpStart))
	assert.Zero(t, h.client.Calls(compute.OpCreate))
}

func TestAcquire_RecordedInstanceMissingFromDefaultMock(t *testing.T) {
	h := newHarness(t)
	n := testNode()
	n.SetOutput(testURL, "42")

	_, err := h.p.Acquire(context.Background(), n)
	assert.ErrorIs(t, err, compute.ErrInstanceNotFound)
	assert.Equal(t, "42", n.ServerID())
}

func TestAcquire_StartedInstanceVanishes(t *testing.T) {
	h := newHarness(t)
	n := testNode()
	n.SetOutput(testURL, "42")
	gets := 0
	h.client.GetInstanceFunc = func(context.Context, string) (*compute.Instance, error) {
		gets++
		if gets == 1 {
			return &compute.Instance{ID: "42", Status: "off"}, nil
		}
		return nil, nil
	}

	_, err := h.p.Acquire(context.Background(), n)
	assert.ErrorIs(t, err, compute.ErrInstanceNotFound)
	assert.Equal(t, 1, h.client.Calls(compute.OpStart))
}

func TestDelete_NilInstanceIsAlreadyGone(t *testing.T) {
	h := newHarness(t)
	n := testNode()
	n.SetOutput(testURL, "42")
	h.client.GetInstanceFunc = func(context.Context, string) (*compute.Instance, error) {
		return nil, nil
	}

	require.NoError(t, h.p.Delete(context.Background(), n))
	assert.Zero(t, h.client.Calls(compute.OpDestroy))
	assert.Empty(t, n.ServerID())
}

func TestDelete_CleanupFailureIsLogged(t *testing.T) {
	h := newHarness(t)
	rec := &eventRecorder{}
	h.p.observer = rec
	h.strategy.cleanupErr = errors.New("permission denied")
	n := testNode()
	n.SetOutput(testURL, "42")
	h.client.GetInstanceFunc = func(context.Context, string) (*compute.Instance, error) {
		return running("42"), nil
	}

	require.Error(t, h.p.Delete(context.Background(), n))
	assert.True(t, rec.has(provisioning.EventPhaseFailed))
	assert.False(t, rec.has(provisioning.EventPhaseCompleted))
	assert.Equal(t, "42", n.ServerID())
}

func TestDelete_StrategyFailureIsLogged(t *testing.T) {
	h := newHarness(t)
	rec := &eventRecorder{}
	h.p.observer = rec
	h.p.strategies = failingStrategies{err: errors.New("bad convergence_options")}
	n := testNode()
	n.SetOutput(testURL, "42")
	h.client.GetInstanceFunc = func(context.Context, string) (*compute.Instance, error) {
		return running("42"), nil
	}

	err := h.p.Delete(context.Background(), n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad convergence_options")
	assert.True(t, rec.has(provisioning.EventPhaseFailed))
}
