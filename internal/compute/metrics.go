package compute

import (
	"context"
	"time"
)

// CallRecorder receives the outcome of every compute API call.
type CallRecorder interface {
	ObserveCall(operation string, err error, duration time.Duration)
}

// Operation names reported to a CallRecorder.
const (
	OpCreate  = "create"
	OpGet     = "get"
	OpStart   = "start"
	OpDestroy = "destroy"
	OpList    = "list"
)

// WithMetrics wraps c so that every call is reported to rec.
// A nil recorder returns c unchanged.
func WithMetrics(c Client, rec CallRecorder) Client {
	if rec == nil {
		return c
	}
	return &instrumented{next: c, rec: rec}
}

type instrumented struct {
	next Client
	rec  CallRecorder
}

func (m *instrumented) timed(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	m.rec.ObserveCall(op, err, time.Since(start))
	return err
}

func (m *instrumented) CreateInstance(ctx context.Context, name string, opts BootstrapOptions) (*Instance, error) {
	var inst *Instance
	err := m.timed(OpCreate, func() (err error) {
		inst, err = m.next.CreateInstance(ctx, name, opts)
		return err
	})
	return inst, err
}

func (m *instrumented) GetInstance(ctx context.Context, id string) (*Instance, error) {
	var inst *Instance
	err := m.timed(OpGet, func() (err error) {
		inst, err = m.next.GetInstance(ctx, id)
		return err
	})
	return inst, err
}

func (m *instrumented) StartInstance(ctx context.Context, id string) error {
	return m.timed(OpStart, func() error { return m.next.StartInstance(ctx, id) })
}

func (m *instrumented) DestroyInstance(ctx context.Context, id string) error {
	return m.timed(OpDestroy, func() error { return m.next.DestroyInstance(ctx, id) })
}

func (m *instrumented) ListInstances(ctx context.Context, labels map[string]string) ([]*Instance, error) {
	var list []*Instance
	err := m.timed(OpList, func() (err error) {
		list, err = m.next.ListInstances(ctx, labels)
		return err
	})
	return list, err
}
