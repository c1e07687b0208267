package compute

import (
	"context"
	"sync"
)

// MockClient is a Client whose behaviour is supplied per method. Methods
// without a Func return zero values, except GetInstance, which reports
// ErrInstanceNotFound. Every call is counted.
type MockClient struct {
	CreateInstanceFunc  func(ctx context.Context, name string, opts BootstrapOptions) (*Instance, error)
	GetInstanceFunc     func(ctx context.Context, id string) (*Instance, error)
	StartInstanceFunc   func(ctx context.Context, id string) error
	DestroyInstanceFunc func(ctx context.Context, id string) error
	ListInstancesFunc   func(ctx context.Context, labels map[string]string) ([]*Instance, error)

	mu    sync.Mutex
	calls map[string]int
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[op]++
}

// Calls returns how often the operation (OpCreate, OpGet, ...) was invoked.
func (m *MockClient) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (m *MockClient) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func (m *MockClient) CreateInstance(ctx context.Context, name string, opts BootstrapOptions) (*Instance, error) {
	m.record(OpCreate)
	if m.CreateInstanceFunc != nil {
		return m.CreateInstanceFunc(ctx, name, opts)
	}
	return nil, nil
}

func (m *MockClient) GetInstance(ctx context.Context, id string) (*Instance, error) {
	m.record(OpGet)
	if m.GetInstanceFunc != nil {
		return m.GetInstanceFunc(ctx, id)
	}
	return nil, ErrInstanceNotFound
}

func (m *MockClient) StartInstance(ctx context.Context, id string) error {
	m.record(OpStart)
	if m.StartInstanceFunc != nil {
		return m.StartInstanceFunc(ctx, id)
	}
	return nil
}

func (m *MockClient) DestroyInstance(ctx context.Context, id string) error {
	m.record(OpDestroy)
	if m.DestroyInstanceFunc != nil {
		return m.DestroyInstanceFunc(ctx, id)
	}
	return nil
}

func (m *MockClient) ListInstances(ctx context.Context, labels map[string]string) ([]*Instance, error) {
	m.record(OpList)
	if m.ListInstancesFunc != nil {
		return m.ListInstancesFunc(ctx, labels)
	}
	return nil, nil
}
