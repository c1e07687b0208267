package provisioner_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/fogprov/internal/compute"
	"github.com/imamik/fogprov/internal/convergence"
	"github.com/imamik/fogprov/internal/machine"
	"github.com/imamik/fogprov/internal/node"
	"github.com/imamik/fogprov/internal/provisioner"
	"github.com/imamik/fogprov/internal/provisioning"
	"github.com/imamik/fogprov/internal/transport"
	"github.com/imamik/fogprov/internal/transport/transporttest"
)

const testURL = "fog:Hetzner:acme"

type noopStrategies struct{}

func (noopStrategies) Unix(*node.Node) (machine.Strategy, error)    { return convergence.NoOp{}, nil }
func (noopStrategies) Windows(*node.Node) (machine.Strategy, error) { return convergence.NoOp{}, nil }

func newProvisioner(client compute.Client) *provisioner.Provisioner {
	return provisioner.New(client, testURL,
		provisioner.WithObserver(provisioning.NopObserver{}),
		provisioner.WithStrategies(noopStrategies{}),
		provisioner.WithTransportFactory(func(transport.Kind, *transport.Config) (transport.Transport, error) {
			return transporttest.New(), nil
		}),
	)
}

func instance(id, status string) *compute.Instance {
	return &compute.Instance{
		ID:         id,
		Name:       "web-1",
		PublicIP:   "192.0.2.10",
		Status:     status,
		Username:   "root",
		PrivateKey: []byte("key"),
	}
}

var _ = Describe("Provisioner", func() {
	var (
		ctx    context.Context
		client *compute.MockClient
		n      *node.Node
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &compute.MockClient{}
		n = node.New("web-1")
		n.Options.BootstrapOptions = map[string]any{"server_type": "cx22", "image": "ubuntu-24.04"}
	})

	Describe("Acquire", func() {
		Context("when the node has no output metadata", func() {
			BeforeEach(func() {
				client.CreateInstanceFunc = func(_ context.Context, name string, opts compute.BootstrapOptions) (*compute.Instance, error) {
					return instance("42", compute.StatusRunning), nil
				}
			})

			It("creates exactly one instance and records its id", func() {
				m, err := newProvisioner(client).Acquire(ctx, n)
				Expect(err).NotTo(HaveOccurred())
				Expect(m).NotTo(BeNil())

				Expect(client.Calls(compute.OpCreate)).To(Equal(1))
				Expect(client.Calls(compute.OpStart)).To(BeZero())
				Expect(n.ServerID()).To(Equal("42"))
				Expect(n.ProvisionerURL()).To(Equal(testURL))
			})
		})

		Context("when the recorded provider differs", func() {
			BeforeEach(func() {
				n.SetOutput("fog:Hetzner:other", "42")
			})

			It("fails before any compute call", func() {
				_, err := newProvisioner(client).Acquire(ctx, n)
				Expect(errors.Is(err, provisioner.ErrProviderMismatch)).To(BeTrue())
				Expect(client.TotalCalls()).To(BeZero())
				Expect(n.ServerID()).To(Equal("42"))
			})
		})

		Context("when the recorded instance is stopped", func() {
			BeforeEach(func() {
				n.SetOutput(testURL, "42")
				started := false
				client.GetInstanceFunc = func(context.Context, string) (*compute.Instance, error) {
					if started {
						return instance("42", compute.StatusRunning), nil
					}
					return instance("42", "off"), nil
				}
				client.StartInstanceFunc = func(context.Context, string) error {
					started = true
					return nil
				}
			})

			It("starts it exactly once and creates nothing", func() {
				_, err := newProvisioner(client).Acquire(ctx, n)
				Expect(err).NotTo(HaveOccurred())
				Expect(client.Calls(compute.OpStart)).To(Equal(1))
				Expect(client.Calls(compute.OpCreate)).To(BeZero())
			})
		})

		Context("when the recorded instance is running", func() {
			BeforeEach(func() {
				n.SetOutput(testURL, "42")
				client.GetInstanceFunc = func(context.Context, string) (*compute.Instance, error) {
					return instance("42", compute.StatusRunning), nil
				}
			})

			It("neither creates nor starts", func() {
				_, err := newProvisioner(client).Acquire(ctx, n)
				Expect(err).NotTo(HaveOccurred())
				Expect(client.Calls(compute.OpCreate)).To(BeZero())
				Expect(client.Calls(compute.OpStart)).To(BeZero())
			})
		})

		Context("when one unrecorded instance is labelled for the node", func() {
			BeforeEach(func() {
				client.ListInstancesFunc = func(context.Context, map[string]string) ([]*compute.Instance, error) {
					return []*compute.Instance{instance("7", compute.StatusRunning)}, nil
				}
			})

			It("adopts it instead of creating", func() {
				_, err := newProvisioner(client).Acquire(ctx, n)
				Expect(err).NotTo(HaveOccurred())
				Expect(client.Calls(compute.OpCreate)).To(BeZero())
				Expect(n.ServerID()).To(Equal("7"))
			})
		})
	})

	Describe("Delete", func() {
		It("fails without contacting the compute client when no id is recorded", func() {
			err := newProvisioner(client).Delete(ctx, n)
			Expect(errors.Is(err, provisioner.ErrNoInstance)).To(BeTrue())
			Expect(client.TotalCalls()).To(BeZero())
		})
	})

	Describe("Connect", func() {
		DescribeTable("never creates, starts or destroys",
			func(status string) {
				n.SetOutput(testURL, "42")
				client.GetInstanceFunc = func(context.Context, string) (*compute.Instance, error) {
					return instance("42", status), nil
				}

				m, err := newProvisioner(client).Connect(ctx, n)
				Expect(err).NotTo(HaveOccurred())
				Expect(m.Instance().Status).To(Equal(status))

				Expect(client.Calls(compute.OpCreate)).To(BeZero())
				Expect(client.Calls(compute.OpStart)).To(BeZero())
				Expect(client.Calls(compute.OpDestroy)).To(BeZero())
			},
			Entry("running", compute.StatusRunning),
			Entry("off", "off"),
			Entry("starting", "starting"),
		)

		It("fails when no id is recorded", func() {
			_, err := newProvisioner(client).Connect(ctx, n)
			Expect(errors.Is(err, provisioner.ErrNoInstance)).To(BeTrue())
			Expect(client.TotalCalls()).To(BeZero())
		})
	})
})
