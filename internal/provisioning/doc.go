// Package provisioning carries the cross-cutting concerns of provisioning
// runs: structured events through an Observer and Prometheus metrics.
//
// ConsoleObserver writes to the standard logger and is what the CLI uses.
// LogrObserver forwards the same events to a logr.Logger for programs that
// embed the provisioner.
package provisioning
