package provisioner

import "errors"

var (
	// ErrProviderMismatch is returned when a node was acquired with a
	// different provisioner URL.
	ErrProviderMismatch = errors.New("provider mismatch")

	// ErrNoInstance is returned when an operation needs a recorded
	// instance and the node has none.
	ErrNoInstance = errors.New("no instance recorded")

	// ErrAmbiguousInstance is returned when more than one unrecorded
	// instance is labelled for the node.
	ErrAmbiguousInstance = errors.New("multiple instances labelled for node")
)
