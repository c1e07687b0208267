package node

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Transport names accepted in provisioner_options.transport.
const (
	TransportSSH   = "ssh"
	TransportWinRM = "winrm"
)

var nameRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9.-]{0,61}[a-z0-9])?$`)

// Node is a node record.
type Node struct {
	Name    string
	Options Options
	// Output is nil until the node has been acquired once.
	Output *Output

	extra map[string]json.RawMessage
}

// Options is the desired configuration under provisioner_options.
type Options struct {
	BootstrapOptions   map[string]any
	IsWindows          bool
	SSHUsername        string
	Transport          string
	ConvergenceOptions map[string]any

	extra map[string]json.RawMessage
}

// Output is the observed state under provisioner_output.
type Output struct {
	ProvisionerURL string
	ServerID       string

	extra map[string]json.RawMessage
}

// New returns an empty record for name.
func New(name string) *Node {
	return &Node{Name: name}
}

// ValidateName checks that name is usable as an instance name and label value.
func ValidateName(name string) error {
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid node name %q: must be 1-63 lowercase alphanumeric characters, '-' or '.'", name)
	}
	return nil
}

// ServerID returns the recorded instance identifier, or "".
func (n *Node) ServerID() string {
	if n.Output == nil {
		return ""
	}
	return n.Output.ServerID
}

// ProvisionerURL returns the recorded provisioner identity, or "".
func (n *Node) ProvisionerURL() string {
	if n.Output == nil {
		return ""
	}
	return n.Output.ProvisionerURL
}

// SetOutput records the provisioner identity and instance identifier,
// keeping any other keys already present in provisioner_output.
func (n *Node) SetOutput(provisionerURL, serverID string) {
	if n.Output == nil {
		n.Output = &Output{}
	}
	n.Output.ProvisionerURL = provisionerURL
	n.Output.ServerID = serverID
}

// ClearServerID forgets the instance identifier. The provisioner identity
// is kept so the node stays bound to its provider.
func (n *Node) ClearServerID() {
	if n.Output != nil {
		n.Output.ServerID = ""
	}
}

// TransportName returns the requested transport, defaulting to SSH.
func (o *Options) TransportName() string {
	if o.Transport == "" {
		return TransportSSH
	}
	return o.Transport
}
