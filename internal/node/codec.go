package node

import (
	"encoding/json"
	"fmt"
)

type nodeFields struct {
	Name    string  `json:"name"`
	Options Options `json:"provisioner_options"`
	Output  *Output `json:"provisioner_output,omitempty"`
}

type optionsFields struct {
	BootstrapOptions   map[string]any `json:"bootstrap_options,omitempty"`
	IsWindows          bool           `json:"is_windows,omitempty"`
	SSHUsername        string         `json:"ssh_username,omitempty"`
	Transport          string         `json:"transport,omitempty"`
	ConvergenceOptions map[string]any `json:"convergence_options,omitempty"`
}

type outputFields struct {
	ProvisionerURL string     `json:"provisioner_url,omitempty"`
	ServerID       instanceID `json:"server_id,omitempty"`
}

// instanceID decodes from a string or a number and always encodes as a
// string. Hand-written records often carry numeric ids.
type instanceID string

func (id *instanceID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = instanceID(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("server_id must be a string or a number: %s", data)
	}
	*id = instanceID(num.String())
	return nil
}

var (
	nodeKeys    = []string{"name", "provisioner_options", "provisioner_output"}
	optionsKeys = []string{"bootstrap_options", "is_windows", "ssh_username", "transport", "convergence_options"}
	outputKeys  = []string{"provisioner_url", "server_id"}
)

// UnmarshalJSON implements json.Unmarshaler, keeping unknown keys.
func (n *Node) UnmarshalJSON(data []byte) error {
	var f nodeFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to decode node: %w", err)
	}
	extra, err := unknownKeys(data, nodeKeys)
	if err != nil {
		return err
	}
	*n = Node{Name: f.Name, Options: f.Options, Output: f.Output, extra: extra}
	return nil
}

// MarshalJSON implements json.Marshaler, writing unknown keys back.
func (n Node) MarshalJSON() ([]byte, error) {
	return mergeKeys(nodeFields{Name: n.Name, Options: n.Options, Output: n.Output}, n.extra)
}

// UnmarshalJSON implements json.Unmarshaler, keeping unknown keys.
func (o *Options) UnmarshalJSON(data []byte) error {
	var f optionsFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to decode provisioner_options: %w", err)
	}
	extra, err := unknownKeys(data, optionsKeys)
	if err != nil {
		return err
	}
	*o = Options{
		BootstrapOptions:   f.BootstrapOptions,
		IsWindows:          f.IsWindows,
		SSHUsername:        f.SSHUsername,
		Transport:          f.Transport,
		ConvergenceOptions: f.ConvergenceOptions,
		extra:              extra,
	}
	return nil
}

// MarshalJSON implements json.Marshaler, writing unknown keys back.
func (o Options) MarshalJSON() ([]byte, error) {
	return mergeKeys(optionsFields{
		BootstrapOptions:   o.BootstrapOptions,
		IsWindows:          o.IsWindows,
		SSHUsername:        o.SSHUsername,
		Transport:          o.Transport,
		ConvergenceOptions: o.ConvergenceOptions,
	}, o.extra)
}

// UnmarshalJSON implements json.Unmarshaler, keeping unknown keys.
func (o *Output) UnmarshalJSON(data []byte) error {
	var f outputFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to decode provisioner_output: %w", err)
	}
	extra, err := unknownKeys(data, outputKeys)
	if err != nil {
		return err
	}
	*o = Output{ProvisionerURL: f.ProvisionerURL, ServerID: string(f.ServerID), extra: extra}
	return nil
}

// MarshalJSON implements json.Marshaler, writing unknown keys back.
func (o Output) MarshalJSON() ([]byte, error) {
	return mergeKeys(outputFields{ProvisionerURL: o.ProvisionerURL, ServerID: instanceID(o.ServerID)}, o.extra)
}

func unknownKeys(data []byte, known []string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode object: %w", err)
	}
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

func mergeKeys(fields any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, known := merged[k]; !known {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
