package labels

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Standard label keys, namespaced under fogprov.io.
const (
	// KeyNode holds the node name an instance was created for.
	KeyNode = "fogprov.io/node"

	// KeyProvisioner holds ProvisionerValue of the provisioner identity.
	KeyProvisioner = "fogprov.io/provisioner"

	// KeyManagedBy identifies the management system.
	KeyManagedBy = "fogprov.io/managed-by"
)

const reservedPrefix = "fogprov.io/"

// ManagedByFogprov is the KeyManagedBy value.
const ManagedByFogprov = "fogprov"

// ProvisionerValue derives a label-safe value from a provisioner URL.
// Provider label values may not contain ':' so the URL is hashed.
func ProvisionerValue(provisionerURL string) string {
	sum := sha256.Sum256([]byte(provisionerURL))
	return hex.EncodeToString(sum[:])[:16]
}

// LabelBuilder builds instance label sets.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder starts a label set for the given provisioner URL.
func NewLabelBuilder(provisionerURL string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyProvisioner: ProvisionerValue(provisionerURL),
			KeyManagedBy:   ManagedByFogprov,
		},
	}
}

// WithNode adds the node label.
func (lb *LabelBuilder) WithNode(name string) *LabelBuilder {
	lb.labels[KeyNode] = name
	return lb
}

// Merge adds user labels. Keys under the fogprov.io/ prefix are reserved
// and silently dropped.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		if strings.HasPrefix(k, reservedPrefix) {
			continue
		}
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// Selector renders labels as an API label selector, sorted by key.
func Selector(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k])
	}
	return strings.Join(parts, ",")
}

// ForNode returns the selector labels identifying a node's instances.
func ForNode(provisionerURL, nodeName string) map[string]string {
	return map[string]string{
		KeyProvisioner: ProvisionerValue(provisionerURL),
		KeyNode:        nodeName,
	}
}

// ForProvisioner returns the selector labels for all instances of a provisioner.
func ForProvisioner(provisionerURL string) map[string]string {
	return map[string]string{
		KeyProvisioner: ProvisionerValue(provisionerURL),
	}
}
