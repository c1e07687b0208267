package provisioning

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
)

// Logger is the minimal printf-style logging interface.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Observer defines the interface for structured observability during provisioning.
type Observer interface {
	Logger

	// Event emits a structured event
	Event(event Event)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Operation name (e.g., "acquire", "delete")
	Message   string            // Human-readable message
	Resource  string            // Node or instance name if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of provisioning event.
type EventType string

const (
	EventPhaseStarted   EventType = "phase.started"
	EventPhaseCompleted EventType = "phase.completed"
	EventPhaseFailed    EventType = "phase.failed"

	EventResourceCreating EventType = "resource.creating"
	EventResourceCreated  EventType = "resource.created"
	EventResourceExists   EventType = "resource.exists"
	EventResourceStarting EventType = "resource.starting"
	EventResourceAdopted  EventType = "resource.adopted"
	EventResourceDeleting EventType = "resource.deleting"
	EventResourceDeleted  EventType = "resource.deleted"
)

// ConsoleObserver implements Observer using standard log package.
type ConsoleObserver struct {
	contextFields map[string]string
}

// NewConsoleObserver creates a new console-based observer.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{
		contextFields: make(map[string]string),
	}
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

// Event implements Observer interface.
func (o *ConsoleObserver) Event(event Event) {
	event = withContext(event, o.contextFields)
	log.Print(FormatEvent(event))
}

// WithFields implements Observer interface.
func (o *ConsoleObserver) WithFields(fields map[string]string) Observer {
	return &ConsoleObserver{contextFields: mergeFields(o.contextFields, fields)}
}

// FormatEvent renders an event as a single log line. Fields are sorted by key.
func FormatEvent(event Event) string {
	var parts []string
	parts = append(parts, string(event.Type))

	if event.Phase != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Phase))
	}
	if event.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource=%s", event.Resource))
	}
	parts = append(parts, event.Message)

	if len(event.Fields) > 0 {
		keys := make([]string, 0, len(event.Fields))
		for k := range event.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fieldParts := make([]string, 0, len(keys))
		for _, k := range keys {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%s", k, event.Fields[k]))
		}
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(fieldParts, ", ")))
	}

	return strings.Join(parts, " ")
}

func withContext(event Event, contextFields map[string]string) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	fields := make(map[string]string, len(event.Fields)+len(contextFields))
	for k, v := range contextFields {
		fields[k] = v
	}
	for k, v := range event.Fields {
		fields[k] = v
	}
	event.Fields = fields
	return event
}

func mergeFields(base, extra map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) Printf(string, ...interface{})           {}
func (NopObserver) Event(Event)                             {}
func (n NopObserver) WithFields(map[string]string) Observer { return n }

// LogPhaseStart logs an operation start event.
func LogPhaseStart(observer Observer, phase, resource string) {
	observer.Event(Event{Type: EventPhaseStarted, Phase: phase, Resource: resource, Message: "starting"})
}

// LogPhaseComplete logs an operation completion event.
func LogPhaseComplete(observer Observer, phase, resource string, duration time.Duration) {
	observer.Event(Event{
		Type:     EventPhaseCompleted,
		Phase:    phase,
		Resource: resource,
		Message:  fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogPhaseFailed logs an operation failure event.
func LogPhaseFailed(observer Observer, phase, resource string, err error) {
	observer.Event(Event{
		Type:     EventPhaseFailed,
		Phase:    phase,
		Resource: resource,
		Message:  fmt.Sprintf("failed: %v", err),
	})
}

// LogResourceCreating logs an instance creation start event.
func LogResourceCreating(observer Observer, phase, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceCreating,
		Phase:    phase,
		Resource: resourceName,
		Message:  "creating instance",
	})
}

// LogResourceCreated logs a successful instance creation event.
func LogResourceCreated(observer Observer, phase, resourceName, id string) {
	observer.Event(Event{
		Type:     EventResourceCreated,
		Phase:    phase,
		Resource: resourceName,
		Message:  "instance created",
		Fields:   map[string]string{"id": id},
	})
}

// LogResourceExists logs when the recorded instance is reused.
func LogResourceExists(observer Observer, phase, resourceName, id, status string) {
	observer.Event(Event{
		Type:     EventResourceExists,
		Phase:    phase,
		Resource: resourceName,
		Message:  "instance already exists",
		Fields:   map[string]string{"id": id, "status": status},
	})
}

// LogResourceStarting logs when a stopped instance is powered on.
func LogResourceStarting(observer Observer, phase, resourceName, id string) {
	observer.Event(Event{
		Type:     EventResourceStarting,
		Phase:    phase,
		Resource: resourceName,
		Message:  "starting stopped instance",
		Fields:   map[string]string{"id": id},
	})
}

// LogResourceAdopted logs when an unrecorded instance labelled for the node
// is taken over instead of creating a new one.
func LogResourceAdopted(observer Observer, phase, resourceName, id string) {
	observer.Event(Event{
		Type:     EventResourceAdopted,
		Phase:    phase,
		Resource: resourceName,
		Message:  "adopting unrecorded instance",
		Fields:   map[string]string{"id": id},
	})
}

// LogResourceDeleting logs an instance deletion start event.
func LogResourceDeleting(observer Observer, phase, resourceName, id string) {
	observer.Event(Event{
		Type:     EventResourceDeleting,
		Phase:    phase,
		Resource: resourceName,
		Message:  "deleting instance",
		Fields:   map[string]string{"id": id},
	})
}

// LogResourceDeleted logs a successful instance deletion event.
func LogResourceDeleted(observer Observer, phase, resourceName, id string) {
	observer.Event(Event{
		Type:     EventResourceDeleted,
		Phase:    phase,
		Resource: resourceName,
		Message:  "instance deleted",
		Fields:   map[string]string{"id": id},
	})
}
