// Package telemetry sends anonymous usage events for the AAD filter.
//
// Events are best effort. A Tracker never blocks its caller and never
// reports a failure back to it: delivery problems are logged and dropped.
package telemetry

import (
	"context"
	"sort"
	"time"
)

// Property keys attached to every event.
const (
	ServiceNameKey    = "serviceName"
	VersionKey        = "version"
	OSKey             = "os"
	ArchKey           = "arch"
	InstallationIDKey = "installationId"
)

// Event is a named usage signal with string properties.
type Event struct {
	Name       string
	Properties map[string]string
	Timestamp  time.Time
}

// SortedKeys returns the property keys in lexical order.
func (e Event) SortedKeys() []string {
	keys := make([]string, 0, len(e.Properties))
	for k := range e.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tracker records events. Implementations must return immediately.
type Tracker interface {
	TrackEvent(name string, properties map[string]string)
}

// TrackerFunc adapts a function to Tracker.
type TrackerFunc func(name string, properties map[string]string)

// TrackEvent calls f.
func (f TrackerFunc) TrackEvent(name string, properties map[string]string) {
	f(name, properties)
}

// Discard is a Tracker that drops every event.
var Discard Tracker = TrackerFunc(func(string, map[string]string) {})

// Sink delivers a single event to a collection backend. Send may block;
// the Proxy calls it off the caller's goroutine.
type Sink interface {
	Send(ctx context.Context, event Event) error
}

// Logger defines the logging interface used by this package. It is
// satisfied by the adapters in the root aadfilter package.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Warnf(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}
