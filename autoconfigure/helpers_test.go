package autoconfigure

import (
	"context"
	"sync"

	aadfilter "github.com/aadauth/go-aad-filter"
	"github.com/aadauth/go-aad-filter/config"
	"github.com/aadauth/go-aad-filter/telemetry"
)

type trackedEvent struct {
	name       string
	properties map[string]string
}

type recordingTracker struct {
	mu     sync.Mutex
	events []trackedEvent
}

func (r *recordingTracker) TrackEvent(name string, properties map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, trackedEvent{name: name, properties: properties})
}

func (r *recordingTracker) Events() []trackedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]trackedEvent(nil), r.events...)
}

type recordingSink struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (s *recordingSink) Send(_ context.Context, event telemetry.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []telemetry.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]telemetry.Event(nil), s.events...)
}

var acceptAll = aadfilter.TokenValidatorFunc(func(_ context.Context, token string) (*aadfilter.UserPrincipal, error) {
	return &aadfilter.UserPrincipal{Subject: token}, nil
})

func credentials(clientID, clientSecret string) *config.FilterProperties {
	props := config.DefaultFilterProperties()
	props.ClientID = clientID
	props.ClientSecret = clientSecret
	return &props
}

var web = Environment{WebApplication: true}
