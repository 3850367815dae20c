package event

import (
	"slices"
	"sync"

	"github.com/perfume/backend/internal/domain/shared"
)

// subscription binds a handler to the event types it receives.
// A nil types set matches every event.
type subscription struct {
	handler shared.EventHandler
	types   map[string]struct{}
}

func (s subscription) matches(eventType string) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// HandlerRegistry keeps handler subscriptions in registration order, so
// handlers of one event always run in the order they were added
type HandlerRegistry struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{}
}

// Register subscribes handler to eventTypes, or to every event when none are
// given. Registering a handler again widens its existing subscription and
// keeps its original position.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(handler)
	if i < 0 {
		r.subs = append(r.subs, subscription{handler: handler, types: typeSet(eventTypes)})
		return
	}
	sub := &r.subs[i]
	if sub.types == nil {
		return
	}
	if len(eventTypes) == 0 {
		sub.types = nil
		return
	}
	for _, t := range eventTypes {
		sub.types[t] = struct{}{}
	}
}

// Unregister drops every subscription of handler
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = slices.DeleteFunc(r.subs, func(s subscription) bool {
		return s.handler == handler
	})
}

// GetHandlers returns the handlers subscribed to eventType in registration
// order
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []shared.EventHandler
	for _, s := range r.subs {
		if s.matches(eventType) {
			out = append(out, s.handler)
		}
	}
	return out
}

// GetAllHandlers returns every registered handler once
func (r *HandlerRegistry) GetAllHandlers() []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]shared.EventHandler, len(r.subs))
	for i, s := range r.subs {
		out[i] = s.handler
	}
	return out
}

// Len returns the number of registered handlers
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

func (r *HandlerRegistry) indexOf(handler shared.EventHandler) int {
	return slices.IndexFunc(r.subs, func(s subscription) bool {
		return s.handler == handler
	})
}

func typeSet(eventTypes []string) map[string]struct{} {
	if len(eventTypes) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(eventTypes))
	for _, t := range eventTypes {
		set[t] = struct{}{}
	}
	return set
}
