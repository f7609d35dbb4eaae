package core

import (
	"sort"
	"strings"
)

// Registry indexes live sessions by display name and by id.
// It is not safe for concurrent use; the Hub serializes access.
type Registry struct {
	byName map[string]*Session
	byID   map[string]*Session
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Session),
		byID:   make(map[string]*Session),
	}
}

// Register inserts a session under its current name.
func (r *Registry) Register(s *Session) error {
	if strings.TrimSpace(s.name) == "" {
		return ErrNameEmpty
	}
	if _, exists := r.byName[s.name]; exists {
		return ErrNameTaken
	}
	r.byName[s.name] = s
	r.byID[s.ID] = s
	return nil
}

// Rename moves the session registered as oldName to newName.
func (r *Registry) Rename(oldName, newName string) error {
	if strings.TrimSpace(newName) == "" {
		return ErrNameEmpty
	}
	if newName == oldName {
		return ErrNameUnchanged
	}
	if _, exists := r.byName[newName]; exists {
		return ErrNameTaken
	}
	s, ok := r.byName[oldName]
	if !ok {
		return ErrNotRegistered
	}

	delete(r.byName, oldName)
	s.name = newName
	r.byName[newName] = s
	return nil
}

// Lookup returns the session with the given name, or nil.
func (r *Registry) Lookup(name string) *Session {
	return r.byName[name]
}

// LookupID returns the session with the given id, or nil.
func (r *Registry) LookupID(id string) *Session {
	return r.byID[id]
}

// Remove deletes s. Returns true if it was registered.
func (r *Registry) Remove(s *Session) bool {
	if r.byID[s.ID] != s {
		return false
	}
	delete(r.byID, s.ID)
	if r.byName[s.name] == s {
		delete(r.byName, s.name)
	}
	return true
}

// Snapshot returns all registered sessions.
func (r *Registry) Snapshot() []*Session {
	sessions := make([]*Session, 0, len(r.byName))
	for _, s := range r.byName {
		sessions = append(sessions, s)
	}
	return sessions
}

// Names returns registered display names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
