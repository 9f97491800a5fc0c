package review

import (
	"strings"
	"sync"
)

// Entry is one registered reviewer.
type Entry struct {
	Name     string
	Reviewer Reviewer
}

// Registry holds reviewers in registration order. Registering a name again
// replaces its reviewer and keeps the slot of the first registration.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds r under its own name.
func (g *Registry) Register(r Reviewer) {
	g.RegisterAs(r.Name(), r)
}

// RegisterAs adds or replaces the reviewer for name.
func (g *Registry) RegisterAs(name string, r Reviewer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i, ok := g.index[name]; ok {
		g.entries[i].Reviewer = r
		return
	}
	g.index[name] = len(g.entries)
	g.entries = append(g.entries, Entry{Name: name, Reviewer: r})
}

// Lookup returns the reviewer registered under name.
func (g *Registry) Lookup(name string) (Reviewer, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.entries[i].Reviewer, true
}

// List returns a snapshot of the entries in registration order.
func (g *Registry) List() []Entry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Entry, len(g.entries))
	copy(out, g.entries)
	return out
}

// Names returns the registered names in order.
func (g *Registry) Names() []string {
	entries := g.List()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Len returns the number of registered reviewers.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

func (g *Registry) String() string {
	return strings.Join(g.Names(), ", ")
}
