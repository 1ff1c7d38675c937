package game

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"prize-door-game/internal/config"
)

// ErrUnknownMode is returned by Lookup for an unregistered command.
var ErrUnknownMode = errors.New("unknown game mode")

// Registry manages mode registration and lookup.
// It is safe for concurrent use.
type Registry struct {
	modes map[string]Mode
	mu    sync.RWMutex
}

// NewRegistry creates a registry holding the classic mode.
func NewRegistry() *Registry {
	return &Registry{
		modes: map[string]Mode{ClassicCommand: Classic()},
	}
}

// NewRegistryFromConfig creates a registry with the classic mode plus every
// configured mode. A configured mode may replace classic.
func NewRegistryFromConfig(cfg *config.GamesConfig) (*Registry, error) {
	r := NewRegistry()
	for _, mc := range cfg.Modes {
		if err := r.Register(FromConfig(mc)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a mode to the registry.
// If a mode with the same command already exists, it will be replaced.
func (r *Registry) Register(m Mode) error {
	if err := m.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes[m.Command] = m
	return nil
}

// Get retrieves a mode by its command.
func (r *Registry) Get(command string) (Mode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modes[command]
	return m, ok
}

// Lookup retrieves a mode or returns ErrUnknownMode.
func (r *Registry) Lookup(command string) (Mode, error) {
	m, ok := r.Get(command)
	if !ok {
		return Mode{}, fmt.Errorf("%w: %q", ErrUnknownMode, command)
	}
	return m, nil
}

// List returns all registered modes sorted by command.
// The returned slice is a copy, so modifications won't affect the registry.
func (r *Registry) List() []Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modes := make([]Mode, 0, len(r.modes))
	for _, m := range r.modes {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i].Command < modes[j].Command })
	return modes
}

// Commands returns all registered mode commands, sorted.
func (r *Registry) Commands() []string {
	modes := r.List()
	commands := make([]string, len(modes))
	for i, m := range modes {
		commands[i] = m.Command
	}
	return commands
}

// Count returns the number of registered modes.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modes)
}
