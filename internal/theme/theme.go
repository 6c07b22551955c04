// Package theme holds the active UI theme and mirrors it to registered
// reflectors.
package theme

import (
	"context"
	"fmt"
	"sync"

	"heartbridge/internal/models"
	"heartbridge/internal/observability"
	"heartbridge/internal/prefs"
)

// Reflector applies a theme to its surroundings, e.g. a terminal palette or
// a response header.
type Reflector interface {
	ReflectTheme(models.Theme)
}

// ReflectorFunc adapts a function to Reflector.
type ReflectorFunc func(models.Theme)

func (f ReflectorFunc) ReflectTheme(t models.Theme) { f(t) }

// Manager holds the current theme. It is safe for concurrent use.
// Reflectors run with the manager locked and must not call back into it.
type Manager struct {
	store prefs.Store

	mu         sync.Mutex
	current    models.Theme
	reflectors []Reflector
}

// NewManager returns a manager showing the neutral theme. store may be nil
// for a manager that never persists.
func NewManager(store prefs.Store, reflectors ...Reflector) *Manager {
	return &Manager{
		store:      store,
		current:    models.ThemeNeutral,
		reflectors: reflectors,
	}
}

// AddReflector registers r and immediately shows it the current theme.
func (m *Manager) AddReflector(r Reflector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reflectors = append(m.reflectors, r)
	r.ReflectTheme(m.current)
}

// Current returns the active theme.
func (m *Manager) Current() models.Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Load restores the persisted theme. Unknown stored values are ignored.
func (m *Manager) Load(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	v, ok, err := m.store.Get(ctx, prefs.KeyTheme)
	if err != nil {
		return fmt.Errorf("load theme: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t := models.Theme(v); ok && t.Valid() {
		m.current = t
	} else if ok {
		observability.GlobalLogger.WarnContext(ctx, "ignoring unknown stored theme", "theme", v)
	}
	m.reflect()
	return nil
}

// Set switches to t and persists it. The switch takes effect even when
// persisting fails.
func (m *Manager) Set(ctx context.Context, t models.Theme) error {
	if !t.Valid() {
		return models.NewValidationError(fmt.Sprintf("unknown theme %q", t))
	}

	m.mu.Lock()
	m.current = t
	m.reflect()
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	if err := m.store.Set(ctx, prefs.KeyTheme, string(t)); err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	return nil
}

func (m *Manager) reflect() {
	for _, r := range m.reflectors {
		r.ReflectTheme(m.current)
	}
}
