// Package session holds the signed-in member's identity and profile for the
// lifetime of a client process.
package session

import (
	"context"
	"sync"
	"time"

	"heartbridge/internal/auth"
	"heartbridge/internal/models"
	"heartbridge/internal/observability"
	"heartbridge/internal/prefs"
	"heartbridge/internal/repository"
	"heartbridge/internal/theme"
)

// Manager tracks the auth client's identity and loads the matching profile
// on every change. Start attaches it to the auth client and Close detaches
// it.
type Manager struct {
	client *auth.Client
	users  repository.UserRepository
	themes *theme.Manager
	prefs  prefs.Store
	now    func() time.Time

	mu          sync.RWMutex
	ctx         context.Context
	identity    *auth.Identity
	profile     *models.User
	loading     bool
	generation  uint64
	unsubscribe func()
}

// NewManager returns a manager that has not started yet.
func NewManager(client *auth.Client, users repository.UserRepository, themes *theme.Manager, store prefs.Store) *Manager {
	return &Manager{
		client:  client,
		users:   users,
		themes:  themes,
		prefs:   store,
		now:     time.Now,
		ctx:     context.Background(),
		loading: true,
	}
}

// Start subscribes to auth changes. The auth client reports its current
// state immediately, so the first profile load completes before Start
// returns. Calling Start twice is a no-op.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.unsubscribe != nil {
		m.mu.Unlock()
		return
	}
	m.ctx = context.WithoutCancel(ctx)
	m.unsubscribe = func() {}
	m.mu.Unlock()

	unsubscribe := m.client.Subscribe(m.onAuthChange)

	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()
}

// Close detaches from the auth client. Loads still in flight are discarded.
func (m *Manager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.generation++
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Loading reports whether the first auth notification is still being
// processed.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Identity returns the signed-in identity, or nil.
func (m *Manager) Identity() *auth.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return nil
	}
	id := *m.identity
	return &id
}

// Profile returns the signed-in member's profile, or nil when signed out or
// the profile has not been completed.
func (m *Manager) Profile() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return nil
	}
	u := *m.profile
	u.Interests = append([]string(nil), m.profile.Interests...)
	return &u
}

func (m *Manager) onAuthChange(id *auth.Identity) {
	m.mu.RLock()
	ctx := m.ctx
	m.mu.RUnlock()
	m.load(ctx, id)
}

// load records id and its profile. A load superseded by a newer change is
// dropped.
func (m *Manager) load(ctx context.Context, id *auth.Identity) {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.identity = id
	m.mu.Unlock()

	var profile *models.User
	if id != nil {
		p, err := m.users.GetByID(ctx, id.UID)
		switch {
		case err == nil:
			profile = p
		case models.IsNotFound(err):
			observability.GlobalLogger.DebugContext(ctx, "no profile for identity", "uid", id.UID)
		default:
			observability.GlobalLogger.WarnContext(ctx, "failed to load profile",
				"uid", id.UID,
				"error", err,
			)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		observability.GlobalLogger.DebugContext(ctx, "discarding stale profile load", "generation", gen)
		return
	}
	m.profile = profile
	m.loading = false

	switch {
	case id == nil:
		m.setTheme(ctx, models.ThemeNeutral)
	case profile != nil:
		m.setTheme(ctx, profile.Theme())
	}
}

func (m *Manager) setTheme(ctx context.Context, t models.Theme) {
	if m.themes == nil {
		return
	}
	if err := m.themes.Set(ctx, t); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to switch theme", "theme", t, "error", err)
	}
}

// Refresh reloads the profile of the current identity.
func (m *Manager) Refresh(ctx context.Context) {
	m.load(ctx, m.Identity())
}

// SignOut signs out of the auth service, clears the session and resets the
// theme.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.client.SignOut(ctx); err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "sign out failed", "error", err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.identity = nil
	m.profile = nil
	m.loading = false
	m.setTheme(ctx, models.ThemeNeutral)
	return nil
}
