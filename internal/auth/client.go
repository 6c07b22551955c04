package auth

import (
	"context"
	"sync"

	"heartbridge/internal/observability"
)

// Listener receives the signed-in identity, or nil after sign-out.
type Listener func(*Identity)

// Client is the client-side auth session. It remembers the current identity
// and notifies subscribers whenever it changes.
type Client struct {
	backend Backend

	mu        sync.Mutex
	current   *Identity
	listeners map[int]Listener
	nextID    int
}

// NewClient returns a signed-out client using backend.
func NewClient(backend Backend) *Client {
	return &Client{backend: backend, listeners: make(map[int]Listener)}
}

// Current returns a copy of the signed-in identity, or nil.
func (c *Client) Current() *Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyIdentity(c.current)
}

// Subscribe registers fn and immediately calls it once with the current
// state. The returned function removes the subscription.
func (c *Client) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	current := copyIdentity(c.current)
	c.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// SignInWithPassword signs in with email and password.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Identity, error) {
	id, err := c.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.set(ctx, id)
	return copyIdentity(id), nil
}

// SignInWithIDToken signs in with a third-party ID token.
func (c *Client) SignInWithIDToken(ctx context.Context, provider, idToken string) (*Identity, error) {
	id, err := c.backend.SignInWithIDToken(ctx, provider, idToken)
	if err != nil {
		return nil, err
	}
	c.set(ctx, id)
	return copyIdentity(id), nil
}

// Register creates a password account and signs it in.
func (c *Client) Register(ctx context.Context, email, password string) (*Identity, error) {
	id, err := c.backend.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.set(ctx, id)
	return copyIdentity(id), nil
}

// Restore signs in a previously persisted identity without contacting the
// backend.
func (c *Client) Restore(ctx context.Context, id *Identity) {
	c.set(ctx, id)
}

// SignOut clears the identity.
func (c *Client) SignOut(ctx context.Context) error {
	c.set(ctx, nil)
	return nil
}

func (c *Client) set(ctx context.Context, id *Identity) {
	c.mu.Lock()
	c.current = copyIdentity(id)
	listeners := make([]Listener, 0, len(c.listeners))
	for i := 0; i < c.nextID; i++ {
		if fn, ok := c.listeners[i]; ok {
			listeners = append(listeners, fn)
		}
	}
	c.mu.Unlock()

	uid := ""
	if id != nil {
		uid = id.UID
	}
	observability.GlobalLogger.DebugContext(ctx, "auth state changed",
		"uid", uid,
		"subscribers", len(listeners),
	)
	for _, fn := range listeners {
		fn(copyIdentity(id))
	}
}

func copyIdentity(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}
