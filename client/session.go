package client

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Route is the screen the gate resolves to on launch.
type Route string

const (
	// RouteApp is the main shell for an authenticated user.
	RouteApp Route = "app"
	// RouteWelcome greets a brand-new install.
	RouteWelcome Route = "welcome"
	// RouteOnboarding continues a started but unfinished first run.
	RouteOnboarding Route = "onboarding"
	// RouteSignIn is the fallback for a signed-out returning user.
	RouteSignIn Route = "sign-in"
)

// Gate decides the launch route from the stored session and the device
// flags. Both inputs resolve concurrently and no route is produced until
// both are in.
type Gate struct {
	client *Client
	flags  *FlagStore

	mu       sync.Mutex
	resolved bool
	authed   bool
	closed   bool

	authCh chan bool
}

// NewGate creates a session gate over the given client and flag store.
func NewGate(client *Client, flags *FlagStore) *Gate {
	return &Gate{
		client: client,
		flags:  flags,
		authCh: make(chan bool, 4),
	}
}

// Resolve loads the session and the device flags concurrently, then
// computes the route. Until it returns there is no route.
func (g *Gate) Resolve(ctx context.Context) (Route, error) {
	var authed bool

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		// The token is stateless; a stored session that still decodes a
		// profile counts as signed in.
		if g.client.Session() == nil {
			return nil
		}
		if _, err := g.client.GetUser(ctx); err != nil {
			// Only a rejected token means the session is dead. A server
			// or network failure keeps it for a later retry.
			var apiErr *APIError
			if asAPIError(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
				g.client.SignOut()
				return nil
			}
			return err
		}
		authed = true
		return nil
	})
	eg.Go(func() error {
		return g.flags.Load()
	})
	if err := eg.Wait(); err != nil {
		return "", err
	}

	g.mu.Lock()
	g.resolved = true
	g.authed = authed
	g.mu.Unlock()

	return g.route(authed), nil
}

// route applies the fixed precedence: an authenticated user always lands in
// the app shell; otherwise a fresh install sees the welcome screen, a
// started-but-unfinished install resumes onboarding, and everyone else
// signs in.
func (g *Gate) route(authed bool) Route {
	switch {
	case authed:
		return RouteApp
	case g.flags.IsFirstTime():
		return RouteWelcome
	case !g.flags.HasCompletedOnboarding():
		return RouteOnboarding
	default:
		return RouteSignIn
	}
}

// Route returns the current route. Callers must have resolved first; before
// that the gate reports no route with ok false.
func (g *Gate) Route() (Route, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.resolved {
		return "", false
	}
	return g.route(g.authed), true
}

// SetAuthenticated feeds an auth-state change into the gate, rerouting on
// sign-in and sign-out. Changes after Close are dropped.
func (g *Gate) SetAuthenticated(authed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.authed = authed
	select {
	case g.authCh <- authed:
	default:
	}
}

// AuthChanges exposes the auth-state change feed.
func (g *Gate) AuthChanges() <-chan bool {
	return g.authCh
}

// Close stops the gate; later auth changes are ignored.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	close(g.authCh)
}
