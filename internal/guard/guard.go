// Package guard gates protected views on identity and role resolution.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/caffeinepub/agencydesk/pkg/sdk"
)

// State is what a protected view may show.
type State int

const (
	Initializing State = iota
	Unauthenticated
	ResolvingRole
	Denied
	Granted
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Unauthenticated:
		return "unauthenticated"
	case ResolvingRole:
		return "resolving-role"
	case Denied:
		return "denied"
	case Granted:
		return "granted"
	}
	return "unknown"
}

// IdentitySignal is the identity provider's view of the session.
type IdentitySignal struct {
	Initializing bool
	Present      bool
	// Principal distinguishes one present identity from the next.
	Principal string
}

// RoleStatus tracks the role fetch.
type RoleStatus int

const (
	RolePending RoleStatus = iota
	RoleResolved
	RoleFailed
)

// RoleSignal is the outcome of the latest role fetch.
type RoleSignal struct {
	Status RoleStatus
	Admin  bool
	Err    error
}

// Evaluate maps the two signals onto a State. A pending or failed role fetch
// never grants.
func Evaluate(id IdentitySignal, role RoleSignal) State {
	if id.Initializing {
		return Initializing
	}
	if !id.Present {
		return Unauthenticated
	}
	switch role.Status {
	case RoleResolved:
		if role.Admin {
			return Granted
		}
		return Denied
	case RoleFailed:
		return Denied
	default:
		return ResolvingRole
	}
}

// Verifier re-validates admin status against the backend.
type Verifier interface {
	VerifyAdmin(ctx context.Context) (bool, error)
}

// Confirmer is implemented by verifiers that can tell whether a positive
// answer is still backed by fresh data. Resolve checks it before granting.
type Confirmer interface {
	Confirmed() bool
}

// ErrRoleUnsettled is reported when the role kept changing while it was
// being resolved.
var ErrRoleUnsettled = errors.New("role changed during verification")

const maxResolveAttempts = 3

// Guard holds the signals of one protected view and re-evaluates on every
// change. After Close it ignores further signals.
type Guard struct {
	mu        sync.Mutex
	identity  IdentitySignal
	role      RoleSignal
	state     State
	epoch     uint64
	closed    bool
	listeners []func(State)
	onClose   []func()
	logger    *slog.Logger
}

// New returns a guard in the Initializing state.
func New(logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		identity: IdentitySignal{Initializing: true},
		state:    Initializing,
		logger:   logger.With("component", "guard"),
	}
}

// State returns the current decision.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Granted reports whether protected children may render.
func (g *Guard) Granted() bool {
	return g.State() == Granted
}

// Err returns the error of a failed role fetch, if any.
func (g *Guard) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.role.Err
}

// OnChange registers fn to run after every state transition.
func (g *Guard) OnChange(fn func(State)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// OnClose registers cleanup to run when the guard is closed.
func (g *Guard) OnClose(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onClose = append(g.onClose, fn)
}

// SetIdentity records a new identity signal. Any identity change resets the
// role to pending, and role results requested before it are dropped.
func (g *Guard) SetIdentity(id IdentitySignal) {
	g.update(func() bool {
		if id == g.identity {
			return false
		}
		g.identity = id
		g.role = RoleSignal{Status: RolePending}
		g.epoch++
		return true
	})
}

// SetRole records the outcome of a role fetch.
func (g *Guard) SetRole(role RoleSignal) {
	g.update(func() bool {
		g.role = role
		return true
	})
}

// InvalidateRole drops a settled role decision so the view waits for a new
// one. It reports whether the caller should run Resolve; false means the
// guard is closed, has no identity, or is already resolving.
func (g *Guard) InvalidateRole() bool {
	invalidated := false
	g.update(func() bool {
		if g.identity.Initializing || !g.identity.Present || g.role.Status == RolePending {
			return false
		}
		g.role = RoleSignal{Status: RolePending}
		invalidated = true
		return true
	})
	return invalidated
}

// ReportError feeds an error from a protected query back into the guard.
// Unauthorized moves the view to Denied; other errors are left to the caller.
func (g *Guard) ReportError(err error) {
	if !errors.Is(err, sdk.ErrUnauthorized) {
		return
	}
	g.SetRole(RoleSignal{Status: RoleFailed, Err: err})
}

// Resolve asks v for a fresh admin decision and applies it, unless the guard
// was closed or the identity changed while the call was in flight. When v is
// a Confirmer, a positive answer that is no longer confirmed is fetched again.
func (g *Guard) Resolve(ctx context.Context, v Verifier) State {
	g.mu.Lock()
	if g.closed || g.identity.Initializing || !g.identity.Present {
		state := g.state
		g.mu.Unlock()
		return state
	}
	epoch := g.epoch
	g.mu.Unlock()

	g.update(func() bool {
		if g.role.Status == RolePending {
			return false
		}
		g.role = RoleSignal{Status: RolePending}
		return true
	})

	confirmer, _ := v.(Confirmer)
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		admin, err := v.VerifyAdmin(ctx)

		signal := RoleSignal{Status: RoleResolved, Admin: admin}
		if err != nil {
			signal = RoleSignal{Status: RoleFailed, Err: err}
		}

		stale, superseded := false, false
		g.update(func() bool {
			if g.epoch != epoch {
				stale = true
				return false
			}
			if signal.Admin && confirmer != nil && !confirmer.Confirmed() {
				superseded = true
				return false
			}
			g.role = signal
			return true
		})
		if stale {
			g.logger.Debug("discarding role result for previous identity")
			return g.State()
		}
		if !superseded {
			return g.State()
		}
		g.logger.Debug("role changed during verification, retrying", "attempt", attempt+1)
	}

	g.update(func() bool {
		if g.epoch != epoch {
			return false
		}
		g.role = RoleSignal{Status: RoleFailed, Err: ErrRoleUnsettled}
		return true
	})
	return g.State()
}

// Close detaches the guard from its view.
func (g *Guard) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	cleanup := g.onClose
	g.onClose = nil
	g.listeners = nil
	g.mu.Unlock()

	for _, fn := range cleanup {
		fn()
	}
}

func (g *Guard) update(mutate func() bool) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	if !mutate() {
		g.mu.Unlock()
		return
	}
	prev := g.state
	g.state = Evaluate(g.identity, g.role)
	next := g.state
	listeners := append([]func(State){}, g.listeners...)
	g.mu.Unlock()

	if prev == next {
		return
	}
	g.logger.Debug("guard transition", "from", prev, "to", next)
	for _, fn := range listeners {
		fn(next)
	}
}
