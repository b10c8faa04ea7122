package session

import (
	"context"
	"sync"

	"github.com/revlinehq/revline-api/internal/authgw"
	"github.com/revlinehq/revline-api/internal/models"
	"github.com/revlinehq/revline-api/internal/roles"
	"github.com/revlinehq/revline-api/pkg/logger"
)

// Gateway is the slice of the auth platform client the store depends on.
type Gateway interface {
	CurrentSession(ctx context.Context) (*models.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	Subscribe(ctx context.Context) (<-chan authgw.Event, func(), error)
}

// ProfileLoader ensures a display profile exists for the identity.
type ProfileLoader interface {
	Load(ctx context.Context, identity *models.Identity, token string) *models.Profile
}

// RoleLoader fetches the role set for the identity.
type RoleLoader interface {
	Load(ctx context.Context, userID string) []string
}

// Store is the process-wide source of truth for who is signed in. It holds
// the current session, identity, profile and role set, replaces them on every
// auth-state change, and exposes capability flags derived from the roles.
// Constructed once at application start; all mutation happens here.
type Store struct {
	gw       Gateway
	profiles ProfileLoader
	roles    RoleLoader

	mu       sync.RWMutex
	identity *models.Identity
	session  *models.Session
	profile  *models.Profile
	roleSet  []string
	loading  bool

	done      chan struct{}
	closeOnce sync.Once
	unsub     func()
}

// Snapshot is an immutable view of the store for read-only consumers.
type Snapshot struct {
	Identity    *models.Identity  `json:"identity,omitempty"`
	Session     *models.Session   `json:"session,omitempty"`
	Profile     *models.Profile   `json:"profile,omitempty"`
	Roles       []string          `json:"roles"`
	Loading     bool              `json:"loading"`
	Permissions roles.Permissions `json:"permissions"`
}

func NewStore(gw Gateway, profiles ProfileLoader, roleLoader RoleLoader) *Store {
	return &Store{
		gw:       gw,
		profiles: profiles,
		roles:    roleLoader,
		done:     make(chan struct{}),
	}
}

// Start subscribes to auth-state changes and performs one initial session
// fetch. Fetch result and events are applied from a single goroutine, so an
// event arriving while the initial fetch is still in flight queues behind it
// and a sign-out reported during startup cannot be overwritten by a stale
// fetch result.
func (st *Store) Start(ctx context.Context) {
	st.mu.Lock()
	st.loading = true
	st.mu.Unlock()

	events, unsub, err := st.gw.Subscribe(ctx)
	if err != nil {
		logger.Warnf("session: auth event stream unavailable: %v", err)
		events = nil
	} else {
		st.unsub = unsub
	}
	go st.run(ctx, events)
}

// run is the only caller of apply besides SignOut's clear. The initial fetch
// covers sessions established before the subscription existed; afterwards
// every state change comes from the event stream, in order.
func (st *Store) run(ctx context.Context, events <-chan authgw.Event) {
	sess, err := st.gw.CurrentSession(ctx)
	if err != nil {
		logger.Errorf("session: initial session fetch failed: %v", err)
		sess = nil
	}
	st.apply(ctx, sess)

	if events == nil {
		return
	}
	for {
		select {
		case <-st.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			logger.Debugf("session: auth event %s", ev.Type)
			st.apply(ctx, ev.Session)
		}
	}
}

func (st *Store) closed() bool {
	select {
	case <-st.done:
		return true
	default:
		return false
	}
}

// apply replaces the held session and identity atomically, then runs the
// profile and role loaders concurrently. Loading clears only after both
// settle. A session without an identity clears profile and roles without
// invoking the loaders. Continuations are guarded against Close.
func (st *Store) apply(ctx context.Context, sess *models.Session) {
	if st.closed() {
		return
	}
	st.mu.Lock()
	st.session = sess
	var ident *models.Identity
	if sess != nil {
		ident = sess.Identity
	}
	st.identity = ident
	if ident == nil {
		st.profile = nil
		st.roleSet = nil
		st.loading = false
		st.mu.Unlock()
		return
	}
	st.loading = true
	token := sess.AccessToken
	st.mu.Unlock()

	var (
		prof    *models.Profile
		roleSet []string
		wg      sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		prof = st.profiles.Load(ctx, ident, token)
	}()
	go func() {
		defer wg.Done()
		roleSet = st.roles.Load(ctx, ident.ID)
	}()
	wg.Wait()

	if st.closed() {
		return
	}
	st.mu.Lock()
	// a concurrent sign-out may have cleared the identity while the loaders ran
	if st.identity != nil && st.identity.ID == ident.ID {
		st.profile = prof
		st.roleSet = roleSet
	}
	st.loading = false
	st.mu.Unlock()
}

// SignOut invalidates the session on the platform and clears local state.
// On platform failure the local state is left untouched and the error is
// returned to the caller.
func (st *Store) SignOut(ctx context.Context) error {
	st.mu.RLock()
	var token string
	if st.session != nil {
		token = st.session.AccessToken
	}
	st.mu.RUnlock()

	if err := st.gw.SignOut(ctx, token); err != nil {
		return err
	}
	st.mu.Lock()
	st.identity = nil
	st.session = nil
	st.profile = nil
	st.roleSet = nil
	st.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current state plus derived permissions.
func (st *Store) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	rs := make([]string, len(st.roleSet))
	copy(rs, st.roleSet)
	return Snapshot{
		Identity:    st.identity,
		Session:     st.session,
		Profile:     st.profile,
		Roles:       rs,
		Loading:     st.loading,
		Permissions: roles.Derive(rs),
	}
}

// Loading reports whether a session change is still resolving its loaders.
func (st *Store) Loading() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.loading
}

// Permissions returns capability flags for the current role set.
func (st *Store) Permissions() roles.Permissions {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return roles.Derive(st.roleSet)
}

// Close unsubscribes from the event stream and drops any in-flight
// continuations. Safe to call more than once.
func (st *Store) Close() {
	st.closeOnce.Do(func() {
		close(st.done)
	})
	if st.unsub != nil {
		st.unsub()
	}
}
