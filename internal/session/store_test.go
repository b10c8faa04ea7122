package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/revlinehq/revline-api/internal/authgw"
	"github.com/revlinehq/revline-api/internal/models"
	"github.com/revlinehq/revline-api/internal/roles"
)

type fakeGateway struct {
	mu           sync.Mutex
	sess         *models.Session
	sessErr      error
	signOutErr   error
	signOutCalls int
	events       chan authgw.Event
	fetchGate    chan struct{} // when set, CurrentSession blocks until closed
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{events: make(chan authgw.Event, 4)}
}

func (g *fakeGateway) CurrentSession(ctx context.Context) (*models.Session, error) {
	if g.fetchGate != nil {
		<-g.fetchGate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sess, g.sessErr
}

func (g *fakeGateway) SignOut(ctx context.Context, accessToken string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.signOutCalls++
	return g.signOutErr
}

func (g *fakeGateway) Subscribe(ctx context.Context) (<-chan authgw.Event, func(), error) {
	return g.events, func() {}, nil
}

type fakeProfiles struct {
	calls int32
	prof  *models.Profile
}

func (f *fakeProfiles) Load(ctx context.Context, identity *models.Identity, token string) *models.Profile {
	atomic.AddInt32(&f.calls, 1)
	return f.prof
}

type fakeRoles struct {
	calls int32
	set   []string
}

func (f *fakeRoles) Load(ctx context.Context, userID string) []string {
	atomic.AddInt32(&f.calls, 1)
	return f.set
}

func testSession(id string) *models.Session {
	return &models.Session{
		AccessToken: "tok-" + id,
		ExpiresAt:   time.Now().Add(time.Hour),
		Identity:    &models.Identity{ID: id, Email: id + "@example.com"},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestStore_InitialFetchPopulatesState(t *testing.T) {
	gw := newFakeGateway()
	gw.sess = testSession("u1")
	profiles := &fakeProfiles{prof: &models.Profile{UserID: "u1", DisplayName: "Sam"}}
	roleLoader := &fakeRoles{set: []string{roles.RoleAdmin}}

	st := NewStore(gw, profiles, roleLoader)
	defer st.Close()
	st.Start(context.Background())

	waitFor(t, func() bool {
		snap := st.Snapshot()
		return snap.Identity != nil && !snap.Loading
	})

	snap := st.Snapshot()
	if snap.Identity.ID != "u1" {
		t.Fatalf("unexpected identity: %+v", snap.Identity)
	}
	if snap.Profile == nil || snap.Profile.DisplayName != "Sam" {
		t.Fatalf("unexpected profile: %+v", snap.Profile)
	}
	if !snap.Permissions.Admin || !snap.Permissions.CanDownload {
		t.Fatalf("unexpected permissions: %+v", snap.Permissions)
	}
	if atomic.LoadInt32(&profiles.calls) != 1 || atomic.LoadInt32(&roleLoader.calls) != 1 {
		t.Fatalf("expected one call to each loader, got %d/%d", profiles.calls, roleLoader.calls)
	}
}

func TestStore_SignedInEventReplacesState(t *testing.T) {
	gw := newFakeGateway()
	profiles := &fakeProfiles{}
	roleLoader := &fakeRoles{set: []string{roles.RoleContributor}}

	st := NewStore(gw, profiles, roleLoader)
	defer st.Close()
	st.Start(context.Background())

	waitFor(t, func() bool { return !st.Loading() })

	gw.events <- authgw.Event{Type: authgw.EventSignedIn, Session: testSession("u2")}

	waitFor(t, func() bool {
		snap := st.Snapshot()
		return snap.Identity != nil && snap.Identity.ID == "u2" && !snap.Loading
	})
	if p := st.Permissions(); !p.Contributor || !p.CanUpload {
		t.Fatalf("unexpected permissions after sign-in: %+v", p)
	}
}

func TestStore_NilIdentityClearsWithoutLoaders(t *testing.T) {
	gw := newFakeGateway()
	profiles := &fakeProfiles{prof: &models.Profile{UserID: "u1"}}
	roleLoader := &fakeRoles{set: []string{roles.RoleAdmin}}

	st := NewStore(gw, profiles, roleLoader)
	defer st.Close()
	st.apply(context.Background(), testSession("u1"))
	if st.Snapshot().Identity == nil {
		t.Fatal("setup: expected identity")
	}
	loaderCalls := atomic.LoadInt32(&profiles.calls)

	// a session event without an identity clears everything
	st.apply(context.Background(), &models.Session{AccessToken: "anon"})

	snap := st.Snapshot()
	if snap.Identity != nil || snap.Profile != nil || len(snap.Roles) != 0 {
		t.Fatalf("expected cleared state, got %+v", snap)
	}
	if snap.Loading {
		t.Fatal("loading should be false after clear")
	}
	if atomic.LoadInt32(&profiles.calls) != loaderCalls {
		t.Fatal("loaders must not run for a session without identity")
	}
}

func TestStore_SignOutSuccessClearsAllState(t *testing.T) {
	gw := newFakeGateway()
	profiles := &fakeProfiles{prof: &models.Profile{UserID: "u1"}}
	roleLoader := &fakeRoles{set: []string{roles.RoleAdmin}}

	st := NewStore(gw, profiles, roleLoader)
	defer st.Close()
	st.apply(context.Background(), testSession("u1"))

	if err := st.SignOut(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := st.Snapshot()
	if snap.Identity != nil || snap.Session != nil || snap.Profile != nil || len(snap.Roles) != 0 {
		t.Fatalf("expected all session state cleared, got %+v", snap)
	}
	if gw.signOutCalls != 1 {
		t.Fatalf("expected one sign-out call, got %d", gw.signOutCalls)
	}
}

func TestStore_SignOutFailureLeavesStateUntouched(t *testing.T) {
	gw := newFakeGateway()
	gw.signOutErr = &authgw.AuthOperationError{Op: "sign out", Status: 502}
	profiles := &fakeProfiles{prof: &models.Profile{UserID: "u1", DisplayName: "Sam"}}
	roleLoader := &fakeRoles{set: []string{roles.RoleAdmin}}

	st := NewStore(gw, profiles, roleLoader)
	defer st.Close()
	st.apply(context.Background(), testSession("u1"))

	err := st.SignOut(context.Background())
	var opErr *authgw.AuthOperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected AuthOperationError, got %v", err)
	}
	snap := st.Snapshot()
	if snap.Identity == nil || snap.Session == nil || snap.Profile == nil || len(snap.Roles) != 1 {
		t.Fatalf("state must be untouched after failed sign-out, got %+v", snap)
	}
}

func TestStore_EventsAfterCloseAreDropped(t *testing.T) {
	gw := newFakeGateway()
	profiles := &fakeProfiles{}
	roleLoader := &fakeRoles{}

	gw.sess = testSession("u1")
	st := NewStore(gw, profiles, roleLoader)
	st.Start(context.Background())
	waitFor(t, func() bool {
		snap := st.Snapshot()
		return snap.Identity != nil && !snap.Loading
	})

	st.Close()
	st.apply(context.Background(), testSession("u2"))
	time.Sleep(20 * time.Millisecond)

	if snap := st.Snapshot(); snap.Identity == nil || snap.Identity.ID != "u1" {
		t.Fatalf("state mutated after Close: %+v", snap.Identity)
	}
}

func TestStore_SignOutEventDuringInitialFetchWins(t *testing.T) {
	gw := newFakeGateway()
	gw.sess = testSession("u1")
	gw.fetchGate = make(chan struct{})

	st := NewStore(gw, &fakeProfiles{}, &fakeRoles{set: []string{roles.RoleAdmin}})
	defer st.Close()
	st.Start(context.Background())

	// the platform reports a sign-out while the initial fetch is still in
	// flight; once the fetch resolves its stale session must not win
	gw.events <- authgw.Event{Type: authgw.EventSignedOut}
	close(gw.fetchGate)

	waitFor(t, func() bool {
		snap := st.Snapshot()
		return !snap.Loading && snap.Identity == nil
	})
	if p := st.Permissions(); p.CanDownload {
		t.Fatalf("stale session fetch restored permissions: %+v", p)
	}
}

type blockingProfiles struct {
	release chan struct{}
	prof    *models.Profile
}

func (b *blockingProfiles) Load(ctx context.Context, identity *models.Identity, token string) *models.Profile {
	<-b.release
	return b.prof
}

func TestStore_LoadingHoldsUntilBothLoadersSettle(t *testing.T) {
	gw := newFakeGateway()
	gw.sess = testSession("u1")
	profiles := &blockingProfiles{release: make(chan struct{}), prof: &models.Profile{UserID: "u1", DisplayName: "Sam"}}
	roleLoader := &fakeRoles{set: []string{roles.RoleContributor}}

	st := NewStore(gw, profiles, roleLoader)
	defer st.Close()
	st.Start(context.Background())

	// the role loader returns immediately; loading must hold while the
	// profile loader is still in flight and nothing partial may be committed
	waitFor(t, func() bool { return atomic.LoadInt32(&roleLoader.calls) == 1 })
	time.Sleep(20 * time.Millisecond)
	if !st.Loading() {
		t.Fatal("loading cleared before both loaders settled")
	}
	if snap := st.Snapshot(); snap.Profile != nil || len(snap.Roles) != 0 {
		t.Fatalf("loader results committed early: %+v", snap)
	}

	close(profiles.release)
	waitFor(t, func() bool {
		snap := st.Snapshot()
		return !snap.Loading && snap.Profile != nil && len(snap.Roles) == 1
	})
}

func TestStore_InitialFetchErrorLeavesSignedOut(t *testing.T) {
	gw := newFakeGateway()
	gw.sessErr = errors.New("gateway down")

	st := NewStore(gw, &fakeProfiles{}, &fakeRoles{})
	defer st.Close()
	st.Start(context.Background())

	waitFor(t, func() bool { return !st.Loading() })
	snap := st.Snapshot()
	if snap.Identity != nil || snap.Permissions.CanDownload {
		t.Fatalf("expected signed-out state, got %+v", snap)
	}
}
