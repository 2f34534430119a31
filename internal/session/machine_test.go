package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicleink/newswave/internal/identity"
	"github.com/chronicleink/newswave/internal/models"
	"github.com/chronicleink/newswave/internal/tokenstore"
)

type fakeSource struct {
	mu       sync.Mutex
	current  *models.IdentityAssertion
	listener identity.Listener
}

func (s *fakeSource) OnStateChange(fn identity.Listener) func() {
	s.mu.Lock()
	s.listener = fn
	cur := s.current
	s.mu.Unlock()
	fn(identity.StateChange{Assertion: cur, Kind: identity.KindInitial})
	return func() {
		s.mu.Lock()
		s.listener = nil
		s.mu.Unlock()
	}
}

func (s *fakeSource) emit(as *models.IdentityAssertion, kind identity.Kind) {
	s.mu.Lock()
	s.current = as
	l := s.listener
	s.mu.Unlock()
	if l != nil {
		l(identity.StateChange{Assertion: as, Kind: kind})
	}
}

type fakeBackend struct {
	mu            sync.Mutex
	store         tokenstore.Store
	exchange      func(ctx context.Context, raw string) (string, error)
	userData      func(ctx context.Context) (models.UserRecord, error)
	exchangeCalls int
	userDataCalls int
	tokenAtFetch  []string
}

func (b *fakeBackend) ExchangeSession(ctx context.Context, raw string) (string, error) {
	b.mu.Lock()
	b.exchangeCalls++
	fn := b.exchange
	b.mu.Unlock()
	return fn(ctx, raw)
}

func (b *fakeBackend) UserData(ctx context.Context) (models.UserRecord, error) {
	tok, _ := b.store.Get(ctx, tokenstore.SessionKey)
	b.mu.Lock()
	b.userDataCalls++
	b.tokenAtFetch = append(b.tokenAtFetch, tok)
	fn := b.userData
	b.mu.Unlock()
	return fn(ctx)
}

func (b *fakeBackend) calls() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exchangeCalls, b.userDataCalls
}

type fixture struct {
	source  *fakeSource
	backend *fakeBackend
	store   tokenstore.Store
	machine *Machine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := tokenstore.NewMemoryProvider().Open(context.Background(), "inst")
	require.NoError(t, err)

	future := time.Now().Add(30 * 24 * time.Hour)
	b := &fakeBackend{
		store: store,
		exchange: func(_ context.Context, raw string) (string, error) {
			return "session-for-" + raw, nil
		},
		userData: func(_ context.Context) (models.UserRecord, error) {
			return models.UserRecord{UID: "u1", Role: "premium", PremiumExpiry: &future}, nil
		},
	}
	src := &fakeSource{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := New(log, src, b, store, Options{PollInterval: 5 * time.Millisecond, MaxPolls: 4})
	t.Cleanup(m.Stop)
	return &fixture{source: src, backend: b, store: store, machine: m}
}

func wait(t *testing.T, m *Machine) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := m.Wait(ctx)
	require.NoError(t, err)
	return snap
}

func ann(token string) *models.IdentityAssertion {
	return &models.IdentityAssertion{UID: "u1", DisplayName: "Ann", Email: "ann@example.com", PhotoURL: "p", IDToken: token}
}

func TestMachine_StartsInChecking(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, StateChecking, f.machine.Snapshot().State)
}

func TestMachine_NoAssertionResolvesWithoutNetwork(t *testing.T) {
	f := newFixture(t)
	f.machine.Start()

	snap := wait(t, f.machine)
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.Nil(t, snap.User)
	ex, ud := f.backend.calls()
	assert.Zero(t, ex)
	assert.Zero(t, ud)
}

func TestMachine_SignInWithPremiumRecord(t *testing.T) {
	f := newFixture(t)
	f.machine.Start()
	wait(t, f.machine)

	f.source.emit(ann("id-1"), identity.KindLogin)
	snap := wait(t, f.machine)

	require.Equal(t, StateAuthenticated, snap.State)
	require.NotNil(t, snap.User)
	assert.Equal(t, models.RolePremium, snap.User.Role)
	assert.True(t, snap.User.Premium)
	assert.Equal(t, "Ann", snap.User.Name)
	assert.Equal(t, "id-1", snap.User.IDToken)

	tok, err := f.store.Get(context.Background(), tokenstore.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, "session-for-id-1", tok)
	assert.Equal(t, []string{"session-for-id-1"}, f.backend.tokenAtFetch)
}

func TestMachine_RoleComesFromRecordOnly(t *testing.T) {
	f := newFixture(t)
	f.backend.userData = func(context.Context) (models.UserRecord, error) {
		return models.UserRecord{UID: "u1", Role: "user"}, nil
	}
	f.source.current = ann("id-1")
	f.machine.Start()

	snap := wait(t, f.machine)
	require.NotNil(t, snap.User)
	assert.Equal(t, models.RoleStandard, snap.User.Role)
	assert.False(t, snap.User.Premium)
}

func TestMachine_ExchangeFailureIsBounded(t *testing.T) {
	f := newFixture(t)
	f.backend.exchange = func(context.Context, string) (string, error) {
		return "", errors.New("network drop")
	}
	f.backend.userData = func(context.Context) (models.UserRecord, error) {
		return models.UserRecord{}, errors.New("401")
	}
	f.machine.Start()
	wait(t, f.machine)

	start := time.Now()
	f.source.emit(ann("id-1"), identity.KindLogin)
	snap := wait(t, f.machine)

	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.Nil(t, snap.User)
	assert.True(t, snap.Degraded)
	assert.Less(t, time.Since(start), time.Second)
	_, ud := f.backend.calls()
	assert.Equal(t, 1, ud, "fetch still runs after the bounded wait")
}

func TestMachine_LoginDropsStaleToken(t *testing.T) {
	f := newFixture(t)
	f.backend.exchange = func(context.Context, string) (string, error) {
		return "", errors.New("down")
	}
	f.backend.userData = func(context.Context) (models.UserRecord, error) {
		return models.UserRecord{}, errors.New("401")
	}
	require.NoError(t, f.store.Set(context.Background(), tokenstore.SessionKey, "previous-user"))
	f.machine.Start()
	wait(t, f.machine)

	f.source.emit(ann("id-1"), identity.KindLogin)
	wait(t, f.machine)

	assert.Equal(t, []string{""}, f.backend.tokenAtFetch)
}

func TestMachine_LogoutSupersedesInFlightBootstrap(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	entered := make(chan struct{})
	f.backend.exchange = func(ctx context.Context, raw string) (string, error) {
		close(entered)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "late-token", nil
	}
	f.machine.Start()
	wait(t, f.machine)

	f.source.emit(ann("id-1"), identity.KindLogin)
	<-entered
	f.source.emit(nil, identity.KindLogout)
	close(release)

	snap := wait(t, f.machine)
	assert.Equal(t, StateUnauthenticated, snap.State)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateUnauthenticated, f.machine.Snapshot().State)
	assert.Nil(t, f.machine.Snapshot().User)
	_, ud := f.backend.calls()
	assert.Zero(t, ud, "superseded bootstrap must not fetch")
}

func TestMachine_NewerLoginWins(t *testing.T) {
	f := newFixture(t)
	slowFetch := make(chan struct{})
	f.backend.userData = func(ctx context.Context) (models.UserRecord, error) {
		tok, _ := f.store.Get(ctx, tokenstore.SessionKey)
		if tok == "session-for-old" {
			select {
			case <-slowFetch:
			case <-ctx.Done():
				return models.UserRecord{}, ctx.Err()
			}
			return models.UserRecord{UID: "old", Role: "admin"}, nil
		}
		return models.UserRecord{UID: "new", Role: "user"}, nil
	}
	f.machine.Start()
	wait(t, f.machine)

	f.source.emit(&models.IdentityAssertion{UID: "old", IDToken: "old"}, identity.KindLogin)
	require.Eventually(t, func() bool {
		_, ud := f.backend.calls()
		return ud == 1
	}, time.Second, 5*time.Millisecond)

	f.source.emit(&models.IdentityAssertion{UID: "new", IDToken: "new"}, identity.KindLogin)
	snap := wait(t, f.machine)
	close(slowFetch)

	require.NotNil(t, snap.User)
	assert.Equal(t, "new", snap.User.UID)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, models.RoleStandard, f.machine.Snapshot().User.Role)
}

func TestMachine_RefreshOnlyUpdatesToken(t *testing.T) {
	f := newFixture(t)
	f.source.current = ann("id-1")
	f.machine.Start()
	wait(t, f.machine)

	refreshed := ann("id-2")
	refreshed.DisplayName = "Ann B"
	f.source.emit(refreshed, identity.KindRefresh)

	snap := f.machine.Snapshot()
	require.Equal(t, StateAuthenticated, snap.State)
	assert.Equal(t, "id-2", snap.User.IDToken)
	assert.Equal(t, "Ann B", snap.User.Name)
	assert.Equal(t, models.RolePremium, snap.User.Role)

	ex, ud := f.backend.calls()
	assert.Equal(t, 1, ex)
	assert.Equal(t, 1, ud)
}

func TestMachine_RefreshForDifferentUserRunsBootstrap(t *testing.T) {
	f := newFixture(t)
	f.source.current = ann("id-1")
	f.machine.Start()
	wait(t, f.machine)

	f.source.emit(&models.IdentityAssertion{UID: "u2", IDToken: "id-3"}, identity.KindRefresh)
	wait(t, f.machine)

	ex, _ := f.backend.calls()
	assert.Equal(t, 2, ex)
}

func TestMachine_SubscribeSeesTransitions(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	var states []State
	unsubscribe := f.machine.Subscribe(func(s Snapshot) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})
	defer unsubscribe()

	f.source.current = ann("id-1")
	f.machine.Start()
	wait(t, f.machine)
	f.source.emit(nil, identity.KindLogout)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateChecking, StateChecking, StateAuthenticated, StateUnauthenticated}, states)
}

func TestMachine_StopCancelsInFlight(t *testing.T) {
	f := newFixture(t)
	entered := make(chan struct{})
	f.backend.exchange = func(ctx context.Context, _ string) (string, error) {
		close(entered)
		<-ctx.Done()
		return "", ctx.Err()
	}
	f.source.current = ann("id-1")
	f.machine.Start()
	<-entered

	done := make(chan struct{})
	go func() {
		f.machine.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
	assert.Equal(t, StateChecking, f.machine.Snapshot().State)
}

func TestMachine_WaitHonoursContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	snap, err := f.machine.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateChecking, snap.State)
}
