package identity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chronicleink/newswave/internal/models"
	"github.com/chronicleink/newswave/internal/tokenstore"
)

type recorder struct {
	mu      sync.Mutex
	changes []StateChange
}

func (r *recorder) listen(c StateChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) all() []StateChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StateChange(nil), r.changes...)
}

func newAdapter(t *testing.T) (*Adapter, *MockProvider, tokenstore.Store) {
	t.Helper()
	store, err := tokenstore.NewMemoryProvider().Open(context.Background(), "inst")
	require.NoError(t, err)
	p := new(MockProvider)
	return NewAdapter(discardLogger(), p, store), p, store
}

var ann = models.IdentityAssertion{
	UID:          "u1",
	Email:        "ann@example.com",
	DisplayName:  "Ann",
	IDToken:      "id-1",
	RefreshToken: "refresh-1",
}

func TestOnStateChange_FiresCurrentStateSynchronously(t *testing.T) {
	a, _, _ := newAdapter(t)
	rec := &recorder{}

	unsubscribe := a.OnStateChange(rec.listen)
	defer unsubscribe()

	changes := rec.all()
	require.Len(t, changes, 1)
	assert.Nil(t, changes[0].Assertion)
	assert.Equal(t, KindInitial, changes[0].Kind)
}

func TestSignIn_PublishesLoginAndPersistsIdentity(t *testing.T) {
	ctx := context.Background()
	a, p, store := newAdapter(t)
	p.On("SignInWithPassword", mock.Anything, "ann@example.com", "secret").Return(ann, nil)

	rec := &recorder{}
	a.OnStateChange(rec.listen)

	got, err := a.SignIn(ctx, "ann@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UID)

	changes := rec.all()
	require.Len(t, changes, 2)
	assert.Equal(t, KindLogin, changes[1].Kind)
	require.NotNil(t, changes[1].Assertion)
	assert.Equal(t, "id-1", changes[1].Assertion.IDToken)

	raw, err := store.Get(ctx, tokenstore.IdentityKey)
	require.NoError(t, err)
	assert.Contains(t, raw, "refresh-1")
	assert.Equal(t, "u1", a.Current().UID)
}

func TestSignIn_ErrorIsPropagatedWithoutPublishing(t *testing.T) {
	a, p, _ := newAdapter(t)
	p.On("SignInWithPassword", mock.Anything, mock.Anything, mock.Anything).
		Return(models.IdentityAssertion{}, ErrInvalidCredentials)

	rec := &recorder{}
	a.OnStateChange(rec.listen)

	_, err := a.SignIn(context.Background(), "ann@example.com", "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Len(t, rec.all(), 1)
	assert.Nil(t, a.Current())
}

func TestSignOut_ClearsTokenEvenWhenProviderFails(t *testing.T) {
	ctx := context.Background()
	a, p, store := newAdapter(t)
	p.On("SignInWithPassword", mock.Anything, mock.Anything, mock.Anything).Return(ann, nil)
	p.On("SignOut", mock.Anything, "id-1").Return(errors.New("provider down"))

	_, err := a.SignIn(ctx, "ann@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, tokenstore.SessionKey, "backend-token"))

	rec := &recorder{}
	a.OnStateChange(rec.listen)

	err = a.SignOut(ctx)
	assert.Error(t, err)

	_, err = store.Get(ctx, tokenstore.SessionKey)
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)
	_, err = store.Get(ctx, tokenstore.IdentityKey)
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)

	changes := rec.all()
	require.Len(t, changes, 2)
	assert.Nil(t, changes[1].Assertion)
	assert.Equal(t, KindLogout, changes[1].Kind)
	assert.Nil(t, a.Current())
}

func TestSignOut_WithCancelledContextStillClears(t *testing.T) {
	a, p, store := newAdapter(t)
	p.On("SignInWithPassword", mock.Anything, mock.Anything, mock.Anything).Return(ann, nil)
	p.On("SignOut", mock.Anything, mock.Anything).Return(nil)

	_, err := a.SignIn(context.Background(), "ann@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), tokenstore.SessionKey, "t"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, a.SignOut(ctx))

	_, err = store.Get(context.Background(), tokenstore.SessionKey)
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)
}

func TestUpdateProfile_RequiresSession(t *testing.T) {
	a, _, _ := newAdapter(t)
	_, err := a.UpdateProfile(context.Background(), "Ann", "")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestUpdateProfile_PublishesRefresh(t *testing.T) {
	ctx := context.Background()
	a, p, _ := newAdapter(t)
	p.On("SignInWithPassword", mock.Anything, mock.Anything, mock.Anything).Return(ann, nil)
	updated := ann
	updated.DisplayName = "Ann B"
	updated.PhotoURL = "https://img/ann.png"
	updated.IDToken = "id-2"
	updated.RefreshToken = ""
	p.On("UpdateProfile", mock.Anything, "id-1", "Ann B", "https://img/ann.png").Return(updated, nil)

	_, err := a.SignIn(ctx, "ann@example.com", "secret")
	require.NoError(t, err)
	rec := &recorder{}
	a.OnStateChange(rec.listen)

	got, err := a.UpdateProfile(ctx, "Ann B", "https://img/ann.png")
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", got.RefreshToken, "refresh token is kept when provider omits it")

	changes := rec.all()
	require.Len(t, changes, 2)
	assert.Equal(t, KindRefresh, changes[1].Kind)
	assert.Equal(t, "Ann B", changes[1].Assertion.DisplayName)
}

func TestRefresh_KeepsProfileFields(t *testing.T) {
	ctx := context.Background()
	a, p, _ := newAdapter(t)
	p.On("SignInWithPassword", mock.Anything, mock.Anything, mock.Anything).Return(ann, nil)
	p.On("Refresh", mock.Anything, "refresh-1").
		Return(models.IdentityAssertion{UID: "u1", IDToken: "id-2", RefreshToken: "refresh-2"}, nil)

	_, err := a.SignIn(ctx, "ann@example.com", "secret")
	require.NoError(t, err)

	got, err := a.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.DisplayName)
	assert.Equal(t, "ann@example.com", got.Email)
	assert.Equal(t, "id-2", a.Current().IDToken)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("нет сохранённой сессии", func(t *testing.T) {
		a, _, _ := newAdapter(t)
		require.NoError(t, a.Restore(ctx))
		assert.Nil(t, a.Current())
	})

	t.Run("сессия восстанавливается", func(t *testing.T) {
		a, p, store := newAdapter(t)
		p.On("SignInWithPassword", mock.Anything, mock.Anything, mock.Anything).Return(ann, nil)
		_, err := a.SignIn(ctx, "ann@example.com", "secret")
		require.NoError(t, err)

		restored := NewAdapter(discardLogger(), p, store)
		p.On("Refresh", mock.Anything, "refresh-1").
			Return(models.IdentityAssertion{UID: "u1", IDToken: "id-9", RefreshToken: "refresh-9"}, nil)

		require.NoError(t, restored.Restore(ctx))
		cur := restored.Current()
		require.NotNil(t, cur)
		assert.Equal(t, "id-9", cur.IDToken)
		assert.Equal(t, "Ann", cur.DisplayName)
	})

	t.Run("отозванная сессия стирается", func(t *testing.T) {
		a, p, store := newAdapter(t)
		require.NoError(t, store.Set(ctx, tokenstore.IdentityKey, `{"uid":"u1","refreshToken":"gone"}`))
		require.NoError(t, store.Set(ctx, tokenstore.SessionKey, "old"))
		p.On("Refresh", mock.Anything, "gone").Return(models.IdentityAssertion{}, ErrSessionExpired)

		err := a.Restore(ctx)
		assert.ErrorIs(t, err, ErrSessionExpired)
		assert.Nil(t, a.Current())
		_, err = store.Get(ctx, tokenstore.IdentityKey)
		assert.ErrorIs(t, err, tokenstore.ErrNotFound)
		_, err = store.Get(ctx, tokenstore.SessionKey)
		assert.ErrorIs(t, err, tokenstore.ErrNotFound)
	})

	t.Run("повреждённая запись игнорируется", func(t *testing.T) {
		a, _, store := newAdapter(t)
		require.NoError(t, store.Set(ctx, tokenstore.IdentityKey, "{not json"))
		require.NoError(t, a.Restore(ctx))
		_, err := store.Get(ctx, tokenstore.IdentityKey)
		assert.ErrorIs(t, err, tokenstore.ErrNotFound)
	})
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	a, p, _ := newAdapter(t)
	p.On("SignInWithPassword", mock.Anything, mock.Anything, mock.Anything).Return(ann, nil)

	rec := &recorder{}
	unsubscribe := a.OnStateChange(rec.listen)
	unsubscribe()
	unsubscribe()

	_, err := a.SignIn(context.Background(), "ann@example.com", "secret")
	require.NoError(t, err)
	assert.Len(t, rec.all(), 1)
}
