// Package identity оборачивает провайдера идентификации: вход, регистрацию,
// выход, обновление профиля и подписку на изменения состояния сессии.
// Утверждения провайдера содержат только данные об имени и почте; роль и
// премиум всегда берутся с бэкенда.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chronicleink/newswave/internal/lib/sl"
	"github.com/chronicleink/newswave/internal/models"
	"github.com/chronicleink/newswave/internal/tokenstore"
)

// Kind — причина изменения состояния.
type Kind int

const (
	// Текущее состояние, выдаваемое при подписке.
	KindInitial Kind = iota
	// Пользователь вошёл или сессия восстановлена.
	KindLogin
	// Пользователь вышел.
	KindLogout
	// Тот же пользователь, обновлён токен или профиль.
	KindRefresh
)

func (k Kind) String() string {
	switch k {
	case KindInitial:
		return "initial"
	case KindLogin:
		return "login"
	case KindLogout:
		return "logout"
	case KindRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// StateChange — уведомление о смене состояния. Assertion == nil означает
// отсутствие сессии.
type StateChange struct {
	Assertion *models.IdentityAssertion
	Kind      Kind
}

// Listener получает уведомления. Вызывается синхронно, поэтому не должен
// вызывать методы Adapter, меняющие состояние.
type Listener func(StateChange)

// persistedIdentity — то, что адаптер хранит в хранилище экземпляра для восстановления.
type persistedIdentity struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName,omitempty"`
	PhotoURL     string `json:"photoURL,omitempty"`
	RefreshToken string `json:"refreshToken"`
}

// Adapter — сессия провайдера идентификации одного экземпляра браузера.
type Adapter struct {
	log      *slog.Logger
	provider Provider
	store    tokenstore.Store

	// notifyMu упорядочивает доставку уведомлений.
	notifyMu sync.Mutex

	mu        sync.Mutex
	current   *models.IdentityAssertion
	listeners map[int]Listener
	nextID    int
}

// NewAdapter создаёт адаптер без активной сессии.
func NewAdapter(log *slog.Logger, provider Provider, store tokenstore.Store) *Adapter {
	return &Adapter{
		log:       log,
		provider:  provider,
		store:     store,
		listeners: make(map[int]Listener),
	}
}

// Current возвращает копию текущего утверждения или nil.
func (a *Adapter) Current() *models.IdentityAssertion {
	a.mu.Lock()
	defer a.mu.Unlock()
	return cloneAssertion(a.current)
}

// OnStateChange подписывает fn на изменения. fn синхронно получает текущее
// состояние с KindInitial до возврата из метода. Возвращает функцию отписки.
func (a *Adapter) OnStateChange(fn Listener) func() {
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()

	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	current := cloneAssertion(a.current)
	a.mu.Unlock()

	fn(StateChange{Assertion: current, Kind: KindInitial})

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.listeners, id)
			a.mu.Unlock()
		})
	}
}

// CreateAccount регистрирует аккаунт и открывает сессию.
func (a *Adapter) CreateAccount(ctx context.Context, email, password string) (models.IdentityAssertion, error) {
	const op = "identity.CreateAccount"
	as, err := a.provider.SignUp(ctx, email, password)
	if err != nil {
		return models.IdentityAssertion{}, fmt.Errorf("%s: %w", op, err)
	}
	a.establish(ctx, as, KindLogin)
	return as, nil
}

// SignIn выполняет вход по email и паролю.
func (a *Adapter) SignIn(ctx context.Context, email, password string) (models.IdentityAssertion, error) {
	const op = "identity.SignIn"
	as, err := a.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return models.IdentityAssertion{}, fmt.Errorf("%s: %w", op, err)
	}
	a.establish(ctx, as, KindLogin)
	return as, nil
}

// SignInWithGoogle выполняет вход по ID-токену Google.
func (a *Adapter) SignInWithGoogle(ctx context.Context, googleIDToken string) (models.IdentityAssertion, error) {
	const op = "identity.SignInWithGoogle"
	as, err := a.provider.SignInWithIdp(ctx, GoogleProviderID, googleIDToken)
	if err != nil {
		return models.IdentityAssertion{}, fmt.Errorf("%s: %w", op, err)
	}
	a.establish(ctx, as, KindLogin)
	return as, nil
}

// UpdateProfile меняет имя и аватар у активной сессии.
func (a *Adapter) UpdateProfile(ctx context.Context, name, avatarURL string) (models.IdentityAssertion, error) {
	const op = "identity.UpdateProfile"
	cur := a.Current()
	if cur == nil {
		return models.IdentityAssertion{}, fmt.Errorf("%s: %w", op, ErrNoSession)
	}
	as, err := a.provider.UpdateProfile(ctx, cur.IDToken, name, avatarURL)
	if err != nil {
		return models.IdentityAssertion{}, fmt.Errorf("%s: %w", op, err)
	}
	if as.RefreshToken == "" {
		as.RefreshToken = cur.RefreshToken
	}
	a.establish(ctx, as, KindRefresh)
	return as, nil
}

// Refresh тихо обновляет ID-токен по refresh-токену.
func (a *Adapter) Refresh(ctx context.Context) (models.IdentityAssertion, error) {
	const op = "identity.Refresh"
	cur := a.Current()
	if cur == nil {
		return models.IdentityAssertion{}, fmt.Errorf("%s: %w", op, ErrNoSession)
	}
	as, err := a.provider.Refresh(ctx, cur.RefreshToken)
	if err != nil {
		return models.IdentityAssertion{}, fmt.Errorf("%s: %w", op, err)
	}
	fillProfile(&as, *cur)
	a.establish(ctx, as, KindRefresh)
	return as, nil
}

// Restore восстанавливает сессию по сохранённому refresh-токену. Отсутствие
// сохранённой сессии ошибкой не считается. Отозванная сессия стирается.
func (a *Adapter) Restore(ctx context.Context) error {
	const op = "identity.Restore"

	raw, err := a.store.Get(ctx, tokenstore.IdentityKey)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var p persistedIdentity
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.RefreshToken == "" {
		a.log.Warn("discarding unreadable persisted identity", sl.Op(op))
		_ = a.store.Delete(ctx, tokenstore.IdentityKey)
		return nil
	}

	as, err := a.provider.Refresh(ctx, p.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrInvalidCredentials) {
			_ = a.store.Delete(ctx, tokenstore.IdentityKey)
			_ = a.store.Delete(ctx, tokenstore.SessionKey)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	fillProfile(&as, models.IdentityAssertion{
		UID: p.UID, Email: p.Email, DisplayName: p.DisplayName, PhotoURL: p.PhotoURL,
	})
	a.establish(ctx, as, KindLogin)
	return nil
}

// SignOut завершает сессию. Сессионный токен и сохранённая сессия удаляются
// из хранилища даже при ошибке провайдера; подписчики получают отсутствие сессии.
func (a *Adapter) SignOut(ctx context.Context) error {
	const op = "identity.SignOut"

	var providerErr error
	if cur := a.Current(); cur != nil {
		providerErr = a.provider.SignOut(ctx, cur.IDToken)
		if providerErr != nil {
			a.log.Warn("provider sign out failed", sl.Op(op), sl.Err(providerErr))
		}
	}

	// Подписчики узнают о выходе до очистки хранилища: после уведомления
	// незавершённая загрузка уже не может записать свой токен.
	a.publish(nil, KindLogout)

	// Отменённый контекст запроса не должен помешать очистке.
	cleanupCtx := context.WithoutCancel(ctx)
	if err := a.store.Delete(cleanupCtx, tokenstore.SessionKey); err != nil {
		a.log.Error("failed to delete session token", sl.Op(op), sl.Err(err))
	}
	if err := a.store.Delete(cleanupCtx, tokenstore.IdentityKey); err != nil {
		a.log.Error("failed to delete persisted identity", sl.Op(op), sl.Err(err))
	}

	if providerErr != nil {
		return fmt.Errorf("%s: %w", op, providerErr)
	}
	return nil
}

func (a *Adapter) establish(ctx context.Context, as models.IdentityAssertion, kind Kind) {
	const op = "identity.establish"
	if as.RefreshToken != "" {
		b, err := json.Marshal(persistedIdentity{
			UID:          as.UID,
			Email:        as.Email,
			DisplayName:  as.DisplayName,
			PhotoURL:     as.PhotoURL,
			RefreshToken: as.RefreshToken,
		})
		if err == nil {
			err = a.store.Set(context.WithoutCancel(ctx), tokenstore.IdentityKey, string(b))
		}
		if err != nil {
			a.log.Warn("failed to persist identity", sl.Op(op), sl.Err(err))
		}
	}
	a.publish(&as, kind)
}

func (a *Adapter) publish(as *models.IdentityAssertion, kind Kind) {
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()

	a.mu.Lock()
	a.current = cloneAssertion(as)
	listeners := make([]Listener, 0, len(a.listeners))
	for _, l := range a.listeners {
		listeners = append(listeners, l)
	}
	a.mu.Unlock()

	for _, l := range listeners {
		l(StateChange{Assertion: cloneAssertion(as), Kind: kind})
	}
}

func fillProfile(dst *models.IdentityAssertion, src models.IdentityAssertion) {
	if dst.UID == "" {
		dst.UID = src.UID
	}
	if dst.Email == "" {
		dst.Email = src.Email
	}
	if dst.DisplayName == "" {
		dst.DisplayName = src.DisplayName
	}
	if dst.PhotoURL == "" {
		dst.PhotoURL = src.PhotoURL
	}
}

func cloneAssertion(as *models.IdentityAssertion) *models.IdentityAssertion {
	if as == nil {
		return nil
	}
	c := *as
	return &c
}
