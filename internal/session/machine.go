// Package session реализует машину загрузки сессии: по уведомлениям
// провайдера идентификации она обменивает ID-токен на сессионный токен
// бэкенда, дожидается его сохранения, загружает запись пользователя и
// публикует объединённого текущего пользователя.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/chronicleink/newswave/internal/identity"
	"github.com/chronicleink/newswave/internal/lib/sl"
	"github.com/chronicleink/newswave/internal/models"
	"github.com/chronicleink/newswave/internal/obs"
	"github.com/chronicleink/newswave/internal/tokenstore"
)

// Значения по умолчанию для ожидания сохранения токена.
const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultMaxPolls     = 20
)

// Backend содержит методы клиента бэкенда, нужные для загрузки сессии.
type Backend interface {
	ExchangeSession(ctx context.Context, rawIDToken string) (string, error)
	UserData(ctx context.Context) (models.UserRecord, error)
}

// IdentitySource присылает уведомления о состоянии провайдера.
type IdentitySource interface {
	OnStateChange(fn identity.Listener) func()
}

// Options задаёт настройки машины.
type Options struct {
	PollInterval time.Duration
	MaxPolls     int
	Metrics      *obs.Metrics
	Now          func() time.Time
}

// Machine загружает сессию одного экземпляра браузера.
type Machine struct {
	log     *slog.Logger
	source  IdentitySource
	backend Backend
	store   tokenstore.Store
	opts    Options

	// notifyMu упорядочивает переходы и доставку подписчикам.
	notifyMu sync.Mutex

	mu          sync.Mutex
	snap        Snapshot
	changed     chan struct{}
	gen         uint64
	cancel      context.CancelFunc
	subscribers map[int]func(Snapshot)
	nextID      int
	started     bool
	stopped     bool

	baseCtx     context.Context
	baseCancel  context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup
}

// New создаёт машину в состоянии CHECKING. Переходы начинаются после Start.
func New(log *slog.Logger, source IdentitySource, backend Backend, store tokenstore.Store, opts Options) *Machine {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = DefaultMaxPolls
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &Machine{
		log:         log,
		source:      source,
		backend:     backend,
		store:       store,
		opts:        opts,
		snap:        Snapshot{State: StateChecking},
		changed:     make(chan struct{}),
		subscribers: make(map[int]func(Snapshot)),
		baseCtx:     baseCtx,
		baseCancel:  baseCancel,
	}
}

// Start подписывает машину на провайдера. Текущее состояние провайдера
// обрабатывается сразу.
func (m *Machine) Start() {
	m.mu.Lock()
	if m.started || m.stopped {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	unsubscribe := m.source.OnStateChange(m.handle)

	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()
}

// Stop отписывается от провайдера, отменяет текущую загрузку и ждёт её завершения.
func (m *Machine) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	unsubscribe := m.unsubscribe
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	m.baseCancel()
	m.wg.Wait()
}

// Snapshot возвращает текущее состояние.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSnapshot(m.snap)
}

// Subscribe подписывает fn на переходы. fn сразу получает текущее состояние.
// fn вызывается синхронно и не должен вызывать Subscribe.
func (m *Machine) Subscribe(fn func(Snapshot)) func() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn
	snap := cloneSnapshot(m.snap)
	m.mu.Unlock()

	fn(snap)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			m.mu.Unlock()
		})
	}
}

// Wait блокируется, пока машина не выйдет из CHECKING или не истечёт ctx.
func (m *Machine) Wait(ctx context.Context) (Snapshot, error) {
	for {
		m.mu.Lock()
		snap := cloneSnapshot(m.snap)
		ch := m.changed
		m.mu.Unlock()

		if snap.Settled() {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-ch:
		}
	}
}

// handle вызывается провайдером синхронно, поэтому не выполняет сетевых вызовов.
func (m *Machine) handle(change identity.StateChange) {
	const op = "session.handle"
	as := change.Assertion

	m.transition(func() (Snapshot, bool) {
		if m.stopped {
			return Snapshot{}, false
		}

		if change.Kind == identity.KindRefresh && as != nil &&
			m.snap.State == StateAuthenticated && m.snap.User != nil && m.snap.User.UID == as.UID {
			u := *m.snap.User
			u.IDToken = as.IDToken
			u.Name = as.DisplayName
			u.Email = as.Email
			u.Image = as.PhotoURL
			return Snapshot{State: StateAuthenticated, User: &u}, true
		}

		m.gen++
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}

		if as == nil {
			m.log.Debug("identity absent", sl.Op(op), slog.String("kind", change.Kind.String()))
			return Snapshot{State: StateUnauthenticated}, true
		}

		ctx, cancel := context.WithCancel(m.baseCtx)
		m.cancel = cancel
		m.wg.Add(1)
		go m.bootstrap(ctx, cancel, m.gen, *as, change.Kind)

		return Snapshot{State: StateChecking}, true
	})
}

func (m *Machine) bootstrap(ctx context.Context, cancel context.CancelFunc, gen uint64, as models.IdentityAssertion, kind identity.Kind) {
	const op = "session.bootstrap"
	defer m.wg.Done()
	defer cancel()

	log := m.log.With(sl.Op(op), slog.String("uid", as.UID), slog.Uint64("generation", gen))
	start := m.opts.Now()

	// Токен предыдущего пользователя не должен попасть в запрос записи нового.
	if kind == identity.KindLogin {
		if err := m.store.Delete(ctx, tokenstore.SessionKey); err != nil {
			log.Warn("failed to drop previous session token", sl.Err(err))
		}
	}

	persisted := false
	token, err := m.backend.ExchangeSession(ctx, as.IDToken)
	switch {
	case ctx.Err() != nil:
		m.superseded(log, start)
		return
	case err != nil:
		log.Warn("session token exchange failed", sl.Err(err))
		m.opts.Metrics.ExchangeFailed()
	default:
		ok, err := m.persistToken(ctx, gen, token)
		if err != nil {
			log.Error("failed to persist session token", sl.Err(err))
		}
		if !ok && err == nil {
			m.superseded(log, start)
			return
		}
		persisted = ok
	}

	// Запись выше синхронная; опрос нужен, только если её не было.
	if !persisted && !tokenstore.WaitFor(ctx, m.store, tokenstore.SessionKey, m.opts.PollInterval, m.opts.MaxPolls) {
		log.Warn("session token not available, fetching user record anyway")
	}
	if ctx.Err() != nil {
		m.superseded(log, start)
		return
	}

	var next Snapshot
	outcome := obs.OutcomeAuthenticated
	rec, err := m.backend.UserData(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		m.superseded(log, start)
		return
	case err != nil:
		log.Warn("user record fetch failed", sl.Err(err))
		next = Snapshot{State: StateUnauthenticated, Degraded: true}
		outcome = obs.OutcomeDegraded
	default:
		u := models.MergeCurrentUser(as, rec, m.opts.Now())
		next = Snapshot{State: StateAuthenticated, User: &u}
	}

	applied := m.transition(func() (Snapshot, bool) {
		if m.stopped || gen != m.gen {
			return Snapshot{}, false
		}
		m.cancel = nil
		return next, true
	})
	if !applied {
		m.superseded(log, start)
		return
	}
	log.Info("session bootstrap finished", slog.String("outcome", outcome))
	m.opts.Metrics.BootstrapFinished(outcome, m.opts.Now().Sub(start))
}

// persistToken сохраняет токен, только если загрузка ещё актуальна.
// Проверка поколения и запись выполняются под одной блокировкой, поэтому
// после перехода handle на новое поколение токен не запишется. Выход
// полагается на то, что провайдер уведомляет машину до удаления токена.
func (m *Machine) persistToken(ctx context.Context, gen uint64, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || gen != m.gen {
		return false, nil
	}
	if err := m.store.Set(ctx, tokenstore.SessionKey, token); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Machine) superseded(log *slog.Logger, start time.Time) {
	log.Debug("session bootstrap superseded")
	m.opts.Metrics.BootstrapFinished(obs.OutcomeSuperseded, m.opts.Now().Sub(start))
}

// transition применяет fn под блокировкой и рассылает новое состояние.
// fn возвращает false, если переход не нужен.
func (m *Machine) transition(fn func() (Snapshot, bool)) bool {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	next, ok := fn()
	if !ok {
		m.mu.Unlock()
		return false
	}
	m.snap = next
	close(m.changed)
	m.changed = make(chan struct{})
	subs := make([]func(Snapshot), 0, len(m.subscribers))
	for _, s := range m.subscribers {
		subs = append(subs, s)
	}
	m.mu.Unlock()

	for _, s := range subs {
		s(cloneSnapshot(next))
	}
	return true
}

func cloneSnapshot(s Snapshot) Snapshot {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// ErrNotSettled возвращается, если сессия не успела загрузиться.
var ErrNotSettled = errors.New("session is still being checked")
