// Package portal хранит экземпляры браузеров. Экземпляр держит то, что
// одна вкладка приложения держала у себя, то есть сессию провайдера идентификации,
// локальное хранилище, клиента бэкенда и машину загрузки сессии.
package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chronicleink/newswave/internal/backend"
	"github.com/chronicleink/newswave/internal/config"
	"github.com/chronicleink/newswave/internal/events"
	"github.com/chronicleink/newswave/internal/identity"
	"github.com/chronicleink/newswave/internal/lib/sl"
	"github.com/chronicleink/newswave/internal/obs"
	"github.com/chronicleink/newswave/internal/session"
	"github.com/chronicleink/newswave/internal/tokenstore"
)

// ErrInvalidInstance возвращается для идентификатора, не являющегося uuid.
var ErrInvalidInstance = errors.New("invalid instance id")

// Instance — состояние одного экземпляра браузера.
type Instance struct {
	ID       string
	Identity *identity.Adapter
	Store    tokenstore.Store
	Backend  *backend.Client
	Machine  *session.Machine

	lastSeen    atomic.Int64
	unsubscribe func()
}

func (i *Instance) touch(now time.Time) {
	i.lastSeen.Store(now.UnixNano())
}

// LastSeen возвращает время последнего обращения.
func (i *Instance) LastSeen() time.Time {
	return time.Unix(0, i.lastSeen.Load())
}

func (i *Instance) close() {
	if i.unsubscribe != nil {
		i.unsubscribe()
	}
	i.Machine.Stop()
}

type entry struct {
	ready chan struct{}
	inst  *Instance
	err   error
}

const defaultRestoreTimeout = 30 * time.Second

// Options — настройки реестра.
type Options struct {
	Backend        config.Backend
	PollInterval   time.Duration
	MaxPolls       int
	IdleTTL        time.Duration
	// RestoreTimeout ограничивает восстановление сессии при создании экземпляра.
	RestoreTimeout time.Duration
	Now            func() time.Time
}

// Registry создаёт экземпляры по требованию и выселяет простаивающие.
type Registry struct {
	log       *slog.Logger
	opts      Options
	stores    tokenstore.Provider
	idp       identity.Provider
	publisher events.Publisher
	metrics   *obs.Metrics

	mu        sync.Mutex
	instances map[string]*entry
}

// NewRegistry создаёт пустой реестр.
func NewRegistry(log *slog.Logger, opts Options, stores tokenstore.Provider, idp identity.Provider,
	publisher events.Publisher, metrics *obs.Metrics) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RestoreTimeout <= 0 {
		opts.RestoreTimeout = defaultRestoreTimeout
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Registry{
		log:       log,
		opts:      opts,
		stores:    stores,
		idp:       idp,
		publisher: publisher,
		metrics:   metrics,
		instances: make(map[string]*entry),
	}
}

// NewInstanceID выдаёт идентификатор нового экземпляра.
func NewInstanceID() string {
	return uuid.NewString()
}

// Get возвращает экземпляр id, создавая его при первом обращении.
// Создание восстанавливает сессию провайдера и запускает машину загрузки.
func (r *Registry) Get(ctx context.Context, id string) (*Instance, error) {
	const op = "portal.Get"

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInstance)
	}

	r.mu.Lock()
	e, ok := r.instances[id]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		r.instances[id] = e
	}
	r.mu.Unlock()

	if !ok {
		// Экземпляр переживает запрос, который его создал.
		createCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.RestoreTimeout)
		e.inst, e.err = r.create(createCtx, id)
		cancel()
		if e.err != nil {
			r.mu.Lock()
			delete(r.instances, id)
			r.mu.Unlock()
		}
		close(e.ready)
	}

	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	}
	if e.err != nil {
		return nil, fmt.Errorf("%s: %w", op, e.err)
	}
	e.inst.touch(r.opts.Now())
	return e.inst, nil
}

func (r *Registry) create(ctx context.Context, id string) (*Instance, error) {
	const op = "portal.create"
	log := r.log.With(sl.Instance(id))

	store, err := r.stores.Open(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	adapter := identity.NewAdapter(log, r.idp, store)
	// Провайдер сначала восстанавливает сохранённую сессию, и только потом
	// машина получает первое уведомление.
	if err := adapter.Restore(ctx); err != nil {
		log.Warn("failed to restore identity session", sl.Op(op), sl.Err(err))
	}

	client := backend.NewClient(r.opts.Backend, store)
	machine := session.New(log, adapter, client, store, session.Options{
		PollInterval: r.opts.PollInterval,
		MaxPolls:     r.opts.MaxPolls,
		Metrics:      r.metrics,
	})

	inst := &Instance{
		ID:       id,
		Identity: adapter,
		Store:    store,
		Backend:  client,
		Machine:  machine,
	}
	inst.unsubscribe = machine.Subscribe(r.activityTracker(id))
	machine.Start()

	r.metrics.InstanceOpened()
	log.Debug("instance created", sl.Op(op))
	return inst, nil
}

// activityTracker публикует события при входе и выходе пользователя.
func (r *Registry) activityTracker(id string) func(session.Snapshot) {
	var prevUID string
	return func(s session.Snapshot) {
		var ev *events.SessionEvent
		switch {
		case s.State == session.StateAuthenticated && s.User != nil && s.User.UID != prevUID:
			prevUID = s.User.UID
			ev = &events.SessionEvent{Instance: id, UID: s.User.UID, Role: string(s.User.Role), Kind: events.KindSignedIn}
		case s.State == session.StateUnauthenticated && s.Degraded:
			ev = &events.SessionEvent{Instance: id, UID: prevUID, Kind: events.KindDegraded}
			prevUID = ""
		case s.State == session.StateUnauthenticated && prevUID != "":
			ev = &events.SessionEvent{Instance: id, UID: prevUID, Kind: events.KindSignedOut}
			prevUID = ""
		}
		if ev == nil {
			return
		}
		ev.At = r.opts.Now()
		go r.publish(*ev)
	}
}

func (r *Registry) publish(ev events.SessionEvent) {
	const op = "portal.publish"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.publisher.Publish(ctx, ev); err != nil {
		r.log.Warn("failed to publish session event", sl.Op(op), sl.Instance(ev.Instance), sl.Err(err))
	}
}

// Evict останавливает и удаляет экземпляр. Данные хранилища сохраняются.
func (r *Registry) Evict(id string) {
	r.mu.Lock()
	e, ok := r.instances[id]
	if ok {
		delete(r.instances, id)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	<-e.ready
	if e.inst != nil {
		e.inst.close()
		r.metrics.InstanceClosed()
	}
}

// Len возвращает число экземпляров в памяти.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// EvictIdle выселяет экземпляры, к которым не обращались дольше IdleTTL.
func (r *Registry) EvictIdle() int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	deadline := r.opts.Now().Add(-r.opts.IdleTTL)

	var idle []string
	r.mu.Lock()
	for id, e := range r.instances {
		select {
		case <-e.ready:
			if e.inst != nil && e.inst.LastSeen().Before(deadline) {
				idle = append(idle, id)
			}
		default:
		}
	}
	r.mu.Unlock()

	for _, id := range idle {
		r.Evict(id)
	}
	return len(idle)
}

// Run периодически выселяет простаивающие экземпляры до отмены ctx.
func (r *Registry) Run(ctx context.Context) {
	const op = "portal.Run"
	if r.opts.IdleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(r.opts.IdleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.EvictIdle(); n > 0 {
				r.log.Debug("evicted idle instances", sl.Op(op), slog.Int("count", n))
			}
		}
	}
}

// Close останавливает все экземпляры.
func (r *Registry) Close() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Evict(id)
	}
}
