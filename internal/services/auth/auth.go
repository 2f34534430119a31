// Package services содержит сценарии входа, регистрации и выхода пользователя.
// Сценарий работает с экземпляром браузера из контекста запроса: вызывает
// провайдера идентификации и дожидается, пока машина загрузки сессии
// обменяет токен и подтянет запись пользователя.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/chronicleink/newswave/internal/lib/sl"
	"github.com/chronicleink/newswave/internal/models"
	"github.com/chronicleink/newswave/internal/portal"
	"github.com/chronicleink/newswave/internal/session"
)

// IdentitySession описывает сессию провайдера идентификации одного экземпляра.
type IdentitySession interface {
	CreateAccount(ctx context.Context, email, password string) (models.IdentityAssertion, error)
	SignIn(ctx context.Context, email, password string) (models.IdentityAssertion, error)
	SignInWithGoogle(ctx context.Context, googleIDToken string) (models.IdentityAssertion, error)
	UpdateProfile(ctx context.Context, name, avatarURL string) (models.IdentityAssertion, error)
	Restore(ctx context.Context) error
	SignOut(ctx context.Context) error
}

// UserAPI описывает методы бэкенда для работы с записью пользователя.
type UserAPI interface {
	RegisterUser(ctx context.Context, reg models.Registration) error
	UserExists(ctx context.Context, uid string) (bool, error)
	TouchLastLogin(ctx context.Context, uid string) error
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error
}

// SessionWaiter ждёт выхода машины загрузки из CHECKING.
type SessionWaiter interface {
	Wait(ctx context.Context) (session.Snapshot, error)
}

// Uploader загружает изображение и возвращает его публичный адрес.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Session собирает то, с чем работает сценарий в рамках одного экземпляра.
type Session struct {
	Identity IdentitySession
	Users    UserAPI
	Machine  SessionWaiter
}

// Image — необязательный файл аватара.
type Image struct {
	Filename string
	Body     io.Reader
}

// SignUp содержит данные формы регистрации.
type SignUp struct {
	Name     string
	Email    string
	Password string
	Avatar   *Image
}

// AuthService выполняет сценарии аутентификации.
type AuthService struct {
	log      *slog.Logger
	uploader Uploader
	settle   time.Duration
	resolve  func(ctx context.Context) (Session, error)
}

// NewAuthService создает сервис. settle ограничивает ожидание загрузки сессии.
func NewAuthService(log *slog.Logger, uploader Uploader, settle time.Duration) *AuthService {
	return &AuthService{
		log:      log,
		uploader: uploader,
		settle:   settle,
		resolve:  fromPortal,
	}
}

func fromPortal(ctx context.Context) (Session, error) {
	inst, err := portal.FromContext(ctx)
	if err != nil {
		return Session{}, err
	}
	return Session{Identity: inst.Identity, Users: inst.Backend, Machine: inst.Machine}, nil
}

// SignIn выполняет вход по email и паролю и отмечает время входа.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (session.Snapshot, error) {
	const op = "services.auth.SignIn"

	sess, err := s.resolve(ctx)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	as, err := sess.Identity.SignIn(ctx, email, password)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	snap, err := s.wait(ctx, sess)
	if err != nil {
		return snap, fmt.Errorf("%s: %w", op, err)
	}
	s.touchLastLogin(ctx, sess, as.UID)
	return snap, nil
}

// Register создает аккаунт, заполняет профиль и заводит запись на бэкенде.
func (s *AuthService) Register(ctx context.Context, in SignUp) (session.Snapshot, error) {
	const op = "services.auth.Register"

	sess, err := s.resolve(ctx)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	image := ""
	if in.Avatar != nil {
		image, err = s.uploader.Upload(ctx, in.Avatar.Filename, in.Avatar.Body)
		if err != nil {
			return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	as, err := sess.Identity.CreateAccount(ctx, in.Email, in.Password)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := sess.Identity.UpdateProfile(ctx, in.Name, image); err != nil {
		s.log.Warn("failed to update identity profile", sl.Op(op), sl.Err(err))
	}

	reg := models.Registration{Name: in.Name, Email: in.Email, UID: as.UID, Image: image}
	if err := sess.Users.RegisterUser(ctx, reg); err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.settleRegistered(ctx, sess, op)
}

// GoogleSignIn выполняет вход через Google. Новый пользователь регистрируется
// на бэкенде, существующему обновляется время входа.
func (s *AuthService) GoogleSignIn(ctx context.Context, googleIDToken string) (session.Snapshot, error) {
	const op = "services.auth.GoogleSignIn"

	sess, err := s.resolve(ctx)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	as, err := sess.Identity.SignInWithGoogle(ctx, googleIDToken)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := sess.Users.UserExists(ctx, as.UID)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		snap, err := s.wait(ctx, sess)
		if err != nil {
			return snap, fmt.Errorf("%s: %w", op, err)
		}
		s.touchLastLogin(ctx, sess, as.UID)
		return snap, nil
	}

	reg := models.Registration{Name: as.DisplayName, Email: as.Email, UID: as.UID, Image: as.PhotoURL}
	if err := sess.Users.RegisterUser(ctx, reg); err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.settleRegistered(ctx, sess, op)
}

// Current возвращает состояние сессии, дождавшись окончания загрузки.
func (s *AuthService) Current(ctx context.Context) (session.Snapshot, error) {
	const op = "services.auth.Current"

	sess, err := s.resolve(ctx)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	snap, err := s.wait(ctx, sess)
	if err != nil {
		return snap, fmt.Errorf("%s: %w", op, err)
	}
	return snap, nil
}

// SignOut завершает сессию экземпляра.
func (s *AuthService) SignOut(ctx context.Context) error {
	const op = "services.auth.SignOut"

	sess, err := s.resolve(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := sess.Identity.SignOut(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateProfile меняет имя и, если передан файл, аватар пользователя.
func (s *AuthService) UpdateProfile(ctx context.Context, name string, avatar *Image) (session.Snapshot, error) {
	const op = "services.auth.UpdateProfile"

	sess, err := s.resolve(ctx)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	image := ""
	if avatar != nil {
		image, err = s.uploader.Upload(ctx, avatar.Filename, avatar.Body)
		if err != nil {
			return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	if _, err := sess.Identity.UpdateProfile(ctx, name, image); err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := sess.Users.UpdateProfile(ctx, models.ProfileUpdate{Name: name, Image: image}); err != nil {
		return session.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.wait(ctx, sess)
}

// settleRegistered дожидается загрузки сессии после регистрации. Загрузка
// могла запросить запись пользователя раньше, чем бэкенд её создал; тогда
// сессия восстанавливается заново и загрузка повторяется.
func (s *AuthService) settleRegistered(ctx context.Context, sess Session, op string) (session.Snapshot, error) {
	snap, err := s.wait(ctx, sess)
	if err != nil {
		return snap, fmt.Errorf("%s: %w", op, err)
	}
	if snap.State == session.StateAuthenticated {
		return snap, nil
	}

	s.log.Debug("user record not ready, reloading session", sl.Op(op))
	if err := sess.Identity.Restore(ctx); err != nil {
		return snap, fmt.Errorf("%s: %w", op, err)
	}
	snap, err = s.wait(ctx, sess)
	if err != nil {
		return snap, fmt.Errorf("%s: %w", op, err)
	}
	return snap, nil
}

func (s *AuthService) wait(ctx context.Context, sess Session) (session.Snapshot, error) {
	if s.settle > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.settle)
		defer cancel()
	}
	snap, err := sess.Machine.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return snap, session.ErrNotSettled
	}
	return snap, err
}

func (s *AuthService) touchLastLogin(ctx context.Context, sess Session, uid string) {
	const op = "services.auth.touchLastLogin"
	if uid == "" {
		return
	}
	if err := sess.Users.TouchLastLogin(ctx, uid); err != nil {
		s.log.Warn("failed to update last login", sl.Op(op), sl.Err(err))
	}
}
