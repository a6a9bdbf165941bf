package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/handy-backend/internal/logger"
	"github.com/ignatzorin/handy-backend/internal/models"
	"github.com/ignatzorin/handy-backend/internal/pkg/apperror"
	"github.com/ignatzorin/handy-backend/internal/repository"
	"github.com/ignatzorin/handy-backend/internal/validation"
)

// Бонус за ежедневный вход отсчитывается по тайскому календарю и выдаётся
// не раньше шести утра по местному времени.
var bangkokZone = time.FixedZone("UTC+7", 7*60*60)

const dailyBonusHour = 6

// UserRepository описывает хранилище пользователей и их сессий.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	GrantDailyBonus(ctx context.Context, id uuid.UUID, now time.Time, stamp time.Time) (bool, error)
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error)
	DeleteSession(ctx context.Context, refreshToken string) error
	DeleteExpiredSessions(ctx context.Context, userID uuid.UUID) error
	ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID) error
}

// AuthService отвечает за регистрацию, вход, refresh сессии и профиль.
// Часы инжектируются, чтобы тесты могли управлять временем выдачи
// ежедневного бонуса.
type AuthService struct {
	users  UserRepository
	tokens *TokenManager
	nowFn  func() time.Time
}

// NewAuthService создаёт сервис авторизации.
func NewAuthService(users UserRepository, tokens *TokenManager) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		nowFn:  time.Now,
	}
}

// RegisterInput описывает данные регистрации.
type RegisterInput struct {
	Email     string
	Password  string
	Type      string
	Name      string
	Surname   string
	Phone     string
	UserAgent *string
	IPAddress *string
}

// AuthResult содержит пользователя и выданную пару токенов.
type AuthResult struct {
	User   *models.User
	Tokens *TokenPair
}

// Register создаёт нового пользователя и сразу открывает сессию.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateUserType(in.Type); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePersonName("Name", in.Name); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePersonName("Surname", in.Surname); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePhone(in.Phone); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to hash password")
	}

	user := &models.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		Type:         in.Type,
		Name:         in.Name,
		Surname:      in.Surname,
		Phone:        in.Phone,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperror.New(apperror.ErrCodeConflict, "Email already registered")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to create user")
	}

	tokens, err := s.openSession(ctx, user, in.UserAgent, in.IPAddress)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Login проверяет учётные данные и открывает сессию. Для волонтёра при входе
// выдаётся ежедневный бонус, если он положен.
func (s *AuthService) Login(ctx context.Context, email, password string, userAgent, ipAddress *string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.New(apperror.ErrCodeUnauthorized, "Invalid email or password")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "Invalid email or password")
	}

	user = s.maybeGrantDailyBonus(ctx, user)

	if err := s.users.DeleteExpiredSessions(ctx, user.ID); err != nil {
		logger.WithComponent("auth").Warnf("не удалось почистить истёкшие сессии %s: %v", user.ID, err)
	}

	tokens, err := s.openSession(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Refresh меняет refresh токен на новую пару. Старая сессия удаляется:
// каждый refresh токен одноразовый.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, userAgent, ipAddress *string) (*AuthResult, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "Invalid refresh token")
	}

	session, err := s.users.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperror.New(apperror.ErrCodeUnauthorized, "Invalid refresh token")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to load session")
	}
	if s.nowFn().After(session.ExpiresAt) {
		_ = s.users.DeleteSession(ctx, refreshToken)
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "Refresh token expired")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID != session.UserID {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "Invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.New(apperror.ErrCodeUnauthorized, "Invalid refresh token")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to load user")
	}

	if err := s.users.DeleteSession(ctx, refreshToken); err != nil {
		logger.WithComponent("auth").Warnf("не удалось удалить использованный refresh токен: %v", err)
	}

	tokens, err := s.openSession(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Logout закрывает сессию по refresh токену.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.users.DeleteSession(ctx, refreshToken); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to logout")
	}
	return nil
}

// Me возвращает профиль пользователя. Для волонтёра чтение профиля тоже
// может выдать ежедневный бонус: клиент держит сессию открытой и может
// не логиниться заново неделями.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to load user")
	}

	return s.maybeGrantDailyBonus(ctx, user), nil
}

// UpdateProfileInput описывает частичное обновление профиля: nil-поля
// не трогаются.
type UpdateProfileInput struct {
	Name    *string
	Surname *string
	Phone   *string
}

// UpdateProfile обновляет имя, фамилию и телефон пользователя.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to load user")
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Surname != nil {
		user.Surname = *in.Surname
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}

	if err := validation.ValidatePersonName("Name", user.Name); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePersonName("Surname", user.Surname); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePhone(user.Phone); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to update profile")
	}

	return user, nil
}

// ListSessions возвращает активные сессии пользователя.
func (s *AuthService) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	sessions, err := s.users.ListSessions(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to list sessions")
	}
	return sessions, nil
}

// RevokeSession закрывает конкретную сессию пользователя. Чужую сессию
// закрыть нельзя: удаление фильтруется по владельцу.
func (s *AuthService) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := s.users.DeleteSessionByID(ctx, sessionID, userID); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to revoke session")
	}
	return nil
}

// maybeGrantDailyBonus выдаёт волонтёру ежедневный бонус, если по тайскому
// времени уже наступило шесть утра и бонус за этот календарный день ещё не
// выдавался. Повторные вызовы в тот же день — no-op: условие на календарную
// дату проверяется в хранилище атомарно вместе с начислением. Сбой выдачи
// не ломает вход, бонус догонит пользователя при следующем обращении.
func (s *AuthService) maybeGrantDailyBonus(ctx context.Context, user *models.User) *models.User {
	if !user.IsVolunteer() {
		return user
	}

	now := s.nowFn()
	if now.In(bangkokZone).Hour() < dailyBonusHour {
		return user
	}

	granted, err := s.users.GrantDailyBonus(ctx, user.ID, now, bonusDayStart(now))
	if err != nil {
		logger.WithComponent("auth").Warnf("не удалось выдать ежедневный бонус %s: %v", user.ID, err)
		return user
	}
	if !granted {
		return user
	}

	fresh, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		logger.WithComponent("auth").Warnf("не удалось перечитать пользователя %s после бонуса: %v", user.ID, err)
		return user
	}
	return fresh
}

// bonusDayStart возвращает начало текущего тайского календарного дня в UTC.
// Именно эта отметка пишется в last_login_date при выдаче бонуса.
func bonusDayStart(now time.Time) time.Time {
	local := now.In(bangkokZone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, bangkokZone).UTC()
}

// openSession выпускает пару токенов и сохраняет refresh сессию.
func (s *AuthService) openSession(ctx context.Context, user *models.User, userAgent, ipAddress *string) (*TokenPair, error) {
	tokens, refreshExp, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to issue tokens")
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: tokens.RefreshToken,
		UserAgent:    userAgent,
		IPAddress:    ipAddress,
		ExpiresAt:    refreshExp,
	}
	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to create session")
	}

	return tokens, nil
}
