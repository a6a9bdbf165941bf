package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/handy-backend/internal/models"
	"github.com/ignatzorin/handy-backend/internal/pkg/apperror"
	"github.com/ignatzorin/handy-backend/internal/repository"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GrantDailyBonus(ctx context.Context, id uuid.UUID, now time.Time, stamp time.Time) (bool, error) {
	args := m.Called(ctx, id, now, stamp)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) CreateSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockUserRepo) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockUserRepo) DeleteSession(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *mockUserRepo) DeleteExpiredSessions(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockUserRepo) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *mockUserRepo) DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

func newTestTokenManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
}

func intPtr(v int) *int { return &v }

// bangkokTime возвращает момент с заданным часом по времени UTC+7.
func bangkokTime(hour int) time.Time {
	return time.Date(2025, 6, 10, hour, 30, 0, 0, bangkokZone)
}

func TestAuthService_Me_GrantsDailyBonusAfterSix(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	now := bangkokTime(9)
	svc.nowFn = func() time.Time { return now }

	ctx := context.Background()
	volunteerID := uuid.New()
	before := &models.User{ID: volunteerID, Type: models.UserTypeVolunteer, Points: intPtr(100)}
	after := &models.User{ID: volunteerID, Type: models.UserTypeVolunteer, Points: intPtr(150)}

	repo.On("GetByID", ctx, volunteerID).Return(before, nil).Once()
	repo.On("GrantDailyBonus", ctx, volunteerID, now, bonusDayStart(now)).Return(true, nil).Once()
	repo.On("GetByID", ctx, volunteerID).Return(after, nil).Once()

	user, err := svc.Me(ctx, volunteerID)
	assert.NoError(t, err)
	assert.Equal(t, 150, user.PointsValue())
	repo.AssertExpectations(t)
}

func TestAuthService_Me_NoBonusBeforeSix(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	svc.nowFn = func() time.Time { return bangkokTime(5) }

	ctx := context.Background()
	volunteerID := uuid.New()
	volunteer := &models.User{ID: volunteerID, Type: models.UserTypeVolunteer, Points: intPtr(100)}

	repo.On("GetByID", ctx, volunteerID).Return(volunteer, nil).Once()

	user, err := svc.Me(ctx, volunteerID)
	assert.NoError(t, err)
	assert.Equal(t, 100, user.PointsValue())
	repo.AssertNotCalled(t, "GrantDailyBonus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Me_BonusIdempotentSameDay(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	now := bangkokTime(10)
	svc.nowFn = func() time.Time { return now }

	ctx := context.Background()
	volunteerID := uuid.New()
	volunteer := &models.User{ID: volunteerID, Type: models.UserTypeVolunteer, Points: intPtr(150)}

	repo.On("GetByID", ctx, volunteerID).Return(volunteer, nil).Once()
	// Хранилище сообщает, что бонус за этот календарный день уже выдан.
	repo.On("GrantDailyBonus", ctx, volunteerID, now, bonusDayStart(now)).Return(false, nil).Once()

	user, err := svc.Me(ctx, volunteerID)
	assert.NoError(t, err)
	assert.Equal(t, 150, user.PointsValue())
	// Повторного чтения нет: баланс не менялся.
	repo.AssertExpectations(t)
}

func TestAuthService_Me_NoBonusForDisabledUser(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	svc.nowFn = func() time.Time { return bangkokTime(12) }

	ctx := context.Background()
	userID := uuid.New()
	user := &models.User{ID: userID, Type: models.UserTypeDisabled}

	repo.On("GetByID", ctx, userID).Return(user, nil).Once()

	_, err := svc.Me(ctx, userID)
	assert.NoError(t, err)
	repo.AssertNotCalled(t, "GrantDailyBonus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	svc.nowFn = func() time.Time { return bangkokTime(3) }

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "vol@example.com",
		PasswordHash: string(hash),
		Type:         models.UserTypeVolunteer,
		Points:       intPtr(0),
	}

	repo.On("GetByEmail", ctx, "vol@example.com").Return(user, nil)
	repo.On("DeleteExpiredSessions", ctx, user.ID).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.Login(ctx, "vol@example.com", "secret123", nil, nil)
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	assert.Equal(t, user.ID, result.User.ID)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, newTestTokenManager())

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	user := &models.User{ID: uuid.New(), Email: "u@example.com", PasswordHash: string(hash)}

	repo.On("GetByEmail", ctx, "u@example.com").Return(user, nil)

	_, err := svc.Login(ctx, "u@example.com", "wrong", nil, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email or password")
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, repository.ErrUserNotFound)

	_, err := svc.Login(ctx, "nobody@example.com", "whatever", nil, nil)
	assert.Error(t, err)
	// Неизвестный email и неверный пароль неразличимы для клиента.
	assert.Contains(t, err.Error(), "Invalid email or password")
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(repository.ErrEmailTaken)

	_, err := svc.Register(ctx, RegisterInput{
		Email:    "taken@example.com",
		Password: "secret123",
		Type:     models.UserTypeVolunteer,
		Name:     "Anna",
		Surname:  "K",
		Phone:    "+66812345678",
	})
	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestAuthService_Register_InvalidType(t *testing.T) {
	svc := NewAuthService(new(mockUserRepo), newTestTokenManager())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "x@example.com",
		Password: "secret123",
		Type:     "admin",
		Name:     "Anna",
		Surname:  "K",
		Phone:    "+66812345678",
	})
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestAuthService_Refresh_RotatesSession(t *testing.T) {
	repo := new(mockUserRepo)
	tokens := newTestTokenManager()
	svc := NewAuthService(repo, tokens)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Type: models.UserTypeDisabled}
	pair, refreshExp, err := tokens.GeneratePair(user)
	assert.NoError(t, err)

	session := &models.Session{
		ID:           uuid.New(),
		UserID:       user.ID,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    refreshExp,
	}

	repo.On("GetSessionByToken", ctx, pair.RefreshToken).Return(session, nil)
	repo.On("GetByID", ctx, user.ID).Return(user, nil)
	repo.On("DeleteSession", ctx, pair.RefreshToken).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.Refresh(ctx, pair.RefreshToken, nil, nil)
	assert.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, result.Tokens.RefreshToken)
	repo.AssertExpectations(t)
}

func TestAuthService_Refresh_UnknownToken(t *testing.T) {
	repo := new(mockUserRepo)
	tokens := newTestTokenManager()
	svc := NewAuthService(repo, tokens)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Type: models.UserTypeDisabled}
	pair, _, err := tokens.GeneratePair(user)
	assert.NoError(t, err)

	repo.On("GetSessionByToken", ctx, pair.RefreshToken).Return(nil, repository.ErrSessionNotFound)

	_, err = svc.Refresh(ctx, pair.RefreshToken, nil, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid refresh token")
}

func TestAuthService_Refresh_GarbageToken(t *testing.T) {
	svc := NewAuthService(new(mockUserRepo), newTestTokenManager())

	_, err := svc.Refresh(context.Background(), "not-a-jwt", nil, nil)
	assert.Error(t, err)
}
