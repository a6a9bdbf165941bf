package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/handy-backend/internal/models"
	"github.com/ignatzorin/handy-backend/internal/pkg/apperror"
	"github.com/ignatzorin/handy-backend/internal/repository"
)

type mockRedeemRepo struct {
	mock.Mock
}

func (m *mockRedeemRepo) CreateWithDeduction(ctx context.Context, redeem *models.Redeem) error {
	args := m.Called(ctx, redeem)
	return args.Error(0)
}

func (m *mockRedeemRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Redeem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Redeem), args.Error(1)
}

func (m *mockRedeemRepo) ListByVolunteer(ctx context.Context, volunteerID uuid.UUID) ([]models.Redeem, error) {
	args := m.Called(ctx, volunteerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Redeem), args.Error(1)
}

func (m *mockRedeemRepo) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string, refund bool) (*models.Redeem, error) {
	args := m.Called(ctx, id, newStatus, refund)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Redeem), args.Error(1)
}

func TestRedeemService_CreateRedeem_Success(t *testing.T) {
	repo := new(mockRedeemRepo)
	svc := NewRedeemService(repo, false)
	ctx := context.Background()
	volunteerID := uuid.New()

	repo.On("CreateWithDeduction", ctx, mock.AnythingOfType("*models.Redeem")).Return(nil)

	redeem, err := svc.CreateRedeem(ctx, CreateRedeemInput{
		VolunteerID: volunteerID,
		CallerType:  models.UserTypeVolunteer,
		RewardName:  "Кофе",
		Description: "Купон на кофе",
		Points:      300,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.RedeemStatusPending, redeem.Status)
	assert.Equal(t, volunteerID, redeem.VolunteerID)
	assert.Equal(t, 300, redeem.PointsRequired)
	repo.AssertExpectations(t)
}

func TestRedeemService_CreateRedeem_InsufficientPoints(t *testing.T) {
	repo := new(mockRedeemRepo)
	svc := NewRedeemService(repo, false)
	ctx := context.Background()

	repo.On("CreateWithDeduction", ctx, mock.AnythingOfType("*models.Redeem")).Return(repository.ErrInsufficientPoints)

	_, err := svc.CreateRedeem(ctx, CreateRedeemInput{
		VolunteerID: uuid.New(),
		CallerType:  models.UserTypeVolunteer,
		RewardName:  "Кофе",
		Points:      10000,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient points")
}

func TestRedeemService_CreateRedeem_NotVolunteer(t *testing.T) {
	svc := NewRedeemService(new(mockRedeemRepo), false)

	_, err := svc.CreateRedeem(context.Background(), CreateRedeemInput{
		VolunteerID: uuid.New(),
		CallerType:  models.UserTypeDisabled,
		RewardName:  "Кофе",
		Points:      100,
	})
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestRedeemService_CreateRedeem_InvalidPoints(t *testing.T) {
	svc := NewRedeemService(new(mockRedeemRepo), false)

	for _, points := range []int{0, -50} {
		_, err := svc.CreateRedeem(context.Background(), CreateRedeemInput{
			VolunteerID: uuid.New(),
			CallerType:  models.UserTypeVolunteer,
			RewardName:  "Кофе",
			Points:      points,
		})
		assert.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	}
}

func TestRedeemService_GetRedeem_OwnerOnly(t *testing.T) {
	repo := new(mockRedeemRepo)
	svc := NewRedeemService(repo, false)
	ctx := context.Background()
	redeemID := uuid.New()

	redeem := &models.Redeem{ID: redeemID, VolunteerID: uuid.New()}
	repo.On("GetByID", ctx, redeemID).Return(redeem, nil)

	_, err := svc.GetRedeem(ctx, redeemID, uuid.New())
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestRedeemService_UpdateStatus_RejectWithRefundEnabled(t *testing.T) {
	repo := new(mockRedeemRepo)
	svc := NewRedeemService(repo, true)
	ctx := context.Background()
	redeemID := uuid.New()

	rejected := &models.Redeem{ID: redeemID, Status: models.RedeemStatusRejected}
	repo.On("UpdateStatus", ctx, redeemID, models.RedeemStatusRejected, true).Return(rejected, nil)

	redeem, err := svc.UpdateRedeemStatus(ctx, redeemID, models.RedeemStatusRejected)
	assert.NoError(t, err)
	assert.Equal(t, models.RedeemStatusRejected, redeem.Status)
	repo.AssertExpectations(t)
}

func TestRedeemService_UpdateStatus_RejectWithoutRefund(t *testing.T) {
	repo := new(mockRedeemRepo)
	svc := NewRedeemService(repo, false)
	ctx := context.Background()
	redeemID := uuid.New()

	rejected := &models.Redeem{ID: redeemID, Status: models.RedeemStatusRejected}
	repo.On("UpdateStatus", ctx, redeemID, models.RedeemStatusRejected, false).Return(rejected, nil)

	_, err := svc.UpdateRedeemStatus(ctx, redeemID, models.RedeemStatusRejected)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRedeemService_UpdateStatus_ApproveNeverRefunds(t *testing.T) {
	repo := new(mockRedeemRepo)
	svc := NewRedeemService(repo, true)
	ctx := context.Background()
	redeemID := uuid.New()

	approved := &models.Redeem{ID: redeemID, Status: models.RedeemStatusApproved}
	repo.On("UpdateStatus", ctx, redeemID, models.RedeemStatusApproved, false).Return(approved, nil)

	_, err := svc.UpdateRedeemStatus(ctx, redeemID, models.RedeemStatusApproved)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRedeemService_UpdateStatus_AlreadyProcessed(t *testing.T) {
	repo := new(mockRedeemRepo)
	svc := NewRedeemService(repo, false)
	ctx := context.Background()
	redeemID := uuid.New()

	repo.On("UpdateStatus", ctx, redeemID, models.RedeemStatusApproved, false).Return(nil, repository.ErrStatusChanged)

	_, err := svc.UpdateRedeemStatus(ctx, redeemID, models.RedeemStatusApproved)
	assert.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestRedeemService_UpdateStatus_PendingRejected(t *testing.T) {
	svc := NewRedeemService(new(mockRedeemRepo), false)

	_, err := svc.UpdateRedeemStatus(context.Background(), uuid.New(), models.RedeemStatusPending)
	assert.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

// ledgerRedeemStore — потокобезопасный фейк хранилища обменов: списание
// баланса и создание заявки выполняются под одним мьютексом, как в
// транзакции хранилища.
type ledgerRedeemStore struct {
	mu      sync.Mutex
	balance int
	created int
}

func (s *ledgerRedeemStore) CreateWithDeduction(ctx context.Context, redeem *models.Redeem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balance < redeem.PointsRequired {
		return repository.ErrInsufficientPoints
	}
	s.balance -= redeem.PointsRequired
	s.created++
	redeem.ID = uuid.New()
	return nil
}

func (s *ledgerRedeemStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Redeem, error) {
	return nil, repository.ErrRedeemNotFound
}

func (s *ledgerRedeemStore) ListByVolunteer(ctx context.Context, volunteerID uuid.UUID) ([]models.Redeem, error) {
	return nil, nil
}

func (s *ledgerRedeemStore) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string, refund bool) (*models.Redeem, error) {
	return nil, repository.ErrRedeemNotFound
}

func TestRedeemService_CreateRedeem_ConcurrentDeductionsNeverOverdraw(t *testing.T) {
	store := &ledgerRedeemStore{balance: 500}
	svc := NewRedeemService(store, false)
	volunteerID := uuid.New()

	// Баланса хватает ровно на одну заявку; остальные должны получить отказ,
	// сколько бы их ни пришло одновременно.
	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateRedeem(context.Background(), CreateRedeemInput{
				VolunteerID: volunteerID,
				CallerType:  models.UserTypeVolunteer,
				RewardName:  "Кофе",
				Points:      300,
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.Contains(t, err.Error(), "Insufficient points")
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, store.created)
	assert.Equal(t, 200, store.balance)
}
