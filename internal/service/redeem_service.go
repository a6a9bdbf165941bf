package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ignatzorin/handy-backend/internal/models"
	"github.com/ignatzorin/handy-backend/internal/pkg/apperror"
	"github.com/ignatzorin/handy-backend/internal/repository"
	"github.com/ignatzorin/handy-backend/internal/validation"
)

// RedeemRepository описывает хранилище заявок на обмен баллов. Списание
// баллов и создание записи обязаны выполняться в одной транзакции.
type RedeemRepository interface {
	CreateWithDeduction(ctx context.Context, redeem *models.Redeem) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Redeem, error)
	ListByVolunteer(ctx context.Context, volunteerID uuid.UUID) ([]models.Redeem, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string, refund bool) (*models.Redeem, error)
}

// RedeemService содержит логику обмена баллов на вознаграждения.
type RedeemService struct {
	repo           RedeemRepository
	refundOnReject bool
}

// NewRedeemService создаёт сервис обмена. refundOnReject включает возврат
// баллов при отклонении заявки.
func NewRedeemService(repo RedeemRepository, refundOnReject bool) *RedeemService {
	return &RedeemService{repo: repo, refundOnReject: refundOnReject}
}

// CreateRedeemInput описывает входные данные заявки на обмен.
type CreateRedeemInput struct {
	VolunteerID uuid.UUID
	CallerType  string
	RewardName  string
	Description string
	Points      int
}

// CreateRedeem списывает баллы и создаёт заявку со статусом pending одной
// транзакцией: при нехватке баллов ничего не меняется, при конкурентных
// заявках списания сериализуются хранилищем и баланс не уходит в минус.
func (s *RedeemService) CreateRedeem(ctx context.Context, in CreateRedeemInput) (*models.Redeem, error) {
	if in.CallerType != models.UserTypeVolunteer {
		return nil, apperror.New(apperror.ErrCodeForbidden, "Only volunteers can redeem points")
	}
	if err := validation.ValidateRewardName(in.RewardName); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateRewardDescription(in.Description); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePointsRequired(in.Points); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	redeem := &models.Redeem{
		VolunteerID:       in.VolunteerID,
		RewardName:        in.RewardName,
		RewardDescription: in.Description,
		PointsRequired:    in.Points,
		Status:            models.RedeemStatusPending,
	}

	if err := s.repo.CreateWithDeduction(ctx, redeem); err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientPoints):
			return nil, apperror.ErrInsufficientPoints
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, apperror.ErrUserNotFound
		case errors.Is(err, repository.ErrNotVolunteer):
			return nil, apperror.New(apperror.ErrCodeForbidden, "Only volunteers can redeem points")
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to create redeem")
		}
	}

	return redeem, nil
}

// GetRedeem возвращает заявку её владельцу.
func (s *RedeemService) GetRedeem(ctx context.Context, redeemID, callerID uuid.UUID) (*models.Redeem, error) {
	redeem, err := s.repo.GetByID(ctx, redeemID)
	if err != nil {
		if errors.Is(err, repository.ErrRedeemNotFound) {
			return nil, apperror.ErrRedeemNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to load redeem")
	}
	if redeem.VolunteerID != callerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "You do not have permission to view this redeem")
	}
	return redeem, nil
}

// ListMyRedeems возвращает историю обменов волонтёра.
func (s *RedeemService) ListMyRedeems(ctx context.Context, volunteerID uuid.UUID, callerType string) ([]models.Redeem, error) {
	if callerType != models.UserTypeVolunteer {
		return nil, apperror.New(apperror.ErrCodeForbidden, "Only volunteers can view redeems")
	}

	redeems, err := s.repo.ListByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to list redeems")
	}
	return redeems, nil
}

// UpdateRedeemStatus переводит заявку из pending в approved или rejected.
// Операция административная и не выставлена в публичный API. При отклонении
// баллы возвращаются в той же транзакции, если включён возврат.
func (s *RedeemService) UpdateRedeemStatus(ctx context.Context, redeemID uuid.UUID, newStatus string) (*models.Redeem, error) {
	if err := validation.ValidateRedeemStatus(newStatus); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if newStatus == models.RedeemStatusPending {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition, "Redeem is already pending")
	}

	refund := s.refundOnReject && newStatus == models.RedeemStatusRejected
	redeem, err := s.repo.UpdateStatus(ctx, redeemID, newStatus, refund)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRedeemNotFound):
			return nil, apperror.ErrRedeemNotFound
		case errors.Is(err, repository.ErrStatusChanged):
			return nil, apperror.New(apperror.ErrCodeInvalidTransition, "Redeem has already been processed")
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to update redeem")
		}
	}
	return redeem, nil
}
