package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/handy-backend/internal/models"
)

// RedeemRepository отвечает за заявки на обмен баллов.
//
// Создание заявки и списание баллов выполняются в одной транзакции:
// окно проверил-потом-списал отсутствует, двойное списание против
// устаревшего баланса невозможно даже при конкурентных запросах
// с нескольких устройств одного волонтёра.
type RedeemRepository struct {
	db *sqlx.DB
}

// NewRedeemRepository создаёт экземпляр репозитория.
func NewRedeemRepository(db *sqlx.DB) *RedeemRepository {
	return &RedeemRepository{db: db}
}

const redeemColumns = `id, volunteer_id, reward_name, reward_description, points_required, status, created_at, updated_at`

// CreateWithDeduction списывает баллы и создаёт заявку в одной транзакции.
// Баланс перепроверяется в момент списания условным UPDATE, а не только при
// предварительном чтении.
func (r *RedeemRepository) CreateWithDeduction(ctx context.Context, redeem *models.Redeem) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("redeem repository: begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	deduct := `
		UPDATE users
		SET points = points - $2, updated_at = NOW()
		WHERE id = $1 AND type = $3 AND points >= $2
		RETURNING points
	`

	var balance int
	if err = tx.GetContext(ctx, &balance, deduct, redeem.VolunteerID, redeem.PointsRequired, models.UserTypeVolunteer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = r.classifyDeductFailure(ctx, redeem.VolunteerID)
			return err
		}
		err = fmt.Errorf("redeem repository: deduct points %w", err)
		return err
	}

	insert := `
		INSERT INTO redeems (volunteer_id, reward_name, reward_description, points_required, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	if err = tx.QueryRowxContext(
		ctx, insert,
		redeem.VolunteerID, redeem.RewardName, redeem.RewardDescription, redeem.PointsRequired, models.RedeemStatusPending,
	).Scan(&redeem.ID, &redeem.CreatedAt, &redeem.UpdatedAt); err != nil {
		err = fmt.Errorf("redeem repository: insert %w", err)
		return err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("redeem repository: commit %w", err)
		return err
	}

	redeem.Status = models.RedeemStatusPending
	return nil
}

// classifyDeductFailure выясняет через отдельное чтение, почему условное
// списание не нашло строку.
func (r *RedeemRepository) classifyDeductFailure(ctx context.Context, volunteerID uuid.UUID) error {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, volunteerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("redeem repository: classify failure %w", err)
	}
	if !user.IsVolunteer() {
		return ErrNotVolunteer
	}
	return ErrInsufficientPoints
}

// GetByID возвращает заявку на обмен по идентификатору.
func (r *RedeemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Redeem, error) {
	var redeem models.Redeem
	query := `SELECT ` + redeemColumns + ` FROM redeems WHERE id = $1`
	if err := r.db.GetContext(ctx, &redeem, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRedeemNotFound
		}
		return nil, fmt.Errorf("redeem repository: get by id %w", err)
	}

	return &redeem, nil
}

// ListByVolunteer возвращает историю обменов волонтёра, новые сверху.
func (r *RedeemRepository) ListByVolunteer(ctx context.Context, volunteerID uuid.UUID) ([]models.Redeem, error) {
	var redeems []models.Redeem
	query := `SELECT ` + redeemColumns + ` FROM redeems WHERE volunteer_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &redeems, query, volunteerID); err != nil {
		return nil, fmt.Errorf("redeem repository: list by volunteer %w", err)
	}

	return redeems, nil
}

// UpdateStatus переводит заявку pending -> newStatus одним условным UPDATE.
// При refund=true (отклонение с возвратом) баллы возвращаются волонтёру в
// той же транзакции, что и смена статуса.
func (r *RedeemRepository) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string, refund bool) (redeem *models.Redeem, err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("redeem repository: begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	update := `
		UPDATE redeems
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING ` + redeemColumns + `
	`

	var updated models.Redeem
	if err = tx.GetContext(ctx, &updated, update, id, newStatus, models.RedeemStatusPending); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				err = getErr
				return nil, err
			}
			err = ErrStatusChanged
			return nil, err
		}
		err = fmt.Errorf("redeem repository: update status %w", err)
		return nil, err
	}

	if refund {
		restore := `
			UPDATE users
			SET points = points + $2, updated_at = NOW()
			WHERE id = $1 AND type = $3
		`
		if _, err = tx.ExecContext(ctx, restore, updated.VolunteerID, updated.PointsRequired, models.UserTypeVolunteer); err != nil {
			err = fmt.Errorf("redeem repository: refund points %w", err)
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("redeem repository: commit %w", err)
		return nil, err
	}

	return &updated, nil
}
