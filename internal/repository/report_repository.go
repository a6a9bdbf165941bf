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

// ReportRepository отвечает за работу с заявками о помощи.
//
// Переходы статусов реализованы условными UPDATE по текущему статусу
// (compare-and-swap): при конкурентных вызовах базе принадлежит последнее
// слово, и ровно один из них изменит строку. Чтение-изменение-запись на
// уровне приложения здесь запрещено — оно воспроизводит гонку двойного
// назначения волонтёра.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository создаёт экземпляр репозитория.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, user_id, type, details, location, latitude, longitude, status, priority, assigned_volunteer_id, created_at, updated_at`

// availableCasesLimit ограничивает выдачу доступных заявок. Пагинации в API
// нет; предел страхует от неограниченного ответа при аномальном бэклоге.
const availableCasesLimit = 500

// Create сохраняет новую заявку со статусом pending и без волонтёра.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (user_id, type, details, location, latitude, longitude, status, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		report.UserID, report.Type, report.Details, report.Location,
		report.Latitude, report.Longitude, report.Status, report.Priority,
	).Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt); err != nil {
		return fmt.Errorf("report repository: create %w", err)
	}

	return nil
}

// GetByID возвращает заявку по идентификатору.
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: get by id %w", err)
	}

	return &report, nil
}

// ListByUser возвращает заявки автора, новые сверху.
// Необязательный фильтр по статусу.
func (r *ReportRepository) ListByUser(ctx context.Context, userID uuid.UUID, status string) ([]models.Report, error) {
	var reports []models.Report
	var err error

	if status != "" {
		query := `SELECT ` + reportColumns + ` FROM reports WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC`
		err = r.db.SelectContext(ctx, &reports, query, userID, status)
	} else {
		query := `SELECT ` + reportColumns + ` FROM reports WHERE user_id = $1 ORDER BY created_at DESC`
		err = r.db.SelectContext(ctx, &reports, query, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("report repository: list by user %w", err)
	}

	return reports, nil
}

// ListAvailable возвращает заявки в статусе pending, новые сверху.
func (r *ReportRepository) ListAvailable(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	query := `SELECT ` + reportColumns + ` FROM reports WHERE status = $1 ORDER BY created_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &reports, query, models.ReportStatusPending, availableCasesLimit); err != nil {
		return nil, fmt.Errorf("report repository: list available %w", err)
	}

	return reports, nil
}

// ListByVolunteer возвращает заявки, назначенные волонтёру, новые сверху.
func (r *ReportRepository) ListByVolunteer(ctx context.Context, volunteerID uuid.UUID) ([]models.Report, error) {
	var reports []models.Report
	query := `SELECT ` + reportColumns + ` FROM reports WHERE assigned_volunteer_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &reports, query, volunteerID); err != nil {
		return nil, fmt.Errorf("report repository: list by volunteer %w", err)
	}

	return reports, nil
}

// Assign назначает волонтёра на заявку одним условным UPDATE:
// выигрывает ровно один из конкурентных вызовов, остальные получают
// ErrReportNotAvailable. Назначенный волонтёр никогда не перезаписывается.
func (r *ReportRepository) Assign(ctx context.Context, reportID, volunteerID uuid.UUID) (*models.Report, error) {
	query := `
		UPDATE reports
		SET status = $3, assigned_volunteer_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = $4 AND assigned_volunteer_id IS NULL
		RETURNING ` + reportColumns + `
	`

	var report models.Report
	err := r.db.GetContext(ctx, &report, query, reportID, volunteerID, models.ReportStatusInProgress, models.ReportStatusPending)
	if err == nil {
		return &report, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report repository: assign %w", err)
	}

	// Строка не изменена: либо заявки нет, либо её уже забрали.
	if _, getErr := r.GetByID(ctx, reportID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrReportNotAvailable
}

// Complete переводит заявку in_progress -> completed одним условным UPDATE.
func (r *ReportRepository) Complete(ctx context.Context, reportID uuid.UUID) (*models.Report, error) {
	query := `
		UPDATE reports
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING ` + reportColumns + `
	`

	var report models.Report
	err := r.db.GetContext(ctx, &report, query, reportID, models.ReportStatusCompleted, models.ReportStatusInProgress)
	if err == nil {
		return &report, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report repository: complete %w", err)
	}

	if _, getErr := r.GetByID(ctx, reportID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStatusChanged
}

// UpdateStatus переводит заявку из ожидаемого статуса в новый одним условным
// UPDATE. Если статус уже изменён конкурентным вызовом, возвращает
// ErrStatusChanged, а не перезаписывает чужой переход.
func (r *ReportRepository) UpdateStatus(ctx context.Context, reportID uuid.UUID, fromStatus, toStatus string) (*models.Report, error) {
	query := `
		UPDATE reports
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + reportColumns + `
	`

	var report models.Report
	err := r.db.GetContext(ctx, &report, query, reportID, fromStatus, toStatus)
	if err == nil {
		return &report, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report repository: update status %w", err)
	}

	if _, getErr := r.GetByID(ctx, reportID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStatusChanged
}
