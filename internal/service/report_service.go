package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/handy-backend/internal/goroutine"
	"github.com/ignatzorin/handy-backend/internal/logger"
	"github.com/ignatzorin/handy-backend/internal/models"
	"github.com/ignatzorin/handy-backend/internal/pkg/apperror"
	"github.com/ignatzorin/handy-backend/internal/repository"
	"github.com/ignatzorin/handy-backend/internal/validation"
)

// ReportRepository описывает взаимодействие сервиса с хранилищем заявок.
// Assign, Complete и UpdateStatus обязаны быть условными записями: хранилище —
// единственный арбитр порядка конкурентных переходов статуса.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status string) ([]models.Report, error)
	ListAvailable(ctx context.Context) ([]models.Report, error)
	ListByVolunteer(ctx context.Context, volunteerID uuid.UUID) ([]models.Report, error)
	Assign(ctx context.Context, reportID, volunteerID uuid.UUID) (*models.Report, error)
	Complete(ctx context.Context, reportID uuid.UUID) (*models.Report, error)
	UpdateStatus(ctx context.Context, reportID uuid.UUID, fromStatus, toStatus string) (*models.Report, error)
}

// UserReader описывает чтение пользователей (контакты автора, имя для пушей).
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// PointsLedger описывает атомарное изменение баланса волонтёра.
type PointsLedger interface {
	AddPoints(ctx context.Context, id uuid.UUID, delta int) (int, error)
}

// Notifier описывает best-effort доставку уведомлений. Реализация не должна
// возвращать ошибки наружу: сбой доставки никогда не откатывает переход.
type Notifier interface {
	NotifyVolunteersOfNewReport(ctx context.Context, report *models.Report, reporter *models.User)
	NotifyUser(ctx context.Context, userID uuid.UUID, event, title, body string, data map[string]interface{})
}

// ReportService содержит бизнес-логику жизненного цикла заявки: граф
// статусов, права сторон и начисление баллов при завершении.
type ReportService struct {
	repo          ReportRepository
	users         UserReader
	ledger        PointsLedger
	notifier      Notifier
	notifyTimeout time.Duration
}

// NewReportService создаёт сервис заявок. notifier может быть nil.
func NewReportService(repo ReportRepository, users UserReader, ledger PointsLedger, notifier Notifier, notifyTimeout time.Duration) *ReportService {
	if notifyTimeout <= 0 {
		notifyTimeout = 10 * time.Second
	}
	return &ReportService{
		repo:          repo,
		users:         users,
		ledger:        ledger,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
	}
}

// CreateReportInput описывает входные данные новой заявки.
type CreateReportInput struct {
	ReporterID   uuid.UUID
	ReporterType string
	Type         string
	Details      string
	Location     string
	Latitude     float64
	Longitude    float64
}

// CreateReport создаёт заявку со статусом pending. Приоритет выводится из
// типа и далее не меняется. Уведомление волонтёров — fire-and-forget.
func (s *ReportService) CreateReport(ctx context.Context, in CreateReportInput) (*models.Report, error) {
	if in.ReporterType != models.UserTypeDisabled {
		return nil, apperror.New(apperror.ErrCodeForbidden, "Only disabled users can create reports")
	}
	if err := validation.ValidateReportType(in.Type); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateReportDetails(in.Details); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLocation(in.Location); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateCoordinates(in.Latitude, in.Longitude); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	report := &models.Report{
		UserID:    in.ReporterID,
		Type:      in.Type,
		Details:   in.Details,
		Location:  in.Location,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Status:    models.ReportStatusPending,
		Priority:  models.PriorityForType(in.Type),
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to create report")
	}

	s.fireAndForget(func(ctx context.Context) {
		reporter, err := s.users.GetByID(ctx, report.UserID)
		if err != nil {
			logger.WithComponent("report").Warnf("не удалось прочитать автора %s для уведомления: %v", report.UserID, err)
		}
		s.notifier.NotifyVolunteersOfNewReport(ctx, report, reporter)
	})

	return report, nil
}

// AcceptCase назначает волонтёра на заявку. Одним условным обновлением
// хранилища выигрывает ровно один из конкурентных вызовов; проигравшие
// получают конфликт "Report is not available", а не молча перезаписывают
// чужое назначение.
func (s *ReportService) AcceptCase(ctx context.Context, reportID, volunteerID uuid.UUID, callerType string) (*models.Report, error) {
	if callerType != models.UserTypeVolunteer {
		return nil, apperror.New(apperror.ErrCodeForbidden, "Only volunteers can accept cases")
	}

	report, err := s.repo.Assign(ctx, reportID, volunteerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReportNotFound):
			return nil, apperror.ErrReportNotFound
		case errors.Is(err, repository.ErrReportNotAvailable):
			return nil, apperror.ErrReportNotAvailable
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to accept case")
		}
	}

	s.fireAndForget(func(ctx context.Context) {
		s.notifier.NotifyUser(ctx, report.UserID, "report.accepted",
			"Handy: มีอาสาสมัครรับเคสของคุณแล้ว",
			"อาสาสมัครกำลังไปช่วยเหลือคุณ",
			map[string]interface{}{
				"reportId":    report.ID.String(),
				"volunteerId": volunteerID.String(),
			})
	})

	return report, nil
}

// CompleteReport подтверждает завершение заявки. Подтверждает только автор —
// волонтёр не может завершить заявку сам и начислить себе баллы. Начисление
// выполняется после фиксации перехода; его сбой логируется как задача для
// сверки, но не откатывает уже завершённую заявку.
func (s *ReportService) CompleteReport(ctx context.Context, reportID, callerID uuid.UUID) (*models.Report, error) {
	report, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to load report")
	}

	if report.UserID != callerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "Only the reporter can confirm completion")
	}
	if report.Status != models.ReportStatusInProgress {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition, "Report is not in progress")
	}

	completed, err := s.repo.Complete(ctx, reportID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReportNotFound):
			return nil, apperror.ErrReportNotFound
		case errors.Is(err, repository.ErrStatusChanged):
			return nil, apperror.New(apperror.ErrCodeInvalidTransition, "Report is not in progress")
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to complete report")
		}
	}

	award := models.PointsForType(completed.Type)
	if completed.AssignedVolunteerID == nil {
		// По инварианту in_progress всегда имеет волонтёра; это защита от
		// повреждённых данных, а не ожидаемый путь.
		logger.WithComponent("report").Errorf("заявка %s завершена без назначенного волонтёра", completed.ID)
		return completed, nil
	}

	volunteerID := *completed.AssignedVolunteerID
	if _, err := s.ledger.AddPoints(ctx, volunteerID, award); err != nil {
		logger.WithComponent("report").
			Errorf("сверка: не удалось начислить %d баллов волонтёру %s за заявку %s: %v", award, volunteerID, completed.ID, err)
	}

	s.fireAndForget(func(ctx context.Context) {
		s.notifier.NotifyUser(ctx, volunteerID, "report.completed",
			"Handy: เคสเสร็จสิ้น",
			"ขอบคุณสำหรับความช่วยเหลือของคุณ",
			map[string]interface{}{
				"reportId":      completed.ID.String(),
				"pointsAwarded": award,
			})
	})

	return completed, nil
}

// UpdateStatus — общий путь смены статуса, фактически только для отмены.
// "completed" здесь отклоняется безусловно: завершение идёт через
// CompleteReport, иначе начисление баллов можно было бы обойти или задвоить.
// "in_progress" также отклоняется: назначение волонтёра идёт через AcceptCase.
func (s *ReportService) UpdateStatus(ctx context.Context, reportID, callerID uuid.UUID, newStatus string) (*models.Report, error) {
	if err := validation.ValidateReportStatus(newStatus); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if newStatus == models.ReportStatusCompleted {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition, "Use the complete endpoint to finish a report")
	}
	if newStatus == models.ReportStatusInProgress {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition, "Use the accept endpoint to take a case")
	}

	report, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to load report")
	}

	if !report.IsParty(callerID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "You do not have permission to update this report")
	}

	if newStatus != models.ReportStatusCancelled {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition, "Unsupported status change")
	}
	if report.IsTerminal() {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition, "Report is already finished")
	}

	updated, err := s.repo.UpdateStatus(ctx, reportID, report.Status, newStatus)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReportNotFound):
			return nil, apperror.ErrReportNotFound
		case errors.Is(err, repository.ErrStatusChanged):
			return nil, apperror.New(apperror.ErrCodeInvalidTransition, "Report status has changed, reload and try again")
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to update status")
		}
	}

	// Сообщаем второй стороне об отмене, если она есть.
	if other := otherParty(updated, callerID); other != nil {
		target := *other
		s.fireAndForget(func(ctx context.Context) {
			s.notifier.NotifyUser(ctx, target, "report.cancelled",
				"Handy: เคสถูกยกเลิก",
				"เคสนี้ถูกยกเลิกแล้ว",
				map[string]interface{}{"reportId": updated.ID.String()})
		})
	}

	return updated, nil
}

// ListAvailableCases возвращает свободные заявки для волонтёра.
func (s *ReportService) ListAvailableCases(ctx context.Context, callerType string) ([]models.Report, error) {
	if callerType != models.UserTypeVolunteer {
		return nil, apperror.New(apperror.ErrCodeForbidden, "Only volunteers can view available cases")
	}

	reports, err := s.repo.ListAvailable(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to list available cases")
	}
	return reports, nil
}

// ListMyReports возвращает заявки автора с необязательным фильтром по статусу.
func (s *ReportService) ListMyReports(ctx context.Context, userID uuid.UUID, callerType, status string) ([]models.Report, error) {
	if callerType != models.UserTypeDisabled {
		return nil, apperror.New(apperror.ErrCodeForbidden, "Only disabled users can view their reports")
	}
	if status != "" {
		if err := validation.ValidateReportStatus(status); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
	}

	reports, err := s.repo.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to list reports")
	}
	return reports, nil
}

// ListMyCases возвращает заявки, назначенные волонтёру.
func (s *ReportService) ListMyCases(ctx context.Context, volunteerID uuid.UUID, callerType string) ([]models.Report, error) {
	if callerType != models.UserTypeVolunteer {
		return nil, apperror.New(apperror.ErrCodeForbidden, "Only volunteers can view their cases")
	}

	reports, err := s.repo.ListByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to list cases")
	}
	return reports, nil
}

// GetReport возвращает заявку её стороне. Назначенный волонтёр дополнительно
// получает контакты автора, чтобы связаться с ним на месте.
func (s *ReportService) GetReport(ctx context.Context, reportID, callerID uuid.UUID) (*models.Report, *models.User, error) {
	report, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, nil, apperror.ErrReportNotFound
		}
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Failed to load report")
	}

	if !report.IsParty(callerID) {
		return nil, nil, apperror.New(apperror.ErrCodeForbidden, "You do not have permission to view this report")
	}

	var reporter *models.User
	if report.AssignedVolunteerID != nil && *report.AssignedVolunteerID == callerID {
		reporter, err = s.users.GetByID(ctx, report.UserID)
		if err != nil {
			// Контакты — дополнение к ответу, их отсутствие не ломает чтение.
			logger.WithComponent("report").Warnf("не удалось прочитать контакты автора %s: %v", report.UserID, err)
			reporter = nil
		}
	}

	return report, reporter, nil
}

// fireAndForget выполняет доставку уведомления в фоне с коротким таймаутом.
func (s *ReportService) fireAndForget(fn func(ctx context.Context)) {
	if s.notifier == nil {
		return
	}
	timeout := s.notifyTimeout
	goroutine.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		fn(ctx)
	})
}

// otherParty возвращает вторую сторону заявки относительно вызвавшего.
func otherParty(report *models.Report, callerID uuid.UUID) *uuid.UUID {
	if report.UserID == callerID {
		return report.AssignedVolunteerID
	}
	reporter := report.UserID
	return &reporter
}
