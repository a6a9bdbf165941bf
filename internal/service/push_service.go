package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/handy-backend/internal/logger"
	"github.com/ignatzorin/handy-backend/internal/models"
	"github.com/ignatzorin/handy-backend/internal/pkg/apperror"
	"github.com/ignatzorin/handy-backend/internal/push"
)

// PushTokenRepository описывает взаимодействие сервиса с хранилищем токенов.
type PushTokenRepository interface {
	Upsert(ctx context.Context, token *models.PushToken) error
	Delete(ctx context.Context, token string) error
	ListByUserType(ctx context.Context, userType string) ([]models.PushToken, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.PushToken, error)
}

// ExpoSender описывает минимальный контракт клиента Expo Push API.
type ExpoSender interface {
	Send(ctx context.Context, messages []push.Message) ([]push.Ticket, error)
}

// EventBroadcaster зеркалирует push события в открытые WebSocket соединения.
type EventBroadcaster interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
	BroadcastToUserType(userType string, event string, data any) error
}

// PushService реализует доставку уведомлений. Вся доставка best-effort:
// любая ошибка логируется и никогда не влияет на вызвавшую операцию.
type PushService struct {
	tokens PushTokenRepository
	expo   ExpoSender
	hub    EventBroadcaster
}

// NewPushService создаёт сервис уведомлений. hub может быть nil.
func NewPushService(tokens PushTokenRepository, expo ExpoSender, hub EventBroadcaster) *PushService {
	return &PushService{tokens: tokens, expo: expo, hub: hub}
}

// RegisterToken сохраняет Expo push токен устройства.
func (s *PushService) RegisterToken(ctx context.Context, userID uuid.UUID, userType, token, platform string) (*models.PushToken, error) {
	if !push.IsExpoPushToken(token) {
		return nil, apperror.New(apperror.ErrCodeValidation, "Invalid Expo push token")
	}
	if platform == "" {
		platform = "unknown"
	}

	record := &models.PushToken{
		Token:    token,
		UserID:   userID,
		UserType: userType,
		Platform: platform,
	}
	if err := s.tokens.Upsert(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// RemoveToken удаляет токен устройства.
func (s *PushService) RemoveToken(ctx context.Context, token string) error {
	return s.tokens.Delete(ctx, token)
}

// NotifyVolunteersOfNewReport рассылает волонтёрам уведомление о новой заявке.
func (s *PushService) NotifyVolunteersOfNewReport(ctx context.Context, report *models.Report, reporter *models.User) {
	subtitle := "มีคำขอความช่วยเหลือใหม่"
	if report.Type == models.ReportTypeSOS {
		subtitle = "มีเหตุฉุกเฉินที่ต้องการความช่วยเหลือด่วน"
	}

	data := map[string]interface{}{
		"reportId":    report.ID.String(),
		"type":        report.Type,
		"latitude":    report.Latitude,
		"longitude":   report.Longitude,
		"requesterId": report.UserID.String(),
	}
	if reporter != nil {
		data["requesterName"] = reporter.Name
	}

	if s.hub != nil {
		if err := s.hub.BroadcastToUserType(models.UserTypeVolunteer, "report.created", data); err != nil {
			logger.WithComponent("push").Warnf("ws рассылка о новой заявке не удалась: %v", err)
		}
	}

	tokens, err := s.tokens.ListByUserType(ctx, models.UserTypeVolunteer)
	if err != nil {
		logger.WithComponent("push").Warnf("не удалось получить токены волонтёров: %v", err)
		return
	}

	s.sendToTokens(ctx, tokens, "Handy: แจ้งเตือนเคสใหม่", subtitle, data)
}

// NotifyUser отправляет уведомление на все устройства пользователя.
func (s *PushService) NotifyUser(ctx context.Context, userID uuid.UUID, event, title, body string, data map[string]interface{}) {
	if s.hub != nil {
		if err := s.hub.BroadcastToUser(userID, event, data); err != nil {
			logger.WithComponent("push").Warnf("ws отправка пользователю %s не удалась: %v", userID, err)
		}
	}

	tokens, err := s.tokens.ListByUserID(ctx, userID)
	if err != nil {
		logger.WithComponent("push").Warnf("не удалось получить токены пользователя %s: %v", userID, err)
		return
	}

	s.sendToTokens(ctx, tokens, title, body, data)
}

// sendToTokens отправляет сообщение на валидные Expo токены.
func (s *PushService) sendToTokens(ctx context.Context, tokens []models.PushToken, title, body string, data map[string]interface{}) {
	var messages []push.Message
	for _, t := range tokens {
		if !push.IsExpoPushToken(t.Token) {
			continue
		}
		messages = append(messages, push.Message{
			To:        t.Token,
			Title:     title,
			Body:      body,
			Sound:     "default",
			Priority:  "high",
			ChannelID: "default",
			Data:      data,
		})
	}
	if len(messages) == 0 {
		return
	}

	tickets, err := s.expo.Send(ctx, messages)
	if err != nil {
		logger.WithComponent("push").Warnf("отправка через Expo не удалась: %v", err)
	}
	for _, ticket := range tickets {
		if ticket.Status == "error" {
			logger.WithComponent("push").Warnf("Expo отклонил сообщение: %s", ticket.Message)
		}
	}
}
