package models

import (
	"time"

	"github.com/google/uuid"
)

// Report описывает заявку о помощи от пользователя с инвалидностью.
// Статус движется строго по графу: pending -> in_progress -> completed,
// с отменой из pending и in_progress. Волонтёр назначается ровно один раз.
type Report struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	UserID              uuid.UUID  `db:"user_id" json:"userId"`
	Type                string     `db:"type" json:"type"`
	Details             string     `db:"details" json:"details"`
	Location            string     `db:"location" json:"location"`
	Latitude            float64    `db:"latitude" json:"latitude"`
	Longitude           float64    `db:"longitude" json:"longitude"`
	Status              string     `db:"status" json:"status"`
	Priority            string     `db:"priority" json:"priority"`
	AssignedVolunteerID *uuid.UUID `db:"assigned_volunteer_id" json:"assignedVolunteerId,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
}

// IsTerminal сообщает, достигла ли заявка конечного статуса.
func (r *Report) IsTerminal() bool {
	return r.Status == ReportStatusCompleted || r.Status == ReportStatusCancelled
}

// IsParty сообщает, является ли пользователь стороной заявки
// (автором или назначенным волонтёром).
func (r *Report) IsParty(userID uuid.UUID) bool {
	if r.UserID == userID {
		return true
	}
	return r.AssignedVolunteerID != nil && *r.AssignedVolunteerID == userID
}

// PriorityForType возвращает приоритет, выводимый из типа заявки при создании.
func PriorityForType(reportType string) string {
	if reportType == ReportTypeSOS {
		return ReportPriorityHigh
	}
	return ReportPriorityMedium
}

// PointsForType возвращает вознаграждение волонтёра за завершённую заявку.
func PointsForType(reportType string) int {
	if reportType == ReportTypeSOS {
		return PointsAwardSOS
	}
	return PointsAwardNormal
}
