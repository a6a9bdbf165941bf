package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает пользователя приложения: либо человек с инвалидностью
// (создаёт заявки о помощи), либо волонтёр (принимает их и копит баллы).
type User struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	Type          string     `db:"type" json:"type"`
	Name          string     `db:"name" json:"name"`
	Surname       string     `db:"surname" json:"surname"`
	Phone         string     `db:"phone" json:"phone"`
	Points        *int       `db:"points" json:"points,omitempty"`
	LastLoginDate *time.Time `db:"last_login_date" json:"lastLoginDate,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// IsVolunteer сообщает, является ли пользователь волонтёром.
func (u *User) IsVolunteer() bool {
	return u.Type == UserTypeVolunteer
}

// PointsValue возвращает баланс баллов (0, если поле отсутствует).
func (u *User) PointsValue() int {
	if u.Points == nil {
		return 0
	}
	return *u.Points
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"userId"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	UserAgent    *string   `db:"user_agent" json:"userAgent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ipAddress,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// PushToken связывает Expo push токен устройства с пользователем.
type PushToken struct {
	Token        string    `db:"token" json:"token"`
	UserID       uuid.UUID `db:"user_id" json:"userId"`
	UserType     string    `db:"user_type" json:"userType"`
	Platform     string    `db:"platform" json:"platform"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
	LastActiveAt time.Time `db:"last_active_at" json:"lastActiveAt"`
}
