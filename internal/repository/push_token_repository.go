package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/handy-backend/internal/models"
)

// PushTokenRepository отвечает за привязку Expo push токенов к пользователям.
type PushTokenRepository struct {
	db *sqlx.DB
}

// NewPushTokenRepository создаёт экземпляр репозитория.
func NewPushTokenRepository(db *sqlx.DB) *PushTokenRepository {
	return &PushTokenRepository{db: db}
}

// Upsert сохраняет токен устройства. Токен — первичный ключ: повторная
// регистрация того же устройства (в том числе другим пользователем)
// перепривязывает его, а не плодит дубликаты.
func (r *PushTokenRepository) Upsert(ctx context.Context, token *models.PushToken) error {
	query := `
		INSERT INTO push_tokens (token, user_id, user_type, platform, last_active_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id,
			user_type = EXCLUDED.user_type,
			platform = EXCLUDED.platform,
			updated_at = NOW(),
			last_active_at = NOW()
		RETURNING created_at, updated_at, last_active_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		token.Token, token.UserID, token.UserType, token.Platform,
	).Scan(&token.CreatedAt, &token.UpdatedAt, &token.LastActiveAt); err != nil {
		return fmt.Errorf("push token repository: upsert %w", err)
	}

	return nil
}

// Delete удаляет токен (инвалидация устройства).
func (r *PushTokenRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM push_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("push token repository: delete %w", err)
	}
	return nil
}

// ListByUserType возвращает токены всех пользователей заданного типа.
func (r *PushTokenRepository) ListByUserType(ctx context.Context, userType string) ([]models.PushToken, error) {
	var tokens []models.PushToken
	query := `
		SELECT token, user_id, user_type, platform, created_at, updated_at, last_active_at
		FROM push_tokens
		WHERE user_type = $1
	`
	if err := r.db.SelectContext(ctx, &tokens, query, userType); err != nil {
		return nil, fmt.Errorf("push token repository: list by user type %w", err)
	}

	return tokens, nil
}

// ListByUserID возвращает токены всех устройств пользователя.
func (r *PushTokenRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.PushToken, error) {
	var tokens []models.PushToken
	query := `
		SELECT token, user_id, user_type, platform, created_at, updated_at, last_active_at
		FROM push_tokens
		WHERE user_id = $1
	`
	if err := r.db.SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, fmt.Errorf("push token repository: list by user id %w", err)
	}

	return tokens, nil
}
