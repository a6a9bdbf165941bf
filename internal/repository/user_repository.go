package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/handy-backend/internal/models"
)

// UserRepository отвечает за работу с таблицами users и user_sessions.
// Все мутации баланса выполняются одним условным UPDATE: база сама
// арбитрирует конкурентные списания и начисления, потерянных обновлений нет.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, type, name, surname, phone, points, last_login_date, created_at, updated_at`

// Create создаёт нового пользователя. Волонтёры стартуют с нулевым балансом,
// у остальных поле points отсутствует.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, type, name, surname, phone, points)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, points, created_at, updated_at
	`

	var points *int
	if user.Type == models.UserTypeVolunteer {
		zero := 0
		points = &zero
	}

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.Email, user.PasswordHash, user.Type, user.Name, user.Surname, user.Phone, points,
	).Scan(&user.ID, &user.Points, &user.CreatedAt, &user.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}

	return &user, nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}

	return &user, nil
}

// UpdateProfile обновляет редактируемые поля профиля (имя, фамилия, телефон).
// Тип пользователя и баланс через этот путь не меняются.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $2, surname = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns + `
	`
	if err := r.db.GetContext(ctx, user, query, user.ID, user.Name, user.Surname, user.Phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("user repository: update profile %w", err)
	}

	return nil
}

// AddPoints атомарно прибавляет delta к балансу волонтёра и возвращает новый
// баланс. Условие points + delta >= 0 гарантирует, что баланс никогда не
// уходит в минус, даже при конкурентных списаниях с нескольких устройств.
func (r *UserRepository) AddPoints(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	query := `
		UPDATE users
		SET points = points + $2, updated_at = NOW()
		WHERE id = $1 AND type = $3 AND points + $2 >= 0
		RETURNING points
	`

	var balance int
	err := r.db.GetContext(ctx, &balance, query, id, delta, models.UserTypeVolunteer)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("user repository: add points %w", err)
	}

	// Условный UPDATE не нашёл строку: выясняем причину отдельным чтением.
	user, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return 0, getErr
	}
	if !user.IsVolunteer() {
		return 0, ErrNotVolunteer
	}
	return 0, ErrInsufficientPoints
}

// GrantDailyBonus начисляет ежедневный бонус, если по тайскому календарю
// (UTC+7) бонус в этот день ещё не выдавался. Сравнение календарных дат и
// начисление выполняются одним условным UPDATE, поэтому повторный вызов в
// тот же день не пройдёт условие и вернёт false.
func (r *UserRepository) GrantDailyBonus(ctx context.Context, id uuid.UUID, now time.Time, stamp time.Time) (bool, error) {
	query := `
		UPDATE users
		SET points = points + $4, last_login_date = $3, updated_at = NOW()
		WHERE id = $1
		  AND type = $5
		  AND (
			last_login_date IS NULL
			OR ((last_login_date AT TIME ZONE 'UTC') + interval '7 hours')::date
			 <> (($2::timestamptz AT TIME ZONE 'UTC') + interval '7 hours')::date
		  )
		RETURNING points
	`

	var balance int
	err := r.db.GetContext(ctx, &balance, query, id, now, stamp, models.PointsDailyBonus, models.UserTypeVolunteer)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("user repository: grant daily bonus %w", err)
}

// CreateSession сохраняет refresh сессию.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO user_sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		session.UserID, session.RefreshToken, session.UserAgent, session.IPAddress, session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}

	return nil
}

// GetSessionByToken возвращает сессию по refresh токену.
func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	var session models.Session
	query := `
		SELECT id, user_id, refresh_token, user_agent, ip_address, expires_at, created_at
		FROM user_sessions
		WHERE refresh_token = $1
	`
	if err := r.db.GetContext(ctx, &session, query, refreshToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("user repository: get session %w", err)
	}

	return &session, nil
}

// DeleteSession удаляет сессию по refresh токену.
func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE refresh_token = $1`, refreshToken); err != nil {
		return fmt.Errorf("user repository: delete session %w", err)
	}
	return nil
}

// DeleteExpiredSessions удаляет сессии с истёкшим сроком.
func (r *UserRepository) DeleteExpiredSessions(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE user_id = $1 AND expires_at < NOW()`, userID); err != nil {
		return fmt.Errorf("user repository: delete expired sessions %w", err)
	}
	return nil
}

// ListSessions возвращает активные сессии пользователя.
func (r *UserRepository) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	query := `
		SELECT id, user_id, refresh_token, user_agent, ip_address, expires_at, created_at
		FROM user_sessions
		WHERE user_id = $1 AND expires_at >= NOW()
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("user repository: list sessions %w", err)
	}

	return sessions, nil
}

// DeleteSessionByID удаляет конкретную сессию пользователя.
func (r *UserRepository) DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE id = $1 AND user_id = $2`, sessionID, userID); err != nil {
		return fmt.Errorf("user repository: delete session by id %w", err)
	}
	return nil
}
