package repository

import "errors"

// Ошибки уровня репозитория. Сервисный слой переводит их в apperror.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrReportNotFound     = errors.New("report not found")
	ErrRedeemNotFound     = errors.New("redeem not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotVolunteer       = errors.New("user is not a volunteer")
	ErrReportNotAvailable = errors.New("report is not available")
	ErrStatusChanged      = errors.New("report status changed concurrently")
	ErrInsufficientPoints = errors.New("insufficient points")
)
