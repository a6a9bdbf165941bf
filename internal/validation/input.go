package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/handy-backend/internal/models"
)

// Константы валидации
const (
	MaxDetailsLength           = 2000
	MaxLocationLength          = 300
	MaxNameLength              = 100
	MaxPhoneLength             = 20
	MaxRewardNameLength        = 200
	MaxRewardDescriptionLength = 1000
	MinPasswordLength          = 8
	MaxPasswordLength          = 72 // предел bcrypt
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return fmt.Errorf("Email is required")
	}
	if !emailRegexp.MatchString(email) {
		return fmt.Errorf("Invalid email format")
	}
	return nil
}

// ValidatePassword проверяет минимальные требования к паролю.
func ValidatePassword(password string) error {
	length := utf8.RuneCountInString(password)
	if length < MinPasswordLength {
		return fmt.Errorf("Password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("Password must be at most %d characters", MaxPasswordLength)
	}
	return nil
}

// ValidateUserType проверяет тип пользователя.
func ValidateUserType(userType string) error {
	if _, ok := models.ValidUserTypes[userType]; !ok {
		return fmt.Errorf(`Type must be either "volunteer" or "disabled"`)
	}
	return nil
}

// ValidateReportType проверяет тип заявки.
func ValidateReportType(reportType string) error {
	if _, ok := models.ValidReportTypes[reportType]; !ok {
		return fmt.Errorf(`Type must be "normal" or "sos"`)
	}
	return nil
}

// ValidateReportDetails проверяет текст заявки.
func ValidateReportDetails(details string) error {
	if strings.TrimSpace(details) == "" {
		return fmt.Errorf("Details are required")
	}
	if utf8.RuneCountInString(details) > MaxDetailsLength {
		return fmt.Errorf("Details must be at most %d characters", MaxDetailsLength)
	}
	return nil
}

// ValidateLocation проверяет текстовую метку местоположения.
func ValidateLocation(location string) error {
	if utf8.RuneCountInString(location) > MaxLocationLength {
		return fmt.Errorf("Location must be at most %d characters", MaxLocationLength)
	}
	return nil
}

// ValidateCoordinates проверяет, что координаты конечны и лежат в допустимых пределах.
func ValidateCoordinates(latitude, longitude float64) error {
	if math.IsNaN(latitude) || math.IsInf(latitude, 0) || latitude < -90 || latitude > 90 {
		return fmt.Errorf("Valid latitude is required")
	}
	if math.IsNaN(longitude) || math.IsInf(longitude, 0) || longitude < -180 || longitude > 180 {
		return fmt.Errorf("Valid longitude is required")
	}
	return nil
}

// ValidateReportStatus проверяет статусный литерал заявки.
// Неизвестные литералы отклоняются, а не пропускаются дальше.
func ValidateReportStatus(status string) error {
	if _, ok := models.ValidReportStatuses[status]; !ok {
		return fmt.Errorf("Invalid status")
	}
	return nil
}

// ValidateRedeemStatus проверяет статусный литерал заявки на обмен.
func ValidateRedeemStatus(status string) error {
	if _, ok := models.ValidRedeemStatuses[status]; !ok {
		return fmt.Errorf("Invalid status")
	}
	return nil
}

// ValidateRewardName проверяет название вознаграждения.
func ValidateRewardName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("Reward name is required")
	}
	if utf8.RuneCountInString(name) > MaxRewardNameLength {
		return fmt.Errorf("Reward name must be at most %d characters", MaxRewardNameLength)
	}
	return nil
}

// ValidateRewardDescription проверяет описание вознаграждения.
func ValidateRewardDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxRewardDescriptionLength {
		return fmt.Errorf("Reward description must be at most %d characters", MaxRewardDescriptionLength)
	}
	return nil
}

// ValidatePointsRequired проверяет стоимость вознаграждения в баллах.
func ValidatePointsRequired(points int) error {
	if points <= 0 {
		return fmt.Errorf("Points required must be a positive integer")
	}
	return nil
}

// ValidatePersonName проверяет имя или фамилию.
func ValidatePersonName(fieldName, value string) error {
	if utf8.RuneCountInString(value) > MaxNameLength {
		return fmt.Errorf("%s must be at most %d characters", fieldName, MaxNameLength)
	}
	return nil
}

// ValidatePhone проверяет номер телефона (свободный формат, ограничение длины).
func ValidatePhone(phone string) error {
	if utf8.RuneCountInString(phone) > MaxPhoneLength {
		return fmt.Errorf("Phone must be at most %d characters", MaxPhoneLength)
	}
	return nil
}
