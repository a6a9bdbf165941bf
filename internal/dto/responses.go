package dto

import (
	"github.com/ignatzorin/handy-backend/internal/models"
)

// ErrorResponse represents an API error payload
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse represents a generic confirmation payload
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AuthResponse represents a user together with an issued token pair
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
}

// UserEnvelope wraps a single user
type UserEnvelope struct {
	User *models.User `json:"user"`
}

// SessionsEnvelope wraps a list of active refresh sessions
type SessionsEnvelope struct {
	Sessions []models.Session `json:"sessions"`
}

// ReporterContact represents reporter contact details shown to the
// assigned volunteer
type ReporterContact struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Phone   string `json:"phone"`
}

// ReportEnvelope wraps a single report; reporter contacts are present only
// for the assigned volunteer
type ReportEnvelope struct {
	Report   *models.Report   `json:"report"`
	Reporter *ReporterContact `json:"disabledUser,omitempty"`
}

// ReportsEnvelope wraps a report list
type ReportsEnvelope struct {
	Reports []models.Report `json:"reports"`
}

// CasesEnvelope wraps a list of cases from the volunteer's perspective
type CasesEnvelope struct {
	Cases []models.Report `json:"cases"`
}

// RedeemEnvelope wraps a single redeem
type RedeemEnvelope struct {
	Redeem *models.Redeem `json:"redeem"`
}

// RedeemsEnvelope wraps a redeem list
type RedeemsEnvelope struct {
	Redeems []models.Redeem `json:"redeems"`
}

// NewReporterContact builds contact info from a user record
func NewReporterContact(user *models.User) *ReporterContact {
	if user == nil {
		return nil
	}
	return &ReporterContact{
		Name:    user.Name,
		Surname: user.Surname,
		Phone:   user.Phone,
	}
}
