package models

// UserType константы типов пользователей
const (
	UserTypeVolunteer = "volunteer"
	UserTypeDisabled  = "disabled"
)

// ReportType константы типов заявок
const (
	ReportTypeNormal = "normal"
	ReportTypeSOS    = "sos"
)

// ReportStatus константы статусов заявок
const (
	ReportStatusPending    = "pending"
	ReportStatusInProgress = "in_progress"
	ReportStatusCompleted  = "completed"
	ReportStatusCancelled  = "cancelled"
)

// ReportPriority константы приоритетов заявок
const (
	ReportPriorityMedium = "medium"
	ReportPriorityHigh   = "high"
)

// RedeemStatus константы статусов заявок на обмен баллов
const (
	RedeemStatusPending   = "pending"
	RedeemStatusApproved  = "approved"
	RedeemStatusRejected  = "rejected"
	RedeemStatusCompleted = "completed"
)

// Вознаграждения в баллах.
const (
	PointsAwardSOS    = 500
	PointsAwardNormal = 200
	PointsDailyBonus  = 50
)

// ValidUserTypes список валидных типов пользователей
var ValidUserTypes = map[string]struct{}{
	UserTypeVolunteer: {},
	UserTypeDisabled:  {},
}

// ValidReportTypes список валидных типов заявок
var ValidReportTypes = map[string]struct{}{
	ReportTypeNormal: {},
	ReportTypeSOS:    {},
}

// ValidReportStatuses список валидных статусов заявок
var ValidReportStatuses = map[string]struct{}{
	ReportStatusPending:    {},
	ReportStatusInProgress: {},
	ReportStatusCompleted:  {},
	ReportStatusCancelled:  {},
}

// ValidRedeemStatuses список валидных статусов обмена баллов
var ValidRedeemStatuses = map[string]struct{}{
	RedeemStatusPending:   {},
	RedeemStatusApproved:  {},
	RedeemStatusRejected:  {},
	RedeemStatusCompleted: {},
}
