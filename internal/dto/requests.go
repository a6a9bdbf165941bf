package dto

// RegisterRequest represents the request to register a new user
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Type     string `json:"type" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Surname  string `json:"surname" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the request to refresh a token pair
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// LogoutRequest represents the request to close a session
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// UpdateProfileRequest represents a partial profile update
type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	Surname *string `json:"surname"`
	Phone   *string `json:"phone"`
}

// CreateReportRequest represents the request to create a help report.
// Location is optional and zero coordinates are valid (equator, prime
// meridian), so only type and details are required at the binding layer;
// range and finiteness checks live in the validation package.
type CreateReportRequest struct {
	Type      string  `json:"type" binding:"required"`
	Details   string  `json:"details" binding:"required"`
	Location  string  `json:"location"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UpdateReportStatusRequest represents the request to change report status
type UpdateReportStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateRedeemRequest represents the request to redeem points for a reward
type CreateRedeemRequest struct {
	RewardName        string `json:"rewardName" binding:"required"`
	RewardDescription string `json:"rewardDescription"`
	PointsRequired    int    `json:"pointsRequired" binding:"required"`
}

// RegisterPushTokenRequest represents the request to register an Expo push token
type RegisterPushTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
}

// RemovePushTokenRequest represents the request to remove an Expo push token
type RemovePushTokenRequest struct {
	Token string `json:"token" binding:"required"`
}
