package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/handy-backend/internal/dto"
	"github.com/ignatzorin/handy-backend/internal/http/handlers/common"
	"github.com/ignatzorin/handy-backend/internal/models"
	"github.com/ignatzorin/handy-backend/internal/service"
)

// AuthHandler предоставляет HTTP слой для регистрации, входа и профиля.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register обрабатывает POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		Type:      req.Type,
		Name:      req.Name,
		Surname:   req.Surname,
		Phone:     req.Phone,
		UserAgent: clientMetaPtr(c.GetHeader("User-Agent")),
		IPAddress: clientMetaPtr(c.ClientIP()),
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.AuthResponse{
		User:         result.User,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		ExpiresIn:    int64(result.Tokens.ExpiresIn.Seconds()),
	})
}

// Login обрабатывает POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.auth.Login(
		c.Request.Context(), req.Email, req.Password,
		clientMetaPtr(c.GetHeader("User-Agent")), clientMetaPtr(c.ClientIP()),
	)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.AuthResponse{
		User:         result.User,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		ExpiresIn:    int64(result.Tokens.ExpiresIn.Seconds()),
	})
}

// Refresh обрабатывает POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.auth.Refresh(
		c.Request.Context(), req.RefreshToken,
		clientMetaPtr(c.GetHeader("User-Agent")), clientMetaPtr(c.ClientIP()),
	)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.AuthResponse{
		User:         result.User,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		ExpiresIn:    int64(result.Tokens.ExpiresIn.Seconds()),
	})
}

// Logout обрабатывает POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.SuccessResponse{Success: true})
}

// Me обрабатывает GET /api/auth/me. Для волонтёра чтение профиля может
// попутно выдать ежедневный бонус.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	user, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.UserEnvelope{User: user})
}

// UpdateProfile обрабатывает PATCH /api/auth/me.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.UpdateProfileRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), userID, service.UpdateProfileInput{
		Name:    req.Name,
		Surname: req.Surname,
		Phone:   req.Phone,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.UserEnvelope{User: user})
}

// Sessions обрабатывает GET /api/auth/sessions.
func (h *AuthHandler) Sessions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	sessions, err := h.auth.ListSessions(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}

	common.RespondJSON(c, http.StatusOK, dto.SessionsEnvelope{Sessions: sessions})
}

// RevokeSession обрабатывает DELETE /api/auth/sessions/:id.
func (h *AuthHandler) RevokeSession(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	sessionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "Invalid session id")
		return
	}

	if err := h.auth.RevokeSession(c.Request.Context(), userID, sessionID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.SuccessResponse{Success: true})
}

// clientMetaPtr возвращает указатель на непустую строку.
func clientMetaPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
