package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/handy-backend/internal/dto"
	"github.com/ignatzorin/handy-backend/internal/http/handlers/common"
	"github.com/ignatzorin/handy-backend/internal/service"
)

// NotificationHandler предоставляет HTTP слой для push токенов устройств.
type NotificationHandler struct {
	push *service.PushService
}

// NewNotificationHandler создаёт хэндлер.
func NewNotificationHandler(push *service.PushService) *NotificationHandler {
	return &NotificationHandler{push: push}
}

// RegisterToken обрабатывает POST /api/notifications/token: привязывает Expo
// push токен устройства к текущему пользователю. Повторная регистрация того
// же токена перепривязывает его.
func (h *NotificationHandler) RegisterToken(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	userType, err := common.CurrentUserType(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.RegisterPushTokenRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	token, err := h.push.RegisterToken(c.Request.Context(), userID, userType, req.Token, req.Platform)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"token": token})
}

// RemoveToken обрабатывает DELETE /api/notifications/token: отвязывает токен
// при выходе из приложения.
func (h *NotificationHandler) RemoveToken(c *gin.Context) {
	if _, err := common.CurrentUserID(c); err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.RemovePushTokenRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.push.RemoveToken(c.Request.Context(), req.Token); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.SuccessResponse{Success: true})
}
