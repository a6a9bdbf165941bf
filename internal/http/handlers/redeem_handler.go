package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/handy-backend/internal/dto"
	"github.com/ignatzorin/handy-backend/internal/http/handlers/common"
	"github.com/ignatzorin/handy-backend/internal/models"
	"github.com/ignatzorin/handy-backend/internal/service"
)

// RedeemHandler предоставляет HTTP слой для обмена баллов.
type RedeemHandler struct {
	redeems *service.RedeemService
}

// NewRedeemHandler создаёт хэндлер.
func NewRedeemHandler(redeems *service.RedeemService) *RedeemHandler {
	return &RedeemHandler{redeems: redeems}
}

// Create обрабатывает POST /api/redeem. Баллы списываются сразу, заявка
// создаётся в статусе pending; при нехватке баллов — 400 "Insufficient points".
func (h *RedeemHandler) Create(c *gin.Context) {
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

	var req dto.CreateRedeemRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	redeem, err := h.redeems.CreateRedeem(c.Request.Context(), service.CreateRedeemInput{
		VolunteerID: userID,
		CallerType:  userType,
		RewardName:  req.RewardName,
		Description: req.RewardDescription,
		Points:      req.PointsRequired,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.RedeemEnvelope{Redeem: redeem})
}

// ListMine обрабатывает GET /api/redeem/my-redeems: история обменов волонтёра.
func (h *RedeemHandler) ListMine(c *gin.Context) {
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

	redeems, err := h.redeems.ListMyRedeems(c.Request.Context(), userID, userType)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	if redeems == nil {
		redeems = []models.Redeem{}
	}
	common.RespondJSON(c, http.StatusOK, dto.RedeemsEnvelope{Redeems: redeems})
}

// Get обрабатывает GET /api/redeem/:id.
func (h *RedeemHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	redeemID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	redeem, err := h.redeems.GetRedeem(c.Request.Context(), redeemID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.RedeemEnvelope{Redeem: redeem})
}
