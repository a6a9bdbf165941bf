package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/handy-backend/internal/dto"
	"github.com/ignatzorin/handy-backend/internal/http/handlers/common"
	"github.com/ignatzorin/handy-backend/internal/models"
	"github.com/ignatzorin/handy-backend/internal/service"
)

// ReportHandler предоставляет HTTP слой для заявок о помощи.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler создаёт хэндлер.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Create обрабатывает POST /api/reports.
func (h *ReportHandler) Create(c *gin.Context) {
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

	var req dto.CreateReportRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.reports.CreateReport(c.Request.Context(), service.CreateReportInput{
		ReporterID:   userID,
		ReporterType: userType,
		Type:         req.Type,
		Details:      req.Details,
		Location:     req.Location,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.ReportEnvelope{Report: report})
}

// ListMine обрабатывает GET /api/reports/my-reports: заявки автора с необязательным
// фильтром ?status=.
func (h *ReportHandler) ListMine(c *gin.Context) {
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

	reports, err := h.reports.ListMyReports(c.Request.Context(), userID, userType, c.Query("status"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	if reports == nil {
		reports = []models.Report{}
	}
	common.RespondJSON(c, http.StatusOK, dto.ReportsEnvelope{Reports: reports})
}

// ListAvailable обрабатывает GET /api/reports/available-cases: свободные заявки
// для волонтёра.
func (h *ReportHandler) ListAvailable(c *gin.Context) {
	userType, err := common.CurrentUserType(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	cases, err := h.reports.ListAvailableCases(c.Request.Context(), userType)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	if cases == nil {
		cases = []models.Report{}
	}
	common.RespondJSON(c, http.StatusOK, dto.CasesEnvelope{Cases: cases})
}

// ListMyCases обрабатывает GET /api/reports/my-cases: заявки, назначенные
// волонтёру.
func (h *ReportHandler) ListMyCases(c *gin.Context) {
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

	cases, err := h.reports.ListMyCases(c.Request.Context(), userID, userType)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	if cases == nil {
		cases = []models.Report{}
	}
	common.RespondJSON(c, http.StatusOK, dto.CasesEnvelope{Cases: cases})
}

// Get обрабатывает GET /api/reports/:id.
func (h *ReportHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	reportID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	report, reporter, err := h.reports.GetReport(c.Request.Context(), reportID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.ReportEnvelope{
		Report:   report,
		Reporter: dto.NewReporterContact(reporter),
	})
}

// Accept обрабатывает POST /api/reports/:id/accept: волонтёр берёт заявку.
// При гонке за одну заявку выигрывает ровно один, остальные получают 400
// "Report is not available".
func (h *ReportHandler) Accept(c *gin.Context) {
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

	reportID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.reports.AcceptCase(c.Request.Context(), reportID, userID, userType)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.ReportEnvelope{Report: report})
}

// Complete обрабатывает POST /api/reports/:id/complete: автор подтверждает
// завершение, волонтёру начисляются баллы.
func (h *ReportHandler) Complete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	reportID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.reports.CompleteReport(c.Request.Context(), reportID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.ReportEnvelope{Report: report})
}

// UpdateStatus обрабатывает PATCH /api/reports/:id/status. Через этот путь
// заявку можно только отменить: завершение и принятие идут через свои
// эндпоинты.
func (h *ReportHandler) UpdateStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	reportID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateReportStatusRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.reports.UpdateStatus(c.Request.Context(), reportID, userID, req.Status)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.ReportEnvelope{Report: report})
}
