package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-proposals/internal/dto"
	"github.com/ignatzorin/freelance-proposals/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-proposals/internal/models"
	"github.com/ignatzorin/freelance-proposals/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-proposals/internal/service"
)

// QuotaHandler отвечает за счета откликов и месячные лимиты.
type QuotaHandler struct {
	quota *service.QuotaService
}

// NewQuotaHandler создаёт экземпляр.
func NewQuotaHandler(quota *service.QuotaService) *QuotaHandler {
	return &QuotaHandler{quota: quota}
}

// Account обрабатывает GET /api/quota/account.
// Возвращает счёт откликов текущего пользователя.
func (h *QuotaHandler) Account(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	account, err := h.quota.Account(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, account)
}

// UpsertTracker обрабатывает PUT /api/quota/trackers.
// Доступно только администраторам: задаёт лимит откликов на месяц.
func (h *QuotaHandler) UpsertTracker(c *gin.Context) {
	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	if role != models.RoleAdmin {
		common.RespondAppError(c, apperror.ErrForbidden)
		return
	}

	var req dto.UpsertTrackerRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	tracker, err := h.quota.UpsertTracker(c.Request.Context(), req.Month, req.Year, req.Allotment)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, tracker)
}
