package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-proposals/internal/dto"
	"github.com/ignatzorin/freelance-proposals/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-proposals/internal/models"
	"github.com/ignatzorin/freelance-proposals/internal/service"
)

// ProposalHandler отвечает за работу с предложениями и их этапами.
type ProposalHandler struct {
	proposals *service.ProposalService
}

// NewProposalHandler создаёт экземпляр.
func NewProposalHandler(proposals *service.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposals: proposals}
}

// Create обрабатывает POST /api/proposals.
// Подача списывает один отклик со счёта фрилансера.
func (h *ProposalHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateProposalRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		common.RespondBadRequest(c, "job_id должен быть валидным UUID")
		return
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		common.RespondBadRequest(c, "client_id должен быть валидным UUID")
		return
	}

	milestones := make([]service.MilestoneInput, len(req.Milestones))
	for i, m := range req.Milestones {
		milestones[i] = service.MilestoneInput{
			Description: m.Description,
			DueDate:     m.DueDate,
			Price:       m.Price,
		}
	}

	proposal, err := h.proposals.Create(c.Request.Context(), service.CreateProposalInput{
		JobID:         jobID,
		FreelancerID:  userID,
		ClientID:      clientID,
		CoverLetter:   req.CoverLetter,
		EstimatedTime: req.EstimatedTime,
		Kind:          models.ProposalKind(req.Kind),
		TotalPrice:    req.TotalPrice,
		Files:         req.Files,
		Milestones:    milestones,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.ProposalResponse{Proposal: proposal})
}

// ListMy обрабатывает GET /api/proposals.
// Возвращает предложения текущего фрилансера.
func (h *ProposalHandler) ListMy(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	proposals, err := h.proposals.ListByFreelancer(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, proposals)
}

// ListByJob обрабатывает GET /api/jobs/:jobId/proposals.
// Клиент видит только предложения по собственной вакансии.
func (h *ProposalHandler) ListByJob(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	jobID, err := common.ParseUUIDParam(c, "jobId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	proposals, err := h.proposals.ListByJob(c.Request.Context(), jobID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, proposals)
}

// GetByID обрабатывает GET /api/proposals/:id.
// Чтение идёт через кэш; источник ответа отдаётся клиенту.
func (h *ProposalHandler) GetByID(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	proposalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	proposal, source, err := h.proposals.GetByID(c.Request.Context(), proposalID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.ProposalResponse{Proposal: proposal, Source: source})
}

// UpdateStatus обрабатывает PATCH /api/proposals/:id/status.
func (h *ProposalHandler) UpdateStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	proposalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateProposalStatusRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	proposal, err := h.proposals.Transition(c.Request.Context(), proposalID, userID, models.ProposalStatus(req.Status))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.ProposalResponse{Proposal: proposal})
}

// UpdateMilestoneStatus обрабатывает PATCH /api/proposals/:id/milestones/:milestoneId.
func (h *ProposalHandler) UpdateMilestoneStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	proposalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestoneID, err := common.ParseUUIDParam(c, "milestoneId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateMilestoneStatusRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	proposal, err := h.proposals.SetMilestoneStatus(c.Request.Context(), proposalID, milestoneID, userID, models.MilestoneStatus(req.Status))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.ProposalResponse{Proposal: proposal})
}
