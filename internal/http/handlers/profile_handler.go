package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-proposals/internal/dto"
	"github.com/ignatzorin/freelance-proposals/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-proposals/internal/models"
	"github.com/ignatzorin/freelance-proposals/internal/service"
)

// ProfileHandler отвечает за профили фрилансеров.
type ProfileHandler struct {
	profiles     *service.ProfileService
	provisioning *service.ProvisioningService
}

// NewProfileHandler создаёт экземпляр.
func NewProfileHandler(profiles *service.ProfileService, provisioning *service.ProvisioningService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, provisioning: provisioning}
}

// Create обрабатывает POST /api/profile.
// Профиль и счёт откликов создаются атомарно, баланс равен лимиту
// текущего месяца.
func (h *ProfileHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateProfileRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, account, err := h.provisioning.ProvisionFreelancer(c.Request.Context(), userID, role, service.ProfileInput{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		JobTitle:           req.JobTitle,
		ProfileDescription: req.ProfileDescription,
		CityName:           req.CityName,
		Address:            req.Address,
		Country:            req.Country,
		Zipcode:            req.Zipcode,
		HourlyRate:         req.HourlyRate,
		Skills:             req.Skills,
	}, time.Now())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.ProvisionResponse{
		Profile:         profile,
		ProposalAccount: account,
	})
}

// Update обрабатывает PUT /api/profile.
func (h *ProfileHandler) Update(c *gin.Context) {
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

	profile, err := h.profiles.Update(c.Request.Context(), userID, service.UpdateInput{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		JobTitle:           req.JobTitle,
		ProfileDescription: req.ProfileDescription,
		CityName:           req.CityName,
		Address:            req.Address,
		Country:            req.Country,
		Zipcode:            req.Zipcode,
		HourlyRate:         req.HourlyRate,
		Skills:             req.Skills,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, profile)
}

// List обрабатывает GET /api/profiles.
// Список отдаётся через агрегатный ключ кэша и может отставать
// от записи в пределах TTL.
func (h *ProfileHandler) List(c *gin.Context) {
	profiles, source, err := h.profiles.All(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.ProfilesResponse{Profiles: profiles, Source: source})
}

// GetByUser обрабатывает GET /api/profiles/:id.
// Владелец дополнительно видит свой счёт откликов.
func (h *ProfileHandler) GetByUser(c *gin.Context) {
	viewerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, account, source, err := h.profiles.ByUser(c.Request.Context(), userID, viewerID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.ProfileView{
		Profile:         profile,
		IsOwner:         userID == viewerID,
		ProposalAccount: account,
		Source:          source,
	})
}

// AddPortfolio обрабатывает POST /api/profile/portfolio.
func (h *ProfileHandler) AddPortfolio(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.PortfolioItemRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.profiles.AddPortfolio(c.Request.Context(), userID, req.Image, req.ProjectLink)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, profile)
}

// UpdatePortfolio обрабатывает PUT /api/profile/portfolio/:itemId.
func (h *ProfileHandler) UpdatePortfolio(c *gin.Context) {
	userID, itemID, ok := h.ownerAndParam(c, "itemId")
	if !ok {
		return
	}

	var req dto.PortfolioItemRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.profiles.UpdatePortfolio(c.Request.Context(), userID, itemID, req.Image, req.ProjectLink)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, profile)
}

// DeletePortfolio обрабатывает DELETE /api/profile/portfolio/:itemId.
func (h *ProfileHandler) DeletePortfolio(c *gin.Context) {
	userID, itemID, ok := h.ownerAndParam(c, "itemId")
	if !ok {
		return
	}

	profile, err := h.profiles.DeletePortfolio(c.Request.Context(), userID, itemID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, profile)
}

// AddEducation обрабатывает POST /api/profile/education.
func (h *ProfileHandler) AddEducation(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.EducationRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.profiles.AddEducation(c.Request.Context(), userID, models.EducationEntry{
		Institution:    req.Institution,
		Degree:         req.Degree,
		FieldOfStudy:   req.FieldOfStudy,
		GraduationYear: req.GraduationYear,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, profile)
}

// UpdateEducation обрабатывает PUT /api/profile/education/:entryId.
func (h *ProfileHandler) UpdateEducation(c *gin.Context) {
	userID, entryID, ok := h.ownerAndParam(c, "entryId")
	if !ok {
		return
	}

	var req dto.EducationRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.profiles.UpdateEducation(c.Request.Context(), userID, entryID, models.EducationEntry{
		Institution:    req.Institution,
		Degree:         req.Degree,
		FieldOfStudy:   req.FieldOfStudy,
		GraduationYear: req.GraduationYear,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, profile)
}

// DeleteEducation обрабатывает DELETE /api/profile/education/:entryId.
func (h *ProfileHandler) DeleteEducation(c *gin.Context) {
	userID, entryID, ok := h.ownerAndParam(c, "entryId")
	if !ok {
		return
	}

	profile, err := h.profiles.DeleteEducation(c.Request.Context(), userID, entryID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, profile)
}

// AddExperience обрабатывает POST /api/profile/experience.
func (h *ProfileHandler) AddExperience(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.ExperienceRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.profiles.AddExperience(c.Request.Context(), userID, models.ExperienceEntry{
		CompanyName: req.CompanyName,
		Position:    req.Position,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Description: req.Description,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, profile)
}

// UpdateExperience обрабатывает PUT /api/profile/experience/:entryId.
func (h *ProfileHandler) UpdateExperience(c *gin.Context) {
	userID, entryID, ok := h.ownerAndParam(c, "entryId")
	if !ok {
		return
	}

	var req dto.ExperienceRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.profiles.UpdateExperience(c.Request.Context(), userID, entryID, models.ExperienceEntry{
		CompanyName: req.CompanyName,
		Position:    req.Position,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Description: req.Description,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, profile)
}

// DeleteExperience обрабатывает DELETE /api/profile/experience/:entryId.
func (h *ProfileHandler) DeleteExperience(c *gin.Context) {
	userID, entryID, ok := h.ownerAndParam(c, "entryId")
	if !ok {
		return
	}

	profile, err := h.profiles.DeleteExperience(c.Request.Context(), userID, entryID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, profile)
}

func (h *ProfileHandler) ownerAndParam(c *gin.Context, param string) (uuid.UUID, uuid.UUID, bool) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return uuid.Nil, uuid.Nil, false
	}

	id, err := common.ParseUUIDParam(c, param)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return uuid.Nil, uuid.Nil, false
	}

	return userID, id, true
}
