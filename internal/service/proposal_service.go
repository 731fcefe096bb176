package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-proposals/internal/logger"
	"github.com/ignatzorin/freelance-proposals/internal/models"
	"github.com/ignatzorin/freelance-proposals/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-proposals/internal/repository/common"
	"github.com/ignatzorin/freelance-proposals/internal/validation"
)

type ProposalStorage interface {
	Create(ctx context.Context, proposal *models.Proposal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*models.Proposal, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*models.Proposal, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ProposalStatus) error
	UpdateMilestoneStatus(ctx context.Context, proposalID, milestoneID uuid.UUID, from, to models.MilestoneStatus) error
}

// QuotaDebiter списывает отклики с квотного счёта фрилансера.
type QuotaDebiter interface {
	Debit(ctx context.Context, userID uuid.UUID, amount int) error
}

// Notifier доставляет событие пользователю (WebSocket hub).
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// MilestoneInput этап в запросе на создание предложения.
type MilestoneInput struct {
	Description string
	DueDate     time.Time
	Price       float64
}

// CreateProposalInput параметры создания предложения.
type CreateProposalInput struct {
	JobID         uuid.UUID
	FreelancerID  uuid.UUID
	ClientID      uuid.UUID
	CoverLetter   string
	EstimatedTime string
	Kind          models.ProposalKind
	TotalPrice    float64
	Files         []string
	Milestones    []MilestoneInput
}

// ProposalService владеет предложениями, их этапами и переходами статусов.
type ProposalService struct {
	proposals ProposalStorage
	quota     QuotaDebiter
	cache     *CacheService
	hub       Notifier

	cacheTTL time.Duration
}

// NewProposalService создаёт сервис предложений. hub может быть nil.
func NewProposalService(proposals ProposalStorage, quota QuotaDebiter, cache *CacheService, hub Notifier, cacheTTL time.Duration) *ProposalService {
	return &ProposalService{
		proposals: proposals,
		quota:     quota,
		cache:     cache,
		hub:       hub,
		cacheTTL:  cacheTTL,
	}
}

// Create проверяет инварианты предложения, списывает один отклик с квоты
// фрилансера и сохраняет предложение. Новое предложение всегда в статусе
// pending, как и все его этапы.
func (s *ProposalService) Create(ctx context.Context, input CreateProposalInput) (*models.Proposal, error) {
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	// Подача отклика платная: сначала списание, потом запись.
	if err := s.quota.Debit(ctx, input.FreelancerID, 1); err != nil {
		return nil, err
	}

	proposal := &models.Proposal{
		JobID:         input.JobID,
		FreelancerID:  input.FreelancerID,
		ClientID:      input.ClientID,
		CoverLetter:   input.CoverLetter,
		EstimatedTime: input.EstimatedTime,
		Kind:          input.Kind,
		TotalPrice:    input.TotalPrice,
		Status:        models.ProposalStatusPending,
		Files:         input.Files,
	}
	if proposal.Files == nil {
		proposal.Files = []string{}
	}
	for _, m := range input.Milestones {
		proposal.Milestones = append(proposal.Milestones, models.Milestone{
			Description: m.Description,
			DueDate:     m.DueDate,
			Price:       m.Price,
			Status:      models.MilestoneStatusPending,
		})
	}

	if err := s.proposals.Create(ctx, proposal); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать предложение")
	}

	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"proposal_id":   proposal.ID,
			"freelancer_id": proposal.FreelancerID,
			"job_id":        proposal.JobID,
			"kind":          proposal.Kind,
		}).Info("proposal: создано предложение")
	}

	s.notify(proposal.ClientID, "proposal.created", proposal)

	return proposal, nil
}

// validateCreate проверяет доменные инварианты, которые не выражаются
// схемой запроса: согласованность вида и этапов, сумму цен этапов.
func (s *ProposalService) validateCreate(input CreateProposalInput) error {
	if input.JobID == uuid.Nil || input.FreelancerID == uuid.Nil || input.ClientID == uuid.Nil {
		return apperror.New(apperror.ErrCodeValidation, "ссылки на вакансию, фрилансера и клиента обязательны")
	}
	if input.FreelancerID == input.ClientID {
		return apperror.New(apperror.ErrCodeValidation, "нельзя откликнуться на собственную вакансию")
	}
	if !input.Kind.IsValid() {
		return apperror.New(apperror.ErrCodeValidation, "некорректный вид предложения")
	}
	if input.TotalPrice <= 0 {
		return apperror.New(apperror.ErrCodeValidation, "общая цена должна быть положительной")
	}
	if err := validation.ValidateCoverLetter(input.CoverLetter); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateEstimatedTime(input.EstimatedTime); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if len(input.Files) > validation.MaxFilesCount {
		return apperror.New(apperror.ErrCodeValidation, "слишком много вложений")
	}

	switch input.Kind {
	case models.ProposalKindFixed:
		if len(input.Milestones) > 0 {
			return apperror.New(apperror.ErrCodeValidation, "предложение с фиксированной ценой не может содержать этапы")
		}
	case models.ProposalKindMilestones:
		if len(input.Milestones) == 0 {
			return apperror.New(apperror.ErrCodeValidation, "поэтапное предложение должно содержать хотя бы один этап")
		}
		if len(input.Milestones) > validation.MaxMilestonesCount {
			return apperror.New(apperror.ErrCodeValidation, "слишком много этапов")
		}

		var total float64
		for _, m := range input.Milestones {
			if err := validation.ValidateMilestoneDescription(m.Description); err != nil {
				return apperror.New(apperror.ErrCodeValidation, err.Error())
			}
			if m.Price <= 0 {
				return apperror.New(apperror.ErrCodeValidation, "цена этапа должна быть положительной")
			}
			if m.DueDate.IsZero() {
				return apperror.New(apperror.ErrCodeValidation, "срок этапа обязателен")
			}
			total += m.Price
		}
		if total != input.TotalPrice {
			return apperror.New(apperror.ErrCodeValidation,
				fmt.Sprintf("сумма цен этапов (%g) не совпадает с общей ценой (%g)", total, input.TotalPrice))
		}
	}

	return nil
}

// GetByID возвращает предложение стороне сделки, читая через кэш.
// Второе значение сообщает источник данных: кэш или хранилище.
func (s *ProposalService) GetByID(ctx context.Context, proposalID, actorID uuid.UUID) (*models.Proposal, string, error) {
	key := ProposalCacheKey(proposalID)

	var cached models.Proposal
	if s.cache.GetJSON(ctx, key, &cached) {
		if !cached.IsParty(actorID) {
			return nil, "", apperror.ErrForbidden
		}
		return &cached, SourceCache, nil
	}

	proposal, err := s.load(ctx, proposalID)
	if err != nil {
		return nil, "", err
	}
	if !proposal.IsParty(actorID) {
		return nil, "", apperror.ErrForbidden
	}

	s.cache.SetJSON(ctx, key, proposal, s.cacheTTL)
	return proposal, SourceStore, nil
}

// ListByFreelancer возвращает предложения, поданные фрилансером.
func (s *ProposalService) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*models.Proposal, error) {
	proposals, err := s.proposals.ListByFreelancer(ctx, freelancerID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложения")
	}
	return proposals, nil
}

// ListByJob возвращает клиенту предложения по его вакансии.
func (s *ProposalService) ListByJob(ctx context.Context, jobID, clientID uuid.UUID) ([]*models.Proposal, error) {
	proposals, err := s.proposals.ListByJob(ctx, jobID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложения")
	}

	visible := make([]*models.Proposal, 0, len(proposals))
	for _, p := range proposals {
		if p.ClientID == clientID {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// Transition переводит предложение в новый статус по графу жизненного
// цикла. Проверяет роль инициатора и допустимость перехода; из
// терминальных статусов переходов нет.
func (s *ProposalService) Transition(ctx context.Context, proposalID, actorID uuid.UUID, newStatus models.ProposalStatus) (*models.Proposal, error) {
	if !newStatus.IsValid() || newStatus == models.ProposalStatusPending {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус предложения")
	}

	proposal, err := s.load(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	if err := checkTransitionActor(proposal, actorID, newStatus); err != nil {
		return nil, err
	}

	if !proposal.Status.CanTransitionTo(newStatus) {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition,
			fmt.Sprintf("переход %s -> %s недопустим для предложения %s", proposal.Status, newStatus, proposal.ID))
	}

	if newStatus == models.ProposalStatusCompleted &&
		proposal.Kind == models.ProposalKindMilestones &&
		!proposal.AllMilestonesCompleted() {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "не все этапы предложения завершены")
	}

	// Условная запись: при конкурентном изменении статуса между чтением
	// и записью хранилище отклонит перевод, а не перезапишет чужой.
	if err := s.proposals.UpdateStatus(ctx, proposalID, proposal.Status, newStatus); err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return nil, apperror.ErrProposalNotFound
		case errors.Is(err, common.ErrStaleState):
			return nil, apperror.New(apperror.ErrCodeInvalidTransition,
				fmt.Sprintf("статус предложения %s изменён параллельным запросом", proposal.ID))
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить статус предложения")
		}
	}

	// Инвалидация до ответа вызывающему: следующее чтение не увидит
	// устаревший статус из кэша.
	s.cache.InvalidateProposal(ctx, proposalID)

	oldStatus := proposal.Status
	proposal.Status = newStatus
	proposal.UpdatedAt = time.Now()

	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"proposal_id": proposalID,
			"from":        oldStatus,
			"to":          newStatus,
			"actor_id":    actorID,
		}).Info("proposal: статус изменён")
	}

	s.notifyCounterparty(proposal, actorID, "proposal.status_changed")

	return proposal, nil
}

// checkTransitionActor проверяет, что статус меняет правильная сторона:
// клиент просматривает и решает, фрилансер отзывает, завершить может любая
// из сторон.
func checkTransitionActor(proposal *models.Proposal, actorID uuid.UUID, newStatus models.ProposalStatus) error {
	switch newStatus {
	case models.ProposalStatusViewed, models.ProposalStatusAccepted, models.ProposalStatusRejected:
		if proposal.ClientID != actorID {
			return apperror.ErrForbidden
		}
	case models.ProposalStatusWithdrawn:
		if proposal.FreelancerID != actorID {
			return apperror.ErrForbidden
		}
	case models.ProposalStatusCompleted:
		if !proposal.IsParty(actorID) {
			return apperror.ErrForbidden
		}
	}
	return nil
}

// SetMilestoneStatus переводит этап в новый статус. Этапы меняются
// только пока предложение принято: до принятия и после терминального
// статуса предложения этапы заморожены.
func (s *ProposalService) SetMilestoneStatus(ctx context.Context, proposalID, milestoneID, actorID uuid.UUID, newStatus models.MilestoneStatus) (*models.Proposal, error) {
	if !newStatus.IsValid() || newStatus == models.MilestoneStatusPending {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус этапа")
	}

	proposal, err := s.load(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !proposal.IsParty(actorID) {
		return nil, apperror.ErrForbidden
	}

	if proposal.Status != models.ProposalStatusAccepted {
		return nil, apperror.New(apperror.ErrCodeInvalidState,
			fmt.Sprintf("этапы можно менять только у принятого предложения, текущий статус %s", proposal.Status))
	}

	milestone := proposal.MilestoneByID(milestoneID)
	if milestone == nil {
		return nil, apperror.ErrMilestoneNotFound
	}

	if !milestone.Status.CanTransitionTo(newStatus) {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition,
			fmt.Sprintf("переход этапа %s -> %s недопустим", milestone.Status, newStatus))
	}

	if err := s.proposals.UpdateMilestoneStatus(ctx, proposalID, milestoneID, milestone.Status, newStatus); err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return nil, apperror.ErrMilestoneNotFound
		case errors.Is(err, common.ErrStaleState):
			return nil, apperror.New(apperror.ErrCodeInvalidTransition,
				fmt.Sprintf("статус этапа %s изменён параллельным запросом", milestoneID))
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить статус этапа")
		}
	}

	s.cache.InvalidateProposal(ctx, proposalID)

	milestone.Status = newStatus
	proposal.UpdatedAt = time.Now()

	s.notifyCounterparty(proposal, actorID, "proposal.milestone_changed")

	return proposal, nil
}

func (s *ProposalService) load(ctx context.Context, proposalID uuid.UUID) (*models.Proposal, error) {
	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, apperror.ErrProposalNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложение")
	}
	return proposal, nil
}

func (s *ProposalService) notify(userID uuid.UUID, event string, data any) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastToUser(userID, event, data); err != nil && logger.Log != nil {
		logger.Log.WithError(err).Warn("proposal: не удалось отправить уведомление")
	}
}

// notifyCounterparty уведомляет сторону, не инициировавшую изменение.
func (s *ProposalService) notifyCounterparty(proposal *models.Proposal, actorID uuid.UUID, event string) {
	target := proposal.ClientID
	if actorID == proposal.ClientID {
		target = proposal.FreelancerID
	}
	s.notify(target, event, proposal)
}
