package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-proposals/internal/models"
	"github.com/ignatzorin/freelance-proposals/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-proposals/internal/repository/common"
	"github.com/ignatzorin/freelance-proposals/internal/validation"
)

// Provisioner атомарно создаёт профиль вместе со счётом откликов.
type Provisioner interface {
	CreateProfileWithAccount(ctx context.Context, profile *models.Profile, account *models.ProposalAccount) error
}

// AllotmentSource отдаёт месячный лимит откликов.
type AllotmentSource interface {
	CurrentAllotment(ctx context.Context, now time.Time) (int, error)
}

// ProfileInput поля профиля при первичном создании.
type ProfileInput struct {
	FirstName          string
	LastName           string
	JobTitle           string
	ProfileDescription string
	CityName           string
	Address            string
	Country            string
	Zipcode            string
	HourlyRate         float64
	Skills             []string
}

// ProvisioningService создаёт профиль фрилансера и счёт откликов одной
// операцией: либо появляются оба, либо ни один.
type ProvisioningService struct {
	store      Provisioner
	allotments AllotmentSource
	log        *logrus.Logger
}

// NewProvisioningService создаёт сервис первичного создания профилей.
func NewProvisioningService(store Provisioner, allotments AllotmentSource, log *logrus.Logger) *ProvisioningService {
	return &ProvisioningService{store: store, allotments: allotments, log: log}
}

// ProvisionFreelancer создаёт профиль и счёт откликов. Лимит текущего
// месяца читается один раз и становится стартовым балансом; если трекер
// на месяц не заведён, баланс нулевой.
func (s *ProvisioningService) ProvisionFreelancer(ctx context.Context, userID uuid.UUID, role string, input ProfileInput, now time.Time) (*models.Profile, *models.ProposalAccount, error) {
	if role != models.RoleFreelancer {
		return nil, nil, apperror.New(apperror.ErrCodeForbidden, "только фрилансеры могут создать профиль")
	}

	if err := validation.ValidateJobTitle(input.JobTitle); err != nil {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateProfileDescription(input.ProfileDescription); err != nil {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateSkills(input.Skills); err != nil {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateHourlyRate(input.HourlyRate); err != nil {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	allotment, err := s.allotments.CurrentAllotment(ctx, now)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить лимит откликов")
	}

	profile := &models.Profile{
		UserID:             userID,
		FirstName:          input.FirstName,
		LastName:           input.LastName,
		JobTitle:           input.JobTitle,
		ProfileDescription: input.ProfileDescription,
		CityName:           input.CityName,
		Address:            input.Address,
		Country:            input.Country,
		Zipcode:            input.Zipcode,
		HourlyRate:         input.HourlyRate,
		Skills:             input.Skills,
	}
	if profile.Skills == nil {
		profile.Skills = []string{}
	}

	account := &models.ProposalAccount{
		UserID:  userID,
		Role:    models.RoleFreelancer,
		Balance: allotment,
	}

	if err := s.store.CreateProfileWithAccount(ctx, profile, account); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, nil, apperror.ErrAlreadyProvisioned
		}
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать профиль")
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"balance": account.Balance,
	}).Info("Профиль фрилансера создан")

	return profile, account, nil
}
