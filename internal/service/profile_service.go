package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-proposals/internal/models"
	"github.com/ignatzorin/freelance-proposals/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-proposals/internal/repository/common"
	"github.com/ignatzorin/freelance-proposals/internal/validation"
)

type ProfileStorage interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	GetAll(ctx context.Context) ([]*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	AddPortfolioItem(ctx context.Context, item *models.PortfolioItem) error
	UpdatePortfolioItem(ctx context.Context, item *models.PortfolioItem) error
	DeletePortfolioItem(ctx context.Context, userID, itemID uuid.UUID) error
	AddEducation(ctx context.Context, entry *models.EducationEntry) error
	UpdateEducation(ctx context.Context, entry *models.EducationEntry) error
	DeleteEducation(ctx context.Context, userID, entryID uuid.UUID) error
	AddExperience(ctx context.Context, entry *models.ExperienceEntry) error
	UpdateExperience(ctx context.Context, entry *models.ExperienceEntry) error
	DeleteExperience(ctx context.Context, userID, entryID uuid.UUID) error
}

// AccountReader читает счёт откликов владельца профиля.
type AccountReader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProposalAccount, error)
}

// ProfileService отвечает за чтение и редактирование профилей.
// Чтения идут через кэш, каждая запись инвалидирует ключ профиля до
// возврата управления. Агрегатный ключ списка не инвалидируется и
// устаревает не дольше своего TTL — осознанный компромисс.
type ProfileService struct {
	profiles ProfileStorage
	accounts AccountReader
	cache    *CacheService

	profileTTL  time.Duration
	profilesTTL time.Duration
}

// NewProfileService создаёт сервис профилей.
func NewProfileService(profiles ProfileStorage, accounts AccountReader, cache *CacheService, profileTTL, profilesTTL time.Duration) *ProfileService {
	return &ProfileService{
		profiles:    profiles,
		accounts:    accounts,
		cache:       cache,
		profileTTL:  profileTTL,
		profilesTTL: profilesTTL,
	}
}

// All возвращает все профили через агрегатный ключ кэша.
func (s *ProfileService) All(ctx context.Context) ([]*models.Profile, string, error) {
	key := ProfilesCacheKey()

	var cached []*models.Profile
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, SourceCache, nil
	}

	profiles, err := s.profiles.GetAll(ctx)
	if err != nil {
		return nil, "", apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить профили")
	}

	s.cache.SetJSON(ctx, key, profiles, s.profilesTTL)
	return profiles, SourceStore, nil
}

// ByUser возвращает профиль пользователя. Кэшируется только сам профиль:
// счёт откликов зависит от того, кто смотрит, и подгружается отдельно
// для владельца.
func (s *ProfileService) ByUser(ctx context.Context, userID, viewerID uuid.UUID) (*models.Profile, *models.ProposalAccount, string, error) {
	key := ProfileCacheKey(userID)
	source := SourceStore

	var profile *models.Profile
	var cached models.Profile
	if s.cache.GetJSON(ctx, key, &cached) {
		profile = &cached
		source = SourceCache
	} else {
		loaded, err := s.profiles.GetByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, nil, "", apperror.ErrProfileNotFound
			}
			return nil, nil, "", apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить профиль")
		}
		profile = loaded
		s.cache.SetJSON(ctx, key, profile, s.profileTTL)
	}

	var account *models.ProposalAccount
	if userID == viewerID {
		acc, err := s.accounts.GetByUserID(ctx, userID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return nil, nil, "", apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить счёт откликов")
		}
		account = acc
	}

	return profile, account, source, nil
}

// UpdateInput скалярные поля профиля для обновления.
type UpdateInput struct {
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

// Update сохраняет скалярные поля профиля и инвалидирует его ключ кэша.
func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, input UpdateInput) (*models.Profile, error) {
	if err := validation.ValidateJobTitle(input.JobTitle); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateProfileDescription(input.ProfileDescription); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateSkills(input.Skills); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateHourlyRate(input.HourlyRate); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
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

	if err := s.profiles.Update(ctx, profile); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, apperror.ErrProfileNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить профиль")
	}

	s.cache.InvalidateProfile(ctx, userID)

	return s.reload(ctx, userID)
}

// AddPortfolio добавляет элемент портфолио.
func (s *ProfileService) AddPortfolio(ctx context.Context, userID uuid.UUID, image, projectLink string) (*models.Profile, error) {
	if image == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "изображение обязательно")
	}
	if err := validation.ValidateExternalLink(projectLink); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	item := &models.PortfolioItem{UserID: userID, Image: image, ProjectLink: projectLink}
	if err := s.profiles.AddPortfolioItem(ctx, item); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось добавить портфолио")
	}

	s.cache.InvalidateProfile(ctx, userID)
	return s.reload(ctx, userID)
}

// UpdatePortfolio обновляет элемент портфолио.
func (s *ProfileService) UpdatePortfolio(ctx context.Context, userID, itemID uuid.UUID, image, projectLink string) (*models.Profile, error) {
	if image == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "изображение обязательно")
	}
	if err := validation.ValidateExternalLink(projectLink); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	item := &models.PortfolioItem{ID: itemID, UserID: userID, Image: image, ProjectLink: projectLink}
	if err := s.profiles.UpdatePortfolioItem(ctx, item); err != nil {
		return nil, s.mapSubErr(err, "элемент портфолио")
	}

	s.cache.InvalidateProfile(ctx, userID)
	return s.reload(ctx, userID)
}

// DeletePortfolio удаляет элемент портфолио.
func (s *ProfileService) DeletePortfolio(ctx context.Context, userID, itemID uuid.UUID) (*models.Profile, error) {
	if err := s.profiles.DeletePortfolioItem(ctx, userID, itemID); err != nil {
		return nil, s.mapSubErr(err, "элемент портфолио")
	}

	s.cache.InvalidateProfile(ctx, userID)
	return s.reload(ctx, userID)
}

// AddEducation добавляет запись об образовании.
func (s *ProfileService) AddEducation(ctx context.Context, userID uuid.UUID, entry models.EducationEntry) (*models.Profile, error) {
	if entry.Institution == "" || entry.Degree == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "учебное заведение и степень обязательны")
	}

	entry.UserID = userID
	if err := s.profiles.AddEducation(ctx, &entry); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось добавить образование")
	}

	s.cache.InvalidateProfile(ctx, userID)
	return s.reload(ctx, userID)
}

// UpdateEducation обновляет запись об образовании.
func (s *ProfileService) UpdateEducation(ctx context.Context, userID, entryID uuid.UUID, entry models.EducationEntry) (*models.Profile, error) {
	if entry.Institution == "" || entry.Degree == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "учебное заведение и степень обязательны")
	}

	entry.ID = entryID
	entry.UserID = userID
	if err := s.profiles.UpdateEducation(ctx, &entry); err != nil {
		return nil, s.mapSubErr(err, "запись об образовании")
	}

	s.cache.InvalidateProfile(ctx, userID)
	return s.reload(ctx, userID)
}

// DeleteEducation удаляет запись об образовании.
func (s *ProfileService) DeleteEducation(ctx context.Context, userID, entryID uuid.UUID) (*models.Profile, error) {
	if err := s.profiles.DeleteEducation(ctx, userID, entryID); err != nil {
		return nil, s.mapSubErr(err, "запись об образовании")
	}

	s.cache.InvalidateProfile(ctx, userID)
	return s.reload(ctx, userID)
}

// AddExperience добавляет запись об опыте работы.
func (s *ProfileService) AddExperience(ctx context.Context, userID uuid.UUID, entry models.ExperienceEntry) (*models.Profile, error) {
	if entry.CompanyName == "" || entry.Position == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "компания и должность обязательны")
	}

	entry.UserID = userID
	if err := s.profiles.AddExperience(ctx, &entry); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось добавить опыт работы")
	}

	s.cache.InvalidateProfile(ctx, userID)
	return s.reload(ctx, userID)
}

// UpdateExperience обновляет запись об опыте работы.
func (s *ProfileService) UpdateExperience(ctx context.Context, userID, entryID uuid.UUID, entry models.ExperienceEntry) (*models.Profile, error) {
	if entry.CompanyName == "" || entry.Position == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "компания и должность обязательны")
	}

	entry.ID = entryID
	entry.UserID = userID
	if err := s.profiles.UpdateExperience(ctx, &entry); err != nil {
		return nil, s.mapSubErr(err, "запись об опыте работы")
	}

	s.cache.InvalidateProfile(ctx, userID)
	return s.reload(ctx, userID)
}

// DeleteExperience удаляет запись об опыте работы.
func (s *ProfileService) DeleteExperience(ctx context.Context, userID, entryID uuid.UUID) (*models.Profile, error) {
	if err := s.profiles.DeleteExperience(ctx, userID, entryID); err != nil {
		return nil, s.mapSubErr(err, "запись об опыте работы")
	}

	s.cache.InvalidateProfile(ctx, userID)
	return s.reload(ctx, userID)
}

func (s *ProfileService) reload(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, apperror.ErrProfileNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить профиль")
	}
	return profile, nil
}

func (s *ProfileService) mapSubErr(err error, what string) error {
	if errors.Is(err, common.ErrNotFound) {
		return apperror.New(apperror.ErrCodeNotFound, what+" не найден(а)")
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить "+what)
}
