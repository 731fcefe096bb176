package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-proposals/internal/logger"
	"github.com/ignatzorin/freelance-proposals/internal/models"
	"github.com/ignatzorin/freelance-proposals/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-proposals/internal/repository"
	"github.com/ignatzorin/freelance-proposals/internal/repository/common"
)

type AccountStorage interface {
	Create(ctx context.Context, account *models.ProposalAccount) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProposalAccount, error)
	Debit(ctx context.Context, userID uuid.UUID, amount int) error
	Refresh(ctx context.Context, userID uuid.UUID, allotment int, now time.Time) (int, error)
	RefreshAll(ctx context.Context, allotment int, now time.Time) (int64, error)
}

type TrackerStorage interface {
	GetByPeriod(ctx context.Context, month string, year int) (*models.RefreshTracker, error)
	Upsert(ctx context.Context, tracker *models.RefreshTracker) error
}

// QuotaService владеет балансами откликов и месячным расписанием
// пополнения. Таблица норм и балансы разведены: нормы пишет
// административный процесс, балансы меняет только потребление и
// пополнение, поэтому расход квоты можно аудировать отдельно от выдачи.
type QuotaService struct {
	accounts AccountStorage
	trackers TrackerStorage
}

// NewQuotaService создаёт квотный сервис.
func NewQuotaService(accounts AccountStorage, trackers TrackerStorage) *QuotaService {
	return &QuotaService{accounts: accounts, trackers: trackers}
}

// CurrentAllotment возвращает норму откликов для месяца now.
// Отсутствие трекера не ошибка: в такой месяц квота не начисляется.
func (s *QuotaService) CurrentAllotment(ctx context.Context, now time.Time) (int, error) {
	tracker, err := s.trackers.GetByPeriod(ctx, models.MonthLabel(now), now.Year())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return 0, nil
		}
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось прочитать норму откликов")
	}
	return tracker.Allotment, nil
}

// OpenAccount открывает счёт откликов с балансом, равным норме текущего
// месяца. Конкурентные дубли разрешаются уникальным индексом хранилища:
// ровно один вызов успешен, остальные получают конфликт.
func (s *QuotaService) OpenAccount(ctx context.Context, userID uuid.UUID, now time.Time) (*models.ProposalAccount, error) {
	allotment, err := s.CurrentAllotment(ctx, now)
	if err != nil {
		return nil, err
	}

	account := &models.ProposalAccount{
		UserID:  userID,
		Role:    models.RoleFreelancer,
		Balance: allotment,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, apperror.ErrAccountExists
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось открыть счёт откликов")
	}

	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id": userID,
			"balance": account.Balance,
		}).Info("quota: открыт счёт откликов")
	}

	return account, nil
}

// Account возвращает счёт владельца.
func (s *QuotaService) Account(ctx context.Context, userID uuid.UUID) (*models.ProposalAccount, error) {
	account, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, apperror.ErrAccountNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось прочитать счёт откликов")
	}
	return account, nil
}

// Debit списывает amount откликов. При недостаточном балансе счёт не
// меняется и возвращается ErrInsufficientQuota.
func (s *QuotaService) Debit(ctx context.Context, userID uuid.UUID, amount int) error {
	if amount <= 0 {
		return apperror.New(apperror.ErrCodeValidation, "сумма списания должна быть положительной")
	}

	if err := s.accounts.Debit(ctx, userID, amount); err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return apperror.ErrAccountNotFound
		case errors.Is(err, common.ErrInsufficientBalance):
			return apperror.ErrInsufficientQuota
		default:
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось списать отклик")
		}
	}
	return nil
}

// Refresh пополняет счёт нормой месяца now и возвращает новый баланс.
// Повторный вызов в том же месяце баланс не меняет.
func (s *QuotaService) Refresh(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	allotment, err := s.CurrentAllotment(ctx, now)
	if err != nil {
		return 0, err
	}

	balance, err := s.accounts.Refresh(ctx, userID, allotment, now)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyRefreshed):
			if logger.Log != nil {
				logger.Log.WithField("user_id", userID).Debug("quota: счёт уже пополнен в этом месяце")
			}
			return balance, nil
		case errors.Is(err, common.ErrNotFound):
			return 0, apperror.ErrAccountNotFound
		default:
			return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось пополнить счёт откликов")
		}
	}

	return balance, nil
}

// RefreshAll пополняет все ещё не пополненные в месяце now счета.
// Вызывается планировщиком на границе месяца.
func (s *QuotaService) RefreshAll(ctx context.Context, now time.Time) (int64, error) {
	allotment, err := s.CurrentAllotment(ctx, now)
	if err != nil {
		return 0, err
	}
	if allotment == 0 {
		// Норма не опубликована: в этом месяце пополнения нет.
		return 0, nil
	}

	refreshed, err := s.accounts.RefreshAll(ctx, allotment, now)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось выполнить месячное пополнение")
	}

	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"accounts":  refreshed,
			"allotment": allotment,
			"month":     models.MonthLabel(now),
			"year":      now.Year(),
		}).Info("quota: месячное пополнение выполнено")
	}

	return refreshed, nil
}

// UpsertTracker публикует норму откликов для пары (месяц, год).
func (s *QuotaService) UpsertTracker(ctx context.Context, month string, year, allotment int) (*models.RefreshTracker, error) {
	if _, ok := models.ValidMonthLabels[month]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректная метка месяца, ожидается формат \"Jan\"")
	}
	if year < 2000 || year > 2200 {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный год")
	}
	if allotment < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "норма откликов не может быть отрицательной")
	}

	tracker := &models.RefreshTracker{
		Month:     month,
		Year:      year,
		Allotment: allotment,
	}
	if err := s.trackers.Upsert(ctx, tracker); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить норму откликов")
	}

	return tracker, nil
}
