package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-proposals/internal/goroutine"
)

// AccountRefresher массово пополняет счета откликов.
type AccountRefresher interface {
	RefreshAll(ctx context.Context, now time.Time) (int64, error)
}

// RefreshSweep периодически пополняет счета фрилансеров по лимиту
// текущего месяца. Сам факт пополнения не чаще раза в месяц
// гарантируется хранилищем, поэтому лишние проходы безопасны.
type RefreshSweep struct {
	quota    AccountRefresher
	interval time.Duration
	log      *logrus.Logger
	clock    func() time.Time
}

// NewRefreshSweep создаёт планировщик пополнений.
func NewRefreshSweep(quota AccountRefresher, interval time.Duration, log *logrus.Logger) *RefreshSweep {
	return &RefreshSweep{
		quota:    quota,
		interval: interval,
		log:      log,
		clock:    time.Now,
	}
}

// Start запускает цикл планировщика в отдельной горутине.
// Останавливается по отмене контекста.
func (s *RefreshSweep) Start(ctx context.Context) {
	goroutine.SafeGoWithContext(ctx, s.run)
}

func (s *RefreshSweep) run(ctx context.Context) {
	// Первый проход сразу: сервис мог быть выключен на стыке месяцев.
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Планировщик пополнений остановлен")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RefreshSweep) sweep(ctx context.Context) {
	now := s.clock()

	refreshed, err := s.quota.RefreshAll(ctx, now)
	if err != nil {
		s.log.WithError(err).Error("Не удалось пополнить счета откликов")
		return
	}

	if refreshed > 0 {
		s.log.WithFields(logrus.Fields{
			"accounts": refreshed,
			"month":    now.Format("Jan 2006"),
		}).Info("Счета откликов пополнены")
	}
}
