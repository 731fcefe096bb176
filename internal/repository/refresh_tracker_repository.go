package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-proposals/internal/models"
	"github.com/ignatzorin/freelance-proposals/internal/repository/common"
)

// RefreshTrackerRepository отвечает за таблицу proposal_refresh_trackers.
// Записи создаёт административный процесс, по одной на пару (месяц, год).
type RefreshTrackerRepository struct {
	db *sqlx.DB
}

// NewRefreshTrackerRepository создаёт экземпляр репозитория.
func NewRefreshTrackerRepository(db *sqlx.DB) *RefreshTrackerRepository {
	return &RefreshTrackerRepository{db: db}
}

// GetByPeriod возвращает трекер для указанного месяца и года.
func (r *RefreshTrackerRepository) GetByPeriod(ctx context.Context, month string, year int) (*models.RefreshTracker, error) {
	var tracker models.RefreshTracker
	query := `
		SELECT id, month, year, allotment, created_at, updated_at
		FROM proposal_refresh_trackers
		WHERE month = $1 AND year = $2
	`
	if err := r.db.GetContext(ctx, &tracker, query, month, year); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("refresh tracker repository: get by period: %w", err)
	}

	return &tracker, nil
}

// Upsert создаёт трекер или обновляет норму для уже существующего периода.
func (r *RefreshTrackerRepository) Upsert(ctx context.Context, tracker *models.RefreshTracker) error {
	query := `
		INSERT INTO proposal_refresh_trackers (month, year, allotment)
		VALUES ($1, $2, $3)
		ON CONFLICT (month, year) DO UPDATE
		SET allotment = EXCLUDED.allotment,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		tracker.Month, tracker.Year, tracker.Allotment,
	).Scan(&tracker.ID, &tracker.CreatedAt, &tracker.UpdatedAt); err != nil {
		return fmt.Errorf("refresh tracker repository: upsert: %w", err)
	}

	return nil
}
