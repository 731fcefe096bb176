package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-proposals/internal/models"
	"github.com/ignatzorin/freelance-proposals/internal/repository/common"
)

// ErrAlreadyRefreshed возвращается, когда счёт уже пополнялся в текущем месяце.
var ErrAlreadyRefreshed = errors.New("account already refreshed this month")

// AccountRepository отвечает за таблицу proposal_accounts.
// Баланс меняется только условными атомарными апдейтами: проверка и
// изменение выполняются одним запросом, без race между чтением и записью.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository создаёт экземпляр репозитория.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create создаёт счёт откликов. Уникальный индекс по user_id гарантирует
// один счёт на пользователя даже при конкурентных вызовах.
func (r *AccountRepository) Create(ctx context.Context, account *models.ProposalAccount) error {
	return r.CreateIn(ctx, r.db, account)
}

// CreateIn выполняет ту же вставку внутри переданной транзакции.
// Стартовый баланс засчитывается как пополнение текущего месяца, иначе
// ближайший проход планировщика начислил бы норму второй раз.
func (r *AccountRepository) CreateIn(ctx context.Context, ext sqlx.ExtContext, account *models.ProposalAccount) error {
	query := `
		INSERT INTO proposal_accounts (user_id, role, balance, last_refreshed_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, last_refreshed_at, created_at, updated_at
	`

	if err := ext.QueryRowxContext(
		ctx, query,
		account.UserID, account.Role, account.Balance,
	).Scan(&account.ID, &account.LastRefreshedAt, &account.CreatedAt, &account.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("account repository: create: %w", err)
	}

	return nil
}

// GetByUserID возвращает счёт по владельцу.
func (r *AccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProposalAccount, error) {
	return common.GetByField[models.ProposalAccount](ctx, r.db, "proposal_accounts", "user_id", userID, common.ErrNotFound)
}

// Debit атомарно списывает amount с баланса. Условие balance >= amount
// в самом апдейте исключает уход в минус при конкурентных списаниях.
func (r *AccountRepository) Debit(ctx context.Context, userID uuid.UUID, amount int) error {
	query := `
		UPDATE proposal_accounts
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
	`

	res, err := r.db.ExecContext(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("account repository: debit: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("account repository: debit rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Ни одной строки: либо счёта нет, либо баланс меньше списания.
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM proposal_accounts WHERE user_id = $1)`, userID); err != nil {
		return fmt.Errorf("account repository: debit exists check: %w", err)
	}
	if !exists {
		return common.ErrNotFound
	}
	return common.ErrInsufficientBalance
}

// Refresh добавляет allotment к балансу не чаще одного раза за календарный
// месяц. Повторный вызов в том же месяце оставляет баланс нетронутым и
// возвращает ErrAlreadyRefreshed вместе с текущим балансом.
func (r *AccountRepository) Refresh(ctx context.Context, userID uuid.UUID, allotment int, now time.Time) (int, error) {
	query := `
		UPDATE proposal_accounts
		SET balance = balance + $2, last_refreshed_at = $3, updated_at = NOW()
		WHERE user_id = $1
		  AND (last_refreshed_at IS NULL OR date_trunc('month', last_refreshed_at) <> date_trunc('month', $3::timestamptz))
		RETURNING balance
	`

	var balance int
	err := r.db.GetContext(ctx, &balance, query, userID, allotment, now)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("account repository: refresh: %w", err)
	}

	if err := r.db.GetContext(ctx, &balance,
		`SELECT balance FROM proposal_accounts WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("account repository: refresh balance read: %w", err)
	}
	return balance, ErrAlreadyRefreshed
}

// RefreshAll пополняет все счета фрилансеров, ещё не пополненные в месяце now.
// Возвращает количество обновлённых счетов.
func (r *AccountRepository) RefreshAll(ctx context.Context, allotment int, now time.Time) (int64, error) {
	query := `
		UPDATE proposal_accounts
		SET balance = balance + $1, last_refreshed_at = $2, updated_at = NOW()
		WHERE role = $3
		  AND (last_refreshed_at IS NULL OR date_trunc('month', last_refreshed_at) <> date_trunc('month', $2::timestamptz))
	`

	res, err := r.db.ExecContext(ctx, query, allotment, now, models.RoleFreelancer)
	if err != nil {
		return 0, fmt.Errorf("account repository: refresh all: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("account repository: refresh all rows affected: %w", err)
	}
	return affected, nil
}
