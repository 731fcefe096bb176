package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-proposals/internal/models"
	"github.com/ignatzorin/freelance-proposals/internal/repository/common"
)

// ProvisioningRepository выполняет парную запись профиль + счёт откликов
// одной транзакцией. Осиротевший профиль без счёта невозможен: либо обе
// вставки фиксируются, либо ни одной.
type ProvisioningRepository struct {
	db       *sqlx.DB
	profiles *ProfileRepository
	accounts *AccountRepository
}

// NewProvisioningRepository создаёт экземпляр репозитория.
func NewProvisioningRepository(db *sqlx.DB, profiles *ProfileRepository, accounts *AccountRepository) *ProvisioningRepository {
	return &ProvisioningRepository{db: db, profiles: profiles, accounts: accounts}
}

// CreateProfileWithAccount создаёт профиль и счёт в одной транзакции.
// Нарушение уникальности любого из них откатывает обе записи и
// возвращает common.ErrAlreadyExists.
func (r *ProvisioningRepository) CreateProfileWithAccount(ctx context.Context, profile *models.Profile, account *models.ProposalAccount) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.profiles.CreateIn(ctx, tx, profile); err != nil {
			return err
		}
		return r.accounts.CreateIn(ctx, tx, account)
	})
}
