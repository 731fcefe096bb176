package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-proposals/internal/models"
	"github.com/ignatzorin/freelance-proposals/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-proposals/internal/repository"
	"github.com/ignatzorin/freelance-proposals/internal/repository/common"
)

// fakeAccountStore is a stateful in-memory AccountStorage. Like the SQL
// store, Create stamps last_refreshed_at with the current clock, so the
// seeded balance already counts as the opening month's refresh. The clock
// is a field so tests can open accounts "in the past".
type fakeAccountStore struct {
	accounts map[uuid.UUID]*models.ProposalAccount
	now      time.Time
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		accounts: make(map[uuid.UUID]*models.ProposalAccount),
		now:      jan2025(),
	}
}

func (f *fakeAccountStore) Create(ctx context.Context, account *models.ProposalAccount) error {
	if _, ok := f.accounts[account.UserID]; ok {
		return common.ErrAlreadyExists
	}
	account.ID = uuid.New()
	ts := f.now
	account.LastRefreshedAt = &ts
	cp := *account
	f.accounts[account.UserID] = &cp
	return nil
}

func (f *fakeAccountStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProposalAccount, error) {
	acc, ok := f.accounts[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeAccountStore) Debit(ctx context.Context, userID uuid.UUID, amount int) error {
	acc, ok := f.accounts[userID]
	if !ok {
		return common.ErrNotFound
	}
	if acc.Balance < amount {
		return common.ErrInsufficientBalance
	}
	acc.Balance -= amount
	return nil
}

func (f *fakeAccountStore) Refresh(ctx context.Context, userID uuid.UUID, allotment int, now time.Time) (int, error) {
	acc, ok := f.accounts[userID]
	if !ok {
		return 0, common.ErrNotFound
	}
	if acc.LastRefreshedAt != nil &&
		acc.LastRefreshedAt.Year() == now.Year() && acc.LastRefreshedAt.Month() == now.Month() {
		return acc.Balance, repository.ErrAlreadyRefreshed
	}
	acc.Balance += allotment
	ts := now
	acc.LastRefreshedAt = &ts
	return acc.Balance, nil
}

func (f *fakeAccountStore) RefreshAll(ctx context.Context, allotment int, now time.Time) (int64, error) {
	var refreshed int64
	for _, acc := range f.accounts {
		if acc.Role != models.RoleFreelancer {
			continue
		}
		if acc.LastRefreshedAt != nil &&
			acc.LastRefreshedAt.Year() == now.Year() && acc.LastRefreshedAt.Month() == now.Month() {
			continue
		}
		acc.Balance += allotment
		ts := now
		acc.LastRefreshedAt = &ts
		refreshed++
	}
	return refreshed, nil
}

// fakeTrackerStore is a stateful in-memory TrackerStorage.
type fakeTrackerStore struct {
	trackers map[string]*models.RefreshTracker
}

func newFakeTrackerStore() *fakeTrackerStore {
	return &fakeTrackerStore{trackers: make(map[string]*models.RefreshTracker)}
}

func trackerKey(month string, year int) string {
	return fmt.Sprintf("%s-%d", month, year)
}

func (f *fakeTrackerStore) GetByPeriod(ctx context.Context, month string, year int) (*models.RefreshTracker, error) {
	tr, ok := f.trackers[trackerKey(month, year)]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *tr
	return &cp, nil
}

func (f *fakeTrackerStore) Upsert(ctx context.Context, tracker *models.RefreshTracker) error {
	if tracker.ID == uuid.Nil {
		tracker.ID = uuid.New()
	}
	cp := *tracker
	f.trackers[trackerKey(tracker.Month, tracker.Year)] = &cp
	return nil
}

func jan2025() time.Time {
	return time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)
}

func TestQuotaService_CurrentAllotment_DefaultsToZero(t *testing.T) {
	svc := NewQuotaService(newFakeAccountStore(), newFakeTrackerStore())

	allotment, err := svc.CurrentAllotment(context.Background(), jan2025())
	require.NoError(t, err)
	assert.Equal(t, 0, allotment, "без трекера норма нулевая")
}

func TestQuotaService_OpenAccount_SeedsBalanceFromTracker(t *testing.T) {
	accounts := newFakeAccountStore()
	trackers := newFakeTrackerStore()
	svc := NewQuotaService(accounts, trackers)
	ctx := context.Background()

	_, err := svc.UpsertTracker(ctx, "Jan", 2025, 10)
	require.NoError(t, err)

	userID := uuid.New()
	account, err := svc.OpenAccount(ctx, userID, jan2025())
	require.NoError(t, err)
	assert.Equal(t, 10, account.Balance)
	assert.Equal(t, models.RoleFreelancer, account.Role)
}

func TestQuotaService_OpenAccount_Duplicate(t *testing.T) {
	svc := NewQuotaService(newFakeAccountStore(), newFakeTrackerStore())
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.OpenAccount(ctx, userID, jan2025())
	require.NoError(t, err)

	_, err = svc.OpenAccount(ctx, userID, jan2025())
	assert.ErrorIs(t, err, apperror.ErrAccountExists)
}

func TestQuotaService_Debit_Scenario(t *testing.T) {
	accounts := newFakeAccountStore()
	trackers := newFakeTrackerStore()
	svc := NewQuotaService(accounts, trackers)
	ctx := context.Background()

	_, err := svc.UpsertTracker(ctx, "Jan", 2025, 10)
	require.NoError(t, err)

	userID := uuid.New()
	_, err = svc.OpenAccount(ctx, userID, jan2025())
	require.NoError(t, err)

	require.NoError(t, svc.Debit(ctx, userID, 7))

	account, err := svc.Account(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, account.Balance)

	// Баланса не хватает: списание отклоняется и счёт не меняется.
	err = svc.Debit(ctx, userID, 5)
	assert.True(t, apperror.Is(err, apperror.ErrCodeInsufficientQuota))

	account, err = svc.Account(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, account.Balance)
}

func TestQuotaService_Debit_Validation(t *testing.T) {
	svc := NewQuotaService(newFakeAccountStore(), newFakeTrackerStore())

	err := svc.Debit(context.Background(), uuid.New(), 0)
	assert.True(t, apperror.IsValidation(err))

	err = svc.Debit(context.Background(), uuid.New(), -1)
	assert.True(t, apperror.IsValidation(err))
}

func TestQuotaService_Debit_UnknownAccount(t *testing.T) {
	svc := NewQuotaService(newFakeAccountStore(), newFakeTrackerStore())

	err := svc.Debit(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, apperror.ErrAccountNotFound)
}

func TestQuotaService_Refresh_OncePerMonth(t *testing.T) {
	accounts := newFakeAccountStore()
	trackers := newFakeTrackerStore()
	svc := NewQuotaService(accounts, trackers)
	ctx := context.Background()

	_, err := svc.UpsertTracker(ctx, "Jan", 2025, 10)
	require.NoError(t, err)

	userID := uuid.New()
	_, err = svc.OpenAccount(ctx, userID, jan2025())
	require.NoError(t, err)
	require.NoError(t, svc.Debit(ctx, userID, 4))

	// Стартовый баланс уже считается январским пополнением: повторное
	// пополнение в месяце открытия счёта баланс не меняет.
	balance, err := svc.Refresh(ctx, userID, jan2025())
	require.NoError(t, err)
	assert.Equal(t, 6, balance)

	// Новый месяц с новой нормой пополняет.
	_, err = svc.UpsertTracker(ctx, "Feb", 2025, 5)
	require.NoError(t, err)

	feb := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	balance, err = svc.Refresh(ctx, userID, feb)
	require.NoError(t, err)
	assert.Equal(t, 11, balance)

	// Повторное пополнение в том же месяце идемпотентно.
	balance, err = svc.Refresh(ctx, userID, feb)
	require.NoError(t, err)
	assert.Equal(t, 11, balance)
}

func TestQuotaService_RefreshAll_SkipsWithoutTracker(t *testing.T) {
	accounts := newFakeAccountStore()
	svc := NewQuotaService(accounts, newFakeTrackerStore())
	ctx := context.Background()

	userID := uuid.New()
	_, err := svc.OpenAccount(ctx, userID, jan2025())
	require.NoError(t, err)

	refreshed, err := svc.RefreshAll(ctx, jan2025())
	require.NoError(t, err)
	assert.Zero(t, refreshed, "без опубликованной нормы пополнения нет")
}

func TestQuotaService_RefreshAll(t *testing.T) {
	accounts := newFakeAccountStore()
	trackers := newFakeTrackerStore()
	svc := NewQuotaService(accounts, trackers)
	ctx := context.Background()

	_, err := svc.UpsertTracker(ctx, "Jan", 2025, 10)
	require.NoError(t, err)

	// Счета открыты в декабре: январская выборка пополняет оба.
	dec := time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC)
	accounts.now = dec

	first := uuid.New()
	second := uuid.New()
	_, err = svc.OpenAccount(ctx, first, dec)
	require.NoError(t, err)
	_, err = svc.OpenAccount(ctx, second, dec)
	require.NoError(t, err)

	refreshed, err := svc.RefreshAll(ctx, jan2025())
	require.NoError(t, err)
	assert.EqualValues(t, 2, refreshed)

	// Второй проход в том же месяце никого не трогает.
	refreshed, err = svc.RefreshAll(ctx, jan2025())
	require.NoError(t, err)
	assert.Zero(t, refreshed)
}

func TestQuotaService_RefreshAll_SkipsOpeningMonth(t *testing.T) {
	accounts := newFakeAccountStore()
	trackers := newFakeTrackerStore()
	svc := NewQuotaService(accounts, trackers)
	ctx := context.Background()

	_, err := svc.UpsertTracker(ctx, "Jan", 2025, 10)
	require.NoError(t, err)

	userID := uuid.New()
	account, err := svc.OpenAccount(ctx, userID, jan2025())
	require.NoError(t, err)
	require.Equal(t, 10, account.Balance)

	// Свежеоткрытый счёт уже получил январскую норму при открытии:
	// выборка того же месяца его не трогает, двойного начисления нет.
	refreshed, err := svc.RefreshAll(ctx, jan2025())
	require.NoError(t, err)
	assert.Zero(t, refreshed)

	account, err = svc.Account(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 10, account.Balance)
}

func TestQuotaService_UpsertTracker_Validation(t *testing.T) {
	svc := NewQuotaService(newFakeAccountStore(), newFakeTrackerStore())
	ctx := context.Background()

	_, err := svc.UpsertTracker(ctx, "January", 2025, 10)
	assert.True(t, apperror.IsValidation(err), "полное имя месяца не принимается")

	_, err = svc.UpsertTracker(ctx, "Jan", 1800, 10)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.UpsertTracker(ctx, "Jan", 2025, -1)
	assert.True(t, apperror.IsValidation(err))

	tracker, err := svc.UpsertTracker(ctx, "Jan", 2025, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, tracker.Allotment, "нулевая норма допустима")
}
