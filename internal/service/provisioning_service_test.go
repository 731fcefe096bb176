package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-proposals/internal/models"
	"github.com/ignatzorin/freelance-proposals/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-proposals/internal/repository/common"
)

// fakeProvisioner stores profile and account together, mimicking the
// all-or-nothing transaction of the real repository.
type fakeProvisioner struct {
	profiles map[uuid.UUID]*models.Profile
	accounts map[uuid.UUID]*models.ProposalAccount
	failWith error
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{
		profiles: make(map[uuid.UUID]*models.Profile),
		accounts: make(map[uuid.UUID]*models.ProposalAccount),
	}
}

func (f *fakeProvisioner) CreateProfileWithAccount(ctx context.Context, profile *models.Profile, account *models.ProposalAccount) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.profiles[profile.UserID]; ok {
		return common.ErrAlreadyExists
	}
	account.ID = uuid.New()
	f.profiles[profile.UserID] = profile
	f.accounts[account.UserID] = account
	return nil
}

type fixedAllotment int

func (a fixedAllotment) CurrentAllotment(ctx context.Context, now time.Time) (int, error) {
	return int(a), nil
}

func validProfileInput() ProfileInput {
	return ProfileInput{
		FirstName:          "Анна",
		LastName:           "Иванова",
		JobTitle:           "Backend разработчик",
		ProfileDescription: "Пишу сервисы на Go",
		CityName:           "Казань",
		Country:            "Россия",
		HourlyRate:         45,
		Skills:             []string{"go", "postgresql"},
	}
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestProvisioningService_Success(t *testing.T) {
	store := newFakeProvisioner()
	svc := NewProvisioningService(store, fixedAllotment(10), newTestLogger())

	userID := uuid.New()
	profile, account, err := svc.ProvisionFreelancer(context.Background(), userID, models.RoleFreelancer, validProfileInput(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, userID, profile.UserID)
	assert.Equal(t, 10, account.Balance, "стартовый баланс равен норме месяца")
	assert.Equal(t, models.RoleFreelancer, account.Role)

	// Профиль и счёт созданы парой.
	assert.Contains(t, store.profiles, userID)
	assert.Contains(t, store.accounts, userID)
}

func TestProvisioningService_NoTrackerSeedsZero(t *testing.T) {
	store := newFakeProvisioner()
	svc := NewProvisioningService(store, fixedAllotment(0), newTestLogger())

	_, account, err := svc.ProvisionFreelancer(context.Background(), uuid.New(), models.RoleFreelancer, validProfileInput(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, account.Balance)
}

func TestProvisioningService_RejectsNonFreelancer(t *testing.T) {
	store := newFakeProvisioner()
	svc := NewProvisioningService(store, fixedAllotment(10), newTestLogger())

	_, _, err := svc.ProvisionFreelancer(context.Background(), uuid.New(), models.RoleClient, validProfileInput(), time.Now())
	assert.True(t, apperror.Is(err, apperror.ErrCodeForbidden))
	assert.Empty(t, store.profiles)
}

func TestProvisioningService_AlreadyProvisioned(t *testing.T) {
	store := newFakeProvisioner()
	svc := NewProvisioningService(store, fixedAllotment(10), newTestLogger())
	ctx := context.Background()

	userID := uuid.New()
	_, _, err := svc.ProvisionFreelancer(ctx, userID, models.RoleFreelancer, validProfileInput(), time.Now())
	require.NoError(t, err)

	_, _, err = svc.ProvisionFreelancer(ctx, userID, models.RoleFreelancer, validProfileInput(), time.Now())
	assert.ErrorIs(t, err, apperror.ErrAlreadyProvisioned)
}

func TestProvisioningService_ConcurrentDuplicate(t *testing.T) {
	// Хранилище сигнализирует проигравшему конкурентной гонки
	// через ErrAlreadyExists: сервис переводит его в конфликт.
	store := newFakeProvisioner()
	store.failWith = common.ErrAlreadyExists
	svc := NewProvisioningService(store, fixedAllotment(10), newTestLogger())

	_, _, err := svc.ProvisionFreelancer(context.Background(), uuid.New(), models.RoleFreelancer, validProfileInput(), time.Now())
	assert.ErrorIs(t, err, apperror.ErrAlreadyProvisioned)
}

func TestProvisioningService_ValidatesInput(t *testing.T) {
	store := newFakeProvisioner()
	svc := NewProvisioningService(store, fixedAllotment(10), newTestLogger())

	input := validProfileInput()
	input.JobTitle = ""
	_, _, err := svc.ProvisionFreelancer(context.Background(), uuid.New(), models.RoleFreelancer, input, time.Now())
	assert.True(t, apperror.IsValidation(err))

	input = validProfileInput()
	input.HourlyRate = -5
	_, _, err = svc.ProvisionFreelancer(context.Background(), uuid.New(), models.RoleFreelancer, input, time.Now())
	assert.True(t, apperror.IsValidation(err))
}
