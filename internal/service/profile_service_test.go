package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-proposals/internal/models"
	"github.com/ignatzorin/freelance-proposals/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-proposals/internal/repository/common"
)

// fakeProfileStore is a stateful in-memory ProfileStorage.
type fakeProfileStore struct {
	profiles map[uuid.UUID]*models.Profile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[uuid.UUID]*models.Profile)}
}

func (f *fakeProfileStore) put(profile *models.Profile) {
	f.profiles[profile.UserID] = profile
}

func (f *fakeProfileStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileStore) GetAll(ctx context.Context) ([]*models.Profile, error) {
	out := make([]*models.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeProfileStore) Update(ctx context.Context, profile *models.Profile) error {
	existing, ok := f.profiles[profile.UserID]
	if !ok {
		return common.ErrNotFound
	}
	updated := *profile
	updated.Portfolio = existing.Portfolio
	updated.Education = existing.Education
	updated.Experience = existing.Experience
	f.profiles[profile.UserID] = &updated
	return nil
}

func (f *fakeProfileStore) AddPortfolioItem(ctx context.Context, item *models.PortfolioItem) error {
	p, ok := f.profiles[item.UserID]
	if !ok {
		return common.ErrNotFound
	}
	item.ID = uuid.New()
	p.Portfolio = append(p.Portfolio, *item)
	return nil
}

func (f *fakeProfileStore) UpdatePortfolioItem(ctx context.Context, item *models.PortfolioItem) error {
	p, ok := f.profiles[item.UserID]
	if !ok {
		return common.ErrNotFound
	}
	for i := range p.Portfolio {
		if p.Portfolio[i].ID == item.ID {
			p.Portfolio[i] = *item
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeProfileStore) DeletePortfolioItem(ctx context.Context, userID, itemID uuid.UUID) error {
	p, ok := f.profiles[userID]
	if !ok {
		return common.ErrNotFound
	}
	for i := range p.Portfolio {
		if p.Portfolio[i].ID == itemID {
			p.Portfolio = append(p.Portfolio[:i], p.Portfolio[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeProfileStore) AddEducation(ctx context.Context, entry *models.EducationEntry) error {
	p, ok := f.profiles[entry.UserID]
	if !ok {
		return common.ErrNotFound
	}
	entry.ID = uuid.New()
	p.Education = append(p.Education, *entry)
	return nil
}

func (f *fakeProfileStore) UpdateEducation(ctx context.Context, entry *models.EducationEntry) error {
	p, ok := f.profiles[entry.UserID]
	if !ok {
		return common.ErrNotFound
	}
	for i := range p.Education {
		if p.Education[i].ID == entry.ID {
			p.Education[i] = *entry
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeProfileStore) DeleteEducation(ctx context.Context, userID, entryID uuid.UUID) error {
	p, ok := f.profiles[userID]
	if !ok {
		return common.ErrNotFound
	}
	for i := range p.Education {
		if p.Education[i].ID == entryID {
			p.Education = append(p.Education[:i], p.Education[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeProfileStore) AddExperience(ctx context.Context, entry *models.ExperienceEntry) error {
	p, ok := f.profiles[entry.UserID]
	if !ok {
		return common.ErrNotFound
	}
	entry.ID = uuid.New()
	p.Experience = append(p.Experience, *entry)
	return nil
}

func (f *fakeProfileStore) UpdateExperience(ctx context.Context, entry *models.ExperienceEntry) error {
	p, ok := f.profiles[entry.UserID]
	if !ok {
		return common.ErrNotFound
	}
	for i := range p.Experience {
		if p.Experience[i].ID == entry.ID {
			p.Experience[i] = *entry
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeProfileStore) DeleteExperience(ctx context.Context, userID, entryID uuid.UUID) error {
	p, ok := f.profiles[userID]
	if !ok {
		return common.ErrNotFound
	}
	for i := range p.Experience {
		if p.Experience[i].ID == entryID {
			p.Experience = append(p.Experience[:i], p.Experience[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

type fakeAccountReader struct {
	accounts map[uuid.UUID]*models.ProposalAccount
}

func (f *fakeAccountReader) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProposalAccount, error) {
	acc, ok := f.accounts[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return acc, nil
}

type profileFixture struct {
	svc     *ProfileService
	store   *fakeProfileStore
	reader  *fakeAccountReader
	backend *memBackend
}

func newProfileFixture() *profileFixture {
	store := newFakeProfileStore()
	reader := &fakeAccountReader{accounts: make(map[uuid.UUID]*models.ProposalAccount)}
	backend := newMemBackend()
	svc := NewProfileService(store, reader, NewCacheService(backend), time.Minute, time.Minute)
	return &profileFixture{svc: svc, store: store, reader: reader, backend: backend}
}

func seedProfile(fx *profileFixture) *models.Profile {
	p := &models.Profile{
		UserID:    uuid.New(),
		FirstName: "Анна",
		LastName:  "Иванова",
		JobTitle:  "Go разработчик",
	}
	fx.store.put(p)
	return p
}

func TestProfileService_ByUser_ReadThrough(t *testing.T) {
	fx := newProfileFixture()
	ctx := context.Background()
	p := seedProfile(fx)
	viewer := uuid.New()

	_, _, source, err := fx.svc.ByUser(ctx, p.UserID, viewer)
	require.NoError(t, err)
	assert.Equal(t, SourceStore, source)

	_, _, source, err = fx.svc.ByUser(ctx, p.UserID, viewer)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, source)
}

func TestProfileService_ByUser_OwnerSeesAccount(t *testing.T) {
	fx := newProfileFixture()
	ctx := context.Background()
	p := seedProfile(fx)
	fx.reader.accounts[p.UserID] = &models.ProposalAccount{UserID: p.UserID, Balance: 7}

	// Владельцу счёт виден.
	_, account, _, err := fx.svc.ByUser(ctx, p.UserID, p.UserID)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, 7, account.Balance)

	// Чужому зрителю счёт не отдаётся, даже из кэша.
	_, account, source, err := fx.svc.ByUser(ctx, p.UserID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, SourceCache, source)
	assert.Nil(t, account)
}

func TestProfileService_ByUser_NotFound(t *testing.T) {
	fx := newProfileFixture()

	_, _, _, err := fx.svc.ByUser(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrProfileNotFound)
}

func TestProfileService_Update_InvalidatesProfileKey(t *testing.T) {
	fx := newProfileFixture()
	ctx := context.Background()
	p := seedProfile(fx)

	// Прогреваем одиночный ключ.
	_, _, _, err := fx.svc.ByUser(ctx, p.UserID, uuid.New())
	require.NoError(t, err)

	_, err = fx.svc.Update(ctx, p.UserID, UpdateInput{
		FirstName: "Анна",
		LastName:  "Иванова",
		JobTitle:  "Senior Go разработчик",
	})
	require.NoError(t, err)

	got, _, source, err := fx.svc.ByUser(ctx, p.UserID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, SourceStore, source, "запись инвалидирует ключ профиля")
	assert.Equal(t, "Senior Go разработчик", got.JobTitle)
}

func TestProfileService_All_AggregateKeyIsTTLOnly(t *testing.T) {
	fx := newProfileFixture()
	ctx := context.Background()
	p := seedProfile(fx)

	profiles, source, err := fx.svc.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceStore, source)
	assert.Len(t, profiles, 1)

	_, err = fx.svc.Update(ctx, p.UserID, UpdateInput{
		FirstName: "Анна",
		LastName:  "Иванова",
		JobTitle:  "Techlead",
	})
	require.NoError(t, err)

	// Агрегатный ключ записью не инвалидируется: список может отставать
	// в пределах TTL.
	profiles, source, err = fx.svc.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, source)
	assert.Equal(t, "Go разработчик", profiles[0].JobTitle)
}

func TestProfileService_Portfolio_CRUD(t *testing.T) {
	fx := newProfileFixture()
	ctx := context.Background()
	p := seedProfile(fx)

	got, err := fx.svc.AddPortfolio(ctx, p.UserID, "cover.png", "https://example.com/project")
	require.NoError(t, err)
	require.Len(t, got.Portfolio, 1)

	itemID := got.Portfolio[0].ID
	got, err = fx.svc.UpdatePortfolio(ctx, p.UserID, itemID, "cover2.png", "https://example.com/project2")
	require.NoError(t, err)
	assert.Equal(t, "cover2.png", got.Portfolio[0].Image)

	got, err = fx.svc.DeletePortfolio(ctx, p.UserID, itemID)
	require.NoError(t, err)
	assert.Empty(t, got.Portfolio)
}

func TestProfileService_Portfolio_InvalidLink(t *testing.T) {
	fx := newProfileFixture()
	p := seedProfile(fx)

	_, err := fx.svc.AddPortfolio(context.Background(), p.UserID, "cover.png", "ftp://example.com")
	assert.True(t, apperror.IsValidation(err))
}
