package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/freelance-proposals/internal/models"
	"github.com/ignatzorin/freelance-proposals/internal/repository/common"
)

// ProfileRepository отвечает за таблицу profiles и её подколлекции:
// портфолио, образование и опыт работы.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository создаёт экземпляр репозитория.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

type profileRow struct {
	models.Profile
	SkillsArr pq.StringArray `db:"skills"`
}

func (row *profileRow) toModel() *models.Profile {
	p := row.Profile
	p.Skills = []string(row.SkillsArr)
	if p.Skills == nil {
		p.Skills = []string{}
	}
	return &p
}

// CreateIn вставляет профиль внутри переданной транзакции.
// Уникальный индекс по user_id гарантирует один профиль на пользователя.
func (r *ProfileRepository) CreateIn(ctx context.Context, ext sqlx.ExtContext, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, first_name, last_name, job_title, profile_description, city_name, address, country, zipcode, hourly_rate, skills)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	if err := ext.QueryRowxContext(
		ctx, query,
		profile.UserID, profile.FirstName, profile.LastName, profile.JobTitle,
		profile.ProfileDescription, profile.CityName, profile.Address,
		profile.Country, profile.Zipcode, profile.HourlyRate, pq.Array(profile.Skills),
	).Scan(&profile.CreatedAt, &profile.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("profile repository: create: %w", err)
	}

	return nil
}

// GetByUserID возвращает профиль вместе с подколлекциями.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var row profileRow
	query := `
		SELECT user_id, first_name, last_name, job_title, profile_description, city_name, address, country, zipcode, hourly_rate, skills, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("profile repository: get by user id: %w", err)
	}

	profile := row.toModel()
	if err := r.loadSubCollections(ctx, []*models.Profile{profile}); err != nil {
		return nil, err
	}

	return profile, nil
}

// GetAll возвращает все профили с подколлекциями.
func (r *ProfileRepository) GetAll(ctx context.Context) ([]*models.Profile, error) {
	var rows []profileRow
	query := `
		SELECT user_id, first_name, last_name, job_title, profile_description, city_name, address, country, zipcode, hourly_rate, skills, created_at, updated_at
		FROM profiles
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("profile repository: get all: %w", err)
	}

	profiles := make([]*models.Profile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, rows[i].toModel())
	}

	if err := r.loadSubCollections(ctx, profiles); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update сохраняет скалярные поля профиля.
func (r *ProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	query := `
		UPDATE profiles
		SET first_name = $2,
			last_name = $3,
			job_title = $4,
			profile_description = $5,
			city_name = $6,
			address = $7,
			country = $8,
			zipcode = $9,
			hourly_rate = $10,
			skills = $11,
			updated_at = NOW()
		WHERE user_id = $1
	`

	res, err := r.db.ExecContext(
		ctx, query,
		profile.UserID, profile.FirstName, profile.LastName, profile.JobTitle,
		profile.ProfileDescription, profile.CityName, profile.Address,
		profile.Country, profile.Zipcode, profile.HourlyRate, pq.Array(profile.Skills),
	)
	if err != nil {
		return fmt.Errorf("profile repository: update: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("profile repository: update rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// loadSubCollections подгружает подколлекции одним запросом на таблицу.
func (r *ProfileRepository) loadSubCollections(ctx context.Context, profiles []*models.Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(profiles))
	byID := make(map[uuid.UUID]*models.Profile, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
		byID[p.UserID] = p
	}

	var portfolio []models.PortfolioItem
	if err := r.db.SelectContext(ctx, &portfolio,
		`SELECT id, user_id, image, project_link, created_at FROM portfolio_items WHERE user_id = ANY($1) ORDER BY created_at`,
		pq.Array(ids)); err != nil {
		return fmt.Errorf("profile repository: load portfolio: %w", err)
	}
	for _, item := range portfolio {
		byID[item.UserID].Portfolio = append(byID[item.UserID].Portfolio, item)
	}

	var education []models.EducationEntry
	if err := r.db.SelectContext(ctx, &education,
		`SELECT id, user_id, institution, degree, field_of_study, graduation_year, created_at FROM education_entries WHERE user_id = ANY($1) ORDER BY graduation_year DESC`,
		pq.Array(ids)); err != nil {
		return fmt.Errorf("profile repository: load education: %w", err)
	}
	for _, entry := range education {
		byID[entry.UserID].Education = append(byID[entry.UserID].Education, entry)
	}

	var experience []models.ExperienceEntry
	if err := r.db.SelectContext(ctx, &experience,
		`SELECT id, user_id, company_name, position, start_date, end_date, description, created_at FROM experience_entries WHERE user_id = ANY($1) ORDER BY start_date DESC`,
		pq.Array(ids)); err != nil {
		return fmt.Errorf("profile repository: load experience: %w", err)
	}
	for _, entry := range experience {
		byID[entry.UserID].Experience = append(byID[entry.UserID].Experience, entry)
	}

	return nil
}

// AddPortfolioItem добавляет элемент портфолио.
func (r *ProfileRepository) AddPortfolioItem(ctx context.Context, item *models.PortfolioItem) error {
	query := `
		INSERT INTO portfolio_items (user_id, image, project_link)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, item.UserID, item.Image, item.ProjectLink).
		Scan(&item.ID, &item.CreatedAt); err != nil {
		return fmt.Errorf("profile repository: add portfolio item: %w", err)
	}
	return nil
}

// UpdatePortfolioItem обновляет элемент портфолио владельца.
func (r *ProfileRepository) UpdatePortfolioItem(ctx context.Context, item *models.PortfolioItem) error {
	return r.execOwned(ctx,
		`UPDATE portfolio_items SET image = $3, project_link = $4 WHERE id = $2 AND user_id = $1`,
		item.UserID, item.ID, item.Image, item.ProjectLink)
}

// DeletePortfolioItem удаляет элемент портфолио владельца.
func (r *ProfileRepository) DeletePortfolioItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return r.execOwned(ctx,
		`DELETE FROM portfolio_items WHERE id = $2 AND user_id = $1`, userID, itemID)
}

// AddEducation добавляет запись об образовании.
func (r *ProfileRepository) AddEducation(ctx context.Context, entry *models.EducationEntry) error {
	query := `
		INSERT INTO education_entries (user_id, institution, degree, field_of_study, graduation_year)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		entry.UserID, entry.Institution, entry.Degree, entry.FieldOfStudy, entry.GraduationYear).
		Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("profile repository: add education: %w", err)
	}
	return nil
}

// UpdateEducation обновляет запись об образовании владельца.
func (r *ProfileRepository) UpdateEducation(ctx context.Context, entry *models.EducationEntry) error {
	return r.execOwned(ctx,
		`UPDATE education_entries SET institution = $3, degree = $4, field_of_study = $5, graduation_year = $6 WHERE id = $2 AND user_id = $1`,
		entry.UserID, entry.ID, entry.Institution, entry.Degree, entry.FieldOfStudy, entry.GraduationYear)
}

// DeleteEducation удаляет запись об образовании владельца.
func (r *ProfileRepository) DeleteEducation(ctx context.Context, userID, entryID uuid.UUID) error {
	return r.execOwned(ctx,
		`DELETE FROM education_entries WHERE id = $2 AND user_id = $1`, userID, entryID)
}

// AddExperience добавляет запись об опыте работы.
func (r *ProfileRepository) AddExperience(ctx context.Context, entry *models.ExperienceEntry) error {
	query := `
		INSERT INTO experience_entries (user_id, company_name, position, start_date, end_date, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		entry.UserID, entry.CompanyName, entry.Position, entry.StartDate, entry.EndDate, entry.Description).
		Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("profile repository: add experience: %w", err)
	}
	return nil
}

// UpdateExperience обновляет запись об опыте работы владельца.
func (r *ProfileRepository) UpdateExperience(ctx context.Context, entry *models.ExperienceEntry) error {
	return r.execOwned(ctx,
		`UPDATE experience_entries SET company_name = $3, position = $4, start_date = $5, end_date = $6, description = $7 WHERE id = $2 AND user_id = $1`,
		entry.UserID, entry.ID, entry.CompanyName, entry.Position, entry.StartDate, entry.EndDate, entry.Description)
}

// DeleteExperience удаляет запись об опыте работы владельца.
func (r *ProfileRepository) DeleteExperience(ctx context.Context, userID, entryID uuid.UUID) error {
	return r.execOwned(ctx,
		`DELETE FROM experience_entries WHERE id = $2 AND user_id = $1`, userID, entryID)
}

// execOwned выполняет запрос, ограниченный владельцем, и переводит
// отсутствие строк в ErrNotFound.
func (r *ProfileRepository) execOwned(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("profile repository: exec: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("profile repository: exec rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
