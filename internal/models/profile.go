package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile анкета фрилансера. Создаётся ровно один раз вместе со счётом
// откликов, дальше редактируется по частям.
type Profile struct {
	UserID             uuid.UUID `db:"user_id" json:"user_id"`
	FirstName          string    `db:"first_name" json:"first_name"`
	LastName           string    `db:"last_name" json:"last_name"`
	JobTitle           string    `db:"job_title" json:"job_title"`
	ProfileDescription string    `db:"profile_description" json:"profile_description"`
	CityName           string    `db:"city_name" json:"city_name"`
	Address            string    `db:"address" json:"address"`
	Country            string    `db:"country" json:"country"`
	Zipcode            string    `db:"zipcode" json:"zipcode"`
	HourlyRate         float64   `db:"hourly_rate" json:"hourly_rate"`
	Skills             []string  `db:"-" json:"skills"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`

	Portfolio  []PortfolioItem   `db:"-" json:"portfolio,omitempty"`
	Education  []EducationEntry  `db:"-" json:"education,omitempty"`
	Experience []ExperienceEntry `db:"-" json:"experience,omitempty"`
}

// PortfolioItem элемент портфолио.
type PortfolioItem struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Image       string    `db:"image" json:"image"`
	ProjectLink string    `db:"project_link" json:"project_link"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// EducationEntry запись об образовании.
type EducationEntry struct {
	ID             uuid.UUID `db:"id" json:"id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Institution    string    `db:"institution" json:"institution"`
	Degree         string    `db:"degree" json:"degree"`
	FieldOfStudy   string    `db:"field_of_study" json:"field_of_study"`
	GraduationYear int       `db:"graduation_year" json:"graduation_year"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ExperienceEntry запись об опыте работы.
type ExperienceEntry struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	CompanyName string     `db:"company_name" json:"company_name"`
	Position    string     `db:"position" json:"position"`
	StartDate   time.Time  `db:"start_date" json:"start_date"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
	Description string     `db:"description" json:"description"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
