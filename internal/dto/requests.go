package dto

import "time"

// CreateProfileRequest represents the request to provision a freelancer profile
type CreateProfileRequest struct {
	FirstName          string   `json:"first_name" binding:"required"`
	LastName           string   `json:"last_name" binding:"required"`
	JobTitle           string   `json:"job_title" binding:"required"`
	ProfileDescription string   `json:"profile_description" binding:"required"`
	CityName           string   `json:"city_name"`
	Address            string   `json:"address"`
	Country            string   `json:"country"`
	Zipcode            string   `json:"zipcode"`
	HourlyRate         float64  `json:"hourly_rate"`
	Skills             []string `json:"skills"`
}

// UpdateProfileRequest represents the request to update profile scalar fields
type UpdateProfileRequest struct {
	FirstName          string   `json:"first_name" binding:"required"`
	LastName           string   `json:"last_name" binding:"required"`
	JobTitle           string   `json:"job_title" binding:"required"`
	ProfileDescription string   `json:"profile_description" binding:"required"`
	CityName           string   `json:"city_name"`
	Address            string   `json:"address"`
	Country            string   `json:"country"`
	Zipcode            string   `json:"zipcode"`
	HourlyRate         float64  `json:"hourly_rate"`
	Skills             []string `json:"skills"`
}

// PortfolioItemRequest represents a portfolio item payload
type PortfolioItemRequest struct {
	Image       string `json:"image" binding:"required"`
	ProjectLink string `json:"project_link" binding:"required"`
}

// EducationRequest represents an education entry payload
type EducationRequest struct {
	Institution    string `json:"institution" binding:"required"`
	Degree         string `json:"degree" binding:"required"`
	FieldOfStudy   string `json:"field_of_study"`
	GraduationYear int    `json:"graduation_year"`
}

// ExperienceRequest represents a work experience entry payload
type ExperienceRequest struct {
	CompanyName string     `json:"company_name" binding:"required"`
	Position    string     `json:"position" binding:"required"`
	StartDate   time.Time  `json:"start_date" binding:"required"`
	EndDate     *time.Time `json:"end_date"`
	Description string     `json:"description"`
}

// MilestoneRequest represents a milestone within a proposal
type MilestoneRequest struct {
	Description string    `json:"description" binding:"required"`
	DueDate     time.Time `json:"due_date" binding:"required"`
	Price       float64   `json:"price" binding:"required"`
}

// CreateProposalRequest represents the request to submit a proposal
type CreateProposalRequest struct {
	JobID         string             `json:"job_id" binding:"required,uuid"`
	ClientID      string             `json:"client_id" binding:"required,uuid"`
	CoverLetter   string             `json:"cover_letter" binding:"required"`
	EstimatedTime string             `json:"estimated_time" binding:"required"`
	Kind          string             `json:"kind" binding:"required"`
	TotalPrice    float64            `json:"total_price" binding:"required"`
	Files         []string           `json:"files"`
	Milestones    []MilestoneRequest `json:"milestones"`
}

// UpdateProposalStatusRequest represents the request to move a proposal
// to a new status
type UpdateProposalStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateMilestoneStatusRequest represents the request to move a milestone
// to a new status
type UpdateMilestoneStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpsertTrackerRequest represents the admin request to set the monthly
// proposal allotment
type UpsertTrackerRequest struct {
	Month     string `json:"month" binding:"required"`
	Year      int    `json:"year" binding:"required"`
	Allotment int    `json:"allotment"`
}
