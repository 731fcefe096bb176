package models

import (
	"time"

	"github.com/google/uuid"
)

// Proposal отклик фрилансера на вакансию клиента.
// Ссылки на вакансию, фрилансера и клиента неизменяемы после создания.
type Proposal struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	JobID         uuid.UUID      `db:"job_id" json:"job_id"`
	FreelancerID  uuid.UUID      `db:"freelancer_id" json:"freelancer_id"`
	ClientID      uuid.UUID      `db:"client_id" json:"client_id"`
	CoverLetter   string         `db:"cover_letter" json:"cover_letter"`
	EstimatedTime string         `db:"estimated_time" json:"estimated_time"`
	Kind          ProposalKind   `db:"kind" json:"kind"`
	TotalPrice    float64        `db:"total_price" json:"total_price"`
	Status        ProposalStatus `db:"status" json:"status"`
	Files         []string       `db:"-" json:"files"`
	Milestones    []Milestone    `db:"-" json:"milestones,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// Milestone этап работы внутри предложения с помесячной оплатой.
type Milestone struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	ProposalID  uuid.UUID       `db:"proposal_id" json:"proposal_id"`
	Description string          `db:"description" json:"description"`
	DueDate     time.Time       `db:"due_date" json:"due_date"`
	Price       float64         `db:"price" json:"price"`
	Status      MilestoneStatus `db:"status" json:"status"`
	Position    int             `db:"position" json:"position"`
}

// MilestonesTotal возвращает сумму цен всех этапов.
func (p *Proposal) MilestonesTotal() float64 {
	var total float64
	for _, m := range p.Milestones {
		total += m.Price
	}
	return total
}

// AllMilestonesCompleted сообщает, что ни один этап не остался в pending.
// Отменённые этапы не блокируют завершение предложения.
func (p *Proposal) AllMilestonesCompleted() bool {
	for _, m := range p.Milestones {
		if m.Status == MilestoneStatusPending {
			return false
		}
	}
	return true
}

// MilestoneByID находит этап по идентификатору.
func (p *Proposal) MilestoneByID(id uuid.UUID) *Milestone {
	for i := range p.Milestones {
		if p.Milestones[i].ID == id {
			return &p.Milestones[i]
		}
	}
	return nil
}

// IsParty сообщает, что пользователь является стороной предложения.
func (p *Proposal) IsParty(userID uuid.UUID) bool {
	return p.FreelancerID == userID || p.ClientID == userID
}
