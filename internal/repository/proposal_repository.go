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

// ProposalRepository отвечает за таблицы proposals и proposal_milestones.
type ProposalRepository struct {
	db *sqlx.DB
}

// NewProposalRepository создаёт экземпляр репозитория.
func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// proposalRow вспомогательная структура для сканирования files (text[]).
type proposalRow struct {
	models.Proposal
	FilesArr pq.StringArray `db:"files"`
}

func (row *proposalRow) toModel() *models.Proposal {
	p := row.Proposal
	p.Files = []string(row.FilesArr)
	if p.Files == nil {
		p.Files = []string{}
	}
	return &p
}

// Create сохраняет предложение вместе с этапами в одной транзакции.
func (r *ProposalRepository) Create(ctx context.Context, proposal *models.Proposal) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO proposals (job_id, freelancer_id, client_id, cover_letter, estimated_time, kind, total_price, status, files)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at
		`

		if err := tx.QueryRowxContext(
			ctx, query,
			proposal.JobID, proposal.FreelancerID, proposal.ClientID,
			proposal.CoverLetter, proposal.EstimatedTime, proposal.Kind,
			proposal.TotalPrice, proposal.Status, pq.Array(proposal.Files),
		).Scan(&proposal.ID, &proposal.CreatedAt, &proposal.UpdatedAt); err != nil {
			return fmt.Errorf("proposal repository: create: %w", err)
		}

		milestoneQuery := `
			INSERT INTO proposal_milestones (proposal_id, description, due_date, price, status, position)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`

		for i := range proposal.Milestones {
			m := &proposal.Milestones[i]
			m.ProposalID = proposal.ID
			m.Position = i
			if err := tx.QueryRowxContext(
				ctx, milestoneQuery,
				m.ProposalID, m.Description, m.DueDate, m.Price, m.Status, m.Position,
			).Scan(&m.ID); err != nil {
				return fmt.Errorf("proposal repository: create milestone: %w", err)
			}
		}

		return nil
	})
}

// GetByID возвращает предложение вместе с этапами.
func (r *ProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	var row proposalRow
	query := `
		SELECT id, job_id, freelancer_id, client_id, cover_letter, estimated_time, kind, total_price, status, files, created_at, updated_at
		FROM proposals
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("proposal repository: get by id: %w", err)
	}

	proposal := row.toModel()
	if err := r.loadMilestones(ctx, []*models.Proposal{proposal}); err != nil {
		return nil, err
	}

	return proposal, nil
}

// ListByFreelancer возвращает предложения, поданные фрилансером.
func (r *ProposalRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*models.Proposal, error) {
	return r.list(ctx, "freelancer_id", freelancerID)
}

// ListByJob возвращает предложения по вакансии.
func (r *ProposalRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*models.Proposal, error) {
	return r.list(ctx, "job_id", jobID)
}

func (r *ProposalRepository) list(ctx context.Context, field string, value uuid.UUID) ([]*models.Proposal, error) {
	var rows []proposalRow
	query := fmt.Sprintf(`
		SELECT id, job_id, freelancer_id, client_id, cover_letter, estimated_time, kind, total_price, status, files, created_at, updated_at
		FROM proposals
		WHERE %s = $1
		ORDER BY created_at DESC
	`, field)

	if err := r.db.SelectContext(ctx, &rows, query, value); err != nil {
		return nil, fmt.Errorf("proposal repository: list by %s: %w", field, err)
	}

	proposals := make([]*models.Proposal, 0, len(rows))
	for i := range rows {
		proposals = append(proposals, rows[i].toModel())
	}

	if err := r.loadMilestones(ctx, proposals); err != nil {
		return nil, err
	}

	return proposals, nil
}

// loadMilestones подгружает этапы одним запросом для набора предложений.
func (r *ProposalRepository) loadMilestones(ctx context.Context, proposals []*models.Proposal) error {
	if len(proposals) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(proposals))
	byID := make(map[uuid.UUID]*models.Proposal, len(proposals))
	for _, p := range proposals {
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	var milestones []models.Milestone
	query := `
		SELECT id, proposal_id, description, due_date, price, status, position
		FROM proposal_milestones
		WHERE proposal_id = ANY($1)
		ORDER BY proposal_id, position
	`
	if err := r.db.SelectContext(ctx, &milestones, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("proposal repository: load milestones: %w", err)
	}

	for _, m := range milestones {
		if p, ok := byID[m.ProposalID]; ok {
			p.Milestones = append(p.Milestones, m)
		}
	}

	return nil
}

// UpdateStatus переводит предложение из статуса from в статус to.
// Условие по from делает перевод атомарным: из двух конкурентных
// запросов строку меняет ровно один, второй получает ErrStaleState.
func (r *ProposalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ProposalStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE proposals SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return fmt.Errorf("proposal repository: update status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("proposal repository: update status rows affected: %w", err)
	}
	if affected == 0 {
		// Строка либо удалена, либо статус уже изменён параллельно.
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM proposals WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("proposal repository: update status exists check: %w", err)
		}
		if !exists {
			return common.ErrNotFound
		}
		return common.ErrStaleState
	}
	return nil
}

// UpdateMilestoneStatus переводит этап из статуса from в статус to с тем же
// условным UPDATE, что и у предложений.
func (r *ProposalRepository) UpdateMilestoneStatus(ctx context.Context, proposalID, milestoneID uuid.UUID, from, to models.MilestoneStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE proposal_milestones SET status = $4 WHERE id = $2 AND proposal_id = $1 AND status = $3`,
		proposalID, milestoneID, from, to)
	if err != nil {
		return fmt.Errorf("proposal repository: update milestone status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("proposal repository: update milestone status rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM proposal_milestones WHERE id = $2 AND proposal_id = $1)`,
			proposalID, milestoneID); err != nil {
			return fmt.Errorf("proposal repository: update milestone status exists check: %w", err)
		}
		if !exists {
			return common.ErrNotFound
		}
		return common.ErrStaleState
	}
	return nil
}
