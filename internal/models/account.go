package models

import (
	"time"

	"github.com/google/uuid"
)

// ProposalAccount хранит баланс откликов фрилансера.
// Ровно один счёт на пользователя, баланс не бывает отрицательным:
// списание и пополнение выполняются только квотным сервисом.
type ProposalAccount struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	Role            string     `db:"role" json:"role"`
	Balance         int        `db:"balance" json:"balance"`
	LastRefreshedAt *time.Time `db:"last_refreshed_at" json:"last_refreshed_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// RefreshTracker задаёт месячную норму откликов.
// Одна запись на пару (месяц, год); записывается административным
// процессом и не переписывается задним числом для уже открытых счетов.
type RefreshTracker struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Month     string    `db:"month" json:"month"`
	Year      int       `db:"year" json:"year"`
	Allotment int       `db:"allotment" json:"allotment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MonthLabel возвращает метку месяца в формате трекера ("Jan".."Dec").
func MonthLabel(t time.Time) string {
	return t.Format("Jan")
}
