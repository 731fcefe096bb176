package models

// ProposalStatus статус предложения в жизненном цикле.
type ProposalStatus string

const (
	ProposalStatusPending   ProposalStatus = "pending"
	ProposalStatusViewed    ProposalStatus = "viewed"
	ProposalStatusAccepted  ProposalStatus = "accepted"
	ProposalStatusRejected  ProposalStatus = "rejected"
	ProposalStatusCompleted ProposalStatus = "completed"
	ProposalStatusWithdrawn ProposalStatus = "withdrawn"
)

// proposalTransitions граф допустимых переходов статуса предложения.
// Клиент просматривает (viewed) и принимает решение, фрилансер может
// отозвать предложение до решения клиента. Терминальные статусы не имеют
// исходящих переходов.
var proposalTransitions = map[ProposalStatus][]ProposalStatus{
	ProposalStatusPending:   {ProposalStatusViewed, ProposalStatusWithdrawn},
	ProposalStatusViewed:    {ProposalStatusAccepted, ProposalStatusRejected, ProposalStatusWithdrawn},
	ProposalStatusAccepted:  {ProposalStatusCompleted},
	ProposalStatusRejected:  {},
	ProposalStatusCompleted: {},
	ProposalStatusWithdrawn: {},
}

func (s ProposalStatus) IsValid() bool {
	_, ok := proposalTransitions[s]
	return ok
}

// IsTerminal сообщает, что из статуса нет исходящих переходов.
func (s ProposalStatus) IsTerminal() bool {
	allowed, ok := proposalTransitions[s]
	return ok && len(allowed) == 0
}

func (s ProposalStatus) CanTransitionTo(newStatus ProposalStatus) bool {
	for _, status := range proposalTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

// MilestoneStatus статус этапа внутри предложения.
type MilestoneStatus string

const (
	MilestoneStatusPending   MilestoneStatus = "pending"
	MilestoneStatusCompleted MilestoneStatus = "completed"
	MilestoneStatusCancelled MilestoneStatus = "cancelled"
)

// Этап переходит из pending в completed или cancelled, оба терминальны.
var milestoneTransitions = map[MilestoneStatus][]MilestoneStatus{
	MilestoneStatusPending:   {MilestoneStatusCompleted, MilestoneStatusCancelled},
	MilestoneStatusCompleted: {},
	MilestoneStatusCancelled: {},
}

func (s MilestoneStatus) IsValid() bool {
	_, ok := milestoneTransitions[s]
	return ok
}

func (s MilestoneStatus) CanTransitionTo(newStatus MilestoneStatus) bool {
	for _, status := range milestoneTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

// ProposalKind способ ценообразования предложения.
type ProposalKind string

const (
	ProposalKindFixed      ProposalKind = "fixed"
	ProposalKindMilestones ProposalKind = "milestones"
)

func (k ProposalKind) IsValid() bool {
	return k == ProposalKindFixed || k == ProposalKindMilestones
}
