package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProposalStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from    ProposalStatus
		to      ProposalStatus
		allowed bool
	}{
		{ProposalStatusPending, ProposalStatusViewed, true},
		{ProposalStatusPending, ProposalStatusWithdrawn, true},
		{ProposalStatusPending, ProposalStatusAccepted, false},
		{ProposalStatusPending, ProposalStatusRejected, false},
		{ProposalStatusViewed, ProposalStatusAccepted, true},
		{ProposalStatusViewed, ProposalStatusRejected, true},
		{ProposalStatusViewed, ProposalStatusWithdrawn, true},
		{ProposalStatusViewed, ProposalStatusCompleted, false},
		{ProposalStatusAccepted, ProposalStatusCompleted, true},
		{ProposalStatusAccepted, ProposalStatusRejected, false},
		{ProposalStatusRejected, ProposalStatusViewed, false},
		{ProposalStatusCompleted, ProposalStatusAccepted, false},
		{ProposalStatusWithdrawn, ProposalStatusPending, false},
	}

	for _, tc := range cases {
		got := tc.from.CanTransitionTo(tc.to)
		assert.Equal(t, tc.allowed, got, "%s -> %s", tc.from, tc.to)
	}
}

func TestProposalStatus_IsTerminal(t *testing.T) {
	assert.False(t, ProposalStatusPending.IsTerminal())
	assert.False(t, ProposalStatusViewed.IsTerminal())
	assert.False(t, ProposalStatusAccepted.IsTerminal())
	assert.True(t, ProposalStatusRejected.IsTerminal())
	assert.True(t, ProposalStatusCompleted.IsTerminal())
	assert.True(t, ProposalStatusWithdrawn.IsTerminal())
}

func TestProposalStatus_IsValid(t *testing.T) {
	assert.True(t, ProposalStatusPending.IsValid())
	assert.False(t, ProposalStatus("archived").IsValid())
	assert.False(t, ProposalStatus("").IsValid())
}

func TestMilestoneStatus_Transitions(t *testing.T) {
	assert.True(t, MilestoneStatusPending.CanTransitionTo(MilestoneStatusCompleted))
	assert.True(t, MilestoneStatusPending.CanTransitionTo(MilestoneStatusCancelled))
	assert.False(t, MilestoneStatusCompleted.CanTransitionTo(MilestoneStatusPending))
	assert.False(t, MilestoneStatusCompleted.CanTransitionTo(MilestoneStatusCancelled))
	assert.False(t, MilestoneStatusCancelled.CanTransitionTo(MilestoneStatusCompleted))
}

func TestProposalKind_IsValid(t *testing.T) {
	assert.True(t, ProposalKindFixed.IsValid())
	assert.True(t, ProposalKindMilestones.IsValid())
	assert.False(t, ProposalKind("hourly").IsValid())
}

func TestAllMilestonesCompleted(t *testing.T) {
	p := Proposal{
		Kind: ProposalKindMilestones,
		Milestones: []Milestone{
			{Status: MilestoneStatusCompleted},
			{Status: MilestoneStatusCancelled},
		},
	}
	// Отменённый этап не блокирует завершение.
	assert.True(t, p.AllMilestonesCompleted())

	p.Milestones = append(p.Milestones, Milestone{Status: MilestoneStatusPending})
	assert.False(t, p.AllMilestonesCompleted())
}

func TestMonthLabel(t *testing.T) {
	jan := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "Jan", MonthLabel(jan))
	assert.Equal(t, "Dec", MonthLabel(dec))

	_, ok := ValidMonthLabels[MonthLabel(jan)]
	assert.True(t, ok)
}
