package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to IssueStatus
		allowed  bool
	}{
		{IssueStatusOpen, IssueStatusEscalated, true},
		{IssueStatusOpen, IssueStatusResolved, true},
		{IssueStatusEscalated, IssueStatusEscalated, true},
		{IssueStatusEscalated, IssueStatusResolved, true},
		{IssueStatusEscalated, IssueStatusOpen, false},
		{IssueStatusResolved, IssueStatusEscalated, false},
		{IssueStatusResolved, IssueStatusResolved, false},
		{IssueStatusResolved, IssueStatusOpen, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, IssueStatusResolved.IsTerminal())
	assert.False(t, IssueStatusOpen.IsTerminal())
	assert.False(t, IssueStatusEscalated.IsTerminal())
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, IssuePriorityHigh.Valid())
	assert.False(t, IssuePriority("URGENT").Valid())
	assert.True(t, IssueSourceGemba.Valid())
	assert.False(t, IssueSource("email").Valid())
	assert.True(t, ValidLevel(1))
	assert.True(t, ValidLevel(4))
	assert.False(t, ValidLevel(0))
	assert.False(t, ValidLevel(5))
	assert.True(t, ReportCategoryBreakdown.Valid())
	assert.False(t, ReportType("weekly").Valid())
}
