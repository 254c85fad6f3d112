package approval_test

import (
	"testing"
	"time"

	"github.com/akunara/akunara_backend/internal/core/approval"
	"github.com/akunara/akunara_backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hours(h int) *int { return &h }

func action(order int, role string, status domain.ApprovalStatus, active bool) domain.ApprovalAction {
	return domain.ApprovalAction{
		ActionID: "act-" + role,
		Status:   status,
		IsActive: active,
		Step: domain.ApprovalStep{
			StepOrder:    order,
			ApproverRole: domain.Role(role),
		},
	}
}

func TestActiveStep_EmptyList(t *testing.T) {
	info := approval.ActiveStep(nil)
	assert.Equal(t, approval.StateNoWorkflow, info.State)
	assert.Equal(t, domain.RoleUnknown, info.Role)
	assert.Nil(t, info.Action)
}

func TestActiveStep_ActivePendingReturnsStepRole(t *testing.T) {
	actions := []domain.ApprovalAction{
		action(1, "finance", domain.ApprovalPending, true),
		action(2, "director", domain.ApprovalPending, false),
		action(3, "admin", domain.ApprovalPending, false),
	}

	info := approval.ActiveStep(actions)
	require.Equal(t, approval.StateActivePending, info.State)
	assert.Equal(t, domain.RoleFinance, info.Role)
	require.NotNil(t, info.Action)
	assert.Equal(t, "act-finance", info.Action.ActionID)
}

func TestActiveStep_NormalizesInconsistentCasing(t *testing.T) {
	actions := []domain.ApprovalAction{
		action(1, "  Finance ", domain.ApprovalPending, true),
	}

	info := approval.ActiveStep(actions)
	assert.Equal(t, domain.RoleFinance, info.Role)
}

func TestActiveStep_NextPendingWhenNothingActive(t *testing.T) {
	actions := []domain.ApprovalAction{
		action(1, "finance", domain.ApprovalApproved, false),
		action(2, "director", domain.ApprovalPending, false),
	}

	info := approval.ActiveStep(actions)
	assert.Equal(t, approval.StateNextPending, info.State)
	assert.Equal(t, domain.RoleDirector, info.Role)
	assert.Nil(t, info.Action)
}

func TestActiveStep_AllApproved(t *testing.T) {
	actions := []domain.ApprovalAction{
		action(1, "finance", domain.ApprovalApproved, false),
		action(2, "director", domain.ApprovalApproved, false),
	}

	info := approval.ActiveStep(actions)
	assert.Equal(t, approval.StateAllApproved, info.State)
	assert.Equal(t, domain.RoleUnknown, info.Role)
}

func TestActiveStep_SkippedOptionalStepStillCompletes(t *testing.T) {
	actions := []domain.ApprovalAction{
		action(1, "finance", domain.ApprovalApproved, false),
		action(2, "director", domain.ApprovalSkipped, false),
	}

	assert.Equal(t, approval.StateAllApproved, approval.ActiveStep(actions).State)
}

func TestActiveStep_RejectionIsTerminalForWholeRequest(t *testing.T) {
	// A rejection mid-sequence makes trailing pending steps moot, even
	// one that is still flagged active.
	actions := []domain.ApprovalAction{
		action(1, "finance", domain.ApprovalRejected, false),
		action(2, "director", domain.ApprovalPending, true),
	}

	info := approval.ActiveStep(actions)
	assert.Equal(t, approval.StateUnknown, info.State)
	assert.Equal(t, domain.RoleUnknown, info.Role)
}

func TestCanAct_AdminAlways(t *testing.T) {
	assert.True(t, approval.CanAct(nil, domain.RoleAdmin))

	actions := []domain.ApprovalAction{
		action(1, "finance", domain.ApprovalRejected, false),
	}
	assert.True(t, approval.CanAct(actions, domain.RoleAdmin))
	assert.True(t, approval.CanAct(actions, domain.Role("ADMIN ")))
}

func TestCanAct_RequiresExactRoleOnActiveStep(t *testing.T) {
	actions := []domain.ApprovalAction{
		action(1, "finance", domain.ApprovalPending, true),
		action(2, "director", domain.ApprovalPending, false),
		action(3, "admin", domain.ApprovalPending, false),
	}

	assert.True(t, approval.CanAct(actions, domain.RoleFinance))
	assert.False(t, approval.CanAct(actions, domain.RoleDirector))
	assert.False(t, approval.CanAct(actions, domain.RoleEmployee))
	assert.False(t, approval.CanAct(actions, domain.RoleUnknown))
}

func TestCanAct_InformationalStatesAreNotActionable(t *testing.T) {
	nextPending := []domain.ApprovalAction{
		action(1, "finance", domain.ApprovalApproved, false),
		action(2, "director", domain.ApprovalPending, false),
	}
	assert.False(t, approval.CanAct(nextPending, domain.RoleDirector))

	allApproved := []domain.ApprovalAction{
		action(1, "finance", domain.ApprovalApproved, false),
	}
	assert.False(t, approval.CanAct(allApproved, domain.RoleFinance))

	assert.False(t, approval.CanAct(nil, domain.RoleFinance))
}

func TestSLAStatus_Overdue(t *testing.T) {
	now := time.Now()
	activated := now.Add(-25 * time.Hour)

	a := action(1, "finance", domain.ApprovalPending, true)
	a.Step.TimeLimitHours = hours(24)
	a.ActivatedAt = &activated

	info, ok := approval.SLAStatus(a, now)
	require.True(t, ok)
	assert.True(t, info.IsOverdue)
	assert.Equal(t, activated.Add(24*time.Hour), info.DueAt)
	assert.Negative(t, info.Remaining)
}

func TestSLAStatus_WithinWindow(t *testing.T) {
	now := time.Now()
	activated := now.Add(-1 * time.Hour)

	a := action(1, "finance", domain.ApprovalPending, true)
	a.Step.TimeLimitHours = hours(24)
	a.ActivatedAt = &activated

	info, ok := approval.SLAStatus(a, now)
	require.True(t, ok)
	assert.False(t, info.IsOverdue)
	assert.Equal(t, 23*time.Hour, info.Remaining)
}

func TestSLAStatus_FallsBackToCreatedAt(t *testing.T) {
	now := time.Now()

	a := action(1, "finance", domain.ApprovalPending, true)
	a.Step.TimeLimitHours = hours(24)
	a.CreatedAt = now.Add(-30 * time.Hour)

	info, ok := approval.SLAStatus(a, now)
	require.True(t, ok)
	assert.True(t, info.IsOverdue)
}

func TestSLAStatus_NoLimitOrNoReference(t *testing.T) {
	a := action(1, "finance", domain.ApprovalPending, true)
	_, ok := approval.SLAStatus(a, time.Now())
	assert.False(t, ok)

	a.Step.TimeLimitHours = hours(24)
	_, ok = approval.SLAStatus(a, time.Now())
	assert.False(t, ok, "no activation or creation timestamp to anchor the window")

	zero := 0
	a.Step.TimeLimitHours = &zero
	_, ok = approval.SLAStatus(a, time.Now())
	assert.False(t, ok)
}

func TestNormalizeRole_FailsClosed(t *testing.T) {
	assert.Equal(t, domain.RoleAdmin, domain.NormalizeRole("ADMIN"))
	assert.Equal(t, domain.RoleFinance, domain.NormalizeRole(" Finance "))
	assert.Equal(t, domain.RoleEmployee, domain.NormalizeRole("staff"))
	assert.Equal(t, domain.RoleUnknown, domain.NormalizeRole("superuser"))
	assert.Equal(t, domain.RoleUnknown, domain.NormalizeRole(""))
}

func TestRoleCovers(t *testing.T) {
	assert.True(t, domain.RoleAdmin.Covers(domain.RoleFinance))
	assert.True(t, domain.RoleDirector.Covers(domain.RoleFinance))
	assert.True(t, domain.RoleDirector.Covers(domain.RoleDirector))
	assert.False(t, domain.RoleFinance.Covers(domain.RoleDirector))
	assert.False(t, domain.RoleUnknown.Covers(domain.RoleUnknown))
	assert.True(t, domain.RoleAdmin.Covers(domain.RoleUnknown))
}
