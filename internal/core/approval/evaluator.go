// Package approval derives workflow state from an ordered list of
// approval actions. Every function here is a pure computation over the
// snapshot it is handed: no I/O, no caching, so callers can re-evaluate
// freely (e.g. on every SLA refresh tick) against the latest fetched
// actions. The backend remains the sole arbiter of transition legality;
// these results are optimistic pre-checks and display state.
package approval

import (
	"time"

	"github.com/akunara/akunara_backend/internal/core/domain"
)

// StepState classifies the workflow position derived from an action list.
type StepState string

const (
	// StateNoWorkflow means there are no actions at all.
	StateNoWorkflow StepState = "NO_WORKFLOW"
	// StateActivePending means exactly the active step awaits action.
	StateActivePending StepState = "ACTIVE_PENDING"
	// StateNextPending means no step is active yet but a pending step
	// exists; informational only, nobody may act on it.
	StateNextPending StepState = "NEXT_PENDING"
	// StateAllApproved means every step reached a terminal approved state.
	StateAllApproved StepState = "ALL_APPROVED"
	// StateUnknown covers rejected or inconsistent lists. Callers must
	// treat it as non-actionable rather than guess.
	StateUnknown StepState = "UNKNOWN"
)

// ActiveStepInfo is the evaluator's answer: which step is actionable, by
// which role, and in which overall state the workflow sits.
type ActiveStepInfo struct {
	State  StepState
	Role   domain.Role
	Action *domain.ApprovalAction // The active action when State is ACTIVE_PENDING
}

// ActiveStep determines the currently relevant step from the full action
// list of one request, in step order. A REJECTED action anywhere is
// terminal for the whole request: trailing pending steps are moot and the
// result degrades to StateUnknown so callers disable all actions.
func ActiveStep(actions []domain.ApprovalAction) ActiveStepInfo {
	if len(actions) == 0 {
		return ActiveStepInfo{State: StateNoWorkflow, Role: domain.RoleUnknown}
	}

	allApproved := true
	for i := range actions {
		switch actions[i].Status {
		case domain.ApprovalRejected:
			return ActiveStepInfo{State: StateUnknown, Role: domain.RoleUnknown}
		case domain.ApprovalApproved, domain.ApprovalSkipped:
			// terminal, keep scanning
		default:
			allApproved = false
		}
	}

	for i := range actions {
		a := &actions[i]
		if a.IsActive && a.Status == domain.ApprovalPending {
			return ActiveStepInfo{
				State:  StateActivePending,
				Role:   domain.NormalizeRole(string(a.Step.ApproverRole)),
				Action: a,
			}
		}
	}

	// Sequential workflow that has not activated its next step yet.
	for i := range actions {
		if actions[i].Status == domain.ApprovalPending {
			return ActiveStepInfo{
				State: StateNextPending,
				Role:  domain.NormalizeRole(string(actions[i].Step.ApproverRole)),
			}
		}
	}

	if allApproved {
		return ActiveStepInfo{State: StateAllApproved, Role: domain.RoleUnknown}
	}
	return ActiveStepInfo{State: StateUnknown, Role: domain.RoleUnknown}
}

// CanAct reports whether an actor with the given role may act on the
// request right now. Admin always may (administrative override); any
// other role only when the active step is pending and requires exactly
// that role. Informational states (NEXT_PENDING, ALL_APPROVED,
// NO_WORKFLOW, UNKNOWN) are never actionable.
func CanAct(actions []domain.ApprovalAction, actorRole domain.Role) bool {
	role := domain.NormalizeRole(string(actorRole))
	if role == domain.RoleAdmin {
		return true
	}
	if role == domain.RoleUnknown {
		return false
	}
	info := ActiveStep(actions)
	return info.State == StateActivePending && info.Role == role
}

// SLAInfo is the due-time status of one active step. Display data only;
// it never changes workflow state.
type SLAInfo struct {
	DueAt     time.Time
	Remaining time.Duration // Negative once overdue
	IsOverdue bool
}

// SLAStatus computes the SLA window for an action against the supplied
// clock. It returns false when the step carries no time limit or no
// usable reference timestamp; the evaluator never invents a deadline
// from defaults it was not given.
func SLAStatus(action domain.ApprovalAction, now time.Time) (SLAInfo, bool) {
	if action.Step.TimeLimitHours == nil || *action.Step.TimeLimitHours <= 0 {
		return SLAInfo{}, false
	}

	ref := action.ActivatedAt
	if ref == nil {
		if action.CreatedAt.IsZero() {
			return SLAInfo{}, false
		}
		ref = &action.CreatedAt
	}

	dueAt := ref.Add(time.Duration(*action.Step.TimeLimitHours) * time.Hour)
	return SLAInfo{
		DueAt:     dueAt,
		Remaining: dueAt.Sub(now),
		IsOverdue: now.After(dueAt),
	}, true
}
