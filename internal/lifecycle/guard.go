// Package lifecycle guards status-only changes made from the QR status page.
//
// The policy is strict: the only status-only change allowed is
// Approved -> Completed. Full record edits are not subject to this guard.
package lifecycle

import (
	"fmt"

	"asset-buyback-api/internal/model"
	"asset-buyback-api/pkg/validation"
)

// Reason explains why a status change was denied.
type Reason string

const (
	// ReasonNoChange means the target equals the current status.
	ReasonNoChange Reason = "no_change"
	// ReasonAlreadyCompleted means the asset has finished the buyback.
	ReasonAlreadyCompleted Reason = "already_completed"
	// ReasonUnsupportedTarget means the target is not reachable by a status-only change.
	ReasonUnsupportedTarget Reason = "unsupported_target"
	// ReasonNotApproved means the asset has not been approved yet.
	ReasonNotApproved Reason = "not_approved"
)

// TransitionDeniedError is returned when a status-only change is not allowed.
type TransitionDeniedError struct {
	From   model.BuybackStatus
	To     model.BuybackStatus
	Reason Reason
}

func (e *TransitionDeniedError) Error() string {
	switch e.Reason {
	case ReasonNoChange:
		return fmt.Sprintf("asset is already %s", e.From)
	case ReasonAlreadyCompleted:
		return "asset has already been completed"
	case ReasonUnsupportedTarget:
		return fmt.Sprintf("status cannot be changed to %s from the status page; only %s is allowed", e.To, model.StatusCompleted)
	case ReasonNotApproved:
		return fmt.Sprintf("asset must be %s before it can be marked as %s (current status: %s)", model.StatusApproved, model.StatusCompleted, e.From)
	}
	return fmt.Sprintf("status change from %s to %s is not allowed", e.From, e.To)
}

// IsNoOp distinguishes a same-status request from an unmet precondition.
func (e *TransitionDeniedError) IsNoOp() bool {
	return e.Reason == ReasonNoChange
}

// CheckStatusChange reports whether a status-only change from current to
// target is allowed. An unknown target yields a *validation.ValidationError,
// a disallowed change a *TransitionDeniedError.
func CheckStatusChange(current, target model.BuybackStatus) error {
	if !target.Valid() {
		verr := validation.NewValidationError()
		verr.Add(validation.FieldStatus, fmt.Sprintf("invalid status value %q", target))
		return verr
	}

	deny := func(reason Reason) error {
		return &TransitionDeniedError{From: current, To: target, Reason: reason}
	}

	switch {
	case target == current:
		return deny(ReasonNoChange)
	case current == model.StatusCompleted:
		return deny(ReasonAlreadyCompleted)
	case target != model.StatusCompleted:
		return deny(ReasonUnsupportedTarget)
	case current != model.StatusApproved:
		return deny(ReasonNotApproved)
	}
	return nil
}

// AllowedTargets lists the statuses a status-only change may move to from current.
func AllowedTargets(current model.BuybackStatus) []model.BuybackStatus {
	allowed := []model.BuybackStatus{}
	for _, target := range model.BuybackStatuses() {
		if CheckStatusChange(current, target) == nil {
			allowed = append(allowed, target)
		}
	}
	return allowed
}
