package lifecycle

import (
	"github.com/jwalitptl/citizen-api/internal/model"
)

// Edges per entity kind. Anything not listed is an invalid transition,
// PENDING -> COMPLETED included.
var (
	requestEdges = map[model.Status][]model.Status{
		model.StatusPending:    {model.StatusInProgress, model.StatusAccepted, model.StatusRejected},
		model.StatusInProgress: {model.StatusCompleted},
		model.StatusAccepted:   {model.StatusCompleted},
	}

	// Complaints have no rejection edge.
	complaintEdges = map[model.Status][]model.Status{
		model.StatusPending:    {model.StatusInProgress, model.StatusAccepted},
		model.StatusInProgress: {model.StatusCompleted},
		model.StatusAccepted:   {model.StatusCompleted},
	}
)

func edgesFor(kind model.EntityKind) map[model.Status][]model.Status {
	if kind == model.KindComplaint {
		return complaintEdges
	}
	return requestEdges
}

// Allowed reports whether from -> to is an edge for the entity kind.
func Allowed(kind model.EntityKind, from, to model.Status) bool {
	for _, next := range edgesFor(kind)[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable in one step.
func NextStatuses(kind model.EntityKind, from model.Status) []model.Status {
	next := edgesFor(kind)[from]
	out := make([]model.Status, len(next))
	copy(out, next)
	return out
}

// RequiresRemarks reports whether moving into status needs an explanation.
func RequiresRemarks(to model.Status) bool {
	return to == model.StatusRejected
}

// CanTransition is the single authorization predicate for status changes.
// Platform admins may act on anything; officers only on division-scoped
// entities of their own division; citizens never.
func CanTransition(actor model.Actor, subject model.Subject) bool {
	switch {
	case actor.IsPlatformAdmin():
		return true
	case actor.IsOfficer():
		return subject.Kind != model.KindComplaint &&
			subject.DivisionID != nil &&
			actor.ServesDivision(*subject.DivisionID)
	default:
		return false
	}
}

// CanRead reports whether actor may see subject: its owner, the staff allowed
// to transition it, or a platform admin.
func CanRead(actor model.Actor, subject model.Subject) bool {
	if actor.IsCitizen() && actor.UserID == subject.CitizenID {
		return true
	}
	return CanTransition(actor, subject)
}
