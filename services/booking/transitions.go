package booking

import "tourvia/models"

// Actor identifies who is requesting a transition.
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorAdmin    Actor = "admin"
	ActorSystem   Actor = "system"
)

// transitionRule is one row of the lifecycle table: who may request the
// transition and which guards apply before it is committed.
type transitionRule struct {
	actors          []Actor
	requiresReason  bool // non-empty cancel reason must accompany the request
	requiresSettled bool // a settled refund transfer must be reconciled first
}

func (r transitionRule) allows(actor Actor) bool {
	for _, a := range r.actors {
		if a == actor {
			return true
		}
	}
	return false
}

// transitionTable is the single source of truth for booking lifecycle
// legality. Every call site maps through this table; nothing re-derives
// legality locally.
var transitionTable = map[models.BookingStatus]map[models.BookingStatus]transitionRule{
	models.StatusPendingPayment: {
		// Payment confirmation arrives from the gateway callback only; a
		// customer can never assert their own payment.
		models.StatusPaid:           {actors: []Actor{ActorSystem}},
		models.StatusCancelled:      {actors: []Actor{ActorCustomer, ActorSystem}}, // nothing paid, no refund owed
		models.StatusOverduePayment: {actors: []Actor{ActorSystem}},                // timeLimit elapsed
	},
	models.StatusPendingConfirmation: {
		models.StatusPaid:          {actors: []Actor{ActorAdmin}},
		models.StatusCancelled:     {actors: []Actor{ActorAdmin}, requiresReason: true},
		models.StatusPendingRefund: {actors: []Actor{ActorCustomer}, requiresReason: true},
	},
	models.StatusPaid: {
		models.StatusCancelled:     {actors: []Actor{ActorAdmin}, requiresReason: true},
		models.StatusPendingRefund: {actors: []Actor{ActorCustomer}, requiresReason: true},
		models.StatusReviewed:      {actors: []Actor{ActorCustomer}},
	},
	models.StatusPendingRefund: {
		// Committed once the refund transfer is reconciled, automatically by
		// the poller or through the manual confirmation gate.
		models.StatusCancelled: {actors: []Actor{ActorAdmin, ActorCustomer}, requiresSettled: true},
	},
	models.StatusOverduePayment: {
		models.StatusCancelled: {actors: []Actor{ActorAdmin, ActorSystem}},
	},
}

// CanTransition reports whether the lifecycle table defines from -> to at all,
// regardless of actor.
func CanTransition(from, to models.BookingStatus) bool {
	_, ok := transitionTable[from][to]
	return ok
}

// ValidateTransition checks table legality, actor permission and the cancel
// reason guard. Reconciliation of settled transfers is checked separately by
// the status service since it requires the external ledger.
func ValidateTransition(from, to models.BookingStatus, actor Actor, reason string) error {
	rule, ok := transitionTable[from][to]
	if !ok {
		return &TransitionRejectedError{From: from, To: to}
	}
	if !rule.allows(actor) {
		return &TransitionRejectedError{From: from, To: to}
	}
	if rule.requiresReason && reason == "" {
		return NewValidationError("cancelReason", "a reason is required for this transition")
	}
	return nil
}

// transitionNeedsSettledTransfer reports whether committing from -> to is
// gated on a reconciled refund transfer.
func transitionNeedsSettledTransfer(from, to models.BookingStatus) bool {
	rule, ok := transitionTable[from][to]
	return ok && rule.requiresSettled
}

// legalSources returns every status from which `to` is reachable. Used to
// build the compare-and-set filter for the commit update.
func legalSources(to models.BookingStatus) []models.BookingStatus {
	var sources []models.BookingStatus
	for from, targets := range transitionTable {
		if _, ok := targets[to]; ok {
			sources = append(sources, from)
		}
	}
	return sources
}
