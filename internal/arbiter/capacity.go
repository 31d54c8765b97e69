// Package arbiter holds the pure admission decisions for RSVPs and resource
// bookings. Callers load the inputs, call a decision function and persist the
// result inside one transaction.
package arbiter

import (
	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
)

// Outcome is the tag of a decision
type Outcome string

const (
	OutcomeAccepted  Outcome = "ACCEPTED"
	OutcomeAllocated Outcome = "ALLOCATED"
	OutcomeRejected  Outcome = "REJECTED"
)

// RSVPRequest is everything the capacity decision needs
type RSVPRequest struct {
	Event         *domain.BaseEvent
	AcceptedCount int
	Requested     domain.RSVPStatus
	// Existing is the requester's current RSVP, nil when none
	Existing *domain.EventRSVP
}

// RSVPDecision is the result of DecideRSVP
type RSVPDecision struct {
	Outcome Outcome
	Reason  string
	// Reaffirmed is set when an ACCEPTED RSVP is re-sent against a full event
	Reaffirmed bool
	Capacity   int
	Accepted   int
}

// Granted reports whether the caller may upsert the RSVP
func (d RSVPDecision) Granted() bool {
	return d.Outcome == OutcomeAccepted
}

// Err returns the domain error behind a rejection, nil otherwise
func (d RSVPDecision) Err() error {
	switch d.Reason {
	case domain.ReasonEventNotApproved:
		return domain.ErrEventNotApproved
	case domain.ReasonEventFull:
		return &domain.EventFullError{Capacity: d.Capacity, Accepted: d.Accepted}
	}
	return nil
}

// DecideRSVP applies, in order: the event must be approved; an ACCEPTED
// request against a full event only passes when the requester is already
// ACCEPTED; everything else is accepted.
func DecideRSVP(req RSVPRequest) RSVPDecision {
	d := RSVPDecision{
		Capacity: req.Event.Capacity,
		Accepted: req.AcceptedCount,
	}

	if !req.Event.IsApproved {
		d.Outcome = OutcomeRejected
		d.Reason = domain.ReasonEventNotApproved
		return d
	}

	if req.Requested == domain.RSVPAccepted && req.AcceptedCount >= req.Event.Capacity {
		if req.Existing != nil && req.Existing.Status == domain.RSVPAccepted {
			d.Outcome = OutcomeAccepted
			d.Reaffirmed = true
			return d
		}
		d.Outcome = OutcomeRejected
		d.Reason = domain.ReasonEventFull
		return d
	}

	d.Outcome = OutcomeAccepted
	return d
}
