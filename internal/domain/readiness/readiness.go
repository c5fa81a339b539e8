// Package readiness decides when the decision matrix may be shown for an
// RFQ, so buyers do not anchor on a ranking built from too few proposals.
//
// Rules are evaluated in a fixed priority order and the first match wins:
//
//  1. exactly one invited supplier: Hidden, permanently
//  2. already Visible: Visible (the state never goes back)
//  3. buyer override ("proceed now"): Visible
//  4. every invited supplier responded and at least two proposals: Visible
//  5. deadline passed and at least two proposals: Visible
//  6. no deadline and at least two proposals: Visible
//  7. otherwise Hidden
package readiness

import (
	"fmt"
	"time"
)

// MinProposals is the smallest proposal count worth ranking.
const MinProposals = 2

// State is the visibility of the decision matrix.
type State int

// Matrix states.
const (
	Hidden State = iota
	Visible
)

// String returns the state name.
func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

// MarshalText encodes the state name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "hidden":
		*s = Hidden
	case "visible":
		*s = Visible
	default:
		return fmt.Errorf("unknown matrix state %q", b)
	}
	return nil
}

// Reason names the rule that produced a decision.
type Reason string

// Decision reasons, one per rule.
const (
	ReasonSingleSupplier    Reason = "single_supplier"
	ReasonAlreadyVisible    Reason = "already_visible"
	ReasonManualOverride    Reason = "manual_override"
	ReasonAllResponded      Reason = "all_responded"
	ReasonDeadlinePassed    Reason = "deadline_passed"
	ReasonNoDeadline        Reason = "no_deadline"
	ReasonAwaitingProposals Reason = "awaiting_proposals"
	ReasonAwaitingDeadline  Reason = "awaiting_deadline"
)

// Input is everything the state machine looks at. Now is explicit so
// decisions are reproducible.
type Input struct {
	Previous         State
	ProposalsCount   int
	InvitedSuppliers int
	// RespondedInvited counts the distinct invited suppliers that have
	// submitted. Nil means every proposal came from an invited supplier.
	RespondedInvited *int
	Deadline         *time.Time
	ManualOverride   bool
	Now              time.Time
}

// Decision is the resulting state and the rule that fired.
type Decision struct {
	State  State  `json:"state"`
	Reason Reason `json:"reason"`
}

// Visible reports whether the matrix may be shown.
func (d Decision) Visible() bool { return d.State == Visible }

type rule struct {
	reason Reason
	state  State
	match  func(in *Input) bool
}

// rules is the explicit priority list; order matters.
var rules = []rule{ //nolint:gochecknoglobals // immutable rule table
	{ReasonSingleSupplier, Hidden, func(in *Input) bool { return in.InvitedSuppliers == 1 }},
	{ReasonAlreadyVisible, Visible, func(in *Input) bool { return in.Previous == Visible }},
	{ReasonManualOverride, Visible, func(in *Input) bool { return in.ManualOverride }},
	{ReasonAllResponded, Visible, func(in *Input) bool {
		return in.ProposalsCount >= MinProposals && in.responded() >= in.InvitedSuppliers
	}},
	{ReasonDeadlinePassed, Visible, func(in *Input) bool {
		return in.ProposalsCount >= MinProposals && in.Deadline != nil && in.Now.After(*in.Deadline)
	}},
	{ReasonNoDeadline, Visible, func(in *Input) bool {
		return in.ProposalsCount >= MinProposals && in.Deadline == nil
	}},
}

func (in *Input) responded() int {
	if in.RespondedInvited != nil {
		return *in.RespondedInvited
	}
	return in.ProposalsCount
}

// Evaluate applies the rules in priority order.
func Evaluate(in Input) Decision { //nolint:gocritic // hugeParam: value semantics are the contract
	for _, r := range rules {
		if r.match(&in) {
			return Decision{State: r.state, Reason: r.reason}
		}
	}
	if in.ProposalsCount < MinProposals {
		return Decision{State: Hidden, Reason: ReasonAwaitingProposals}
	}
	return Decision{State: Hidden, Reason: ReasonAwaitingDeadline}
}

// ComputeVisibility is the stateless form of Evaluate for a matrix that has
// not been shown before.
func ComputeVisibility(proposalsCount, invitedSuppliers int, deadline *time.Time, manualOverride bool, now time.Time) bool {
	return Evaluate(Input{
		ProposalsCount:   proposalsCount,
		InvitedSuppliers: invitedSuppliers,
		Deadline:         deadline,
		ManualOverride:   manualOverride,
		Now:              now,
	}).Visible()
}
