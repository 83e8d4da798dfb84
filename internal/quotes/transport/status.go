package transport

// QuoteStatus defines the lifecycle status of a quote
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "DRAFT"
	QuoteStatusSent     QuoteStatus = "SENT"
	QuoteStatusAccepted QuoteStatus = "ACCEPTED"
	QuoteStatusPaid     QuoteStatus = "PAID"
	QuoteStatusRejected QuoteStatus = "REJECTED"
	QuoteStatusExpired  QuoteStatus = "EXPIRED"
)

var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusDraft:    {QuoteStatusSent},
	QuoteStatusSent:     {QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired},
	QuoteStatusAccepted: {QuoteStatusPaid},
}

// IsValid reports whether s is a known status.
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusPaid, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

// IsTerminal returns true for statuses that admit no further transition.
func (s QuoteStatus) IsTerminal() bool {
	return s == QuoteStatusPaid || s == QuoteStatusRejected || s == QuoteStatusExpired
}

// CanTransitionTo reports whether moving from s to next is allowed.
// SENT→SENT is a resend.
func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	for _, allowed := range quoteTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s QuoteStatus) String() string {
	return string(s)
}
