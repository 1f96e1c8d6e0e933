package invoice

// Status represents the lifecycle state of an invoice
type Status string

const (
	StatusPending       Status = "pending"
	StatusPaid          Status = "paid"
	StatusShipped       Status = "shipped"
	StatusDelivered     Status = "delivered"
	StatusCancelled     Status = "cancelled"
	StatusPaymentFailed Status = "payment_failed"
)

// Badge is the display category of a status in the consoles
type Badge string

const (
	BadgeWarning   Badge = "warning"
	BadgeInfo      Badge = "info"
	BadgePrimary   Badge = "primary"
	BadgeSuccess   Badge = "success"
	BadgeSecondary Badge = "secondary"
	BadgeDanger    Badge = "danger"
)

type statusInfo struct {
	label   string
	badge   Badge
	targets []Status
}

// statusTable is the single source of truth for the lifecycle.
// A status with no targets is terminal.
var statusTable = map[Status]statusInfo{
	StatusPending: {
		label:   "Pending",
		badge:   BadgeWarning,
		targets: []Status{StatusPaid, StatusCancelled, StatusPaymentFailed},
	},
	StatusPaid: {
		label:   "Paid",
		badge:   BadgeInfo,
		targets: []Status{StatusShipped, StatusCancelled},
	},
	StatusShipped: {
		label:   "Shipped",
		badge:   BadgePrimary,
		targets: []Status{StatusDelivered},
	},
	StatusDelivered: {
		label: "Delivered",
		badge: BadgeSuccess,
	},
	StatusCancelled: {
		label: "Cancelled",
		badge: BadgeSecondary,
	},
	StatusPaymentFailed: {
		label: "Payment failed",
		badge: BadgeDanger,
	},
}

// orderedStatuses fixes the display order of AllStatuses
var orderedStatuses = []Status{
	StatusPending,
	StatusPaid,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusPaymentFailed,
}

// AllStatuses returns every status in lifecycle order
func AllStatuses() []Status {
	out := make([]Status, len(orderedStatuses))
	copy(out, orderedStatuses)
	return out
}

// ParseStatus converts raw input, returning false for unknown values
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	return s, s.IsValid()
}

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	_, ok := statusTable[s]
	return ok
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range statusTable[s].targets {
		if t == target {
			return true
		}
	}
	return false
}

// AllowedTransitions lists the statuses reachable in one step
func (s Status) AllowedTransitions() []Status {
	targets := statusTable[s].targets
	out := make([]Status, len(targets))
	copy(out, targets)
	return out
}

// IsTerminal reports whether no transition leaves this status
func (s Status) IsTerminal() bool {
	return s.IsValid() && len(statusTable[s].targets) == 0
}

// Label is the English display text; unknown statuses render as their raw value
func (s Status) Label() string {
	if info, ok := statusTable[s]; ok {
		return info.label
	}
	return string(s)
}

// Badge is the display category; unknown statuses render as secondary
func (s Status) Badge() Badge {
	if info, ok := statusTable[s]; ok {
		return info.badge
	}
	return BadgeSecondary
}
