package domain

// OrderStatus captures the lifecycle of an order in the storefront.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusPaid       OrderStatus = "paid"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

// AllStatuses lists every status the system recognizes.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusPaid,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusRefunded,
}

// statusTransitions defines the valid lifecycle transitions. The key is the
// current status, the value the set of statuses directly reachable from it.
// Cancelled and refunded have no outgoing transitions.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusPaid, StatusCancelled},
	StatusPaid:       {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusRefunded},
	StatusDelivered:  {StatusRefunded},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

// ProgressSequence is the ordered list of non-error statuses used to infer
// which steps of a progress view are complete when no history is available.
var ProgressSequence = []OrderStatus{
	StatusPending,
	StatusPaid,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
}

// ValidTransition reports whether an order may move from one status to
// another. Reflexive transitions are invalid, as is any transition out of a
// terminal status.
func ValidTransition(from, to OrderStatus) bool {
	allowed, ok := statusTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s OrderStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// IsError reports whether the status represents a failed outcome.
func (s OrderStatus) IsError() bool {
	return s == StatusCancelled || s == StatusRefunded
}

// IsActive reports whether the order is still moving through fulfilment.
func (s OrderStatus) IsActive() bool {
	switch s {
	case StatusPending, StatusPaid, StatusProcessing, StatusShipped:
		return true
	default:
		return false
	}
}

// IsValid reports whether the status is one of the known values.
func (s OrderStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// ShouldShowAsComplete decides whether a progress-view step for the given
// status renders as reached, for an order currently in current. History, when
// provided, always wins: a recorded status is complete no matter what the
// sequence says. Without history a cancelled or refunded order only marks its
// own step, since there is no trail of which earlier steps it passed through.
func ShouldShowAsComplete(status, current OrderStatus, history []StatusHistoryEntry) bool {
	for _, entry := range history {
		if entry.Status == status {
			return true
		}
	}

	if status.IsError() && status == current {
		return true
	}

	if status == StatusDelivered && current == StatusDelivered {
		return true
	}

	statusIdx := sequenceIndex(status)
	currentIdx := sequenceIndex(current)
	if statusIdx < 0 || currentIdx < 0 {
		return false
	}
	return statusIdx < currentIdx
}

func sequenceIndex(s OrderStatus) int {
	for i, step := range ProgressSequence {
		if step == s {
			return i
		}
	}
	return -1
}
