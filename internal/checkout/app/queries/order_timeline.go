package queries

import (
	"context"
	"time"

	"github.com/mercato/storefront/internal/checkout/domain"
	"github.com/mercato/storefront/internal/checkout/ports"
)

// TimelineStep is one row of an order's progress view.
type TimelineStep struct {
	Status    domain.OrderStatus `json:"status"`
	Complete  bool               `json:"complete"`
	Current   bool               `json:"current"`
	Timestamp *time.Time         `json:"timestamp,omitempty"`
	Note      string             `json:"note,omitempty"`
}

// OrderTimelineQuery requests the progress view for one order.
type OrderTimelineQuery struct {
	OrderID string
}

func (q OrderTimelineQuery) Validate() error {
	return GetOrderQuery{OrderID: q.OrderID}.Validate()
}

// OrderTimelineQueryHandler derives the progress view from the order's
// status, history, and the fixed display sequence.
type OrderTimelineQueryHandler struct {
	repo ports.OrderRepository
}

func NewOrderTimelineQueryHandler(repo ports.OrderRepository) *OrderTimelineQueryHandler {
	return &OrderTimelineQueryHandler{repo: repo}
}

// Handle returns one step per status in the display sequence, plus a trailing
// step when the order ended in cancelled or refunded.
func (h *OrderTimelineQueryHandler) Handle(ctx context.Context, query OrderTimelineQuery) ([]TimelineStep, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	order, err := h.repo.GetByID(ctx, query.OrderID)
	if err != nil {
		return nil, err
	}

	statuses := domain.ProgressSequence
	if order.Status.IsError() {
		statuses = append(append([]domain.OrderStatus{}, statuses...), order.Status)
	}

	steps := make([]TimelineStep, 0, len(statuses))
	for _, status := range statuses {
		step := TimelineStep{
			Status:   status,
			Complete: domain.ShouldShowAsComplete(status, order.Status, order.StatusHistory),
			Current:  status == order.Status,
		}
		if entry := lastHistoryEntry(order.StatusHistory, status); entry != nil {
			ts := entry.Timestamp
			step.Timestamp = &ts
			step.Note = entry.Note
		}
		steps = append(steps, step)
	}

	return steps, nil
}

func lastHistoryEntry(history []domain.StatusHistoryEntry, status domain.OrderStatus) *domain.StatusHistoryEntry {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Status == status {
			return &history[i]
		}
	}
	return nil
}
