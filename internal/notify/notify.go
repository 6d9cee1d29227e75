// Package notify tells travelers about changes to their orders.
package notify

import (
	"context"

	"github.com/Domenick1991/airorders/internal/kafka"
	"go.uber.org/zap"
)

var subjects = map[string]string{
	"order.created":          "Your flight is booked",
	"order.hold_created":     "Your fare is on hold",
	"order.hold_extended":    "Your hold was extended",
	"order.hold_confirmed":   "Your held fare is paid",
	"order.hold_expired":     "Your hold has expired",
	"order.cancelled":        "Your order was cancelled",
	"order.changed":          "Your itinerary changed",
	"order.services_changed": "Your extras were updated",
}

// Sender delivers traveler notifications. Delivery is a structured log line
// until a mail provider is configured.
type Sender struct {
	logger *zap.Logger
}

func NewSender(logger *zap.Logger) *Sender {
	return &Sender{logger: logger}
}

// Subject returns the message title for an event type, "" when the event is not notified.
func Subject(eventType string) string {
	return subjects[eventType]
}

func (s *Sender) Send(ctx context.Context, event kafka.OrderEvent) error {
	subject := Subject(event.Type)
	if subject == "" {
		return nil
	}
	s.logger.Info("notify traveler",
		zap.String("user_id", event.UserID),
		zap.String("order_id", event.OrderID),
		zap.String("subject", subject),
		zap.String("status", event.Status),
		zap.String("total", event.TotalAmount+" "+event.TotalCurrency),
	)
	return nil
}
