package notify

import (
	"encoding/json"
	"fmt"

	"github.com/quietbay/daybook/internal/platform/mailer"
	"github.com/quietbay/daybook/pkg/config"
	"github.com/quietbay/daybook/pkg/events"
	"github.com/quietbay/daybook/pkg/logger"
)

const queueGroup = "notify"

// Consumer turns booking lifecycle events into outgoing email. Instances in
// the same queue group share the subscription, so only one sends per event.
type Consumer struct {
	bus    events.Subscriber
	mailer mailer.Service
	config *config.Config
}

func NewConsumer(bus events.Subscriber, m mailer.Service, cfg *config.Config) *Consumer {
	return &Consumer{bus: bus, mailer: m, config: cfg}
}

func (c *Consumer) Start() error {
	if err := c.bus.QueueSubscribe(events.BookingCreated, queueGroup, c.onCreated); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", events.BookingCreated, err)
	}
	if err := c.bus.QueueSubscribe(events.BookingConfirmed, queueGroup, c.onConfirmed); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", events.BookingConfirmed, err)
	}
	if err := c.bus.QueueSubscribe(events.BookingCancelled, queueGroup, c.onCancelled); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", events.BookingCancelled, err)
	}
	logger.Info("Notify consumer subscribed",
		"subjects", []string{events.BookingCreated, events.BookingConfirmed, events.BookingCancelled},
		"queue", queueGroup,
	)
	return nil
}

func (c *Consumer) onCreated(msg *events.Message) {
	var evt events.BookingCreatedEvent
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		logger.Error("Failed to decode booking.created event", "error", err)
		return
	}

	link := fmt.Sprintf("%s?token=%s", c.config.Booking.ConfirmBaseURL, evt.ConfirmToken)
	if err := c.mailer.SendConfirmationLink(evt.Email, evt.Name, evt.Date, link, evt.TokenExpiresAt); err != nil {
		logger.Error("Failed to send confirmation email",
			"booking_id", evt.BookingID,
			"error", err,
		)
		return
	}
	logger.Info("Confirmation email sent", "booking_id", evt.BookingID, "date", evt.Date)
}

func (c *Consumer) onConfirmed(msg *events.Message) {
	var evt events.BookingConfirmedEvent
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		logger.Error("Failed to decode booking.confirmed event", "error", err)
		return
	}

	if err := c.mailer.SendReceipt(evt.Email, evt.Name, evt.Date); err != nil {
		logger.Error("Failed to send receipt email",
			"booking_id", evt.BookingID,
			"error", err,
		)
		return
	}
	logger.Info("Receipt email sent", "booking_id", evt.BookingID, "date", evt.Date)
}

func (c *Consumer) onCancelled(msg *events.Message) {
	var evt events.BookingCancelledEvent
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		logger.Error("Failed to decode booking.cancelled event", "error", err)
		return
	}

	if err := c.mailer.SendCancelled(evt.Email, evt.Date); err != nil {
		logger.Error("Failed to send cancellation email",
			"booking_id", evt.BookingID,
			"error", err,
		)
		return
	}
	logger.Info("Cancellation email sent", "booking_id", evt.BookingID, "date", evt.Date)
}
