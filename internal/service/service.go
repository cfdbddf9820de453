package service

import (
	"fmt"

	"agrimarket/internal/marketerrors"
	"agrimarket/pkg/validator"
)

// EventPublisher pushes realtime marketplace events (implemented by ws.Hub)
type EventPublisher interface {
	Publish(eventType string, payload any)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, any) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

// validate runs struct tag validation and wraps failures in ErrValidation
func validate(req any) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", marketerrors.ErrValidation, validator.Summary(errs))
	}
	return nil
}

// Realtime event types
const (
	EventListingCreated = "listing_created"
	EventListingStatus  = "listing_status_changed"
	EventOfferSubmitted = "offer_submitted"
	EventOfferAccepted  = "offer_accepted"
	EventOfferRejected  = "offer_rejected"
	EventOfferCancelled = "offer_cancelled"
	EventPriceUpdated   = "market_price_updated"
	EventUserStatus     = "user_status_update"
)
