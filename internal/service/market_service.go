package service

import (
	"context"
	"fmt"
	"strings"

	"agrimarket/internal/marketerrors"
	"agrimarket/internal/model"
	"agrimarket/internal/notify"
	"agrimarket/internal/pricing"
)

type MarketService interface {
	GetPrice(ctx context.Context, crop string) (*MarketPrice, error)
	ListPrices(ctx context.Context) ([]MarketPrice, error)
	UpdatePrice(ctx context.Context, actor model.Actor, crop string, req *UpdatePriceRequest) (*MarketPrice, error)
}

type UpdatePriceRequest struct {
	PricePerQuintal float64 `json:"price_per_quintal" validate:"gt=0"`
	Trend           string  `json:"trend" validate:"omitempty,oneof=up down stable"`
	// NotifyPhone optionally receives an SMS about the change
	NotifyPhone string `json:"notify_phone" validate:"max=20"`
}

// MarketPrice adds the per-kg price to a reference row
type MarketPrice struct {
	pricing.PriceInfo
	PricePerKg float64 `json:"price_per_kg"`
}

func toMarketPrice(p pricing.PriceInfo) MarketPrice {
	return MarketPrice{PriceInfo: p, PricePerKg: p.PricePerKg()}
}

type marketService struct {
	book      pricing.PriceBook
	events    EventPublisher
	messenger *notify.Messenger
}

func NewMarketService(book pricing.PriceBook, events EventPublisher, messenger *notify.Messenger) MarketService {
	return &marketService{book: book, events: publisherOrNoop(events), messenger: messenger}
}

func (s *marketService) GetPrice(ctx context.Context, crop string) (*MarketPrice, error) {
	info, err := s.book.Get(ctx, crop)
	if err != nil {
		return nil, err
	}
	mp := toMarketPrice(info)
	return &mp, nil
}

func (s *marketService) ListPrices(ctx context.Context) ([]MarketPrice, error) {
	infos, err := s.book.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MarketPrice, 0, len(infos))
	for _, p := range infos {
		out = append(out, toMarketPrice(p))
	}
	return out, nil
}

func (s *marketService) UpdatePrice(ctx context.Context, actor model.Actor, crop string, req *UpdatePriceRequest) (*MarketPrice, error) {
	if !actor.Role.Can(model.CapMarketPriceUpdate) {
		return nil, marketerrors.ErrForbidden
	}
	crop = strings.TrimSpace(crop)
	if crop == "" {
		return nil, fmt.Errorf("%w: crop is required", marketerrors.ErrValidation)
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	info, err := s.book.Set(ctx, crop, req.PricePerQuintal, pricing.Trend(req.Trend))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", marketerrors.ErrStorage, err)
	}

	mp := toMarketPrice(info)
	s.events.Publish(EventPriceUpdated, mp)
	if req.NotifyPhone != "" {
		s.messenger.Notify(ctx, priceUpdatedMessage(info, actor.Name), notify.Recipient{Phone: req.NotifyPhone, Language: "en"})
	}
	return &mp, nil
}
