package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agrimarket/internal/marketerrors"
	"agrimarket/internal/notify"
	"agrimarket/internal/pricing"
	"agrimarket/internal/recommend"
	"agrimarket/internal/weather"
)

type RecommendationService interface {
	Recommend(ctx context.Context, req *RecommendRequest) (*Recommendation, error)
	NotificationStatus(ctx context.Context, id string) (notify.Receipt, error)
}

// SoilInput overrides the location's soil defaults
type SoilInput struct {
	N  float64 `json:"n" validate:"gte=0,lte=300"`
	P  float64 `json:"p" validate:"gte=0,lte=300"`
	K  float64 `json:"k" validate:"gte=0,lte=300"`
	PH float64 `json:"ph" validate:"gte=3,lte=10"`
}

type RecommendRequest struct {
	Location    string     `json:"location" validate:"required,max=255"`
	Soil        *SoilInput `json:"soil" validate:"omitempty"`
	NotifyPhone string     `json:"notify_phone" validate:"max=20"`
	Language    string     `json:"language" validate:"language"`
}

type Recommendation struct {
	Location       string                 `json:"location"`
	Weather        weather.Conditions     `json:"weather"`
	Soil           recommend.Soil         `json:"soil"`
	Crop           string                 `json:"recommended_crop"`
	Confidence     float64                `json:"confidence"` // percent
	Source         recommend.Source       `json:"source"`
	Alternatives   []string               `json:"alternatives"`
	MarketPrice    *MarketPrice           `json:"market_price,omitempty"`
	Insights       *recommend.CropInsight `json:"insights,omitempty"`
	NotificationID string                 `json:"notification_id,omitempty"`
}

type recommendationService struct {
	weather    weather.Provider
	classifier recommend.Classifier
	book       pricing.PriceBook
	messenger  *notify.Messenger
	timeout    time.Duration
}

func NewRecommendationService(w weather.Provider, c recommend.Classifier, book pricing.PriceBook, messenger *notify.Messenger, timeout time.Duration) RecommendationService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &recommendationService{weather: w, classifier: c, book: book, messenger: messenger, timeout: timeout}
}

func (s *recommendationService) Recommend(ctx context.Context, req *RecommendRequest) (*Recommendation, error) {
	req.Location = strings.TrimSpace(req.Location)
	if err := validate(req); err != nil {
		return nil, err
	}

	wctx, cancel := context.WithTimeout(ctx, s.timeout)
	conditions, err := s.weather.Current(wctx, req.Location)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", marketerrors.ErrRecommendationUnavailable, err)
	}

	soil := recommend.SoilFor(req.Location)
	if req.Soil != nil {
		soil.N, soil.P, soil.K, soil.PH = req.Soil.N, req.Soil.P, req.Soil.K, req.Soil.PH
		soil.Rainfall = recommend.ManualSoilRainfall
	}

	decision, err := recommend.Decide(s.classifier, soil.Features(conditions.TemperatureC, conditions.Humidity))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", marketerrors.ErrRecommendationUnavailable, err)
	}

	out := &Recommendation{
		Location:   req.Location,
		Weather:    conditions,
		Soil:       soil,
		Crop:       decision.Crop,
		Confidence: decision.Confidence * 100,
		Source:     decision.Source,
	}
	for _, crop := range decision.Prediction.Ranked() {
		if crop != decision.Crop && len(out.Alternatives) < 3 {
			out.Alternatives = append(out.Alternatives, crop)
		}
	}

	if in, ok := recommend.InsightsFor(decision.Crop); ok {
		out.Insights = &in
	}

	if s.book != nil {
		if info, err := s.book.Get(ctx, decision.Crop); err == nil {
			mp := toMarketPrice(info)
			out.MarketPrice = &mp
		}
	}

	if req.NotifyPhone != "" {
		receipts := s.messenger.Notify(ctx, recommendationMessage(req.Location, decision),
			notify.Recipient{Phone: req.NotifyPhone, Language: req.Language})
		if len(receipts) > 0 {
			out.NotificationID = receipts[0].ID
		}
	}
	return out, nil
}

func (s *recommendationService) NotificationStatus(ctx context.Context, id string) (notify.Receipt, error) {
	r, err := s.messenger.Status(ctx, id)
	if err != nil {
		return notify.Receipt{}, marketerrors.ErrNotFound
	}
	return r, nil
}
