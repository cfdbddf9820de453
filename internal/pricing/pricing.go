// Package pricing stores reference market prices keyed by crop name.
package pricing

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"agrimarket/internal/marketerrors"
)

const (
	UnitQuintal  = "quintal"
	kgPerQuintal = 100
	dateLayout   = "2006-01-02"
)

// Trend describes the recent direction of a price
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// PriceInfo is one row of the reference table. Prices are per quintal.
type PriceInfo struct {
	Crop            string  `json:"crop"`
	PricePerQuintal float64 `json:"price_per_quintal"`
	Unit            string  `json:"unit"`
	Trend           Trend   `json:"trend"`
	LastUpdated     string  `json:"last_updated"`
}

// PricePerKg converts the quintal price to a per-kg price
func (p PriceInfo) PricePerKg() float64 {
	return decimal.NewFromFloat(p.PricePerQuintal).
		Div(decimal.NewFromInt(kgPerQuintal)).
		Round(2).
		InexactFloat64()
}

// PriceBook is a read/write reference price table. Crop lookups are case-insensitive.
type PriceBook interface {
	Get(ctx context.Context, crop string) (PriceInfo, error)
	Set(ctx context.Context, crop string, pricePerQuintal float64, trend Trend) (PriceInfo, error)
	List(ctx context.Context) ([]PriceInfo, error)
	Close() error
}

// ErrNotFound is returned by Get for an unknown crop
var ErrNotFound = marketerrors.ErrPriceNotFound

func normalize(crop string) string {
	return strings.ToLower(strings.TrimSpace(crop))
}

func newInfo(crop string, price float64, trend Trend, now time.Time) PriceInfo {
	if trend == "" {
		trend = TrendStable
	}
	return PriceInfo{
		Crop:            normalize(crop),
		PricePerQuintal: price,
		Unit:            UnitQuintal,
		Trend:           trend,
		LastUpdated:     now.Format(dateLayout),
	}
}

// DefaultPrices seed an empty book
var DefaultPrices = []PriceInfo{
	{Crop: "wheat", PricePerQuintal: 2275, Unit: UnitQuintal, Trend: TrendStable},
	{Crop: "rice", PricePerQuintal: 2183, Unit: UnitQuintal, Trend: TrendUp},
	{Crop: "maize", PricePerQuintal: 2090, Unit: UnitQuintal, Trend: TrendStable},
	{Crop: "cotton", PricePerQuintal: 6620, Unit: UnitQuintal, Trend: TrendUp},
	{Crop: "sugarcane", PricePerQuintal: 315, Unit: UnitQuintal, Trend: TrendStable},
	{Crop: "tomato", PricePerQuintal: 1500, Unit: UnitQuintal, Trend: TrendDown},
	{Crop: "potato", PricePerQuintal: 1200, Unit: UnitQuintal, Trend: TrendStable},
	{Crop: "onion", PricePerQuintal: 1800, Unit: UnitQuintal, Trend: TrendUp},
	{Crop: "barley", PricePerQuintal: 1735, Unit: UnitQuintal, Trend: TrendStable},
	{Crop: "millet", PricePerQuintal: 2500, Unit: UnitQuintal, Trend: TrendUp},
}

// SeedDefaults fills an empty book with DefaultPrices
func SeedDefaults(ctx context.Context, book PriceBook) error {
	existing, err := book.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, p := range DefaultPrices {
		if _, err := book.Set(ctx, p.Crop, p.PricePerQuintal, p.Trend); err != nil {
			return err
		}
	}
	return nil
}
