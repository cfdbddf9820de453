package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"agrimarket/internal/model"
	"agrimarket/internal/pricing"
	"agrimarket/internal/recommend"
)

func rupees(v float64) string {
	return "₹" + decimal.NewFromFloat(v).StringFixed(2)
}

func quantity(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func offerTotal(o *model.Offer) float64 {
	return model.TotalFor(o.OfferPrice, o.QuantityWanted)
}

func buyerSubmittedMessage(o *model.Offer, l *model.Listing) string {
	return fmt.Sprintf("Offer Submitted! You offered %s/kg for %skg of %s to farmer %s. Total: %s. You'll be notified when the farmer responds.",
		rupees(o.OfferPrice), quantity(o.QuantityWanted), l.CropName, l.FarmerName, rupees(offerTotal(o)))
}

func farmerSubmittedMessage(o *model.Offer, l *model.Listing, buyer *model.User) string {
	return fmt.Sprintf("New Offer Received! Buyer %s offered %s/kg for %skg of your %s (Total: %s). Buyer contact: %s. Login to respond.",
		buyer.Name, rupees(o.OfferPrice), quantity(o.QuantityWanted), l.CropName, rupees(offerTotal(o)), buyer.Phone)
}

func agentSubmittedMessage(o *model.Offer, l *model.Listing, buyer *model.User) string {
	return fmt.Sprintf("New Offer for Your Farmer! Buyer offered %s/kg for %skg of %s listed for farmer %s. Buyer: %s (%s). Total: %s",
		rupees(o.OfferPrice), quantity(o.QuantityWanted), l.CropName, l.FarmerName, buyer.Name, buyer.Phone, rupees(offerTotal(o)))
}

func acceptedMessage(o *model.Offer, l *model.Listing) string {
	return fmt.Sprintf("Good news! Your offer for %s kg of %s at %s/kg has been ACCEPTED by farmer %s. Contact: %s",
		quantity(o.QuantityWanted), o.CropName, rupees(o.OfferPrice), l.FarmerName, l.FarmerPhone)
}

func rejectedMessage(o *model.Offer) string {
	return fmt.Sprintf("Sorry, your offer for %s kg of %s at %s/kg has been DECLINED. Please check other listings or make a new offer.",
		quantity(o.QuantityWanted), o.CropName, rupees(o.OfferPrice))
}

func priceUpdatedMessage(p pricing.PriceInfo, by string) string {
	return fmt.Sprintf("Market Update: %s price is now %s/quintal (Trend: %s). Updated by %s.",
		titleCase(p.Crop), rupees(p.PricePerQuintal), p.Trend, by)
}

func recommendationMessage(location string, d recommend.Decision) string {
	return fmt.Sprintf("Smart Farming Assistant\n\nLocation: %s\nRecommended Crop: %s\nConfidence: %.1f%%\n\nGood luck with your farming!",
		location, titleCase(d.Crop), d.Confidence*100)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
