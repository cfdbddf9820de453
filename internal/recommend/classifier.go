// Package recommend suggests a crop from weather and soil readings.
package recommend

import (
	"errors"
	"math"
	"sort"
)

// ConfidenceThreshold is the minimum top-class probability trusted from a classifier
const ConfidenceThreshold = 0.90

var ErrNoModel = errors.New("classifier has no crop profiles")

// Features is the classifier input vector
type Features struct {
	TemperatureC float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	N            float64 `json:"n"`
	P            float64 `json:"p"`
	K            float64 `json:"k"`
	PH           float64 `json:"ph"`
	Rainfall     float64 `json:"rainfall"`
}

func (f Features) vector() [7]float64 {
	return [7]float64{f.TemperatureC, f.Humidity, f.N, f.P, f.K, f.PH, f.Rainfall}
}

// Prediction is a label plus the full probability vector
type Prediction struct {
	Label         string             `json:"label"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// Confidence returns the probability of the predicted label
func (p Prediction) Confidence() float64 {
	return p.Probabilities[p.Label]
}

type Classifier interface {
	Predict(f Features) (Prediction, error)
}

// CropProfile is a per-crop mean and spread for each feature
type CropProfile struct {
	Crop string
	Mean Features
	Std  Features
}

// GaussianClassifier is a naive Bayes classifier over fixed crop profiles
type GaussianClassifier struct {
	profiles []CropProfile
}

func NewGaussianClassifier(profiles []CropProfile) *GaussianClassifier {
	return &GaussianClassifier{profiles: profiles}
}

// NewDefaultClassifier uses the built-in profiles of ten common Indian crops
func NewDefaultClassifier() *GaussianClassifier {
	return NewGaussianClassifier(DefaultProfiles)
}

func (c *GaussianClassifier) Predict(f Features) (Prediction, error) {
	if len(c.profiles) == 0 {
		return Prediction{}, ErrNoModel
	}

	x := f.vector()
	logLik := make([]float64, len(c.profiles))
	for i, p := range c.profiles {
		mean, std := p.Mean.vector(), p.Std.vector()
		var ll float64
		for j := range x {
			s := std[j]
			if s <= 0 {
				s = 1e-3
			}
			z := (x[j] - mean[j]) / s
			ll += -0.5*z*z - math.Log(s)
		}
		logLik[i] = ll
	}

	// softmax with max subtraction for numerical stability
	maxLL := logLik[0]
	for _, ll := range logLik[1:] {
		maxLL = math.Max(maxLL, ll)
	}
	var sum float64
	for i := range logLik {
		logLik[i] = math.Exp(logLik[i] - maxLL)
		sum += logLik[i]
	}

	pred := Prediction{Probabilities: make(map[string]float64, len(c.profiles))}
	best := -1.0
	for i, p := range c.profiles {
		prob := logLik[i] / sum
		pred.Probabilities[p.Crop] = prob
		if prob > best {
			best = prob
			pred.Label = p.Crop
		}
	}
	return pred, nil
}

// Ranked returns crops ordered by descending probability
func (p Prediction) Ranked() []string {
	crops := make([]string, 0, len(p.Probabilities))
	for crop := range p.Probabilities {
		crops = append(crops, crop)
	}
	sort.Slice(crops, func(i, j int) bool {
		pi, pj := p.Probabilities[crops[i]], p.Probabilities[crops[j]]
		if pi != pj {
			return pi > pj
		}
		return crops[i] < crops[j]
	})
	return crops
}

// DefaultProfiles describe typical growing conditions per crop
var DefaultProfiles = []CropProfile{
	{"wheat", Features{20, 55, 80, 30, 40, 6.8, 500}, Features{3, 8, 15, 8, 10, 0.3, 100}},
	{"rice", Features{28, 85, 110, 40, 50, 6.2, 1500}, Features{2, 5, 20, 10, 12, 0.4, 200}},
	{"maize", Features{25, 70, 100, 60, 40, 6.5, 900}, Features{2, 8, 15, 12, 8, 0.3, 150}},
	{"cotton", Features{30, 65, 140, 35, 125, 6.8, 750}, Features{3, 10, 20, 8, 15, 0.4, 120}},
	{"sugarcane", Features{32, 80, 125, 40, 75, 6.8, 1250}, Features{2, 8, 18, 10, 12, 0.3, 180}},
	{"tomato", Features{24, 70, 100, 65, 75, 6.5, 600}, Features{3, 8, 15, 12, 10, 0.2, 100}},
	{"potato", Features{18, 80, 120, 60, 100, 6.0, 550}, Features{2, 8, 15, 10, 12, 0.3, 80}},
	{"onion", Features{23, 60, 80, 45, 60, 6.8, 800}, Features{2, 8, 12, 8, 10, 0.3, 100}},
	{"barley", Features{18, 55, 80, 35, 45, 6.8, 450}, Features{2, 8, 12, 8, 8, 0.3, 80}},
	{"millet", Features{35, 50, 60, 25, 35, 6.5, 300}, Features{2, 8, 10, 5, 8, 0.4, 50}},
}
