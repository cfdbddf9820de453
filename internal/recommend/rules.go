package recommend

// RuleConfidence is reported for every rule-based recommendation
const RuleConfidence = 0.90

// WaterBasedCrop picks a crop from water availability and temperature alone.
// Dry conditions (rainfall < 600 mm or humidity < 50%) favour drought-tolerant crops.
func WaterBasedCrop(rainfall, temperatureC, humidity float64) string {
	if rainfall < 600 || humidity < 50 {
		switch {
		case temperatureC > 30:
			return "millet"
		case temperatureC > 25:
			return "cotton"
		default:
			return "barley"
		}
	}
	switch {
	case temperatureC > 30:
		return "rice"
	case temperatureC > 25:
		return "maize"
	default:
		return "wheat"
	}
}

// Source records which path produced a recommendation
type Source string

const (
	SourceClassifier Source = "classifier"
	SourceRule       Source = "water_rule"
)

// Decision is the final crop choice with its reported confidence (0..1)
type Decision struct {
	Crop       string     `json:"crop"`
	Confidence float64    `json:"confidence"`
	Source     Source     `json:"source"`
	Prediction Prediction `json:"prediction"`
}

// Decide trusts the classifier at or above ConfidenceThreshold and otherwise
// falls back to WaterBasedCrop.
func Decide(c Classifier, f Features) (Decision, error) {
	pred, err := c.Predict(f)
	if err != nil {
		return Decision{}, err
	}
	if pred.Confidence() >= ConfidenceThreshold {
		return Decision{Crop: pred.Label, Confidence: pred.Confidence(), Source: SourceClassifier, Prediction: pred}, nil
	}
	return Decision{
		Crop:       WaterBasedCrop(f.Rainfall, f.TemperatureC, f.Humidity),
		Confidence: RuleConfidence,
		Source:     SourceRule,
		Prediction: pred,
	}, nil
}
