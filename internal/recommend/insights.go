package recommend

import "strings"

// CropInsight is agronomic guidance shown alongside a recommended crop
type CropInsight struct {
	Season        string   `json:"season"`
	Duration      string   `json:"duration"`
	ExpectedYield string   `json:"expected_yield"`
	BestPractices []string `json:"best_practices"`
}

var cropInsights = map[string]CropInsight{
	"wheat": {"Rabi (Winter)", "4-6 months", "25-30 quintals/hectare", []string{
		"Sow in November-December", "Ensure proper drainage", "Apply fertilizers in split doses", "Regular monitoring for pests"}},
	"rice": {"Kharif (Monsoon)", "3-4 months", "40-50 quintals/hectare", []string{
		"Transplant in June-July", "Maintain standing water", "Use certified seeds", "Apply organic matter"}},
	"maize": {"Kharif/Rabi", "3-4 months", "30-35 quintals/hectare", []string{
		"Plant with proper spacing", "Ensure good drainage", "Apply balanced fertilizers", "Regular weeding required"}},
	"cotton": {"Kharif", "5-6 months", "15-20 quintals/hectare", []string{
		"Plant in May-June", "Requires warm climate", "Deep ploughing essential", "Integrated pest management"}},
	"sugarcane": {"Year-round", "12-18 months", "80-100 tonnes/hectare", []string{
		"Plant healthy setts", "Ensure adequate water", "Regular earthing up", "Harvest at right maturity"}},
	"tomato": {"Rabi/Summer", "3-4 months", "25-30 tonnes/hectare", []string{
		"Use disease-resistant varieties", "Provide support to plants", "Regular pruning needed", "Maintain soil moisture"}},
	"potato": {"Rabi", "3-4 months", "20-25 tonnes/hectare", []string{
		"Plant in October-November", "Ensure cool weather", "Regular earthing up", "Proper storage essential"}},
	"onion": {"Rabi", "4-5 months", "15-20 tonnes/hectare", []string{
		"Transplant seedlings", "Avoid waterlogging", "Harvest when tops fall", "Proper curing needed"}},
	"barley": {"Rabi", "4-5 months", "20-25 quintals/hectare", []string{
		"Sow in November-December", "Requires less water than wheat", "Drought tolerant crop", "Harvest when golden"}},
	"millet": {"Kharif", "3-4 months", "10-15 quintals/hectare", []string{
		"Drought resistant crop", "Sow with first monsoon", "Minimal input required", "Suitable for dry lands"}},
}

// InsightsFor looks up guidance for crop, ignoring case and surrounding space
func InsightsFor(crop string) (CropInsight, bool) {
	in, ok := cropInsights[strings.ToLower(strings.TrimSpace(crop))]
	if !ok {
		return CropInsight{}, false
	}
	in.BestPractices = append([]string(nil), in.BestPractices...)
	return in, true
}
