package recommend

import "strings"

// Soil describes nutrient levels and climate defaults for a place
type Soil struct {
	N             float64 `json:"n"`
	P             float64 `json:"p"`
	K             float64 `json:"k"`
	PH            float64 `json:"ph"`
	Rainfall      float64 `json:"rainfall"`
	SoilType      string  `json:"soil_type"`
	OrganicMatter float64 `json:"organic_matter"`
	Drainage      string  `json:"drainage"`
}

// ManualSoilRainfall is assumed when the caller supplies soil nutrients without rainfall
const ManualSoilRainfall = 800

type citySoil struct {
	city string
	soil Soil
}

// Ordered so that the first substring match wins.
var citySoils = []citySoil{
	{"mumbai", Soil{85, 45, 65, 6.5, 2200, "Clayey", 3.0, "Moderate"}},
	{"delhi", Soil{75, 35, 55, 7.2, 650, "Sandy-loam", 2.0, "Well-drained"}},
	{"hyderabad", Soil{90, 50, 70, 6.8, 800, "Red soil", 2.8, "Well-drained"}},
	{"chennai", Soil{80, 40, 60, 6.3, 1400, "Sandy", 2.2, "Excellent"}},
	{"bangalore", Soil{95, 55, 75, 6.0, 900, "Red soil", 3.5, "Well-drained"}},
	{"kolkata", Soil{100, 60, 80, 6.2, 1600, "Alluvial", 4.0, "Poor"}},
	{"pune", Soil{85, 45, 65, 6.7, 700, "Black soil", 2.5, "Moderate"}},
	{"ahmedabad", Soil{70, 30, 50, 7.5, 550, "Sandy", 1.8, "Excellent"}},
	{"jaipur", Soil{65, 25, 45, 7.8, 450, "Sandy", 1.5, "Excellent"}},
	{"lucknow", Soil{90, 50, 70, 6.5, 1000, "Alluvial", 3.2, "Moderate"}},
	{"kanpur", Soil{85, 45, 65, 6.8, 850, "Alluvial", 2.8, "Well-drained"}},
	{"nagpur", Soil{80, 40, 60, 6.9, 1200, "Black soil", 2.6, "Moderate"}},
	{"indore", Soil{75, 35, 55, 7.0, 950, "Black soil", 2.4, "Well-drained"}},
	{"bhopal", Soil{85, 45, 65, 6.6, 1150, "Black soil", 2.7, "Well-drained"}},
	{"visakhapatnam", Soil{90, 50, 70, 6.2, 1100, "Red soil", 2.9, "Well-drained"}},
	{"vijayawada", Soil{95, 55, 75, 6.4, 950, "Alluvial", 3.1, "Well-drained"}},
	{"coimbatore", Soil{85, 45, 65, 6.1, 650, "Red soil", 2.3, "Well-drained"}},
	{"madurai", Soil{80, 40, 60, 6.0, 850, "Black soil", 2.1, "Moderate"}},
	{"nashik", Soil{75, 35, 55, 6.8, 600, "Black soil", 2.2, "Well-drained"}},
	{"vadodara", Soil{70, 30, 50, 7.3, 900, "Alluvial", 2.4, "Well-drained"}},
}

type regionSoil struct {
	cities []string
	soil   Soil
}

var regionSoils = []regionSoil{
	{[]string{"kolhapur", "satara", "sangli"}, Soil{85, 45, 65, 6.7, 800, "Black soil", 2.5, "Moderate"}},
	{[]string{"gurgaon", "noida", "faridabad"}, Soil{75, 35, 55, 7.2, 650, "Sandy-loam", 2.0, "Well-drained"}},
	{[]string{"warangal", "guntur"}, Soil{90, 50, 70, 6.6, 900, "Red soil", 2.8, "Well-drained"}},
	{[]string{"salem", "trichy"}, Soil{80, 40, 60, 6.2, 1000, "Red soil", 2.3, "Well-drained"}},
	{[]string{"mysore", "hubli", "mangalore"}, Soil{90, 50, 70, 6.4, 850, "Red soil", 3.0, "Well-drained"}},
}

// DefaultSoil is used when nothing about the location is known
var DefaultSoil = Soil{80, 40, 60, 6.5, 800, "Loamy", 2.5, "Well-drained"}

// SoilFor returns soil defaults for a location name, matching known cities,
// then regional neighbours, then DefaultSoil.
func SoilFor(location string) Soil {
	loc := strings.ToLower(location)
	for _, c := range citySoils {
		if strings.Contains(loc, c.city) {
			return c.soil
		}
	}
	for _, r := range regionSoils {
		for _, city := range r.cities {
			if strings.Contains(loc, city) {
				return r.soil
			}
		}
	}
	return DefaultSoil
}

// Features combines soil with current weather into a classifier input
func (s Soil) Features(temperatureC, humidity float64) Features {
	return Features{
		TemperatureC: temperatureC,
		Humidity:     humidity,
		N:            s.N,
		P:            s.P,
		K:            s.K,
		PH:           s.PH,
		Rainfall:     s.Rainfall,
	}
}
