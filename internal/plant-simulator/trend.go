package plant_simulator

import "github.com/LeonardoBeccarini/greenpulse/internal/model"

const (
	trendWindow = 5 // readings kept per plant

	// a falling reading below a low trend predicts the plant will soon need water
	trendAlertHumidity  = 40.0
	PredictionWaterSoon = "water in 2 hours"

	// needs-water hysteresis band
	dryThreshold = 30.0
	wetThreshold = 40.0
)

// recordTrend appends the current humidity to the plant's window, keeping the last trendWindow.
func recordTrend(p *model.Plant) {
	p.HumidityTrend = append(p.HumidityTrend, p.Humidity)
	if n := len(p.HumidityTrend); n > trendWindow {
		p.HumidityTrend = append(p.HumidityTrend[:0], p.HumidityTrend[n-trendWindow:]...)
	}
}

// Prediction returns PredictionWaterSoon when the average of the window is low and
// the latest reading is below it, or "" otherwise.
func Prediction(p model.Plant) string {
	if len(p.HumidityTrend) == 0 {
		return ""
	}
	sum := 0.0
	for _, h := range p.HumidityTrend {
		sum += h
	}
	avg := sum / float64(len(p.HumidityTrend))
	if avg < trendAlertHumidity && p.Humidity < avg {
		return PredictionWaterSoon
	}
	return ""
}

// updateNeedsWater flips the needs-water flag on with humidity below dryThreshold and
// off only once humidity climbs above wetThreshold.
func updateNeedsWater(p *model.Plant) {
	switch {
	case !p.NeedsWater && p.Humidity < dryThreshold:
		p.NeedsWater = true
	case p.NeedsWater && p.Humidity > wetThreshold:
		p.NeedsWater = false
	}
}
