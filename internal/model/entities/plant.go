package entities

// PlantTypeProfile is the environmental tolerance of a plant type.
type PlantTypeProfile struct {
	IdealPH     float64 `json:"ideal_ph" yaml:"ideal_ph"`
	MinHumidity float64 `json:"min_humidity" yaml:"min_humidity"` // %
	MaxHumidity float64 `json:"max_humidity" yaml:"max_humidity"` // %
	DryRate     float64 `json:"dry_rate" yaml:"dry_rate"`         // humidity points lost per tick at 20°C
}

// Plant is one simulated plant. It is owned by the registry; callers only ever see copies.
type Plant struct {
	ID          string  `json:"plantId"`
	Type        string  `json:"type"`
	Environment string  `json:"environment"`
	Humidity    float64 `json:"humidity"`    // [0..100]
	PH          float64 `json:"ph"`          // [4.0..8.0]
	Temperature float64 `json:"temperature"` // °C, unbounded
	BadHours    int     `json:"badHours"`
	Alive       bool    `json:"alive"`

	// last post-tick humidity readings, oldest first
	HumidityTrend []float64 `json:"humidityTrend,omitempty"`
	NeedsWater    bool      `json:"needsWater"`
}

// Clone returns a deep copy.
func (p Plant) Clone() Plant {
	if p.HumidityTrend != nil {
		p.HumidityTrend = append([]float64(nil), p.HumidityTrend...)
	}
	return p
}
