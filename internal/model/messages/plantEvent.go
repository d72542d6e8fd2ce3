package messages

import "time"

// EventType is the discriminator of an outbound PlantEvent.
type EventType string

const (
	EventStatus       EventType = "status"
	EventPlantAdded   EventType = "plant_added"
	EventPlantDead    EventType = "plant_dead"
	EventPlantWatered EventType = "plant_watered"
	EventPHAdjusted   EventType = "ph_adjusted"
	EventTempAdjusted EventType = "temp_adjusted"
)

// PlantEvent is the outbound telemetry/domain event. Only the fields relevant to Event are set.
type PlantEvent struct {
	Event       EventType `json:"event"`
	PlantID     string    `json:"plantId"`
	Humidity    *float64  `json:"humidity,omitempty"`
	PH          *float64  `json:"ph,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Alive       *bool     `json:"alive,omitempty"`
	Type        string    `json:"type,omitempty"`
	Environment string    `json:"environment,omitempty"`
	Prediction  string    `json:"prediction,omitempty"`
}

// SensorReading is a single-sensor telemetry sample, published on per-sensor topics
// (greenpulse/<environment>/<plantId>/<sensor>).
type SensorReading struct {
	PlantID     string    `json:"plantId"`
	Environment string    `json:"environment"`
	Sensor      string    `json:"sensor"` // humidity | ph | temperature
	Value       float64   `json:"value"`
	Timestamp   time.Time `json:"timestamp"`
	Prediction  string    `json:"prediction,omitempty"`
}
