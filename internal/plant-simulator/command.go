package plant_simulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/LeonardoBeccarini/greenpulse/internal/model"
)

// CommandKind names one of the fixed set of inbound commands.
type CommandKind string

const (
	KindAddPlant CommandKind = "add_plant"
	KindWater    CommandKind = "water"
	KindSetPH    CommandKind = "set_ph"
	KindSetTemp  CommandKind = "set_temp"
)

// Defaults applied during validation when a field is absent.
const (
	DefaultPlantType   = "herb"
	DefaultEnvironment = "Indoors"
	DefaultWaterAmount = 0.3
	DefaultTargetPH    = 6.5
	DefaultTemperature = 22.0
)

var (
	ErrMalformed      = errors.New("malformed command payload")
	ErrMissingPlantID = errors.New("missing plantId")
	ErrUnknownAction  = errors.New("unknown action")
	ErrNoCommand      = errors.New("no command for topic")
)

// Command is the closed set of validated commands: AddPlant, Water, SetPH, SetTemp.
type Command interface {
	Kind() CommandKind
	Plant() string
	sealed()
}

type AddPlant struct {
	PlantID     string
	Type        string
	Environment string
}

type Water struct {
	PlantID string
	Amount  float64 // fraction of full scale, 0.3 -> +30 humidity points
}

type SetPH struct {
	PlantID string
	Target  float64
}

type SetTemp struct {
	PlantID string
	Temp    float64
}

func (c AddPlant) Kind() CommandKind { return KindAddPlant }
func (c Water) Kind() CommandKind    { return KindWater }
func (c SetPH) Kind() CommandKind    { return KindSetPH }
func (c SetTemp) Kind() CommandKind  { return KindSetTemp }

func (c AddPlant) Plant() string { return c.PlantID }
func (c Water) Plant() string    { return c.PlantID }
func (c SetPH) Plant() string    { return c.PlantID }
func (c SetTemp) Plant() string  { return c.PlantID }

func (AddPlant) sealed() {}
func (Water) sealed()    {}
func (SetPH) sealed()    {}
func (SetTemp) sealed()  {}

// topicKinds maps the last topic segment to the command it implies.
var topicKinds = map[string]CommandKind{
	"newplant":  KindAddPlant,
	"add_plant": KindAddPlant,
	"water":     KindWater,
	"ph":        KindSetPH,
	"temp":      KindSetTemp,
}

// DecodeCommand validates payload received on topic into a Command. An explicit action
// wins over the kind implied by the topic suffix. Absent optional fields get their defaults.
func DecodeCommand(topic string, payload []byte) (Command, error) {
	var msg model.CommandMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	id := strings.TrimSpace(msg.PlantID)
	if id == "" {
		return nil, ErrMissingPlantID
	}

	kind, err := resolveKind(topic, msg.Action)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindAddPlant:
		return AddPlant{
			PlantID:     id,
			Type:        orDefault(msg.Type, DefaultPlantType),
			Environment: orDefault(msg.Environment, DefaultEnvironment),
		}, nil
	case KindWater:
		return Water{PlantID: id, Amount: numOrDefault(msg.Amount, DefaultWaterAmount)}, nil
	case KindSetPH:
		return SetPH{PlantID: id, Target: numOrDefault(msg.Target, DefaultTargetPH)}, nil
	case KindSetTemp:
		return SetTemp{PlantID: id, Temp: numOrDefault(msg.Temp, DefaultTemperature)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
}

func resolveKind(topic, action string) (CommandKind, error) {
	if a := strings.ToLower(strings.TrimSpace(action)); a != "" {
		switch k := CommandKind(a); k {
		case KindAddPlant, KindWater, KindSetPH, KindSetTemp:
			return k, nil
		}
		// an unrecognised action still runs the command its topic names
		if k, ok := topicKind(topic); ok {
			return k, nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if k, ok := topicKind(topic); ok {
		return k, nil
	}
	return "", fmt.Errorf("%w %q", ErrNoCommand, topic)
}

func topicKind(topic string) (CommandKind, bool) {
	t := strings.TrimRight(strings.TrimSpace(topic), "/")
	if i := strings.LastIndex(t, "/"); i >= 0 {
		t = t[i+1:]
	}
	k, ok := topicKinds[strings.ToLower(t)]
	return k, ok
}

func orDefault(v *string, def string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return def
	}
	return strings.TrimSpace(*v)
}

func numOrDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
