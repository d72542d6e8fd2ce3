package plant_simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		want    Command
		wantErr error
	}{
		{
			name:    "newplant with defaults",
			topic:   "greenpulse/newplant",
			payload: `{"plantId":"p1"}`,
			want:    AddPlant{PlantID: "p1", Type: "herb", Environment: "Indoors"},
		},
		{
			name:    "newplant with fields",
			topic:   "greenpulse/newplant",
			payload: `{"plantId":" p2 ","type":"cactus","environment":"Balcony"}`,
			want:    AddPlant{PlantID: "p2", Type: "cactus", Environment: "Balcony"},
		},
		{
			name:    "water from topic suffix",
			topic:   "greenpulse/commands/p1/water",
			payload: `{"plantId":"p1","amount":0.5}`,
			want:    Water{PlantID: "p1", Amount: 0.5},
		},
		{
			name:    "water default amount",
			topic:   "greenpulse/commands/water",
			payload: `{"plantId":"p1"}`,
			want:    Water{PlantID: "p1", Amount: DefaultWaterAmount},
		},
		{
			name:    "ph default target",
			topic:   "greenpulse/commands/ph",
			payload: `{"plantId":"p1"}`,
			want:    SetPH{PlantID: "p1", Target: DefaultTargetPH},
		},
		{
			name:    "temp default",
			topic:   "greenpulse/commands/temp",
			payload: `{"plantId":"p1"}`,
			want:    SetTemp{PlantID: "p1", Temp: DefaultTemperature},
		},
		{
			name:    "action wins over topic",
			topic:   "greenpulse/commands/p1/water",
			payload: `{"plantId":"p1","action":"set_ph","target":7}`,
			want:    SetPH{PlantID: "p1", Target: 7},
		},
		{
			name:    "action on generic topic",
			topic:   "greenpulse/commands",
			payload: `{"plantId":"p1","action":"SET_TEMP","temp":-3}`,
			want:    SetTemp{PlantID: "p1", Temp: -3},
		},
		{
			name:    "add_plant via action",
			topic:   "greenpulse/commands",
			payload: `{"plantId":"p9","action":"add_plant","type":"tropical"}`,
			want:    AddPlant{PlantID: "p9", Type: "tropical", Environment: "Indoors"},
		},
		{
			name:    "unknown action falls back to topic",
			topic:   "greenpulse/commands/water",
			payload: `{"plantId":"p1","action":"irrigate"}`,
			want:    Water{PlantID: "p1", Amount: DefaultWaterAmount},
		},
		{
			name:    "unknown action on generic topic",
			topic:   "greenpulse/commands",
			payload: `{"plantId":"p1","action":"prune"}`,
			wantErr: ErrUnknownAction,
		},
		{
			name:    "malformed json",
			topic:   "greenpulse/commands/water",
			payload: `{"plantId":`,
			wantErr: ErrMalformed,
		},
		{
			name:    "wrong field type",
			topic:   "greenpulse/commands/water",
			payload: `{"plantId":"p1","amount":"lots"}`,
			wantErr: ErrMalformed,
		},
		{
			name:    "missing plant id",
			topic:   "greenpulse/commands/water",
			payload: `{"amount":0.2}`,
			wantErr: ErrMissingPlantID,
		},
		{
			name:    "own event echoed on aggregate topic",
			topic:   "greenpulse/simulator",
			payload: `{"event":"status","plantId":"p1","humidity":40}`,
			wantErr: ErrNoCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCommand(tt.topic, []byte(tt.payload))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
