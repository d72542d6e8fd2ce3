package messages

// CommandMessage is the inbound control payload. Every optional field is a pointer so that
// validation can tell "absent" from "zero".
type CommandMessage struct {
	PlantID     string   `json:"plantId"`
	Action      string   `json:"action,omitempty"` // add_plant | water | set_ph | set_temp
	Type        *string  `json:"type,omitempty"`
	Environment *string  `json:"environment,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Target      *float64 `json:"target,omitempty"`
	Temp        *float64 `json:"temp,omitempty"`
}
