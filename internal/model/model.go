package model

import (
	"github.com/LeonardoBeccarini/greenpulse/internal/model/entities"
	"github.com/LeonardoBeccarini/greenpulse/internal/model/messages"
)

// Aliases exposing the shared types to the services

type (
	Plant            = entities.Plant
	PlantTypeProfile = entities.PlantTypeProfile
	CommandMessage   = messages.CommandMessage
	PlantEvent       = messages.PlantEvent
	EventType        = messages.EventType
	SensorReading    = messages.SensorReading
)

const (
	EventStatus       = messages.EventStatus
	EventPlantAdded   = messages.EventPlantAdded
	EventPlantDead    = messages.EventPlantDead
	EventPlantWatered = messages.EventPlantWatered
	EventPHAdjusted   = messages.EventPHAdjusted
	EventTempAdjusted = messages.EventTempAdjusted
)
