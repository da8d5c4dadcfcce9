package models

// Feed event names broadcast over /ws.
const (
	EventConnected    = "connected"
	EventPlantCreated = "plant_created"
	EventImageAdded   = "image_added"
)

// PlantEvent is pushed to feed subscribers after every successful mutation.
// Plant always carries the authoritative stored record.
type PlantEvent struct {
	Event   string `json:"event"`
	Plant   *Plant `json:"plant,omitempty"`
	Message string `json:"message,omitempty"`
}
