package channel

import "encoding/json"

const (
	msgTrackRoute        = "track-route"
	msgBusLocationUpdate = "bus-location-update"
	msgBusesUpdated      = "buses-updated"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type trackRoutePayload struct {
	RouteID string `json:"routeId"`
}

func encodeMessage(msgType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wsMessage{Type: msgType, Payload: raw})
}
