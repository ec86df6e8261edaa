package models

// TelemetryMessage is the envelope field gateways publish onto the ingest
// topic. Payload carries the same open map a device would POST over HTTP.
type TelemetryMessage struct {
	RequestID string                 `json:"requestId"`
	Payload   map[string]interface{} `json:"payload"`
}
