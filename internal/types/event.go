package types

// EventStatusUpdate is the type field of every status message sent to observers.
const EventStatusUpdate = "status_update"

// StatusEvent is the wire message delivered to observers watching a deal.
// It is never persisted; late subscribers read the Deal record instead.
type StatusEvent struct {
	Type   string     `json:"type"`
	DealID string     `json:"deal_id"`
	Status DealStatus `json:"status"`
	Data   any        `json:"data,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// NewStatusEvent builds a status_update event for a deal.
func NewStatusEvent(dealID string, status DealStatus, data any, errMsg string) StatusEvent {
	return StatusEvent{
		Type:   EventStatusUpdate,
		DealID: dealID,
		Status: status,
		Data:   data,
		Error:  errMsg,
	}
}
