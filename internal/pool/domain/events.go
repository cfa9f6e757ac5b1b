package domain

import "time"

// Event — доменное событие жизненного цикла участия. События накапливаются
// в буфере транзакции и публикуются в RabbitMQ только после commit.
type Event struct {
	ID           string         `json:"id"`
	EventType    string         `json:"event_type"`
	RideID       string         `json:"ride_id"`
	RiderID      string         `json:"rider_id,omitempty"`
	MembershipID string         `json:"membership_id,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
