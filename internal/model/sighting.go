package model

import "time"

// Reader angle values as reported by the RFID gates.
const (
	AngleIn  = "in"
	AngleOut = "out"
)

// PendingSighting is one unprocessed RFID reader detection, queued by the
// reader-ingestion path and consumed by the drainer.
//
// Processed starts at 0. The drain transaction sets it to the computed
// status flag, which makes the row invisible to the next ListPending call
// and eligible for purging.
type PendingSighting struct {
	ID          int64     `json:"id"`
	TagID       string    `json:"rfid_tag_number"`
	ReaderAngle string    `json:"reader_angle"`
	RoomID      int64     `json:"room_id"`
	RoomName    string    `json:"room_name"`
	ReaderGate  string    `json:"reader_gate"`
	ReaderID    int64     `json:"reader_id"`
	LegalMoving int       `json:"is_legal_moving"`
	ObservedAt  time.Time `json:"observed_at"`
	Processed   int       `json:"processed"`
}
