package model

import "time"

// Movement categories assigned by the classifier.
const (
	CategoryNormal  = "normal"
	CategoryAnomaly = "anomaly"
)

// Direction text values for the movement history stream.
const (
	DirectionIn  = "In"
	DirectionOut = "Out"
)

// Classification is the classifier verdict for a single sighting.
type Classification struct {
	Category    string `json:"kategori_pergerakan"`
	Description string `json:"keterangan_pergerakan"`
}

// MovementHistoryEntry is one append-only row on the movement history
// stream, created once per processed sighting.
type MovementHistoryEntry struct {
	Date         time.Time `json:"date"`
	Time         string    `json:"time"`
	ReaderID     int64     `json:"reader_id"`
	RoomID       int64     `json:"room_id"`
	TagID        string    `json:"rfid_tag_number"`
	Direction    string    `json:"direction"`
	LastRoomID   int64     `json:"last_room_id"`
	LastRoomName string    `json:"last_room_name"`
}
