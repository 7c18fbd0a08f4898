package model

// EventTimeLayout renders event and history timestamps as
// "YYYY-MM-DD HH:mm:ss" in the configured timezone.
const EventTimeLayout = "2006-01-02 15:04:05"

// AssetUpdateEventName is the event field of every broadcast payload.
const AssetUpdateEventName = "assetUpdate"

// AssetMovementEvent is the wire shape pushed to WebSocket subscribers and
// relayed over Redis after a sighting is processed.
type AssetMovementEvent struct {
	Event string            `json:"event"`
	Data  AssetMovementData `json:"data"`
}

// AssetMovementData carries the movement details of a single processed
// sighting. Field names are fixed by the dashboard consumers.
type AssetMovementData struct {
	RoomName    string `json:"room_name"`
	ReaderGate  string `json:"reader_gate"`
	TagID       string `json:"rfid_tag_number"`
	AssetName   string `json:"nama_aset"`
	AssetCode   string `json:"kode_aset"`
	NUP         string `json:"nup"`
	ReaderAngle string `json:"reader_angle"`
	NewStatus   string `json:"new_status"`
	Category    string `json:"kategori_pergerakan"`
	Description string `json:"keterangan_pergerakan"`
	Timestamp   string `json:"timestamp"`
}
