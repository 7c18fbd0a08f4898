package model

// Borrow modes stored on the asset master record. Borrowed assets restrict
// which fields a movement update may touch.
const (
	BorrowNone  = 0
	BorrowTypeA = 1
	BorrowTypeB = 2
)

// Movement type values for the legal/illegal moving tag.
const (
	MovementIllegal = 0
	MovementLegal   = 1
)

// AssetRecord is the master record for a tracked asset, keyed by RFID tag.
// Mutated exclusively through StatePatch; never deleted by the tracker.
type AssetRecord struct {
	TagID         string `json:"rfid_tag_number"`
	AssetCode     string `json:"kode_aset"`
	AssetName     string `json:"nama_aset"`
	NUP           string `json:"nup"`
	Status        int    `json:"status"`
	CurrentRoomID int64  `json:"current_room_id"`
	LastRoomID    int64  `json:"last_room_id"`
	LastRoomName  string `json:"last_room_name"`
	MovementType  int    `json:"movement_type"`
	BorrowMode    int    `json:"borrow_mode"`
}

// StatePatch is a partial update of an AssetRecord. Each branch of the state
// updater sets exactly the fields it is allowed to touch; nil fields are
// left unmodified by the repository.
type StatePatch struct {
	Status        *int
	CurrentRoomID *int64
	LastRoomID    *int64
	LastRoomName  *string
	MovementType  *int
}

// IsEmpty reports whether the patch would modify nothing.
func (p StatePatch) IsEmpty() bool {
	return p.Status == nil && p.CurrentRoomID == nil && p.LastRoomID == nil &&
		p.LastRoomName == nil && p.MovementType == nil
}
