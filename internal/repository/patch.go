package repository

import (
	"fmt"
	"strings"

	"rfid-asset-tracker/internal/model"
)

// buildPatchSet renders the SET clause for an asset patch. Only fields the
// updater explicitly set are included. numbered selects $n placeholders
// (PostgreSQL) starting at argOffset+1; otherwise ? is used.
func buildPatchSet(patch model.StatePatch, numbered bool, argOffset int) (string, []interface{}) {
	cols := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)

	add := func(col string, val interface{}) {
		if numbered {
			cols = append(cols, fmt.Sprintf("%s = $%d", col, argOffset+len(args)+1))
		} else {
			cols = append(cols, col+" = ?")
		}
		args = append(args, val)
	}

	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.CurrentRoomID != nil {
		add("current_room_id", *patch.CurrentRoomID)
	}
	if patch.LastRoomID != nil {
		add("last_room_id", *patch.LastRoomID)
	}
	if patch.LastRoomName != nil {
		add("last_room_name", *patch.LastRoomName)
	}
	if patch.MovementType != nil {
		add("movement_type", *patch.MovementType)
	}

	return strings.Join(cols, ", "), args
}
