package service

import (
	"time"

	"rfid-asset-tracker/internal/model"
)

// UpdateInput bundles everything the state updater needs for one sighting.
// Now is the wall-clock time already shifted to the operating timezone; it
// stamps the history row.
type UpdateInput struct {
	Settings model.SystemSettings
	Sighting model.PendingSighting
	Asset    model.AssetRecord
	Now      time.Time
}

// OutputFlag derives the movement status flag for a sighting: inner readers
// produce the moving-in flag, outer readers the moving-out flag.
func OutputFlag(settings model.SystemSettings, readerAngle string) int {
	if readerAngle == model.AngleIn {
		return settings.FlagMovingIn
	}
	return settings.FlagMovingOut
}

// DirectionText renders a status flag as the history direction text.
func DirectionText(settings model.SystemSettings, statusFlag int) string {
	if statusFlag == settings.FlagMovingIn {
		return model.DirectionIn
	}
	return model.DirectionOut
}

// ComputeUpdate computes the asset patch and history entry for one
// classified sighting. Pure function; the caller persists both in a single
// transaction together with the pending-row completion.
//
// Borrowed assets restrict the patch: type A only moves the last-room
// fields, type B additionally updates the status, and neither ever touches
// the current room or the movement type.
func ComputeUpdate(in UpdateInput) (model.StatePatch, model.MovementHistoryEntry) {
	statusFlag := OutputFlag(in.Settings, in.Sighting.ReaderAngle)
	movingIn := statusFlag == in.Settings.FlagMovingIn

	lastRoomID := in.Sighting.RoomID
	lastRoomName := in.Sighting.RoomName

	var patch model.StatePatch
	patch.LastRoomID = &lastRoomID
	patch.LastRoomName = &lastRoomName

	switch in.Asset.BorrowMode {
	case model.BorrowTypeA:
		// last-room fields only

	case model.BorrowTypeB:
		status := statusFlag
		patch.Status = &status

	default:
		status := statusFlag
		patch.Status = &status

		if movingIn {
			currentRoom := in.Sighting.RoomID
			patch.CurrentRoomID = &currentRoom
		} else if in.Settings.MovingMode == model.MovingModeFree {
			// Free mode stamps the legality of every outbound move.
			// License mode leaves the movement type alone.
			movementType := model.MovementIllegal
			if in.Sighting.LegalMoving == 1 {
				movementType = model.MovementLegal
			}
			patch.MovementType = &movementType
		}
	}

	// The history row attributes a room only to inbound moves.
	var historyRoom int64
	if movingIn {
		historyRoom = in.Sighting.RoomID
	}

	entry := model.MovementHistoryEntry{
		Date:         in.Now,
		Time:         in.Now.Format(model.EventTimeLayout),
		ReaderID:     in.Sighting.ReaderID,
		RoomID:       historyRoom,
		TagID:        in.Sighting.TagID,
		Direction:    DirectionText(in.Settings, statusFlag),
		LastRoomID:   lastRoomID,
		LastRoomName: lastRoomName,
	}

	return patch, entry
}
