package service

import (
	"errors"
	"fmt"

	"rfid-asset-tracker/internal/model"
)

// ErrUnclassifiedMovement is returned when a sighting matches no row of the
// decision table (e.g. a malformed reader angle). The caller must treat the
// sighting as failed instead of reusing a previous verdict.
var ErrUnclassifiedMovement = errors.New("unclassified movement")

// Movement descriptions, one per decision-table row.
const (
	descNormal          = "normal"
	descNormalBang      = "normal!"
	descOuterSameRoom   = "read by outer reader, last position already outside same room"
	descAnomalyNoOuter  = "different-room move, but not read by the previous room's outer reader"
	descDifferentRoom   = "different-room move"
	descAnomalyNotOuter = "different-room move, not read by outer reader"
)

// Classify decides the movement category and description for one sighting.
//
// sameRoom is whether the scanned room equals the asset's last recorded
// room; statusIn is whether the asset's persisted status equals the
// configured moving-in flag. Pure function, no side effects.
func Classify(sameRoom bool, readerAngle string, statusIn bool) (model.Classification, error) {
	switch readerAngle {
	case model.AngleIn, model.AngleOut:
	default:
		return model.Classification{}, fmt.Errorf("%w: reader angle %q", ErrUnclassifiedMovement, readerAngle)
	}

	if sameRoom {
		if readerAngle == model.AngleIn {
			if statusIn {
				return model.Classification{Category: model.CategoryNormal, Description: descNormal}, nil
			}
			return model.Classification{Category: model.CategoryNormal, Description: descNormalBang}, nil
		}
		// outer reader, same room
		if statusIn {
			return model.Classification{Category: model.CategoryNormal, Description: descNormalBang}, nil
		}
		return model.Classification{Category: model.CategoryNormal, Description: descOuterSameRoom}, nil
	}

	// different room
	if readerAngle == model.AngleOut {
		if statusIn {
			return model.Classification{Category: model.CategoryAnomaly, Description: descAnomalyNoOuter}, nil
		}
		return model.Classification{Category: model.CategoryNormal, Description: descDifferentRoom}, nil
	}

	// inner reader, different room: the asset never checked out of its
	// previous room if it is still flagged as inside.
	if statusIn {
		return model.Classification{Category: model.CategoryAnomaly, Description: descAnomalyNotOuter}, nil
	}
	return model.Classification{Category: model.CategoryNormal, Description: descDifferentRoom}, nil
}
