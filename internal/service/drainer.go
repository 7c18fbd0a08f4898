package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"rfid-asset-tracker/internal/model"
	"rfid-asset-tracker/internal/repository"
)

// errUnknownAsset marks sightings whose tag has no master record. Not an
// error condition: the sighting is skipped without any state change.
var errUnknownAsset = errors.New("asset not found in master registry")

// DrainReport summarizes one drain cycle.
type DrainReport struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Drainer pulls pending sightings in FIFO order and processes them one at a
// time: resolve asset, classify, compute the state update, persist it
// atomically, publish the movement event. Per-item failures are isolated so
// one bad record never blocks the queue.
type Drainer struct {
	repo repository.TrackingRepository
	pub  Publisher
	loc  *time.Location
	now  func() time.Time
}

// NewDrainer creates a drainer. loc is the operating timezone for history
// rows and event timestamps; nil means UTC.
func NewDrainer(repo repository.TrackingRepository, pub Publisher, loc *time.Location) *Drainer {
	if loc == nil {
		loc = time.UTC
	}
	return &Drainer{
		repo: repo,
		pub:  pub,
		loc:  loc,
		now:  time.Now,
	}
}

// Drain processes every pending sighting once. Settings are loaded a single
// time so all items in the cycle see the same flags. A connection-level
// failure aborts the remaining batch; anything else affects only its item.
func (d *Drainer) Drain(ctx context.Context) (DrainReport, error) {
	var report DrainReport

	settings, err := d.repo.GetSettings(ctx)
	if err != nil {
		return report, fmt.Errorf("load settings: %w", err)
	}

	pending, err := d.repo.ListPending(ctx)
	if err != nil {
		return report, fmt.Errorf("list pending sightings: %w", err)
	}
	if len(pending) == 0 {
		return report, nil
	}

	log.Printf("[Drainer] Processing %d pending sightings", len(pending))

	for _, sighting := range pending {
		report.Attempted++

		err := d.processOne(ctx, settings, sighting)
		switch {
		case err == nil:
			report.Succeeded++
		case errors.Is(err, errUnknownAsset):
			report.Skipped++
		case errors.Is(err, repository.ErrConnectionLost):
			report.Failed++
			log.Printf("[Drainer] Connection lost on sighting %d, aborting cycle: %v", sighting.ID, err)
			return report, err
		default:
			report.Failed++
			log.Printf("[Drainer] Error processing sighting %d (tag %s): %v", sighting.ID, sighting.TagID, err)
		}
	}

	log.Printf("[Drainer] Cycle done: attempted=%d succeeded=%d skipped=%d failed=%d",
		report.Attempted, report.Succeeded, report.Skipped, report.Failed)
	return report, nil
}

func (d *Drainer) processOne(ctx context.Context, settings model.SystemSettings, sighting model.PendingSighting) error {
	asset, err := d.repo.GetAsset(ctx, sighting.TagID)
	if err != nil {
		return err
	}
	if asset == nil {
		return fmt.Errorf("%w: tag %s", errUnknownAsset, sighting.TagID)
	}

	sameRoom := sighting.RoomID == asset.LastRoomID
	statusIn := asset.Status == settings.FlagMovingIn

	cls, err := Classify(sameRoom, sighting.ReaderAngle, statusIn)
	if err != nil {
		return err
	}

	patch, entry := ComputeUpdate(UpdateInput{
		Settings: settings,
		Sighting: sighting,
		Asset:    *asset,
		Now:      d.now().In(d.loc),
	})

	statusFlag := OutputFlag(settings, sighting.ReaderAngle)
	if err := d.repo.ApplySightingUpdate(ctx, sighting.ID, statusFlag, cls, patch, entry); err != nil {
		return err
	}

	log.Printf("[Drainer] id=%d tag=%s room=%d(%s) angle=%s category=%s",
		sighting.ID, sighting.TagID, sighting.RoomID, sighting.RoomName, sighting.ReaderAngle, cls.Category)

	if d.pub != nil {
		d.pub.Publish(d.buildEvent(sighting, *asset, cls))
	}
	return nil
}

// buildEvent shapes the broadcast payload for one processed sighting. The
// timestamp comes from the sighting's observation time, rendered in the
// operating timezone.
func (d *Drainer) buildEvent(sighting model.PendingSighting, asset model.AssetRecord, cls model.Classification) model.AssetMovementEvent {
	return model.AssetMovementEvent{
		Event: model.AssetUpdateEventName,
		Data: model.AssetMovementData{
			RoomName:    sighting.RoomName,
			ReaderGate:  sighting.ReaderGate,
			TagID:       sighting.TagID,
			AssetName:   asset.AssetName,
			AssetCode:   asset.AssetCode,
			NUP:         asset.NUP,
			ReaderAngle: sighting.ReaderAngle,
			NewStatus:   sighting.ReaderAngle,
			Category:    cls.Category,
			Description: cls.Description,
			Timestamp:   sighting.ObservedAt.In(d.loc).Format(model.EventTimeLayout),
		},
	}
}
