package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfid-asset-tracker/internal/model"
	"rfid-asset-tracker/internal/repository"
)

// fakeRepo is an in-memory TrackingRepository for drainer and scheduler
// tests.
type fakeRepo struct {
	mu sync.Mutex

	settings    model.SystemSettings
	settingsErr error
	interval    model.IntervalConfig
	pending     []model.PendingSighting
	assets      map[string]model.AssetRecord

	applyErrs map[int64]error
	applied   []appliedUpdate

	settingsReads int

	listPendingCalls int
	listPendingHook  func()
}

type appliedUpdate struct {
	sightingID int64
	statusFlag int
	cls        model.Classification
	patch      model.StatePatch
	entry      model.MovementHistoryEntry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		settings:  model.SystemSettings{FlagMovingIn: 1, FlagMovingOut: 2, MovingMode: model.MovingModeFree},
		interval:  model.IntervalConfig{PeriodMS: 5000},
		assets:    make(map[string]model.AssetRecord),
		applyErrs: make(map[int64]error),
	}
}

func (f *fakeRepo) GetSettings(ctx context.Context) (model.SystemSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settingsReads++
	if f.settingsErr != nil {
		return model.SystemSettings{}, f.settingsErr
	}
	return f.settings, nil
}

func (f *fakeRepo) GetIntervalConfig(ctx context.Context) (model.IntervalConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interval, nil
}

func (f *fakeRepo) setInterval(periodMS int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interval.PeriodMS = periodMS
}

func (f *fakeRepo) ListPending(ctx context.Context) ([]model.PendingSighting, error) {
	f.mu.Lock()
	f.listPendingCalls++
	hook := f.listPendingHook
	out := make([]model.PendingSighting, len(f.pending))
	copy(out, f.pending)
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (f *fakeRepo) listPendingCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listPendingCalls
}

func (f *fakeRepo) GetAsset(ctx context.Context, tagID string) (*model.AssetRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[tagID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *fakeRepo) ApplySightingUpdate(ctx context.Context, sightingID int64, statusFlag int,
	cls model.Classification, patch model.StatePatch, entry model.MovementHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.applyErrs[sightingID]; err != nil {
		return err
	}

	f.applied = append(f.applied, appliedUpdate{sightingID, statusFlag, cls, patch, entry})
	for i, p := range f.pending {
		if p.ID == sightingID {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeRepo) ListMovements(ctx context.Context, tagID string, limit int) ([]model.MovementHistoryEntry, error) {
	return nil, nil
}

func (f *fakeRepo) CountPending(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.pending)), nil
}

func (f *fakeRepo) Close() error { return nil }

func (f *fakeRepo) settingsReadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settingsReads
}

var _ repository.TrackingRepository = (*fakeRepo)(nil)

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []model.AssetMovementEvent
}

func (p *fakePublisher) Publish(event model.AssetMovementEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) all() []model.AssetMovementEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.AssetMovementEvent, len(p.events))
	copy(out, p.events)
	return out
}

func sighting(id int64, tag, angle string, roomID int64) model.PendingSighting {
	return model.PendingSighting{
		ID:          id,
		TagID:       tag,
		ReaderAngle: angle,
		RoomID:      roomID,
		RoomName:    fmt.Sprintf("Room %d", roomID),
		ReaderGate:  "gate-1",
		ReaderID:    9,
		ObservedAt:  time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestDrain_SameRoomReentry(t *testing.T) {
	repo := newFakeRepo()
	repo.pending = []model.PendingSighting{sighting(1, "TAG-A", model.AngleIn, 5)}
	repo.assets["TAG-A"] = model.AssetRecord{
		TagID:      "TAG-A",
		AssetName:  "Projector",
		LastRoomID: 5,
		Status:     2, // currently outside
	}
	pub := &fakePublisher{}

	d := NewDrainer(repo, pub, time.UTC)
	report, err := d.Drain(context.Background())

	require.NoError(t, err)
	assert.Equal(t, DrainReport{Attempted: 1, Succeeded: 1}, report)

	require.Len(t, repo.applied, 1)
	got := repo.applied[0]
	assert.Equal(t, model.CategoryNormal, got.cls.Category)
	assert.Equal(t, "normal!", got.cls.Description)
	require.NotNil(t, got.patch.Status)
	assert.Equal(t, 1, *got.patch.Status)
	require.NotNil(t, got.patch.CurrentRoomID)
	assert.Equal(t, int64(5), *got.patch.CurrentRoomID)

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, model.AssetUpdateEventName, events[0].Event)
	assert.Equal(t, "Projector", events[0].Data.AssetName)
	assert.Equal(t, "2025-03-14 09:26:53", events[0].Data.Timestamp)
}

func TestDrain_DifferentRoomAnomaly(t *testing.T) {
	repo := newFakeRepo()
	repo.pending = []model.PendingSighting{sighting(1, "TAG-B", model.AngleOut, 7)}
	repo.assets["TAG-B"] = model.AssetRecord{
		TagID:      "TAG-B",
		LastRoomID: 5,
		Status:     1, // still flagged inside the previous room
	}
	pub := &fakePublisher{}

	d := NewDrainer(repo, pub, time.UTC)
	report, err := d.Drain(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	require.Len(t, repo.applied, 1)
	got := repo.applied[0]
	assert.Equal(t, model.CategoryAnomaly, got.cls.Category)
	assert.Contains(t, got.cls.Description, "outer reader")

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, model.CategoryAnomaly, events[0].Data.Category)
}

func TestDrain_UnknownAssetSkipped(t *testing.T) {
	repo := newFakeRepo()
	repo.pending = []model.PendingSighting{sighting(1, "GHOST", model.AngleIn, 5)}
	pub := &fakePublisher{}

	d := NewDrainer(repo, pub, time.UTC)
	report, err := d.Drain(context.Background())

	require.NoError(t, err)
	assert.Equal(t, DrainReport{Attempted: 1, Skipped: 1}, report)
	assert.Empty(t, repo.applied, "no state change for unknown assets")
	assert.Empty(t, pub.all())
}

func TestDrain_FailureIsolation(t *testing.T) {
	repo := newFakeRepo()
	for i := int64(1); i <= 5; i++ {
		repo.pending = append(repo.pending, sighting(i, fmt.Sprintf("TAG-%d", i), model.AngleIn, 5))
		repo.assets[fmt.Sprintf("TAG-%d", i)] = model.AssetRecord{TagID: fmt.Sprintf("TAG-%d", i), LastRoomID: 5, Status: 2}
	}
	repo.applyErrs[2] = errors.New("write failed")

	d := NewDrainer(repo, nil, time.UTC)
	report, err := d.Drain(context.Background())

	require.NoError(t, err)
	assert.Equal(t, DrainReport{Attempted: 5, Succeeded: 4, Failed: 1}, report)

	var appliedIDs []int64
	for _, a := range repo.applied {
		appliedIDs = append(appliedIDs, a.sightingID)
	}
	assert.Equal(t, []int64{1, 3, 4, 5}, appliedIDs, "items after the failure must still be processed")
}

func TestDrain_ConnectionLostAbortsBatch(t *testing.T) {
	repo := newFakeRepo()
	for i := int64(1); i <= 4; i++ {
		repo.pending = append(repo.pending, sighting(i, fmt.Sprintf("TAG-%d", i), model.AngleIn, 5))
		repo.assets[fmt.Sprintf("TAG-%d", i)] = model.AssetRecord{TagID: fmt.Sprintf("TAG-%d", i), LastRoomID: 5, Status: 2}
	}
	repo.applyErrs[2] = fmt.Errorf("exec: %w", repository.ErrConnectionLost)

	d := NewDrainer(repo, nil, time.UTC)
	report, err := d.Drain(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrConnectionLost)
	assert.Equal(t, DrainReport{Attempted: 2, Succeeded: 1, Failed: 1}, report,
		"remaining items stay pending for the next cycle")
	assert.Len(t, repo.applied, 1)
}

func TestDrain_SettingsErrorAbortsCycle(t *testing.T) {
	repo := newFakeRepo()
	repo.settingsErr = errors.New("settings table unreachable")
	repo.pending = []model.PendingSighting{sighting(1, "TAG-A", model.AngleIn, 5)}

	d := NewDrainer(repo, nil, time.UTC)
	report, err := d.Drain(context.Background())

	require.Error(t, err)
	assert.Zero(t, report.Attempted)
}

func TestDrain_SettingsLoadedOncePerCycle(t *testing.T) {
	repo := newFakeRepo()
	for i := int64(1); i <= 3; i++ {
		repo.pending = append(repo.pending, sighting(i, "TAG-A", model.AngleIn, 5))
	}
	repo.assets["TAG-A"] = model.AssetRecord{TagID: "TAG-A", LastRoomID: 5, Status: 2}

	d := NewDrainer(repo, nil, time.UTC)
	_, err := d.Drain(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, repo.settingsReadCount(), "all items in a cycle see the same flags")
}

func TestDrain_EmptyQueue(t *testing.T) {
	repo := newFakeRepo()

	d := NewDrainer(repo, nil, time.UTC)
	report, err := d.Drain(context.Background())

	require.NoError(t, err)
	assert.Zero(t, report)
}

func TestDrain_MalformedAngleFails(t *testing.T) {
	repo := newFakeRepo()
	repo.pending = []model.PendingSighting{sighting(1, "TAG-A", "diagonal", 5)}
	repo.assets["TAG-A"] = model.AssetRecord{TagID: "TAG-A", LastRoomID: 5}

	d := NewDrainer(repo, nil, time.UTC)
	report, err := d.Drain(context.Background())

	require.NoError(t, err)
	assert.Equal(t, DrainReport{Attempted: 1, Failed: 1}, report)
	assert.Empty(t, repo.applied)
}
