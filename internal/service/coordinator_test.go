package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"parktrack/internal/credential"
	"parktrack/internal/models"
	"parktrack/internal/repository"
	"parktrack/internal/scan"
)

const testSecret = "gate-secret"

type fakeStore struct {
	mu          sync.Mutex
	sessions    map[int64]*models.ParkingSession
	nextID      int64
	createErr   error
	completeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[int64]*models.ParkingSession)}
}

func (f *fakeStore) CreateSession(_ context.Context, session *models.ParkingSession) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	for _, s := range f.sessions {
		if s.DriverID == session.DriverID && s.Status == models.SessionStatusActive {
			return 0, repository.ErrDriverHasActiveSession
		}
	}
	f.nextID++
	session.ID = f.nextID
	stored := *session
	f.sessions[session.ID] = &stored
	return session.ID, nil
}

func (f *fakeStore) GetActiveSessionForDriver(_ context.Context, driverID string) (*models.ParkingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.DriverID == driverID && s.Status == models.SessionStatusActive {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetSessionByID(_ context.Context, id int64) (*models.ParkingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStore) CompleteSession(_ context.Context, id int64, exitTime time.Time, durationMinutes int, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return f.completeErr
	}
	s, ok := f.sessions[id]
	if !ok || s.Status != models.SessionStatusActive {
		return repository.ErrSessionNotFound
	}
	s.Status = models.SessionStatusCompleted
	s.ExitTime.Time = exitTime
	s.ExitTime.Valid = true
	s.DurationMinutes = durationMinutes
	s.Amount = amount
	return nil
}

type fakeDirectory struct {
	users map[string]*models.User
}

func (f *fakeDirectory) GetByDriverID(_ context.Context, driverID string) (*models.User, error) {
	if u, ok := f.users[driverID]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

type fakeAudit struct {
	mu     sync.Mutex
	events []models.GateEvent
}

func (f *fakeAudit) Record(_ context.Context, event models.GateEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAudit) byKind(kind string) []models.GateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.GateEvent
	for _, e := range f.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type coordinatorFixture struct {
	coordinator *Coordinator
	store       *fakeStore
	audit       *fakeAudit
	validator   *credential.Validator
	now         time.Time
}

func newFixture(t *testing.T) *coordinatorFixture {
	t.Helper()

	store := newFakeStore()
	audit := &fakeAudit{}
	directory := &fakeDirectory{users: map[string]*models.User{
		"drv-gold": {DriverID: "drv-gold", FullName: "Gwen Gold", Tier: models.TierGold, VehicleNumber: "GD1111"},
		"drv-norm": {DriverID: "drv-norm", FullName: "Nora Normal", Tier: models.TierNormal, VehicleNumber: "NM2222"},
		"drv-plat": {DriverID: "drv-plat", FullName: "Pat Platinum", Tier: models.TierPlatinum, VehicleNumber: "PL3333"},
	}}

	validator := credential.NewValidator(testSecret, 30*time.Second)

	f := &coordinatorFixture{
		store:     store,
		audit:     audit,
		validator: validator,
		now:       time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	// The coordinator and the debouncer share the simulated clock; the
	// validator stays on real time because freshCode issues real credentials.
	coordinator := NewCoordinator(
		store,
		directory,
		NewRateService(nil),
		validator,
		scan.NewDebouncerWithClock(3*time.Second, clock),
		audit,
		nil,
		nil,
		zap.NewNop(),
	)
	coordinator.now = clock
	f.coordinator = coordinator
	return f
}

// freshCode issues a credential that validates right now regardless of the
// coordinator's simulated clock.
func (f *coordinatorFixture) freshCode(t *testing.T, driverID, vehicle string, typ models.CredentialType) string {
	t.Helper()
	cred := f.validator.Issue(driverID, vehicle, typ)
	raw, err := credential.Encode(cred)
	require.NoError(t, err)
	return raw
}

func TestHandleScanEntryOpensSession(t *testing.T) {
	f := newFixture(t)

	res, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code:       f.freshCode(t, "drv-gold", "GD1111", models.CredentialEntry),
		Gate:       "north-1",
		OperatorID: "op-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EventEntry, res.Operation)
	assert.NotZero(t, res.SessionID)
	assert.Equal(t, models.TierGold, res.Session.Tier)
	assert.Equal(t, "Gwen Gold", res.Session.DriverName)

	active, err := f.store.GetActiveSessionForDriver(context.Background(), "drv-gold")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, models.SessionStatusActive, active.Status)
}

func TestHandleScanMalformedCredential(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.HandleScan(context.Background(), ScanInput{Code: "not-a-credential"})
	assert.ErrorIs(t, err, ErrCredentialFormat)
}

func TestHandleScanTamperedCredential(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: "PARKTRACK|drv-gold|GD1111|" + "1735689600000" + "|forgedhash",
		Gate: "north-1",
	})
	assert.ErrorIs(t, err, ErrCredentialIntegrity)

	rejected := f.audit.byKind(models.EventRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, "invalid_hash", rejected[0].Detail)
}

func TestHandleScanExitWithoutActiveSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-gold", "GD1111", models.CredentialExit),
	})
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestHandleScanThrottlesRepeatWithSameStatus(t *testing.T) {
	f := newFixture(t)

	// Two exit attempts with nothing open: same "none" status label, one
	// second apart, so the second must be suppressed by the debouncer.
	_, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-gold", "GD1111", models.CredentialExit),
	})
	assert.ErrorIs(t, err, ErrNoActiveSession)

	f.now = f.now.Add(time.Second)
	_, err = f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-gold", "GD1111", models.CredentialExit),
	})
	assert.ErrorIs(t, err, ErrScanThrottled)
}

func TestHandleScanDuplicateEntryConflicts(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-gold", "GD1111", models.CredentialEntry),
		Gate: "north-1",
	})
	require.NoError(t, err)

	f.now = f.now.Add(time.Second)
	_, err = f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-gold", "GD1111", models.CredentialEntry),
		Gate: "north-1",
	})

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.True(t, conflict.Result.HasConflict)
	assert.Equal(t, ActionForceNewEntry, conflict.Result.SuggestedAction)
}

func TestHandleScanForceNewEntryClosesStaleSession(t *testing.T) {
	f := newFixture(t)

	first, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-gold", "GD1111", models.CredentialEntry),
		Gate: "north-1",
	})
	require.NoError(t, err)

	f.now = f.now.Add(10 * time.Minute)
	second, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code:          f.freshCode(t, "drv-gold", "GD1111", models.CredentialEntry),
		Gate:          "south-2",
		OperatorID:    "op-9",
		ForceNewEntry: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EventEntry, second.Operation)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	stale, err := f.store.GetSessionByID(context.Background(), first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, stale.Status)
	assert.Zero(t, stale.Amount)

	forceClosed := f.audit.byKind(models.EventForceClosed)
	require.Len(t, forceClosed, 1)
	assert.Zero(t, forceClosed[0].Amount)
}

func TestHandleScanSecondVehicleConflicts(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-gold", "GD1111", models.CredentialEntry),
		Gate: "north-1",
	})
	require.NoError(t, err)

	// Same driver, second car: the pre-check sees no vehicle match, so the
	// store's conditional create is what rejects the entry.
	f.now = f.now.Add(time.Minute)
	_, err = f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-gold", "GD9999", models.CredentialEntry),
		Gate: "north-1",
	})

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.True(t, conflict.Result.HasConflict)
	assert.Equal(t, ActionForceNewEntry, conflict.Result.SuggestedAction)
	require.NotNil(t, conflict.Result.ExistingSession)
	assert.Equal(t, "GD1111", conflict.Result.ExistingSession.VehicleNumber)
	assert.Contains(t, conflict.Result.Message, "GD1111")
}

func TestHandleScanForceNewEntrySecondVehicle(t *testing.T) {
	f := newFixture(t)

	first, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-gold", "GD1111", models.CredentialEntry),
		Gate: "north-1",
	})
	require.NoError(t, err)

	f.now = f.now.Add(10 * time.Minute)
	second, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code:          f.freshCode(t, "drv-gold", "GD9999", models.CredentialEntry),
		Gate:          "south-2",
		OperatorID:    "op-9",
		ForceNewEntry: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EventEntry, second.Operation)
	assert.Equal(t, "GD9999", second.Session.VehicleNumber)

	stale, err := f.store.GetSessionByID(context.Background(), first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, stale.Status)
	assert.Zero(t, stale.Amount)

	active, err := f.store.GetActiveSessionForDriver(context.Background(), "drv-gold")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "GD9999", active.VehicleNumber)
}

func TestHandleScanExitComputesGoldCharge(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-gold", "GD1111", models.CredentialEntry),
		Gate: "north-1",
	})
	require.NoError(t, err)

	f.now = f.now.Add(150 * time.Minute)
	res, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-gold", "GD1111", models.CredentialExit),
		Gate: "north-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EventExit, res.Operation)
	require.NotNil(t, res.Charge)
	assert.Equal(t, 150, res.Charge.DurationMinutes)
	assert.Equal(t, 80.0, res.Charge.Amount)
	assert.True(t, res.Charge.FreeHoursApplied)
}

func TestHandleScanExitComputesPlatinumCharge(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-plat", "PL3333", models.CredentialEntry),
	})
	require.NoError(t, err)

	f.now = f.now.Add(150 * time.Minute)
	res, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-plat", "PL3333", models.CredentialExit),
	})
	require.NoError(t, err)
	assert.Equal(t, 60.0, res.Charge.Amount)
}

func TestHandleScanExitRejectsImplausiblyShortStay(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-norm", "NM2222", models.CredentialEntry),
	})
	require.NoError(t, err)

	f.now = f.now.Add(30 * time.Second)
	_, err = f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-norm", "NM2222", models.CredentialExit),
	})

	var implausible *ImplausibleDurationError
	require.ErrorAs(t, err, &implausible)

	// The rejection must not have mutated the session.
	active, err := f.store.GetActiveSessionForDriver(context.Background(), "drv-norm")
	require.NoError(t, err)
	require.NotNil(t, active)
}

func TestHandleScanExitRejectsImplausiblyLongStay(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-norm", "NM2222", models.CredentialEntry),
	})
	require.NoError(t, err)

	f.now = f.now.Add(25 * time.Hour)
	_, err = f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-norm", "NM2222", models.CredentialExit),
	})

	var implausible *ImplausibleDurationError
	require.ErrorAs(t, err, &implausible)
}

func TestHandleScanStoreErrorPropagates(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("store unavailable")
	f.store.createErr = boom

	_, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-norm", "NM2222", models.CredentialEntry),
	})
	assert.ErrorIs(t, err, boom)
}

func TestManualExit(t *testing.T) {
	f := newFixture(t)

	entry, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-norm", "NM2222", models.CredentialEntry),
		Gate: "north-1",
	})
	require.NoError(t, err)

	f.now = f.now.Add(61 * time.Minute)
	res, err := f.coordinator.ManualExit(context.Background(), entry.SessionID, "op-7")
	require.NoError(t, err)
	assert.Equal(t, models.EventManualExit, res.Operation)
	assert.Equal(t, 200.0, res.Charge.Amount)
}

func TestManualExitUnknownSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.coordinator.ManualExit(context.Background(), 404, "op-7")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManualExitCompletedSession(t *testing.T) {
	f := newFixture(t)

	entry, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-norm", "NM2222", models.CredentialEntry),
	})
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	_, err = f.coordinator.ManualExit(context.Background(), entry.SessionID, "op-7")
	require.NoError(t, err)

	_, err = f.coordinator.ManualExit(context.Background(), entry.SessionID, "op-7")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

// Full driver day: enter, get rejected on a duplicate entry, exit after 2h30m.
func TestGateDayEndToEnd(t *testing.T) {
	f := newFixture(t)

	entry, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code:       f.freshCode(t, "drv-gold", "GD1111", models.CredentialEntry),
		Gate:       "north-1",
		OperatorID: "op-1",
	})
	require.NoError(t, err)

	f.now = f.now.Add(time.Second)
	_, err = f.coordinator.HandleScan(context.Background(), ScanInput{
		Code: f.freshCode(t, "drv-gold", "GD1111", models.CredentialEntry),
		Gate: "north-1",
	})
	require.Error(t, err)

	f.now = f.now.Add(150*time.Minute - time.Second)
	res, err := f.coordinator.HandleScan(context.Background(), ScanInput{
		Code:       f.freshCode(t, "drv-gold", "GD1111", models.CredentialExit),
		Gate:       "north-1",
		OperatorID: "op-2",
	})
	require.NoError(t, err)
	assert.Equal(t, entry.SessionID, res.SessionID)
	assert.Equal(t, 150, res.Charge.DurationMinutes)
	assert.Equal(t, 80.0, res.Charge.Amount)

	require.Len(t, f.audit.byKind(models.EventEntry), 1)
	require.Len(t, f.audit.byKind(models.EventExit), 1)
}
