package assignment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang/mock/gomock"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"loadboard-dispatch/internal/apperr"
	"loadboard-dispatch/internal/domain"
	"loadboard-dispatch/internal/metrics"
	testlog "loadboard-dispatch/internal/testutil"
	"loadboard-dispatch/internal/verification"
)

const window = 15 * time.Minute

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingExpiry struct {
	mu        sync.Mutex
	armed     map[string]time.Time
	cancelled []string
	armErr    error
}

func (e *recordingExpiry) Arm(_ context.Context, id string, deadline time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.armErr != nil {
		return e.armErr
	}
	e.armed[id] = deadline
	return nil
}

func (e *recordingExpiry) Cancel(_ context.Context, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.armed, id)
	e.cancelled = append(e.cancelled, id)
}

func (e *recordingExpiry) deadline(id string) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.armed[id]
	return d, ok
}

func (e *recordingExpiry) wasCancelled(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.cancelled {
		if c == id {
			return true
		}
	}
	return false
}

type fixture struct {
	store    *memStore
	mr       *miniredis.Miniredis
	codes    *verification.Gateway
	expiry   *recordingExpiry
	notifier *MockNotifier
	clock    *fakeClock
	rec      *testlog.Recorder
	metrics  *metrics.Assignment
	c        *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &fixture{
		store:    newMemStore(),
		mr:       mr,
		codes:    verification.NewGateway(rdb, verification.Config{CodeLength: 6, MaxResends: 3, Secret: "test"}),
		expiry:   &recordingExpiry{armed: map[string]time.Time{}},
		notifier: NewMockNotifier(ctrl),
		clock:    &fakeClock{now: time.Now().UTC().Truncate(time.Millisecond)},
		rec:      testlog.New(),
		metrics:  metrics.NewAssignment(),
	}
	f.c = f.build(f.codes)
	return f
}

func (f *fixture) build(codes CodeIssuer) *Coordinator {
	c := NewCoordinator(f.store, codes, f.expiry, f.notifier, f.metrics,
		Config{AcceptWindow: window, OperationTimeout: time.Second}, f.rec.Logger())
	c.now = f.clock.Now
	return c
}

func (f *fixture) seed(loadID, driverID string) {
	f.store.addLoad(loadID, domain.LoadAvailable)
	f.store.addDriver(driverID, true, true)
}

func (f *fixture) assign(t *testing.T, loadID, driverID string) domain.Assignment {
	t.Helper()
	f.notifier.EXPECT().
		SendCode(gomock.Any(), driverID, loadID, gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)
	a, err := f.c.AssignLoad(context.Background(), loadID, driverID)
	require.NoError(t, err)
	return a
}

func (f *fixture) expectResolution(outcome domain.AssignmentStatus) *gomock.Call {
	return f.notifier.EXPECT().
		NotifyResolution(gomock.Any(), gomock.AssignableToTypeOf(domain.Resolution{})).
		DoAndReturn(func(_ context.Context, r domain.Resolution) error {
			if r.Outcome != outcome {
				return errors.New("unexpected outcome " + string(r.Outcome))
			}
			return nil
		})
}

func wrong(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestAssignLoad_CreatesPendingOffer(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	start := f.clock.Now()

	var sentCode string
	f.notifier.EXPECT().
		SendCode(gomock.Any(), "D1", "L1", gomock.Any(), gomock.Any(), start.Add(window)).
		DoAndReturn(func(_ context.Context, _, _, _, code string, _ time.Time) error {
			sentCode = code
			return nil
		})

	a, err := f.c.AssignLoad(context.Background(), " L1 ", "D1")
	require.NoError(t, err)

	require.NotEmpty(t, a.ID)
	require.Equal(t, domain.AssignmentPending, a.Status)
	require.Equal(t, start, a.CreatedAt)
	require.Equal(t, start.Add(window), a.AcceptanceDeadline)
	require.Len(t, a.VerificationCode, 6)
	require.Equal(t, a.VerificationCode, sentCode)

	require.Equal(t, domain.LoadPendingAcceptance, f.store.load("L1").Status)
	busy := f.store.driver("D1").BusyAssignmentID
	require.NotNil(t, busy)
	require.Equal(t, a.ID, *busy)

	deadline, ok := f.expiry.deadline(a.ID)
	require.True(t, ok)
	require.Equal(t, a.AcceptanceDeadline, deadline)

	stored := f.store.assignment(a.ID)
	require.Empty(t, stored.VerificationCode)
	require.Equal(t, 1.0, promtest.ToFloat64(f.metrics.Created))
}

func TestAssignLoad_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(f *fixture)
		loadID  string
		driver  string
		wantErr error
	}{
		{
			name:    "empty load id",
			setup:   func(*fixture) {},
			loadID:  " ",
			driver:  "D1",
			wantErr: apperr.ErrInvalid,
		},
		{
			name:    "unknown load",
			setup:   func(f *fixture) { f.store.addDriver("D1", true, true) },
			loadID:  "L1",
			driver:  "D1",
			wantErr: apperr.ErrNotFound,
		},
		{
			name:    "unknown driver",
			setup:   func(f *fixture) { f.store.addLoad("L1", domain.LoadAvailable) },
			loadID:  "L1",
			driver:  "D1",
			wantErr: apperr.ErrNotFound,
		},
		{
			name: "load not available",
			setup: func(f *fixture) {
				f.store.addLoad("L1", domain.LoadInTransit)
				f.store.addDriver("D1", true, true)
			},
			loadID:  "L1",
			driver:  "D1",
			wantErr: apperr.ErrLoadUnavailable,
		},
		{
			name: "unverified driver",
			setup: func(f *fixture) {
				f.store.addLoad("L1", domain.LoadAvailable)
				f.store.addDriver("D1", false, true)
			},
			loadID:  "L1",
			driver:  "D1",
			wantErr: apperr.ErrDriverIneligible,
		},
		{
			name: "inactive driver",
			setup: func(f *fixture) {
				f.store.addLoad("L1", domain.LoadAvailable)
				f.store.addDriver("D1", true, false)
			},
			loadID:  "L1",
			driver:  "D1",
			wantErr: apperr.ErrDriverIneligible,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			tt.setup(f)

			_, err := f.c.AssignLoad(context.Background(), tt.loadID, tt.driver)
			require.ErrorIs(t, err, tt.wantErr)
			require.Empty(t, f.store.assignments)
		})
	}
}

func TestAssignLoad_LoadAlreadyPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L4", "D4")
	f.store.addDriver("D5", true, true)
	a4 := f.assign(t, "L4", "D4")

	_, err := f.c.AssignLoad(context.Background(), "L4", "D5")
	require.ErrorIs(t, err, apperr.ErrLoadUnavailable)

	require.Equal(t, domain.AssignmentPending, f.store.assignment(a4.ID).Status)
	require.Nil(t, f.store.driver("D5").BusyAssignmentID)
}

func TestAssignLoad_DriverAlreadyAssigned(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	f.store.addLoad("L2", domain.LoadAvailable)
	f.assign(t, "L1", "D1")

	_, err := f.c.AssignLoad(context.Background(), "L2", "D1")
	require.ErrorIs(t, err, apperr.ErrDriverAlreadyAssigned)
	require.Equal(t, domain.LoadAvailable, f.store.load("L2").Status)
}

func TestAssignLoad_ArmFailureRollsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	f.expiry.armErr = errors.New("redis down")

	_, err := f.c.AssignLoad(context.Background(), "L1", "D1")
	require.Error(t, err)

	require.Empty(t, f.store.assignments)
	require.Equal(t, domain.LoadAvailable, f.store.load("L1").Status)
	require.Nil(t, f.store.driver("D1").BusyAssignmentID)
	require.Empty(t, f.mr.Keys())
}

func TestAssignLoad_IssueFailureRollsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")

	ctrl := gomock.NewController(t)
	codes := NewMockCodeIssuer(ctrl)
	codes.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("boom"))
	codes.EXPECT().Discard(gomock.Any(), gomock.Any()).Return(nil)
	c := f.build(codes)

	_, err := c.AssignLoad(context.Background(), "L1", "D1")
	require.Error(t, err)
	require.Empty(t, f.store.assignments)
	require.Equal(t, domain.LoadAvailable, f.store.load("L1").Status)
	require.Empty(t, f.expiry.armed)
}

func TestAssignLoad_CommitFailureCancelsTimer(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	f.store.txFail = errors.New("commit failed")

	_, err := f.c.AssignLoad(context.Background(), "L1", "D1")
	require.Error(t, err)
	require.Empty(t, f.expiry.armed)
	require.Len(t, f.expiry.cancelled, 1)
	require.Empty(t, f.mr.Keys())
}

func TestAssignLoad_NotificationFailureDoesNotFail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	f.notifier.EXPECT().
		SendCode(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("broker unavailable"))

	a, err := f.c.AssignLoad(context.Background(), "L1", "D1")
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentPending, f.store.assignment(a.ID).Status)

	e, ok := f.rec.Find("notification delivery failed")
	require.True(t, ok)
	require.Equal(t, "warn", e.Level)
	kind, _ := e.Field("error_kind")
	require.Equal(t, "notification_delivery_failed", kind)
	require.Equal(t, 1.0, promtest.ToFloat64(f.metrics.NotificationFailures.WithLabelValues("code")))
}

func TestAccept_WithinWindow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	a := f.assign(t, "L1", "D1")

	f.clock.Advance(5 * time.Minute)
	f.expectResolution(domain.AssignmentAccepted)

	got, err := f.c.Accept(context.Background(), a.ID, a.VerificationCode)
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentAccepted, got.Status)
	require.NotNil(t, got.VerifiedAt)
	require.Equal(t, f.clock.Now(), *got.ResolvedAt)

	require.Equal(t, domain.LoadAssigned, f.store.load("L1").Status)
	require.NotNil(t, f.store.driver("D1").BusyAssignmentID)
	require.True(t, f.expiry.wasCancelled(a.ID))
	require.Empty(t, f.mr.Keys())
	require.Equal(t, 1.0, promtest.ToFloat64(f.metrics.Resolved.WithLabelValues("accepted")))
}

func TestAccept_WrongCodeKeepsPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L3", "D3")
	a := f.assign(t, "L3", "D3")

	_, err := f.c.Accept(context.Background(), a.ID, wrong(a.VerificationCode))
	require.ErrorIs(t, err, apperr.ErrCodeMismatch)
	require.Equal(t, domain.AssignmentPending, f.store.assignment(a.ID).Status)
	require.Equal(t, domain.LoadPendingAcceptance, f.store.load("L3").Status)

	f.expectResolution(domain.AssignmentAccepted)
	_, err = f.c.Accept(context.Background(), a.ID, a.VerificationCode)
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentAccepted, f.store.assignment(a.ID).Status)
}

func TestAccept_AfterDeadlineIsExpired(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	a := f.assign(t, "L1", "D1")

	f.clock.Advance(window + time.Millisecond)

	_, err := f.c.Accept(context.Background(), a.ID, a.VerificationCode)
	require.ErrorIs(t, err, apperr.ErrAssignmentExpired)
	require.NotEqual(t, domain.AssignmentAccepted, f.store.assignment(a.ID).Status)
	require.Empty(t, f.rec.Level("error"))
}

func TestAccept_AtDeadlineIsAllowed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	a := f.assign(t, "L1", "D1")

	f.clock.Advance(window)
	f.expectResolution(domain.AssignmentAccepted)

	_, err := f.c.Accept(context.Background(), a.ID, a.VerificationCode)
	require.NoError(t, err)
}

func TestAccept_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.c.Accept(context.Background(), "", "123456")
	require.ErrorIs(t, err, apperr.ErrInvalid)
	_, err = f.c.Accept(context.Background(), "a", " ")
	require.ErrorIs(t, err, apperr.ErrInvalid)
	_, err = f.c.Accept(context.Background(), "missing", "123456")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDecline_ReleasesLoadAndDriver(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	a := f.assign(t, "L1", "D1")

	f.notifier.EXPECT().
		NotifyResolution(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r domain.Resolution) error {
			require.Equal(t, a.ID, r.AssignmentID)
			require.Equal(t, domain.AssignmentDeclined, r.Outcome)
			require.True(t, r.NeedsReassignment())
			return nil
		})

	got, err := f.c.Decline(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentDeclined, got.Status)
	require.Equal(t, domain.LoadAvailable, f.store.load("L1").Status)
	require.Nil(t, f.store.driver("D1").BusyAssignmentID)
	require.True(t, f.expiry.wasCancelled(a.ID))
}

func TestDecline_ThenAcceptIsAlreadyResolved(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	a := f.assign(t, "L1", "D1")
	f.expectResolution(domain.AssignmentDeclined)

	_, err := f.c.Decline(context.Background(), a.ID)
	require.NoError(t, err)

	_, err = f.c.Accept(context.Background(), a.ID, a.VerificationCode)
	require.ErrorIs(t, err, apperr.ErrAssignmentAlreadyResolved)
	_, err = f.c.Decline(context.Background(), a.ID)
	require.ErrorIs(t, err, apperr.ErrAssignmentAlreadyResolved)

	e, ok := f.rec.Find("assignment operation lost the race")
	require.True(t, ok)
	require.Equal(t, "info", e.Level)
	require.Empty(t, f.rec.Level("error"))
}

func TestDecline_ThenTimerFireIsNoop(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	a := f.assign(t, "L1", "D1")
	f.expectResolution(domain.AssignmentDeclined).Times(1)

	_, err := f.c.Decline(context.Background(), a.ID)
	require.NoError(t, err)

	f.clock.Advance(window + time.Second)
	require.NoError(t, f.c.Expire(context.Background(), a.ID))

	require.Equal(t, domain.AssignmentDeclined, f.store.assignment(a.ID).Status)
	require.Equal(t, 0.0, promtest.ToFloat64(f.metrics.Resolved.WithLabelValues("expired")))
}

func TestExpire_ReleasesAndNotifies(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L2", "D2")
	a := f.assign(t, "L2", "D2")

	f.clock.Advance(window + time.Second)
	f.expectResolution(domain.AssignmentExpired).Times(1)

	require.NoError(t, f.c.Expire(context.Background(), a.ID))
	require.NoError(t, f.c.Expire(context.Background(), a.ID))

	got := f.store.assignment(a.ID)
	require.Equal(t, domain.AssignmentExpired, got.Status)
	require.Equal(t, domain.LoadAvailable, f.store.load("L2").Status)
	require.Nil(t, f.store.driver("D2").BusyAssignmentID)
	require.Equal(t, 1.0, promtest.ToFloat64(f.metrics.Resolved.WithLabelValues("expired")))

	f.store.addDriver("D9", true, true)
	f.assign(t, "L2", "D9")
}

func TestExpire_UnknownAssignmentIsNoop(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.c.Expire(context.Background(), "missing"))
}

func TestExpire_BeforeDeadlineIsNoop(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	a := f.assign(t, "L1", "D1")

	f.clock.Advance(window - time.Second)
	require.NoError(t, f.c.Expire(context.Background(), a.ID))

	require.Equal(t, domain.AssignmentPending, f.store.assignment(a.ID).Status)
	require.Equal(t, domain.LoadPendingAcceptance, f.store.load("L1").Status)
	require.NotNil(t, f.store.driver("D1").BusyAssignmentID)
	require.Zero(t, promtest.ToFloat64(f.metrics.Resolved.WithLabelValues("expired")))

	f.expectResolution(domain.AssignmentAccepted)
	_, err := f.c.Accept(context.Background(), a.ID, a.VerificationCode)
	require.NoError(t, err)
}

func TestAcceptRacingExpire_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	for i := 0; i < 25; i++ {
		f := newFixture(t)
		f.seed("L1", "D1")
		a := f.assign(t, "L1", "D1")
		f.clock.Advance(window)

		var notified atomic.Int32
		f.notifier.EXPECT().
			NotifyResolution(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, domain.Resolution) error {
				notified.Add(1)
				return nil
			}).
			AnyTimes()

		var (
			wg        sync.WaitGroup
			acceptErr error
			expireErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, acceptErr = f.c.Accept(context.Background(), a.ID, a.VerificationCode)
		}()
		go func() {
			defer wg.Done()
			expireErr = f.c.Expire(context.Background(), a.ID)
		}()
		wg.Wait()

		require.NoError(t, expireErr)
		require.Equal(t, int32(1), notified.Load())

		final := f.store.assignment(a.ID)
		switch final.Status {
		case domain.AssignmentAccepted:
			require.NoError(t, acceptErr)
			require.Equal(t, domain.LoadAssigned, f.store.load("L1").Status)
			require.NotNil(t, f.store.driver("D1").BusyAssignmentID)
		case domain.AssignmentExpired:
			require.ErrorIs(t, acceptErr, apperr.ErrAssignmentAlreadyResolved)
			require.Equal(t, domain.LoadAvailable, f.store.load("L1").Status)
			require.Nil(t, f.store.driver("D1").BusyAssignmentID)
		default:
			t.Fatalf("unexpected final status %q", final.Status)
		}
	}
}

func TestResendCode_RotatesAndLimits(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	a := f.assign(t, "L1", "D1")

	f.notifier.EXPECT().
		SendCode(gomock.Any(), "D1", "L1", a.ID, gomock.Any(), a.AcceptanceDeadline).
		Return(nil).
		Times(3)

	var last domain.Assignment
	for i := 1; i <= 3; i++ {
		got, err := f.c.ResendCode(context.Background(), a.ID)
		require.NoError(t, err)
		require.Equal(t, i, got.ResendCount)
		require.Equal(t, a.AcceptanceDeadline, got.AcceptanceDeadline)
		last = got
	}

	_, err := f.c.ResendCode(context.Background(), a.ID)
	require.ErrorIs(t, err, apperr.ErrResendLimitExceeded)
	require.Equal(t, 3, f.store.assignment(a.ID).ResendCount)

	f.expectResolution(domain.AssignmentAccepted)
	_, err = f.c.Accept(context.Background(), a.ID, last.VerificationCode)
	require.NoError(t, err)

	_, err = f.c.ResendCode(context.Background(), a.ID)
	require.ErrorIs(t, err, apperr.ErrAssignmentAlreadyResolved)
}

func TestResendCode_AfterDeadline(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	a := f.assign(t, "L1", "D1")
	f.clock.Advance(window + time.Second)

	_, err := f.c.ResendCode(context.Background(), a.ID)
	require.ErrorIs(t, err, apperr.ErrAssignmentExpired)
	require.Equal(t, 0, f.store.assignment(a.ID).ResendCount)
}

func TestGet_ReturnsSnapshotWithoutCode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	a := f.assign(t, "L1", "D1")

	got, err := f.c.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
	require.Equal(t, domain.AssignmentPending, got.Status)
	require.Empty(t, got.VerificationCode)

	_, err = f.c.Get(context.Background(), "missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateLoadStatus_Lifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	a := f.assign(t, "L1", "D1")
	f.expectResolution(domain.AssignmentAccepted)
	_, err := f.c.Accept(context.Background(), a.ID, a.VerificationCode)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = f.c.UpdateLoadStatus(ctx, "L1", domain.LoadDelivered)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)

	l, err := f.c.UpdateLoadStatus(ctx, "L1", domain.LoadInTransit)
	require.NoError(t, err)
	require.Equal(t, domain.LoadInTransit, l.Status)
	require.NotNil(t, f.store.driver("D1").BusyAssignmentID)

	_, err = f.c.UpdateLoadStatus(ctx, "L1", domain.LoadDelivered)
	require.NoError(t, err)
	require.Equal(t, domain.LoadDelivered, f.store.load("L1").Status)
	require.Nil(t, f.store.driver("D1").BusyAssignmentID)

	_, err = f.c.UpdateLoadStatus(ctx, "L1", domain.LoadCancelled)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestUpdateLoadStatus_DeliveredDriverTakesNextOffer(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	f.store.addLoad("L2", domain.LoadAvailable)
	first := f.assign(t, "L1", "D1")
	f.expectResolution(domain.AssignmentAccepted)
	_, err := f.c.Accept(context.Background(), first.ID, first.VerificationCode)
	require.NoError(t, err)

	_, err = f.c.AssignLoad(context.Background(), "L2", "D1")
	require.ErrorIs(t, err, apperr.ErrDriverAlreadyAssigned)

	ctx := context.Background()
	_, err = f.c.UpdateLoadStatus(ctx, "L1", domain.LoadInTransit)
	require.NoError(t, err)
	_, err = f.c.UpdateLoadStatus(ctx, "L1", domain.LoadDelivered)
	require.NoError(t, err)

	second := f.assign(t, "L2", "D1")
	require.Equal(t, domain.AssignmentAccepted, f.store.assignment(first.ID).Status)
	busy := f.store.driver("D1").BusyAssignmentID
	require.NotNil(t, busy)
	require.Equal(t, second.ID, *busy)
}

func TestUpdateLoadStatus_Rejections(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	f.assign(t, "L1", "D1")
	ctx := context.Background()

	_, err := f.c.UpdateLoadStatus(ctx, "L1", domain.LoadCancelled)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.c.UpdateLoadStatus(ctx, "L1", domain.LoadStatus("lost"))
	require.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = f.c.UpdateLoadStatus(ctx, "nope", domain.LoadCancelled)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	f.store.addLoad("L2", domain.LoadAvailable)
	_, err = f.c.UpdateLoadStatus(ctx, "L2", domain.LoadCancelled)
	require.NoError(t, err)
}

func TestExpireOverdue_SweepsPastDeadline(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed("L1", "D1")
	f.seed("L2", "D2")
	f.seed("L3", "D3")
	a1 := f.assign(t, "L1", "D1")
	a2 := f.assign(t, "L2", "D2")
	f.clock.Advance(time.Minute)
	a3 := f.assign(t, "L3", "D3")

	f.clock.Advance(window - 30*time.Second)
	f.expectResolution(domain.AssignmentExpired).Times(2)

	n, err := f.c.ExpireOverdue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, domain.AssignmentExpired, f.store.assignment(a1.ID).Status)
	require.Equal(t, domain.AssignmentExpired, f.store.assignment(a2.ID).Status)
	require.Equal(t, domain.AssignmentPending, f.store.assignment(a3.ID).Status)

	n, err = f.c.ExpireOverdue(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.c.RunSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
