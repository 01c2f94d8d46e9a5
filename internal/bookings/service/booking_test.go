package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	bookingserrors "hotelbook/internal/bookings/errors"
	apperrors "hotelbook/pkg/errors"
	"hotelbook/pkg/events"
	"hotelbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr, "expected an AppError, got %v", err)
	assert.Equal(t, status, appErr.HTTPStatus)
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_AdmitsPendingBookingForCaller(t *testing.T) {
	f := newFixture()

	b, err := f.svc.Create(context.Background(), alice, request("hotel-1", "2024-01-01", "2024-01-03"))
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "alice", b.UserID)
	assert.Equal(t, model.StatusPending, b.Status)
	assert.True(t, b.CheckInDate.Equal(model.NewDate(2024, 1, 1)))
	assert.Equal(t, f.clock, b.CreatedAt)
	assert.Equal(t, b.CreatedAt, b.UpdatedAt)

	assert.Equal(t, int64(10), f.wallets.points["alice"])
	assert.Equal(t, 1, f.wallets.calls)
	assert.Equal(t, []string{events.BookingCreated}, f.publisher.types())
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		identity model.Identity
		req      *model.BookingRequest
		sentinel error
		status   int
	}{
		{
			name:     "unauthenticated",
			identity: anonymous,
			req:      request("hotel-1", "2024-01-01", "2024-01-03"),
			status:   http.StatusUnauthorized,
		},
		{
			name:     "check-out equals check-in",
			identity: alice,
			req:      request("hotel-1", "2024-01-03", "2024-01-03"),
			sentinel: bookingserrors.ErrInvalidDateRange,
			status:   http.StatusBadRequest,
		},
		{
			name:     "check-out before check-in",
			identity: alice,
			req:      request("hotel-1", "2024-01-05", "2024-01-03"),
			sentinel: bookingserrors.ErrInvalidDateRange,
			status:   http.StatusBadRequest,
		},
		{
			name:     "unknown hotel",
			identity: alice,
			req:      request("hotel-404", "2024-01-01", "2024-01-03"),
			sentinel: bookingserrors.ErrHotelNotFound,
			status:   http.StatusNotFound,
		},
		{
			name:     "missing hotel id",
			identity: alice,
			req:      request("", "2024-01-01", "2024-01-03"),
			status:   http.StatusUnprocessableEntity,
		},
		{
			name:     "malformed date",
			identity: alice,
			req:      request("hotel-1", "01/01/2024", "2024-01-03"),
			status:   http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.Create(context.Background(), tt.identity, tt.req)
			require.Error(t, err)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
			requireStatus(t, err, tt.status)
			assert.Zero(t, f.wallets.calls)
			assert.Empty(t, f.publisher.types())
		})
	}
}

func TestCreate_OverlapRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, err := f.svc.Create(ctx, alice, request("hotel-1", "2024-01-01", "2024-01-03"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, bob, request("hotel-1", "2024-01-02", "2024-01-04"))
	assert.ErrorIs(t, err, bookingserrors.ErrOverlapConflict)
	requireStatus(t, err, http.StatusBadRequest)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, a.ID, appErr.Details["conflicting_booking_id"])

	// back-to-back
	_, err = f.svc.Create(ctx, bob, request("hotel-1", "2024-01-03", "2024-01-05"))
	assert.NoError(t, err)

	// other hotels are independent
	_, err = f.svc.Create(ctx, bob, request("hotel-2", "2024-01-01", "2024-01-03"))
	assert.NoError(t, err)

	_, err = f.svc.Cancel(ctx, alice, a.ID)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, bob, request("hotel-1", "2024-01-02", "2024-01-03"))
	assert.NoError(t, err, "cancellation frees capacity")
}

func TestCreate_LoyaltyFailureDoesNotRollBack(t *testing.T) {
	f := newFixture()
	f.wallets.err = errWalletDown

	b, err := f.svc.Create(context.Background(), alice, request("hotel-1", "2024-01-01", "2024-01-03"))
	require.NoError(t, err)

	stored := f.store.booking(b.ID)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Equal(t, 1, f.wallets.calls)
}

func TestCreate_PublishFailureIsSwallowed(t *testing.T) {
	f := newFixture()
	f.publisher.err = assert.AnError

	_, err := f.svc.Create(context.Background(), alice, request("hotel-1", "2024-01-01", "2024-01-03"))
	assert.NoError(t, err)
}

func TestCreate_StalledPublisherIsBounded(t *testing.T) {
	f := newFixture()
	f.cfg.WriteTimeout = 50 * time.Millisecond
	f.svc.publisher = stalledPublisher{}

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Create(context.Background(), alice, request("hotel-1", "2024-01-01", "2024-01-03"))
		done <- err
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("create blocked on event publication")
	}
}

func TestCreate_HotelBusy(t *testing.T) {
	f := newFixture()
	f.svc.locker = busyLocker{}

	_, err := f.svc.Create(context.Background(), alice, request("hotel-1", "2024-01-01", "2024-01-03"))
	assert.ErrorIs(t, err, bookingserrors.ErrHotelBusy)
	requireStatus(t, err, http.StatusServiceUnavailable)

	all, _ := (&memoryBookingRepository{store: f.store}).FindAll(context.Background())
	assert.Empty(t, all)
}

func TestCreate_ConcurrentSameHotelAdmitsExactlyOne(t *testing.T) {
	f := newFixture()
	f.store.overlapDelay = 2 * time.Millisecond

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Create(context.Background(), alice, request("hotel-1", "2024-02-01", "2024-02-05"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperrors.IsAppError(err) && assert.ErrorIs(t, err, bookingserrors.ErrOverlapConflict):
				conflicts++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
}

func TestCreate_ConcurrentDifferentHotelsRunInParallel(t *testing.T) {
	f := newFixture()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, hotel := range []string{"hotel-1", "hotel-2"} {
		i, hotel := i, hotel
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Create(context.Background(), alice, request(hotel, "2024-02-01", "2024-02-05"))
		}()
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
}

// ────────────────────────────────────────────────
// List / GetByID
// ────────────────────────────────────────────────

func seedBookings(t *testing.T, f *fixture) (aliceAtH1, bobAtH2 *model.Booking) {
	t.Helper()
	var err error
	aliceAtH1, err = f.svc.Create(context.Background(), alice, request("hotel-1", "2024-03-01", "2024-03-03"))
	require.NoError(t, err)
	bobAtH2, err = f.svc.Create(context.Background(), bob, request("hotel-2", "2024-03-01", "2024-03-03"))
	require.NoError(t, err)
	return aliceAtH1, bobAtH2
}

func TestList_ScopedByRole(t *testing.T) {
	f := newFixture()
	a, b := seedBookings(t, f)

	tests := []struct {
		name     string
		identity model.Identity
		want     []string
	}{
		{name: "admin sees all", identity: admin, want: []string{a.ID, b.ID}},
		{name: "manager sees managed hotels", identity: manager, want: []string{a.ID}},
		{name: "other manager", identity: stranger, want: []string{b.ID}},
		{name: "user sees own", identity: bob, want: []string{b.ID}},
		{name: "user without bookings", identity: model.Identity{UserID: "carol", Role: model.RoleUser}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.List(context.Background(), tt.identity)
			require.NoError(t, err)
			ids := []string{}
			for _, bk := range got {
				ids = append(ids, bk.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	_, err := f.svc.List(context.Background(), anonymous)
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestGetByID_Visibility(t *testing.T) {
	f := newFixture()
	a, _ := seedBookings(t, f)
	ctx := context.Background()

	for _, id := range []model.Identity{admin, manager, alice} {
		got, err := f.svc.GetByID(ctx, id, a.ID)
		require.NoError(t, err, id.UserID)
		assert.Equal(t, a.ID, got.ID)
	}

	for _, id := range []model.Identity{stranger, bob} {
		_, err := f.svc.GetByID(ctx, id, a.ID)
		assert.ErrorIs(t, err, bookingserrors.ErrAccessDenied, id.UserID)
		requireStatus(t, err, http.StatusForbidden)
	}

	_, err := f.svc.GetByID(ctx, admin, "b-9999")
	assert.ErrorIs(t, err, bookingserrors.ErrNotFound)
	requireStatus(t, err, http.StatusNotFound)
}

// ────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────

func TestUpdate_Authorization(t *testing.T) {
	tests := []struct {
		name     string
		identity model.Identity
		update   *model.BookingUpdate
		wantErr  error
	}{
		{name: "owner moves dates", identity: alice, update: &model.BookingUpdate{CheckOutDate: strPtr("2024-03-04")}},
		{name: "owner sets status", identity: alice, update: &model.BookingUpdate{Status: strPtr("Confirmed")}, wantErr: bookingserrors.ErrAccessDenied},
		{name: "other user", identity: bob, update: &model.BookingUpdate{CheckOutDate: strPtr("2024-03-04")}, wantErr: bookingserrors.ErrAccessDenied},
		{name: "manager of hotel confirms", identity: manager, update: &model.BookingUpdate{Status: strPtr("Confirmed")}},
		{name: "manager of hotel moves dates", identity: manager, update: &model.BookingUpdate{CheckInDate: strPtr("2024-02-28")}},
		{name: "manager of other hotel", identity: stranger, update: &model.BookingUpdate{Status: strPtr("Confirmed")}, wantErr: bookingserrors.ErrAccessDenied},
		{name: "admin confirms", identity: admin, update: &model.BookingUpdate{Status: strPtr("confirmed")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			a, _ := seedBookings(t, f)
			before := f.store.booking(a.ID)

			_, err := f.svc.Update(context.Background(), tt.identity, a.ID, tt.update)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				requireStatus(t, err, http.StatusForbidden)
				assert.Equal(t, before, f.store.booking(a.ID))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestUpdate_RefreshesUpdatedAtAndPublishes(t *testing.T) {
	f := newFixture()
	a, _ := seedBookings(t, f)
	f.advance(time.Hour)

	got, err := f.svc.Update(context.Background(), alice, a.ID, &model.BookingUpdate{
		CheckInDate:  strPtr("2024-03-02"),
		CheckOutDate: strPtr("2024-03-06"),
	})
	require.NoError(t, err)

	assert.True(t, got.CheckInDate.Equal(model.NewDate(2024, 3, 2)))
	assert.True(t, got.CheckOutDate.Equal(model.NewDate(2024, 3, 6)))
	assert.Equal(t, f.clock, got.UpdatedAt)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
	assert.Equal(t, got, ptr(f.store.booking(a.ID)))
	assert.Contains(t, f.publisher.types(), events.BookingUpdated)
}

func TestUpdate_OverlapExcludesSelf(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a, _ := seedBookings(t, f)
	other, err := f.svc.Create(ctx, bob, request("hotel-1", "2024-03-05", "2024-03-07"))
	require.NoError(t, err)

	// shrinking within its own range only overlaps itself
	_, err = f.svc.Update(ctx, alice, a.ID, &model.BookingUpdate{CheckOutDate: strPtr("2024-03-02")})
	assert.NoError(t, err)

	_, err = f.svc.Update(ctx, alice, a.ID, &model.BookingUpdate{CheckOutDate: strPtr("2024-03-06")})
	assert.ErrorIs(t, err, bookingserrors.ErrOverlapConflict)
	assert.Equal(t, other.ID, apperrors.AsAppError(err).Details["conflicting_booking_id"])

	// touching the neighbour is fine
	_, err = f.svc.Update(ctx, alice, a.ID, &model.BookingUpdate{CheckOutDate: strPtr("2024-03-05")})
	assert.NoError(t, err)
}

func TestUpdate_InvalidRangeAfterMerge(t *testing.T) {
	f := newFixture()
	a, _ := seedBookings(t, f)

	_, err := f.svc.Update(context.Background(), alice, a.ID, &model.BookingUpdate{CheckInDate: strPtr("2024-03-03")})
	assert.ErrorIs(t, err, bookingserrors.ErrInvalidDateRange)
	requireStatus(t, err, http.StatusBadRequest)
}

func TestUpdate_StatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []string
		wantErr bool
	}{
		{name: "pending to confirmed", path: []string{"Confirmed"}},
		{name: "pending to cancelled", path: []string{"Cancelled"}},
		{name: "confirmed to cancelled", path: []string{"Confirmed", "Cancelled"}},
		{name: "same status again", path: []string{"Pending"}},
		{name: "confirmed back to pending", path: []string{"Confirmed", "Pending"}, wantErr: true},
		{name: "cancelled to pending", path: []string{"Cancelled", "Pending"}, wantErr: true},
		{name: "cancelled to confirmed", path: []string{"Cancelled", "Confirmed"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			a, _ := seedBookings(t, f)

			var err error
			for _, status := range tt.path {
				_, err = f.svc.Update(context.Background(), manager, a.ID, &model.BookingUpdate{Status: strPtr(status)})
			}
			if tt.wantErr {
				assert.ErrorIs(t, err, bookingserrors.ErrInvalidStatusTransition)
				requireStatus(t, err, http.StatusBadRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.BookingStatus(tt.path[len(tt.path)-1]), f.store.booking(a.ID).Status)
		})
	}
}

func TestUpdate_CancelledBookingDatesAreFrozen(t *testing.T) {
	f := newFixture()
	a, _ := seedBookings(t, f)
	_, err := f.svc.Cancel(context.Background(), alice, a.ID)
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), admin, a.ID, &model.BookingUpdate{CheckOutDate: strPtr("2024-03-10")})
	assert.ErrorIs(t, err, bookingserrors.ErrInvalidStatusTransition)
}

func TestUpdate_MissingAndEmpty(t *testing.T) {
	f := newFixture()
	a, _ := seedBookings(t, f)

	_, err := f.svc.Update(context.Background(), admin, "b-9999", &model.BookingUpdate{Status: strPtr("Confirmed")})
	assert.ErrorIs(t, err, bookingserrors.ErrNotFound)

	_, err = f.svc.Update(context.Background(), admin, a.ID, &model.BookingUpdate{})
	requireStatus(t, err, http.StatusUnprocessableEntity)

	_, err = f.svc.Update(context.Background(), admin, a.ID, &model.BookingUpdate{Status: strPtr("Archived")})
	requireStatus(t, err, http.StatusUnprocessableEntity)
}

// ────────────────────────────────────────────────
// Cancel
// ────────────────────────────────────────────────

func TestCancel_IsIdempotent(t *testing.T) {
	f := newFixture()
	a, _ := seedBookings(t, f)
	ctx := context.Background()

	f.advance(time.Minute)
	first, err := f.svc.Cancel(ctx, alice, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, first.Status)
	assert.Equal(t, f.clock, first.UpdatedAt)

	f.advance(time.Minute)
	second, err := f.svc.Cancel(ctx, alice, a.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, *first, f.store.booking(a.ID))

	cancelled := 0
	for _, typ := range f.publisher.types() {
		if typ == events.BookingCancelled {
			cancelled++
		}
	}
	assert.Equal(t, 1, cancelled)
}

func TestCancel_Authorization(t *testing.T) {
	tests := []struct {
		name     string
		identity model.Identity
		allowed  bool
	}{
		{name: "owner", identity: alice, allowed: true},
		{name: "hotel manager", identity: manager, allowed: true},
		{name: "admin", identity: admin, allowed: true},
		{name: "other user", identity: bob},
		{name: "other manager", identity: stranger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			a, _ := seedBookings(t, f)

			_, err := f.svc.Cancel(context.Background(), tt.identity, a.ID)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, model.StatusCancelled, f.store.booking(a.ID).Status)
				return
			}
			assert.ErrorIs(t, err, bookingserrors.ErrAccessDenied)
			assert.Equal(t, model.StatusPending, f.store.booking(a.ID).Status)
		})
	}
}

func TestCancel_ConfirmedBooking(t *testing.T) {
	f := newFixture()
	a, _ := seedBookings(t, f)
	_, err := f.svc.Update(context.Background(), manager, a.ID, &model.BookingUpdate{Status: strPtr("Confirmed")})
	require.NoError(t, err)

	got, err := f.svc.Cancel(context.Background(), alice, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
}

func TestCancel_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Cancel(context.Background(), admin, "b-9999")
	assert.ErrorIs(t, err, bookingserrors.ErrNotFound)
	requireStatus(t, err, http.StatusNotFound)
}

func ptr[T any](v T) *T { return &v }
