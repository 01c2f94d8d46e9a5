package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	bookingserrors "hotelbook/internal/bookings/errors"
	"hotelbook/internal/bookings/validator"
	"hotelbook/pkg/config"
	"hotelbook/pkg/events"
	"hotelbook/pkg/lock"
	"hotelbook/pkg/logger"
	"hotelbook/pkg/model"
)

// ────────────────────────────────────────────────
// In-memory record store
// ────────────────────────────────────────────────

type memoryStore struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*model.Booking
	hotels   map[string]*model.Hotel
	// overlapDelay widens the check-then-write window in race tests.
	overlapDelay time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		bookings: map[string]*model.Booking{},
		hotels:   map[string]*model.Hotel{},
	}
}

func (s *memoryStore) addHotel(id, manager string) *model.Hotel {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := &model.Hotel{ID: id, Name: "Hotel " + id, Location: "Porto", ManagerUserID: manager}
	s.hotels[id] = h
	return h
}

func (s *memoryStore) booking(id string) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.bookings[id]
}

type memoryBookingRepository struct {
	store *memoryStore
}

func (r *memoryBookingRepository) Create(_ context.Context, booking *model.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.hotels[booking.HotelID]; !ok {
		return bookingserrors.ErrHotelNotFound
	}
	r.store.seq++
	booking.ID = fmt.Sprintf("b-%04d", r.store.seq)
	cp := *booking
	r.store.bookings[booking.ID] = &cp
	return nil
}

func (r *memoryBookingRepository) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memoryBookingRepository) Update(_ context.Context, booking *model.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.bookings[booking.ID]; !ok {
		return bookingserrors.ErrNotFound
	}
	cp := *booking
	r.store.bookings[booking.ID] = &cp
	return nil
}

func (r *memoryBookingRepository) FindOverlapping(_ context.Context, hotelID string, checkIn, checkOut model.Date, excludeID string) ([]*model.Booking, error) {
	if r.store.overlapDelay > 0 {
		time.Sleep(r.store.overlapDelay)
	}
	return r.filter(func(b *model.Booking) bool {
		return b.HotelID == hotelID && b.ID != excludeID && b.IsActive() && b.Overlaps(checkIn, checkOut)
	}), nil
}

func (r *memoryBookingRepository) FindByUser(_ context.Context, userID string) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool { return b.UserID == userID }), nil
}

func (r *memoryBookingRepository) FindByManagedHotels(_ context.Context, managerUserID string) ([]*model.Booking, error) {
	r.store.mu.Lock()
	managed := map[string]bool{}
	for id, h := range r.store.hotels {
		if h.ManagerUserID == managerUserID {
			managed[id] = true
		}
	}
	r.store.mu.Unlock()
	return r.filter(func(b *model.Booking) bool { return managed[b.HotelID] }), nil
}

func (r *memoryBookingRepository) FindAll(_ context.Context) ([]*model.Booking, error) {
	return r.filter(func(*model.Booking) bool { return true }), nil
}

func (r *memoryBookingRepository) ExecuteTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *memoryBookingRepository) filter(keep func(*model.Booking) bool) []*model.Booking {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []*model.Booking{}
	for _, b := range r.store.bookings {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memoryHotelRepository struct {
	store *memoryStore
}

func (r *memoryHotelRepository) Create(_ context.Context, hotel *model.Hotel) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.seq++
	hotel.ID = fmt.Sprintf("h-%04d", r.store.seq)
	cp := *hotel
	r.store.hotels[hotel.ID] = &cp
	return nil
}

func (r *memoryHotelRepository) FindByID(_ context.Context, id string) (*model.Hotel, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	h, ok := r.store.hotels[id]
	if !ok {
		return nil, bookingserrors.ErrHotelNotFound
	}
	cp := *h
	return &cp, nil
}

func (r *memoryHotelRepository) FindAll(_ context.Context) ([]*model.Hotel, error) {
	return r.filter(func(*model.Hotel) bool { return true }), nil
}

func (r *memoryHotelRepository) FindByManager(_ context.Context, managerUserID string) ([]*model.Hotel, error) {
	return r.filter(func(h *model.Hotel) bool { return h.ManagerUserID == managerUserID }), nil
}

func (r *memoryHotelRepository) Update(_ context.Context, hotel *model.Hotel) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.hotels[hotel.ID]
	if !ok {
		return bookingserrors.ErrHotelNotFound
	}
	stored.Name = hotel.Name
	stored.Location = hotel.Location
	stored.Description = hotel.Description
	stored.PricePerNight = hotel.PricePerNight
	stored.UpdatedAt = hotel.UpdatedAt
	return nil
}

func (r *memoryHotelRepository) filter(keep func(*model.Hotel) bool) []*model.Hotel {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []*model.Hotel{}
	for _, h := range r.store.hotels {
		if keep(h) {
			cp := *h
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memoryHotelRepository) LockForAdmission(ctx context.Context, id string) (*model.Hotel, error) {
	r.store.mu.Lock()
	h, ok := r.store.hotels[id]
	if ok {
		h.Version++
	}
	r.store.mu.Unlock()
	if !ok {
		return nil, bookingserrors.ErrHotelNotFound
	}
	return r.FindByID(ctx, id)
}

// ────────────────────────────────────────────────
// Collaborators
// ────────────────────────────────────────────────

type fakeWallets struct {
	mu     sync.Mutex
	points map[string]int64
	calls  int
	err    error
}

func (w *fakeWallets) AddPoints(_ context.Context, userID string, points int64) (*model.Wallet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.err != nil {
		return nil, w.err
	}
	if w.points == nil {
		w.points = map[string]int64{}
	}
	w.points[userID] += points
	return &model.Wallet{UserID: userID, Points: w.points[userID]}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

// stalledPublisher blocks until its context ends, like a producer whose
// broker is unreachable.
type stalledPublisher struct{}

func (stalledPublisher) Publish(ctx context.Context, _ events.BookingEvent) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stalledPublisher) Close() error { return nil }

type busyLocker struct{}

func (busyLocker) Acquire(_ context.Context, key string) (lock.Release, error) {
	return nil, fmt.Errorf("%w: %s", lock.ErrNotAcquired, key)
}

var errWalletDown = errors.New("wallet store down")

// ────────────────────────────────────────────────
// Fixture
// ────────────────────────────────────────────────

var (
	admin     = model.Identity{UserID: "admin-1", Role: model.RoleAdmin}
	manager   = model.Identity{UserID: "mgr-1", Role: model.RoleHotelManager}
	stranger  = model.Identity{UserID: "mgr-2", Role: model.RoleHotelManager}
	alice     = model.Identity{UserID: "alice", Role: model.RoleUser}
	bob       = model.Identity{UserID: "bob", Role: model.RoleUser}
	anonymous = model.Identity{}
)

type fixture struct {
	store     *memoryStore
	wallets   *fakeWallets
	publisher *recordingPublisher
	cfg       *config.Config
	svc       *bookingService
	hotels    HotelService
	clock     time.Time
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                     logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard, Service: "test"}),
		ReadTimeout:             time.Second,
		WriteTimeout:            time.Second,
		LoyaltyPointsPerBooking: 10,
	}
}

func newFixture() *fixture {
	f := &fixture{
		store:     newMemoryStore(),
		wallets:   &fakeWallets{},
		publisher: &recordingPublisher{},
		cfg:       testConfig(),
		clock:     time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
	}
	f.store.addHotel("hotel-1", manager.UserID)
	f.store.addHotel("hotel-2", stranger.UserID)

	v := validator.NewBookingValidator(f.cfg.Log)
	svc := NewBookingService(
		&memoryBookingRepository{store: f.store},
		&memoryHotelRepository{store: f.store},
		f.wallets,
		lock.NewKeyedMutex(2*time.Second),
		f.publisher,
		v,
		f.cfg,
	).(*bookingService)
	svc.now = func() time.Time { return f.clock }
	f.svc = svc
	hotels := NewHotelService(&memoryHotelRepository{store: f.store}, v, f.cfg).(*hotelService)
	hotels.now = func() time.Time { return f.clock }
	f.hotels = hotels
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func request(hotelID, checkIn, checkOut string) *model.BookingRequest {
	return &model.BookingRequest{HotelID: hotelID, CheckInDate: checkIn, CheckOutDate: checkOut}
}

func strPtr(s string) *string { return &s }
