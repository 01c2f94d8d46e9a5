package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "hotelbook/internal/bookings/errors"
	"hotelbook/internal/bookings/repository"
	"hotelbook/pkg/config"
	"hotelbook/pkg/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `b.id::text, b.user_id, b.hotel_id::text, b.check_in_date, b.check_out_date, b.status, b.created_at, b.updated_at`

type BookingRepository struct {
	pool *pgxpool.Pool
	cfg  *config.Config
}

var _ repository.BookingRepository = (*BookingRepository)(nil)

func NewBookingRepository(pool *pgxpool.Pool, cfg *config.Config) *BookingRepository {
	return &BookingRepository{pool: pool, cfg: cfg}
}

func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	const stmt = `
INSERT INTO bookings (user_id, hotel_id, check_in_date, check_out_date, status, created_at, updated_at)
VALUES ($1, $2::uuid, $3, $4, $5, $6, $7)
RETURNING id::text`
	err := conn(ctx, r.pool).QueryRow(ctx, stmt,
		booking.UserID,
		booking.HotelID,
		booking.CheckInDate.Time,
		booking.CheckOutDate.Time,
		string(booking.Status),
		booking.CreatedAt,
		booking.UpdatedAt,
	).Scan(&booking.ID)
	if err != nil {
		if isInvalidUUID(err) || isForeignKeyViolation(err) {
			return bookingserrors.ErrHotelNotFound
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1::uuid`
	booking, err := scanBooking(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bookingserrors.ErrNotFound
		}
		if isInvalidUUID(err) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return booking, nil
}

func (r *BookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	const stmt = `
UPDATE bookings
SET check_in_date = $2, check_out_date = $3, status = $4, updated_at = $5
WHERE id = $1::uuid`
	tag, err := conn(ctx, r.pool).Exec(ctx, stmt,
		booking.ID,
		booking.CheckInDate.Time,
		booking.CheckOutDate.Time,
		string(booking.Status),
		booking.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, booking.ID)
		}
		return fmt.Errorf("update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) FindOverlapping(ctx context.Context, hotelID string, checkIn, checkOut model.Date, excludeID string) ([]*model.Booking, error) {
	var exclude any
	if excludeID != "" {
		exclude = excludeID
	}

	query := `SELECT ` + bookingColumns + `
FROM bookings b
WHERE b.hotel_id = $1::uuid
  AND b.status <> 'Cancelled'
  AND b.check_in_date < $3
  AND b.check_out_date > $2
  AND ($4::uuid IS NULL OR b.id <> $4::uuid)
ORDER BY b.created_at, b.id`
	bookings, err := r.list(ctx, query, hotelID, checkIn.Time, checkOut.Time, exclude)
	if err != nil && isInvalidUUID(err) {
		return nil, fmt.Errorf("%w: %v", bookingserrors.ErrInvalidID, err)
	}
	return bookings, err
}

func (r *BookingRepository) FindByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.user_id = $1 ORDER BY b.created_at, b.id`
	return r.list(ctx, query, userID)
}

func (r *BookingRepository) FindByManagedHotels(ctx context.Context, managerUserID string) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + `
FROM bookings b
JOIN hotels h ON h.id = b.hotel_id
WHERE h.manager_user_id = $1
ORDER BY b.created_at, b.id`
	return r.list(ctx, query, managerUserID)
}

func (r *BookingRepository) FindAll(ctx context.Context) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b ORDER BY b.created_at, b.id`
	return r.list(ctx, query)
}

func (r *BookingRepository) ExecuteTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*model.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		b        model.Booking
		in, out  time.Time
		statusDB string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.HotelID, &in, &out, &statusDB, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.CheckInDate = model.DateOf(in)
	b.CheckOutDate = model.DateOf(out)
	b.Status = model.BookingStatus(statusDB)
	return &b, nil
}
