package postgres

import (
	"context"
	"errors"
	"fmt"

	bookingserrors "hotelbook/internal/bookings/errors"
	"hotelbook/internal/bookings/repository"
	"hotelbook/pkg/config"
	"hotelbook/pkg/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const hotelColumns = `id::text, name, location, description, price_per_night, manager_user_id, created_at, updated_at`

type HotelRepository struct {
	pool *pgxpool.Pool
	cfg  *config.Config
}

var _ repository.HotelRepository = (*HotelRepository)(nil)

func NewHotelRepository(pool *pgxpool.Pool, cfg *config.Config) *HotelRepository {
	return &HotelRepository{pool: pool, cfg: cfg}
}

func (r *HotelRepository) Create(ctx context.Context, hotel *model.Hotel) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	const stmt = `
INSERT INTO hotels (name, location, description, price_per_night, manager_user_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id::text`
	err := conn(ctx, r.pool).QueryRow(ctx, stmt,
		hotel.Name,
		hotel.Location,
		hotel.Description,
		hotel.PricePerNight,
		hotel.ManagerUserID,
		hotel.CreatedAt,
		hotel.UpdatedAt,
	).Scan(&hotel.ID)
	if err != nil {
		return fmt.Errorf("create hotel: %w", err)
	}
	return nil
}

func (r *HotelRepository) FindByID(ctx context.Context, id string) (*model.Hotel, error) {
	return r.findOne(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE id = $1::uuid`, id)
}

func (r *HotelRepository) FindAll(ctx context.Context) ([]*model.Hotel, error) {
	return r.list(ctx, `SELECT `+hotelColumns+` FROM hotels ORDER BY created_at, id`)
}

func (r *HotelRepository) FindByManager(ctx context.Context, managerUserID string) ([]*model.Hotel, error) {
	return r.list(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE manager_user_id = $1 ORDER BY created_at, id`, managerUserID)
}

func (r *HotelRepository) Update(ctx context.Context, hotel *model.Hotel) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	const stmt = `
UPDATE hotels
SET name = $2, location = $3, description = $4, price_per_night = $5, updated_at = $6
WHERE id = $1::uuid`
	tag, err := conn(ctx, r.pool).Exec(ctx, stmt,
		hotel.ID,
		hotel.Name,
		hotel.Location,
		hotel.Description,
		hotel.PricePerNight,
		hotel.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return bookingserrors.ErrHotelNotFound
		}
		return fmt.Errorf("update hotel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bookingserrors.ErrHotelNotFound
	}
	return nil
}

// LockForAdmission holds the hotel row until the surrounding transaction ends.
func (r *HotelRepository) LockForAdmission(ctx context.Context, id string) (*model.Hotel, error) {
	return r.findOne(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE id = $1::uuid FOR UPDATE`, id)
}

func (r *HotelRepository) list(ctx context.Context, query string, args ...any) ([]*model.Hotel, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list hotels: %w", err)
	}
	defer rows.Close()

	hotels := []*model.Hotel{}
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hotel: %w", err)
		}
		hotels = append(hotels, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list hotels: %w", err)
	}
	return hotels, nil
}

func (r *HotelRepository) findOne(ctx context.Context, query, id string) (*model.Hotel, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	h, err := scanHotel(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, bookingserrors.ErrHotelNotFound
		}
		return nil, fmt.Errorf("find hotel: %w", err)
	}
	return h, nil
}

func scanHotel(row pgx.Row) (*model.Hotel, error) {
	var h model.Hotel
	err := row.Scan(&h.ID, &h.Name, &h.Location, &h.Description, &h.PricePerNight, &h.ManagerUserID, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}
