package postgres

import (
	"context"
	"fmt"
	"time"

	"hotelbook/internal/bookings/repository"
	"hotelbook/pkg/config"
	"hotelbook/pkg/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type WalletRepository struct {
	pool *pgxpool.Pool
	cfg  *config.Config
}

var _ repository.WalletRepository = (*WalletRepository)(nil)

func NewWalletRepository(pool *pgxpool.Pool, cfg *config.Config) *WalletRepository {
	return &WalletRepository{pool: pool, cfg: cfg}
}

func (r *WalletRepository) AddPoints(ctx context.Context, userID string, points int64) (*model.Wallet, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	const stmt = `
INSERT INTO wallets (user_id, points, last_updated)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE
SET points = wallets.points + EXCLUDED.points, last_updated = EXCLUDED.last_updated
RETURNING user_id, points, last_updated`

	var w model.Wallet
	err := conn(ctx, r.pool).QueryRow(ctx, stmt, userID, points, time.Now().UTC()).Scan(&w.UserID, &w.Points, &w.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("add loyalty points: %w", err)
	}
	return &w, nil
}
