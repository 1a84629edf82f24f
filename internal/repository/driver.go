package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DriverRepo serves read-only driver lookups for the notification worker.
type DriverRepo struct{ db *pgxpool.Pool }

// NewDriverRepo creates a new DriverRepo.
func NewDriverRepo(db *pgxpool.Pool) *DriverRepo { return &DriverRepo{db: db} }

// Phone returns the driver's phone number, or "" if the driver does not exist.
func (r *DriverRepo) Phone(ctx context.Context, driverID string) (string, error) {
	var phone string
	err := r.db.QueryRow(ctx, `SELECT phone FROM drivers WHERE id = $1`, driverID).Scan(&phone)
	if err != nil {
		if IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("get driver phone %q: %w", driverID, err)
	}
	return phone, nil
}
