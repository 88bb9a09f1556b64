package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tracklite/ticket-tracker/internal/domain"
)

// ProfileRepository defines persistence access for user profiles.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateRole(ctx context.Context, userID string, role domain.Role) error
	// ListDevelopers returns every user whose profile role is DEVELOPER,
	// ordered by name. This is the assignable set offered on the ticket form.
	ListDevelopers(ctx context.Context) ([]domain.User, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	const query = `SELECT user_id, role FROM profiles WHERE user_id=$1`
	var profile domain.Profile
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&profile.UserID, &profile.Role); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	const query = `UPDATE profiles SET role=$1 WHERE user_id=$2`
	cmd, err := r.pool.Exec(ctx, query, role, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) ListDevelopers(ctx context.Context) ([]domain.User, error) {
	const query = `
        SELECT u.id, u.name, u.email, u.password_hash, u.created_at, u.updated_at
        FROM users u
        JOIN profiles p ON p.user_id = u.id
        WHERE p.role = $1
        ORDER BY u.name`
	rows, err := r.pool.Query(ctx, query, domain.RoleDeveloper)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
