package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/clinic-bookings/internal/domain"
	"github.com/diagnosis/clinic-bookings/internal/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id::text, last_name, first_name, phone, email, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.LastName, &u.FirstName, &u.Phone, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	const q = `
		INSERT INTO users (last_name, first_name, phone, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	out, err := scanUser(r.pool.QueryRow(ctx, q, u.LastName, u.FirstName, u.Phone, u.Email, u.PasswordHash, u.Role))
	return out, mapError(err)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE lower(email) = lower($1)`
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, q, uid))
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	uid, err := uuid.Parse(u.ID)
	if err != nil {
		return nil, nil
	}

	const q = `
		UPDATE users
		SET last_name = $2,
			first_name = $3,
			phone = $4,
			email = $5,
			password_hash = $6,
			role = $7,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	out, err := scanUser(r.pool.QueryRow(ctx, q, uid, u.LastName, u.FirstName, u.Phone, u.Email, u.PasswordHash, u.Role))
	return out, mapError(err)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return repository.ErrNotFound
	}

	const q = `DELETE FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, uid)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users ORDER BY created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// mapError turns unique violations into repository.ErrDuplicate.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repository.ErrDuplicate
	}
	return err
}
