package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mytolk/mytolk-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const userColumns = `id, email, password_hash, display_name, country, phone_number, profile_picture, profession, status, created_at, updated_at`

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName, &user.Country,
		&user.PhoneNumber, &user.ProfilePicture, &user.Profession, &user.Status,
		&user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, email, password_hash, display_name, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + userColumns

	savedUser, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.DisplayName, user.Status,
		user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return savedUser, nil
}

// Search resolves a user by exact email equality or case-insensitive
// substring match on display name. Exactly one row must match: zero rows
// is ErrNotFound, more than one is ErrAmbiguous.
func (r *UserRepository) Search(ctx context.Context, query string) (model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users
		  WHERE email = $1 OR display_name ILIKE '%' || $1 || '%'
		  LIMIT 2`

	rows, err := r.db.Query(ctx, q, query)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var user model.User
		err := rows.Scan(
			&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName, &user.Country,
			&user.PhoneNumber, &user.ProfilePicture, &user.Profession, &user.Status,
			&user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return model.User{}, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return model.User{}, fmt.Errorf("failed to search users: %w", err)
	}

	switch len(users) {
	case 0:
		return model.User{}, model.ErrNotFound
	case 1:
		return users[0], nil
	default:
		return model.User{}, model.ErrAmbiguous
	}
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error {
	const query = `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	const query = `UPDATE users SET email = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id, email)
	if err != nil {
		return fmt.Errorf("failed to update user email: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash []byte) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update user password: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, profile model.Profile) error {
	const query = `UPDATE users
				   SET display_name = $2, country = $3, phone_number = $4,
				       profile_picture = $5, profession = $6, updated_at = NOW()
				   WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id,
		profile.DisplayName, profile.Country, profile.PhoneNumber,
		profile.ProfilePicture, profile.Profession,
	)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ResetProfile clears every profile field while preserving id and email.
func (r *UserRepository) ResetProfile(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE users
				   SET display_name = NULL, country = NULL, phone_number = NULL,
				       profile_picture = NULL, profession = NULL, updated_at = NOW()
				   WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to reset user profile: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM users WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
