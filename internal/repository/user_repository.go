package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/clinic-appointment-system/internal/model"
	"github.com/iliyamo/clinic-appointment-system/internal/utils"
)

const userColumns = "id,role,username,email,full_name,password_hash,specialization,created_at,updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts an account with a freshly generated UUID and returns
// its id. The password is hashed before it reaches the database.
func (r *UserRepo) Create(ctx context.Context, u model.User, password string, cost int) (string, error) {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, role, username, email, full_name, password_hash, specialization) VALUES (?,?,?,?,?,?,?)",
		id, u.Role, u.Username, u.Email, u.FullName, hash, u.Specialization)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return "", ErrUsernameExists
		}
		return "", err
	}
	return id, nil
}

// GetByUsername fetches an account by username and role.
func (r *UserRepo) GetByUsername(ctx context.Context, username, role string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? AND role=? LIMIT 1",
		strings.TrimSpace(username), role).
		Scan(&u.ID, &u.Role, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.Specialization, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches an account by id and role. The role guard keeps one
// role's handlers from reading another role's rows by guessed id.
func (r *UserRepo) GetByID(ctx context.Context, id, role string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND role=? LIMIT 1",
		id, role).
		Scan(&u.ID, &u.Role, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.Specialization, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// ListByRole returns all accounts with the given role ordered by name.
func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE role=? ORDER BY full_name", role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Role, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.Specialization, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UserPatch carries optional profile fields for Update. Nil pointers
// leave the stored column untouched.
type UserPatch struct {
	FullName       *string
	Email          *string
	Specialization *string
	Password       *string // hashed before storage
}

// Update applies a partial profile update to the account with the
// given id and role. ErrUserNotFound is returned when no row matches.
func (r *UserRepo) Update(ctx context.Context, id, role string, p UserPatch, cost int) error {
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 6)
	if p.FullName != nil {
		sets = append(sets, "full_name=?")
		args = append(args, *p.FullName)
	}
	if p.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*p.Email)))
	}
	if p.Specialization != nil {
		sets = append(sets, "specialization=?")
		args = append(args, *p.Specialization)
	}
	if p.Password != nil {
		hash, err := utils.HashPassword(*p.Password, cost)
		if err != nil {
			return err
		}
		sets = append(sets, "password_hash=?")
		args = append(args, hash)
	}
	if len(sets) == 0 {
		// Nothing to change; still report absence so callers see 404s.
		_, err := r.GetByID(ctx, id, role)
		return err
	}
	args = append(args, id, role)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=? AND role=?", args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is 0 both for absent rows and for no-op updates;
		// disambiguate with a lookup.
		if _, err := r.GetByID(ctx, id, role); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the account with the given id and role.
func (r *UserRepo) Delete(ctx context.Context, id, role string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=? AND role=?", id, role)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Authenticate verifies the supplied credentials for a role and
// returns the matching account. Every request re-authenticates; no
// session or token is ever issued.
func (r *UserRepo) Authenticate(ctx context.Context, username, password, role string) (model.User, error) {
	u, err := r.GetByUsername(ctx, username, role)
	if err == ErrUserNotFound {
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}
