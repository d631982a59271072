package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/clinic-appointment-system/internal/model"
	"github.com/iliyamo/clinic-appointment-system/internal/utils"
)

func newMockRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

func userRows(u model.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "role", "username", "email", "full_name", "password_hash", "specialization", "created_at", "updated_at",
	}).AddRow(u.ID, u.Role, u.Username, u.Email, u.FullName, u.PasswordHash, u.Specialization, time.Now(), time.Now())
}

func TestCreateDuplicateUsername(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062: Duplicate entry 'alice' for key 'users.username'"))

	_, err := repo.Create(context.Background(), model.User{
		Role: model.RolePatient, Username: "alice", Email: "a@b.com", FullName: "Alice",
	}, "secret", bcrypt.MinCost)
	if !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("err = %v, want ErrUsernameExists", err)
	}
}

func TestGetByUsernameNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\? AND role=\\?").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost", model.RoleDoctor)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestAuthenticate(t *testing.T) {
	repo, mock := newMockRepo(t)
	hash, err := utils.HashPassword("correct-horse", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	u := model.User{ID: "u-1", Role: model.RoleDoctor, Username: "drwho", Email: "w@x.com", FullName: "Dr Who", PasswordHash: hash}

	mock.ExpectQuery("SELECT .+ FROM users").WillReturnRows(userRows(u))
	got, err := repo.Authenticate(context.Background(), "drwho", "correct-horse", model.RoleDoctor)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != "u-1" {
		t.Fatalf("wrong account: %+v", got)
	}

	mock.ExpectQuery("SELECT .+ FROM users").WillReturnRows(userRows(u))
	if _, err := repo.Authenticate(context.Background(), "drwho", "wrong", model.RoleDoctor); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}

	// Absent account reports the same error as a wrong password.
	mock.ExpectQuery("SELECT .+ FROM users").WillReturnError(sql.ErrNoRows)
	if _, err := repo.Authenticate(context.Background(), "nobody", "x", model.RoleDoctor); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	name := "New Name"
	mock.ExpectExec("UPDATE users SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM users WHERE id=\\? AND role=\\?").WillReturnError(sql.ErrNoRows)

	err := repo.Update(context.Background(), "missing", model.RoleDoctor, UserPatch{FullName: &name}, bcrypt.MinCost)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("DELETE FROM users").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "missing", model.RoleDoctor); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}
