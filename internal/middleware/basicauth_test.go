package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/clinic-appointment-system/internal/middleware"
	"github.com/iliyamo/clinic-appointment-system/internal/model"
	"github.com/iliyamo/clinic-appointment-system/internal/repository"
	"github.com/iliyamo/clinic-appointment-system/internal/utils"
)

func TestBasicAuth(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	users := repository.NewUserRepo(db)

	hash, err := utils.HashPassword("swordfish", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "role", "username", "email", "full_name", "password_hash", "specialization", "created_at", "updated_at",
		}).AddRow("doc-1", model.RoleDoctor, "house", "h@x.test", "Greg House", hash, nil, time.Now(), time.Now())
	}

	e := echo.New()
	next := func(c echo.Context) error {
		u, ok := middleware.CurrentAccount(c)
		if !ok {
			t.Fatal("account missing from context")
		}
		return c.String(http.StatusOK, u.ID)
	}
	mw := middleware.BasicAuth(users, model.RoleDoctor)(next)

	t.Run("valid credentials", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM users").WillReturnRows(rows())
		req := httptest.NewRequest(http.MethodGet, "/doctor/profile", nil)
		req.SetBasicAuth("house", "swordfish")
		rec := httptest.NewRecorder()
		if err := mw(e.NewContext(req, rec)); err != nil {
			t.Fatalf("middleware: %v", err)
		}
		if rec.Code != http.StatusOK || rec.Body.String() != "doc-1" {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM users").WillReturnRows(rows())
		req := httptest.NewRequest(http.MethodGet, "/doctor/profile", nil)
		req.SetBasicAuth("house", "wrong")
		rec := httptest.NewRecorder()
		if err := mw(e.NewContext(req, rec)); err != nil {
			t.Fatalf("middleware: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/doctor/profile", nil)
		rec := httptest.NewRecorder()
		if err := mw(e.NewContext(req, rec)); err != nil {
			t.Fatalf("middleware: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Fatal("missing WWW-Authenticate challenge")
		}
	})
}
