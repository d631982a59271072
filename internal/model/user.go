package model

import (
    "database/sql"
    "time"
)

// Role names stored in the users.role column. The directory keeps all
// three account kinds in a single table; the role tag decides which
// route group an account may authenticate against.
const (
    RoleAdmin   = "admin"
    RoleDoctor  = "doctor"
    RolePatient = "patient"
)

// User represents an account row in the `users` table. Accounts are
// shared by admins, doctors and patients; Specialization is only
// populated for doctors and stays NULL for everyone else.
//
// Fields:
//  ID             – UUID primary key, immutable once assigned.
//  Role           – one of admin, doctor, patient.
//  Username       – unique login name across all roles.
//  Email          – contact address used by notifications.
//  FullName       – display name.
//  PasswordHash   – bcrypt hash of the account password.
//  Specialization – medical specialization (doctors only, nullable).
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type User struct {
    ID             string         // users.id
    Role           string         // users.role
    Username       string         // users.username
    Email          string         // users.email
    FullName       string         // users.full_name
    PasswordHash   string         // users.password_hash
    Specialization sql.NullString // users.specialization (nullable)
    CreatedAt      time.Time      // users.created_at
    UpdatedAt      time.Time      // users.updated_at
}
