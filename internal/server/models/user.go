package models

import "time"

// User is a stored account. HashedPassword never leaves the server.
type User struct {
	ID             string    `db:"id"`
	Email          string    `db:"email"`
	FullName       string    `db:"full_name"`
	HashedPassword string    `db:"hashed_password"`
	IsActive       bool      `db:"is_active"`
	IsVerified     bool      `db:"is_verified"`
	IsSuperuser    bool      `db:"is_superuser"`
	CreatedAt      time.Time `db:"created_at"`
}

// UserCreate is the registration input.
type UserCreate struct {
	Email    string
	FullName string
	Password string
}

// UserUpdate is a partial update; nil fields are left unchanged. The
// privilege flags are honoured only on the superuser path.
type UserUpdate struct {
	Email       *string
	FullName    *string
	Password    *string
	IsActive    *bool
	IsVerified  *bool
	IsSuperuser *bool
}

// Empty reports whether the update carries no field at all.
func (u UserUpdate) Empty() bool {
	return u.Email == nil && u.FullName == nil && u.Password == nil &&
		u.IsActive == nil && u.IsVerified == nil && u.IsSuperuser == nil
}
