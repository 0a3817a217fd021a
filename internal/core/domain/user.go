package domain

import "time"

// Role is the access level derived from the staff/superuser flags. It is never stored.
type Role string

const (
	RoleCommon Role = "common_user"
	RoleStaff  Role = "staff_user"
	RoleSuper  Role = "super_user"
)

// User models an account in the credential store.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	IsActive     bool       `json:"is_active"`
	IsStaff      bool       `json:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser"`
	Language     string     `json:"language"`
	Timezone     string     `json:"timezone"`
	Currency     string     `json:"currency"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Role reports the user's access level: superuser wins over staff.
func (u *User) Role() Role {
	return RoleOf(u.IsStaff, u.IsSuperuser)
}

// RoleOf derives a Role from the two stored flags.
func RoleOf(isStaff, isSuperuser bool) Role {
	switch {
	case isSuperuser:
		return RoleSuper
	case isStaff:
		return RoleStaff
	default:
		return RoleCommon
	}
}

// IsStaffOrAdmin reports whether u may use staff-only operations.
func (u *User) IsStaffOrAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

// UserPatch carries a partial update. Nil fields are left untouched.
type UserPatch struct {
	Email     *string
	FirstName *string
	LastName  *string
	Language  *string
	Timezone  *string
	Currency  *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Email == nil && p.FirstName == nil && p.LastName == nil &&
		p.Language == nil && p.Timezone == nil && p.Currency == nil
}

// Apply copies the supplied fields onto u.
func (p UserPatch) Apply(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Language != nil {
		u.Language = *p.Language
	}
	if p.Timezone != nil {
		u.Timezone = *p.Timezone
	}
	if p.Currency != nil {
		u.Currency = *p.Currency
	}
}
