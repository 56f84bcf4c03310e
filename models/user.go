package models

import (
	"strings"
	"time"
)

// User is an authentication principal. Its domain profile is the Client
// linked through clients.user_id.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Username       string    `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Email          string    `gorm:"size:254;index" json:"email"`
	FirstName      string    `gorm:"size:150" json:"first_name"`
	LastName       string    `gorm:"size:150" json:"last_name"`
	HashedPassword []byte    `gorm:"not null" json:"-"`
	RoleID         *uint     `gorm:"index" json:"-"`
	Role           Role      `gorm:"foreignKey:RoleID;references:ID" json:"role"`
}

// FullName joins first and last name, empty when neither is set.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName is the full name with the username as fallback.
func (u *User) DisplayName() string {
	if n := u.FullName(); n != "" {
		return n
	}
	return u.Username
}

// IsSuperuser reports whether the user holds the administrator role.
// Role must be preloaded.
func (u *User) IsSuperuser() bool {
	return u.Role.Name == RoleAdministrator
}

// SetName splits a full name into first and last name on the first space.
func (u *User) SetName(full string) {
	parts := strings.Fields(full)
	u.FirstName, u.LastName = "", ""
	if len(parts) == 0 {
		return
	}
	u.FirstName = parts[0]
	u.LastName = strings.Join(parts[1:], " ")
}
