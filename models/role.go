package models

import "time"

// Role names seeded into the roles master table.
const (
	RoleAdministrator = "administrator"
	RoleUser          = "user"
)

// Role represents user roles with numeric primary key
type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
	Name        string    `gorm:"size:32;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
}
