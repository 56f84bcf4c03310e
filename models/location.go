package models

import "time"

// State is a federative unit, identified by its two letter UF code.
type State struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"size:80;not null" json:"name"`
	UF          string    `gorm:"column:uf;size:2;not null;index" json:"uf"`
	CreatedByID uint      `gorm:"index;not null" json:"created_by_id"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
}

type City struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"size:150;not null" json:"name"`
	StateID     uint      `gorm:"index;not null" json:"state_id"`
	State       *State    `gorm:"foreignKey:StateID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"state,omitempty"`
	CreatedByID uint      `gorm:"index;not null" json:"created_by_id"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
}

// Address is a street reference inside a City. A Client points at zero or one Address.
type Address struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Street       string    `gorm:"size:150;not null" json:"street"`
	Number       int       `gorm:"not null" json:"number"`
	Neighborhood string    `gorm:"size:150;not null" json:"neighborhood"`
	Complement   string    `gorm:"size:100" json:"complement"`
	CityID       uint      `gorm:"index;not null" json:"city_id"`
	City         *City     `gorm:"foreignKey:CityID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"city,omitempty"`
	CreatedByID  uint      `gorm:"index;not null" json:"created_by_id"`
	CreatedBy    *User     `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
}
