package models

import "time"

// Client is the domain profile of a person owning relics. It may or may not
// be linked to a login account; the unique index on UserID keeps the link
// one-to-one.
type Client struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:150;not null" json:"name"`
	Nickname     string    `gorm:"size:50;not null" json:"nickname"`
	Email        string    `gorm:"size:254" json:"email"`
	BirthDate    time.Time `gorm:"type:date;not null" json:"birth_date"`
	PhotoPath    string    `gorm:"size:512" json:"photo_path,omitempty"`
	AddressID    *uint     `gorm:"index" json:"address_id"`
	Address      *Address  `gorm:"foreignKey:AddressID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"address,omitempty"`
	RegisterDate time.Time `gorm:"autoCreateTime;not null" json:"register_date"`
	LastActivity time.Time `gorm:"autoUpdateTime;not null" json:"last_activity"`
	CreatedByID  uint      `gorm:"index;not null" json:"created_by_id"`
	CreatedBy    *User     `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	UserID       *uint     `gorm:"uniqueIndex" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}
