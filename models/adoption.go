package models

import "time"

// Adoption records one ownership transfer of a relic between two clients.
// RelicID is nullable for legacy rows that predate the relic link.
type Adoption struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	AdoptionDate    time.Time `gorm:"autoCreateTime;not null" json:"adoption_date"`
	PaymentStatus   bool      `gorm:"not null;default:false" json:"payment_status"`
	RelicID         *uint     `gorm:"index" json:"relic_id"`
	Relic           *Relic    `gorm:"foreignKey:RelicID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"relic,omitempty"`
	PreviousOwnerID uint      `gorm:"index;not null" json:"previous_owner_id"`
	PreviousOwner   *Client   `gorm:"foreignKey:PreviousOwnerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"previous_owner,omitempty"`
	NewOwnerID      uint      `gorm:"index;not null" json:"new_owner_id"`
	NewOwner        *Client   `gorm:"foreignKey:NewOwnerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"new_owner,omitempty"`
	CreatedByID     uint      `gorm:"index;not null" json:"created_by_id"`
	CreatedBy       *User     `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
}

// AdoptionRelic is the detail row written with every relic transfer.
type AdoptionRelic struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	AdoptionID  uint      `gorm:"index;not null" json:"adoption_id"`
	Adoption    *Adoption `gorm:"foreignKey:AdoptionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	RelicID     uint      `gorm:"index;not null" json:"relic_id"`
	Relic       *Relic    `gorm:"foreignKey:RelicID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	CreatedByID uint      `gorm:"index;not null" json:"created_by_id"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
}

