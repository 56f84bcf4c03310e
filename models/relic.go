package models

import "time"

// Relic is a collectible item. ClientID is the single authoritative current
// owner; adoption rows only record history.
type Relic struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	PublicID     string       `gorm:"size:32;not null;uniqueIndex" json:"public_id"`
	Name         string       `gorm:"size:150;not null" json:"name"`
	Description  string       `gorm:"size:500" json:"description"`
	ObtainedDate *time.Time   `gorm:"type:date" json:"obtained_date"`
	AdoptionFee  bool         `gorm:"not null;default:false" json:"adoption_fee"`
	ClientID     uint         `gorm:"index;not null" json:"client_id"`
	Client       *Client      `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"client,omitempty"`
	CreatedByID  uint         `gorm:"index;not null" json:"created_by_id"`
	CreatedBy    *User        `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	Images       []RelicImage `gorm:"foreignKey:RelicID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images"`
}

// RelicImage is a stored picture of a relic. At most one image per relic
// carries IsMain.
type RelicImage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	RelicID     uint      `gorm:"index;not null" json:"relic_id"`
	StorePath   string    `gorm:"column:store_path;size:512;not null" json:"store_path"`
	ContentType string    `gorm:"size:128" json:"content_type"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Size        int64     `json:"size"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	IsMain      bool      `gorm:"not null;default:false" json:"is_main"`
}
