package models

import "time"

type Address struct {
	BaseModel
	UserID     uint64     `gorm:"not null;index:idx_addresses_user_default,priority:1" json:"user_id"`
	Label      string     `gorm:"not null" json:"label"`
	Address    string     `gorm:"type:text;not null" json:"address"`
	Recipient  *string    `json:"recipient"`
	Phone      *string    `json:"phone"`
	Notes      *string    `gorm:"type:text" json:"notes"`
	Latitude   *float64   `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude  *float64   `gorm:"type:decimal(11,8)" json:"longitude"`
	IsDefault  bool       `gorm:"default:false;index:idx_addresses_user_default,priority:2" json:"is_default"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

// HasUsableLocation - координаты заданы и не равны нулю
func (a *Address) HasUsableLocation() bool {
	return a.Latitude != nil && a.Longitude != nil && *a.Latitude != 0 && *a.Longitude != 0
}
