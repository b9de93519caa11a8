package models

import (
	"time"
)

// BaseModel - общие поля. ID целочисленный и монотонный: рейтинг использует его как финальный tie-break.
type BaseModel struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
