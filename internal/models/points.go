package models

// PointsEntry - журнал начислений, одна строка на каждое изменение total_points
type PointsEntry struct {
	BaseModel
	UserID       uint64 `gorm:"not null;index" json:"user_id"`
	Delta        int    `gorm:"not null" json:"delta"`
	Reason       string `gorm:"not null" json:"reason"`
	BalanceAfter int    `gorm:"not null" json:"balance_after"`
}
