package models

import "time"

const DefaultSOSReward = 10000

type SOSRequest struct {
	BaseModel
	RequesterID  uint64     `gorm:"not null;index" json:"requester_id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"type:text;not null" json:"description"`
	Latitude     float64    `gorm:"type:decimal(10,8);not null" json:"latitude"`
	Longitude    float64    `gorm:"type:decimal(11,8);not null" json:"longitude"`
	Address      string     `gorm:"type:text;not null" json:"address"`
	Status       SOSStatus  `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	HelperID     *uint64    `json:"helper_id"`
	CompletedAt  *time.Time `json:"completed_at"`
	RewardAmount int        `gorm:"not null;default:10000" json:"reward_amount"`

	// Distance - только для чтения, заполняется запросами с фильтром по радиусу (км)
	Distance *float64 `gorm:"->;-:migration" json:"distance,omitempty"`

	Requester *User       `gorm:"foreignKey:RequesterID;constraint:OnDelete:CASCADE" json:"requester,omitempty"`
	Helper    *User       `gorm:"foreignKey:HelperID;constraint:OnDelete:SET NULL" json:"helper,omitempty"`
	Helpers   []SOSHelper `gorm:"foreignKey:SOSID" json:"helpers,omitempty"`
}

func (SOSRequest) TableName() string {
	return "sos_requests"
}

type SOSHelper struct {
	BaseModel
	SOSID       uint64          `gorm:"column:sos_id;not null;uniqueIndex:idx_sos_helpers_sos_helper" json:"sos_id"`
	HelperID    uint64          `gorm:"not null;uniqueIndex:idx_sos_helpers_sos_helper" json:"helper_id"`
	RespondedAt time.Time       `gorm:"not null" json:"responded_at"`
	Distance    float64         `gorm:"type:decimal(8,2);not null" json:"distance"`
	Status      SOSHelperStatus `gorm:"type:varchar(20);not null;default:'responding'" json:"status"`

	Helper *User `gorm:"foreignKey:HelperID;constraint:OnDelete:CASCADE" json:"helper,omitempty"`
}

func (SOSHelper) TableName() string {
	return "sos_helpers"
}
