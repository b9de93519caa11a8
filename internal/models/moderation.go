package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AdminActionUserBanned    = "user_banned"
	AdminActionUserUnbanned  = "user_unbanned"
	AdminActionJobCancelled  = "job_cancelled"
	AdminActionReviewDeleted = "review_deleted"
	// + "ban_complaint_<status>"
	AdminActionBanComplaintPrefix = "ban_complaint_"

	TargetTypeUser         = "user"
	TargetTypeJob          = "job"
	TargetTypeReview       = "review"
	TargetTypeBanComplaint = "ban_complaint"
)

// UserBan - запись аудита. Меняется только lifted_at при разбане.
type UserBan struct {
	BaseModel
	UserID      uint64            `gorm:"not null;index" json:"user_id"`
	AdminID     uint64            `gorm:"not null" json:"admin_id"`
	BannedFrom  time.Time         `gorm:"not null" json:"banned_from"`
	BannedUntil *time.Time        `json:"banned_until"`
	Reason      string            `gorm:"type:text;not null" json:"reason"`
	LiftedAt    *time.Time        `json:"lifted_at"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`

	User  *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Admin *User `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"admin,omitempty"`
}

// AdminAction - append-only журнал действий администраторов
type AdminAction struct {
	BaseModel
	AdminID    uint64            `gorm:"not null;index" json:"admin_id"`
	ActionType string            `gorm:"not null;index" json:"action_type"`
	TargetType string            `gorm:"not null" json:"target_type"`
	TargetID   *uint64           `json:"target_id"`
	Reason     *string           `gorm:"type:text" json:"reason"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`

	Admin *User `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"admin,omitempty"`
}

type BanComplaint struct {
	BaseModel
	UserID      uint64             `gorm:"not null;index" json:"user_id"`
	Email       string             `gorm:"not null" json:"email"`
	Reason      string             `gorm:"type:text;not null" json:"reason"`
	EvidenceURL *string            `gorm:"size:2048" json:"evidence_url"`
	Status      BanComplaintStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	AdminNotes  *string            `gorm:"type:text" json:"admin_notes"`
	HandledBy   *uint64            `json:"handled_by"`
	HandledAt   *time.Time         `json:"handled_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}
