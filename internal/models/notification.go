package models

import (
	"time"

	"gorm.io/datatypes"
)

// Типы уведомлений
const (
	NotificationPrivateOrderNew         = "private_order_new"
	NotificationJobApplication          = "job_application"
	NotificationJobApplicationCancelled = "job_application_cancelled"
	NotificationJobAccepted             = "job_accepted"
	NotificationJobRejected             = "job_rejected"
	NotificationJobCompleted            = "job_completed"
	NotificationJobConfirmed            = "job_confirmed"
	NotificationJobDisputed             = "job_disputed"
	NotificationJobCancelled            = "job_cancelled"
	NotificationPrivateOrderAccepted    = "private_order_accepted"
	NotificationPrivateOrderRejected    = "private_order_rejected"
	NotificationSOSNearby               = "sos_nearby"
	NotificationSOSResponse             = "sos_response"
	NotificationSOSHelped               = "sos_helped"
	NotificationAdminBan                = "admin_ban"
	NotificationAdminUnban              = "admin_unban"
	NotificationAdminJobCancelled       = "admin_job_cancelled"
	NotificationAdminReviewRemoved      = "admin_review_removed"

	RelatedTypeJob         = "job"
	RelatedTypeApplication = "application"
	RelatedTypeSOS         = "sos"
	RelatedTypeReview      = "review"
	RelatedTypeUser        = "user"
)

type Notification struct {
	BaseModel
	UserID      uint64            `gorm:"not null;index:idx_notifications_user_read,priority:1" json:"user_id"`
	Type        string            `gorm:"not null;index" json:"type"`
	Title       string            `gorm:"not null" json:"title"`
	Body        string            `gorm:"type:text;not null" json:"body"`
	IsRead      bool              `gorm:"default:false;index:idx_notifications_user_read,priority:2" json:"is_read"`
	RelatedType *string           `json:"related_type"`
	RelatedID   *uint64           `json:"related_id"`
	Data        datatypes.JSONMap `gorm:"type:jsonb" json:"data"`
	ReadAt      *time.Time        `json:"read_at"`
}
