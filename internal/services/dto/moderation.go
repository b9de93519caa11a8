package dto

import (
	"time"

	"gigsos_backend/internal/models"
)

// ---------------- Requests ----------------

type BanUserRequest struct {
	Reason       string     `json:"reason" validate:"required,min=10,max=1000"`
	IsPermanent  bool       `json:"is_permanent"`
	DurationDays *int       `json:"duration_days" validate:"omitempty,min=1,max=365"`
	BannedUntil  *time.Time `json:"banned_until" validate:"omitempty,future"`
}

type UnbanUserRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=1000"`
}

type ForceCancelJobRequest struct {
	Reason string `json:"reason" validate:"required,min=10,max=1000"`
}

type DeleteReviewRequest struct {
	Reason string `json:"reason" validate:"required,min=10,max=1000"`
}

type SubmitBanComplaintRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Reason      string  `json:"reason" validate:"required,min=20,max=2000"`
	EvidenceURL *string `json:"evidence_url" validate:"omitempty,url,max=2048"`
}

type HandleBanComplaintRequest struct {
	Status models.BanComplaintStatus `json:"status" validate:"required,complaint_status"`
	Notes  string                    `json:"notes" validate:"required,min=5,max=2000"`
}

// ---------------- Admin queries ----------------

type AdminUserQuery struct {
	Role   string `form:"role" validate:"omitempty,user_role"`
	Status string `form:"status" validate:"omitempty,oneof=banned active"`
	Search string `form:"search" validate:"omitempty,max=255"`
	Page   int    `form:"page" validate:"omitempty,min=1"`
}

type AdminJobQuery struct {
	Status      string `form:"status" validate:"omitempty,job_status"`
	OnlyFlagged bool   `form:"only_flagged"`
	Page        int    `form:"page" validate:"omitempty,min=1"`
}

type AdminSOSQuery struct {
	Status string `form:"status" validate:"omitempty,sos_status"`
	Page   int    `form:"page" validate:"omitempty,min=1"`
}

type AdminReviewQuery struct {
	Rating int    `form:"rating" validate:"omitempty,min=1,max=5"`
	Search string `form:"search" validate:"omitempty,max=255"`
	Page   int    `form:"page" validate:"omitempty,min=1"`
}

type AdminComplaintQuery struct {
	Status string `form:"status" validate:"omitempty,complaint_status"`
	Page   int    `form:"page" validate:"omitempty,min=1"`
}

// ---------------- Responses ----------------

type DashboardStats struct {
	TotalUsers   int64 `json:"total_users"`
	BannedUsers  int64 `json:"banned_users"`
	ActiveJobs   int64 `json:"active_jobs"`
	DisputedJobs int64 `json:"disputed_jobs"`
	ActiveSOS    int64 `json:"active_sos"`
	CompletedSOS int64 `json:"completed_sos"`
	TotalReviews int64 `json:"total_reviews"`
}

type DashboardResponse struct {
	Stats         DashboardStats       `json:"stats"`
	RecentActions []models.AdminAction `json:"recent_actions"`
	RecentBans    []models.UserBan     `json:"recent_bans"`
}

type BanResponse struct {
	User            *models.User    `json:"user"`
	Ban             *models.UserBan `json:"ban"`
	SessionsRevoked int64           `json:"sessions_revoked"`
}
