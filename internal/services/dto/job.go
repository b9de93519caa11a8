package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"gigsos_backend/internal/models"
)

// ======================
// Request DTOs
// ======================

type CreateJobRequest struct {
	Title            string                 `json:"title" validate:"required,max=255"`
	Description      string                 `json:"description" validate:"required"`
	Category         models.JobCategory     `json:"category" validate:"required,job_category"`
	Price            *decimal.Decimal       `json:"price" validate:"required"`
	Latitude         *float64               `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude        *float64               `json:"longitude" validate:"required,gte=-180,lte=180"`
	Address          string                 `json:"address" validate:"required"`
	ScheduledTime    *time.Time             `json:"scheduled_time" validate:"omitempty,future"`
	ImageURLs        []string               `json:"image_urls" validate:"omitempty,dive,url"`
	AdditionalInfo   map[string]interface{} `json:"additional_info"`
	AssignedWorkerID *uint64                `json:"assigned_worker_id"`
}

type UpdateJobRequest struct {
	Title          *string                `json:"title" validate:"omitempty,max=255"`
	Description    *string                `json:"description"`
	Category       *models.JobCategory    `json:"category" validate:"omitempty,job_category"`
	Price          *decimal.Decimal       `json:"price"`
	Latitude       *float64               `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude      *float64               `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Address        *string                `json:"address"`
	ScheduledTime  *time.Time             `json:"scheduled_time"`
	ImageURLs      []string               `json:"image_urls" validate:"omitempty,dive,url"`
	AdditionalInfo map[string]interface{} `json:"additional_info"`
	Status         *models.JobStatus      `json:"status" validate:"omitempty,job_status"`
}

type ApplyJobRequest struct {
	Message *string `json:"message" validate:"omitempty,max=1000"`
}

type AssignJobRequest struct {
	WorkerID uint64 `json:"worker_id" validate:"required"`
}

type DisputeJobRequest struct {
	Reason string `json:"reason" validate:"required,min=10,max=1000"`
}

type CreateReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=500"`
}

// JobListQuery - публичный список
type JobListQuery struct {
	Status   string `form:"status" validate:"omitempty,job_status"`
	Category string `form:"category" validate:"omitempty,job_category"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	LocationQuery
}

type PageQuery struct {
	Page int `form:"page" validate:"omitempty,min=1"`
}

// ======================
// Response DTOs
// ======================

// PointsOutcome - результат начисления очков после коммита перехода.
// Ошибка начисления не отменяет переход и возвращается в теле ответа.
type PointsOutcome struct {
	PointsAwarded bool    `json:"points_awarded"`
	Points        int     `json:"points"`
	RecipientID   *uint64 `json:"points_recipient_id,omitempty"`
	PointsError   *string `json:"points_error,omitempty"`
}

type JobCompletionResponse struct {
	Job *models.Job `json:"job"`
	PointsOutcome
}

type AcceptApplicationResponse struct {
	Job                  *models.Job            `json:"job"`
	Application          *models.JobApplication `json:"application"`
	RejectedApplications int                    `json:"rejected_applications"`
}

// CancelScope - что именно отменено
type CancelScope string

const (
	CancelScopeJob         CancelScope = "job"
	CancelScopeApplication CancelScope = "application"
)

type CancelResponse struct {
	Scope       CancelScope            `json:"scope"`
	Job         *models.Job            `json:"job,omitempty"`
	Application *models.JobApplication `json:"application,omitempty"`
}

type WorkerReviewsResponse struct {
	Reviews       []models.JobReview `json:"reviews"`
	Total         int64              `json:"total"`
	AverageRating float64            `json:"average_rating"`
	Page          int                `json:"page"`
	PageSize      int                `json:"page_size"`
}
