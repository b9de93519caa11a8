package dto

import "gigsos_backend/internal/models"

// ---------------- Requests ----------------

type CreateSOSRequest struct {
	Title        string   `json:"title" validate:"required,max=255"`
	Description  string   `json:"description" validate:"required"`
	Latitude     *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Address      string   `json:"address" validate:"required"`
	RewardAmount *int     `json:"reward_amount" validate:"omitempty,min=0"`
}

// RespondSOSRequest - текущая позиция помощника
type RespondSOSRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type UpdateSOSRequest struct {
	Title        *string           `json:"title" validate:"omitempty,max=255"`
	Description  *string           `json:"description"`
	Latitude     *float64          `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64          `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Address      *string           `json:"address"`
	RewardAmount *int              `json:"reward_amount" validate:"omitempty,min=0"`
	Status       *models.SOSStatus `json:"status" validate:"omitempty,sos_update_status"`
	HelperID     *uint64           `json:"helper_id"`
}

type SOSListQuery struct {
	Status string `form:"status" validate:"omitempty,sos_status"`
	Page   int    `form:"page" validate:"omitempty,min=1"`
	LocationQuery
}

// ---------------- Responses ----------------

// SOSUpdateResponse - поля начисления присутствуют только при переходе в completed
type SOSUpdateResponse struct {
	SOS *models.SOSRequest `json:"sos"`
	*PointsOutcome
}
