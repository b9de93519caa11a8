package dto

import (
	"time"

	"gigsos_backend/internal/models"
)

type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Address   *string  `json:"address" validate:"omitempty,max=500"`
}

type NearbyQuery struct {
	Latitude  *float64 `form:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `form:"longitude" validate:"required,gte=-180,lte=180"`
	Radius    *float64 `form:"radius" validate:"required,gte=0.1,lte=50"`
	Category  string   `form:"category" validate:"omitempty,job_category"`
}

// NearbyUser - публичная карточка пользователя рядом
type NearbyUser struct {
	ID                uint64     `json:"id"`
	Name              string     `json:"name"`
	ProfileImage      *string    `json:"profile_image"`
	Rating            float64    `json:"rating"`
	CompletedJobs     int        `json:"completed_jobs"`
	HelpedSOS         int        `json:"helped_sos"`
	IsVerified        bool       `json:"is_verified"`
	CurrentLatitude   float64    `json:"current_latitude"`
	CurrentLongitude  float64    `json:"current_longitude"`
	CurrentAddress    *string    `json:"current_address"`
	LocationUpdatedAt *time.Time `json:"location_updated_at,omitempty"`
	Distance          float64    `json:"distance"`
}

func NewNearbyUser(u *models.User, distance float64) NearbyUser {
	return NearbyUser{
		ID:                u.ID,
		Name:              u.Name,
		ProfileImage:      u.ProfileImage,
		Rating:            u.Rating,
		CompletedJobs:     u.CompletedJobs,
		HelpedSOS:         u.HelpedSOS,
		IsVerified:        u.IsVerified,
		CurrentLatitude:   *u.CurrentLatitude,
		CurrentLongitude:  *u.CurrentLongitude,
		CurrentAddress:    u.CurrentAddress,
		LocationUpdatedAt: u.LocationUpdatedAt,
		Distance:          distance,
	}
}
