package dto

import "github.com/shopspring/decimal"

// CategoryAll - глобальный рейтинг
const CategoryAll = "all"

type LeaderboardQuery struct {
	Category string `form:"category" validate:"omitempty"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=100"`
	LocationQuery
}

type LeaderboardEntry struct {
	Rank              int             `json:"rank"`
	ID                uint64          `json:"id"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	ProfileImage      *string         `json:"profile_image"`
	Rating            float64         `json:"rating"`
	CompletedJobs     int             `json:"completed_jobs"`
	CompletedSOS      int             `json:"completed_sos"`
	HelpedSOS         int             `json:"helped_sos"`
	TotalPoints       int             `json:"total_points"`
	TotalEarnings     decimal.Decimal `json:"total_earnings"`
	IsVerified        bool            `json:"is_verified"`
	CurrentAddress    *string         `json:"current_address"`
	CurrentLatitude   *float64        `json:"current_latitude"`
	CurrentLongitude  *float64        `json:"current_longitude"`
	CategoryJobsCount *int64          `json:"category_jobs_count,omitempty"`
	Distance          *float64        `json:"distance,omitempty"`
}

type LeaderboardResponse struct {
	Category string             `json:"category"`
	Entries  []LeaderboardEntry `json:"entries"`
}

type UserRankingResponse struct {
	UserID      uint64  `json:"user_id"`
	Rank        int     `json:"rank"`
	TotalUsers  int     `json:"total_users"`
	Percentile  float64 `json:"percentile"`
	TotalPoints int     `json:"total_points"`
}
