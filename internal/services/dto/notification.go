package dto

import "gigsos_backend/internal/models"

// ---------------- Requests ----------------

type NotificationListQuery struct {
	UnreadOnly bool `form:"unread_only"`
	Page       int  `form:"page" validate:"omitempty,min=1"`
}

type MarkReadRequest struct {
	NotificationIDs []uint64 `json:"notification_ids" validate:"required,min=1,max=100"`
}

// ---------------- Responses ----------------

type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	UnreadCount   int64                 `json:"unread_count"`
	Page          int                   `json:"page"`
	PageSize      int                   `json:"page_size"`
	HasMore       bool                  `json:"has_more"`
}

type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}
