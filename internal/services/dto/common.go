package dto

// PaginatedResponse - стандартная страница списка
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
	HasMore    bool        `json:"has_more"`
}

func NewPaginatedResponse(data interface{}, total int64, page, pageSize int) *PaginatedResponse {
	if page < 1 {
		page = 1
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

// LocationQuery - lat/lon/radius передаются вместе или не передаются вовсе
type LocationQuery struct {
	Latitude  *float64 `form:"latitude" json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `form:"longitude" json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Radius    *float64 `form:"radius" json:"radius" validate:"omitempty,gt=0,lte=50"`
}

// Complete - все три параметра заданы
func (q LocationQuery) Complete() bool {
	return q.Latitude != nil && q.Longitude != nil && q.Radius != nil
}

// Partial - задана часть параметров
func (q LocationQuery) Partial() bool {
	n := 0
	for _, set := range []bool{q.Latitude != nil, q.Longitude != nil, q.Radius != nil} {
		if set {
			n++
		}
	}
	return n > 0 && n < 3
}
