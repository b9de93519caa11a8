package dto

type CreateAddressRequest struct {
	Label     string   `json:"label" validate:"required,max=255"`
	Address   string   `json:"address" validate:"required"`
	Recipient *string  `json:"recipient" validate:"omitempty,max=255"`
	Phone     *string  `json:"phone" validate:"omitempty,max=20"`
	Notes     *string  `json:"notes"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	IsDefault bool     `json:"is_default"`
}

type UpdateAddressRequest struct {
	Label     *string  `json:"label" validate:"omitempty,max=255"`
	Address   *string  `json:"address"`
	Recipient *string  `json:"recipient" validate:"omitempty,max=255"`
	Phone     *string  `json:"phone" validate:"omitempty,max=20"`
	Notes     *string  `json:"notes"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	IsDefault *bool    `json:"is_default"`
}
