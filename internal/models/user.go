package models

import "time"

type User struct {
	BaseModel
	Name         string   `gorm:"not null" json:"name"`
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Phone        *string  `json:"phone,omitempty"`
	ProfileImage *string  `json:"profile_image,omitempty"`
	Role         UserRole `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	IsVerified   bool     `gorm:"default:false" json:"is_verified"`

	// Репутация и счетчики
	Rating        float64 `gorm:"type:decimal(3,2);default:0" json:"rating"`
	CompletedJobs int     `gorm:"default:0" json:"completed_jobs"`
	CompletedSOS  int     `gorm:"column:completed_sos;default:0" json:"completed_sos"`
	HelpedSOS     int     `gorm:"column:helped_sos;default:0" json:"helped_sos"`
	TotalPoints   int     `gorm:"default:0" json:"total_points"`

	// Текущая локация (одна на пользователя)
	CurrentLatitude   *float64   `gorm:"type:decimal(10,8)" json:"current_latitude"`
	CurrentLongitude  *float64   `gorm:"type:decimal(11,8)" json:"current_longitude"`
	CurrentAddress    *string    `json:"current_address"`
	LocationUpdatedAt *time.Time `json:"location_updated_at,omitempty"`

	// Бан
	IsBanned     bool       `gorm:"default:false" json:"is_banned"`
	BanStartedAt *time.Time `json:"ban_started_at,omitempty"`
	BannedUntil  *time.Time `json:"banned_until,omitempty"`
	BanReason    *string    `json:"ban_reason,omitempty"`
	LastBannedBy *uint64    `json:"last_banned_by,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role.IsAdmin()
}

func (u *User) HasCurrentLocation() bool {
	return u.CurrentLatitude != nil && u.CurrentLongitude != nil
}

// ---------------- Ban ----------------

// BanExpiry - Temporary(until) либо Permanent. В БД permanent хранится как banned_until = NULL.
type BanExpiry struct {
	permanent bool
	until     time.Time
}

func PermanentBan() BanExpiry {
	return BanExpiry{permanent: true}
}

func TemporaryBan(until time.Time) BanExpiry {
	return BanExpiry{until: until}
}

func (e BanExpiry) IsPermanent() bool {
	return e.permanent
}

// Until - момент окончания; ok=false для permanent
func (e BanExpiry) Until() (time.Time, bool) {
	if e.permanent {
		return time.Time{}, false
	}
	return e.until, true
}

// Column - значение для колонки banned_until
func (e BanExpiry) Column() *time.Time {
	if e.permanent {
		return nil
	}
	until := e.until
	return &until
}

// Expired - истек ли временный бан к моменту now
func (e BanExpiry) Expired(now time.Time) bool {
	return !e.permanent && !e.until.After(now)
}

// BanExpiry - вариант бана пользователя; ok=false если пользователь не забанен
func (u *User) BanExpiry() (BanExpiry, bool) {
	if !u.IsBanned {
		return BanExpiry{}, false
	}
	if u.BannedUntil == nil {
		return PermanentBan(), true
	}
	return TemporaryBan(*u.BannedUntil), true
}

type BanState int

const (
	BanStateNone BanState = iota
	BanStateActive
	BanStateExpired
)

// BanStateAt - состояние бана на момент now. Expired означает, что бан нужно снять.
func (u *User) BanStateAt(now time.Time) BanState {
	expiry, banned := u.BanExpiry()
	if !banned {
		return BanStateNone
	}
	if expiry.Expired(now) {
		return BanStateExpired
	}
	return BanStateActive
}

// ApplyBan выставляет поля бана
func (u *User) ApplyBan(expiry BanExpiry, reason string, adminID uint64, now time.Time) {
	u.IsBanned = true
	u.BanStartedAt = &now
	u.BannedUntil = expiry.Column()
	u.BanReason = &reason
	u.LastBannedBy = &adminID
}

// ClearBan очищает все поля бана (last_banned_by остается для истории)
func (u *User) ClearBan() {
	u.IsBanned = false
	u.BanStartedAt = nil
	u.BannedUntil = nil
	u.BanReason = nil
}

// UserSession - активная сессия; jti access-токена совпадает с TokenID
type UserSession struct {
	BaseModel
	UserID    uint64    `gorm:"not null;index" json:"user_id"`
	TokenID   string    `gorm:"not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}
