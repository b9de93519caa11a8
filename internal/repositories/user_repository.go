package repositories

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"gigsos_backend/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// Счетчики пользователя, которые можно увеличивать
const (
	CounterCompletedJobs = "completed_jobs"
	CounterCompletedSOS  = "completed_sos"
	CounterHelpedSOS     = "helped_sos"
)

// kmPerDegreeLat - длина градуса меридиана при R = 6371 км
const kmPerDegreeLat = 111.19492664455873

type UserFilter struct {
	Role   models.UserRole
	Status string // banned | active
	Search string
	Pagination
}

// LeaderboardCandidate - пользователь с подсчитанным числом завершенных работ в категории
type LeaderboardCandidate struct {
	models.User
	CategoryJobsCount int64 `gorm:"column:category_jobs_count"`
}

type UserRepository interface {
	FindByID(db *gorm.DB, id uint64) (*models.User, error)
	FindByIDForUpdate(db *gorm.DB, id uint64) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	Create(db *gorm.DB, user *models.User) error
	ExistsByRole(db *gorm.DB, role models.UserRole) (bool, error)

	UpdateRating(db *gorm.DB, userID uint64, rating float64) error
	IncrementCounter(db *gorm.DB, userID uint64, counter string, delta int) error
	UpdateLocation(db *gorm.DB, userID uint64, lat, lon float64, address *string, at time.Time) error

	SaveBan(db *gorm.DB, user *models.User) error
	ClearBan(db *gorm.DB, userID uint64) error

	// Кандидаты с текущей локацией в широтной полосе вокруг центра; точный радиус проверяет вызывающий
	FindWithLocationNear(db *gorm.DB, lat, radiusKm float64, excludeID uint64) ([]models.User, error)

	FindLeaderboardCandidates(db *gorm.DB, category *models.JobCategory) ([]LeaderboardCandidate, error)
	TotalEarnings(db *gorm.DB, userIDs []uint64) (map[uint64]decimal.Decimal, error)

	// Admin
	FindWithFilter(db *gorm.DB, filter UserFilter) ([]models.User, int64, error)
	CountAll(db *gorm.DB) (int64, error)
	CountBanned(db *gorm.DB) (int64, error)
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id uint64) (*models.User, error) {
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id uint64) (*models.User, error) {
	var user models.User
	if err := forUpdate(db).First(&user, id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) Create(db *gorm.DB, user *models.User) error {
	if err := db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepositoryImpl) ExistsByRole(db *gorm.DB, role models.UserRole) (bool, error) {
	var count int64
	err := db.Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return count > 0, err
}

func (r *UserRepositoryImpl) UpdateRating(db *gorm.DB, userID uint64, rating float64) error {
	return r.updateColumns(db, userID, map[string]interface{}{"rating": rating})
}

func (r *UserRepositoryImpl) IncrementCounter(db *gorm.DB, userID uint64, counter string, delta int) error {
	switch counter {
	case CounterCompletedJobs, CounterCompletedSOS, CounterHelpedSOS:
	default:
		return errors.New("unknown user counter: " + counter)
	}
	return r.updateColumns(db, userID, map[string]interface{}{
		counter: gorm.Expr("COALESCE("+counter+", 0) + ?", delta),
	})
}

func (r *UserRepositoryImpl) UpdateLocation(db *gorm.DB, userID uint64, lat, lon float64, address *string, at time.Time) error {
	return r.updateColumns(db, userID, map[string]interface{}{
		"current_latitude":    lat,
		"current_longitude":   lon,
		"current_address":     address,
		"location_updated_at": at,
	})
}

func (r *UserRepositoryImpl) SaveBan(db *gorm.DB, user *models.User) error {
	return r.updateColumns(db, user.ID, map[string]interface{}{
		"is_banned":      user.IsBanned,
		"ban_started_at": user.BanStartedAt,
		"banned_until":   user.BannedUntil,
		"ban_reason":     user.BanReason,
		"last_banned_by": user.LastBannedBy,
	})
}

func (r *UserRepositoryImpl) ClearBan(db *gorm.DB, userID uint64) error {
	return r.updateColumns(db, userID, map[string]interface{}{
		"is_banned":      false,
		"ban_started_at": nil,
		"banned_until":   nil,
		"ban_reason":     nil,
	})
}

func (r *UserRepositoryImpl) FindWithLocationNear(db *gorm.DB, lat, radiusKm float64, excludeID uint64) ([]models.User, error) {
	var users []models.User
	band := radiusKm/kmPerDegreeLat + 0.01
	query := db.Where("current_latitude IS NOT NULL AND current_longitude IS NOT NULL").
		Where("current_latitude BETWEEN ? AND ?", lat-band, lat+band)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Find(&users).Error
	return users, err
}

func eligibleScope(db *gorm.DB) *gorm.DB {
	return db.Where("total_points > 0 OR completed_jobs > 0 OR completed_sos > 0 OR helped_sos > 0")
}

func (r *UserRepositoryImpl) FindLeaderboardCandidates(db *gorm.DB, category *models.JobCategory) ([]LeaderboardCandidate, error) {
	var candidates []LeaderboardCandidate
	query := db.Model(&models.User{}).Scopes(eligibleScope)

	if category == nil {
		err := query.Select("users.*, 0 AS category_jobs_count").Find(&candidates).Error
		return candidates, err
	}

	countSQL := "(SELECT COUNT(*) FROM jobs WHERE jobs.assigned_worker_id = users.id AND jobs.category = ? AND jobs.status = ?)"
	err := query.
		Select("users.*, "+countSQL+" AS category_jobs_count", *category, models.JobStatusCompleted).
		Where(countSQL+" > 0", *category, models.JobStatusCompleted).
		Find(&candidates).Error
	return candidates, err
}

func (r *UserRepositoryImpl) TotalEarnings(db *gorm.DB, userIDs []uint64) (map[uint64]decimal.Decimal, error) {
	result := make(map[uint64]decimal.Decimal, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		WorkerID uint64
		Total    decimal.Decimal
	}
	err := db.Model(&models.Job{}).
		Select("assigned_worker_id AS worker_id, COALESCE(SUM(price), 0) AS total").
		Where("assigned_worker_id IN ? AND status = ?", userIDs, models.JobStatusCompleted).
		Group("assigned_worker_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, id := range userIDs {
		result[id] = decimal.Zero
	}
	for _, row := range rows {
		result[row.WorkerID] = row.Total
	}
	return result, nil
}

func (r *UserRepositoryImpl) FindWithFilter(db *gorm.DB, filter UserFilter) ([]models.User, int64, error) {
	var users []models.User
	query := db.Model(&models.User{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	switch filter.Status {
	case "banned":
		query = query.Where("is_banned = ?", true)
	case "active":
		query = query.Where("is_banned = ?", false)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", search, search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Limit(filter.Limit()).Offset(filter.Offset()).
		Find(&users).Error
	return users, total, err
}

func (r *UserRepositoryImpl) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.User{}).Count(&count).Error
	return count, err
}

func (r *UserRepositoryImpl) CountBanned(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.User{}).Where("is_banned = ?", true).Count(&count).Error
	return count, err
}

func (r *UserRepositoryImpl) updateColumns(db *gorm.DB, userID uint64, fields map[string]interface{}) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
