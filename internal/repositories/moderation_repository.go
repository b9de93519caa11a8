package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"gigsos_backend/internal/models"
)

var ErrBanComplaintNotFound = errors.New("ban complaint not found")

type ComplaintFilter struct {
	Status models.BanComplaintStatus
	Pagination
}

// ModerationRepository - аудит модерации: баны, действия администраторов, жалобы на бан
type ModerationRepository interface {
	CreateBan(db *gorm.DB, ban *models.UserBan) error
	// LiftLatestBan ставит lifted_at последней открытой записи бана
	LiftLatestBan(db *gorm.DB, userID uint64, at time.Time) error
	FindRecentBans(db *gorm.DB, limit int) ([]models.UserBan, error)

	CreateAction(db *gorm.DB, action *models.AdminAction) error
	FindRecentActions(db *gorm.DB, limit int) ([]models.AdminAction, error)

	CreateComplaint(db *gorm.DB, complaint *models.BanComplaint) error
	FindComplaintByIDForUpdate(db *gorm.DB, id uint64) (*models.BanComplaint, error)
	SaveComplaint(db *gorm.DB, complaint *models.BanComplaint) error
	FindComplaints(db *gorm.DB, filter ComplaintFilter) ([]models.BanComplaint, int64, error)
}

type ModerationRepositoryImpl struct{}

func NewModerationRepository() ModerationRepository {
	return &ModerationRepositoryImpl{}
}

func (r *ModerationRepositoryImpl) CreateBan(db *gorm.DB, ban *models.UserBan) error {
	return db.Omit("User", "Admin").Create(ban).Error
}

func (r *ModerationRepositoryImpl) LiftLatestBan(db *gorm.DB, userID uint64, at time.Time) error {
	var ban models.UserBan
	err := forUpdate(db).
		Where("user_id = ? AND lifted_at IS NULL", userID).
		Order("banned_from DESC").Order("id DESC").
		Take(&ban).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// пользователь мог быть забанен до появления аудита
		return nil
	}
	if err != nil {
		return err
	}
	return db.Model(&models.UserBan{}).Where("id = ?", ban.ID).Update("lifted_at", at).Error
}

func (r *ModerationRepositoryImpl) FindRecentBans(db *gorm.DB, limit int) ([]models.UserBan, error) {
	var bans []models.UserBan
	err := db.Preload("User").Preload("Admin").
		Order("created_at DESC").Limit(limit).
		Find(&bans).Error
	return bans, err
}

func (r *ModerationRepositoryImpl) CreateAction(db *gorm.DB, action *models.AdminAction) error {
	return db.Omit("Admin").Create(action).Error
}

func (r *ModerationRepositoryImpl) FindRecentActions(db *gorm.DB, limit int) ([]models.AdminAction, error) {
	var actions []models.AdminAction
	err := db.Preload("Admin").
		Order("created_at DESC").Limit(limit).
		Find(&actions).Error
	return actions, err
}

func (r *ModerationRepositoryImpl) CreateComplaint(db *gorm.DB, complaint *models.BanComplaint) error {
	return db.Omit("User").Create(complaint).Error
}

func (r *ModerationRepositoryImpl) FindComplaintByIDForUpdate(db *gorm.DB, id uint64) (*models.BanComplaint, error) {
	var complaint models.BanComplaint
	if err := forUpdate(db).First(&complaint, id).Error; err != nil {
		return nil, notFound(err, ErrBanComplaintNotFound)
	}
	return &complaint, nil
}

func (r *ModerationRepositoryImpl) SaveComplaint(db *gorm.DB, complaint *models.BanComplaint) error {
	return db.Omit("User").Save(complaint).Error
}

func (r *ModerationRepositoryImpl) FindComplaints(db *gorm.DB, filter ComplaintFilter) ([]models.BanComplaint, int64, error) {
	var complaints []models.BanComplaint
	query := db.Model(&models.BanComplaint{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("User").
		Order("created_at DESC").
		Limit(filter.Limit()).Offset(filter.Offset()).
		Find(&complaints).Error
	return complaints, total, err
}
