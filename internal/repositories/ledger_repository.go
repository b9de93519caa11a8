package repositories

import (
	"gorm.io/gorm"

	"gigsos_backend/internal/models"
)

// LedgerRepository - операции журнала очков. Все методы рассчитаны на вызов внутри одной транзакции:
// LockBalance -> SaveBalance -> AppendEntry.
type LedgerRepository interface {
	// LockBalance блокирует строку пользователя (FOR UPDATE) и возвращает текущий total_points
	LockBalance(db *gorm.DB, userID uint64) (int, error)
	SaveBalance(db *gorm.DB, userID uint64, balance int) error
	AppendEntry(db *gorm.DB, entry *models.PointsEntry) error
	FindEntries(db *gorm.DB, userID uint64, page Pagination) ([]models.PointsEntry, int64, error)
}

type LedgerRepositoryImpl struct{}

func NewLedgerRepository() LedgerRepository {
	return &LedgerRepositoryImpl{}
}

func (r *LedgerRepositoryImpl) LockBalance(db *gorm.DB, userID uint64) (int, error) {
	var row struct {
		ID          uint64
		TotalPoints *int
	}
	err := forUpdate(db).Model(&models.User{}).
		Select("id", "total_points").
		Where("id = ?", userID).
		Take(&row).Error
	if err != nil {
		return 0, notFound(err, ErrUserNotFound)
	}
	if row.TotalPoints == nil {
		return 0, nil
	}
	return *row.TotalPoints, nil
}

func (r *LedgerRepositoryImpl) SaveBalance(db *gorm.DB, userID uint64, balance int) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).Update("total_points", balance)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *LedgerRepositoryImpl) AppendEntry(db *gorm.DB, entry *models.PointsEntry) error {
	return db.Create(entry).Error
}

func (r *LedgerRepositoryImpl) FindEntries(db *gorm.DB, userID uint64, page Pagination) ([]models.PointsEntry, int64, error) {
	var entries []models.PointsEntry
	query := db.Model(&models.PointsEntry{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Limit(page.Limit()).Offset(page.Offset()).Find(&entries).Error
	return entries, total, err
}
