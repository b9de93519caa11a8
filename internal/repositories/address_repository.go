package repositories

import (
	"errors"

	"gorm.io/gorm"

	"gigsos_backend/internal/models"
)

var ErrAddressNotFound = errors.New("address not found")

type AddressRepository interface {
	Create(db *gorm.DB, address *models.Address) error
	FindByID(db *gorm.DB, id uint64) (*models.Address, error)
	FindByUser(db *gorm.DB, userID uint64) ([]models.Address, error)
	Update(db *gorm.DB, address *models.Address) error
	Delete(db *gorm.DB, id uint64) error

	// UnsetDefaults снимает флаг is_default со всех адресов пользователя, кроме exceptID
	UnsetDefaults(db *gorm.DB, userID uint64, exceptID uint64) error
	SetDefault(db *gorm.DB, id uint64) error

	// Адреса с ненулевыми координатами для набора пользователей
	FindLocatedByUsers(db *gorm.DB, userIDs []uint64) ([]models.Address, error)
}

type AddressRepositoryImpl struct{}

func NewAddressRepository() AddressRepository {
	return &AddressRepositoryImpl{}
}

func (r *AddressRepositoryImpl) Create(db *gorm.DB, address *models.Address) error {
	return db.Create(address).Error
}

func (r *AddressRepositoryImpl) FindByID(db *gorm.DB, id uint64) (*models.Address, error) {
	var address models.Address
	if err := db.First(&address, id).Error; err != nil {
		return nil, notFound(err, ErrAddressNotFound)
	}
	return &address, nil
}

func (r *AddressRepositoryImpl) FindByUser(db *gorm.DB, userID uint64) ([]models.Address, error) {
	var addresses []models.Address
	err := db.Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("last_used_at DESC NULLS LAST").
		Order("created_at DESC").
		Find(&addresses).Error
	return addresses, err
}

func (r *AddressRepositoryImpl) Update(db *gorm.DB, address *models.Address) error {
	result := db.Model(address).Select("label", "address", "recipient", "phone", "notes", "latitude", "longitude", "is_default").
		Updates(address)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAddressNotFound
	}
	return nil
}

func (r *AddressRepositoryImpl) Delete(db *gorm.DB, id uint64) error {
	result := db.Delete(&models.Address{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAddressNotFound
	}
	return nil
}

func (r *AddressRepositoryImpl) UnsetDefaults(db *gorm.DB, userID uint64, exceptID uint64) error {
	query := db.Model(&models.Address{}).Where("user_id = ? AND is_default = ?", userID, true)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	return query.Update("is_default", false).Error
}

func (r *AddressRepositoryImpl) SetDefault(db *gorm.DB, id uint64) error {
	result := db.Model(&models.Address{}).Where("id = ?", id).Update("is_default", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAddressNotFound
	}
	return nil
}

func (r *AddressRepositoryImpl) FindLocatedByUsers(db *gorm.DB, userIDs []uint64) ([]models.Address, error) {
	var addresses []models.Address
	if len(userIDs) == 0 {
		return addresses, nil
	}
	err := db.Where("user_id IN ?", userIDs).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL AND latitude <> 0 AND longitude <> 0").
		Find(&addresses).Error
	return addresses, err
}
