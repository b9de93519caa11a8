package repositories

import (
	"errors"

	"gorm.io/gorm"

	"gigsos_backend/internal/geo"
	"gigsos_backend/internal/models"
)

var (
	ErrSOSNotFound            = errors.New("sos request not found")
	ErrSOSHelperAlreadyExists = errors.New("helper already responded to this sos request")
	ErrSOSHelperNotFound      = errors.New("sos helper not found")
)

type SOSFilter struct {
	Status   models.SOSStatus
	Center   *geo.Point
	RadiusKm float64
	Pagination
}

type SOSRepository interface {
	Create(db *gorm.DB, sos *models.SOSRequest) error
	FindByID(db *gorm.DB, id uint64) (*models.SOSRequest, error)
	FindByIDForUpdate(db *gorm.DB, id uint64) (*models.SOSRequest, error)
	Save(db *gorm.DB, sos *models.SOSRequest) error
	Delete(db *gorm.DB, id uint64) error

	FindWithFilter(db *gorm.DB, filter SOSFilter) ([]models.SOSRequest, int64, error)
	FindByRequester(db *gorm.DB, requesterID uint64, page Pagination) ([]models.SOSRequest, int64, error)
	FindActiveNear(db *gorm.DB, lat, radiusKm float64) ([]models.SOSRequest, error)
	CountByStatus(db *gorm.DB, status models.SOSStatus) (int64, error)

	CreateHelper(db *gorm.DB, helper *models.SOSHelper) error
	FindHelper(db *gorm.DB, sosID, helperID uint64) (*models.SOSHelper, error)
	// FirstHelper - самый ранний отклик (responded_at, затем id); nil если откликов нет
	FirstHelper(db *gorm.DB, sosID uint64) (*models.SOSHelper, error)
}

type SOSRepositoryImpl struct{}

func NewSOSRepository() SOSRepository {
	return &SOSRepositoryImpl{}
}

func (r *SOSRepositoryImpl) Create(db *gorm.DB, sos *models.SOSRequest) error {
	return db.Omit("Requester", "Helper", "Helpers").Create(sos).Error
}

func (r *SOSRepositoryImpl) FindByID(db *gorm.DB, id uint64) (*models.SOSRequest, error) {
	var sos models.SOSRequest
	err := db.Preload("Requester").Preload("Helper").
		Preload("Helpers", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("responded_at ASC").Order("id ASC")
		}).
		Preload("Helpers.Helper").
		First(&sos, id).Error
	if err != nil {
		return nil, notFound(err, ErrSOSNotFound)
	}
	return &sos, nil
}

func (r *SOSRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id uint64) (*models.SOSRequest, error) {
	var sos models.SOSRequest
	if err := forUpdate(db).First(&sos, id).Error; err != nil {
		return nil, notFound(err, ErrSOSNotFound)
	}
	return &sos, nil
}

func (r *SOSRepositoryImpl) Save(db *gorm.DB, sos *models.SOSRequest) error {
	return db.Omit("Requester", "Helper", "Helpers").Save(sos).Error
}

func (r *SOSRepositoryImpl) Delete(db *gorm.DB, id uint64) error {
	result := db.Delete(&models.SOSRequest{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSOSNotFound
	}
	return nil
}

func (r *SOSRepositoryImpl) FindWithFilter(db *gorm.DB, filter SOSFilter) ([]models.SOSRequest, int64, error) {
	var requests []models.SOSRequest
	query := db.Model(&models.SOSRequest{})
	if filter.Status != "" {
		query = query.Where("sos_requests.status = ?", filter.Status)
	}

	var distanceExpr string
	var distanceArgs []interface{}
	if filter.Center != nil {
		distanceExpr, distanceArgs = geo.SQLDistance("sos_requests.latitude", "sos_requests.longitude", *filter.Center)
		query = query.Where(distanceExpr+" <= ?", withArg(distanceArgs, filter.RadiusKm)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Center != nil {
		query = query.Select("sos_requests.*, "+distanceExpr+" AS distance", distanceArgs...).Order("distance ASC")
	} else {
		query = query.Order("sos_requests.created_at DESC")
	}

	err := query.Preload("Requester").
		Limit(filter.Limit()).Offset(filter.Offset()).
		Find(&requests).Error
	return requests, total, err
}

func (r *SOSRepositoryImpl) FindByRequester(db *gorm.DB, requesterID uint64, page Pagination) ([]models.SOSRequest, int64, error) {
	var requests []models.SOSRequest
	query := db.Model(&models.SOSRequest{}).Where("requester_id = ?", requesterID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Helpers").
		Order("created_at DESC").
		Limit(page.Limit()).Offset(page.Offset()).
		Find(&requests).Error
	return requests, total, err
}

func (r *SOSRepositoryImpl) FindActiveNear(db *gorm.DB, lat, radiusKm float64) ([]models.SOSRequest, error) {
	var requests []models.SOSRequest
	band := radiusKm/kmPerDegreeLat + 0.01
	err := db.Preload("Requester").
		Where("status = ?", models.SOSStatusActive).
		Where("latitude BETWEEN ? AND ?", lat-band, lat+band).
		Find(&requests).Error
	return requests, err
}

func (r *SOSRepositoryImpl) CountByStatus(db *gorm.DB, status models.SOSStatus) (int64, error) {
	var count int64
	err := db.Model(&models.SOSRequest{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *SOSRepositoryImpl) CreateHelper(db *gorm.DB, helper *models.SOSHelper) error {
	if err := db.Omit("Helper").Create(helper).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrSOSHelperAlreadyExists
		}
		return err
	}
	return nil
}

func (r *SOSRepositoryImpl) FindHelper(db *gorm.DB, sosID, helperID uint64) (*models.SOSHelper, error) {
	var helper models.SOSHelper
	err := db.Where("sos_id = ? AND helper_id = ?", sosID, helperID).First(&helper).Error
	if err != nil {
		return nil, notFound(err, ErrSOSHelperNotFound)
	}
	return &helper, nil
}

func (r *SOSRepositoryImpl) FirstHelper(db *gorm.DB, sosID uint64) (*models.SOSHelper, error) {
	var helper models.SOSHelper
	err := db.Where("sos_id = ?", sosID).
		Order("responded_at ASC").Order("id ASC").
		Take(&helper).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &helper, nil
}
