package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"gigsos_backend/internal/models"
)

var (
	ErrApplicationNotFound      = errors.New("application not found")
	ErrApplicationAlreadyExists = errors.New("application already exists")
)

type ApplicationRepository interface {
	Create(db *gorm.DB, application *models.JobApplication) error
	FindByID(db *gorm.DB, id uint64) (*models.JobApplication, error)
	FindByIDForUpdate(db *gorm.DB, id uint64) (*models.JobApplication, error)
	FindByJobAndWorker(db *gorm.DB, jobID, workerID uint64) (*models.JobApplication, error)
	FindByJob(db *gorm.DB, jobID uint64) ([]models.JobApplication, error)
	FindByWorker(db *gorm.DB, workerID uint64, page Pagination) ([]models.JobApplication, int64, error)

	UpdateStatus(db *gorm.DB, id uint64, status models.ApplicationStatus) error
	// Reactivate - повторная подача после отмены: pending + новый applied_at
	Reactivate(db *gorm.DB, id uint64, message *string, at time.Time) error
	// RejectPending переводит pending-заявки job в rejected, кроме exceptID; возвращает worker_id отклоненных
	RejectPending(db *gorm.DB, jobID uint64, exceptID uint64) ([]uint64, error)
}

type ApplicationRepositoryImpl struct{}

func NewApplicationRepository() ApplicationRepository {
	return &ApplicationRepositoryImpl{}
}

func (r *ApplicationRepositoryImpl) Create(db *gorm.DB, application *models.JobApplication) error {
	if err := db.Omit("Job", "Worker").Create(application).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrApplicationAlreadyExists
		}
		return err
	}
	return nil
}

func (r *ApplicationRepositoryImpl) FindByID(db *gorm.DB, id uint64) (*models.JobApplication, error) {
	var application models.JobApplication
	if err := db.First(&application, id).Error; err != nil {
		return nil, notFound(err, ErrApplicationNotFound)
	}
	return &application, nil
}

func (r *ApplicationRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id uint64) (*models.JobApplication, error) {
	var application models.JobApplication
	if err := forUpdate(db).First(&application, id).Error; err != nil {
		return nil, notFound(err, ErrApplicationNotFound)
	}
	return &application, nil
}

func (r *ApplicationRepositoryImpl) FindByJobAndWorker(db *gorm.DB, jobID, workerID uint64) (*models.JobApplication, error) {
	var application models.JobApplication
	err := db.Where("job_id = ? AND worker_id = ?", jobID, workerID).First(&application).Error
	if err != nil {
		return nil, notFound(err, ErrApplicationNotFound)
	}
	return &application, nil
}

func (r *ApplicationRepositoryImpl) FindByJob(db *gorm.DB, jobID uint64) ([]models.JobApplication, error) {
	var applications []models.JobApplication
	err := db.Preload("Worker").
		Where("job_id = ?", jobID).
		Order("applied_at ASC").Order("id ASC").
		Find(&applications).Error
	return applications, err
}

func (r *ApplicationRepositoryImpl) FindByWorker(db *gorm.DB, workerID uint64, page Pagination) ([]models.JobApplication, int64, error) {
	var applications []models.JobApplication
	query := db.Model(&models.JobApplication{}).Where("worker_id = ?", workerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Job").Preload("Job.Customer").
		Order("applied_at DESC").
		Limit(page.Limit()).Offset(page.Offset()).
		Find(&applications).Error
	return applications, total, err
}

func (r *ApplicationRepositoryImpl) UpdateStatus(db *gorm.DB, id uint64, status models.ApplicationStatus) error {
	result := db.Model(&models.JobApplication{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

func (r *ApplicationRepositoryImpl) Reactivate(db *gorm.DB, id uint64, message *string, at time.Time) error {
	result := db.Model(&models.JobApplication{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     models.ApplicationStatusPending,
		"applied_at": at,
		"message":    message,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

func (r *ApplicationRepositoryImpl) RejectPending(db *gorm.DB, jobID uint64, exceptID uint64) ([]uint64, error) {
	query := db.Model(&models.JobApplication{}).
		Where("job_id = ? AND status = ?", jobID, models.ApplicationStatusPending)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}

	var workerIDs []uint64
	if err := query.Pluck("worker_id", &workerIDs).Error; err != nil {
		return nil, err
	}
	if len(workerIDs) == 0 {
		return nil, nil
	}

	err := db.Model(&models.JobApplication{}).
		Where("job_id = ? AND status = ? AND worker_id IN ?", jobID, models.ApplicationStatusPending, workerIDs).
		Update("status", models.ApplicationStatusRejected).Error
	if err != nil {
		return nil, err
	}
	return workerIDs, nil
}
