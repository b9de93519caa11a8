package repositories

import (
	"errors"

	"gorm.io/gorm"

	"gigsos_backend/internal/geo"
	"gigsos_backend/internal/models"
)

var ErrJobNotFound = errors.New("job not found")

// notPrivateSQL - условие "job не приватный" по additional_info.is_private_order
const notPrivateSQL = "COALESCE(jobs.additional_info->>'is_private_order', 'false') NOT IN ('true', '1')"

// JobFilter - публичный список
type JobFilter struct {
	Status   models.JobStatus
	Category *models.JobCategory
	Center   *geo.Point
	RadiusKm float64
	Pagination
}

type AdminJobFilter struct {
	Status      models.JobStatus
	OnlyFlagged bool
	Pagination
}

type JobRepository interface {
	Create(db *gorm.DB, job *models.Job) error
	FindByID(db *gorm.DB, id uint64) (*models.Job, error)
	FindByIDForUpdate(db *gorm.DB, id uint64) (*models.Job, error)
	Save(db *gorm.DB, job *models.Job) error
	Delete(db *gorm.DB, id uint64) error

	FindPublic(db *gorm.DB, filter JobFilter) ([]models.Job, int64, error)
	// Кандидаты для поиска рядом: pending, без исполнителя, в широтной полосе
	FindOpenNear(db *gorm.DB, lat, radiusKm float64, category *models.JobCategory) ([]models.Job, error)
	FindByCustomer(db *gorm.DB, customerID uint64, page Pagination) ([]models.Job, int64, error)
	FindByWorker(db *gorm.DB, workerID uint64, page Pagination) ([]models.Job, int64, error)

	FindForAdmin(db *gorm.DB, filter AdminJobFilter) ([]models.Job, int64, error)
	CountByStatuses(db *gorm.DB, statuses ...models.JobStatus) (int64, error)
}

type JobRepositoryImpl struct{}

func NewJobRepository() JobRepository {
	return &JobRepositoryImpl{}
}

func (r *JobRepositoryImpl) Create(db *gorm.DB, job *models.Job) error {
	return db.Omit("Customer", "AssignedWorker").Create(job).Error
}

func (r *JobRepositoryImpl) FindByID(db *gorm.DB, id uint64) (*models.Job, error) {
	var job models.Job
	err := db.Preload("Customer").Preload("AssignedWorker").First(&job, id).Error
	if err != nil {
		return nil, notFound(err, ErrJobNotFound)
	}
	return &job, nil
}

// FindByIDForUpdate - без preload: FOR UPDATE блокирует только строку job
func (r *JobRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id uint64) (*models.Job, error) {
	var job models.Job
	if err := forUpdate(db).First(&job, id).Error; err != nil {
		return nil, notFound(err, ErrJobNotFound)
	}
	return &job, nil
}

func (r *JobRepositoryImpl) Save(db *gorm.DB, job *models.Job) error {
	return db.Omit("Customer", "AssignedWorker").Save(job).Error
}

func (r *JobRepositoryImpl) Delete(db *gorm.DB, id uint64) error {
	result := db.Delete(&models.Job{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *JobRepositoryImpl) FindPublic(db *gorm.DB, filter JobFilter) ([]models.Job, int64, error) {
	var jobs []models.Job
	query := db.Model(&models.Job{}).
		Where("jobs.assigned_worker_id IS NULL").
		Where("jobs.status <> ?", models.JobStatusCancelled).
		Where(notPrivateSQL)

	if filter.Status != "" {
		query = query.Where("jobs.status = ?", filter.Status)
	}
	if filter.Category != nil {
		query = query.Where("jobs.category = ?", *filter.Category)
	}

	var distanceExpr string
	var distanceArgs []interface{}
	if filter.Center != nil {
		distanceExpr, distanceArgs = geo.SQLDistance("jobs.latitude", "jobs.longitude", *filter.Center)
		query = query.Where(distanceExpr+" <= ?", withArg(distanceArgs, filter.RadiusKm)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Center != nil {
		query = query.Select("jobs.*, "+distanceExpr+" AS distance", distanceArgs...).Order("distance ASC")
	} else {
		query = query.Order("jobs.created_at DESC")
	}

	err := query.Preload("Customer").
		Limit(filter.Limit()).Offset(filter.Offset()).
		Find(&jobs).Error
	return jobs, total, err
}

func (r *JobRepositoryImpl) FindOpenNear(db *gorm.DB, lat, radiusKm float64, category *models.JobCategory) ([]models.Job, error) {
	var jobs []models.Job
	band := radiusKm/kmPerDegreeLat + 0.01
	query := db.Where("jobs.status = ? AND jobs.assigned_worker_id IS NULL", models.JobStatusPending).
		Where(notPrivateSQL).
		Where("jobs.latitude BETWEEN ? AND ?", lat-band, lat+band)
	if category != nil {
		query = query.Where("jobs.category = ?", *category)
	}
	err := query.Preload("Customer").Find(&jobs).Error
	return jobs, err
}

func (r *JobRepositoryImpl) FindByCustomer(db *gorm.DB, customerID uint64, page Pagination) ([]models.Job, int64, error) {
	return r.paginate(db.Where("customer_id = ?", customerID), page, "AssignedWorker")
}

func (r *JobRepositoryImpl) FindByWorker(db *gorm.DB, workerID uint64, page Pagination) ([]models.Job, int64, error) {
	return r.paginate(db.Where("assigned_worker_id = ?", workerID), page, "Customer")
}

func (r *JobRepositoryImpl) FindForAdmin(db *gorm.DB, filter AdminJobFilter) ([]models.Job, int64, error) {
	query := db
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OnlyFlagged {
		query = query.Where("admin_cancel_reason IS NOT NULL OR status = ?", models.JobStatusDisputed)
	}
	return r.paginate(query, filter.Pagination, "Customer", "AssignedWorker")
}

func (r *JobRepositoryImpl) CountByStatuses(db *gorm.DB, statuses ...models.JobStatus) (int64, error) {
	var count int64
	err := db.Model(&models.Job{}).Where("status IN ?", statuses).Count(&count).Error
	return count, err
}

// paginate - count до preload: preload на count-запросе не нужен
func (r *JobRepositoryImpl) paginate(query *gorm.DB, page Pagination, preloads ...string) ([]models.Job, int64, error) {
	var jobs []models.Job
	var total int64
	if err := query.Model(&models.Job{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	for _, p := range preloads {
		query = query.Preload(p)
	}
	err := query.Order("created_at DESC").Limit(page.Limit()).Offset(page.Offset()).Find(&jobs).Error
	return jobs, total, err
}

// withArg - копия args с дополнительным аргументом в конце
func withArg(args []interface{}, extra interface{}) []interface{} {
	out := make([]interface{}, 0, len(args)+1)
	out = append(out, args...)
	return append(out, extra)
}
