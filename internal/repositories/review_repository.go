package repositories

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gigsos_backend/internal/models"
)

var ErrReviewNotFound = errors.New("review not found")

type ReviewFilter struct {
	Rating int
	Search string
	Pagination
}

type ReviewRepository interface {
	// Upsert по (job_id, reviewer_id): повторная отправка обновляет rating и comment
	Upsert(db *gorm.DB, review *models.JobReview) error
	FindByID(db *gorm.DB, id uint64) (*models.JobReview, error)
	FindByJobAndReviewer(db *gorm.DB, jobID, reviewerID uint64) (*models.JobReview, error)
	FindByReviewee(db *gorm.DB, revieweeID uint64, page Pagination) ([]models.JobReview, int64, error)
	Delete(db *gorm.DB, id uint64) error

	// AverageForReviewee - среднее и количество отзывов
	AverageForReviewee(db *gorm.DB, revieweeID uint64) (float64, int64, error)

	FindWithFilter(db *gorm.DB, filter ReviewFilter) ([]models.JobReview, int64, error)
	CountAll(db *gorm.DB) (int64, error)
}

type ReviewRepositoryImpl struct{}

func NewReviewRepository() ReviewRepository {
	return &ReviewRepositoryImpl{}
}

func (r *ReviewRepositoryImpl) Upsert(db *gorm.DB, review *models.JobReview) error {
	return db.Omit("Job", "Reviewer", "Reviewee").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}, {Name: "reviewer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "reviewee_id", "updated_at"}),
	}).Create(review).Error
}

func (r *ReviewRepositoryImpl) FindByID(db *gorm.DB, id uint64) (*models.JobReview, error) {
	var review models.JobReview
	if err := db.Preload("Reviewer").Preload("Reviewee").First(&review, id).Error; err != nil {
		return nil, notFound(err, ErrReviewNotFound)
	}
	return &review, nil
}

func (r *ReviewRepositoryImpl) FindByJobAndReviewer(db *gorm.DB, jobID, reviewerID uint64) (*models.JobReview, error) {
	var review models.JobReview
	err := db.Where("job_id = ? AND reviewer_id = ?", jobID, reviewerID).First(&review).Error
	if err != nil {
		return nil, notFound(err, ErrReviewNotFound)
	}
	return &review, nil
}

func (r *ReviewRepositoryImpl) FindByReviewee(db *gorm.DB, revieweeID uint64, page Pagination) ([]models.JobReview, int64, error) {
	var reviews []models.JobReview
	query := db.Model(&models.JobReview{}).Where("reviewee_id = ?", revieweeID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Reviewer").Preload("Job").
		Order("created_at DESC").
		Limit(page.Limit()).Offset(page.Offset()).
		Find(&reviews).Error
	return reviews, total, err
}

func (r *ReviewRepositoryImpl) Delete(db *gorm.DB, id uint64) error {
	result := db.Delete(&models.JobReview{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepositoryImpl) AverageForReviewee(db *gorm.DB, revieweeID uint64) (float64, int64, error) {
	var row struct {
		Average float64
		Total   int64
	}
	err := db.Model(&models.JobReview{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Where("reviewee_id = ?", revieweeID).
		Scan(&row).Error
	return row.Average, row.Total, err
}

func (r *ReviewRepositoryImpl) FindWithFilter(db *gorm.DB, filter ReviewFilter) ([]models.JobReview, int64, error) {
	var reviews []models.JobReview
	query := db.Model(&models.JobReview{})

	if filter.Rating > 0 {
		query = query.Where("job_reviews.rating = ?", filter.Rating)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where(
			"job_reviews.comment ILIKE ? OR job_reviews.reviewer_id IN (SELECT id FROM users WHERE name ILIKE ?) OR job_reviews.reviewee_id IN (SELECT id FROM users WHERE name ILIKE ?)",
			search, search, search,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Reviewer").Preload("Reviewee").Preload("Job").
		Order("job_reviews.created_at DESC").
		Limit(filter.Limit()).Offset(filter.Offset()).
		Find(&reviews).Error
	return reviews, total, err
}

func (r *ReviewRepositoryImpl) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.JobReview{}).Count(&count).Error
	return count, err
}
