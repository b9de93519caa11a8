package services

import (
	"errors"

	"gorm.io/gorm"

	"gigsos_backend/internal/models"
	"gigsos_backend/internal/repositories"
	"gigsos_backend/internal/services/dto"
	"gigsos_backend/pkg/apperrors"
)

type ReviewService interface {
	// CreateReview - upsert по (job, reviewer), затем пересчет рейтинга получателя
	CreateReview(db *gorm.DB, reviewerID, jobID uint64, req *dto.CreateReviewRequest) (*models.JobReview, error)
	WorkerReviews(db *gorm.DB, workerID uint64, pageNum int) (*dto.WorkerReviewsResponse, error)
}

type ReviewServiceImpl struct {
	reviewRepo repositories.ReviewRepository
	jobRepo    repositories.JobRepository
	txr        repositories.Transactor
	rating     RatingService
}

func NewReviewService(
	reviewRepo repositories.ReviewRepository,
	jobRepo repositories.JobRepository,
	txr repositories.Transactor,
	rating RatingService,
) ReviewService {
	return &ReviewServiceImpl{
		reviewRepo: reviewRepo,
		jobRepo:    jobRepo,
		txr:        txr,
		rating:     rating,
	}
}

func (s *ReviewServiceImpl) CreateReview(db *gorm.DB, reviewerID, jobID uint64, req *dto.CreateReviewRequest) (*models.JobReview, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.FieldError("rating", "Rating must be between 1 and 5")
	}

	job, err := s.jobRepo.FindByID(db, jobID)
	if err != nil {
		return nil, handleJobError(err)
	}

	var revieweeID uint64
	switch {
	case job.IsOwnedBy(reviewerID):
		if job.AssignedWorkerID == nil {
			return nil, apperrors.ErrInvalidStatus("review", "Job has no worker to review").
				WithDetails(map[string]interface{}{"current_status": job.Status})
		}
		revieweeID = *job.AssignedWorkerID
	case job.IsAssignedTo(reviewerID):
		revieweeID = job.CustomerID
	default:
		return nil, apperrors.Forbidden("review", "Only the customer or the assigned worker can review this job")
	}

	if job.Status != models.JobStatusCompleted {
		return nil, apperrors.ErrInvalidStatus("review", "Only completed jobs can be reviewed").
			WithDetails(map[string]interface{}{
				"current_status":  job.Status,
				"required_status": models.JobStatusCompleted,
			})
	}

	review := &models.JobReview{
		JobID:      jobID,
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	err = s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		if err := s.reviewRepo.Upsert(tx, review); err != nil {
			return err
		}
		_, err := s.rating.UpdateRating(tx, revieweeID)
		return err
	})
	if err != nil {
		return nil, appErrorOr(err, handleReviewError)
	}
	return review, nil
}

func (s *ReviewServiceImpl) WorkerReviews(db *gorm.DB, workerID uint64, pageNum int) (*dto.WorkerReviewsResponse, error) {
	p := page(pageNum)
	reviews, total, err := s.reviewRepo.FindByReviewee(db, workerID, p)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	avg, count, err := s.reviewRepo.AverageForReviewee(db, workerID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.WorkerReviewsResponse{
		Reviews:       reviews,
		Total:         total,
		AverageRating: RoundRating(avg, count),
		Page:          p.Page,
		PageSize:      p.PageSize,
	}, nil
}

func handleReviewError(err error) error {
	if errors.Is(err, repositories.ErrReviewNotFound) {
		return apperrors.NotFound("review", "Review not found").WithError(err)
	}
	return handleJobError(err)
}
