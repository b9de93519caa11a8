package services

import (
	"gorm.io/gorm"

	"gigsos_backend/internal/repositories"
	"gigsos_backend/pkg/apperrors"
)

// RoundRating - среднее с округлением до двух знаков, 0 без отзывов
func RoundRating(avg float64, count int64) float64 {
	if count == 0 {
		return 0
	}
	return round2(avg)
}

type RatingService interface {
	// UpdateRating пересчитывает и сразу сохраняет рейтинг пользователя
	UpdateRating(db *gorm.DB, userID uint64) (float64, error)
}

type RatingServiceImpl struct {
	reviewRepo repositories.ReviewRepository
	userRepo   repositories.UserRepository
}

func NewRatingService(reviewRepo repositories.ReviewRepository, userRepo repositories.UserRepository) RatingService {
	return &RatingServiceImpl{reviewRepo: reviewRepo, userRepo: userRepo}
}

func (s *RatingServiceImpl) UpdateRating(db *gorm.DB, userID uint64) (float64, error) {
	avg, count, err := s.reviewRepo.AverageForReviewee(db, userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	rating := RoundRating(avg, count)
	if err := s.userRepo.UpdateRating(db, userID, rating); err != nil {
		return 0, handleUserError(err)
	}
	return rating, nil
}
