package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"gigsos_backend/internal/logger"
	"gigsos_backend/internal/metrics"
	"gigsos_backend/internal/models"
	"gigsos_backend/internal/repositories"
	"gigsos_backend/internal/services/dto"
	"gigsos_backend/pkg/apperrors"
)

// Правила начисления
const (
	PointsJobCompletion    = 50
	PointsJobFiveStarBonus = 10
	PointsSOSCompleted     = 100
	PointsSOSHelped        = 100

	// рейтинг, с которого работник получает бонус
	FiveStarRating = 5.0
)

// Причины в журнале начислений
const (
	ReasonJobCompleted = "job_completed"
	ReasonSOSCompleted = "sos_completed"
	ReasonSOSHelped    = "sos_helped"
)

var ErrNegativeBalance = errors.New("points balance cannot become negative")

// PointsAward - одно начисление; Counter увеличивается под той же блокировкой
type PointsAward struct {
	UserID  uint64
	Delta   int
	Reason  string
	Counter string
}

// JobCompletionPoints - очки за подтвержденную работу по рейтингу работника до подтверждения
func JobCompletionPoints(ratingBefore float64) int {
	points := PointsJobCompletion
	if ratingBefore >= FiveStarRating {
		points += PointsJobFiveStarBonus
	}
	return points
}

type PointsService interface {
	// AddPoints - в своей транзакции, с блокировкой строки пользователя; возвращает новый баланс
	AddPoints(db *gorm.DB, userID uint64, delta int, reason string) (int, error)
	Award(db *gorm.DB, award PointsAward) (int, error)
	History(db *gorm.DB, userID uint64, pageNum int) (*dto.PaginatedResponse, error)
}

type PointsServiceImpl struct {
	ledgerRepo repositories.LedgerRepository
	userRepo   repositories.UserRepository
	txr        repositories.Transactor
}

func NewPointsService(
	ledgerRepo repositories.LedgerRepository,
	userRepo repositories.UserRepository,
	txr repositories.Transactor,
) PointsService {
	return &PointsServiceImpl{
		ledgerRepo: ledgerRepo,
		userRepo:   userRepo,
		txr:        txr,
	}
}

func (s *PointsServiceImpl) AddPoints(db *gorm.DB, userID uint64, delta int, reason string) (int, error) {
	return s.Award(db, PointsAward{UserID: userID, Delta: delta, Reason: reason})
}

func (s *PointsServiceImpl) Award(db *gorm.DB, award PointsAward) (int, error) {
	var balance int
	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		current, err := s.ledgerRepo.LockBalance(tx, award.UserID)
		if err != nil {
			return err
		}
		balance = current + award.Delta
		if balance < 0 {
			return ErrNegativeBalance
		}
		if err := s.ledgerRepo.SaveBalance(tx, award.UserID, balance); err != nil {
			return err
		}
		if award.Counter != "" {
			if err := s.userRepo.IncrementCounter(tx, award.UserID, award.Counter, 1); err != nil {
				return err
			}
		}
		return s.ledgerRepo.AppendEntry(tx, &models.PointsEntry{
			UserID:       award.UserID,
			Delta:        award.Delta,
			Reason:       award.Reason,
			BalanceAfter: balance,
		})
	})
	if err != nil {
		return 0, err
	}
	metrics.RecordPointsAwarded(award.Reason, int64(award.Delta))
	return balance, nil
}

func (s *PointsServiceImpl) History(db *gorm.DB, userID uint64, pageNum int) (*dto.PaginatedResponse, error) {
	p := page(pageNum)
	entries, total, err := s.ledgerRepo.FindEntries(db, userID, p)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(entries, total, p.Page, p.PageSize), nil
}

// awardAfterCommit - начисление после коммита перехода. Ошибка не откатывает переход:
// она логируется, считается в метриках и возвращается в теле ответа.
func awardAfterCommit(db *gorm.DB, points PointsService, award PointsAward) dto.PointsOutcome {
	outcome := dto.PointsOutcome{RecipientID: uint64Ptr(award.UserID)}
	if _, err := points.Award(db, award); err != nil {
		metrics.RecordPointsFailure(award.Reason)
		logger.CtxWithError(dbContext(db), "points award failed", err,
			"user_id", award.UserID,
			"reason", award.Reason,
			"delta", award.Delta,
		)
		msg := fmt.Sprintf("failed to award %d points: %v", award.Delta, err)
		if errors.Is(err, repositories.ErrUserNotFound) {
			msg = "failed to award points: user not found"
		}
		outcome.PointsError = &msg
		return outcome
	}
	outcome.PointsAwarded = true
	outcome.Points = award.Delta
	return outcome
}
