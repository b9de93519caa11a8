package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"gigsos_backend/internal/geo"
	"gigsos_backend/internal/logger"
	"gigsos_backend/internal/metrics"
	"gigsos_backend/internal/models"
	"gigsos_backend/internal/repositories"
	"gigsos_backend/internal/services/dto"
	"gigsos_backend/pkg/apperrors"
)

const sosDomain = "sos"

// DefaultSOSNotifyRadiusKm - радиус рассылки нового SOS
const DefaultSOSNotifyRadiusKm = 10.0

type SOSService interface {
	CreateSOS(db *gorm.DB, requesterID uint64, req *dto.CreateSOSRequest) (*models.SOSRequest, error)
	ListSOS(db *gorm.DB, query *dto.SOSListQuery) (*dto.PaginatedResponse, error)
	GetSOS(db *gorm.DB, sosID uint64) (*models.SOSRequest, error)
	ListByUser(db *gorm.DB, userID uint64, pageNum int) (*dto.PaginatedResponse, error)

	Respond(db *gorm.DB, helperID, sosID uint64, req *dto.RespondSOSRequest) (*models.SOSHelper, error)
	UpdateSOS(db *gorm.DB, requesterID, sosID uint64, req *dto.UpdateSOSRequest) (*dto.SOSUpdateResponse, error)
	DeleteSOS(db *gorm.DB, requesterID, sosID uint64) error
}

// SOSOptions - настраиваемые параметры (секция sos конфига)
type SOSOptions struct {
	NotifyRadiusKm float64
	DefaultReward  int
}

type SOSServiceImpl struct {
	sosRepo  repositories.SOSRepository
	userRepo repositories.UserRepository
	txr      repositories.Transactor
	points   PointsService
	notifier NotificationDispatcher
	opts     SOSOptions
	now      Clock
}

func NewSOSService(
	sosRepo repositories.SOSRepository,
	userRepo repositories.UserRepository,
	txr repositories.Transactor,
	points PointsService,
	notifier NotificationDispatcher,
	opts SOSOptions,
) SOSService {
	if opts.NotifyRadiusKm <= 0 {
		opts.NotifyRadiusKm = DefaultSOSNotifyRadiusKm
	}
	if opts.DefaultReward <= 0 {
		opts.DefaultReward = models.DefaultSOSReward
	}
	return &SOSServiceImpl{
		sosRepo:  sosRepo,
		userRepo: userRepo,
		txr:      txr,
		points:   points,
		notifier: notifier,
		opts:     opts,
		now:      systemClock,
	}
}

func (s *SOSServiceImpl) CreateSOS(db *gorm.DB, requesterID uint64, req *dto.CreateSOSRequest) (*models.SOSRequest, error) {
	sos := &models.SOSRequest{
		RequesterID:  requesterID,
		Title:        req.Title,
		Description:  req.Description,
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		Address:      req.Address,
		Status:       models.SOSStatusActive,
		RewardAmount: s.opts.DefaultReward,
	}
	if req.RewardAmount != nil {
		sos.RewardAmount = *req.RewardAmount
	}
	if err := s.sosRepo.Create(db, sos); err != nil {
		return nil, apperrors.InternalError(err)
	}
	metrics.RecordSOSTransition(string(sos.Status))

	center := geo.Point{Lat: sos.Latitude, Lon: sos.Longitude}
	notified := s.notifier.NotifyNearby(db, center, s.opts.NotifyRadiusKm, requesterID, Notice{
		Type:        models.NotificationSOSNearby,
		Title:       "Someone nearby needs help",
		Body:        sos.Title,
		RelatedType: models.RelatedTypeSOS,
		RelatedID:   sos.ID,
		Data: map[string]interface{}{
			"latitude":      sos.Latitude,
			"longitude":     sos.Longitude,
			"reward_amount": sos.RewardAmount,
		},
	})
	logger.CtxInfo(dbContext(db), "sos created", "sos_id", sos.ID, "notified_users", notified)
	return sos, nil
}

func (s *SOSServiceImpl) ListSOS(db *gorm.DB, query *dto.SOSListQuery) (*dto.PaginatedResponse, error) {
	if query.Partial() {
		return nil, apperrors.FieldError("radius", "latitude, longitude and radius must be provided together")
	}
	filter := repositories.SOSFilter{
		Status:     models.SOSStatusActive,
		Pagination: page(query.Page),
	}
	if query.Status != "" {
		filter.Status = models.SOSStatus(query.Status)
	}
	if query.Complete() {
		filter.Center = &geo.Point{Lat: *query.Latitude, Lon: *query.Longitude}
		filter.RadiusKm = *query.Radius
	}

	items, total, err := s.sosRepo.FindWithFilter(db, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(items, total, filter.Page, filter.PageSize), nil
}

func (s *SOSServiceImpl) GetSOS(db *gorm.DB, sosID uint64) (*models.SOSRequest, error) {
	sos, err := s.sosRepo.FindByID(db, sosID)
	if err != nil {
		return nil, handleSOSError(err)
	}
	return sos, nil
}

func (s *SOSServiceImpl) ListByUser(db *gorm.DB, userID uint64, pageNum int) (*dto.PaginatedResponse, error) {
	p := page(pageNum)
	items, total, err := s.sosRepo.FindByRequester(db, userID, p)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(items, total, p.Page, p.PageSize), nil
}

func (s *SOSServiceImpl) Respond(db *gorm.DB, helperID, sosID uint64, req *dto.RespondSOSRequest) (*models.SOSHelper, error) {
	var sos *models.SOSRequest
	var helper *models.SOSHelper
	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		var err error
		sos, err = s.sosRepo.FindByIDForUpdate(tx, sosID)
		if err != nil {
			return err
		}
		if sos.RequesterID == helperID {
			return apperrors.ErrInvalidOperation(sosDomain, "Cannot respond to your own SOS request")
		}
		if sos.Status != models.SOSStatusActive {
			return apperrors.ErrInvalidStatus(sosDomain, "SOS request is no longer active").
				WithDetails(map[string]interface{}{
					"current_status":  sos.Status,
					"required_status": models.SOSStatusActive,
				})
		}

		distance := geo.Distance(
			geo.Point{Lat: *req.Latitude, Lon: *req.Longitude},
			geo.Point{Lat: sos.Latitude, Lon: sos.Longitude},
		)
		helper = &models.SOSHelper{
			SOSID:       sos.ID,
			HelperID:    helperID,
			RespondedAt: s.now(),
			Distance:    geo.Round2(distance),
			Status:      models.SOSHelperStatusResponding,
		}
		return s.sosRepo.CreateHelper(tx, helper)
	})
	if err != nil {
		return nil, appErrorOr(err, handleSOSError)
	}

	s.notifier.Notify(db, sos.RequesterID, Notice{
		Type:        models.NotificationSOSResponse,
		Title:       "Someone is coming to help",
		Body:        fmt.Sprintf("A helper responded to %s (%.2f km away)", sos.Title, helper.Distance),
		RelatedType: models.RelatedTypeSOS,
		RelatedID:   sos.ID,
		Data:        map[string]interface{}{"helper_id": helperID, "distance": helper.Distance},
	})
	return helper, nil
}

// UpdateSOS - правка владельцем. Переход в completed выбирает получателя очков:
// подтвержденный helper_id, иначе первый откликнувшийся, иначе сам автор.
func (s *SOSServiceImpl) UpdateSOS(db *gorm.DB, requesterID, sosID uint64, req *dto.UpdateSOSRequest) (*dto.SOSUpdateResponse, error) {
	var sos *models.SOSRequest
	var award *PointsAward

	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		var err error
		sos, err = s.sosRepo.FindByIDForUpdate(tx, sosID)
		if err != nil {
			return err
		}
		if sos.RequesterID != requesterID {
			return apperrors.Forbidden(sosDomain, "Only the requester can update the SOS request")
		}

		if req.Title != nil {
			sos.Title = *req.Title
		}
		if req.Description != nil {
			sos.Description = *req.Description
		}
		if req.Latitude != nil {
			sos.Latitude = *req.Latitude
		}
		if req.Longitude != nil {
			sos.Longitude = *req.Longitude
		}
		if req.Address != nil {
			sos.Address = *req.Address
		}
		if req.RewardAmount != nil {
			sos.RewardAmount = *req.RewardAmount
		}
		if req.HelperID != nil {
			if _, err := s.userRepo.FindByID(tx, *req.HelperID); err != nil {
				if errors.Is(err, repositories.ErrUserNotFound) {
					return apperrors.FieldError("helper_id", "Helper does not exist")
				}
				return err
			}
			sos.HelperID = req.HelperID
		}

		if req.Status != nil {
			switch *req.Status {
			case models.SOSStatusActive, models.SOSStatusCompleted, models.SOSStatusCancelled:
			default:
				return apperrors.FieldError("status", "Status must be one of active, completed, cancelled")
			}

			previous := sos.Status
			sos.Status = *req.Status
			if sos.Status == models.SOSStatusCompleted && previous != models.SOSStatusCompleted {
				now := s.now()
				sos.CompletedAt = &now
				award, err = s.completionAward(tx, sos)
				if err != nil {
					return err
				}
			}
			if previous != sos.Status {
				logger.TransitionLog(sosDomain, sos.ID, string(previous), string(sos.Status), requesterID)
				metrics.RecordSOSTransition(string(sos.Status))
			}
		}
		return s.sosRepo.Save(tx, sos)
	})
	if err != nil {
		return nil, appErrorOr(err, handleSOSError)
	}

	resp := &dto.SOSUpdateResponse{SOS: sos}
	if award != nil {
		outcome := awardAfterCommit(db, s.points, *award)
		resp.PointsOutcome = &outcome
		if award.Reason == ReasonSOSHelped {
			s.notifier.Notify(db, award.UserID, Notice{
				Type:        models.NotificationSOSHelped,
				Title:       "Thank you for helping",
				Body:        fmt.Sprintf("You helped with %s", sos.Title),
				RelatedType: models.RelatedTypeSOS,
				RelatedID:   sos.ID,
				Data:        map[string]interface{}{"points": outcome.Points},
			})
		}
	}
	return resp, nil
}

// completionAward - кому начислить очки при завершении SOS
func (s *SOSServiceImpl) completionAward(tx *gorm.DB, sos *models.SOSRequest) (*PointsAward, error) {
	if sos.HelperID != nil && *sos.HelperID != sos.RequesterID {
		return helpedAward(*sos.HelperID), nil
	}
	// без подтвержденного помощника очки получает первый откликнувшийся
	first, err := s.sosRepo.FirstHelper(tx, sos.ID)
	if err != nil {
		return nil, err
	}
	if first != nil {
		return helpedAward(first.HelperID), nil
	}
	return &PointsAward{
		UserID:  sos.RequesterID,
		Delta:   PointsSOSCompleted,
		Reason:  ReasonSOSCompleted,
		Counter: repositories.CounterCompletedSOS,
	}, nil
}

func helpedAward(helperID uint64) *PointsAward {
	return &PointsAward{
		UserID:  helperID,
		Delta:   PointsSOSHelped,
		Reason:  ReasonSOSHelped,
		Counter: repositories.CounterHelpedSOS,
	}
}

func (s *SOSServiceImpl) DeleteSOS(db *gorm.DB, requesterID, sosID uint64) error {
	sos, err := s.sosRepo.FindByID(db, sosID)
	if err != nil {
		return handleSOSError(err)
	}
	if sos.RequesterID != requesterID {
		return apperrors.Forbidden(sosDomain, "Only the requester can delete the SOS request")
	}
	if err := s.sosRepo.Delete(db, sosID); err != nil {
		return handleSOSError(err)
	}
	return nil
}

func handleSOSError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrSOSNotFound):
		return apperrors.NotFound(sosDomain, "SOS request not found").WithError(err)
	case errors.Is(err, repositories.ErrSOSHelperAlreadyExists):
		return apperrors.ErrConflict(err, sosDomain, "You have already responded to this SOS request")
	case errors.Is(err, repositories.ErrSOSHelperNotFound):
		return apperrors.NotFound(sosDomain, "Helper not found").WithError(err)
	default:
		return apperrors.InternalError(err)
	}
}
