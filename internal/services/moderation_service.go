package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"gigsos_backend/internal/auth"
	"gigsos_backend/internal/logger"
	"gigsos_backend/internal/metrics"
	"gigsos_backend/internal/models"
	"gigsos_backend/internal/repositories"
	"gigsos_backend/internal/services/dto"
	"gigsos_backend/pkg/apperrors"
)

const moderationDomain = "moderation"

// BanChecker - проверка бана для middleware и логина
type BanChecker interface {
	// IsCurrentlyBanned снимает истекший временный бан как побочный эффект проверки
	IsCurrentlyBanned(db *gorm.DB, userID uint64) (bool, *models.User, error)
}

type ModerationService interface {
	BanChecker

	BanUser(db *gorm.DB, adminID, userID uint64, req *dto.BanUserRequest) (*dto.BanResponse, error)
	UnbanUser(db *gorm.DB, adminID, userID uint64, req *dto.UnbanUserRequest) (*models.User, error)
	ForceCancelJob(db *gorm.DB, adminID, jobID uint64, req *dto.ForceCancelJobRequest) (*models.Job, error)
	DeleteReview(db *gorm.DB, adminID, reviewID uint64, req *dto.DeleteReviewRequest) error

	SubmitBanComplaint(db *gorm.DB, req *dto.SubmitBanComplaintRequest) (*models.BanComplaint, error)
	HandleBanComplaint(db *gorm.DB, adminID, complaintID uint64, req *dto.HandleBanComplaintRequest) (*models.BanComplaint, error)
}

type ModerationServiceImpl struct {
	userRepo        repositories.UserRepository
	moderationRepo  repositories.ModerationRepository
	sessionRepo     repositories.SessionRepository
	jobRepo         repositories.JobRepository
	applicationRepo repositories.ApplicationRepository
	reviewRepo      repositories.ReviewRepository
	txr             repositories.Transactor
	rating          RatingService
	notifier        NotificationDispatcher
	now             Clock
}

func NewModerationService(
	userRepo repositories.UserRepository,
	moderationRepo repositories.ModerationRepository,
	sessionRepo repositories.SessionRepository,
	jobRepo repositories.JobRepository,
	applicationRepo repositories.ApplicationRepository,
	reviewRepo repositories.ReviewRepository,
	txr repositories.Transactor,
	rating RatingService,
	notifier NotificationDispatcher,
) ModerationService {
	return &ModerationServiceImpl{
		userRepo:        userRepo,
		moderationRepo:  moderationRepo,
		sessionRepo:     sessionRepo,
		jobRepo:         jobRepo,
		applicationRepo: applicationRepo,
		reviewRepo:      reviewRepo,
		txr:             txr,
		rating:          rating,
		notifier:        notifier,
		now:             systemClock,
	}
}

// ==========================
// Ban state
// ==========================

func (s *ModerationServiceImpl) IsCurrentlyBanned(db *gorm.DB, userID uint64) (bool, *models.User, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return false, nil, handleUserError(err)
	}

	switch user.BanStateAt(s.now()) {
	case models.BanStateActive:
		return true, user, nil
	case models.BanStateExpired:
		if err := s.userRepo.ClearBan(db, user.ID); err != nil {
			return false, nil, handleUserError(err)
		}
		user.ClearBan()
		logger.CtxInfo(dbContext(db), "expired ban cleared", "user_id", user.ID)
		return false, user, nil
	default:
		return false, user, nil
	}
}

// resolveBanExpiry - permanent важнее banned_until, banned_until важнее duration_days
func (s *ModerationServiceImpl) resolveBanExpiry(req *dto.BanUserRequest, now time.Time) (models.BanExpiry, error) {
	switch {
	case req.IsPermanent:
		return models.PermanentBan(), nil
	case req.BannedUntil != nil:
		if !req.BannedUntil.After(now) {
			return models.BanExpiry{}, apperrors.FieldError("banned_until", "Ban end must be in the future")
		}
		return models.TemporaryBan(req.BannedUntil.UTC()), nil
	case req.DurationDays != nil:
		days := *req.DurationDays
		if days < 1 || days > 365 {
			return models.BanExpiry{}, apperrors.FieldError("duration_days", "Duration must be between 1 and 365 days")
		}
		return models.TemporaryBan(now.AddDate(0, 0, days)), nil
	default:
		return models.BanExpiry{}, apperrors.FieldError("duration_days", "Provide is_permanent, banned_until or duration_days")
	}
}

func (s *ModerationServiceImpl) BanUser(db *gorm.DB, adminID, userID uint64, req *dto.BanUserRequest) (*dto.BanResponse, error) {
	if adminID == userID {
		return nil, apperrors.ErrCannotModifySelf
	}
	now := s.now()
	expiry, err := s.resolveBanExpiry(req, now)
	if err != nil {
		return nil, err
	}
	actor, err := s.userRepo.FindByID(db, adminID)
	if err != nil {
		return nil, handleUserError(err)
	}

	resp := &dto.BanResponse{}
	err = s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		user, err := s.userRepo.FindByIDForUpdate(tx, userID)
		if err != nil {
			return err
		}
		if !auth.CanBan(actor.Role, user.Role) {
			return apperrors.Forbidden(moderationDomain, "Only a super admin can ban an administrator")
		}

		// повторный бан закрывает предыдущую запись аудита
		if user.IsBanned {
			if err := s.moderationRepo.LiftLatestBan(tx, user.ID, now); err != nil {
				return err
			}
		}
		user.ApplyBan(expiry, req.Reason, adminID, now)
		if err := s.userRepo.SaveBan(tx, user); err != nil {
			return err
		}

		ban := &models.UserBan{
			UserID:      user.ID,
			AdminID:     adminID,
			BannedFrom:  now,
			BannedUntil: expiry.Column(),
			Reason:      req.Reason,
			Metadata: datatypes.JSONMap{
				"is_permanent": expiry.IsPermanent(),
				"admin_role":   actor.Role,
			},
		}
		if err := s.moderationRepo.CreateBan(tx, ban); err != nil {
			return err
		}

		revoked, err := s.sessionRepo.DeleteAllForUser(tx, user.ID)
		if err != nil {
			return err
		}

		if err := s.moderationRepo.CreateAction(tx, &models.AdminAction{
			AdminID:    adminID,
			ActionType: models.AdminActionUserBanned,
			TargetType: models.TargetTypeUser,
			TargetID:   uint64Ptr(user.ID),
			Reason:     strPtr(req.Reason),
			Metadata: datatypes.JSONMap{
				"banned_until":     expiry.Column(),
				"is_permanent":     expiry.IsPermanent(),
				"sessions_revoked": revoked,
			},
		}); err != nil {
			return err
		}

		resp.User = user
		resp.Ban = ban
		resp.SessionsRevoked = revoked
		return nil
	})
	if err != nil {
		return nil, appErrorOr(err, handleModerationError)
	}

	metrics.RecordModerationAction(models.AdminActionUserBanned)
	logger.TransitionLog("user", userID, "active", "banned", adminID)

	body := fmt.Sprintf("Your account has been banned permanently. Reason: %s", req.Reason)
	if until, ok := expiry.Until(); ok {
		body = fmt.Sprintf("Your account has been banned until %s. Reason: %s", until.Format(time.RFC3339), req.Reason)
	}
	s.notifier.Notify(db, userID, Notice{
		Type:        models.NotificationAdminBan,
		Title:       "Account banned",
		Body:        body,
		RelatedType: models.RelatedTypeUser,
		RelatedID:   userID,
		Data: map[string]interface{}{
			"reason":       req.Reason,
			"banned_until": expiry.Column(),
			"is_permanent": expiry.IsPermanent(),
		},
	})
	return resp, nil
}

func (s *ModerationServiceImpl) UnbanUser(db *gorm.DB, adminID, userID uint64, req *dto.UnbanUserRequest) (*models.User, error) {
	var user *models.User
	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		var err error
		user, err = s.userRepo.FindByIDForUpdate(tx, userID)
		if err != nil {
			return err
		}
		now := s.now()
		if user.BanStateAt(now) != models.BanStateActive {
			return apperrors.ErrInvalidStatus(moderationDomain, "User is not currently banned").
				WithDetails(map[string]interface{}{"is_banned": user.IsBanned, "banned_until": user.BannedUntil})
		}

		if err := s.moderationRepo.LiftLatestBan(tx, user.ID, now); err != nil {
			return err
		}
		if err := s.userRepo.ClearBan(tx, user.ID); err != nil {
			return err
		}
		user.ClearBan()

		return s.moderationRepo.CreateAction(tx, &models.AdminAction{
			AdminID:    adminID,
			ActionType: models.AdminActionUserUnbanned,
			TargetType: models.TargetTypeUser,
			TargetID:   uint64Ptr(user.ID),
			Reason:     req.Reason,
		})
	})
	if err != nil {
		return nil, appErrorOr(err, handleModerationError)
	}

	metrics.RecordModerationAction(models.AdminActionUserUnbanned)
	logger.TransitionLog("user", userID, "banned", "active", adminID)
	s.notifier.Notify(db, userID, Notice{
		Type:        models.NotificationAdminUnban,
		Title:       "Account restored",
		Body:        "Your account ban has been lifted",
		RelatedType: models.RelatedTypeUser,
		RelatedID:   userID,
	})
	return user, nil
}

// ==========================
// Content moderation
// ==========================

func (s *ModerationServiceImpl) ForceCancelJob(db *gorm.DB, adminID, jobID uint64, req *dto.ForceCancelJobRequest) (*models.Job, error) {
	var job *models.Job
	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		var err error
		job, err = s.jobRepo.FindByIDForUpdate(tx, jobID)
		if err != nil {
			return err
		}
		from := job.Status
		if err := job.Apply(models.TransitionAdminCancel); err != nil {
			return transitionError(jobDomain, err)
		}

		now := s.now()
		job.CancelledByAdminID = uint64Ptr(adminID)
		job.AdminCancelReason = strPtr(req.Reason)
		job.AdminCancelledAt = &now
		job.SetInfo(models.AdditionalInfoAdminCancel, map[string]interface{}{
			"reason":       req.Reason,
			"cancelled_at": now,
			"admin_id":     adminID,
		})

		if _, err := s.applicationRepo.RejectPending(tx, job.ID, 0); err != nil {
			return err
		}
		if err := s.jobRepo.Save(tx, job); err != nil {
			return err
		}
		logger.TransitionLog(jobDomain, job.ID, string(from), string(job.Status), adminID)
		metrics.RecordJobTransition(string(models.TransitionAdminCancel), string(job.Status))

		return s.moderationRepo.CreateAction(tx, &models.AdminAction{
			AdminID:    adminID,
			ActionType: models.AdminActionJobCancelled,
			TargetType: models.TargetTypeJob,
			TargetID:   uint64Ptr(job.ID),
			Reason:     strPtr(req.Reason),
			Metadata:   datatypes.JSONMap{"previous_status": from},
		})
	})
	if err != nil {
		return nil, appErrorOr(err, handleModerationError)
	}

	metrics.RecordModerationAction(models.AdminActionJobCancelled)
	recipients := []uint64{job.CustomerID}
	if job.AssignedWorkerID != nil {
		recipients = append(recipients, *job.AssignedWorkerID)
	}
	s.notifier.NotifyMany(db, recipients, Notice{
		Type:        models.NotificationAdminJobCancelled,
		Title:       "Job cancelled by administrator",
		Body:        fmt.Sprintf("The job %s was cancelled by an administrator. Reason: %s", job.Title, req.Reason),
		RelatedType: models.RelatedTypeJob,
		RelatedID:   job.ID,
		Data:        map[string]interface{}{"reason": req.Reason},
	})
	return job, nil
}

func (s *ModerationServiceImpl) DeleteReview(db *gorm.DB, adminID, reviewID uint64, req *dto.DeleteReviewRequest) error {
	var review *models.JobReview
	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		var err error
		review, err = s.reviewRepo.FindByID(tx, reviewID)
		if err != nil {
			return err
		}
		snapshot := datatypes.JSONMap{
			"review_id":   review.ID,
			"job_id":      review.JobID,
			"reviewer_id": review.ReviewerID,
			"reviewee_id": review.RevieweeID,
			"rating":      review.Rating,
			"comment":     review.Comment,
			"created_at":  review.CreatedAt,
		}

		if err := s.reviewRepo.Delete(tx, review.ID); err != nil {
			return err
		}
		if _, err := s.rating.UpdateRating(tx, review.RevieweeID); err != nil {
			return err
		}
		return s.moderationRepo.CreateAction(tx, &models.AdminAction{
			AdminID:    adminID,
			ActionType: models.AdminActionReviewDeleted,
			TargetType: models.TargetTypeReview,
			TargetID:   uint64Ptr(review.ID),
			Reason:     strPtr(req.Reason),
			Metadata:   snapshot,
		})
	})
	if err != nil {
		return appErrorOr(err, handleModerationError)
	}

	metrics.RecordModerationAction(models.AdminActionReviewDeleted)
	s.notifier.Notify(db, review.ReviewerID, Notice{
		Type:        models.NotificationAdminReviewRemoved,
		Title:       "Review removed",
		Body:        fmt.Sprintf("Your review was removed by an administrator. Reason: %s", req.Reason),
		RelatedType: models.RelatedTypeReview,
		RelatedID:   review.ID,
		Data:        map[string]interface{}{"job_id": review.JobID},
	})
	return nil
}

// ==========================
// Ban complaints
// ==========================

func (s *ModerationServiceImpl) SubmitBanComplaint(db *gorm.DB, req *dto.SubmitBanComplaintRequest) (*models.BanComplaint, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NotFound(moderationDomain, "No account with this email").WithError(err)
		}
		return nil, apperrors.InternalError(err)
	}
	banned, _, err := s.IsCurrentlyBanned(db, user.ID)
	if err != nil {
		return nil, err
	}
	if !banned {
		return nil, apperrors.ErrInvalidStatus(moderationDomain, "Account is not banned").
			WithDetails(map[string]interface{}{"is_banned": false})
	}

	complaint := &models.BanComplaint{
		UserID:      user.ID,
		Email:       user.Email,
		Reason:      req.Reason,
		EvidenceURL: req.EvidenceURL,
		Status:      models.BanComplaintStatusPending,
	}
	if err := s.moderationRepo.CreateComplaint(db, complaint); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return complaint, nil
}

func (s *ModerationServiceImpl) HandleBanComplaint(db *gorm.DB, adminID, complaintID uint64, req *dto.HandleBanComplaintRequest) (*models.BanComplaint, error) {
	if !req.Status.IsValid() {
		return nil, apperrors.FieldError("status", "Unknown complaint status")
	}

	var complaint *models.BanComplaint
	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		var err error
		complaint, err = s.moderationRepo.FindComplaintByIDForUpdate(tx, complaintID)
		if err != nil {
			return err
		}
		now := s.now()
		complaint.Status = req.Status
		complaint.AdminNotes = strPtr(req.Notes)
		complaint.HandledBy = uint64Ptr(adminID)
		complaint.HandledAt = &now
		if err := s.moderationRepo.SaveComplaint(tx, complaint); err != nil {
			return err
		}
		return s.moderationRepo.CreateAction(tx, &models.AdminAction{
			AdminID:    adminID,
			ActionType: models.AdminActionBanComplaintPrefix + string(req.Status),
			TargetType: models.TargetTypeBanComplaint,
			TargetID:   uint64Ptr(complaint.ID),
			Reason:     strPtr(req.Notes),
			Metadata:   datatypes.JSONMap{"user_id": complaint.UserID},
		})
	})
	if err != nil {
		return nil, appErrorOr(err, handleModerationError)
	}
	metrics.RecordModerationAction(models.AdminActionBanComplaintPrefix + string(req.Status))
	return complaint, nil
}

func handleModerationError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrBanComplaintNotFound):
		return apperrors.NotFound(moderationDomain, "Ban complaint not found").WithError(err)
	case errors.Is(err, repositories.ErrReviewNotFound):
		return apperrors.NotFound("review", "Review not found").WithError(err)
	default:
		return handleJobError(err)
	}
}
