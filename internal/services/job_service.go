package services

import (
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"gigsos_backend/internal/geo"
	"gigsos_backend/internal/logger"
	"gigsos_backend/internal/metrics"
	"gigsos_backend/internal/models"
	"gigsos_backend/internal/repositories"
	"gigsos_backend/internal/services/dto"
	"gigsos_backend/pkg/apperrors"
)

const jobDomain = "job"

type JobService interface {
	// CRUD
	CreateJob(db *gorm.DB, customerID uint64, req *dto.CreateJobRequest) (*models.Job, error)
	ListJobs(db *gorm.DB, query *dto.JobListQuery) (*dto.PaginatedResponse, error)
	GetJob(db *gorm.DB, jobID uint64) (*models.Job, error)
	UpdateJob(db *gorm.DB, userID, jobID uint64, req *dto.UpdateJobRequest) (*models.Job, error)
	DeleteJob(db *gorm.DB, userID, jobID uint64) error

	// Заявки
	Apply(db *gorm.DB, workerID, jobID uint64, req *dto.ApplyJobRequest) (*models.JobApplication, error)
	AcceptApplication(db *gorm.DB, customerID, jobID, applicationID uint64) (*dto.AcceptApplicationResponse, error)
	RejectApplication(db *gorm.DB, customerID, jobID, applicationID uint64) (*models.JobApplication, error)
	AssignWorker(db *gorm.DB, customerID, jobID, workerID uint64) (*models.Job, error)

	// Приватные заказы
	AcceptPrivateOrder(db *gorm.DB, workerID, jobID uint64) (*models.Job, error)
	RejectPrivateOrder(db *gorm.DB, workerID, jobID uint64) (*models.Job, error)

	// Завершение и споры
	MarkCompleted(db *gorm.DB, workerID, jobID uint64) (*models.Job, error)
	ConfirmCompletion(db *gorm.DB, customerID, jobID uint64) (*dto.JobCompletionResponse, error)
	CompleteLegacy(db *gorm.DB, customerID, jobID uint64) (*dto.JobCompletionResponse, error)
	Dispute(db *gorm.DB, customerID, jobID uint64, req *dto.DisputeJobRequest) (*models.Job, error)
	Cancel(db *gorm.DB, userID, jobID uint64) (*dto.CancelResponse, error)

	// Запросы
	MyJobs(db *gorm.DB, customerID uint64, pageNum int) (*dto.PaginatedResponse, error)
	MyAssignedJobs(db *gorm.DB, workerID uint64, pageNum int) (*dto.PaginatedResponse, error)
	MyApplications(db *gorm.DB, workerID uint64, pageNum int) (*dto.PaginatedResponse, error)
	JobApplications(db *gorm.DB, customerID, jobID uint64) ([]models.JobApplication, error)
}

type JobServiceImpl struct {
	jobRepo         repositories.JobRepository
	applicationRepo repositories.ApplicationRepository
	userRepo        repositories.UserRepository
	txr             repositories.Transactor
	points          PointsService
	notifier        NotificationDispatcher
	now             Clock
}

func NewJobService(
	jobRepo repositories.JobRepository,
	applicationRepo repositories.ApplicationRepository,
	userRepo repositories.UserRepository,
	txr repositories.Transactor,
	points PointsService,
	notifier NotificationDispatcher,
) JobService {
	return &JobServiceImpl{
		jobRepo:         jobRepo,
		applicationRepo: applicationRepo,
		userRepo:        userRepo,
		txr:             txr,
		points:          points,
		notifier:        notifier,
		now:             systemClock,
	}
}

// ==========================
// CRUD
// ==========================

func (s *JobServiceImpl) CreateJob(db *gorm.DB, customerID uint64, req *dto.CreateJobRequest) (*models.Job, error) {
	if req.Price.IsNegative() {
		return nil, apperrors.FieldError("price", "Price cannot be negative")
	}
	if req.ScheduledTime != nil && !req.ScheduledTime.After(s.now()) {
		return nil, apperrors.FieldError("scheduled_time", "Scheduled time must be in the future")
	}

	job := &models.Job{
		CustomerID:     customerID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Price:          *req.Price,
		Latitude:       *req.Latitude,
		Longitude:      *req.Longitude,
		Address:        req.Address,
		ScheduledTime:  req.ScheduledTime,
		Status:         models.JobStatusPending,
		ImageURLs:      datatypes.JSONSlice[string](req.ImageURLs),
		AdditionalInfo: datatypes.JSONMap(req.AdditionalInfo),
	}

	if req.AssignedWorkerID != nil {
		workerID := *req.AssignedWorkerID
		if workerID == customerID {
			return nil, apperrors.FieldError("assigned_worker_id", "Cannot assign the job to yourself")
		}
		if _, err := s.userRepo.FindByID(db, workerID); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return nil, apperrors.FieldError("assigned_worker_id", "Worker does not exist")
			}
			return nil, apperrors.InternalError(err)
		}
		job.AssignedWorkerID = &workerID
		job.SetKind(models.JobKindPrivate)
	}

	if err := s.jobRepo.Create(db, job); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if job.IsPrivate() {
		s.notifier.Notify(db, *job.AssignedWorkerID, Notice{
			Type:        models.NotificationPrivateOrderNew,
			Title:       "New private order",
			Body:        fmt.Sprintf("You have received a private order: %s", job.Title),
			RelatedType: models.RelatedTypeJob,
			RelatedID:   job.ID,
			Data:        map[string]interface{}{"customer_id": customerID},
		})
	}
	return job, nil
}

func (s *JobServiceImpl) ListJobs(db *gorm.DB, query *dto.JobListQuery) (*dto.PaginatedResponse, error) {
	if query.Partial() {
		return nil, apperrors.FieldError("radius", "latitude, longitude and radius must be provided together")
	}

	filter := repositories.JobFilter{
		Status:     models.JobStatusPending,
		Pagination: page(query.Page),
	}
	if query.Status != "" {
		filter.Status = models.JobStatus(query.Status)
	}
	if query.Category != "" {
		category := models.JobCategory(query.Category)
		filter.Category = &category
	}
	if query.Complete() {
		filter.Center = &geo.Point{Lat: *query.Latitude, Lon: *query.Longitude}
		filter.RadiusKm = *query.Radius
	}

	jobs, total, err := s.jobRepo.FindPublic(db, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(jobs, total, filter.Page, filter.PageSize), nil
}

func (s *JobServiceImpl) GetJob(db *gorm.DB, jobID uint64) (*models.Job, error) {
	job, err := s.jobRepo.FindByID(db, jobID)
	if err != nil {
		return nil, handleJobError(err)
	}
	return job, nil
}

func (s *JobServiceImpl) UpdateJob(db *gorm.DB, userID, jobID uint64, req *dto.UpdateJobRequest) (*models.Job, error) {
	var job *models.Job
	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		var err error
		job, err = s.lockOwnedJob(tx, userID, jobID)
		if err != nil {
			return err
		}

		if req.Title != nil {
			job.Title = *req.Title
		}
		if req.Description != nil {
			job.Description = *req.Description
		}
		if req.Category != nil {
			job.Category = *req.Category
		}
		if req.Price != nil {
			if req.Price.IsNegative() {
				return apperrors.FieldError("price", "Price cannot be negative")
			}
			job.Price = *req.Price
		}
		if req.Latitude != nil {
			job.Latitude = *req.Latitude
		}
		if req.Longitude != nil {
			job.Longitude = *req.Longitude
		}
		if req.Address != nil {
			job.Address = *req.Address
		}
		if req.ScheduledTime != nil {
			job.ScheduledTime = req.ScheduledTime
		}
		if req.ImageURLs != nil {
			job.ImageURLs = datatypes.JSONSlice[string](req.ImageURLs)
		}
		if req.AdditionalInfo != nil {
			private := job.IsPrivate()
			job.AdditionalInfo = datatypes.JSONMap(req.AdditionalInfo)
			// вид заказа нельзя поменять через additional_info
			if private {
				job.SetKind(models.JobKindPrivate)
			} else if job.IsPrivate() {
				job.SetKind(models.JobKindPublic)
			}
		}

		if req.Status != nil && *req.Status != job.Status {
			if err := s.setStatusDirectly(tx, job, *req.Status, userID); err != nil {
				return err
			}
		}
		return s.jobRepo.Save(tx, job)
	})
	if err != nil {
		return nil, appErrorOr(err, handleJobError)
	}
	return job, nil
}

// setStatusDirectly - общий обход state machine владельцем, только достижимые статусы
func (s *JobServiceImpl) setStatusDirectly(tx *gorm.DB, job *models.Job, status models.JobStatus, actorID uint64) error {
	if !status.IsReachable() {
		return apperrors.FieldError("status", fmt.Sprintf("Status %s cannot be set", status))
	}
	if status == models.JobStatusPending && job.AssignedWorkerID != nil && !job.IsPrivate() {
		return apperrors.ErrInvalidStatus(jobDomain, "Cannot move an assigned job back to pending").
			WithDetails(map[string]interface{}{
				"current_status":     job.Status,
				"assigned_worker_id": *job.AssignedWorkerID,
			})
	}

	from := job.Status
	job.Status = status
	if status == models.JobStatusCancelled {
		if _, err := s.applicationRepo.RejectPending(tx, job.ID, 0); err != nil {
			return err
		}
	}
	logger.TransitionLog(jobDomain, job.ID, string(from), string(status), actorID)
	metrics.RecordJobTransition("owner_update", string(status))
	return nil
}

func (s *JobServiceImpl) DeleteJob(db *gorm.DB, userID, jobID uint64) error {
	job, err := s.jobRepo.FindByID(db, jobID)
	if err != nil {
		return handleJobError(err)
	}
	if !job.IsOwnedBy(userID) {
		return apperrors.Forbidden(jobDomain, "Only the job owner can delete the job")
	}
	if err := s.jobRepo.Delete(db, jobID); err != nil {
		return handleJobError(err)
	}
	return nil
}

// ==========================
// Applications
// ==========================

func (s *JobServiceImpl) Apply(db *gorm.DB, workerID, jobID uint64, req *dto.ApplyJobRequest) (*models.JobApplication, error) {
	var application *models.JobApplication
	var job *models.Job
	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		var err error
		job, err = s.jobRepo.FindByIDForUpdate(tx, jobID)
		if err != nil {
			return err
		}
		if job.IsOwnedBy(workerID) {
			return apperrors.ErrInvalidOperation(jobDomain, "Cannot apply to your own job")
		}
		if job.IsPrivate() {
			return apperrors.ErrInvalidOperation(jobDomain, "Private orders do not accept applications")
		}
		if job.Status != models.JobStatusPending {
			return apperrors.ErrInvalidStatus(jobDomain, "Job is not accepting applications").
				WithDetails(map[string]interface{}{
					"current_status":  job.Status,
					"required_status": models.JobStatusPending,
				})
		}

		existing, err := s.applicationRepo.FindByJobAndWorker(tx, jobID, workerID)
		switch {
		case err == nil:
			if existing.Status != models.ApplicationStatusCancelled {
				return apperrors.ErrConflict(repositories.ErrApplicationAlreadyExists, jobDomain, "You have already applied to this job").
					WithDetails(map[string]interface{}{"application_status": existing.Status})
			}
			now := s.now()
			if err := s.applicationRepo.Reactivate(tx, existing.ID, req.Message, now); err != nil {
				return err
			}
			existing.Status = models.ApplicationStatusPending
			existing.AppliedAt = now
			existing.Message = req.Message
			application = existing
			return nil
		case errors.Is(err, repositories.ErrApplicationNotFound):
			application = &models.JobApplication{
				JobID:     jobID,
				WorkerID:  workerID,
				Status:    models.ApplicationStatusPending,
				AppliedAt: s.now(),
				Message:   req.Message,
			}
			return s.applicationRepo.Create(tx, application)
		default:
			return err
		}
	})
	if err != nil {
		return nil, appErrorOr(err, handleJobError)
	}

	s.notifier.Notify(db, job.CustomerID, Notice{
		Type:        models.NotificationJobApplication,
		Title:       "New application",
		Body:        fmt.Sprintf("A worker applied to your job: %s", job.Title),
		RelatedType: models.RelatedTypeJob,
		RelatedID:   job.ID,
		Data:        map[string]interface{}{"application_id": application.ID, "worker_id": workerID},
	})
	return application, nil
}

func (s *JobServiceImpl) AcceptApplication(db *gorm.DB, customerID, jobID, applicationID uint64) (*dto.AcceptApplicationResponse, error) {
	var job *models.Job
	var application *models.JobApplication
	var rejected []uint64

	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		var err error
		job, err = s.lockOwnedJob(tx, customerID, jobID)
		if err != nil {
			return err
		}
		application, err = s.lockApplicationOfJob(tx, jobID, applicationID)
		if err != nil {
			return err
		}
		if application.Status != models.ApplicationStatusPending {
			return applicationStatusError(application, "Only pending applications can be accepted")
		}

		from := job.Status
		if err := job.Apply(models.TransitionAcceptApplication); err != nil {
			return transitionError(jobDomain, err)
		}
		job.AssignedWorkerID = uint64Ptr(application.WorkerID)

		if err := s.applicationRepo.UpdateStatus(tx, application.ID, models.ApplicationStatusAccepted); err != nil {
			return err
		}
		application.Status = models.ApplicationStatusAccepted

		rejected, err = s.applicationRepo.RejectPending(tx, jobID, application.ID)
		if err != nil {
			return err
		}
		if err := s.jobRepo.Save(tx, job); err != nil {
			return err
		}
		s.recordTransition(job, from, models.TransitionAcceptApplication, customerID)
		return nil
	})
	if err != nil {
		return nil, appErrorOr(err, handleJobError)
	}

	s.notifier.Notify(db, application.WorkerID, Notice{
		Type:        models.NotificationJobAccepted,
		Title:       "Application accepted",
		Body:        fmt.Sprintf("Your application for %s was accepted", job.Title),
		RelatedType: models.RelatedTypeJob,
		RelatedID:   job.ID,
	})
	s.notifier.NotifyMany(db, rejected, Notice{
		Type:        models.NotificationJobRejected,
		Title:       "Application rejected",
		Body:        fmt.Sprintf("Another worker was selected for %s", job.Title),
		RelatedType: models.RelatedTypeJob,
		RelatedID:   job.ID,
	})

	return &dto.AcceptApplicationResponse{
		Job:                  job,
		Application:          application,
		RejectedApplications: len(rejected),
	}, nil
}

func (s *JobServiceImpl) RejectApplication(db *gorm.DB, customerID, jobID, applicationID uint64) (*models.JobApplication, error) {
	var job *models.Job
	var application *models.JobApplication
	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		var err error
		job, err = s.lockOwnedJob(tx, customerID, jobID)
		if err != nil {
			return err
		}
		application, err = s.lockApplicationOfJob(tx, jobID, applicationID)
		if err != nil {
			return err
		}
		if application.Status != models.ApplicationStatusPending {
			return applicationStatusError(application, "Only pending applications can be rejected")
		}
		if err := s.applicationRepo.UpdateStatus(tx, application.ID, models.ApplicationStatusRejected); err != nil {
			return err
		}
		application.Status = models.ApplicationStatusRejected
		return nil
	})
	if err != nil {
		return nil, appErrorOr(err, handleJobError)
	}

	s.notifier.Notify(db, application.WorkerID, Notice{
		Type:        models.NotificationJobRejected,
		Title:       "Application rejected",
		Body:        fmt.Sprintf("Your application for %s was rejected", job.Title),
		RelatedType: models.RelatedTypeJob,
		RelatedID:   job.ID,
	})
	return application, nil
}

func (s *JobServiceImpl) AssignWorker(db *gorm.DB, customerID, jobID, workerID uint64) (*models.Job, error) {
	if workerID == customerID {
		return nil, apperrors.FieldError("worker_id", "Cannot assign the job to yourself")
	}
	if _, err := s.userRepo.FindByID(db, workerID); err != nil {
		return nil, handleUserError(err)
	}

	var job *models.Job
	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		var err error
		job, err = s.lockOwnedJob(tx, customerID, jobID)
		if err != nil {
			return err
		}
		from := job.Status
		if err := job.Apply(models.TransitionAssign); err != nil {
			return transitionError(jobDomain, err)
		}
		job.AssignedWorkerID = uint64Ptr(workerID)
		if err := s.jobRepo.Save(tx, job); err != nil {
			return err
		}
		s.recordTransition(job, from, models.TransitionAssign, customerID)
		return nil
	})
	if err != nil {
		return nil, appErrorOr(err, handleJobError)
	}

	s.notifier.Notify(db, workerID, Notice{
		Type:        models.NotificationJobAccepted,
		Title:       "You were assigned a job",
		Body:        fmt.Sprintf("You were assigned to %s", job.Title),
		RelatedType: models.RelatedTypeJob,
		RelatedID:   job.ID,
	})
	return job, nil
}

// ==========================
// Private orders
// ==========================

func (s *JobServiceImpl) AcceptPrivateOrder(db *gorm.DB, workerID, jobID uint64) (*models.Job, error) {
	return s.answerPrivateOrder(db, workerID, jobID, models.TransitionAcceptPrivate)
}

func (s *JobServiceImpl) RejectPrivateOrder(db *gorm.DB, workerID, jobID uint64) (*models.Job, error) {
	return s.answerPrivateOrder(db, workerID, jobID, models.TransitionRejectPrivate)
}

func (s *JobServiceImpl) answerPrivateOrder(db *gorm.DB, workerID, jobID uint64, transition models.JobTransition) (*models.Job, error) {
	var job *models.Job
	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		var err error
		job, err = s.lockAssignedJob(tx, workerID, jobID)
		if err != nil {
			return err
		}
		if !job.IsPrivate() {
			return apperrors.ErrInvalidOperation(jobDomain, "Job is not a private order")
		}
		from := job.Status
		if err := job.Apply(transition); err != nil {
			return transitionError(jobDomain, err)
		}
		if err := s.jobRepo.Save(tx, job); err != nil {
			return err
		}
		s.recordTransition(job, from, transition, workerID)
		return nil
	})
	if err != nil {
		return nil, appErrorOr(err, handleJobError)
	}

	notice := Notice{
		Type:        models.NotificationPrivateOrderAccepted,
		Title:       "Private order accepted",
		Body:        fmt.Sprintf("The worker accepted your order: %s", job.Title),
		RelatedType: models.RelatedTypeJob,
		RelatedID:   job.ID,
	}
	if transition == models.TransitionRejectPrivate {
		notice.Type = models.NotificationPrivateOrderRejected
		notice.Title = "Private order rejected"
		notice.Body = fmt.Sprintf("The worker declined your order: %s", job.Title)
	}
	s.notifier.Notify(db, job.CustomerID, notice)
	return job, nil
}

// ==========================
// Completion
// ==========================

func (s *JobServiceImpl) MarkCompleted(db *gorm.DB, workerID, jobID uint64) (*models.Job, error) {
	var job *models.Job
	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		var err error
		job, err = s.lockAssignedJob(tx, workerID, jobID)
		if err != nil {
			return err
		}
		from := job.Status
		if err := job.Apply(models.TransitionWorkerComplete); err != nil {
			return transitionError(jobDomain, err)
		}
		if err := s.jobRepo.Save(tx, job); err != nil {
			return err
		}
		s.recordTransition(job, from, models.TransitionWorkerComplete, workerID)
		return nil
	})
	if err != nil {
		return nil, appErrorOr(err, handleJobError)
	}

	s.notifier.Notify(db, job.CustomerID, Notice{
		Type:        models.NotificationJobCompleted,
		Title:       "Job marked as completed",
		Body:        fmt.Sprintf("The worker marked %s as completed. Please confirm.", job.Title),
		RelatedType: models.RelatedTypeJob,
		RelatedID:   job.ID,
	})
	return job, nil
}

func (s *JobServiceImpl) ConfirmCompletion(db *gorm.DB, customerID, jobID uint64) (*dto.JobCompletionResponse, error) {
	return s.confirm(db, customerID, jobID, false)
}

// CompleteLegacy - одношаговое завершение приватного заказа (в работе или ожидает подтверждения)
func (s *JobServiceImpl) CompleteLegacy(db *gorm.DB, customerID, jobID uint64) (*dto.JobCompletionResponse, error) {
	job, err := s.jobRepo.FindByID(db, jobID)
	if err != nil {
		return nil, handleJobError(err)
	}
	if !job.IsOwnedBy(customerID) {
		return nil, apperrors.Forbidden(jobDomain, "Only the job owner can complete the job")
	}
	legal := job.Status == models.JobStatusInProgress || job.Status == models.JobStatusPendingCompletion
	if !job.IsPrivate() || !legal {
		return nil, apperrors.ErrInvalidOperation(jobDomain, "use the two-step completion flow").
			WithDetails(map[string]interface{}{
				"current_status": job.Status,
				"job_kind":       job.Kind(),
			})
	}
	return s.confirm(db, customerID, jobID, true)
}

// confirm - подтверждение заказчиком. Бонус считается по рейтингу работника до транзакции.
func (s *JobServiceImpl) confirm(db *gorm.DB, customerID, jobID uint64, viaLegacy bool) (*dto.JobCompletionResponse, error) {
	current, err := s.jobRepo.FindByID(db, jobID)
	if err != nil {
		return nil, handleJobError(err)
	}
	ratingBefore := 0.0
	if current.AssignedWorkerID != nil {
		worker, err := s.userRepo.FindByID(db, *current.AssignedWorkerID)
		if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.InternalError(err)
		}
		if worker != nil {
			ratingBefore = worker.Rating
		}
	}

	var job *models.Job
	err = s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		var err error
		job, err = s.lockOwnedJob(tx, customerID, jobID)
		if err != nil {
			return err
		}
		if job.AssignedWorkerID == nil {
			return apperrors.ErrInvalidStatus(jobDomain, "Job has no assigned worker").
				WithDetails(map[string]interface{}{"current_status": job.Status})
		}

		from := job.Status
		if viaLegacy && job.Status == models.JobStatusInProgress {
			if err := job.Apply(models.TransitionWorkerComplete); err != nil {
				return transitionError(jobDomain, err)
			}
			s.recordTransition(job, from, models.TransitionWorkerComplete, customerID)
			from = job.Status
		}
		if err := job.Apply(models.TransitionCustomerConfirm); err != nil {
			return transitionError(jobDomain, err)
		}
		now := s.now()
		job.CompletedAt = &now

		if err := s.jobRepo.Save(tx, job); err != nil {
			return err
		}
		if err := s.userRepo.IncrementCounter(tx, *job.AssignedWorkerID, repositories.CounterCompletedJobs, 1); err != nil {
			return err
		}
		s.recordTransition(job, from, models.TransitionCustomerConfirm, customerID)
		return nil
	})
	if err != nil {
		return nil, appErrorOr(err, handleJobError)
	}

	workerID := *job.AssignedWorkerID
	outcome := awardAfterCommit(db, s.points, PointsAward{
		UserID: workerID,
		Delta:  JobCompletionPoints(ratingBefore),
		Reason: ReasonJobCompleted,
	})

	s.notifier.Notify(db, workerID, Notice{
		Type:        models.NotificationJobConfirmed,
		Title:       "Job confirmed",
		Body:        fmt.Sprintf("The customer confirmed completion of %s", job.Title),
		RelatedType: models.RelatedTypeJob,
		RelatedID:   job.ID,
		Data:        map[string]interface{}{"points": outcome.Points},
	})

	return &dto.JobCompletionResponse{Job: job, PointsOutcome: outcome}, nil
}

func (s *JobServiceImpl) Dispute(db *gorm.DB, customerID, jobID uint64, req *dto.DisputeJobRequest) (*models.Job, error) {
	var job *models.Job
	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		var err error
		job, err = s.lockOwnedJob(tx, customerID, jobID)
		if err != nil {
			return err
		}
		from := job.Status
		if err := job.Apply(models.TransitionDispute); err != nil {
			return transitionError(jobDomain, err)
		}
		job.SetInfo(models.AdditionalInfoDisputeReason, req.Reason)
		job.SetInfo(models.AdditionalInfoDisputedAt, s.now())
		if err := s.jobRepo.Save(tx, job); err != nil {
			return err
		}
		s.recordTransition(job, from, models.TransitionDispute, customerID)
		return nil
	})
	if err != nil {
		return nil, appErrorOr(err, handleJobError)
	}

	if job.AssignedWorkerID != nil {
		s.notifier.Notify(db, *job.AssignedWorkerID, Notice{
			Type:        models.NotificationJobDisputed,
			Title:       "Job disputed",
			Body:        fmt.Sprintf("The customer disputed completion of %s", job.Title),
			RelatedType: models.RelatedTypeJob,
			RelatedID:   job.ID,
			Data:        map[string]interface{}{"reason": req.Reason},
		})
	}
	return job, nil
}

// Cancel - заказчик или исполнитель отменяют job целиком, остальные могут отозвать свою заявку
func (s *JobServiceImpl) Cancel(db *gorm.DB, userID, jobID uint64) (*dto.CancelResponse, error) {
	resp := &dto.CancelResponse{}
	var notify []uint64
	var notice Notice

	err := s.txr.WithinTransaction(db, func(tx *gorm.DB) error {
		job, err := s.jobRepo.FindByIDForUpdate(tx, jobID)
		if err != nil {
			return err
		}

		if job.IsOwnedBy(userID) || job.IsAssignedTo(userID) {
			from := job.Status
			if err := job.Apply(models.TransitionCancel); err != nil {
				return transitionError(jobDomain, err)
			}
			if _, err := s.applicationRepo.RejectPending(tx, job.ID, 0); err != nil {
				return err
			}
			if err := s.jobRepo.Save(tx, job); err != nil {
				return err
			}
			s.recordTransition(job, from, models.TransitionCancel, userID)

			resp.Scope = dto.CancelScopeJob
			resp.Job = job
			if job.IsOwnedBy(userID) && job.AssignedWorkerID != nil {
				notify = []uint64{*job.AssignedWorkerID}
			} else if job.IsAssignedTo(userID) {
				notify = []uint64{job.CustomerID}
			}
			notice = Notice{
				Type:        models.NotificationJobCancelled,
				Title:       "Job cancelled",
				Body:        fmt.Sprintf("The job %s was cancelled", job.Title),
				RelatedType: models.RelatedTypeJob,
				RelatedID:   job.ID,
				Data:        map[string]interface{}{"cancelled_by": userID},
			}
			return nil
		}

		application, err := s.applicationRepo.FindByJobAndWorker(tx, jobID, userID)
		if errors.Is(err, repositories.ErrApplicationNotFound) {
			return apperrors.Forbidden(jobDomain, "You are not related to this job")
		}
		if err != nil {
			return err
		}
		if application.Status != models.ApplicationStatusPending {
			return applicationStatusError(application, "Only pending applications can be cancelled")
		}
		if err := s.applicationRepo.UpdateStatus(tx, application.ID, models.ApplicationStatusCancelled); err != nil {
			return err
		}
		application.Status = models.ApplicationStatusCancelled

		resp.Scope = dto.CancelScopeApplication
		resp.Application = application
		notify = []uint64{job.CustomerID}
		notice = Notice{
			Type:        models.NotificationJobApplicationCancelled,
			Title:       "Application withdrawn",
			Body:        fmt.Sprintf("A worker withdrew the application for %s", job.Title),
			RelatedType: models.RelatedTypeApplication,
			RelatedID:   application.ID,
			Data:        map[string]interface{}{"job_id": job.ID, "worker_id": userID},
		}
		return nil
	})
	if err != nil {
		return nil, appErrorOr(err, handleJobError)
	}

	s.notifier.NotifyMany(db, notify, notice)
	return resp, nil
}

// ==========================
// Queries
// ==========================

func (s *JobServiceImpl) MyJobs(db *gorm.DB, customerID uint64, pageNum int) (*dto.PaginatedResponse, error) {
	p := page(pageNum)
	jobs, total, err := s.jobRepo.FindByCustomer(db, customerID, p)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(jobs, total, p.Page, p.PageSize), nil
}

func (s *JobServiceImpl) MyAssignedJobs(db *gorm.DB, workerID uint64, pageNum int) (*dto.PaginatedResponse, error) {
	p := page(pageNum)
	jobs, total, err := s.jobRepo.FindByWorker(db, workerID, p)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(jobs, total, p.Page, p.PageSize), nil
}

func (s *JobServiceImpl) MyApplications(db *gorm.DB, workerID uint64, pageNum int) (*dto.PaginatedResponse, error) {
	p := page(pageNum)
	applications, total, err := s.applicationRepo.FindByWorker(db, workerID, p)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(applications, total, p.Page, p.PageSize), nil
}

func (s *JobServiceImpl) JobApplications(db *gorm.DB, customerID, jobID uint64) ([]models.JobApplication, error) {
	job, err := s.jobRepo.FindByID(db, jobID)
	if err != nil {
		return nil, handleJobError(err)
	}
	if !job.IsOwnedBy(customerID) {
		return nil, apperrors.Forbidden(jobDomain, "Only the job owner can view applications")
	}
	applications, err := s.applicationRepo.FindByJob(db, jobID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return applications, nil
}

// ==========================
// Helpers
// ==========================

func (s *JobServiceImpl) lockOwnedJob(tx *gorm.DB, customerID, jobID uint64) (*models.Job, error) {
	job, err := s.jobRepo.FindByIDForUpdate(tx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsOwnedBy(customerID) {
		return nil, apperrors.Forbidden(jobDomain, "Only the job owner can perform this action")
	}
	return job, nil
}

func (s *JobServiceImpl) lockAssignedJob(tx *gorm.DB, workerID, jobID uint64) (*models.Job, error) {
	job, err := s.jobRepo.FindByIDForUpdate(tx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsAssignedTo(workerID) {
		return nil, apperrors.Forbidden(jobDomain, "Only the assigned worker can perform this action")
	}
	return job, nil
}

func (s *JobServiceImpl) lockApplicationOfJob(tx *gorm.DB, jobID, applicationID uint64) (*models.JobApplication, error) {
	application, err := s.applicationRepo.FindByIDForUpdate(tx, applicationID)
	if err != nil {
		return nil, err
	}
	if application.JobID != jobID {
		return nil, apperrors.NotFound("application", "Application not found for this job")
	}
	return application, nil
}

func (s *JobServiceImpl) recordTransition(job *models.Job, from models.JobStatus, t models.JobTransition, actorID uint64) {
	logger.TransitionLog(jobDomain, job.ID, string(from), string(job.Status), actorID)
	metrics.RecordJobTransition(string(t), string(job.Status))
}

func applicationStatusError(application *models.JobApplication, message string) error {
	return apperrors.ErrInvalidStatus("application", message).WithDetails(map[string]interface{}{
		"current_status":  application.Status,
		"required_status": models.ApplicationStatusPending,
	})
}

func handleJobError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrJobNotFound):
		return apperrors.NotFound(jobDomain, "Job not found").WithError(err)
	case errors.Is(err, repositories.ErrApplicationNotFound):
		return apperrors.NotFound("application", "Application not found").WithError(err)
	case errors.Is(err, repositories.ErrApplicationAlreadyExists):
		return apperrors.ErrConflict(err, jobDomain, "You have already applied to this job")
	case errors.Is(err, repositories.ErrUserNotFound):
		return handleUserError(err)
	default:
		return apperrors.InternalError(err)
	}
}
