package services

import (
	"gorm.io/gorm"

	"gigsos_backend/internal/models"
	"gigsos_backend/internal/repositories"
	"gigsos_backend/internal/services/dto"
	"gigsos_backend/pkg/apperrors"
)

const (
	dashboardRecentActions = 10
	dashboardRecentBans    = 5
)

// AdminService - дашборд и списки для панели администратора
type AdminService interface {
	Dashboard(db *gorm.DB) (*dto.DashboardResponse, error)
	ListUsers(db *gorm.DB, query *dto.AdminUserQuery) (*dto.PaginatedResponse, error)
	ListJobs(db *gorm.DB, query *dto.AdminJobQuery) (*dto.PaginatedResponse, error)
	ListSOS(db *gorm.DB, query *dto.AdminSOSQuery) (*dto.PaginatedResponse, error)
	ListReviews(db *gorm.DB, query *dto.AdminReviewQuery) (*dto.PaginatedResponse, error)
	ListComplaints(db *gorm.DB, query *dto.AdminComplaintQuery) (*dto.PaginatedResponse, error)
}

type AdminServiceImpl struct {
	userRepo       repositories.UserRepository
	jobRepo        repositories.JobRepository
	sosRepo        repositories.SOSRepository
	reviewRepo     repositories.ReviewRepository
	moderationRepo repositories.ModerationRepository
}

func NewAdminService(
	userRepo repositories.UserRepository,
	jobRepo repositories.JobRepository,
	sosRepo repositories.SOSRepository,
	reviewRepo repositories.ReviewRepository,
	moderationRepo repositories.ModerationRepository,
) AdminService {
	return &AdminServiceImpl{
		userRepo:       userRepo,
		jobRepo:        jobRepo,
		sosRepo:        sosRepo,
		reviewRepo:     reviewRepo,
		moderationRepo: moderationRepo,
	}
}

func (s *AdminServiceImpl) Dashboard(db *gorm.DB) (*dto.DashboardResponse, error) {
	var stats dto.DashboardStats
	var err error

	if stats.TotalUsers, err = s.userRepo.CountAll(db); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if stats.BannedUsers, err = s.userRepo.CountBanned(db); err != nil {
		return nil, apperrors.InternalError(err)
	}
	stats.ActiveJobs, err = s.jobRepo.CountByStatuses(db,
		models.JobStatusPending, models.JobStatusInProgress, models.JobStatusPendingCompletion)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if stats.DisputedJobs, err = s.jobRepo.CountByStatuses(db, models.JobStatusDisputed); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if stats.ActiveSOS, err = s.sosRepo.CountByStatus(db, models.SOSStatusActive); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if stats.CompletedSOS, err = s.sosRepo.CountByStatus(db, models.SOSStatusCompleted); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if stats.TotalReviews, err = s.reviewRepo.CountAll(db); err != nil {
		return nil, apperrors.InternalError(err)
	}

	actions, err := s.moderationRepo.FindRecentActions(db, dashboardRecentActions)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	bans, err := s.moderationRepo.FindRecentBans(db, dashboardRecentBans)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.DashboardResponse{
		Stats:         stats,
		RecentActions: actions,
		RecentBans:    bans,
	}, nil
}

func (s *AdminServiceImpl) ListUsers(db *gorm.DB, query *dto.AdminUserQuery) (*dto.PaginatedResponse, error) {
	p := page(query.Page)
	users, total, err := s.userRepo.FindWithFilter(db, repositories.UserFilter{
		Role:       models.UserRole(query.Role),
		Status:     query.Status,
		Search:     query.Search,
		Pagination: p,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(users, total, p.Page, p.PageSize), nil
}

func (s *AdminServiceImpl) ListJobs(db *gorm.DB, query *dto.AdminJobQuery) (*dto.PaginatedResponse, error) {
	p := page(query.Page)
	jobs, total, err := s.jobRepo.FindForAdmin(db, repositories.AdminJobFilter{
		Status:      models.JobStatus(query.Status),
		OnlyFlagged: query.OnlyFlagged,
		Pagination:  p,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(jobs, total, p.Page, p.PageSize), nil
}

func (s *AdminServiceImpl) ListSOS(db *gorm.DB, query *dto.AdminSOSQuery) (*dto.PaginatedResponse, error) {
	p := page(query.Page)
	items, total, err := s.sosRepo.FindWithFilter(db, repositories.SOSFilter{
		Status:     models.SOSStatus(query.Status),
		Pagination: p,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(items, total, p.Page, p.PageSize), nil
}

func (s *AdminServiceImpl) ListReviews(db *gorm.DB, query *dto.AdminReviewQuery) (*dto.PaginatedResponse, error) {
	p := page(query.Page)
	reviews, total, err := s.reviewRepo.FindWithFilter(db, repositories.ReviewFilter{
		Rating:     query.Rating,
		Search:     query.Search,
		Pagination: p,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(reviews, total, p.Page, p.PageSize), nil
}

func (s *AdminServiceImpl) ListComplaints(db *gorm.DB, query *dto.AdminComplaintQuery) (*dto.PaginatedResponse, error) {
	p := page(query.Page)
	complaints, total, err := s.moderationRepo.FindComplaints(db, repositories.ComplaintFilter{
		Status:     models.BanComplaintStatus(query.Status),
		Pagination: p,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(complaints, total, p.Page, p.PageSize), nil
}
