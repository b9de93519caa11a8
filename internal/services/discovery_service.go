package services

import (
	"sort"

	"gorm.io/gorm"

	"gigsos_backend/internal/geo"
	"gigsos_backend/internal/models"
	"gigsos_backend/internal/repositories"
	"gigsos_backend/internal/services/dto"
	"gigsos_backend/pkg/apperrors"
)

// Ограничения поиска рядом
const (
	DefaultDiscoveryMaxRadiusKm = 50.0
	DefaultDiscoveryResultLimit = 50
	MinDiscoveryRadiusKm        = 0.1
)

type DiscoveryService interface {
	UpdateLocation(db *gorm.DB, userID uint64, req *dto.UpdateLocationRequest) (*models.User, error)
	NearbyUsers(db *gorm.DB, userID uint64, query *dto.NearbyQuery) ([]dto.NearbyUser, error)
	NearbyJobs(db *gorm.DB, query *dto.NearbyQuery) ([]models.Job, error)
	NearbySOS(db *gorm.DB, query *dto.NearbyQuery) ([]models.SOSRequest, error)
}

type DiscoveryOptions struct {
	MaxRadiusKm float64
	ResultLimit int
}

type DiscoveryServiceImpl struct {
	userRepo repositories.UserRepository
	jobRepo  repositories.JobRepository
	sosRepo  repositories.SOSRepository
	opts     DiscoveryOptions
	now      Clock
}

func NewDiscoveryService(
	userRepo repositories.UserRepository,
	jobRepo repositories.JobRepository,
	sosRepo repositories.SOSRepository,
	opts DiscoveryOptions,
) DiscoveryService {
	if opts.MaxRadiusKm <= 0 {
		opts.MaxRadiusKm = DefaultDiscoveryMaxRadiusKm
	}
	if opts.ResultLimit <= 0 {
		opts.ResultLimit = DefaultDiscoveryResultLimit
	}
	return &DiscoveryServiceImpl{
		userRepo: userRepo,
		jobRepo:  jobRepo,
		sosRepo:  sosRepo,
		opts:     opts,
		now:      systemClock,
	}
}

func (s *DiscoveryServiceImpl) UpdateLocation(db *gorm.DB, userID uint64, req *dto.UpdateLocationRequest) (*models.User, error) {
	if err := s.userRepo.UpdateLocation(db, userID, *req.Latitude, *req.Longitude, req.Address, s.now()); err != nil {
		return nil, handleUserError(err)
	}
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, handleUserError(err)
	}
	return user, nil
}

func (s *DiscoveryServiceImpl) NearbyUsers(db *gorm.DB, userID uint64, query *dto.NearbyQuery) ([]dto.NearbyUser, error) {
	center, radius, err := s.searchArea(query)
	if err != nil {
		return nil, err
	}
	candidates, err := s.userRepo.FindWithLocationNear(db, center.Lat, radius, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := make([]dto.NearbyUser, 0)
	for i := range candidates {
		u := &candidates[i]
		if u.ID == userID || !u.HasCurrentLocation() {
			continue
		}
		d := geo.Distance(center, geo.Point{Lat: *u.CurrentLatitude, Lon: *u.CurrentLongitude})
		if geo.WithinRadius(d, radius) {
			result = append(result, dto.NewNearbyUser(u, geo.Round2(d)))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Distance != result[j].Distance {
			return result[i].Distance < result[j].Distance
		}
		return result[i].ID < result[j].ID
	})
	return limit(result, s.opts.ResultLimit), nil
}

func (s *DiscoveryServiceImpl) NearbyJobs(db *gorm.DB, query *dto.NearbyQuery) ([]models.Job, error) {
	center, radius, err := s.searchArea(query)
	if err != nil {
		return nil, err
	}
	var category *models.JobCategory
	if query.Category != "" {
		c := models.JobCategory(query.Category)
		category = &c
	}
	candidates, err := s.jobRepo.FindOpenNear(db, center.Lat, radius, category)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := make([]models.Job, 0)
	for _, job := range candidates {
		if job.Status != models.JobStatusPending || job.AssignedWorkerID != nil || job.IsPrivate() {
			continue
		}
		d := geo.Distance(center, geo.Point{Lat: job.Latitude, Lon: job.Longitude})
		if !geo.WithinRadius(d, radius) {
			continue
		}
		rounded := geo.Round2(d)
		job.Distance = &rounded
		result = append(result, job)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if *result[i].Distance != *result[j].Distance {
			return *result[i].Distance < *result[j].Distance
		}
		return result[i].ID < result[j].ID
	})
	return limit(result, s.opts.ResultLimit), nil
}

func (s *DiscoveryServiceImpl) NearbySOS(db *gorm.DB, query *dto.NearbyQuery) ([]models.SOSRequest, error) {
	center, radius, err := s.searchArea(query)
	if err != nil {
		return nil, err
	}
	candidates, err := s.sosRepo.FindActiveNear(db, center.Lat, radius)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := make([]models.SOSRequest, 0)
	for _, sos := range candidates {
		if sos.Status != models.SOSStatusActive {
			continue
		}
		d := geo.Distance(center, geo.Point{Lat: sos.Latitude, Lon: sos.Longitude})
		if !geo.WithinRadius(d, radius) {
			continue
		}
		rounded := geo.Round2(d)
		sos.Distance = &rounded
		result = append(result, sos)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if *result[i].Distance != *result[j].Distance {
			return *result[i].Distance < *result[j].Distance
		}
		return result[i].ID < result[j].ID
	})
	return limit(result, s.opts.ResultLimit), nil
}

func (s *DiscoveryServiceImpl) searchArea(query *dto.NearbyQuery) (geo.Point, float64, error) {
	if query.Latitude == nil || query.Longitude == nil || query.Radius == nil {
		return geo.Point{}, 0, apperrors.FieldError("radius", "latitude, longitude and radius are required")
	}
	center := geo.Point{Lat: *query.Latitude, Lon: *query.Longitude}
	if !center.Valid() {
		return geo.Point{}, 0, apperrors.FieldError("latitude", "Coordinates are out of range")
	}
	radius := *query.Radius
	if radius < MinDiscoveryRadiusKm || radius > s.opts.MaxRadiusKm {
		return geo.Point{}, 0, apperrors.FieldError("radius", "Radius is out of range")
	}
	return center, radius, nil
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// SelectRepresentativeAddresses - по одному адресу с координатами на пользователя:
// default, затем с last_used_at (позже - выше), затем по created_at (позже - выше)
func SelectRepresentativeAddresses(addresses []models.Address) map[uint64]models.Address {
	result := make(map[uint64]models.Address)
	for _, a := range addresses {
		if !a.HasUsableLocation() {
			continue
		}
		current, ok := result[a.UserID]
		if !ok || addressPreferred(a, current) {
			result[a.UserID] = a
		}
	}
	return result
}

func addressPreferred(a, b models.Address) bool {
	if a.IsDefault != b.IsDefault {
		return a.IsDefault
	}
	if (a.LastUsedAt != nil) != (b.LastUsedAt != nil) {
		return a.LastUsedAt != nil
	}
	if a.LastUsedAt != nil && !a.LastUsedAt.Equal(*b.LastUsedAt) {
		return a.LastUsedAt.After(*b.LastUsedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
