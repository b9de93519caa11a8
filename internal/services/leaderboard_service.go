package services

import (
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"gigsos_backend/internal/geo"
	"gigsos_backend/internal/models"
	"gigsos_backend/internal/repositories"
	"gigsos_backend/internal/services/dto"
	"gigsos_backend/pkg/apperrors"
)

const (
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
)

type LeaderboardService interface {
	Leaderboard(db *gorm.DB, query *dto.LeaderboardQuery) (*dto.LeaderboardResponse, error)
	UserRanking(db *gorm.DB, userID uint64) (*dto.UserRankingResponse, error)
}

type LeaderboardServiceImpl struct {
	userRepo     repositories.UserRepository
	addressRepo  repositories.AddressRepository
	defaultLimit int
}

func NewLeaderboardService(
	userRepo repositories.UserRepository,
	addressRepo repositories.AddressRepository,
	defaultLimit int,
) LeaderboardService {
	if defaultLimit <= 0 || defaultLimit > MaxLeaderboardLimit {
		defaultLimit = DefaultLeaderboardLimit
	}
	return &LeaderboardServiceImpl{
		userRepo:     userRepo,
		addressRepo:  addressRepo,
		defaultLimit: defaultLimit,
	}
}

// IsEligible - пользователь попадает в рейтинг, если у него есть хоть какая-то активность
func IsEligible(u *models.User) bool {
	return u.TotalPoints > 0 || u.CompletedJobs > 0 || u.CompletedSOS > 0 || u.HelpedSOS > 0
}

// Outranks - a строго выше b: очки, работы, SOS, помощь (по убыванию), затем меньший id
func Outranks(a, b *models.User) bool {
	if a.TotalPoints != b.TotalPoints {
		return a.TotalPoints > b.TotalPoints
	}
	if a.CompletedJobs != b.CompletedJobs {
		return a.CompletedJobs > b.CompletedJobs
	}
	if a.CompletedSOS != b.CompletedSOS {
		return a.CompletedSOS > b.CompletedSOS
	}
	if a.HelpedSOS != b.HelpedSOS {
		return a.HelpedSOS > b.HelpedSOS
	}
	return a.ID < b.ID
}

// Percentile - доля пользователей не выше данного, 0 если рейтинг пуст
func Percentile(rank, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(total-rank+1) / float64(total) * 100
	if p < 0 {
		p = 0
	}
	return round2(p)
}

// leaderboardRow - кандидат с вычисленным расстоянием
type leaderboardRow struct {
	repositories.LeaderboardCandidate
	distance *float64
	address  *models.Address
}

func (s *LeaderboardServiceImpl) Leaderboard(db *gorm.DB, query *dto.LeaderboardQuery) (*dto.LeaderboardResponse, error) {
	categoryName := query.Category
	if categoryName == "" {
		categoryName = dto.CategoryAll
	}
	var category *models.JobCategory
	if categoryName != dto.CategoryAll {
		c := models.JobCategory(categoryName)
		if !c.IsValid() {
			return nil, apperrors.FieldError("category", "Category must be 'all' or a job category")
		}
		category = &c
	}

	if query.Partial() {
		return nil, apperrors.FieldError("radius", "latitude, longitude and radius must be provided together")
	}
	n := query.Limit
	if n <= 0 {
		n = s.defaultLimit
	}
	if n > MaxLeaderboardLimit {
		n = MaxLeaderboardLimit
	}

	candidates, err := s.userRepo.FindLeaderboardCandidates(db, category)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	rows := make([]leaderboardRow, 0, len(candidates))
	for _, c := range candidates {
		if !IsEligible(&c.User) || (category != nil && c.CategoryJobsCount <= 0) {
			continue
		}
		rows = append(rows, leaderboardRow{LeaderboardCandidate: c})
	}

	withLocation := query.Complete()
	if withLocation {
		rows, err = s.filterByLocation(db, rows, geo.Point{Lat: *query.Latitude, Lon: *query.Longitude}, *query.Radius)
		if err != nil {
			return nil, err
		}
	}

	sortLeaderboard(rows, category != nil, withLocation)
	rows = limit(rows, n)

	ids := make([]uint64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	earnings, err := s.userRepo.TotalEarnings(db, ids)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	entries := make([]dto.LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		entry := dto.LeaderboardEntry{
			Rank:             i + 1,
			ID:               r.ID,
			Name:             r.Name,
			Email:            r.Email,
			ProfileImage:     r.ProfileImage,
			Rating:           r.Rating,
			CompletedJobs:    r.CompletedJobs,
			CompletedSOS:     r.CompletedSOS,
			HelpedSOS:        r.HelpedSOS,
			TotalPoints:      r.TotalPoints,
			TotalEarnings:    decimal.Zero,
			IsVerified:       r.IsVerified,
			CurrentAddress:   r.CurrentAddress,
			CurrentLatitude:  r.CurrentLatitude,
			CurrentLongitude: r.CurrentLongitude,
			Distance:         r.distance,
		}
		if e, ok := earnings[r.ID]; ok {
			entry.TotalEarnings = e
		}
		if category != nil {
			count := r.CategoryJobsCount
			entry.CategoryJobsCount = &count
		}
		if r.address != nil {
			// в режиме локации показывается выбранный адрес
			entry.CurrentAddress = &r.address.Address
			entry.CurrentLatitude = r.address.Latitude
			entry.CurrentLongitude = r.address.Longitude
		}
		entries = append(entries, entry)
	}

	return &dto.LeaderboardResponse{Category: categoryName, Entries: entries}, nil
}

// filterByLocation оставляет пользователей, чей представительный адрес в радиусе (включительно)
func (s *LeaderboardServiceImpl) filterByLocation(db *gorm.DB, rows []leaderboardRow, center geo.Point, radiusKm float64) ([]leaderboardRow, error) {
	ids := make([]uint64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	addresses, err := s.addressRepo.FindLocatedByUsers(db, ids)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	representative := SelectRepresentativeAddresses(addresses)

	kept := rows[:0]
	for _, r := range rows {
		addr, ok := representative[r.ID]
		if !ok {
			continue
		}
		d := geo.Distance(center, geo.Point{Lat: *addr.Latitude, Lon: *addr.Longitude})
		if !geo.WithinRadius(d, radiusKm) {
			continue
		}
		rounded := geo.Round2(d)
		a := addr
		r.distance = &rounded
		r.address = &a
		kept = append(kept, r)
	}
	return kept, nil
}

// sortLeaderboard - расстояние (если задано), затем категория или очки, затем счетчики и рейтинг
func sortLeaderboard(rows []leaderboardRow, byCategory, byDistance bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if byDistance && *a.distance != *b.distance {
			return *a.distance < *b.distance
		}
		if byCategory {
			if a.CategoryJobsCount != b.CategoryJobsCount {
				return a.CategoryJobsCount > b.CategoryJobsCount
			}
		} else if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.CompletedJobs != b.CompletedJobs {
			return a.CompletedJobs > b.CompletedJobs
		}
		if a.CompletedSOS != b.CompletedSOS {
			return a.CompletedSOS > b.CompletedSOS
		}
		if a.HelpedSOS != b.HelpedSOS {
			return a.HelpedSOS > b.HelpedSOS
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.ID < b.ID
	})
}

func (s *LeaderboardServiceImpl) UserRanking(db *gorm.DB, userID uint64) (*dto.UserRankingResponse, error) {
	target, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, handleUserError(err)
	}
	candidates, err := s.userRepo.FindLeaderboardCandidates(db, nil)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	total := 0
	rank := 1
	for i := range candidates {
		u := &candidates[i].User
		if !IsEligible(u) {
			continue
		}
		total++
		if u.ID != target.ID && Outranks(u, target) {
			rank++
		}
	}

	return &dto.UserRankingResponse{
		UserID:      target.ID,
		Rank:        rank,
		TotalUsers:  total,
		Percentile:  Percentile(rank, total),
		TotalPoints: target.TotalPoints,
	}, nil
}
