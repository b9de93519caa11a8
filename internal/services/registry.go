package services

import (
	"gigsos_backend/internal/auth"
	"gigsos_backend/internal/repositories"
)

// Repositories - набор репозиториев, общий для всех сервисов
type Repositories struct {
	User         repositories.UserRepository
	Address      repositories.AddressRepository
	Job          repositories.JobRepository
	Application  repositories.ApplicationRepository
	Review       repositories.ReviewRepository
	SOS          repositories.SOSRepository
	Moderation   repositories.ModerationRepository
	Notification repositories.NotificationRepository
	Session      repositories.SessionRepository
	Ledger       repositories.LedgerRepository
	Transactor   repositories.Transactor
}

// NewRepositories - gorm-реализации всех репозиториев
func NewRepositories() Repositories {
	return Repositories{
		User:         repositories.NewUserRepository(),
		Address:      repositories.NewAddressRepository(),
		Job:          repositories.NewJobRepository(),
		Application:  repositories.NewApplicationRepository(),
		Review:       repositories.NewReviewRepository(),
		SOS:          repositories.NewSOSRepository(),
		Moderation:   repositories.NewModerationRepository(),
		Notification: repositories.NewNotificationRepository(),
		Session:      repositories.NewSessionRepository(),
		Ledger:       repositories.NewLedgerRepository(),
		Transactor:   repositories.NewTransactor(),
	}
}

// Options - параметры сервисов из конфига
type Options struct {
	SOS              SOSOptions
	Discovery        DiscoveryOptions
	LeaderboardLimit int
}

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService         AuthService
	NotificationService NotificationService
	PointsService       PointsService
	RatingService       RatingService
	JobService          JobService
	ReviewService       ReviewService
	SOSService          SOSService
	DiscoveryService    DiscoveryService
	LeaderboardService  LeaderboardService
	ModerationService   ModerationService
	AdminService        AdminService
	AddressService      AddressService
}

func NewServiceContainer(repos Repositories, tokens *auth.TokenManager, pusher Pusher, opts Options) *ServiceContainer {
	notificationService := NewNotificationService(repos.Notification, repos.User, pusher)
	pointsService := NewPointsService(repos.Ledger, repos.User, repos.Transactor)
	ratingService := NewRatingService(repos.Review, repos.User)
	moderationService := NewModerationService(
		repos.User, repos.Moderation, repos.Session, repos.Job, repos.Application, repos.Review,
		repos.Transactor, ratingService, notificationService,
	)

	return &ServiceContainer{
		AuthService:         NewAuthService(repos.User, repos.Session, moderationService, tokens),
		NotificationService: notificationService,
		PointsService:       pointsService,
		RatingService:       ratingService,
		JobService: NewJobService(
			repos.Job, repos.Application, repos.User, repos.Transactor, pointsService, notificationService,
		),
		ReviewService:      NewReviewService(repos.Review, repos.Job, repos.Transactor, ratingService),
		SOSService:         NewSOSService(repos.SOS, repos.User, repos.Transactor, pointsService, notificationService, opts.SOS),
		DiscoveryService:   NewDiscoveryService(repos.User, repos.Job, repos.SOS, opts.Discovery),
		LeaderboardService: NewLeaderboardService(repos.User, repos.Address, opts.LeaderboardLimit),
		ModerationService:  moderationService,
		AdminService:       NewAdminService(repos.User, repos.Job, repos.SOS, repos.Review, repos.Moderation),
		AddressService:     NewAddressService(repos.Address, repos.User, repos.Transactor),
	}
}
