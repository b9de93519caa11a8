package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	UserHandler         *UserHandler
	AddressHandler      *AddressHandler
	JobHandler          *JobHandler
	ReviewHandler       *ReviewHandler
	SOSHandler          *SOSHandler
	LeaderboardHandler  *LeaderboardHandler
	NotificationHandler *NotificationHandler
	AdminHandler        *AdminHandler
}

// All - в порядке регистрации маршрутов
func (h *AppHandlers) All() []RouteRegistrar {
	return []RouteRegistrar{
		h.AuthHandler,
		h.UserHandler,
		h.AddressHandler,
		h.JobHandler,
		h.ReviewHandler,
		h.SOSHandler,
		h.LeaderboardHandler,
		h.NotificationHandler,
		h.AdminHandler,
	}
}

type RouteRegistrar interface {
	RegisterRoutes(groups RouteGroups)
}
