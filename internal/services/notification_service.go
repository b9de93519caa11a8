package services

import (
	"errors"

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

// Notice - содержимое уведомления до сохранения
type Notice struct {
	Type        string
	Title       string
	Body        string
	RelatedType string
	RelatedID   uint64
	Data        map[string]interface{}
}

// Pusher - доставка в реальном времени (websocket hub). Может отсутствовать.
type Pusher interface {
	SendToUser(userID uint64, payload interface{}) bool
}

// NotificationDispatcher - то, что нужно доменным сервисам.
// Вызывается после коммита, ошибок не возвращает.
type NotificationDispatcher interface {
	Notify(db *gorm.DB, userID uint64, notice Notice)
	NotifyMany(db *gorm.DB, userIDs []uint64, notice Notice)
	// NotifyNearby - всем с текущей локацией в радиусе, кроме excludeUserID; возвращает число получателей
	NotifyNearby(db *gorm.DB, center geo.Point, radiusKm float64, excludeUserID uint64, notice Notice) int
}

type NotificationService interface {
	NotificationDispatcher

	List(db *gorm.DB, userID uint64, query *dto.NotificationListQuery) (*dto.NotificationListResponse, error)
	MarkRead(db *gorm.DB, userID uint64, ids []uint64) (int64, error)
	MarkAllRead(db *gorm.DB, userID uint64) (int64, error)
	Delete(db *gorm.DB, userID, notificationID uint64) error
}

type NotificationServiceImpl struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	pusher           Pusher
	now              Clock
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	pusher Pusher,
) NotificationService {
	return &NotificationServiceImpl{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		pusher:           pusher,
		now:              systemClock,
	}
}

// ==========================
// Dispatch
// ==========================

func (s *NotificationServiceImpl) build(userID uint64, notice Notice) *models.Notification {
	n := &models.Notification{
		UserID: userID,
		Type:   notice.Type,
		Title:  notice.Title,
		Body:   notice.Body,
	}
	if notice.RelatedType != "" {
		n.RelatedType = strPtr(notice.RelatedType)
		n.RelatedID = uint64Ptr(notice.RelatedID)
	}
	if len(notice.Data) > 0 {
		n.Data = datatypes.JSONMap(notice.Data)
	}
	return n
}

func (s *NotificationServiceImpl) Notify(db *gorm.DB, userID uint64, notice Notice) {
	s.NotifyMany(db, []uint64{userID}, notice)
}

func (s *NotificationServiceImpl) NotifyMany(db *gorm.DB, userIDs []uint64, notice Notice) {
	if len(userIDs) == 0 {
		return
	}
	rows := make([]*models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, s.build(id, notice))
	}

	err := s.notificationRepo.CreateBulk(db, rows)
	metrics.RecordNotification(notice.Type, err)
	if err != nil {
		logger.CtxWithError(dbContext(db), "notification dispatch failed", err,
			"type", notice.Type,
			"recipients", len(userIDs),
		)
		return
	}
	s.push(rows)
}

func (s *NotificationServiceImpl) NotifyNearby(db *gorm.DB, center geo.Point, radiusKm float64, excludeUserID uint64, notice Notice) int {
	candidates, err := s.userRepo.FindWithLocationNear(db, center.Lat, radiusKm, excludeUserID)
	if err != nil {
		metrics.RecordNotification(notice.Type, err)
		logger.CtxWithError(dbContext(db), "nearby recipients lookup failed", err, "type", notice.Type)
		return 0
	}

	recipients := make([]uint64, 0, len(candidates))
	for i := range candidates {
		u := &candidates[i]
		if u.ID == excludeUserID || !u.HasCurrentLocation() {
			continue
		}
		d := geo.Distance(center, geo.Point{Lat: *u.CurrentLatitude, Lon: *u.CurrentLongitude})
		if geo.WithinRadius(d, radiusKm) {
			recipients = append(recipients, u.ID)
		}
	}
	s.NotifyMany(db, recipients, notice)
	return len(recipients)
}

func (s *NotificationServiceImpl) push(rows []*models.Notification) {
	if s.pusher == nil {
		return
	}
	for _, n := range rows {
		s.pusher.SendToUser(n.UserID, n)
	}
}

// ==========================
// Inbox
// ==========================

func (s *NotificationServiceImpl) List(db *gorm.DB, userID uint64, query *dto.NotificationListQuery) (*dto.NotificationListResponse, error) {
	p := page(query.Page)
	items, total, err := s.notificationRepo.FindByUser(db, userID, repositories.NotificationCriteria{
		UnreadOnly: query.UnreadOnly,
		Pagination: p,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	unread, err := s.notificationRepo.CountUnread(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.NotificationListResponse{
		Notifications: items,
		Total:         total,
		UnreadCount:   unread,
		Page:          p.Page,
		PageSize:      p.PageSize,
		HasMore:       int64(p.Offset()+len(items)) < total,
	}, nil
}

func (s *NotificationServiceImpl) MarkRead(db *gorm.DB, userID uint64, ids []uint64) (int64, error) {
	updated, err := s.notificationRepo.MarkRead(db, userID, ids, s.now())
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return updated, nil
}

func (s *NotificationServiceImpl) MarkAllRead(db *gorm.DB, userID uint64) (int64, error) {
	updated, err := s.notificationRepo.MarkAllRead(db, userID, s.now())
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return updated, nil
}

func (s *NotificationServiceImpl) Delete(db *gorm.DB, userID, notificationID uint64) error {
	if err := s.notificationRepo.Delete(db, userID, notificationID); err != nil {
		return handleNotificationError(err)
	}
	return nil
}

func handleNotificationError(err error) error {
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		return apperrors.NotFound("notification", "Notification not found").WithError(err)
	}
	return apperrors.InternalError(err)
}

