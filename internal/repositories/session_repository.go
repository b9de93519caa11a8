package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"gigsos_backend/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(db *gorm.DB, session *models.UserSession) error
	FindActive(db *gorm.DB, tokenID string, now time.Time) (*models.UserSession, error)
	DeleteByTokenID(db *gorm.DB, tokenID string) error
	// DeleteAllForUser - инвалидация всех сессий (бан)
	DeleteAllForUser(db *gorm.DB, userID uint64) (int64, error)
}

type SessionRepositoryImpl struct{}

func NewSessionRepository() SessionRepository {
	return &SessionRepositoryImpl{}
}

func (r *SessionRepositoryImpl) Create(db *gorm.DB, session *models.UserSession) error {
	return db.Create(session).Error
}

func (r *SessionRepositoryImpl) FindActive(db *gorm.DB, tokenID string, now time.Time) (*models.UserSession, error) {
	var session models.UserSession
	err := db.Where("token_id = ? AND expires_at > ?", tokenID, now).First(&session).Error
	if err != nil {
		return nil, notFound(err, ErrSessionNotFound)
	}
	return &session, nil
}

func (r *SessionRepositoryImpl) DeleteByTokenID(db *gorm.DB, tokenID string) error {
	return db.Where("token_id = ?", tokenID).Delete(&models.UserSession{}).Error
}

func (r *SessionRepositoryImpl) DeleteAllForUser(db *gorm.DB, userID uint64) (int64, error) {
	result := db.Where("user_id = ?", userID).Delete(&models.UserSession{})
	return result.RowsAffected, result.Error
}
