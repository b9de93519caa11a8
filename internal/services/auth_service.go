package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"gigsos_backend/internal/auth"
	"gigsos_backend/internal/logger"
	"gigsos_backend/internal/models"
	"gigsos_backend/internal/repositories"
	"gigsos_backend/internal/services/dto"
	"gigsos_backend/pkg/apperrors"
)

type AuthService interface {
	Login(db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(db *gorm.DB, tokenID string) error
	Me(db *gorm.DB, userID uint64) (*models.User, error)

	// Authenticate проверяет токен и то, что сессия еще существует (бан удаляет сессии)
	Authenticate(db *gorm.DB, token string) (*auth.Claims, error)

	// EnsureFirstAdmin создает super_admin, если в системе еще нет ни одного
	EnsureFirstAdmin(db *gorm.DB, email, password, name string) (bool, error)
}

type AuthServiceImpl struct {
	userRepo    repositories.UserRepository
	sessionRepo repositories.SessionRepository
	bans        BanChecker
	tokens      *auth.TokenManager
	now         Clock
}

func NewAuthService(
	userRepo repositories.UserRepository,
	sessionRepo repositories.SessionRepository,
	bans BanChecker,
	tokens *auth.TokenManager,
) AuthService {
	return &AuthServiceImpl{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		bans:        bans,
		tokens:      tokens,
		now:         systemClock,
	}
}

func (s *AuthServiceImpl) Login(db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(db, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	banned, current, err := s.bans.IsCurrentlyBanned(db, user.ID)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, apperrors.UserBanned(current.BanReason, current.BannedUntil)
	}

	token, tokenID, expiresAt, err := s.tokens.Generate(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.sessionRepo.Create(db, &models.UserSession{
		UserID:    user.ID,
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(dbContext(db), "user logged in", "user_id", user.ID)
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        current,
	}, nil
}

func (s *AuthServiceImpl) Logout(db *gorm.DB, tokenID string) error {
	if err := s.sessionRepo.DeleteByTokenID(db, tokenID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *AuthServiceImpl) Me(db *gorm.DB, userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, handleUserError(err)
	}
	return user, nil
}

func (s *AuthServiceImpl) Authenticate(db *gorm.DB, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperrors.ErrInvalidToken.WithError(err)
	}
	if _, err := s.sessionRepo.FindActive(db, claims.ID, s.now()); err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, apperrors.ErrSessionRevoked
		}
		return nil, apperrors.InternalError(err)
	}
	return claims, nil
}

func (s *AuthServiceImpl) EnsureFirstAdmin(db *gorm.DB, email, password, name string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	exists, err := s.userRepo.ExistsByRole(db, models.UserRoleSuperAdmin)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := auth.ValidatePassword(password); err != nil {
		return false, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	if name == "" {
		name = "Administrator"
	}
	admin := &models.User{
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         models.UserRoleSuperAdmin,
		IsVerified:   true,
	}
	if err := s.userRepo.Create(db, admin); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
