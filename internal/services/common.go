package services

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"gigsos_backend/internal/models"
	"gigsos_backend/internal/repositories"
	"gigsos_backend/pkg/apperrors"
)

// Clock - источник текущего времени, подменяется в тестах
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// dbContext достает контекст запроса, положенный DBMiddleware через db.WithContext
func dbContext(db *gorm.DB) context.Context {
	if db == nil || db.Statement == nil || db.Statement.Context == nil {
		return context.Background()
	}
	return db.Statement.Context
}

// page - нормализованная страница с размером по умолчанию
func page(n int) repositories.Pagination {
	if n < 1 {
		n = 1
	}
	return repositories.Pagination{Page: n, PageSize: repositories.DefaultPageSize}
}

// round2 - округление до двух знаков
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func strPtr(s string) *string {
	return &s
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

// transitionError переводит отказ guard'а в 409 с нарушенным предусловием
func transitionError(domain string, err error) error {
	var te *models.TransitionError
	if !errors.As(err, &te) {
		return apperrors.InternalError(err)
	}
	details := map[string]interface{}{
		"transition":     te.Transition,
		"current_status": te.Current,
	}
	if len(te.Required) > 0 {
		details["required_status"] = te.Required
	}
	if len(te.Forbidden) > 0 {
		details["forbidden_status"] = te.Forbidden
	}
	return apperrors.ErrInvalidStatus(domain, te.Error()).WithDetails(details)
}

// appErrorOr - AppError пробрасывается как есть, остальное через mapper
func appErrorOr(err error, mapper func(error) error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return mapper(err)
}

func handleUserError(err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return apperrors.NotFound("user", "User not found").WithError(err)
	}
	return apperrors.InternalError(err)
}
