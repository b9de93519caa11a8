package apperrors

import (
	"net/http"
)

/*
Фабрики и предопределенные ошибки бизнес-логики.
Таксономия: validation / not-found / authorization / illegal-state / conflict.
*/

// =========================================================================
// Фабричные ФУНКЦИИ
// =========================================================================

// NotFound - 404 с доменом и сообщением
func NotFound(domain, message string) *AppError {
	return New(CodeNotFound, domain, message, http.StatusNotFound)
}

// ErrConflict - общая фабрика для конфликтов уникальности (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation - операция не имеет смысла для данных аргументов (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// ErrInvalidStatus - переход невозможен из текущего состояния (409).
// В details кладется нарушенное предусловие.
func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusConflict)
}

// Forbidden - у актора нет прав на этот переход (403)
func Forbidden(domain, message string) *AppError {
	return New(CodeForbidden, domain, message, http.StatusForbidden)
}

// =========================================================================
// Предопределенные ПЕРЕМЕННЫЕ
// =========================================================================

// ErrCannotModifySelf - админ пытается применить модерацию к себе
var ErrCannotModifySelf = New(
	CodeInvalidOperation,
	"moderation",
	"Operation on self is not allowed",
	http.StatusBadRequest,
)

// ErrInsufficientPermissions - не-админ пытается выполнить админ-действие
var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

// --- Auth ---

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

var ErrSessionRevoked = New(
	CodeInvalidToken,
	"auth",
	"Session has been revoked",
	http.StatusUnauthorized,
)

// UserBanned - аккаунт заблокирован; details содержат причину и срок
func UserBanned(reason *string, bannedUntil interface{}) *AppError {
	details := map[string]interface{}{"banned_until": bannedUntil}
	if reason != nil {
		details["reason"] = *reason
	}
	return New(CodeForbidden, "auth", "Your account has been banned", http.StatusForbidden).WithDetails(details)
}
