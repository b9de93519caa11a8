package validator

import (
	"log"
	"time"

	"github.com/go-playground/validator/v10"

	"gigsos_backend/internal/models"
)

// registerCustomRules регистрирует кастомные правила валидации
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// приложение не должно стартовать без правил
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("job_category", validateJobCategory)
	mustRegister("job_status", validateJobStatus)
	mustRegister("sos_update_status", validateSOSUpdateStatus)
	mustRegister("sos_status", validateSOSStatus)
	mustRegister("complaint_status", validateComplaintStatus)
	mustRegister("user_role", validateUserRole)
	mustRegister("future", validateFuture)
}

func validateJobCategory(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // 'required' обрабатывает пустые
	}
	return models.JobCategory(value).IsValid()
}

// только достижимые статусы
func validateJobStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.JobStatus(value).IsReachable()
}

// inProgress для SOS не выставляется
func validateSOSUpdateStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.SOSStatus(value) {
	case models.SOSStatusActive, models.SOSStatusCompleted, models.SOSStatusCancelled:
		return true
	default:
		return false
	}
}

func validateSOSStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.SOSStatus(value) {
	case models.SOSStatusActive, models.SOSStatusInProgress, models.SOSStatusCompleted, models.SOSStatusCancelled:
		return true
	default:
		return false
	}
}

func validateComplaintStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.BanComplaintStatus(value).IsValid()
}

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.UserRole(value) {
	case models.UserRoleUser, models.UserRoleAdmin, models.UserRoleSuperAdmin:
		return true
	default:
		return false
	}
}

// future - время строго в будущем; nil и zero пропускаются
func validateFuture(fl validator.FieldLevel) bool {
	field := fl.Field()
	if !field.CanInterface() {
		return false
	}
	t, ok := field.Interface().(time.Time)
	if !ok {
		return false
	}
	if t.IsZero() {
		return true
	}
	return t.After(time.Now())
}
