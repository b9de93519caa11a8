package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	AdditionalInfoPrivateOrder  = "is_private_order"
	AdditionalInfoDisputeReason = "dispute_reason"
	AdditionalInfoDisputedAt    = "disputed_at"
	AdditionalInfoAdminCancel   = "admin_cancel"
)

type Job struct {
	BaseModel
	CustomerID       uint64                      `gorm:"not null;index" json:"customer_id"`
	Title            string                      `gorm:"size:255;not null" json:"title"`
	Description      string                      `gorm:"type:text;not null" json:"description"`
	Category         JobCategory                 `gorm:"type:varchar(20);not null;index" json:"category"`
	Price            decimal.Decimal             `gorm:"type:decimal(10,2);not null" json:"price"`
	Latitude         float64                     `gorm:"type:decimal(10,8);not null" json:"latitude"`
	Longitude        float64                     `gorm:"type:decimal(11,8);not null" json:"longitude"`
	Address          string                      `gorm:"type:text;not null" json:"address"`
	ScheduledTime    *time.Time                  `json:"scheduled_time"`
	Status           JobStatus                   `gorm:"type:varchar(30);not null;default:'pending';index" json:"status"`
	AssignedWorkerID *uint64                     `gorm:"index" json:"assigned_worker_id"`
	ImageURLs        datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"image_urls"`
	AdditionalInfo   datatypes.JSONMap           `gorm:"type:jsonb" json:"additional_info"`
	CompletedAt      *time.Time                  `json:"completed_at"`

	CancelledByAdminID *uint64    `json:"cancelled_by_admin_id,omitempty"`
	AdminCancelReason  *string    `gorm:"type:text" json:"admin_cancel_reason,omitempty"`
	AdminCancelledAt   *time.Time `json:"admin_cancelled_at,omitempty"`

	// Distance - только для чтения, заполняется запросами с фильтром по радиусу (км)
	Distance *float64 `gorm:"->;-:migration" json:"distance,omitempty"`

	Customer       *User `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"customer,omitempty"`
	AssignedWorker *User `gorm:"foreignKey:AssignedWorkerID;constraint:OnDelete:SET NULL" json:"assigned_worker,omitempty"`
}

// ---------------- JobKind ----------------

type JobKind string

const (
	JobKindPublic  JobKind = "public"
	JobKindPrivate JobKind = "private"
)

// Kind читает флаг is_private_order из additional_info
func (j *Job) Kind() JobKind {
	if j.AdditionalInfo == nil {
		return JobKindPublic
	}
	switch v := j.AdditionalInfo[AdditionalInfoPrivateOrder].(type) {
	case bool:
		if v {
			return JobKindPrivate
		}
	case string:
		if v == "true" || v == "1" {
			return JobKindPrivate
		}
	case float64:
		if v == 1 {
			return JobKindPrivate
		}
	}
	return JobKindPublic
}

// SetKind пишет флаг обратно в additional_info, формат сериализации не меняется
func (j *Job) SetKind(kind JobKind) {
	if j.AdditionalInfo == nil {
		j.AdditionalInfo = datatypes.JSONMap{}
	}
	j.AdditionalInfo[AdditionalInfoPrivateOrder] = kind == JobKindPrivate
}

func (j *Job) IsPrivate() bool {
	return j.Kind() == JobKindPrivate
}

func (j *Job) IsOwnedBy(userID uint64) bool {
	return j.CustomerID == userID
}

func (j *Job) IsAssignedTo(userID uint64) bool {
	return j.AssignedWorkerID != nil && *j.AssignedWorkerID == userID
}

// SetInfo - запись в additional_info с ленивой инициализацией
func (j *Job) SetInfo(key string, value interface{}) {
	if j.AdditionalInfo == nil {
		j.AdditionalInfo = datatypes.JSONMap{}
	}
	j.AdditionalInfo[key] = value
}

// ---------------- Transitions ----------------

type JobTransition string

const (
	TransitionAcceptApplication JobTransition = "accept_application"
	TransitionAssign            JobTransition = "assign"
	TransitionAcceptPrivate     JobTransition = "accept_private"
	TransitionRejectPrivate     JobTransition = "reject_private"
	TransitionWorkerComplete    JobTransition = "worker_complete"
	TransitionCustomerConfirm   JobTransition = "customer_confirm"
	TransitionDispute           JobTransition = "dispute"
	TransitionCancel            JobTransition = "cancel"
	TransitionAdminCancel       JobTransition = "admin_cancel"
)

type jobTransitionRule struct {
	from   []JobStatus // пусто - любой статус, кроме except
	except []JobStatus
	to     JobStatus
}

var jobTransitions = map[JobTransition]jobTransitionRule{
	TransitionAcceptApplication: {from: []JobStatus{JobStatusPending}, to: JobStatusInProgress},
	TransitionAssign:            {from: []JobStatus{JobStatusPending}, to: JobStatusInProgress},
	TransitionAcceptPrivate:     {from: []JobStatus{JobStatusPending}, to: JobStatusInProgress},
	TransitionRejectPrivate:     {from: []JobStatus{JobStatusPending}, to: JobStatusCancelled},
	TransitionWorkerComplete:    {from: []JobStatus{JobStatusInProgress}, to: JobStatusPendingCompletion},
	TransitionCustomerConfirm:   {from: []JobStatus{JobStatusPendingCompletion}, to: JobStatusCompleted},
	TransitionDispute:           {from: []JobStatus{JobStatusPendingCompletion}, to: JobStatusDisputed},
	TransitionCancel:            {except: []JobStatus{JobStatusCompleted}, to: JobStatusCancelled},
	TransitionAdminCancel:       {except: []JobStatus{JobStatusCompleted}, to: JobStatusCancelled},
}

// TransitionError - переход недопустим из текущего статуса
type TransitionError struct {
	Transition JobTransition
	Current    JobStatus
	Required   []JobStatus
	Forbidden  []JobStatus
}

func (e *TransitionError) Error() string {
	if len(e.Required) > 0 {
		return fmt.Sprintf("cannot %s: job is %s, must be one of %v", e.Transition, e.Current, e.Required)
	}
	return fmt.Sprintf("cannot %s: job is %s", e.Transition, e.Current)
}

// CheckTransition проверяет guard перехода без изменения job
func (j *Job) CheckTransition(t JobTransition) error {
	rule, ok := jobTransitions[t]
	if !ok {
		return fmt.Errorf("unknown job transition %q", t)
	}
	for _, s := range rule.except {
		if j.Status == s {
			return &TransitionError{Transition: t, Current: j.Status, Forbidden: rule.except}
		}
	}
	if len(rule.from) == 0 {
		return nil
	}
	for _, s := range rule.from {
		if j.Status == s {
			return nil
		}
	}
	return &TransitionError{Transition: t, Current: j.Status, Required: rule.from}
}

// Apply выполняет переход: guard + новый статус
func (j *Job) Apply(t JobTransition) error {
	if err := j.CheckTransition(t); err != nil {
		return err
	}
	j.Status = jobTransitions[t].to
	return nil
}
